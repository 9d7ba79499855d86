package gcode

import "errors"

var (
	// ErrCorruptDocument covers structural damage that would force the
	// engine to guess about executable content. Conversion refuses to
	// produce output rather than risk a corrupt toolpath.
	ErrCorruptDocument = errors.New("corrupt g-code document")

	// ErrUnterminatedBlock is a thumbnail block whose end marker never
	// arrives. Thumbnail payloads are encoded data, so a missing end
	// marker means truncation, not formatting variance.
	ErrUnterminatedBlock = errors.New("unterminated block")
)
