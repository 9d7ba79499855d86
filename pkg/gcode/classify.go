package gcode

import (
	"fmt"
	"strings"
)

// classifier is a single-pass state machine over raw lines. Its output is a
// partition: concatenating the emitted blocks in order reproduces the input
// exactly, with every line assigned to exactly one block.
type classifier struct {
	markers Markers

	blocks []Block
	warns  []string

	// current is the semantic type lines attach to when no stronger rule
	// applies. It persists across an end marker so that trailing blank and
	// comment lines stay with the section they follow, which is what makes
	// reconverting an already-converted file byte-identical.
	current BlockType

	// inMarked is set between a start marker and its end marker. Inside a
	// marked region every line belongs to the region, no exceptions.
	inMarked bool

	// seenExec is set once an instruction line has been seen outside any
	// marked region. From then on, loose lines of uncertain type default
	// to executable rather than drifting into neighboring sections.
	seenExec bool

	openedAt int // line index of the pending start marker, for errors
}

// Classify partitions a document into typed blocks. Missing blocks are not an
// error; the returned warnings note recoverable oddities. An unterminated
// thumbnail block is fatal because its payload is encoded data that cannot be
// told apart from truncation.
func Classify(doc Document, m Markers) ([]Block, []string, error) {
	c := &classifier{markers: m, current: BlockHeader}

	for i, line := range doc.Lines {
		if err := c.feed(i, line); err != nil {
			return nil, nil, err
		}
	}
	if c.inMarked {
		if c.current == BlockThumbnail {
			return nil, nil, fmt.Errorf("%w: %w: thumbnail block opened at line %d has no end marker",
				ErrCorruptDocument, ErrUnterminatedBlock, c.openedAt+1)
		}
		// Header and config blocks are comment-only, so closing them at
		// end of input loses nothing.
		c.warns = append(c.warns, fmt.Sprintf("classify: %s block opened at line %d not terminated before end of input",
			c.current, c.openedAt+1))
	}
	return c.blocks, c.warns, nil
}

func (c *classifier) feed(index int, line string) error {
	trimmed := strings.TrimSpace(line)

	if c.inMarked {
		c.append(c.current, line)
		if trimmed == c.endMarker(c.current) {
			c.inMarked = false
		}
		return nil
	}

	if t, ok := c.startType(trimmed); ok {
		c.current = t
		c.inMarked = true
		c.openedAt = index
		c.append(t, line)
		return nil
	}

	if _, ok := c.endType(trimmed); ok {
		// An end marker with no matching start. Preserve it, but do not
		// let it retype the surrounding lines.
		c.warns = append(c.warns, fmt.Sprintf("classify: orphan end marker %q at line %d", trimmed, index+1))
		c.append(BlockUnclassified, line)
		return nil
	}

	if isMetadataLine(trimmed) {
		c.current = BlockMetadata
		c.append(BlockMetadata, line)
		return nil
	}

	if isInstruction(trimmed) {
		c.current = BlockExecutable
		c.seenExec = true
		c.append(BlockExecutable, line)
		return nil
	}

	// Comment or blank line outside any marked region.
	if c.seenExec {
		c.append(BlockExecutable, line)
		return nil
	}
	c.append(c.current, line)
	return nil
}

func (c *classifier) append(t BlockType, line string) {
	if n := len(c.blocks); n > 0 && c.blocks[n-1].Type == t {
		c.blocks[n-1].Lines = append(c.blocks[n-1].Lines, line)
		return
	}
	c.blocks = append(c.blocks, Block{Type: t, Lines: []string{line}})
}

func (c *classifier) startType(trimmed string) (BlockType, bool) {
	switch trimmed {
	case c.markers.HeaderStart:
		return BlockHeader, true
	case c.markers.ConfigStart:
		return BlockConfig, true
	case c.markers.ThumbnailStart:
		return BlockThumbnail, true
	}
	return 0, false
}

func (c *classifier) endType(trimmed string) (BlockType, bool) {
	switch trimmed {
	case c.markers.HeaderEnd:
		return BlockHeader, true
	case c.markers.ConfigEnd:
		return BlockConfig, true
	case c.markers.ThumbnailEnd:
		return BlockThumbnail, true
	}
	return 0, false
}

func (c *classifier) endMarker(t BlockType) string {
	switch t {
	case BlockHeader:
		return c.markers.HeaderEnd
	case BlockConfig:
		return c.markers.ConfigEnd
	case BlockThumbnail:
		return c.markers.ThumbnailEnd
	}
	return ""
}

// isInstruction reports whether a loose line is executable content. Anything
// that is not blank and not a comment drives the machine and must never be
// reordered away from the instruction stream.
func isInstruction(trimmed string) bool {
	return trimmed != "" && !strings.HasPrefix(trimmed, ";")
}
