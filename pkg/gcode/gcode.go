// Package gcode implements the OrcaSlicer to FlashForge G-code
// restructuring engine.
//
// A document is an ordered sequence of text lines partitioned into typed
// blocks by marker comments. The engine classifies every line, extracts print
// metadata from labeled comments, optionally injects spaghetti-detector calls
// at filament-change boundaries, and reassembles the blocks in the order
// FlashForge firmware expects: header, metadata, config, thumbnail,
// executable. It reorders structure only and never alters toolpath motion.
package gcode

import "strings"

type BlockType uint8

const (
	BlockHeader BlockType = iota
	BlockMetadata
	BlockConfig
	BlockThumbnail
	BlockExecutable
	BlockUnclassified
)

// canonicalOrder is the section order FlashForge firmware parses.
var canonicalOrder = []BlockType{
	BlockHeader,
	BlockMetadata,
	BlockConfig,
	BlockThumbnail,
	BlockExecutable,
}

func (t BlockType) String() string {
	switch t {
	case BlockHeader:
		return "header"
	case BlockMetadata:
		return "metadata"
	case BlockConfig:
		return "config"
	case BlockThumbnail:
		return "thumbnail"
	case BlockExecutable:
		return "executable"
	case BlockUnclassified:
		return "unclassified"
	}
	return "unknown"
}

// MarshalText lets BlockType appear as its name in JSON reports.
func (t BlockType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Block is a contiguous run of lines of one type. Lines are kept verbatim;
// only the injector and the metadata synthesizer ever produce new lines.
type Block struct {
	Type  BlockType
	Lines []string
}

// Document is the full ordered line sequence of one G-code file. Splitting is
// on "\n" only so that carriage returns and the presence or absence of a
// final newline survive a round trip untouched.
type Document struct {
	Lines []string
}

func ParseDocument(data []byte) Document {
	return Document{Lines: strings.Split(string(data), "\n")}
}

func (d Document) String() string {
	return strings.Join(d.Lines, "\n")
}

func (d Document) Bytes() []byte {
	return []byte(d.String())
}

func (d Document) LineCount() int {
	return len(d.Lines)
}

// Markers holds the marker-comment texts that delimit typed blocks and signal
// filament-change events. Block markers match a whole trimmed line; filament
// markers match as a case-insensitive substring, which is how OrcaSlicer
// emits them across versions.
type Markers struct {
	HeaderStart    string
	HeaderEnd      string
	ConfigStart    string
	ConfigEnd      string
	ThumbnailStart string
	ThumbnailEnd   string

	FilamentStart string
	FilamentEnd   string
}

// DefaultMarkers returns the marker set emitted by OrcaSlicer.
func DefaultMarkers() Markers {
	return Markers{
		HeaderStart:    "; HEADER_BLOCK_START",
		HeaderEnd:      "; HEADER_BLOCK_END",
		ConfigStart:    "; CONFIG_BLOCK_START",
		ConfigEnd:      "; CONFIG_BLOCK_END",
		ThumbnailStart: "; THUMBNAIL_BLOCK_START",
		ThumbnailEnd:   "; THUMBNAIL_BLOCK_END",
		FilamentStart:  "; filament start gcode",
		FilamentEnd:    "; filament end gcode",
	}
}
