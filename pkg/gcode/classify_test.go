package gcode

import (
	"errors"
	"strings"
	"testing"
)

// orcaSource is a condensed but structurally faithful OrcaSlicer output:
// header and thumbnail up top, loose metadata comments, executable body with
// filament-change markers, config block at the bottom.
var orcaSource = []string{
	"; HEADER_BLOCK_START",
	"; generated by OrcaSlicer 2.1.1",
	"; HEADER_BLOCK_END",
	"; THUMBNAIL_BLOCK_START",
	"; thumbnail begin 48x48 1234",
	"; iVBORw0KGgoAAAANSUhEUg==",
	"; thumbnail end",
	"; THUMBNAIL_BLOCK_END",
	"; filament used [mm] = 3985.70, 102.40",
	"; filament used [cm3] = 9.58",
	"; filament used [g] = 11.95",
	"; filament cost = 0.24",
	"; total layers count = 150",
	"; estimated printing time (normal mode) = 1h 32m 17s",
	"G28 ; home all axes",
	"; filament start gcode",
	"M109 S220",
	"G1 X10 Y10 E5 F1500",
	"; filament end gcode",
	"M104 S0",
	"; CONFIG_BLOCK_START",
	"; layer_height = 0.2",
	"; sparse_infill_density = 15%",
	"; nozzle_temperature = 220,220",
	"; hot_plate_temp = 55",
	"; CONFIG_BLOCK_END",
	"",
}

func docFrom(lines []string) Document {
	return Document{Lines: append([]string(nil), lines...)}
}

func mustClassify(t *testing.T, lines []string) []Block {
	t.Helper()
	blocks, _, err := Classify(docFrom(lines), DefaultMarkers())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	return blocks
}

func TestClassifyIsPartition(t *testing.T) {
	t.Parallel()

	blocks := mustClassify(t, orcaSource)

	var flat []string
	for _, b := range blocks {
		flat = append(flat, b.Lines...)
	}
	if len(flat) != len(orcaSource) {
		t.Fatalf("line count: got %d want %d", len(flat), len(orcaSource))
	}
	for i := range flat {
		if flat[i] != orcaSource[i] {
			t.Fatalf("line %d: got %q want %q", i, flat[i], orcaSource[i])
		}
	}
}

func TestClassifyBlockSequence(t *testing.T) {
	t.Parallel()

	blocks := mustClassify(t, orcaSource)

	want := []BlockType{
		BlockHeader,
		BlockThumbnail,
		BlockMetadata,
		BlockExecutable,
		BlockConfig,
		BlockExecutable, // trailing blank line after the config block
	}
	if len(blocks) != len(want) {
		t.Fatalf("block count: got %d want %d (%v)", len(blocks), len(want), blockTypes(blocks))
	}
	for i, b := range blocks {
		if b.Type != want[i] {
			t.Fatalf("block %d: got %s want %s", i, b.Type, want[i])
		}
	}
}

func blockTypes(blocks []Block) []BlockType {
	types := make([]BlockType, len(blocks))
	for i, b := range blocks {
		types[i] = b.Type
	}
	return types
}

func TestClassifyMissingBlocksAreNotErrors(t *testing.T) {
	t.Parallel()

	lines := []string{
		"; plain preamble comment",
		"G28",
		"G1 X5 Y5",
	}
	blocks := mustClassify(t, lines)

	for _, b := range blocks {
		if b.Type == BlockThumbnail || b.Type == BlockConfig {
			t.Fatalf("unexpected %s block in markerless input", b.Type)
		}
	}
	if blocks[0].Type != BlockHeader {
		t.Fatalf("preamble should classify as header, got %s", blocks[0].Type)
	}
	if blocks[1].Type != BlockExecutable {
		t.Fatalf("instructions should classify as executable, got %s", blocks[1].Type)
	}
}

func TestClassifyUncertainLinesStayExecutable(t *testing.T) {
	t.Parallel()

	lines := []string{
		"G28",
		"; some unknown slicer comment",
		"",
		"G1 X5 Y5",
	}
	blocks := mustClassify(t, lines)

	if len(blocks) != 1 || blocks[0].Type != BlockExecutable {
		t.Fatalf("expected one executable block, got %v", blockTypes(blocks))
	}
	if len(blocks[0].Lines) != 4 {
		t.Fatalf("executable lines: got %d want 4", len(blocks[0].Lines))
	}
}

func TestClassifyUnterminatedThumbnailIsFatal(t *testing.T) {
	t.Parallel()

	lines := []string{
		"; THUMBNAIL_BLOCK_START",
		"; iVBORw0KGgoAAAANSUhEUg==",
	}
	_, _, err := Classify(docFrom(lines), DefaultMarkers())
	if !errors.Is(err, ErrUnterminatedBlock) {
		t.Fatalf("expected ErrUnterminatedBlock, got %v", err)
	}
	if !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("expected ErrCorruptDocument, got %v", err)
	}
}

func TestClassifyUnterminatedConfigClosesWithWarning(t *testing.T) {
	t.Parallel()

	lines := []string{
		"; CONFIG_BLOCK_START",
		"; layer_height = 0.2",
	}
	blocks, warns, err := Classify(docFrom(lines), DefaultMarkers())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Type != BlockConfig {
		t.Fatalf("expected one config block, got %v", blockTypes(blocks))
	}
	if len(warns) != 1 || !strings.Contains(warns[0], "not terminated") {
		t.Fatalf("expected unterminated warning, got %v", warns)
	}
}

func TestClassifyOrphanEndMarker(t *testing.T) {
	t.Parallel()

	lines := []string{
		"; generated by OrcaSlicer",
		"; CONFIG_BLOCK_END",
		"G28",
	}
	blocks, warns, err := Classify(docFrom(lines), DefaultMarkers())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	want := []BlockType{BlockHeader, BlockUnclassified, BlockExecutable}
	got := blockTypes(blocks)
	if len(got) != len(want) {
		t.Fatalf("block types: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("block types: got %v want %v", got, want)
		}
	}
	if len(warns) != 1 || !strings.Contains(warns[0], "orphan end marker") {
		t.Fatalf("expected orphan marker warning, got %v", warns)
	}
}

func TestClassifyTrailingLinesStickToSection(t *testing.T) {
	t.Parallel()

	lines := []string{
		"; HEADER_BLOCK_START",
		"; HEADER_BLOCK_END",
		"; a note after the header",
		"",
		"; CONFIG_BLOCK_START",
		"; CONFIG_BLOCK_END",
	}
	blocks := mustClassify(t, lines)

	if blocks[0].Type != BlockHeader || len(blocks[0].Lines) != 4 {
		t.Fatalf("expected trailing lines attached to header, got %v", blocks)
	}
}
