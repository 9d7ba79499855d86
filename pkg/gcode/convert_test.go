package gcode

import (
	"errors"
	"strings"
	"testing"
)

func mustConvert(t *testing.T, doc Document, opts Options) *Result {
	t.Helper()
	res, err := Convert(doc, opts)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	return res
}

func sectionIndex(t *testing.T, lines []string, marker string) int {
	t.Helper()
	for i, line := range lines {
		if strings.TrimSpace(line) == marker {
			return i
		}
	}
	t.Fatalf("marker %q not found in output", marker)
	return -1
}

func TestConvertCanonicalOrder(t *testing.T) {
	t.Parallel()

	res := mustConvert(t, docFrom(orcaSource), DefaultOptions())
	out := res.Output.Lines

	header := sectionIndex(t, out, "; HEADER_BLOCK_END")
	metadata := sectionIndex(t, out, "; total layers count = 150")
	config := sectionIndex(t, out, "; CONFIG_BLOCK_START")
	thumbnail := sectionIndex(t, out, "; THUMBNAIL_BLOCK_START")
	executable := sectionIndex(t, out, "G28 ; home all axes")

	if !(header < metadata && metadata < config && config < thumbnail && thumbnail < executable) {
		t.Fatalf("sections out of order: header=%d metadata=%d config=%d thumbnail=%d executable=%d",
			header, metadata, config, thumbnail, executable)
	}
	if res.AlreadyCanonical {
		t.Fatalf("source document should not report as already canonical")
	}
}

func TestConvertNoDataLoss(t *testing.T) {
	t.Parallel()

	res := mustConvert(t, docFrom(orcaSource), DefaultOptions())

	counts := make(map[string]int)
	for _, line := range orcaSource {
		counts[line]++
	}
	for _, line := range res.Output.Lines {
		if line == DetectorEnableCall || line == DetectorDisableCall {
			continue
		}
		counts[line]--
	}
	for line, n := range counts {
		if n != 0 {
			t.Fatalf("line %q: count off by %d", line, n)
		}
	}
	if res.Injected != 2 {
		t.Fatalf("injected: got %d want 2", res.Injected)
	}
	if got, want := res.Output.LineCount(), len(orcaSource)+2; got != want {
		t.Fatalf("output line count: got %d want %d", got, want)
	}
}

func TestConvertIdempotent(t *testing.T) {
	t.Parallel()

	first := mustConvert(t, docFrom(orcaSource), DefaultOptions())
	second := mustConvert(t, first.Output, DefaultOptions())

	if second.Output.String() != first.Output.String() {
		t.Fatalf("second conversion changed the document:\n%q\nvs\n%q",
			second.Output.String(), first.Output.String())
	}
	if second.Injected != 0 {
		t.Fatalf("second conversion injected %d calls", second.Injected)
	}
	if !second.AlreadyCanonical {
		t.Fatalf("converted document should report as already canonical")
	}
}

func TestConvertDetectorDisabled(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.SpaghettiDetector = false
	res := mustConvert(t, docFrom(orcaSource), opts)

	if res.Injected != 0 {
		t.Fatalf("injected: got %d want 0", res.Injected)
	}
	if got, want := res.Output.LineCount(), len(orcaSource); got != want {
		t.Fatalf("output line count: got %d want %d", got, want)
	}
	for _, line := range res.Output.Lines {
		if strings.HasPrefix(strings.TrimSpace(line), "M981") {
			t.Fatalf("detector call present with injection disabled: %q", line)
		}
	}
}

// TestConvertScrambledWithSynthesizedMetadata covers a document with sections
// in the order executable, header, config and no metadata or thumbnail at
// all: the output must order header first, then a metadata section built from
// fields found in the header and config, then config, then executable with
// one injected call.
func TestConvertScrambledWithSynthesizedMetadata(t *testing.T) {
	t.Parallel()

	scrambled := []string{
		"G28",
		"; filament start gcode",
		"M109 S220",
		"G1 X10 Y10 E5",
		"; HEADER_BLOCK_START",
		"; generated by OrcaSlicer 2.1.1",
		"; estimated printing time (normal mode) = 32m 10s",
		"; HEADER_BLOCK_END",
		"; CONFIG_BLOCK_START",
		"; layer_height = 0.2",
		"; sparse_infill_density = 15%",
		"; CONFIG_BLOCK_END",
	}
	res := mustConvert(t, docFrom(scrambled), DefaultOptions())
	out := res.Output.Lines

	wantPrefix := []string{
		"; HEADER_BLOCK_START",
		"; generated by OrcaSlicer 2.1.1",
		"; estimated printing time (normal mode) = 32m 10s",
		"; HEADER_BLOCK_END",
		"; estimated printing time (normal mode) = 32m 10s",
		"; sparse_infill_density = 15%",
		"; layer_height = 0.20",
		"; CONFIG_BLOCK_START",
	}
	for i, want := range wantPrefix {
		if out[i] != want {
			t.Fatalf("output line %d: got %q want %q", i, out[i], want)
		}
	}

	start := sectionIndex(t, out, "; filament start gcode")
	if out[start+1] != DetectorEnableCall {
		t.Fatalf("expected injected call after marker, got %q", out[start+1])
	}
	if res.Injected != 1 {
		t.Fatalf("injected: got %d want 1", res.Injected)
	}

	// Line count grows only by the injected call plus the synthesized
	// metadata section (three extracted fields).
	if got, want := len(out), len(scrambled)+1+3; got != want {
		t.Fatalf("output line count: got %d want %d", got, want)
	}

	// Converting the output again must be byte-identical.
	second := mustConvert(t, res.Output, DefaultOptions())
	if second.Output.String() != res.Output.String() {
		t.Fatalf("reconversion changed synthesized document")
	}
	if !second.AlreadyCanonical {
		t.Fatalf("converted document should report as already canonical")
	}
}

// TestConvertSeparatorLinesStable covers output produced by older converter
// versions that padded a blank line between sections: those blanks classify
// with the section they follow, so reconversion is byte-identical and injects
// nothing.
func TestConvertSeparatorLinesStable(t *testing.T) {
	t.Parallel()

	padded := []string{
		"; HEADER_BLOCK_START",
		"; generated by OrcaSlicer 2.1.1",
		"; HEADER_BLOCK_END",
		"",
		"; total layers count = 42",
		"; layer_height = 0.20",
		"",
		"; CONFIG_BLOCK_START",
		"; nozzle_temperature = 220",
		"; CONFIG_BLOCK_END",
		"",
		"; THUMBNAIL_BLOCK_START",
		"; iVBORw0KGgo=",
		"; THUMBNAIL_BLOCK_END",
		"",
		"G28",
		"; filament start gcode",
		DetectorEnableCall,
		"M109 S220",
		"; filament end gcode",
		DetectorDisableCall,
	}
	res := mustConvert(t, docFrom(padded), DefaultOptions())

	if got, want := res.Output.String(), strings.Join(padded, "\n"); got != want {
		t.Fatalf("padded document changed:\n%q\nvs\n%q", got, want)
	}
	if res.Injected != 0 {
		t.Fatalf("injected: got %d want 0", res.Injected)
	}
	if !res.AlreadyCanonical {
		t.Fatalf("padded canonical document should report as already canonical")
	}
}

func TestConvertMetadataRoundTrip(t *testing.T) {
	t.Parallel()

	res := mustConvert(t, docFrom(orcaSource), DefaultOptions())

	if res.Fields[FieldLayerCount].Number != 150 {
		t.Fatalf("layer count: got %v", res.Fields[FieldLayerCount])
	}
	if res.Fields[FieldEstimatedTime].Seconds != 5537 {
		t.Fatalf("estimated time: got %v", res.Fields[FieldEstimatedTime])
	}
	if res.Fields[FieldFilamentMassG].Number != 11.95 {
		t.Fatalf("filament mass: got %v", res.Fields[FieldFilamentMassG])
	}

	// The source metadata lines survive verbatim, so no synthesized
	// section appears.
	joined := res.Output.String()
	if !strings.Contains(joined, "; filament used [mm] = 3985.70, 102.40") {
		t.Fatalf("source metadata line missing from output")
	}
}

func TestConvertCorruptDocumentProducesNothing(t *testing.T) {
	t.Parallel()

	corrupt := []string{
		"; HEADER_BLOCK_START",
		"; HEADER_BLOCK_END",
		"; THUMBNAIL_BLOCK_START",
		"; iVBORw0KGgoAAAANSUhEUg==",
	}
	res, err := Convert(docFrom(corrupt), DefaultOptions())
	if !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("expected ErrCorruptDocument, got %v", err)
	}
	if res != nil {
		t.Fatalf("corrupt input must not produce a result, got %+v", res)
	}
}

func TestConvertEmptyDocument(t *testing.T) {
	t.Parallel()

	doc := ParseDocument(nil)
	res := mustConvert(t, doc, DefaultOptions())
	if res.Output.String() != "" {
		t.Fatalf("empty input should convert to empty output, got %q", res.Output.String())
	}
}

func TestConvertBlockReport(t *testing.T) {
	t.Parallel()

	res := mustConvert(t, docFrom(orcaSource), DefaultOptions())

	wantCounts := map[BlockType]int{
		BlockHeader:     3,
		BlockThumbnail:  5,
		BlockMetadata:   6,
		BlockExecutable: 7,
		BlockConfig:     6,
	}
	for bt, want := range wantCounts {
		if got := res.Blocks[bt]; got != want {
			t.Fatalf("%s lines: got %d want %d", bt, got, want)
		}
	}
}
