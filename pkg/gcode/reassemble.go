package gcode

import (
	"fmt"
	"strconv"
	"strings"
)

// synthOrder fixes the field order and comment syntax of a synthesized
// metadata section. Only fields present in the extracted mapping are emitted.
var synthOrder = []struct {
	field Field
	label string
}{
	{FieldFilamentLengthMM, "filament used [mm]"},
	{FieldFilamentVolumeCM3, "filament used [cm3]"},
	{FieldFilamentMassG, "total filament used [g]"},
	{FieldFilamentCost, "total filament cost"},
	{FieldLayerCount, "total layers count"},
	{FieldEstimatedTime, "estimated printing time (normal mode)"},
	{FieldInfillPercent, "sparse_infill_density"},
	{FieldLayerHeight, "layer_height"},
	{FieldNozzleTemp, "nozzle_temperature"},
	{FieldBedTemp, "hot_plate_temp"},
	{FieldPrintSpeed, "print_speed"},
}

// reassemble emits the classified blocks in canonical section order. Source
// lines are copied verbatim and nothing is padded in between, so the output
// line multiset is the input's plus injected calls; a metadata section is
// synthesized from the extracted mapping only when the source carried no
// metadata lines of its own. Empty sections emit zero lines.
func reassemble(blocks []Block, meta Metadata, executable []string) Document {
	sections := [][]string{
		collect(blocks, BlockHeader, BlockUnclassified),
		metadataSection(blocks, meta),
		collect(blocks, BlockConfig),
		collect(blocks, BlockThumbnail),
		executable,
	}

	var out []string
	for _, sec := range sections {
		out = append(out, sec...)
	}
	return Document{Lines: out}
}

// collect concatenates the lines of every block matching one of the given
// types, preserving document order. Unclassified lines ride along with the
// header, which is the position FlashForge tolerates best for stray content.
func collect(blocks []Block, types ...BlockType) []string {
	var lines []string
	for _, b := range blocks {
		for _, t := range types {
			if b.Type == t {
				lines = append(lines, b.Lines...)
				break
			}
		}
	}
	return lines
}

func metadataSection(blocks []Block, meta Metadata) []string {
	if lines := collect(blocks, BlockMetadata); len(lines) > 0 {
		return lines
	}
	return synthesizeMetadata(meta)
}

func synthesizeMetadata(meta Metadata) []string {
	var lines []string
	for _, s := range synthOrder {
		v, ok := meta[s.field]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("; %s = %s", s.label, formatValue(s.field, v)))
	}
	return lines
}

func formatValue(f Field, v Value) string {
	switch v.Kind {
	case KindDuration:
		return formatDuration(v.Seconds)
	case KindCount:
		return strconv.FormatInt(int64(v.Number), 10)
	}
	switch f {
	case FieldInfillPercent:
		return strconv.FormatFloat(v.Number, 'f', -1, 64) + "%"
	default:
		return strconv.FormatFloat(v.Number, 'f', 2, 64)
	}
}

// formatDuration renders seconds in the slicer's "1d 2h 3m 4s" form, omitting
// leading zero units.
func formatDuration(secs int64) string {
	if secs <= 0 {
		return "0s"
	}
	var parts []string
	for _, u := range []struct {
		unit  string
		width int64
	}{{"d", 86400}, {"h", 3600}, {"m", 60}, {"s", 1}} {
		n := secs / u.width
		secs %= u.width
		if n == 0 && len(parts) == 0 && u.unit != "s" {
			continue
		}
		if n > 0 || len(parts) > 0 || u.unit == "s" {
			parts = append(parts, strconv.FormatInt(n, 10)+u.unit)
		}
	}
	return strings.Join(parts, " ")
}
