package gcode

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names one extractable metadata value. The set is fixed; slicer
// configurations that omit a field simply leave it out of the mapping.
type Field string

const (
	FieldEstimatedTime     Field = "estimated_time"
	FieldFilamentLengthMM  Field = "filament_length_mm"
	FieldFilamentVolumeCM3 Field = "filament_volume_cm3"
	FieldFilamentMassG     Field = "filament_mass_g"
	FieldFilamentCost      Field = "filament_cost"
	FieldLayerCount        Field = "layer_count"
	FieldInfillPercent     Field = "infill_percent"
	FieldLayerHeight       Field = "layer_height"
	FieldNozzleTemp        Field = "nozzle_temp"
	FieldBedTemp           Field = "bed_temp"
	FieldPrintSpeed        Field = "print_speed"
)

type ValueKind uint8

const (
	KindDuration ValueKind = iota
	KindQuantity
	KindCount
)

func (k ValueKind) String() string {
	switch k {
	case KindDuration:
		return "duration"
	case KindQuantity:
		return "quantity"
	case KindCount:
		return "count"
	}
	return "unknown"
}

func (k ValueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Value is one parsed metadata value. Seconds is set for durations, Number
// for quantities and counts. Raw keeps the matched source text.
type Value struct {
	Kind    ValueKind `json:"kind"`
	Seconds int64     `json:"seconds,omitempty"`
	Number  float64   `json:"number,omitempty"`
	Raw     string    `json:"raw"`
}

type Metadata map[Field]Value

// pattern recognizes one labeled comment form of a field. Labels are matched
// as a prefix of the comment key (the text before "="), so version-specific
// suffixes such as "(silent mode)" still match. More specific labels are
// listed first within a field; across lines, last write wins.
type pattern struct {
	field  Field
	labels []string
	kind   ValueKind

	// sum adds up comma-separated per-extruder values instead of taking
	// the first one.
	sum bool
}

var fieldPatterns = []pattern{
	{field: FieldEstimatedTime, labels: []string{"estimated printing time (normal mode)", "estimated printing time"}, kind: KindDuration},
	{field: FieldFilamentLengthMM, labels: []string{"total filament used [mm]", "filament used [mm]"}, kind: KindQuantity, sum: true},
	{field: FieldFilamentVolumeCM3, labels: []string{"total filament used [cm3]", "filament used [cm3]"}, kind: KindQuantity, sum: true},
	{field: FieldFilamentMassG, labels: []string{"total filament used [g]", "filament used [g]"}, kind: KindQuantity, sum: true},
	{field: FieldFilamentCost, labels: []string{"total filament cost", "filament cost"}, kind: KindQuantity, sum: true},
	{field: FieldLayerCount, labels: []string{"total layers count"}, kind: KindCount},
	{field: FieldInfillPercent, labels: []string{"sparse_infill_density"}, kind: KindQuantity},
	{field: FieldLayerHeight, labels: []string{"layer_height"}, kind: KindQuantity},
	{field: FieldNozzleTemp, labels: []string{"nozzle_temperature"}, kind: KindQuantity},
	{field: FieldBedTemp, labels: []string{"hot_plate_temp", "textured_plate_temp"}, kind: KindQuantity},
	{field: FieldPrintSpeed, labels: []string{"print_speed", "outer_wall_speed"}, kind: KindQuantity},
}

// collectLabels are the comment labels the classifier treats as metadata when
// they appear outside marked blocks. This must cover every label the
// reassembler can synthesize, so that a converted file classifies back into
// the same sections.
var collectLabels = func() []string {
	labels := make([]string, 0, len(fieldPatterns)*2)
	for _, p := range fieldPatterns {
		labels = append(labels, p.labels...)
	}
	return labels
}()

func isMetadataLine(trimmed string) bool {
	key, _, ok := splitComment(trimmed)
	if !ok {
		return false
	}
	for _, label := range collectLabels {
		if matchLabel(key, label) {
			return true
		}
	}
	return false
}

// matchLabel accepts an exact key or a version-specific suffix set off by a
// space or parenthesis, e.g. "estimated printing time (silent mode)". A bare
// prefix is not enough: "nozzle_temperature_initial_layer" must not match
// "nozzle_temperature".
func matchLabel(key, label string) bool {
	if !strings.HasPrefix(key, label) {
		return false
	}
	if len(key) == len(label) {
		return true
	}
	next := key[len(label)]
	return next == ' ' || next == '('
}

// splitComment parses "; <key> = <value>" into its key and value parts.
func splitComment(trimmed string) (key, value string, ok bool) {
	if !strings.HasPrefix(trimmed, ";") {
		return "", "", false
	}
	rest := strings.TrimSpace(trimmed[1:])
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return "", "", false
	}
	return strings.TrimSpace(rest[:eq]), strings.TrimSpace(rest[eq+1:]), true
}

// Extract scans header, metadata and config blocks for labeled comment
// values. Extraction never mutates the blocks; unmatched lines are skipped
// and unparseable values are reported as warnings and omitted.
func Extract(blocks []Block) (Metadata, []string) {
	meta := make(Metadata)
	var warns []string

	for _, b := range blocks {
		switch b.Type {
		case BlockHeader, BlockMetadata, BlockConfig:
		default:
			continue
		}
		for _, line := range b.Lines {
			key, value, ok := splitComment(strings.TrimSpace(line))
			if !ok {
				continue
			}
			p, ok := matchPattern(key)
			if !ok {
				continue
			}
			v, err := parseValue(p, value)
			if err != nil {
				warns = append(warns, fmt.Sprintf("metadata: %s: %v", key, err))
				continue
			}
			meta[p.field] = v
		}
	}
	return meta, warns
}

func matchPattern(key string) (pattern, bool) {
	for _, p := range fieldPatterns {
		for _, label := range p.labels {
			if matchLabel(key, label) {
				return p, true
			}
		}
	}
	return pattern{}, false
}

func parseValue(p pattern, value string) (Value, error) {
	switch p.kind {
	case KindDuration:
		secs, err := parseDuration(value)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindDuration, Seconds: secs, Raw: value}, nil
	case KindCount:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("unparseable count %q", value)
		}
		return Value{Kind: KindCount, Number: float64(n), Raw: value}, nil
	default:
		n, err := parseQuantity(value, p.sum)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindQuantity, Number: n, Raw: value}, nil
	}
}

// parseDuration handles the slicer's "2d 1h 32m 17s" form, any subset of
// those units, and a bare number of seconds.
func parseDuration(value string) (int64, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, fmt.Errorf("unparseable duration %q", value)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	var total int64
	matched := false
	for _, tok := range strings.Fields(s) {
		unit := tok[len(tok)-1]
		num, err := strconv.ParseInt(tok[:len(tok)-1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable duration %q", value)
		}
		switch unit {
		case 'd':
			total += num * 86400
		case 'h':
			total += num * 3600
		case 'm':
			total += num * 60
		case 's':
			total += num
		default:
			return 0, fmt.Errorf("unparseable duration %q", value)
		}
		matched = true
	}
	if !matched {
		return 0, fmt.Errorf("unparseable duration %q", value)
	}
	return total, nil
}

// parseQuantity parses a numeric value with optional unit suffix, normalizing
// to the field's canonical unit (grams for mass, plain number for cost and
// percentages). Comma-separated per-extruder lists are summed when sum is
// set, otherwise the first entry wins.
func parseQuantity(value string, sum bool) (float64, error) {
	parts := strings.Split(value, ",")
	if !sum {
		parts = parts[:1]
	}
	var total float64
	for _, part := range parts {
		n, err := parseScalar(strings.TrimSpace(part))
		if err != nil {
			return 0, fmt.Errorf("unparseable value %q", value)
		}
		total += n
	}
	return total, nil
}

func parseScalar(s string) (float64, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	// Strip a trailing unit, normalizing where it changes scale.
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "kg"):
		s, scale = s[:len(s)-2], 1000
	case strings.HasSuffix(s, "mm"):
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "%"), strings.HasSuffix(s, "g"):
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return n * scale, nil
}
