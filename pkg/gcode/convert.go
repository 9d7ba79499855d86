package gcode

// Options configures one conversion run. The detector toggle travels with the
// call rather than living in package state so that parallel conversions of
// different files stay independent.
type Options struct {
	// SpaghettiDetector inserts M981 monitoring calls at filament-change
	// boundaries. Defaults to on.
	SpaghettiDetector bool

	// Markers overrides the marker-comment set. The zero value means
	// DefaultMarkers.
	Markers Markers
}

func DefaultOptions() Options {
	return Options{
		SpaghettiDetector: true,
		Markers:           DefaultMarkers(),
	}
}

// Result reports one conversion: the output document plus what the engine
// found along the way. Warnings are recoverable extraction issues; anything
// structural fails the conversion instead.
type Result struct {
	Output Document `json:"-"`

	// Blocks maps each block type found in the source to its line count.
	Blocks map[BlockType]int `json:"blocks"`

	// Fields is the extracted metadata mapping. Absent fields were not
	// present in any recognized form.
	Fields Metadata `json:"fields"`

	// Injected is the number of detector calls inserted.
	Injected int `json:"injected"`

	// AlreadyCanonical is set when the source sections were already in
	// target order, i.e. the input was converted before.
	AlreadyCanonical bool `json:"already_canonical"`

	Warnings []string `json:"warnings,omitempty"`
}

// Convert runs the whole pipeline over one document: classify, extract,
// inject, reassemble. It is a pure function of its inputs; the result is
// computed fully in memory and either returned whole or not at all.
// Converting the output of a previous conversion yields an identical
// document.
func Convert(doc Document, opts Options) (*Result, error) {
	if opts.Markers == (Markers{}) {
		opts.Markers = DefaultMarkers()
	}

	blocks, warns, err := Classify(doc, opts.Markers)
	if err != nil {
		return nil, err
	}

	meta, metaWarns := Extract(blocks)
	warns = append(warns, metaWarns...)

	executable := collect(blocks, BlockExecutable)
	injected := 0
	if opts.SpaghettiDetector {
		executable, injected = injectDetector(executable, opts.Markers)
	}

	res := &Result{
		Output:           reassemble(blocks, meta, executable),
		Blocks:           blockCounts(blocks),
		Fields:           meta,
		Injected:         injected,
		AlreadyCanonical: inCanonicalOrder(blocks),
		Warnings:         warns,
	}
	return res, nil
}

func blockCounts(blocks []Block) map[BlockType]int {
	counts := make(map[BlockType]int)
	for _, b := range blocks {
		counts[b.Type] += len(b.Lines)
	}
	return counts
}

// inCanonicalOrder reports whether the block types already appear in target
// section order, treating unclassified lines as header content.
func inCanonicalOrder(blocks []Block) bool {
	rank := func(t BlockType) int {
		if t == BlockUnclassified {
			t = BlockHeader
		}
		for i, ct := range canonicalOrder {
			if t == ct {
				return i
			}
		}
		return len(canonicalOrder)
	}

	last := -1
	for _, b := range blocks {
		r := rank(b.Type)
		if r < last {
			return false
		}
		last = r
	}
	return true
}
