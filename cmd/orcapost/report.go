package main

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/samcharles93/orcapost/pkg/gcode"
)

// runReport is the JSON envelope for inspect and --report output. Each run
// gets its own ID so reports from batch conversions can be told apart.
type runReport struct {
	ID string `json:"id"`
	*gcode.Result
}

func encodeReport(res *gcode.Result) ([]byte, error) {
	data, err := json.MarshalIndent(runReport{ID: uuid.NewString(), Result: res}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
