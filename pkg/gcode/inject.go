package gcode

import "strings"

// Spaghetti-detector calls understood by FlashForge firmware. The detector is
// armed at the start of each filament's print gcode and disarmed at its end
// so print monitoring can flag detached extrusions.
const (
	DetectorEnableCall  = "M981 S1 P20000 ; Enable spaghetti detector"
	DetectorDisableCall = "M981 S0 P20000 ; Disable spaghetti detector"
)

// injectDetector inserts detector calls into the executable line stream, one
// immediately after each filament-change marker. Insertion is idempotent: a
// marker already followed by its call is left alone, so reconverting a
// converted file adds nothing. All other lines keep their exact order; the
// injector only ever inserts.
func injectDetector(lines []string, m Markers) ([]string, int) {
	out := make([]string, 0, len(lines))
	injected := 0

	for i, line := range lines {
		out = append(out, line)

		call, ok := detectorCall(line, m)
		if !ok {
			continue
		}
		if i+1 < len(lines) && strings.TrimSpace(lines[i+1]) == call {
			continue
		}
		out = append(out, call)
		injected++
	}
	return out, injected
}

func detectorCall(line string, m Markers) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(line))
	switch {
	case strings.Contains(lower, strings.ToLower(m.FilamentStart)):
		return DetectorEnableCall, true
	case strings.Contains(lower, strings.ToLower(m.FilamentEnd)):
		return DetectorDisableCall, true
	}
	return "", false
}
