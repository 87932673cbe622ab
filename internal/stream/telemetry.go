package stream

import (
	"regexp"
	"strconv"
)

// TelemetryStats is the structured form of one chunk of encoder progress
// output. It represents the most recent parse, not a cumulative history.
type TelemetryStats struct {
	Bitrate float64 `json:"bitrate"` // kbps
	FPS     int     `json:"fps"`
	Time    string  `json:"time"` // hh:mm:ss
}

var (
	bitrateRegex = regexp.MustCompile(`bitrate=\s*([\d.]+)\s*kbits/s`)
	fpsRegex     = regexp.MustCompile(`fps=\s*(\d+)`)
	timeRegex    = regexp.MustCompile(`time=(\d{2}:\d{2}:\d{2})`)
)

// ParseTelemetry extracts progress stats from a chunk of encoder output.
// It is pure and stateless: chunks are parsed independently, never
// buffered across calls, so a chunk boundary splitting a line only loses
// the patterns that were split. It returns ok=false when neither bitrate
// nor fps is present; a timestamp alone is not enough. Missing fields
// default to zero values so consumers always receive a complete record.
func ParseTelemetry(chunk string) (TelemetryStats, bool) {
	stats := TelemetryStats{Time: "00:00:00"}
	found := false

	if m := bitrateRegex.FindStringSubmatch(chunk); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			stats.Bitrate = v
			found = true
		}
	}

	if m := fpsRegex.FindStringSubmatch(chunk); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			stats.FPS = v
			found = true
		}
	}

	if m := timeRegex.FindStringSubmatch(chunk); m != nil {
		stats.Time = m[1]
	}

	return stats, found
}
