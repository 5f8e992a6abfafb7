// Package tools holds small output-formatting helpers shared by the CLI
// commands, kept separate from the state packages so display concerns
// never leak into persistence.
package tools

import (
	"fmt"
	"time"
)

// FormatDurationLong renders a millisecond duration as human-facing
// text ("1h 2m 3s", "2m 3s", or "3s" depending on magnitude), for the
// status command's "updated N ago" line.
func FormatDurationLong(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	d := (time.Duration(ms) * time.Millisecond).Round(time.Second)

	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
