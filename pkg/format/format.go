// Package format contains human-readable formatting helpers for user-facing messages
package format

import (
	"fmt"
	"strings"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// Size renders a byte count as a short human-readable string.
// Unknown or negative sizes render as "?".
func Size(nbytes int64) string {
	if nbytes <= 0 {
		return "?"
	}
	size := float64(nbytes)
	for i, unit := range sizeUnits {
		if size < 1024 || i == len(sizeUnits)-1 {
			val := strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", size), "0"), ".")
			return val + " " + unit
		}
		size /= 1024
	}
	return fmt.Sprintf("%d B", nbytes)
}

// Duration renders seconds as mm:ss or hh:mm:ss.
func Duration(seconds float64) string {
	if seconds < 0 {
		return "?"
	}
	s := int(seconds)
	h := s / 3600
	s -= h * 3600
	m := s / 60
	s -= m * 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ProgressBar renders a fixed-width unicode progress bar for pct in [0, 100].
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		width = 18
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(float64(width)*pct/100.0 + 0.5)
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}
