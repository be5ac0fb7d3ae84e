// Package clock implements the two-axis game clock: per-period countdown
// values as the feed reports them, and a monotonic global clock counting
// seconds elapsed since the opening tip.
package clock

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// RegulationSeconds is the game-clock length of periods 1-4.
	RegulationSeconds = 720.0
	// OvertimeSeconds is the game-clock length of periods 5+.
	OvertimeSeconds = 300.0

	regulationTotal = 4 * RegulationSeconds
)

// Parse converts a feed clock value like "PT11M22.00S" into seconds
// remaining in the period.
func Parse(s string) (float64, error) {
	orig := s
	if !strings.HasPrefix(s, "PT") || !strings.HasSuffix(s, "S") {
		return 0, fmt.Errorf("malformed clock %q", orig)
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "PT"), "S")
	mins := 0.0
	if i := strings.Index(s, "M"); i >= 0 {
		m, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return 0, fmt.Errorf("malformed clock %q: %w", orig, err)
		}
		mins = m
		s = s[i+1:]
	}
	secs := 0.0
	if s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed clock %q: %w", orig, err)
		}
		secs = v
	}
	total := mins*60 + secs
	if total < 0 {
		return 0, fmt.Errorf("negative clock %q", orig)
	}
	return total, nil
}

// Format renders seconds remaining back into the feed's clock notation.
func Format(seconds float64) string {
	m := int(seconds) / 60
	s := seconds - float64(m)*60
	return fmt.Sprintf("PT%02dM%05.2fS", m, s)
}

// PeriodLength returns the game-clock length of period n in seconds.
func PeriodLength(n int) float64 {
	if n <= 4 {
		return RegulationSeconds
	}
	return OvertimeSeconds
}

// PeriodStart returns the global clock at which period n opens.
func PeriodStart(n int) float64 {
	if n <= 4 {
		return float64(n-1) * RegulationSeconds
	}
	return regulationTotal + float64(n-5)*OvertimeSeconds
}

// PeriodEnd returns the global clock at which period n ends.
func PeriodEnd(n int) float64 {
	return PeriodStart(n) + PeriodLength(n)
}

// StartClock returns the feed clock value at the open of period n.
func StartClock(n int) string {
	return Format(PeriodLength(n))
}

// Global maps (period, seconds remaining) onto the global clock.
func Global(period int, remaining float64) float64 {
	return PeriodStart(period) + PeriodLength(period) - remaining
}
