package clock

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"PT12M00.00S", 720},
		{"PT11M22.00S", 682},
		{"PT05M00.00S", 300},
		{"PT00M00.00S", 0},
		{"PT00M09.70S", 9.7},
		{"PT0M30S", 30},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if !almostEqual(got, c.want) {
			t.Errorf("Parse(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{"", "12:00", "PT12M", "PTxxM00.00S", "PT-1M00.00S"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"PT12M00.00S", "PT05M00.00S", "PT00M09.70S", "PT03M41.50S"} {
		secs, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got := Format(secs); got != s {
			t.Errorf("Format(Parse(%q)) = %q", s, got)
		}
	}
}

func TestGlobal(t *testing.T) {
	cases := []struct {
		period    int
		remaining float64
		want      float64
	}{
		{1, 720, 0},       // opening tip
		{1, 0, 720},       // end of Q1
		{2, 720, 720},     // Q2 open lines up with Q1 end
		{4, 0, 2880},      // end of regulation
		{5, 300, 2880},    // OT1 open
		{5, 0, 3180},      // OT1 end
		{6, 300, 3180},    // OT2 open
		{3, 120.5, 2039.5},
	}
	for _, c := range cases {
		got := Global(c.period, c.remaining)
		if !almostEqual(got, c.want) {
			t.Errorf("Global(%d, %v) = %v, want %v", c.period, c.remaining, got, c.want)
		}
	}
}

func TestGlobalMonotonicAcrossPeriods(t *testing.T) {
	prev := -1.0
	for p := 1; p <= 7; p++ {
		start := Global(p, PeriodLength(p))
		end := Global(p, 0)
		if start < prev {
			t.Fatalf("period %d starts at %v before previous end %v", p, start, prev)
		}
		if end <= start {
			t.Fatalf("period %d end %v not after start %v", p, end, start)
		}
		prev = end
	}
}

func TestStartClock(t *testing.T) {
	if got := StartClock(1); got != "PT12M00.00S" {
		t.Errorf("StartClock(1) = %q", got)
	}
	if got := StartClock(5); got != "PT05M00.00S" {
		t.Errorf("StartClock(5) = %q", got)
	}
}
