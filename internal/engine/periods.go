package engine

import (
	"fmt"
	"time"

	"github.com/pable/go-courtgraph/internal/clock"
	"github.com/pable/go-courtgraph/internal/model"
)

// buildPeriods extracts the period table from the stream's "period"
// start/end markers. A regulation game has exactly 4 periods; anything past
// 4 is overtime. Fewer than 4 means the stream is truncated, which is fatal.
func buildPeriods(raw *model.RawGame) ([]model.Period, error) {
	starts := make(map[int]time.Time)
	ends := make(map[int]time.Time)
	maxN := 0

	for _, a := range raw.Actions {
		if a.ActionType != "period" {
			continue
		}
		switch a.SubType {
		case "start":
			starts[a.Period] = a.TimeActual
		case "end":
			ends[a.Period] = a.TimeActual
		}
		if a.Period > maxN {
			maxN = a.Period
		}
	}

	if maxN < 4 {
		return nil, fmt.Errorf("stream has %d period(s), a finished game has at least 4", maxN)
	}

	periods := make([]model.Period, 0, maxN)
	for n := 1; n <= maxN; n++ {
		start, ok := starts[n]
		if !ok {
			return nil, fmt.Errorf("period %d has no start marker", n)
		}
		end, ok := ends[n]
		if !ok {
			return nil, fmt.Errorf("period %d has no end marker", n)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("period %d ends before it starts", n)
		}
		periods = append(periods, model.Period{
			ID:              fmt.Sprintf("%d_%d", raw.GameID, n),
			GameID:          raw.GameID,
			Number:          n,
			Start:           start,
			End:             end,
			DurationSeconds: clock.PeriodLength(n),
		})
	}

	for i := 0; i < len(periods)-1; i++ {
		periods[i].NextID = periods[i+1].ID
		periods[i].GapToNext = periods[i+1].Start.Sub(periods[i].End)
	}

	return periods, nil
}
