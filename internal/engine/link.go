package engine

import (
	"sort"
	"time"

	"github.com/pable/go-courtgraph/internal/model"
)

// buildOverlaps pairs every home stint with every away stint of the same
// period and keeps the clock-interval intersections. Pairs are unordered and
// stored smaller stint id first.
func buildOverlaps(stints []model.LineupStint, homeTeamID int64) []model.Overlap {
	type periodSide struct {
		period int
		home   bool
	}
	byPeriod := make(map[periodSide][]*model.LineupStint)
	periodSet := make(map[int]bool)
	for i := range stints {
		s := &stints[i]
		byPeriod[periodSide{s.Period, s.TeamID == homeTeamID}] = append(byPeriod[periodSide{s.Period, s.TeamID == homeTeamID}], s)
		periodSet[s.Period] = true
	}

	periods := make([]int, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	var overlaps []model.Overlap
	for _, p := range periods {
		for _, h := range byPeriod[periodSide{p, true}] {
			for _, a := range byPeriod[periodSide{p, false}] {
				start := h.GlobalStart
				if a.GlobalStart > start {
					start = a.GlobalStart
				}
				end := h.GlobalEnd
				if a.GlobalEnd < end {
					end = a.GlobalEnd
				}
				if end <= start {
					continue
				}

				wallStart := h.StartTime
				if a.StartTime.After(wallStart) {
					wallStart = a.StartTime
				}
				wallEnd := h.EndTime
				if a.EndTime.Before(wallEnd) {
					wallEnd = a.EndTime
				}
				var wall time.Duration
				if wallEnd.After(wallStart) {
					wall = wallEnd.Sub(wallStart)
				}

				sa, sb := h.ID, a.ID
				if sb < sa {
					sa, sb = sb, sa
				}
				overlaps = append(overlaps, model.Overlap{
					StintA:        sa,
					StintB:        sb,
					GlobalStart:   start,
					GlobalEnd:     end,
					ClockDuration: end - start,
					TimeDuration:  wall,
				})
			}
		}
	}
	return overlaps
}
