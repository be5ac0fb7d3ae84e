package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/pable/go-courtgraph/internal/clock"
	"github.com/pable/go-courtgraph/internal/model"
)

// buildLineupStints derives both teams' lineup stints from the substitution
// stream, plus the distinct five-player units they reference. Stints come
// out in global-clock order per team, home team first, with successor links
// closed across the whole game.
func buildLineupStints(raw *model.RawGame, periods []model.Period) ([]model.LineupStint, []model.Lineup, error) {
	var all []model.LineupStint
	seen := make(map[string]bool)
	var lineups []model.Lineup

	for _, teamID := range []int64{raw.HomeTeamID, raw.AwayTeamID} {
		starters := raw.Starters[teamID]
		if len(starters) != 5 {
			return nil, nil, fmt.Errorf("team %d has %d starters, want 5", teamID, len(starters))
		}
		stints, err := teamStints(raw.GameID, teamID, starters, raw.Actions, periods)
		if err != nil {
			return nil, nil, fmt.Errorf("team %d: %w", teamID, err)
		}

		for i := range stints {
			lid := model.LineupID(stints[i].MemberIDs)
			stints[i].LineupID = lid
			if !seen[lid] {
				seen[lid] = true
				lineups = append(lineups, model.Lineup{
					ID:        lid,
					TeamID:    teamID,
					MemberIDs: append([]int64(nil), stints[i].MemberIDs...),
				})
			}
			if i > 0 {
				stints[i-1].NextID = stints[i].ID
			}
		}
		all = append(all, stints...)
	}

	return all, lineups, nil
}

// subGroup is a batch of substitutions sharing one clock tick. All swaps in
// a batch count as simultaneous: only the on-court set after the whole
// batch matters.
type subGroup struct {
	clock string
	time  time.Time
	subs  []model.RawAction
}

func teamStints(gameID, teamID int64, starters []int64, actions []model.RawAction, periods []model.Period) ([]model.LineupStint, error) {
	onCourt := make(map[int64]bool, 5)
	for _, p := range starters {
		onCourt[p] = true
	}

	subsByPeriod := make(map[int][]model.RawAction)
	for _, a := range actions {
		if a.ActionType == "substitution" && a.TeamID == teamID {
			subsByPeriod[a.Period] = append(subsByPeriod[a.Period], a)
		}
	}

	// openStint is a stint boundary before closing: we know when it started
	// and who was on the floor, not yet when it ends.
	type openStint struct {
		clock        string
		clockSeconds float64
		time         time.Time
		members      []int64
	}

	var all []model.LineupStint

	for _, p := range periods {
		openClock := clock.StartClock(p.Number)
		groups := groupSubsByClock(subsByPeriod[p.Number])

		// Swaps made during the break arrive stamped at the full clock.
		// Fold them into the period-opening lineup instead of emitting a
		// zero-length stint.
		i := 0
		for i < len(groups) && groups[i].clock == openClock {
			if err := applySubs(onCourt, groups[i].subs); err != nil {
				return nil, fmt.Errorf("period %d: %w", p.Number, err)
			}
			i++
		}
		members, err := currentFive(onCourt)
		if err != nil {
			return nil, fmt.Errorf("period %d open: %w", p.Number, err)
		}

		entries := []openStint{{
			clock:        openClock,
			clockSeconds: clock.PeriodLength(p.Number),
			time:         p.Start,
			members:      members,
		}}

		for ; i < len(groups); i++ {
			g := groups[i]
			if err := applySubs(onCourt, g.subs); err != nil {
				return nil, fmt.Errorf("period %d clock %s: %w", p.Number, g.clock, err)
			}
			members, err := currentFive(onCourt)
			if err != nil {
				return nil, fmt.Errorf("period %d clock %s: %w", p.Number, g.clock, err)
			}
			if sameMembers(members, entries[len(entries)-1].members) {
				continue // net no-op batch, no boundary
			}
			secs, err := clock.Parse(g.clock)
			if err != nil {
				return nil, fmt.Errorf("period %d: %w", p.Number, err)
			}
			entries = append(entries, openStint{
				clock:        g.clock,
				clockSeconds: secs,
				time:         g.time,
				members:      members,
			})
		}

		// Close each entry against the next boundary or the period end.
		for j, e := range entries {
			endClock := "PT00M00.00S"
			endSecs := 0.0
			endTime := p.End
			if j+1 < len(entries) {
				next := entries[j+1]
				endClock = next.clock
				endSecs = next.clockSeconds
				endTime = next.time
			}
			key := model.StintKey{GameID: gameID, TeamID: teamID, Period: p.Number, Clock: e.clock}
			all = append(all, model.LineupStint{
				ID:                key.String(),
				GameID:            gameID,
				TeamID:            teamID,
				Period:            p.Number,
				MemberIDs:         e.members,
				StartClock:        e.clock,
				EndClock:          endClock,
				StartClockSeconds: e.clockSeconds,
				EndClockSeconds:   endSecs,
				GlobalStart:       clock.Global(p.Number, e.clockSeconds),
				GlobalEnd:         clock.Global(p.Number, endSecs),
				ClockDuration:     e.clockSeconds - endSecs,
				StartTime:         e.time,
				EndTime:           endTime,
			})
		}
	}

	return all, nil
}

// groupSubsByClock batches a period's substitutions by clock value,
// preserving first-appearance order.
func groupSubsByClock(subs []model.RawAction) []subGroup {
	var groups []subGroup
	at := make(map[string]int)
	for _, s := range subs {
		if i, ok := at[s.Clock]; ok {
			groups[i].subs = append(groups[i].subs, s)
			continue
		}
		at[s.Clock] = len(groups)
		groups = append(groups, subGroup{clock: s.Clock, time: s.TimeActual, subs: []model.RawAction{s}})
	}
	return groups
}

func applySubs(onCourt map[int64]bool, subs []model.RawAction) error {
	for _, s := range subs {
		switch s.SubType {
		case "out":
			if !onCourt[s.PersonID] {
				return fmt.Errorf("substitution out for player %d who is not on court", s.PersonID)
			}
			delete(onCourt, s.PersonID)
		case "in":
			if onCourt[s.PersonID] {
				return fmt.Errorf("substitution in for player %d who is already on court", s.PersonID)
			}
			onCourt[s.PersonID] = true
		default:
			return fmt.Errorf("substitution with unknown direction %q", s.SubType)
		}
	}
	return nil
}

func currentFive(onCourt map[int64]bool) ([]int64, error) {
	if len(onCourt) != 5 {
		return nil, fmt.Errorf("on-court count %d after substitution batch, want 5", len(onCourt))
	}
	members := make([]int64, 0, 5)
	for p := range onCourt {
		members = append(members, p)
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	return members, nil
}

func sameMembers(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
