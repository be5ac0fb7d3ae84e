package engine

import (
	"sort"

	"github.com/pable/go-courtgraph/internal/model"
)

// adjacencyTolerance absorbs fractional-second clock noise when deciding
// whether two of a player's consecutive lineup stints touch.
const adjacencyTolerance = 1e-3

// buildPlayerStints folds each player's lineup-stint memberships into
// maximal clock-adjacent runs per period, then chains each player's stints
// across the game with bench-gap durations.
func buildPlayerStints(gameID int64, stints []model.LineupStint) []model.PlayerStint {
	memberships := make(map[playerPeriod][]*model.LineupStint)
	for i := range stints {
		s := &stints[i]
		for _, p := range s.MemberIDs {
			k := playerPeriod{p, s.Period}
			memberships[k] = append(memberships[k], s)
		}
	}

	keys := make([]playerPeriod, 0, len(memberships))
	for k := range memberships {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].player != keys[j].player {
			return keys[i].player < keys[j].player
		}
		return keys[i].period < keys[j].period
	})

	var out []model.PlayerStint
	for _, k := range keys {
		seq := memberships[k]
		sort.Slice(seq, func(i, j int) bool { return seq[i].GlobalStart < seq[j].GlobalStart })

		runStart := 0
		for i := 1; i <= len(seq); i++ {
			if i < len(seq) && seq[i].GlobalStart-seq[i-1].GlobalEnd <= adjacencyTolerance {
				continue
			}
			out = append(out, foldRun(gameID, k.player, k.period, seq[runStart:i]))
			runStart = i
		}
	}

	// Successor links per player across the whole game.
	byPlayer := make(map[int64][]int)
	for i := range out {
		byPlayer[out[i].PlayerID] = append(byPlayer[out[i].PlayerID], i)
	}
	for _, idxs := range byPlayer {
		for j := 0; j < len(idxs)-1; j++ {
			cur := &out[idxs[j]]
			next := &out[idxs[j+1]]
			cur.NextID = next.ID
			cur.NextGap = next.GlobalStart - cur.GlobalEnd
			cur.NextSits = next.StartTime.Sub(cur.EndTime)
		}
	}

	return out
}

func foldRun(gameID, playerID int64, period int, run []*model.LineupStint) model.PlayerStint {
	first := run[0]
	last := run[len(run)-1]

	clockDur := 0.0
	ids := make([]string, len(run))
	for i, s := range run {
		clockDur += s.ClockDuration
		ids[i] = s.ID
	}

	key := model.PlayerStintKey{GameID: gameID, PlayerID: playerID, Period: period, Clock: first.StartClock}
	return model.PlayerStint{
		ID:            key.String(),
		GameID:        gameID,
		PlayerID:      playerID,
		TeamID:        first.TeamID,
		Period:        period,
		StartClock:    first.StartClock,
		GlobalStart:   first.GlobalStart,
		GlobalEnd:     last.GlobalEnd,
		ClockDuration: clockDur,
		StartTime:     first.StartTime,
		EndTime:       last.EndTime,
		TimeDuration:  last.EndTime.Sub(first.StartTime),
		StintIDs:      ids,
	}
}
