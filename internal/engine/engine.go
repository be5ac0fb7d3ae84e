// Package engine reconstructs the temporal graph of a basketball game from
// its raw play-by-play stream: periods, lineup stints, opponent overlaps,
// player stints, attributed actions, and the scoring chain with plus/minus.
//
// The engine is pure: raw input in, graph out, no store access.
package engine

import (
	"fmt"

	"github.com/pable/go-courtgraph/internal/model"
)

// Build runs the full reconstruction pipeline on one game. Phases run in
// order and each depends on the previous ones; a failure aborts the game and
// the error names the phase that broke.
func Build(raw *model.RawGame) (*model.GameGraph, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil RawGame")
	}

	g := &model.GameGraph{
		GameID:     raw.GameID,
		SeasonID:   raw.SeasonID,
		HomeTeamID: raw.HomeTeamID,
		AwayTeamID: raw.AwayTeamID,
		Players:    raw.Players,
	}

	periods, err := buildPeriods(raw)
	if err != nil {
		return nil, phaseErr(raw.GameID, "periods", err)
	}
	g.Periods = periods
	g.Start = periods[0].Start
	g.End = periods[len(periods)-1].End
	g.Duration = g.End.Sub(g.Start)

	stints, lineups, err := buildLineupStints(raw, periods)
	if err != nil {
		return nil, phaseErr(raw.GameID, "lineups", err)
	}
	g.LineupStints = stints
	g.Lineups = lineups

	g.Overlaps = buildOverlaps(g.LineupStints, raw.HomeTeamID)
	g.PlayerStints = buildPlayerStints(raw.GameID, g.LineupStints)

	ix := newStintIndex(g)

	actions, warnings, err := attributeActions(raw, ix)
	if err != nil {
		return nil, phaseErr(raw.GameID, "attribution", err)
	}
	g.Actions = actions
	g.Warnings = warnings

	g.Scores = buildScores(g, ix)

	return g, nil
}

func phaseErr(gameID int64, phase string, err error) error {
	return fmt.Errorf("game %d: %s: %w", gameID, phase, err)
}
