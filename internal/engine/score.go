package engine

import (
	"sort"

	"github.com/pable/go-courtgraph/internal/model"
)

// buildScores folds the made shots and free throws, in global-clock order,
// into the game's score chain, then settles plus/minus on every lineup and
// player stint. Period sub-scores reset when the period changes; margin is
// always home minus away.
func buildScores(g *model.GameGraph, ix *stintIndex) []model.Score {
	idxs := make([]int, 0, len(g.Actions))
	for i := range g.Actions {
		a := &g.Actions[i]
		if (a.Variant == model.ActionShot || a.Variant == model.ActionFreeThrow) && a.Made {
			idxs = append(idxs, i)
		}
	}
	sort.Slice(idxs, func(i, j int) bool {
		ai, aj := &g.Actions[idxs[i]], &g.Actions[idxs[j]]
		if ai.GlobalClock != aj.GlobalClock {
			return ai.GlobalClock < aj.GlobalClock
		}
		return ai.ID < aj.ID
	})

	var scores []model.Score
	home, away := 0, 0
	periodHome, periodAway := 0, 0
	curPeriod := 0

	for _, i := range idxs {
		a := &g.Actions[i]
		if a.Period != curPeriod {
			curPeriod = a.Period
			periodHome, periodAway = 0, 0
		}

		pts := a.PointValue
		scoredByHome := a.TeamID == g.HomeTeamID
		if scoredByHome {
			home += pts
			periodHome += pts
		} else {
			away += pts
			periodAway += pts
		}

		sc := model.Score{
			ID:              a.ID + "_score",
			ActionID:        a.ID,
			GameID:          g.GameID,
			Period:          a.Period,
			GlobalClock:     a.GlobalClock,
			Time:            a.Time,
			ScoringTeamID:   a.TeamID,
			Points:          pts,
			HomeScore:       home,
			AwayScore:       away,
			Margin:          home - away,
			PeriodHomeScore: periodHome,
			PeriodAwayScore: periodAway,
			PeriodMargin:    periodHome - periodAway,
		}

		if hs := ix.lineupAt(g.HomeTeamID, a.Period, a.GlobalClock); hs != nil {
			sc.HomeStintID = hs.ID
			if scoredByHome {
				hs.PointsFor += pts
			} else {
				hs.PointsAgainst += pts
			}
		}
		if as := ix.lineupAt(g.AwayTeamID, a.Period, a.GlobalClock); as != nil {
			sc.AwayStintID = as.ID
			if scoredByHome {
				as.PointsAgainst += pts
			} else {
				as.PointsFor += pts
			}
		}

		scores = append(scores, sc)
	}

	for i := 0; i < len(scores)-1; i++ {
		scores[i].NextID = scores[i+1].ID
	}

	stintByID := make(map[string]*model.LineupStint, len(g.LineupStints))
	for i := range g.LineupStints {
		s := &g.LineupStints[i]
		s.PlusMinus = s.PointsFor - s.PointsAgainst
		stintByID[s.ID] = s
	}

	// Player stints inherit from the lineup stints they merge.
	for i := range g.PlayerStints {
		ps := &g.PlayerStints[i]
		ps.PointsFor, ps.PointsAgainst = 0, 0
		for _, id := range ps.StintIDs {
			if ls := stintByID[id]; ls != nil {
				ps.PointsFor += ls.PointsFor
				ps.PointsAgainst += ls.PointsAgainst
			}
		}
		ps.PlusMinus = ps.PointsFor - ps.PointsAgainst
	}

	return scores
}
