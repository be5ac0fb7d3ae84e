package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/pable/go-courtgraph/internal/clock"
	"github.com/pable/go-courtgraph/internal/model"
)

// reboundWindow is how far back a rebound reaches for the miss it gathered,
// in game-clock seconds.
const reboundWindow = 10.0

// clockEpsilon treats global-clock values this close as the same instant.
const clockEpsilon = 1e-3

// stintIndex resolves "who was on the floor at global clock t" lookups for
// both lineup and player stints. Intervals are half-open [start, end); an
// event landing exactly on the period end falls back to the period's last
// stint so buzzer plays still resolve.
type stintIndex struct {
	homeTeamID int64
	awayTeamID int64

	lineups   map[teamPeriod][]*model.LineupStint
	players   map[playerPeriod][]*model.PlayerStint
	periodEnd map[int]float64
}

type teamPeriod struct {
	team   int64
	period int
}

type playerPeriod struct {
	player int64
	period int
}

func newStintIndex(g *model.GameGraph) *stintIndex {
	ix := &stintIndex{
		homeTeamID: g.HomeTeamID,
		awayTeamID: g.AwayTeamID,
		lineups:    make(map[teamPeriod][]*model.LineupStint),
		players:    make(map[playerPeriod][]*model.PlayerStint),
		periodEnd:  make(map[int]float64),
	}
	for _, p := range g.Periods {
		ix.periodEnd[p.Number] = clock.PeriodEnd(p.Number)
	}
	for i := range g.LineupStints {
		s := &g.LineupStints[i]
		k := teamPeriod{s.TeamID, s.Period}
		ix.lineups[k] = append(ix.lineups[k], s)
	}
	for i := range g.PlayerStints {
		s := &g.PlayerStints[i]
		k := playerPeriod{s.PlayerID, s.Period}
		ix.players[k] = append(ix.players[k], s)
	}
	return ix
}

func (ix *stintIndex) lineupAt(teamID int64, period int, t float64) *model.LineupStint {
	for _, s := range ix.lineups[teamPeriod{teamID, period}] {
		if t >= s.GlobalStart && t < s.GlobalEnd {
			return s
		}
		if ix.closesPeriod(s.GlobalEnd, period) && math.Abs(t-s.GlobalEnd) < clockEpsilon {
			return s
		}
	}
	return nil
}

func (ix *stintIndex) playerAt(playerID int64, period int, t float64) *model.PlayerStint {
	for _, s := range ix.players[playerPeriod{playerID, period}] {
		if t >= s.GlobalStart && t < s.GlobalEnd {
			return s
		}
		if ix.closesPeriod(s.GlobalEnd, period) && math.Abs(t-s.GlobalEnd) < clockEpsilon {
			return s
		}
	}
	return nil
}

func (ix *stintIndex) closesPeriod(globalEnd float64, period int) bool {
	return math.Abs(globalEnd-ix.periodEnd[period]) < clockEpsilon
}

// attributeActions converts the raw stream into attributed actions anchored
// to the stints on the floor when they happened. A missing cross-reference
// (e.g. an assist by a player the lineup data says was benched) is a soft
// miss: the edge is skipped and a warning recorded.
func attributeActions(raw *model.RawGame, ix *stintIndex) ([]model.Action, []string, error) {
	var actions []model.Action
	var warnings []string

	// Misses seen so far, for the rebound lookback.
	type missRef struct {
		id     string
		gclock float64
		taken  bool
	}
	var misses []missRef

	// Fouls seen so far, for the free-throw causation link.
	type foulRef struct {
		id     string
		period int
		gclock float64
	}
	var fouls []foulRef

	warn := func(a model.RawAction, format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		warnings = append(warnings, fmt.Sprintf("action %d (%s, period %d %s): %s",
			a.ActionNumber, a.ActionType, a.Period, a.Clock, msg))
	}

	for _, ra := range raw.Actions {
		variant, ok := classify(ra.ActionType)
		if !ok {
			continue
		}

		secs, err := clock.Parse(ra.Clock)
		if err != nil {
			return nil, nil, fmt.Errorf("action %d: %w", ra.ActionNumber, err)
		}
		gclock := clock.Global(ra.Period, secs)

		teamLevel := ra.PersonID == 0 || ra.PersonID == ra.TeamID
		actor := ra.PersonID
		if teamLevel {
			actor = ra.TeamID
		}
		qualifier := ""
		if variant == model.ActionFreeThrow {
			qualifier = ra.SubType
		}
		key := model.ActionKey{
			GameID:    raw.GameID,
			Period:    ra.Period,
			Clock:     ra.Clock,
			Variant:   variant,
			ActorID:   actor,
			Qualifier: qualifier,
		}

		act := model.Action{
			ID:           key.String(),
			GameID:       raw.GameID,
			Variant:      variant,
			Period:       ra.Period,
			Clock:        ra.Clock,
			ClockSeconds: secs,
			GlobalClock:  gclock,
			Time:         ra.TimeActual,
			TeamID:       ra.TeamID,
			SubType:      ra.SubType,
			Descriptor:   ra.Descriptor,
		}
		if !teamLevel {
			act.PlayerID = ra.PersonID
		}

		switch variant {
		case model.ActionShot:
			act.PointValue = 2
			if ra.ActionType == "3pt" {
				act.PointValue = 3
			}
			act.Made = ra.ShotResult == "Made"
			act.X, act.Y, act.Distance = ra.X, ra.Y, ra.ShotDistance
			act.Tags = descriptorTags(ra.Descriptor)
		case model.ActionFreeThrow:
			act.PointValue = 1
			act.Made = ra.ShotResult == "Made"
		}

		// Anchor to the acting team's stint, and the actor's when personal.
		if ls := ix.lineupAt(ra.TeamID, ra.Period, gclock); ls != nil {
			act.LineupStintID = ls.ID
		} else {
			warn(ra, "no lineup stint for team %d", ra.TeamID)
		}
		if act.PlayerID != 0 {
			if ps := ix.playerAt(act.PlayerID, ra.Period, gclock); ps != nil {
				act.PlayerStintID = ps.ID
			} else {
				warn(ra, "player %d has no stint on the floor", act.PlayerID)
			}
		}

		// Cross-reference edges to other on-court players.
		link := func(personID int64, what string) string {
			if personID == 0 {
				return ""
			}
			if ps := ix.playerAt(personID, ra.Period, gclock); ps != nil {
				return ps.ID
			}
			warn(ra, "%s player %d has no stint on the floor", what, personID)
			return ""
		}
		act.AssistPlayerStintID = link(ra.AssistPersonID, "assist")
		act.BlockPlayerStintID = link(ra.BlockPersonID, "block")
		act.StealPlayerStintID = link(ra.StealPersonID, "steal")
		act.FoulDrawnPlayerStintID = link(ra.FoulDrawnPersonID, "foul-drawn")
		act.JumpBallWonPlayerStintID = link(ra.JumpBallWonPersonID, "jump-ball winner")
		act.JumpBallLostPlayerStintID = link(ra.JumpBallLostPersonID, "jump-ball loser")
		act.JumpBallRecoveredPlayerStintID = link(ra.JumpBallRecoveredPersonID, "jump-ball recoverer")

		switch variant {
		case model.ActionRebound:
			// Most recent unclaimed miss within the lookback window.
			for i := len(misses) - 1; i >= 0; i-- {
				m := &misses[i]
				if gclock-m.gclock > reboundWindow {
					break
				}
				if m.taken || m.gclock > gclock+clockEpsilon {
					continue
				}
				act.ReboundOfActionID = m.id
				m.taken = true
				break
			}
		case model.ActionFreeThrow:
			for i := len(fouls) - 1; i >= 0; i-- {
				f := fouls[i]
				if f.period == ra.Period && math.Abs(f.gclock-gclock) < clockEpsilon {
					act.CausedByActionID = f.id
					break
				}
			}
		}

		if (variant == model.ActionShot || variant == model.ActionFreeThrow) && !act.Made {
			misses = append(misses, missRef{id: act.ID, gclock: gclock})
		}
		if variant == model.ActionFoul {
			fouls = append(fouls, foulRef{id: act.ID, period: ra.Period, gclock: gclock})
		}

		actions = append(actions, act)
	}

	return actions, warnings, nil
}

func classify(actionType string) (model.ActionVariant, bool) {
	switch actionType {
	case "2pt", "3pt":
		return model.ActionShot, true
	case "freethrow":
		return model.ActionFreeThrow, true
	case "foul":
		return model.ActionFoul, true
	case "rebound":
		return model.ActionRebound, true
	case "turnover":
		return model.ActionTurnover, true
	case "jumpball":
		return model.ActionJumpBall, true
	case "violation":
		return model.ActionViolation, true
	case "timeout":
		return model.ActionTimeout, true
	default:
		return "", false
	}
}

// shotTagKeywords is the fixed vocabulary of shot descriptor qualifiers the
// feed uses; a descriptor can carry several at once ("driving bank hook").
var shotTagKeywords = []string{
	"driving", "pullup", "step back", "fadeaway", "turnaround", "hook",
	"floating", "bank", "alley oop", "tip", "putback", "cutting", "running",
	"finger roll", "reverse",
}

func descriptorTags(descriptor string) []string {
	if descriptor == "" {
		return nil
	}
	d := strings.ToLower(descriptor)
	var tags []string
	for _, kw := range shotTagKeywords {
		if strings.Contains(d, kw) {
			tags = append(tags, strings.ReplaceAll(kw, " ", "_"))
		}
	}
	return tags
}
