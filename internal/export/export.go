// Package export materializes one game's stored subgraph as flat node and
// edge lists for downstream model training.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pable/go-courtgraph/internal/model"
	"github.com/pable/go-courtgraph/internal/storage"
)

// GameData is everything the exporter needs, read from the store.
type GameData struct {
	Game         storage.GameRow
	Periods      []model.Period
	LineupStints []model.LineupStint
	PlayerStints []model.PlayerStint
	Overlaps     []model.Overlap
	Actions      []model.Action
	Scores       []model.Score
}

var nodeHeader = []string{
	"id", "kind", "team_id", "player_id", "period",
	"global_start", "global_end", "clock_dur_sec", "points", "plus_minus",
}

var edgeHeader = []string{"src", "dst", "kind"}

// WriteCSV writes nodes.csv and edges.csv for the game into dir.
func WriteCSV(dir string, d *GameData) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := writeNodes(filepath.Join(dir, "nodes.csv"), d); err != nil {
		return err
	}
	return writeEdges(filepath.Join(dir, "edges.csv"), d)
}

func f(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
func i(v int64) string   { return strconv.FormatInt(v, 10) }
func n(v int) string     { return strconv.Itoa(v) }

func writeNodes(path string, d *GameData) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(nodeHeader); err != nil {
		return err
	}

	rows := [][]string{
		{i(d.Game.ID), "game", "", "", "", "", "", "", "", ""},
	}
	for _, p := range d.Periods {
		rows = append(rows, []string{p.ID, "period", "", "", n(p.Number), "", "", f(p.DurationSeconds), "", ""})
	}
	for _, s := range d.LineupStints {
		rows = append(rows, []string{
			s.ID, "lineup_stint", i(s.TeamID), "", n(s.Period),
			f(s.GlobalStart), f(s.GlobalEnd), f(s.ClockDuration), "", n(s.PlusMinus),
		})
	}
	for _, s := range d.PlayerStints {
		rows = append(rows, []string{
			s.ID, "player_stint", i(s.TeamID), i(s.PlayerID), n(s.Period),
			f(s.GlobalStart), f(s.GlobalEnd), f(s.ClockDuration), "", n(s.PlusMinus),
		})
	}
	for _, a := range d.Actions {
		pts := ""
		if a.Made {
			pts = n(a.PointValue)
		}
		rows = append(rows, []string{
			a.ID, "action_" + string(a.Variant), i(a.TeamID), i(a.PlayerID), n(a.Period),
			f(a.GlobalClock), "", "", pts, "",
		})
	}
	for _, s := range d.Scores {
		rows = append(rows, []string{
			s.ID, "score", i(s.ScoringTeamID), "", n(s.Period),
			f(s.GlobalClock), "", "", n(s.Points), n(s.Margin),
		})
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeEdges(path string, d *GameData) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(edgeHeader); err != nil {
		return err
	}

	var rows [][]string
	edge := func(src, dst, kind string) {
		if src != "" && dst != "" {
			rows = append(rows, []string{src, dst, kind})
		}
	}

	gameID := i(d.Game.ID)
	for _, p := range d.Periods {
		edge(p.ID, gameID, "in_game")
		edge(p.ID, p.NextID, "next")
	}
	for _, s := range d.LineupStints {
		edge(s.ID, fmt.Sprintf("%d_%d", s.GameID, s.Period), "in_period")
		edge(s.ID, s.NextID, "next")
	}
	for _, s := range d.PlayerStints {
		edge(s.ID, s.NextID, "next")
		for _, lsID := range s.StintIDs {
			edge(s.ID, lsID, "on_court_with")
		}
	}
	for _, o := range d.Overlaps {
		edge(o.StintA, o.StintB, "vs")
	}
	for _, a := range d.Actions {
		edge(a.ID, a.LineupStintID, "during")
		edge(a.ID, a.PlayerStintID, "by")
		edge(a.ID, a.AssistPlayerStintID, "assist_by")
		edge(a.ID, a.BlockPlayerStintID, "blocked_by")
		edge(a.ID, a.StealPlayerStintID, "stolen_by")
		edge(a.ID, a.FoulDrawnPlayerStintID, "drawn_by")
		edge(a.ID, a.JumpBallWonPlayerStintID, "jb_won_by")
		edge(a.ID, a.JumpBallLostPlayerStintID, "jb_lost_by")
		edge(a.ID, a.JumpBallRecoveredPlayerStintID, "jb_recovered_by")
		edge(a.ID, a.ReboundOfActionID, "rebound_of")
		edge(a.ID, a.CausedByActionID, "caused_by")
	}
	for _, s := range d.Scores {
		edge(s.ID, s.ActionID, "scored_on")
		edge(s.ID, s.HomeStintID, "home_floor")
		edge(s.ID, s.AwayStintID, "away_floor")
		edge(s.ID, s.NextID, "next")
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
