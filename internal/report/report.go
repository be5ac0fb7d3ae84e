package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-courtgraph/internal/clock"
	"github.com/pable/go-courtgraph/internal/model"
	"github.com/pable/go-courtgraph/internal/storage"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// minSec renders game-clock seconds as M:SS.
func minSec(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	m := int(sec) / 60
	s := int(sec+0.5) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

// teamLabel prefers the reference abbreviation, falling back to the raw id.
func teamLabel(t *model.Team, id int64) string {
	if t != nil && t.Abbreviation != "" {
		return t.Abbreviation
	}
	return strconv.FormatInt(id, 10)
}

// surname keeps lineup cells readable: last word of the player's name.
func surname(names map[int64]string, id int64) string {
	name := names[id]
	if name == "" {
		return strconv.FormatInt(id, 10)
	}
	parts := strings.Fields(name)
	return parts[len(parts)-1]
}

// PrintGameSummary prints a one-line summary header for the game.
func PrintGameSummary(w io.Writer, g storage.GameRow, home, away *model.Team) {
	fmt.Fprintf(w, "\nGame %d  |  %s %d – %d %s  |  %s  |  Duration: %s\n\n",
		g.ID,
		teamLabel(home, g.HomeTeamID), g.HomeScore,
		g.AwayScore, teamLabel(away, g.AwayTeamID),
		g.Start.Format("2006-01-02"),
		g.Duration.Round(1e9).String())
}

// PrintLineupStintTable prints one team's lineup stints in floor order.
// If focusTeam is non-zero, only that team's rows are shown.
func PrintLineupStintTable(w io.Writer, stints []model.LineupStint, names map[int64]string, home, away *model.Team, homeTeamID int64, focusTeam int64) {
	table := newTable(w)
	table.Header("TEAM", "P", "ON", "OFF", "DUR", "LINEUP", "PF", "PA", "+/-")

	for _, s := range stints {
		if focusTeam != 0 && s.TeamID != focusTeam {
			continue
		}
		label := teamLabel(away, s.TeamID)
		if s.TeamID == homeTeamID {
			label = teamLabel(home, s.TeamID)
		}
		members := make([]string, len(s.MemberIDs))
		for i, id := range s.MemberIDs {
			members[i] = surname(names, id)
		}
		table.Append(
			label,
			strconv.Itoa(s.Period),
			minSec(s.StartClockSeconds),
			minSec(s.EndClockSeconds),
			minSec(s.ClockDuration),
			strings.Join(members, ", "),
			strconv.Itoa(s.PointsFor),
			strconv.Itoa(s.PointsAgainst),
			fmt.Sprintf("%+d", s.PlusMinus),
		)
	}
	table.Render()
}

// playerLine is one row of the minutes table, aggregated across a player's stints.
type playerLine struct {
	playerID  int64
	teamID    int64
	stints    int
	clockSecs float64
	pf, pa    int
	plusMinus int
}

// PrintPlayerMinutesTable prints per-player floor time and plus/minus,
// aggregated across each player's stints. If focusPlayer is non-zero, that
// player's row is marked with ">".
func PrintPlayerMinutesTable(w io.Writer, playerStints []model.PlayerStint, names map[int64]string, home, away *model.Team, homeTeamID int64, focusPlayer int64) {
	byPlayer := make(map[int64]*playerLine)
	for _, s := range playerStints {
		line := byPlayer[s.PlayerID]
		if line == nil {
			line = &playerLine{playerID: s.PlayerID, teamID: s.TeamID}
			byPlayer[s.PlayerID] = line
		}
		line.stints++
		line.clockSecs += s.ClockDuration
		line.pf += s.PointsFor
		line.pa += s.PointsAgainst
		line.plusMinus += s.PlusMinus
	}

	lines := make([]*playerLine, 0, len(byPlayer))
	for _, l := range byPlayer {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].teamID != lines[j].teamID {
			return lines[i].teamID == homeTeamID
		}
		if lines[i].clockSecs != lines[j].clockSecs {
			return lines[i].clockSecs > lines[j].clockSecs
		}
		return lines[i].playerID < lines[j].playerID
	})

	table := newTable(w)
	table.Header(" ", "PLAYER", "TEAM", "STINTS", "MIN", "PF", "PA", "+/-")

	for _, l := range lines {
		marker := " "
		if focusPlayer != 0 && l.playerID == focusPlayer {
			marker = ">"
		}
		name := names[l.playerID]
		if name == "" {
			name = strconv.FormatInt(l.playerID, 10)
		}
		label := teamLabel(away, l.teamID)
		if l.teamID == homeTeamID {
			label = teamLabel(home, l.teamID)
		}
		table.Append(
			marker,
			name,
			label,
			strconv.Itoa(l.stints),
			minSec(l.clockSecs),
			strconv.Itoa(l.pf),
			strconv.Itoa(l.pa),
			fmt.Sprintf("%+d", l.plusMinus),
		)
	}
	table.Render()
}

// PrintScoreChain prints the game's scoring runs in order.
func PrintScoreChain(w io.Writer, scores []model.Score, home, away *model.Team, homeTeamID int64) {
	table := newTable(w)
	table.Header("P", "CLOCK", "TEAM", "PTS", "SCORE", "MARGIN")

	for _, s := range scores {
		remaining := clock.PeriodEnd(s.Period) - s.GlobalClock
		label := teamLabel(away, s.ScoringTeamID)
		if s.ScoringTeamID == homeTeamID {
			label = teamLabel(home, s.ScoringTeamID)
		}
		table.Append(
			strconv.Itoa(s.Period),
			minSec(remaining),
			label,
			strconv.Itoa(s.Points),
			fmt.Sprintf("%d–%d", s.HomeScore, s.AwayScore),
			fmt.Sprintf("%+d", s.Margin),
		)
	}
	table.Render()
}

// PrintGameList prints the stored-games table.
func PrintGameList(w io.Writer, games []storage.GameRow) {
	table := newTable(w)
	table.Header("GAME", "SEASON", "DATE", "HOME", "AWAY", "SCORE", "LOADED")

	for _, g := range games {
		date := "—"
		when := g.Scheduled
		if !g.Start.IsZero() {
			when = g.Start
		}
		if !when.IsZero() {
			date = when.Format("2006-01-02")
		}
		score := "—"
		loaded := " "
		if g.Loaded {
			score = fmt.Sprintf("%d–%d", g.HomeScore, g.AwayScore)
			loaded = "yes"
		}
		table.Append(
			strconv.FormatInt(g.ID, 10),
			g.SeasonID,
			date,
			strconv.FormatInt(g.HomeTeamID, 10),
			strconv.FormatInt(g.AwayTeamID, 10),
			score,
			loaded,
		)
	}
	table.Render()
}
