package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-courtgraph/internal/nba"
	"github.com/pable/go-courtgraph/internal/report"
	"github.com/pable/go-courtgraph/internal/storage"
)

var (
	showTeamID   int64
	showPlayerID int64
	showScores   bool
)

var showCmd = &cobra.Command{
	Use:   "show <game-id>",
	Short: "Show a stored game's stint graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().Int64Var(&showTeamID, "team", 0, "only show this team's lineup stints")
	showCmd.Flags().Int64Var(&showPlayerID, "player", 0, "highlight this player in the minutes table")
	showCmd.Flags().BoolVar(&showScores, "scores", false, "include the full scoring chain")
}

func runShow(cmd *cobra.Command, args []string) error {
	gameID, err := nba.ParseGameID(args[0])
	if err != nil {
		return fmt.Errorf("bad game id %q: %w", args[0], err)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	game, err := db.GetGame(gameID)
	if err != nil {
		return fmt.Errorf("query game: %w", err)
	}
	if game == nil {
		fmt.Fprintf(os.Stderr, "No stored game %d\n", gameID)
		return nil
	}
	if !game.Loaded {
		fmt.Fprintf(os.Stderr, "Game %d is scheduled but not loaded. Run 'courtgraph load %d' first.\n", gameID, gameID)
		return nil
	}

	home, err := db.GetTeam(game.HomeTeamID)
	if err != nil {
		return fmt.Errorf("get home team: %w", err)
	}
	away, err := db.GetTeam(game.AwayTeamID)
	if err != nil {
		return fmt.Errorf("get away team: %w", err)
	}
	names, err := db.PlayerNames(gameID)
	if err != nil {
		return fmt.Errorf("get player names: %w", err)
	}
	lineupStints, err := db.GetLineupStints(gameID)
	if err != nil {
		return fmt.Errorf("get lineup stints: %w", err)
	}
	playerStints, err := db.GetPlayerStints(gameID)
	if err != nil {
		return fmt.Errorf("get player stints: %w", err)
	}

	report.PrintGameSummary(os.Stdout, *game, home, away)
	report.PrintLineupStintTable(os.Stdout, lineupStints, names, home, away, game.HomeTeamID, showTeamID)
	fmt.Fprintln(os.Stdout)
	report.PrintPlayerMinutesTable(os.Stdout, playerStints, names, home, away, game.HomeTeamID, showPlayerID)

	if showScores {
		scores, err := db.GetScores(gameID)
		if err != nil {
			return fmt.Errorf("get scores: %w", err)
		}
		fmt.Fprintln(os.Stdout)
		report.PrintScoreChain(os.Stdout, scores, home, away, game.HomeTeamID)
	}
	return nil
}
