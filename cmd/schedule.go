package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pable/go-courtgraph/internal/model"
	"github.com/pable/go-courtgraph/internal/nba"
	"github.com/pable/go-courtgraph/internal/storage"
)

var scheduleSeason string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Fetch the league schedule and store it with per-team rest links",
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleSeason, "season", "", "season year, e.g. 2025-26")
	_ = scheduleCmd.MarkFlagRequired("season")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client := nba.NewClient()
	fmt.Fprintf(os.Stdout, "Fetching %s schedule...\n", scheduleSeason)
	games, err := client.Schedule(ctx, scheduleSeason)
	if err != nil {
		return fmt.Errorf("fetch schedule: %w", err)
	}
	if len(games) == 0 {
		return fmt.Errorf("schedule for %s has no games", scheduleSeason)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	if err := db.UpsertSchedule(scheduleSeason, games); err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}

	links := buildGameLinks(games)
	if err := db.ReplaceGameLinks(links); err != nil {
		return fmt.Errorf("replace game links: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Stored %d games and %d rest links for %s\n",
		len(games), len(links), scheduleSeason)
	return nil
}

// buildGameLinks chains each team's games in start-time order, recording the
// rest gap between consecutive games.
func buildGameLinks(games []model.ScheduledGame) []model.GameLink {
	byTeam := make(map[int64][]model.ScheduledGame)
	for _, g := range games {
		byTeam[g.HomeTeamID] = append(byTeam[g.HomeTeamID], g)
		byTeam[g.AwayTeamID] = append(byTeam[g.AwayTeamID], g)
	}

	teams := make([]int64, 0, len(byTeam))
	for id := range byTeam {
		teams = append(teams, id)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })

	var links []model.GameLink
	for _, teamID := range teams {
		seq := byTeam[teamID]
		sort.Slice(seq, func(i, j int) bool {
			if !seq[i].StartTime.Equal(seq[j].StartTime) {
				return seq[i].StartTime.Before(seq[j].StartTime)
			}
			return seq[i].GameID < seq[j].GameID
		})
		for i := 0; i < len(seq)-1; i++ {
			links = append(links, model.GameLink{
				TeamID:     teamID,
				GameID:     seq[i].GameID,
				NextGameID: seq[i+1].GameID,
				RestGap:    seq[i+1].StartTime.Sub(seq[i].StartTime),
			})
		}
	}
	return links
}
