package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-courtgraph/internal/nba"
	"github.com/pable/go-courtgraph/internal/storage"
)

var teamsFile string

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Load the reference teams file into the database",
	Args:  cobra.NoArgs,
	RunE:  runTeams,
}

func init() {
	teamsCmd.Flags().StringVar(&teamsFile, "file", "", "path to teams JSON file")
	_ = teamsCmd.MarkFlagRequired("file")
}

func runTeams(cmd *cobra.Command, args []string) error {
	teams, err := nba.LoadTeamsFile(teamsFile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	if err := db.UpsertTeams(teams); err != nil {
		return fmt.Errorf("upsert teams: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Loaded %d teams from %s\n", len(teams), teamsFile)
	return nil
}
