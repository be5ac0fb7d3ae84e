package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-courtgraph/internal/engine"
	"github.com/pable/go-courtgraph/internal/nba"
	"github.com/pable/go-courtgraph/internal/storage"
)

var (
	loadSeason  string
	loadWorkers int
	loadForce   bool
)

var loadCmd = &cobra.Command{
	Use:   "load [game-id...]",
	Short: "Fetch play-by-play for games and build their stint graphs",
	Long: `Fetches the live play-by-play feed and box score for each game, rebuilds
the lineup and player stint graph, and stores it. Game ids are the numeric
form (e.g. 22500001); pass --season to load a whole stored season instead.

Games must be in the stored schedule first: run 'courtgraph schedule' once
per season before loading.`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadSeason, "season", "", "load every scheduled game of this season")
	loadCmd.Flags().IntVar(&loadWorkers, "workers", 2, "concurrent game loads")
	loadCmd.Flags().BoolVar(&loadForce, "force", false, "reload games already marked loaded")
}

func runLoad(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && loadSeason == "" {
		return fmt.Errorf("nothing to load: pass game ids or --season")
	}
	if loadWorkers < 1 {
		loadWorkers = 1
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	gameIDs := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := nba.ParseGameID(arg)
		if err != nil {
			return fmt.Errorf("bad game id %q: %w", arg, err)
		}
		gameIDs = append(gameIDs, id)
	}
	if loadSeason != "" {
		seasonIDs, err := db.SeasonGameIDs(loadSeason)
		if err != nil {
			return fmt.Errorf("season games: %w", err)
		}
		if len(seasonIDs) == 0 {
			return fmt.Errorf("no stored games for season %s: run 'courtgraph schedule --season %s' first", loadSeason, loadSeason)
		}
		gameIDs = append(gameIDs, seasonIDs...)
	}

	client := nba.NewClient()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		loaded  int
		skipped int
		failed  []string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadWorkers)

	for _, gameID := range gameIDs {
		gameID := gameID
		g.Go(func() error {
			status, err := loadOne(ctx, db, client, gameID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failed = append(failed, fmt.Sprintf("%d: %v", gameID, err))
				fmt.Fprintf(os.Stderr, "  [error] game %d: %v\n", gameID, err)
			case status == "skipped":
				skipped++
			default:
				loaded++
			}
			return nil
		})
	}
	_ = g.Wait()

	fmt.Fprintf(os.Stdout, "\nDone: %d loaded, %d skipped, %d failed\n", loaded, skipped, len(failed))
	if len(failed) > 0 {
		return fmt.Errorf("%d game(s) failed to load", len(failed))
	}
	return nil
}

// loadOne fetches, builds, and stores one game. Returns "skipped" when the
// game is already loaded and --force is not set.
func loadOne(ctx context.Context, db *storage.DB, client *nba.Client, gameID int64) (string, error) {
	row, err := db.GetGame(gameID)
	if err != nil {
		return "", fmt.Errorf("lookup: %w", err)
	}
	if row == nil {
		return "", fmt.Errorf("not in stored schedule: run 'courtgraph schedule' for its season first")
	}
	if row.Loaded && !loadForce {
		fmt.Fprintf(os.Stdout, "Game %d already loaded — skipping (use --force to reload)\n", gameID)
		return "skipped", nil
	}

	fmt.Fprintf(os.Stdout, "Fetching game %d...\n", gameID)
	raw, err := client.FetchGame(ctx, gameID, row.HomeTeamID, row.AwayTeamID, row.SeasonID)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}

	graph, err := engine.Build(raw)
	if err != nil {
		return "", fmt.Errorf("build: %w", err)
	}
	for _, w := range graph.Warnings {
		fmt.Fprintf(os.Stderr, "  [warn] game %d: %s\n", gameID, w)
	}

	if err := db.SaveGame(graph); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}

	counts, err := db.CountGameRows(gameID)
	if err != nil {
		return "", fmt.Errorf("count: %w", err)
	}
	home, away := graph.FinalScore()
	fmt.Fprintf(os.Stdout,
		"Game %d stored: %d-%d  periods=%d lineups=%d stints=%d player-stints=%d actions=%d scores=%d\n",
		gameID, home, away,
		counts.Periods, counts.Lineups, counts.LineupStints,
		counts.PlayerStints, counts.Actions, counts.Scores)
	return "loaded", nil
}
