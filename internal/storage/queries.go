package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pable/go-courtgraph/internal/model"
)

const timeLayout = time.RFC3339Nano

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// GameLoaded reports whether a game's graph is already stored.
func (db *DB) GameLoaded(gameID int64) (bool, error) {
	var loaded int
	err := db.conn.QueryRow("SELECT loaded FROM games WHERE id = ?", gameID).Scan(&loaded)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return loaded != 0, nil
}

// UpsertTeams stores reference teams and their arenas.
func (db *DB) UpsertTeams(teams []model.Team) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	teamStmt, err := tx.Prepare(`
		INSERT INTO teams(id, name, abbreviation, city, state, arena)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, abbreviation = excluded.abbreviation,
			city = excluded.city, state = excluded.state, arena = excluded.arena`)
	if err != nil {
		return err
	}
	defer teamStmt.Close()

	arenaStmt, err := tx.Prepare(`
		INSERT INTO arenas(name, city, state) VALUES (?,?,?)
		ON CONFLICT(name) DO UPDATE SET city = excluded.city, state = excluded.state`)
	if err != nil {
		return err
	}
	defer arenaStmt.Close()

	for _, t := range teams {
		if _, err := teamStmt.Exec(t.ID, t.Name, t.Abbreviation, t.City, t.State, t.Arena); err != nil {
			return fmt.Errorf("upsert team %d: %w", t.ID, err)
		}
		if t.Arena != "" {
			if _, err := arenaStmt.Exec(t.Arena, t.City, t.State); err != nil {
				return fmt.Errorf("upsert arena %q: %w", t.Arena, err)
			}
		}
	}
	return tx.Commit()
}

// UpsertSchedule stores a season and its games. Already-loaded games keep
// their reconstruction data; only the schedule columns refresh.
func (db *DB) UpsertSchedule(seasonID string, games []model.ScheduledGame) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT OR IGNORE INTO seasons(id) VALUES (?)", seasonID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO games(id, season_id, home_team_id, away_team_id, scheduled)
		VALUES (?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			season_id = excluded.season_id,
			home_team_id = excluded.home_team_id,
			away_team_id = excluded.away_team_id,
			scheduled = excluded.scheduled`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, g := range games {
		if _, err := stmt.Exec(g.GameID, seasonID, g.HomeTeamID, g.AwayTeamID, fmtTime(g.StartTime)); err != nil {
			return fmt.Errorf("upsert game %d: %w", g.GameID, err)
		}
	}
	return tx.Commit()
}

// ReplaceGameLinks rewrites the consecutive-game edges for a season's teams.
func (db *DB) ReplaceGameLinks(links []model.GameLink) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO game_links(team_id, game_id, next_game_id, rest_sec)
		VALUES (?,?,?,?)
		ON CONFLICT(team_id, game_id) DO UPDATE SET
			next_game_id = excluded.next_game_id, rest_sec = excluded.rest_sec`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range links {
		if _, err := stmt.Exec(l.TeamID, l.GameID, l.NextGameID, l.RestGap.Seconds()); err != nil {
			return fmt.Errorf("upsert game link %d->%d: %w", l.GameID, l.NextGameID, err)
		}
	}
	return tx.Commit()
}

// SaveGame persists a reconstructed game graph, one transaction per phase.
// All node writes are create-if-absent; the final phase settles plus/minus
// and marks the game loaded.
func (db *DB) SaveGame(g *model.GameGraph) error {
	steps := []struct {
		name string
		fn   func(*sql.Tx, *model.GameGraph) error
	}{
		{"game", saveGameRow},
		{"periods", savePeriods},
		{"lineup stints", saveLineupStints},
		{"overlaps", saveOverlaps},
		{"player stints", savePlayerStints},
		{"actions", saveActions},
		{"scores", saveScores},
		{"settle", settleGame},
	}
	for _, s := range steps {
		tx, err := db.conn.Begin()
		if err != nil {
			return err
		}
		if err := s.fn(tx, g); err != nil {
			tx.Rollback()
			return fmt.Errorf("save %s: %w", s.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("save %s: %w", s.name, err)
		}
	}
	return nil
}

func saveGameRow(tx *sql.Tx, g *model.GameGraph) error {
	if g.SeasonID != "" {
		if _, err := tx.Exec("INSERT OR IGNORE INTO seasons(id) VALUES (?)", g.SeasonID); err != nil {
			return err
		}
	}
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO games(id, season_id, home_team_id, away_team_id)
		VALUES (?,?,?,?)`,
		g.GameID, g.SeasonID, g.HomeTeamID, g.AwayTeamID)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO players(id, name) VALUES (?,?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for id, p := range g.Players {
		if _, err := stmt.Exec(id, p.Name); err != nil {
			return fmt.Errorf("player %d: %w", id, err)
		}
	}
	return nil
}

func savePeriods(tx *sql.Tx, g *model.GameGraph) error {
	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO periods(id, game_id, n, start_time, end_time, duration_sec, next_id, gap_sec)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range g.Periods {
		_, err := stmt.Exec(p.ID, p.GameID, p.Number, fmtTime(p.Start), fmtTime(p.End),
			p.DurationSeconds, p.NextID, p.GapToNext.Seconds())
		if err != nil {
			return fmt.Errorf("period %d: %w", p.Number, err)
		}
	}
	return nil
}

func saveLineupStints(tx *sql.Tx, g *model.GameGraph) error {
	luStmt, err := tx.Prepare("INSERT OR IGNORE INTO lineups(id, team_id) VALUES (?,?)")
	if err != nil {
		return err
	}
	defer luStmt.Close()

	memStmt, err := tx.Prepare("INSERT OR IGNORE INTO lineup_members(lineup_id, player_id) VALUES (?,?)")
	if err != nil {
		return err
	}
	defer memStmt.Close()

	for _, lu := range g.Lineups {
		if _, err := luStmt.Exec(lu.ID, lu.TeamID); err != nil {
			return fmt.Errorf("lineup %s: %w", lu.ID, err)
		}
		for _, p := range lu.MemberIDs {
			if _, err := memStmt.Exec(lu.ID, p); err != nil {
				return fmt.Errorf("lineup member %s/%d: %w", lu.ID, p, err)
			}
		}
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO lineup_stints(
			id, game_id, team_id, lineup_id, period,
			start_clock, end_clock, start_clock_sec, end_clock_sec,
			global_start, global_end, clock_dur_sec,
			start_time, end_time, next_id
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range g.LineupStints {
		_, err := stmt.Exec(
			s.ID, s.GameID, s.TeamID, s.LineupID, s.Period,
			s.StartClock, s.EndClock, s.StartClockSeconds, s.EndClockSeconds,
			s.GlobalStart, s.GlobalEnd, s.ClockDuration,
			fmtTime(s.StartTime), fmtTime(s.EndTime), s.NextID,
		)
		if err != nil {
			return fmt.Errorf("lineup stint %s: %w", s.ID, err)
		}
	}
	return nil
}

func saveOverlaps(tx *sql.Tx, g *model.GameGraph) error {
	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO stint_overlaps(stint_a, stint_b, game_id, global_start, global_end, clock_dur_sec, time_dur_sec)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range g.Overlaps {
		_, err := stmt.Exec(o.StintA, o.StintB, g.GameID, o.GlobalStart, o.GlobalEnd,
			o.ClockDuration, o.TimeDuration.Seconds())
		if err != nil {
			return fmt.Errorf("overlap %s/%s: %w", o.StintA, o.StintB, err)
		}
	}
	return nil
}

func savePlayerStints(tx *sql.Tx, g *model.GameGraph) error {
	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO player_stints(
			id, game_id, player_id, team_id, period,
			start_clock, global_start, global_end, clock_dur_sec,
			start_time, end_time, time_dur_sec, next_id, next_gap_sec
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	spanStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO player_stint_spans(player_stint_id, lineup_stint_id, seq)
		VALUES (?,?,?)`)
	if err != nil {
		return err
	}
	defer spanStmt.Close()

	for _, s := range g.PlayerStints {
		_, err := stmt.Exec(
			s.ID, s.GameID, s.PlayerID, s.TeamID, s.Period,
			s.StartClock, s.GlobalStart, s.GlobalEnd, s.ClockDuration,
			fmtTime(s.StartTime), fmtTime(s.EndTime), s.TimeDuration.Seconds(),
			s.NextID, s.NextGap,
		)
		if err != nil {
			return fmt.Errorf("player stint %s: %w", s.ID, err)
		}
		for i, lsID := range s.StintIDs {
			if _, err := spanStmt.Exec(s.ID, lsID, i); err != nil {
				return fmt.Errorf("player stint span %s/%s: %w", s.ID, lsID, err)
			}
		}
	}
	return nil
}

func saveActions(tx *sql.Tx, g *model.GameGraph) error {
	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO actions(
			id, game_id, variant, period, clock, clock_sec, global_clock, time,
			team_id, player_id, sub_type, descriptor, tags,
			x, y, distance, made, point_value,
			lineup_stint_id, player_stint_id,
			assist_stint_id, block_stint_id, steal_stint_id, foul_drawn_stint_id,
			jb_won_stint_id, jb_lost_stint_id, jb_recov_stint_id,
			rebound_of_id, caused_by_id
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range g.Actions {
		_, err := stmt.Exec(
			a.ID, a.GameID, string(a.Variant), a.Period, a.Clock, a.ClockSeconds, a.GlobalClock, fmtTime(a.Time),
			a.TeamID, a.PlayerID, a.SubType, a.Descriptor, strings.Join(a.Tags, ","),
			a.X, a.Y, a.Distance, boolInt(a.Made), a.PointValue,
			a.LineupStintID, a.PlayerStintID,
			a.AssistPlayerStintID, a.BlockPlayerStintID, a.StealPlayerStintID, a.FoulDrawnPlayerStintID,
			a.JumpBallWonPlayerStintID, a.JumpBallLostPlayerStintID, a.JumpBallRecoveredPlayerStintID,
			a.ReboundOfActionID, a.CausedByActionID,
		)
		if err != nil {
			return fmt.Errorf("action %s: %w", a.ID, err)
		}
	}
	return nil
}

func saveScores(tx *sql.Tx, g *model.GameGraph) error {
	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO scores(
			id, action_id, game_id, period, global_clock, time,
			scoring_team_id, points,
			home_score, away_score, margin,
			p_home_score, p_away_score, p_margin,
			home_stint_id, away_stint_id, next_id
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range g.Scores {
		_, err := stmt.Exec(
			s.ID, s.ActionID, s.GameID, s.Period, s.GlobalClock, fmtTime(s.Time),
			s.ScoringTeamID, s.Points,
			s.HomeScore, s.AwayScore, s.Margin,
			s.PeriodHomeScore, s.PeriodAwayScore, s.PeriodMargin,
			s.HomeStintID, s.AwayStintID, s.NextID,
		)
		if err != nil {
			return fmt.Errorf("score %s: %w", s.ID, err)
		}
	}
	return nil
}

// settleGame writes the deferred aggregates: stint plus/minus and the game's
// wall-clock bounds and final score.
func settleGame(tx *sql.Tx, g *model.GameGraph) error {
	lsStmt, err := tx.Prepare(`
		UPDATE lineup_stints SET points_for = ?, points_against = ?, plus_minus = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer lsStmt.Close()
	for _, s := range g.LineupStints {
		if _, err := lsStmt.Exec(s.PointsFor, s.PointsAgainst, s.PlusMinus, s.ID); err != nil {
			return fmt.Errorf("settle lineup stint %s: %w", s.ID, err)
		}
	}

	psStmt, err := tx.Prepare(`
		UPDATE player_stints SET points_for = ?, points_against = ?, plus_minus = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer psStmt.Close()
	for _, s := range g.PlayerStints {
		if _, err := psStmt.Exec(s.PointsFor, s.PointsAgainst, s.PlusMinus, s.ID); err != nil {
			return fmt.Errorf("settle player stint %s: %w", s.ID, err)
		}
	}

	home, away := g.FinalScore()
	_, err = tx.Exec(`
		UPDATE games SET start_time = ?, end_time = ?, duration_sec = ?,
			home_score = ?, away_score = ?, loaded = 1
		WHERE id = ?`,
		fmtTime(g.Start), fmtTime(g.End), g.Duration.Seconds(), home, away, g.GameID)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
