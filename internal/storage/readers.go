package storage

import (
	"database/sql"
	"strings"
	"time"

	"github.com/pable/go-courtgraph/internal/model"
)

// GameRow is a game record as the store sees it: schedule columns plus the
// reconstruction summary once loaded.
type GameRow struct {
	ID         int64
	SeasonID   string
	HomeTeamID int64
	AwayTeamID int64
	Scheduled  time.Time
	Start      time.Time
	End        time.Time
	Duration   time.Duration
	HomeScore  int
	AwayScore  int
	Loaded     bool
}

// NodeCounts summarizes one game's stored graph, used after a load and by
// the idempotency tests.
type NodeCounts struct {
	Periods      int
	Lineups      int
	LineupStints int
	PlayerStints int
	Overlaps     int
	Actions      int
	Scores       int
}

const gameCols = `id, season_id, home_team_id, away_team_id, scheduled,
	start_time, end_time, duration_sec, home_score, away_score, loaded`

func scanGameRow(scan func(...any) error) (GameRow, error) {
	var g GameRow
	var scheduled, start, end string
	var durSec float64
	var loaded int
	err := scan(&g.ID, &g.SeasonID, &g.HomeTeamID, &g.AwayTeamID, &scheduled,
		&start, &end, &durSec, &g.HomeScore, &g.AwayScore, &loaded)
	if err != nil {
		return g, err
	}
	g.Scheduled = parseTime(scheduled)
	g.Start = parseTime(start)
	g.End = parseTime(end)
	g.Duration = time.Duration(durSec * float64(time.Second))
	g.Loaded = loaded != 0
	return g, nil
}

// ListGames returns all stored games, loaded ones first, newest first.
func (db *DB) ListGames() ([]GameRow, error) {
	rows, err := db.conn.Query(`SELECT ` + gameCols + ` FROM games ORDER BY loaded DESC, scheduled DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GameRow
	for rows.Next() {
		g, err := scanGameRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SeasonGameIDs returns the ids of a season's games in schedule order.
func (db *DB) SeasonGameIDs(seasonID string) ([]int64, error) {
	rows, err := db.conn.Query("SELECT id FROM games WHERE season_id = ? ORDER BY scheduled, id", seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// GetGame returns the stored game row, or nil if unknown.
func (db *DB) GetGame(gameID int64) (*GameRow, error) {
	g, err := scanGameRow(db.conn.QueryRow(`SELECT `+gameCols+` FROM games WHERE id = ?`, gameID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetTeam returns the reference team, or nil if the teams file was never loaded.
func (db *DB) GetTeam(teamID int64) (*model.Team, error) {
	var t model.Team
	err := db.conn.QueryRow(`
		SELECT id, name, abbreviation, city, state, arena FROM teams WHERE id = ?`, teamID).
		Scan(&t.ID, &t.Name, &t.Abbreviation, &t.City, &t.State, &t.Arena)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// PlayerNames returns the names of every player with a stint in the game.
func (db *DB) PlayerNames(gameID int64) (map[int64]string, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT ps.player_id, COALESCE(p.name, '')
		FROM player_stints ps LEFT JOIN players p ON p.id = ps.player_id
		WHERE ps.game_id = ?`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

// GetPeriods returns a game's periods in order.
func (db *DB) GetPeriods(gameID int64) ([]model.Period, error) {
	rows, err := db.conn.Query(`
		SELECT id, game_id, n, start_time, end_time, duration_sec, next_id, gap_sec
		FROM periods WHERE game_id = ? ORDER BY n`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Period
	for rows.Next() {
		var p model.Period
		var start, end string
		var gap float64
		if err := rows.Scan(&p.ID, &p.GameID, &p.Number, &start, &end, &p.DurationSeconds, &p.NextID, &gap); err != nil {
			return nil, err
		}
		p.Start = parseTime(start)
		p.End = parseTime(end)
		p.GapToNext = time.Duration(gap * float64(time.Second))
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetLineupStints returns a game's lineup stints with member ids, ordered by
// team then global clock.
func (db *DB) GetLineupStints(gameID int64) ([]model.LineupStint, error) {
	rows, err := db.conn.Query(`
		SELECT id, game_id, team_id, lineup_id, period,
		       start_clock, end_clock, start_clock_sec, end_clock_sec,
		       global_start, global_end, clock_dur_sec,
		       start_time, end_time, next_id,
		       points_for, points_against, plus_minus
		FROM lineup_stints WHERE game_id = ?
		ORDER BY team_id, global_start`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LineupStint
	for rows.Next() {
		var s model.LineupStint
		var start, end string
		if err := rows.Scan(
			&s.ID, &s.GameID, &s.TeamID, &s.LineupID, &s.Period,
			&s.StartClock, &s.EndClock, &s.StartClockSeconds, &s.EndClockSeconds,
			&s.GlobalStart, &s.GlobalEnd, &s.ClockDuration,
			&start, &end, &s.NextID,
			&s.PointsFor, &s.PointsAgainst, &s.PlusMinus,
		); err != nil {
			return nil, err
		}
		s.StartTime = parseTime(start)
		s.EndTime = parseTime(end)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members, err := db.lineupMembers(gameID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].MemberIDs = members[out[i].LineupID]
	}
	return out, nil
}

func (db *DB) lineupMembers(gameID int64) (map[string][]int64, error) {
	rows, err := db.conn.Query(`
		SELECT m.lineup_id, m.player_id
		FROM lineup_members m
		WHERE m.lineup_id IN (SELECT DISTINCT lineup_id FROM lineup_stints WHERE game_id = ?)
		ORDER BY m.lineup_id, m.player_id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]int64)
	for rows.Next() {
		var lid string
		var pid int64
		if err := rows.Scan(&lid, &pid); err != nil {
			return nil, err
		}
		out[lid] = append(out[lid], pid)
	}
	return out, rows.Err()
}

// GetPlayerStints returns a game's player stints with their lineup-stint
// spans, ordered by player then global clock.
func (db *DB) GetPlayerStints(gameID int64) ([]model.PlayerStint, error) {
	rows, err := db.conn.Query(`
		SELECT id, game_id, player_id, team_id, period,
		       start_clock, global_start, global_end, clock_dur_sec,
		       start_time, end_time, time_dur_sec, next_id, next_gap_sec,
		       points_for, points_against, plus_minus
		FROM player_stints WHERE game_id = ?
		ORDER BY player_id, global_start`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerStint
	for rows.Next() {
		var s model.PlayerStint
		var start, end string
		var wallDur float64
		if err := rows.Scan(
			&s.ID, &s.GameID, &s.PlayerID, &s.TeamID, &s.Period,
			&s.StartClock, &s.GlobalStart, &s.GlobalEnd, &s.ClockDuration,
			&start, &end, &wallDur, &s.NextID, &s.NextGap,
			&s.PointsFor, &s.PointsAgainst, &s.PlusMinus,
		); err != nil {
			return nil, err
		}
		s.StartTime = parseTime(start)
		s.EndTime = parseTime(end)
		s.TimeDuration = time.Duration(wallDur * float64(time.Second))
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	spans, err := db.playerStintSpans(gameID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].StintIDs = spans[out[i].ID]
	}
	return out, nil
}

func (db *DB) playerStintSpans(gameID int64) (map[string][]string, error) {
	rows, err := db.conn.Query(`
		SELECT sp.player_stint_id, sp.lineup_stint_id
		FROM player_stint_spans sp
		JOIN player_stints ps ON ps.id = sp.player_stint_id
		WHERE ps.game_id = ?
		ORDER BY sp.player_stint_id, sp.seq`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var psID, lsID string
		if err := rows.Scan(&psID, &lsID); err != nil {
			return nil, err
		}
		out[psID] = append(out[psID], lsID)
	}
	return out, rows.Err()
}

// GetOverlaps returns a game's home/away stint intersections.
func (db *DB) GetOverlaps(gameID int64) ([]model.Overlap, error) {
	rows, err := db.conn.Query(`
		SELECT stint_a, stint_b, global_start, global_end, clock_dur_sec, time_dur_sec
		FROM stint_overlaps WHERE game_id = ?
		ORDER BY global_start, stint_a`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Overlap
	for rows.Next() {
		var o model.Overlap
		var wall float64
		if err := rows.Scan(&o.StintA, &o.StintB, &o.GlobalStart, &o.GlobalEnd, &o.ClockDuration, &wall); err != nil {
			return nil, err
		}
		o.TimeDuration = time.Duration(wall * float64(time.Second))
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetActions returns a game's attributed actions in global-clock order.
func (db *DB) GetActions(gameID int64) ([]model.Action, error) {
	rows, err := db.conn.Query(`
		SELECT id, game_id, variant, period, clock, clock_sec, global_clock, time,
		       team_id, player_id, sub_type, descriptor, tags,
		       x, y, distance, made, point_value,
		       lineup_stint_id, player_stint_id,
		       assist_stint_id, block_stint_id, steal_stint_id, foul_drawn_stint_id,
		       jb_won_stint_id, jb_lost_stint_id, jb_recov_stint_id,
		       rebound_of_id, caused_by_id
		FROM actions WHERE game_id = ?
		ORDER BY global_clock, id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Action
	for rows.Next() {
		var a model.Action
		var variant, ts, tags string
		var made int
		if err := rows.Scan(
			&a.ID, &a.GameID, &variant, &a.Period, &a.Clock, &a.ClockSeconds, &a.GlobalClock, &ts,
			&a.TeamID, &a.PlayerID, &a.SubType, &a.Descriptor, &tags,
			&a.X, &a.Y, &a.Distance, &made, &a.PointValue,
			&a.LineupStintID, &a.PlayerStintID,
			&a.AssistPlayerStintID, &a.BlockPlayerStintID, &a.StealPlayerStintID, &a.FoulDrawnPlayerStintID,
			&a.JumpBallWonPlayerStintID, &a.JumpBallLostPlayerStintID, &a.JumpBallRecoveredPlayerStintID,
			&a.ReboundOfActionID, &a.CausedByActionID,
		); err != nil {
			return nil, err
		}
		a.Variant = model.ActionVariant(variant)
		a.Time = parseTime(ts)
		a.Made = made != 0
		if tags != "" {
			a.Tags = strings.Split(tags, ",")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetScores returns a game's score chain in order.
func (db *DB) GetScores(gameID int64) ([]model.Score, error) {
	rows, err := db.conn.Query(`
		SELECT id, action_id, game_id, period, global_clock, time,
		       scoring_team_id, points,
		       home_score, away_score, margin,
		       p_home_score, p_away_score, p_margin,
		       home_stint_id, away_stint_id, next_id
		FROM scores WHERE game_id = ?
		ORDER BY global_clock, id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Score
	for rows.Next() {
		var s model.Score
		var ts string
		if err := rows.Scan(
			&s.ID, &s.ActionID, &s.GameID, &s.Period, &s.GlobalClock, &ts,
			&s.ScoringTeamID, &s.Points,
			&s.HomeScore, &s.AwayScore, &s.Margin,
			&s.PeriodHomeScore, &s.PeriodAwayScore, &s.PeriodMargin,
			&s.HomeStintID, &s.AwayStintID, &s.NextID,
		); err != nil {
			return nil, err
		}
		s.Time = parseTime(ts)
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountGameRows tallies a game's stored graph rows per table.
func (db *DB) CountGameRows(gameID int64) (NodeCounts, error) {
	var c NodeCounts
	counts := []struct {
		dst   *int
		query string
	}{
		{&c.Periods, "SELECT COUNT(1) FROM periods WHERE game_id = ?"},
		{&c.Lineups, "SELECT COUNT(DISTINCT lineup_id) FROM lineup_stints WHERE game_id = ?"},
		{&c.LineupStints, "SELECT COUNT(1) FROM lineup_stints WHERE game_id = ?"},
		{&c.PlayerStints, "SELECT COUNT(1) FROM player_stints WHERE game_id = ?"},
		{&c.Overlaps, "SELECT COUNT(1) FROM stint_overlaps WHERE game_id = ?"},
		{&c.Actions, "SELECT COUNT(1) FROM actions WHERE game_id = ?"},
		{&c.Scores, "SELECT COUNT(1) FROM scores WHERE game_id = ?"},
	}
	for _, q := range counts {
		if err := db.conn.QueryRow(q.query, gameID).Scan(q.dst); err != nil {
			return c, err
		}
	}
	return c, nil
}
