package storage

import (
	"testing"
	"time"

	"github.com/pable/go-courtgraph/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open mem db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var tip = time.Date(2025, 1, 15, 19, 10, 0, 0, time.UTC)

// makeGraph builds a compact but fully linked graph: one period, two home
// stints, one away stint, a made shot and its score.
func makeGraph() *model.GameGraph {
	g := &model.GameGraph{
		GameID:     22500001,
		SeasonID:   "2024-25",
		HomeTeamID: 1,
		AwayTeamID: 2,
		Start:      tip,
		End:        tip.Add(30 * time.Minute),
		Duration:   30 * time.Minute,
		Players: map[int64]model.Player{
			101: {ID: 101, Name: "Home Guard"},
			201: {ID: 201, Name: "Away Guard"},
		},
	}
	g.Periods = []model.Period{{
		ID: "22500001_1", GameID: g.GameID, Number: 1,
		Start: tip, End: tip.Add(30 * time.Minute), DurationSeconds: 720,
	}}
	g.Lineups = []model.Lineup{
		{ID: "101_102_103_104_105", TeamID: 1, MemberIDs: []int64{101, 102, 103, 104, 105}},
		{ID: "201_202_203_204_205", TeamID: 2, MemberIDs: []int64{201, 202, 203, 204, 205}},
	}
	g.LineupStints = []model.LineupStint{
		{
			ID: "22500001_1_1_PT12M00.00S", GameID: g.GameID, TeamID: 1,
			LineupID: "101_102_103_104_105", Period: 1,
			MemberIDs:  []int64{101, 102, 103, 104, 105},
			StartClock: "PT12M00.00S", EndClock: "PT06M00.00S",
			StartClockSeconds: 720, EndClockSeconds: 360,
			GlobalStart: 0, GlobalEnd: 360, ClockDuration: 360,
			StartTime: tip, EndTime: tip.Add(12 * time.Minute),
			NextID:    "22500001_1_1_PT06M00.00S",
			PointsFor: 2, PlusMinus: 2,
		},
		{
			ID: "22500001_1_1_PT06M00.00S", GameID: g.GameID, TeamID: 1,
			LineupID: "101_102_103_104_105", Period: 1,
			MemberIDs:  []int64{101, 102, 103, 104, 105},
			StartClock: "PT06M00.00S", EndClock: "PT00M00.00S",
			StartClockSeconds: 360, EndClockSeconds: 0,
			GlobalStart: 360, GlobalEnd: 720, ClockDuration: 360,
			StartTime: tip.Add(12 * time.Minute), EndTime: tip.Add(30 * time.Minute),
		},
		{
			ID: "22500001_2_1_PT12M00.00S", GameID: g.GameID, TeamID: 2,
			LineupID: "201_202_203_204_205", Period: 1,
			MemberIDs:  []int64{201, 202, 203, 204, 205},
			StartClock: "PT12M00.00S", EndClock: "PT00M00.00S",
			StartClockSeconds: 720, EndClockSeconds: 0,
			GlobalStart: 0, GlobalEnd: 720, ClockDuration: 720,
			StartTime: tip, EndTime: tip.Add(30 * time.Minute),
			PointsAgainst: 2, PlusMinus: -2,
		},
	}
	g.PlayerStints = []model.PlayerStint{{
		ID: "22500001_101_1_PT12M00.00S", GameID: g.GameID, PlayerID: 101, TeamID: 1, Period: 1,
		StartClock: "PT12M00.00S", GlobalStart: 0, GlobalEnd: 720, ClockDuration: 720,
		StartTime: tip, EndTime: tip.Add(30 * time.Minute), TimeDuration: 30 * time.Minute,
		StintIDs:  []string{"22500001_1_1_PT12M00.00S", "22500001_1_1_PT06M00.00S"},
		PointsFor: 2, PlusMinus: 2,
	}}
	g.Overlaps = []model.Overlap{
		{
			StintA: "22500001_1_1_PT12M00.00S", StintB: "22500001_2_1_PT12M00.00S",
			GlobalStart: 0, GlobalEnd: 360, ClockDuration: 360, TimeDuration: 12 * time.Minute,
		},
		{
			StintA: "22500001_1_1_PT06M00.00S", StintB: "22500001_2_1_PT12M00.00S",
			GlobalStart: 360, GlobalEnd: 720, ClockDuration: 360, TimeDuration: 18 * time.Minute,
		},
	}
	g.Actions = []model.Action{{
		ID: "22500001_1_PT10M00.00S_shot_101", GameID: g.GameID,
		Variant: model.ActionShot, Period: 1,
		Clock: "PT10M00.00S", ClockSeconds: 600, GlobalClock: 120, Time: tip.Add(4 * time.Minute),
		TeamID: 1, PlayerID: 101,
		Made: true, PointValue: 2, Distance: 14.5, X: 31, Y: 22,
		Tags:          []string{"pullup"},
		LineupStintID: "22500001_1_1_PT12M00.00S",
		PlayerStintID: "22500001_101_1_PT12M00.00S",
	}}
	g.Scores = []model.Score{{
		ID: "22500001_1_PT10M00.00S_shot_101_score", ActionID: "22500001_1_PT10M00.00S_shot_101",
		GameID: g.GameID, Period: 1, GlobalClock: 120, Time: tip.Add(4 * time.Minute),
		ScoringTeamID: 1, Points: 2,
		HomeScore: 2, AwayScore: 0, Margin: 2,
		PeriodHomeScore: 2, PeriodAwayScore: 0, PeriodMargin: 2,
		HomeStintID: "22500001_1_1_PT12M00.00S", AwayStintID: "22500001_2_1_PT12M00.00S",
	}}
	return g
}

func TestSaveGameRoundTrip(t *testing.T) {
	db := openMemDB(t)
	g := makeGraph()
	if err := db.SaveGame(g); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}

	loaded, err := db.GameLoaded(g.GameID)
	if err != nil || !loaded {
		t.Fatalf("GameLoaded = %v, %v", loaded, err)
	}

	row, err := db.GetGame(g.GameID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if row == nil || row.HomeScore != 2 || row.AwayScore != 0 {
		t.Errorf("game row %+v", row)
	}
	if !row.Start.Equal(tip) {
		t.Errorf("game start %v, want %v", row.Start, tip)
	}

	stints, err := db.GetLineupStints(g.GameID)
	if err != nil {
		t.Fatalf("GetLineupStints: %v", err)
	}
	if len(stints) != 3 {
		t.Fatalf("got %d lineup stints", len(stints))
	}
	first := stints[0]
	if first.ID != "22500001_1_1_PT12M00.00S" || first.PlusMinus != 2 {
		t.Errorf("first stint %+v", first)
	}
	if len(first.MemberIDs) != 5 || first.MemberIDs[0] != 101 {
		t.Errorf("first stint members %v", first.MemberIDs)
	}
	if first.NextID != "22500001_1_1_PT06M00.00S" {
		t.Errorf("first stint next %q", first.NextID)
	}
	if !first.StartTime.Equal(tip) {
		t.Errorf("first stint start time %v", first.StartTime)
	}

	ps, err := db.GetPlayerStints(g.GameID)
	if err != nil {
		t.Fatalf("GetPlayerStints: %v", err)
	}
	if len(ps) != 1 || len(ps[0].StintIDs) != 2 {
		t.Fatalf("player stints %+v", ps)
	}
	if ps[0].StintIDs[0] != "22500001_1_1_PT12M00.00S" {
		t.Errorf("span order %v", ps[0].StintIDs)
	}
	if ps[0].TimeDuration != 30*time.Minute {
		t.Errorf("wall duration %v", ps[0].TimeDuration)
	}

	overlaps, err := db.GetOverlaps(g.GameID)
	if err != nil {
		t.Fatalf("GetOverlaps: %v", err)
	}
	if len(overlaps) != 2 {
		t.Fatalf("got %d overlaps", len(overlaps))
	}

	actions, err := db.GetActions(g.GameID)
	if err != nil {
		t.Fatalf("GetActions: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("got %d actions", len(actions))
	}
	a := actions[0]
	if a.Variant != model.ActionShot || !a.Made || a.PointValue != 2 {
		t.Errorf("action %+v", a)
	}
	if len(a.Tags) != 1 || a.Tags[0] != "pullup" {
		t.Errorf("action tags %v", a.Tags)
	}

	scores, err := db.GetScores(g.GameID)
	if err != nil {
		t.Fatalf("GetScores: %v", err)
	}
	if len(scores) != 1 || scores[0].Margin != 2 {
		t.Fatalf("scores %+v", scores)
	}

	names, err := db.PlayerNames(g.GameID)
	if err != nil {
		t.Fatalf("PlayerNames: %v", err)
	}
	if names[101] != "Home Guard" {
		t.Errorf("player names %v", names)
	}
}

func TestSaveGameIdempotent(t *testing.T) {
	db := openMemDB(t)
	g := makeGraph()
	if err := db.SaveGame(g); err != nil {
		t.Fatalf("first save: %v", err)
	}
	before, err := db.CountGameRows(g.GameID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	if err := db.SaveGame(g); err != nil {
		t.Fatalf("second save: %v", err)
	}
	after, err := db.CountGameRows(g.GameID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	if before != after {
		t.Errorf("reload changed row counts: %+v -> %+v", before, after)
	}
	if before.LineupStints != 3 || before.PlayerStints != 1 || before.Scores != 1 {
		t.Errorf("unexpected counts %+v", before)
	}

	// Settled aggregates survive the re-save.
	stints, err := db.GetLineupStints(g.GameID)
	if err != nil {
		t.Fatalf("GetLineupStints: %v", err)
	}
	if stints[0].PlusMinus != 2 {
		t.Errorf("plus minus lost on reload: %d", stints[0].PlusMinus)
	}
}

func TestUpsertTeams(t *testing.T) {
	db := openMemDB(t)
	teams := []model.Team{
		{ID: 1610612744, Name: "Golden State Warriors", Abbreviation: "GSW", City: "San Francisco", State: "CA", Arena: "Chase Center"},
	}
	if err := db.UpsertTeams(teams); err != nil {
		t.Fatalf("UpsertTeams: %v", err)
	}
	// Second pass with a changed arena updates in place.
	teams[0].Arena = "New Arena"
	if err := db.UpsertTeams(teams); err != nil {
		t.Fatalf("UpsertTeams again: %v", err)
	}

	got, err := db.GetTeam(1610612744)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if got == nil || got.Abbreviation != "GSW" || got.Arena != "New Arena" {
		t.Errorf("team %+v", got)
	}

	missing, err := db.GetTeam(42)
	if err != nil || missing != nil {
		t.Errorf("unknown team = %+v, %v", missing, err)
	}
}

func TestUpsertScheduleAndLinks(t *testing.T) {
	db := openMemDB(t)
	games := []model.ScheduledGame{
		{GameID: 22500001, SeasonID: "2024-25", HomeTeamID: 1, AwayTeamID: 2, StartTime: tip},
		{GameID: 22500002, SeasonID: "2024-25", HomeTeamID: 2, AwayTeamID: 1, StartTime: tip.Add(48 * time.Hour)},
	}
	if err := db.UpsertSchedule("2024-25", games); err != nil {
		t.Fatalf("UpsertSchedule: %v", err)
	}

	ids, err := db.SeasonGameIDs("2024-25")
	if err != nil {
		t.Fatalf("SeasonGameIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 22500001 {
		t.Errorf("season ids %v", ids)
	}

	links := []model.GameLink{
		{TeamID: 1, GameID: 22500001, NextGameID: 22500002, RestGap: 48 * time.Hour},
		{TeamID: 2, GameID: 22500001, NextGameID: 22500002, RestGap: 48 * time.Hour},
	}
	if err := db.ReplaceGameLinks(links); err != nil {
		t.Fatalf("ReplaceGameLinks: %v", err)
	}
	if err := db.ReplaceGameLinks(links); err != nil {
		t.Fatalf("ReplaceGameLinks again: %v", err)
	}

	rows, err := db.ListGames()
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d games", len(rows))
	}
	for _, r := range rows {
		if r.Loaded {
			t.Errorf("game %d marked loaded without a save", r.ID)
		}
	}
}
