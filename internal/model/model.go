package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ---- Reference entities ----

// Team is an NBA franchise loaded from the reference file.
type Team struct {
	ID           int64
	Name         string
	Abbreviation string
	City         string
	State        string
	Arena        string
}

type Player struct {
	ID   int64
	Name string
}

// ScheduledGame is one entry of a season schedule.
type ScheduledGame struct {
	GameID     int64
	SeasonID   string
	HomeTeamID int64
	AwayTeamID int64
	StartTime  time.Time
}

// GameLink is the rest edge between a team's consecutive games.
type GameLink struct {
	TeamID     int64
	GameID     int64
	NextGameID int64
	RestGap    time.Duration
}

// ---- Raw inputs (decoded upstream, consumed by the engine) ----

// RawAction is one play-by-play event as the live feed reports it. Person id
// fields are 0 when the feed omits them; x/y/distance are -1 when absent.
type RawAction struct {
	ActionNumber int
	TimeActual   time.Time
	Period       int
	Clock        string // game clock remaining, "PT11M22.00S"
	ActionType   string
	SubType      string
	Descriptor   string
	TeamID       int64
	PersonID     int64

	X            float64
	Y            float64
	ShotDistance float64
	ShotResult   string // "Made" / "Missed"

	AssistPersonID            int64
	BlockPersonID             int64
	StealPersonID             int64
	FoulDrawnPersonID         int64
	JumpBallWonPersonID       int64
	JumpBallLostPersonID      int64
	JumpBallRecoveredPersonID int64
}

// RawGame is the complete input for one game: the two rosters' starters and
// the action stream sorted by wall-clock time.
type RawGame struct {
	GameID     int64
	SeasonID   string
	HomeTeamID int64
	AwayTeamID int64
	Starters   map[int64][]int64 // team id -> starting five person ids
	Players    map[int64]Player  // person id -> player (from box score)
	Actions    []RawAction
}

// ---- Deterministic composite keys ----

// StintKey identifies a lineup stint by the clock tick that opened it.
type StintKey struct {
	GameID int64
	TeamID int64
	Period int
	Clock  string
}

func (k StintKey) String() string {
	return fmt.Sprintf("%d_%d_%d_%s", k.GameID, k.TeamID, k.Period, k.Clock)
}

// PlayerStintKey identifies a player stint by the clock tick that opened its
// first on-court run.
type PlayerStintKey struct {
	GameID   int64
	PlayerID int64
	Period   int
	Clock    string
}

func (k PlayerStintKey) String() string {
	return fmt.Sprintf("%d_%d_%d_%s", k.GameID, k.PlayerID, k.Period, k.Clock)
}

// ActionKey identifies an action. ActorID is the acting person id, or the
// team id for team-level actions. Qualifier disambiguates actions that share
// every other field, e.g. the sub type of a free-throw trip ("1 of 2").
type ActionKey struct {
	GameID    int64
	Period    int
	Clock     string
	Variant   ActionVariant
	ActorID   int64
	Qualifier string
}

func (k ActionKey) String() string {
	s := fmt.Sprintf("%d_%d_%s_%s_%d", k.GameID, k.Period, k.Clock, k.Variant, k.ActorID)
	if k.Qualifier != "" {
		s += "_" + strings.ReplaceAll(k.Qualifier, " ", "")
	}
	return s
}

// LineupID is the identity of a five-player unit independent of time:
// the sorted member ids joined with "_".
func LineupID(members []int64) string {
	sorted := append([]int64(nil), members...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, "_")
}

// ---- Derived graph entities ----

// Period is one playing period with its wall-clock bounds.
type Period struct {
	ID              string
	GameID          int64
	Number          int
	Start           time.Time
	End             time.Time
	DurationSeconds float64 // game-clock length: 720 regulation, 300 OT
	NextID          string
	GapToNext       time.Duration // intermission before the next period
}

// Lineup is a distinct five-player unit for one team.
type Lineup struct {
	ID        string
	TeamID    int64
	MemberIDs []int64 // sorted
}

// LineupStint is a maximal interval during which one team's five on-court
// players are unchanged. Clock fields count seconds remaining in the period;
// global fields count seconds elapsed since the start of the game.
type LineupStint struct {
	ID        string
	GameID    int64
	TeamID    int64
	LineupID  string
	Period    int
	MemberIDs []int64 // sorted, always 5

	StartClock        string
	EndClock          string
	StartClockSeconds float64
	EndClockSeconds   float64
	GlobalStart       float64
	GlobalEnd         float64
	ClockDuration     float64

	StartTime time.Time
	EndTime   time.Time

	NextID string

	PointsFor     int
	PointsAgainst int
	PlusMinus     int
}

// PlayerStint is a maximal run of clock-adjacent lineup stints all containing
// the same player within one period.
type PlayerStint struct {
	ID       string
	GameID   int64
	PlayerID int64
	TeamID   int64
	Period   int

	StartClock    string
	GlobalStart   float64
	GlobalEnd     float64
	ClockDuration float64

	StartTime    time.Time
	EndTime      time.Time
	TimeDuration time.Duration

	StintIDs []string // underlying lineup stints, in clock order

	NextID   string
	NextGap  float64 // bench time before the next stint, game-clock seconds
	NextSits time.Duration

	PointsFor     int
	PointsAgainst int
	PlusMinus     int
}

// Overlap is the intersection of a home and an away lineup stint. The pair is
// stored unordered, smaller stint id first.
type Overlap struct {
	StintA        string
	StintB        string
	GlobalStart   float64
	GlobalEnd     float64
	ClockDuration float64
	TimeDuration  time.Duration
}

// ActionVariant classifies an attributed action.
type ActionVariant string

const (
	ActionShot      ActionVariant = "shot"
	ActionFreeThrow ActionVariant = "freethrow"
	ActionFoul      ActionVariant = "foul"
	ActionRebound   ActionVariant = "rebound"
	ActionTurnover  ActionVariant = "turnover"
	ActionJumpBall  ActionVariant = "jumpball"
	ActionViolation ActionVariant = "violation"
	ActionTimeout   ActionVariant = "timeout"
)

// Action is one attributed play-by-play event anchored to the stints that
// were on the floor when it happened. PlayerID is 0 for team-level actions
// (team rebounds, team turnovers, timeouts).
type Action struct {
	ID      string
	GameID  int64
	Variant ActionVariant
	Period  int

	Clock        string
	ClockSeconds float64
	GlobalClock  float64
	Time         time.Time

	TeamID   int64
	PlayerID int64

	SubType    string
	Descriptor string
	Tags       []string

	// Shot / free-throw fields.
	X          float64
	Y          float64
	Distance   float64
	Made       bool
	PointValue int

	// Attribution edges (stint ids).
	LineupStintID string
	PlayerStintID string

	AssistPlayerStintID            string
	BlockPlayerStintID             string
	StealPlayerStintID             string
	FoulDrawnPlayerStintID         string
	JumpBallWonPlayerStintID       string
	JumpBallLostPlayerStintID      string
	JumpBallRecoveredPlayerStintID string

	ReboundOfActionID string // missed shot this rebound gathered
	CausedByActionID  string // foul that sent this free throw
}

// Score is one scoring event in the game's score chain with the running
// totals after it counted.
type Score struct {
	ID       string
	ActionID string
	GameID   int64
	Period   int

	GlobalClock float64
	Time        time.Time

	ScoringTeamID int64
	Points        int

	HomeScore int
	AwayScore int
	Margin    int // home - away

	PeriodHomeScore int
	PeriodAwayScore int
	PeriodMargin    int

	HomeStintID string
	AwayStintID string
	NextID      string
}

// GameGraph is the full reconstruction of one game.
type GameGraph struct {
	GameID     int64
	SeasonID   string
	HomeTeamID int64
	AwayTeamID int64

	Start    time.Time
	End      time.Time
	Duration time.Duration

	Players      map[int64]Player
	Periods      []Period
	Lineups      []Lineup
	LineupStints []LineupStint
	PlayerStints []PlayerStint
	Overlaps     []Overlap
	Actions      []Action
	Scores       []Score

	// Soft-match misses recorded during attribution; the caller decides
	// where to print them.
	Warnings []string
}

func (g *GameGraph) FinalScore() (home, away int) {
	if len(g.Scores) == 0 {
		return 0, 0
	}
	last := g.Scores[len(g.Scores)-1]
	return last.HomeScore, last.AwayScore
}
