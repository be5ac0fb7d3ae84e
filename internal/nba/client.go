// Package nba fetches play-by-play, box score, and schedule data from the
// NBA's public endpoints. The stats host throttles aggressively, so every
// request goes through a rate limiter with retry and backoff.
package nba

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/pable/go-courtgraph/internal/model"
)

const (
	liveBaseURL  = "https://cdn.nba.com/static/json/liveData"
	statsBaseURL = "https://stats.nba.com/stats"

	rateLimitDelay = 600 * time.Millisecond
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// Client is a rate-limited NBA data client.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
}

// NewClient creates an NBA data client.
func NewClient() *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		userAgent:   "Mozilla/5.0 (X11; Linux x86_64) courtgraph/1.0",
	}
}

// FormatGameID renders a numeric game id the way the endpoints expect it
// ("0022500001" style).
func FormatGameID(id int64) string {
	return fmt.Sprintf("00%08d", id)
}

// ParseGameID parses a feed game id string back to its numeric form.
func ParseGameID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("game id %q: %w", s, err)
	}
	return id, nil
}

// rawFeedAction mirrors one entry of the live feed's actions array. Nullable
// coordinates come as pointers so absent values can stay distinguishable.
type rawFeedAction struct {
	ActionNumber int       `json:"actionNumber"`
	Clock        string    `json:"clock"`
	TimeActual   time.Time `json:"timeActual"`
	Period       int       `json:"period"`
	TeamID       int64     `json:"teamId"`
	PersonID     int64     `json:"personId"`
	X            *float64  `json:"x"`
	Y            *float64  `json:"y"`
	ShotDistance *float64  `json:"shotDistance"`
	ShotResult   string    `json:"shotResult"`
	ActionType   string    `json:"actionType"`
	SubType      string    `json:"subType"`
	Descriptor   string    `json:"descriptor"`

	AssistPersonID            int64 `json:"assistPersonId"`
	BlockPersonID             int64 `json:"blockPersonId"`
	StealPersonID             int64 `json:"stealPersonId"`
	FoulDrawnPersonID         int64 `json:"foulDrawnPersonId"`
	JumpBallWonPersonID       int64 `json:"jumpBallWonPersonId"`
	JumpBallLostPersonID      int64 `json:"jumpBallLostPersonId"`
	JumpBallRecoveredPersonID int64 `json:"jumpBallRecoveredPersonId"`
}

// PlayByPlay fetches a game's full action stream, sorted by wall-clock time.
func (c *Client) PlayByPlay(ctx context.Context, gameID int64) ([]model.RawAction, error) {
	url := fmt.Sprintf("%s/playbyplay/playbyplay_%s.json", liveBaseURL, FormatGameID(gameID))

	var payload struct {
		Game struct {
			GameID  string          `json:"gameId"`
			Actions []rawFeedAction `json:"actions"`
		} `json:"game"`
	}
	if err := c.doGet(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("play-by-play for game %d: %w", gameID, err)
	}
	if len(payload.Game.Actions) == 0 {
		return nil, fmt.Errorf("play-by-play for game %d: empty action stream", gameID)
	}

	actions := make([]model.RawAction, 0, len(payload.Game.Actions))
	for _, f := range payload.Game.Actions {
		actions = append(actions, model.RawAction{
			ActionNumber: f.ActionNumber,
			TimeActual:   f.TimeActual,
			Period:       f.Period,
			Clock:        f.Clock,
			ActionType:   f.ActionType,
			SubType:      f.SubType,
			Descriptor:   f.Descriptor,
			TeamID:       f.TeamID,
			PersonID:     f.PersonID,
			X:            deref(f.X),
			Y:            deref(f.Y),
			ShotDistance: deref(f.ShotDistance),
			ShotResult:   f.ShotResult,

			AssistPersonID:            f.AssistPersonID,
			BlockPersonID:             f.BlockPersonID,
			StealPersonID:             f.StealPersonID,
			FoulDrawnPersonID:         f.FoulDrawnPersonID,
			JumpBallWonPersonID:       f.JumpBallWonPersonID,
			JumpBallLostPersonID:      f.JumpBallLostPersonID,
			JumpBallRecoveredPersonID: f.JumpBallRecoveredPersonID,
		})
	}
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].TimeActual.Before(actions[j].TimeActual)
	})
	return actions, nil
}

func deref(p *float64) float64 {
	if p == nil {
		return -1
	}
	return *p
}

// resultSetPayload is the stats host's tabular envelope: named result sets
// of header/row pairs.
type resultSetPayload struct {
	ResultSets []struct {
		Name    string  `json:"name"`
		Headers []string `json:"headers"`
		RowSet  [][]any `json:"rowSet"`
	} `json:"resultSets"`
}

func (p *resultSetPayload) rows(name string) ([]string, [][]any, error) {
	for _, rs := range p.ResultSets {
		if rs.Name == name {
			return rs.Headers, rs.RowSet, nil
		}
	}
	return nil, nil, fmt.Errorf("result set %q missing from response", name)
}

func columnIndex(headers []string, name string) (int, error) {
	for i, h := range headers {
		if h == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %q missing from result set", name)
}

func cellInt64(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	default:
		return 0
	}
}

func cellString(v any) string {
	s, _ := v.(string)
	return s
}

// BoxScore returns each team's starting five and the names of everyone who
// appeared, from the traditional box score.
func (c *Client) BoxScore(ctx context.Context, gameID int64) (starters map[int64][]int64, players map[int64]model.Player, err error) {
	url := fmt.Sprintf("%s/boxscoretraditionalv2?GameID=%s&StartPeriod=0&EndPeriod=14&StartRange=0&EndRange=0&RangeType=0",
		statsBaseURL, FormatGameID(gameID))

	var payload resultSetPayload
	if err := c.doGet(ctx, url, &payload); err != nil {
		return nil, nil, fmt.Errorf("box score for game %d: %w", gameID, err)
	}

	headers, rows, err := payload.rows("PlayerStats")
	if err != nil {
		return nil, nil, fmt.Errorf("box score for game %d: %w", gameID, err)
	}

	teamCol, err := columnIndex(headers, "TEAM_ID")
	if err != nil {
		return nil, nil, err
	}
	playerCol, err := columnIndex(headers, "PLAYER_ID")
	if err != nil {
		return nil, nil, err
	}
	nameCol, err := columnIndex(headers, "PLAYER_NAME")
	if err != nil {
		return nil, nil, err
	}
	startCol, err := columnIndex(headers, "START_POSITION")
	if err != nil {
		return nil, nil, err
	}

	starters = make(map[int64][]int64)
	players = make(map[int64]model.Player)
	for _, row := range rows {
		teamID := cellInt64(row[teamCol])
		playerID := cellInt64(row[playerCol])
		players[playerID] = model.Player{ID: playerID, Name: cellString(row[nameCol])}
		if cellString(row[startCol]) != "" {
			starters[teamID] = append(starters[teamID], playerID)
		}
	}
	return starters, players, nil
}

// FetchGame pulls everything the engine needs for one game.
func (c *Client) FetchGame(ctx context.Context, gameID int64, homeTeamID, awayTeamID int64, seasonID string) (*model.RawGame, error) {
	starters, players, err := c.BoxScore(ctx, gameID)
	if err != nil {
		return nil, err
	}
	actions, err := c.PlayByPlay(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return &model.RawGame{
		GameID:     gameID,
		SeasonID:   seasonID,
		HomeTeamID: homeTeamID,
		AwayTeamID: awayTeamID,
		Starters:   starters,
		Players:    players,
		Actions:    actions,
	}, nil
}

// Schedule fetches the league schedule and returns the games of the given
// season year (e.g. "2024-25"), in start-time order.
func (c *Client) Schedule(ctx context.Context, season string) ([]model.ScheduledGame, error) {
	url := "https://cdn.nba.com/static/json/staticData/scheduleLeagueV2.json"

	var payload struct {
		LeagueSchedule struct {
			SeasonYear string `json:"seasonYear"`
			GameDates  []struct {
				Games []struct {
					GameID          string    `json:"gameId"`
					GameDateTimeUTC time.Time `json:"gameDateTimeUTC"`
					HomeTeam        struct {
						TeamID int64 `json:"teamId"`
					} `json:"homeTeam"`
					AwayTeam struct {
						TeamID int64 `json:"teamId"`
					} `json:"awayTeam"`
				} `json:"games"`
			} `json:"gameDates"`
		} `json:"leagueSchedule"`
	}
	if err := c.doGet(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	if payload.LeagueSchedule.SeasonYear != season {
		return nil, fmt.Errorf("schedule covers season %s, not %s", payload.LeagueSchedule.SeasonYear, season)
	}

	var games []model.ScheduledGame
	for _, gd := range payload.LeagueSchedule.GameDates {
		for _, g := range gd.Games {
			id, err := ParseGameID(g.GameID)
			if err != nil || g.HomeTeam.TeamID == 0 {
				continue // preseason placeholders and TBD pairings
			}
			games = append(games, model.ScheduledGame{
				GameID:     id,
				SeasonID:   season,
				HomeTeamID: g.HomeTeam.TeamID,
				AwayTeamID: g.AwayTeam.TeamID,
				StartTime:  g.GameDateTimeUTC,
			})
		}
	}
	sort.Slice(games, func(i, j int) bool {
		if !games[i].StartTime.Equal(games[j].StartTime) {
			return games[i].StartTime.Before(games[j].StartTime)
		}
		return games[i].GameID < games[j].GameID
	})
	return games, nil
}

// doGet performs a GET with rate limiting, retry, and backoff, decoding the
// JSON response into result.
func (c *Client) doGet(ctx context.Context, url string, result any) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Referer", "https://www.nba.com/")
		req.Header.Set("Origin", "https://www.nba.com")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("GET %s: %w", url, err)
			if attempt < maxRetries {
				time.Sleep(backoff)
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return fmt.Errorf("read response: %w", readErr)
			}
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
			if attempt < maxRetries {
				time.Sleep(backoff)
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr

		default:
			return fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
