package nba

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pable/go-courtgraph/internal/model"
)

// teamsFileEntry matches the reference teams JSON, which uses the static
// dump's "full_name" but is also accepted with a plain "name" key.
type teamsFileEntry struct {
	ID           int64  `json:"id"`
	FullName     string `json:"full_name"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city"`
	State        string `json:"state"`
	Arena        string `json:"arena"`
}

// LoadTeamsFile reads the reference teams JSON file.
func LoadTeamsFile(path string) ([]model.Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read teams file: %w", err)
	}

	var entries []teamsFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse teams file: %w", err)
	}

	teams := make([]model.Team, 0, len(entries))
	for _, e := range entries {
		name := e.FullName
		if name == "" {
			name = e.Name
		}
		if e.ID == 0 || name == "" {
			return nil, fmt.Errorf("teams file entry missing id or name: %+v", e)
		}
		teams = append(teams, model.Team{
			ID:           e.ID,
			Name:         name,
			Abbreviation: e.Abbreviation,
			City:         e.City,
			State:        e.State,
			Arena:        e.Arena,
		})
	}
	return teams, nil
}
