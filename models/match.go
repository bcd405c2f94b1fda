package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCancelled  MatchStatus = "cancelled"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusScheduled, MatchStatusInProgress, MatchStatusCompleted, MatchStatusCancelled:
		return true
	}
	return false
}

// Match - матч двух команд внутри турнира.
// Winner пуст до объявления результата, после этого равен TeamA или TeamB.
type Match struct {
	ID           string      `json:"id"`
	TournamentID string      `json:"tournamentId"`
	TeamA        string      `json:"teamA"`
	TeamB        string      `json:"teamB"`
	MatchTime    time.Time   `json:"matchTime"`
	Status       MatchStatus `json:"status"`
	Winner       string      `json:"winner"`
	CreatedDate  time.Time   `json:"createdDate"`
	Version      int         `json:"version"`
	DeletedAt    *time.Time  `json:"-"`
}

func (m *Match) IsCompleted() bool {
	return m.Status == MatchStatusCompleted
}

func (m *Match) HasTeam(team string) bool {
	return team != "" && (team == m.TeamA || team == m.TeamB)
}

// Title возвращает строку вида "TeamA vs TeamB"
func (m *Match) Title() string {
	return m.TeamA + " vs " + m.TeamB
}

// MatchView - матч вместе с названием турнира
type MatchView struct {
	Match
	TournamentName string `json:"tournamentName"`
}

type MatchDetails struct {
	Match
	Tournament  *Tournament      `json:"tournament"`
	Predictions []PredictionView `json:"predictions"`
}

// MatchSummary - краткая форма матча для списков прогнозов
type MatchSummary struct {
	ID        string      `json:"id"`
	TeamA     string      `json:"teamA"`
	TeamB     string      `json:"teamB"`
	MatchTime time.Time   `json:"matchTime"`
	Status    MatchStatus `json:"status"`
	Winner    string      `json:"winner"`
}

func (m *Match) Summary() *MatchSummary {
	return &MatchSummary{
		ID:        m.ID,
		TeamA:     m.TeamA,
		TeamB:     m.TeamB,
		MatchTime: m.MatchTime,
		Status:    m.Status,
		Winner:    m.Winner,
	}
}
