package models

import "time"

// Tournament объединяет матчи в окне [StartDate, EndDate].
type Tournament struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     time.Time  `json:"endDate"`
	CreatedDate time.Time  `json:"createdDate"`
	Version     int        `json:"version"`
	DeletedAt   *time.Time `json:"-"`
}

// Covers проверяет, попадает ли момент в окно турнира (границы включены).
func (t *Tournament) Covers(ts time.Time) bool {
	return !ts.Before(t.StartDate) && !ts.After(t.EndDate)
}

func (t *Tournament) Running(now time.Time) bool {
	return t.Covers(now)
}

type TournamentDetails struct {
	Tournament
	Matches []Match `json:"matches"`
}

type TournamentStatsView struct {
	Tournament *Tournament      `json:"tournament"`
	Stats      TournamentStats `json:"stats"`
	Matches    []Match         `json:"matches"`
}

type TournamentComparison struct {
	Tournament
	Stats TournamentStats `json:"stats"`
}
