package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Dosada05/tournament-predictor/models"
	"github.com/Dosada05/tournament-predictor/repositories"
	"github.com/Dosada05/tournament-predictor/stats"
)

// Турнир считается активным, если идет сейчас или начнется в ближайшую неделю
const activeTournamentHorizon = 7 * 24 * time.Hour

type TournamentService interface {
	ListTournaments(ctx context.Context) ([]models.Tournament, error)
	ListActiveTournaments(ctx context.Context) ([]models.Tournament, error)
	GetTournament(ctx context.Context, id string) (*models.TournamentDetails, error)
	GetTournamentStats(ctx context.Context, id string) (*models.TournamentStatsView, error)
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	UpdateTournament(ctx context.Context, id string, input UpdateTournamentInput) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id string) error
}

type CreateTournamentInput struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// UpdateTournamentInput - пустая дата оставляет текущее значение.
type UpdateTournamentInput struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Version   *int   `json:"version,omitempty"`
}

type tournamentService struct {
	store *repositories.Store
	opts  Options
}

func NewTournamentService(store *repositories.Store, opts Options) TournamentService {
	return &tournamentService{store: store, opts: opts.withDefaults()}
}

func (s *tournamentService) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	tournaments, err := s.store.Tournaments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) ListActiveTournaments(ctx context.Context) ([]models.Tournament, error) {
	tournaments, err := s.store.Tournaments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}

	now := s.opts.Now()
	soon := now.Add(activeTournamentHorizon)
	active := make([]models.Tournament, 0)
	for _, t := range tournaments {
		startingSoon := t.StartDate.After(now) && !t.StartDate.After(soon)
		if t.Running(now) || startingSoon {
			active = append(active, t)
		}
	}
	return active, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id string) (*models.TournamentDetails, error) {
	tournament, err := s.store.Tournaments.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, ErrTournamentNotFound)
	}
	matches, err := s.store.Matches.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament matches: %w", err)
	}
	sortMatchesByTime(matches)
	return &models.TournamentDetails{Tournament: *tournament, Matches: matches}, nil
}

func (s *tournamentService) GetTournamentStats(ctx context.Context, id string) (*models.TournamentStatsView, error) {
	tournament, err := s.store.Tournaments.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, ErrTournamentNotFound)
	}
	matches, err := s.store.Matches.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament matches: %w", err)
	}
	predictions, err := s.store.Predictions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	sortMatchesByTime(matches)
	return &models.TournamentStatsView{
		Tournament: tournament,
		Stats:      stats.ForTournament(matches, predictions),
		Matches:    matches,
	}, nil
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || strings.TrimSpace(input.StartDate) == "" || strings.TrimSpace(input.EndDate) == "" {
		return nil, ErrTournamentDatesMissing
	}
	start, err := parseTime(input.StartDate, s.opts.Location)
	if err != nil {
		return nil, err
	}
	end, err := parseTime(input.EndDate, s.opts.Location)
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, ErrInvalidDateRange
	}
	if start.Before(s.opts.Now()) {
		return nil, ErrStartInPast
	}

	tournament := &models.Tournament{Name: name, StartDate: start.UTC(), EndDate: end.UTC()}
	if err := s.store.Tournaments.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	log.Info().Str("tournament_id", tournament.ID).Str("name", tournament.Name).Msg("tournament created")
	return tournament, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id string, input UpdateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	tournament, err := s.store.Tournaments.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, ErrTournamentNotFound)
	}
	if err := checkVersion(input.Version, tournament.Version); err != nil {
		return nil, err
	}

	updated := *tournament
	updated.Name = name
	if strings.TrimSpace(input.StartDate) != "" {
		if updated.StartDate, err = parseTime(input.StartDate, s.opts.Location); err != nil {
			return nil, err
		}
		updated.StartDate = updated.StartDate.UTC()
	}
	if strings.TrimSpace(input.EndDate) != "" {
		if updated.EndDate, err = parseTime(input.EndDate, s.opts.Location); err != nil {
			return nil, err
		}
		updated.EndDate = updated.EndDate.UTC()
	}

	if !updated.StartDate.Equal(tournament.StartDate) || !updated.EndDate.Equal(tournament.EndDate) {
		if !updated.StartDate.Before(updated.EndDate) {
			return nil, ErrInvalidDateRange
		}
		matches, err := s.store.Matches.ListByTournament(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to list tournament matches: %w", err)
		}
		for _, m := range matches {
			if !updated.Covers(m.MatchTime) {
				return nil, fmt.Errorf("%w: %s", ErrMatchesOutsideWindow, m.Title())
			}
		}
	}

	if err := s.store.Tournaments.Update(ctx, &updated); err != nil {
		return nil, handleRepositoryError(err, ErrTournamentNotFound)
	}
	return &updated, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id string) error {
	if _, err := s.store.Tournaments.GetByID(ctx, id); err != nil {
		return handleRepositoryError(err, ErrTournamentNotFound)
	}
	matches, err := s.store.Matches.ListByTournament(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check tournament matches: %w", err)
	}
	if len(matches) > 0 {
		return ErrTournamentHasMatches
	}
	if err := s.store.Tournaments.Delete(ctx, id); err != nil {
		return handleRepositoryError(err, ErrTournamentNotFound)
	}
	log.Info().Str("tournament_id", id).Msg("tournament deleted")
	return nil
}

func sortMatchesByTime(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchTime.Before(matches[j].MatchTime)
	})
}
