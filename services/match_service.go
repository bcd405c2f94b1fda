package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Dosada05/tournament-predictor/live"
	"github.com/Dosada05/tournament-predictor/metrics"
	"github.com/Dosada05/tournament-predictor/models"
	"github.com/Dosada05/tournament-predictor/repositories"
)

const (
	upcomingMatchesWindow = time.Hour
	// Сколько раз перечитывать запись при конфликте версий во время подсчета
	scoringAttempts = 3

	scoreKindSet        = "set"
	scoreKindCorrection = "correction"
)

type MatchService interface {
	ListMatches(ctx context.Context) ([]models.MatchView, error)
	ListUpcomingMatches(ctx context.Context) ([]models.MatchView, error)
	ListCompletedMatches(ctx context.Context) ([]models.MatchView, error)
	ListMatchesByTournament(ctx context.Context, tournamentID string) ([]models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.MatchDetails, error)
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	UpdateMatch(ctx context.Context, id string, input UpdateMatchInput) (*models.Match, error)
	DeleteMatch(ctx context.Context, id string) error
	SetMatchWinner(ctx context.Context, id, winner string) (*MatchResult, error)
	CorrectMatchResult(ctx context.Context, id, winner string) (*MatchResult, error)
}

type CreateMatchInput struct {
	TournamentID string `json:"tournamentId"`
	TeamA        string `json:"teamA"`
	TeamB        string `json:"teamB"`
	MatchTime    string `json:"matchTime"`
}

// UpdateMatchInput - пустые поля не меняются.
type UpdateMatchInput struct {
	TournamentID string `json:"tournamentId"`
	TeamA        string `json:"teamA"`
	TeamB        string `json:"teamB"`
	MatchTime    string `json:"matchTime"`
	Status       string `json:"status"`
	Version      *int   `json:"version,omitempty"`
}

// MatchResult - итог объявления победителя, он же payload события MATCH_RESULT.
type MatchResult struct {
	Match             *models.Match `json:"match"`
	PreviousWinner    string        `json:"previousWinner,omitempty"`
	Correction        bool          `json:"correction"`
	PredictionsScored int           `json:"predictionsScored"`
}

type matchService struct {
	store *repositories.Store
	opts  Options
}

func NewMatchService(store *repositories.Store, opts Options) MatchService {
	return &matchService{store: store, opts: opts.withDefaults()}
}

func (s *matchService) withTournamentNames(ctx context.Context, matches []models.Match) ([]models.MatchView, error) {
	tournaments, err := s.store.Tournaments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	names := make(map[string]string, len(tournaments))
	for _, t := range tournaments {
		names[t.ID] = t.Name
	}

	sortMatchesByTime(matches)
	views := make([]models.MatchView, 0, len(matches))
	for _, m := range matches {
		name, ok := names[m.TournamentID]
		if !ok {
			name = "Unknown Tournament"
		}
		views = append(views, models.MatchView{Match: m, TournamentName: name})
	}
	return views, nil
}

func (s *matchService) listWhere(ctx context.Context, keep func(*models.Match) bool) ([]models.MatchView, error) {
	matches, err := s.store.Matches.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	filtered := make([]models.Match, 0, len(matches))
	for i := range matches {
		if keep(&matches[i]) {
			filtered = append(filtered, matches[i])
		}
	}
	return s.withTournamentNames(ctx, filtered)
}

func (s *matchService) ListMatches(ctx context.Context) ([]models.MatchView, error) {
	return s.listWhere(ctx, func(*models.Match) bool { return true })
}

func (s *matchService) ListUpcomingMatches(ctx context.Context) ([]models.MatchView, error) {
	now := s.opts.Now()
	until := now.Add(upcomingMatchesWindow)
	return s.listWhere(ctx, func(m *models.Match) bool {
		return !m.IsCompleted() && m.MatchTime.After(now) && !m.MatchTime.After(until)
	})
}

func (s *matchService) ListCompletedMatches(ctx context.Context) ([]models.MatchView, error) {
	return s.listWhere(ctx, func(m *models.Match) bool { return m.IsCompleted() })
}

func (s *matchService) ListMatchesByTournament(ctx context.Context, tournamentID string) ([]models.Match, error) {
	if _, err := s.store.Tournaments.GetByID(ctx, tournamentID); err != nil {
		return nil, handleRepositoryError(err, ErrTournamentNotFound)
	}
	matches, err := s.store.Matches.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament matches: %w", err)
	}
	sortMatchesByTime(matches)
	return matches, nil
}

func (s *matchService) GetMatch(ctx context.Context, id string) (*models.MatchDetails, error) {
	match, err := s.store.Matches.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, ErrMatchNotFound)
	}

	details := &models.MatchDetails{Match: *match, Predictions: []models.PredictionView{}}
	if tournament, err := s.store.Tournaments.GetByID(ctx, match.TournamentID); err == nil {
		details.Tournament = tournament
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load match tournament: %w", err)
	}

	predictions, err := s.store.Predictions.ListByMatch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list match predictions: %w", err)
	}
	predictors, err := s.store.Predictors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictors: %w", err)
	}
	byID := predictorIndex(predictors)
	for _, p := range predictions {
		view := models.PredictionView{Prediction: p, Match: match.Summary(), PredictorName: "Unknown Predictor"}
		if predictor, ok := byID[p.PredictorID]; ok {
			view.Predictor = predictor.Summary()
			view.PredictorName = predictor.Name
		}
		details.Predictions = append(details.Predictions, view)
	}
	return details, nil
}

// placeMatch проверяет время матча относительно турнира и текущего момента.
func (s *matchService) placeMatch(ctx context.Context, tournamentID string, matchTime time.Time) error {
	tournament, err := s.store.Tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return handleRepositoryError(err, ErrReferencedTournament)
	}
	if !matchTime.After(s.opts.Now()) {
		return ErrMatchInPast
	}
	if !tournament.Covers(matchTime) {
		return ErrMatchOutsideTournament
	}
	return nil
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	match := &models.Match{
		TournamentID: strings.TrimSpace(input.TournamentID),
		TeamA:        strings.TrimSpace(input.TeamA),
		TeamB:        strings.TrimSpace(input.TeamB),
		Status:       models.MatchStatusScheduled,
	}
	if match.TournamentID == "" || match.TeamA == "" || match.TeamB == "" || strings.TrimSpace(input.MatchTime) == "" {
		return nil, ErrMatchFieldsRequired
	}
	if match.TeamA == match.TeamB {
		return nil, ErrSameTeams
	}
	matchTime, err := parseTime(input.MatchTime, s.opts.Location)
	if err != nil {
		return nil, err
	}
	match.MatchTime = matchTime.UTC()
	if err := s.placeMatch(ctx, match.TournamentID, match.MatchTime); err != nil {
		return nil, err
	}

	if err := s.store.Matches.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	log.Info().Str("match_id", match.ID).Str("tournament_id", match.TournamentID).Str("match", match.Title()).Msg("match created")
	return match, nil
}

func (s *matchService) UpdateMatch(ctx context.Context, id string, input UpdateMatchInput) (*models.Match, error) {
	match, err := s.store.Matches.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, ErrMatchNotFound)
	}
	if err := checkVersion(input.Version, match.Version); err != nil {
		return nil, err
	}

	updated := *match
	if v := strings.TrimSpace(input.TournamentID); v != "" {
		updated.TournamentID = v
	}
	if v := strings.TrimSpace(input.TeamA); v != "" {
		updated.TeamA = v
	}
	if v := strings.TrimSpace(input.TeamB); v != "" {
		updated.TeamB = v
	}
	if updated.TeamA == updated.TeamB {
		return nil, ErrSameTeams
	}
	if v := strings.TrimSpace(input.Status); v != "" {
		status := models.MatchStatus(v)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %q, must be one of: scheduled, in_progress, completed, cancelled", ErrInvalidMatchStatus, v)
		}
		updated.Status = status
	}
	// У сыгранного матча результат меняется только через CorrectMatchResult
	if updated.Winner != "" {
		if updated.Status != models.MatchStatusCompleted {
			return nil, fmt.Errorf("%w: status cannot leave completed", ErrDecidedMatchChange)
		}
		if !updated.HasTeam(updated.Winner) {
			return nil, fmt.Errorf("%w: winner %s must stay one of the teams", ErrDecidedMatchChange, updated.Winner)
		}
	}

	if strings.TrimSpace(input.MatchTime) != "" {
		matchTime, err := parseTime(input.MatchTime, s.opts.Location)
		if err != nil {
			return nil, err
		}
		updated.MatchTime = matchTime.UTC()
		if err := s.placeMatch(ctx, updated.TournamentID, updated.MatchTime); err != nil {
			return nil, err
		}
	} else if updated.TournamentID != match.TournamentID {
		tournament, err := s.store.Tournaments.GetByID(ctx, updated.TournamentID)
		if err != nil {
			return nil, handleRepositoryError(err, ErrReferencedTournament)
		}
		if !tournament.Covers(updated.MatchTime) {
			return nil, ErrMatchOutsideTournament
		}
	}

	if err := s.store.Matches.Update(ctx, &updated); err != nil {
		return nil, handleRepositoryError(err, ErrMatchNotFound)
	}
	return &updated, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, id string) error {
	if _, err := s.store.Matches.GetByID(ctx, id); err != nil {
		return handleRepositoryError(err, ErrMatchNotFound)
	}
	predictions, err := s.store.Predictions.ListByMatch(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check match predictions: %w", err)
	}
	if len(predictions) > 0 {
		return ErrMatchHasPredictions
	}
	if err := s.store.Matches.Delete(ctx, id); err != nil {
		return handleRepositoryError(err, ErrMatchNotFound)
	}
	log.Info().Str("match_id", id).Msg("match deleted")
	return nil
}

func (s *matchService) SetMatchWinner(ctx context.Context, id, winner string) (*MatchResult, error) {
	return s.applyResult(ctx, id, winner, false)
}

// CorrectMatchResult меняет уже объявленный результат и пересчитывает прогнозы.
func (s *matchService) CorrectMatchResult(ctx context.Context, id, winner string) (*MatchResult, error) {
	return s.applyResult(ctx, id, winner, true)
}

func (s *matchService) applyResult(ctx context.Context, id, winner string, correction bool) (*MatchResult, error) {
	winner = strings.TrimSpace(winner)
	if winner == "" {
		return nil, ErrWinnerRequired
	}

	var (
		match    *models.Match
		previous string
	)
	for attempt := 1; ; attempt++ {
		current, err := s.store.Matches.GetByID(ctx, id)
		if err != nil {
			return nil, handleRepositoryError(err, ErrMatchNotFound)
		}
		if correction && current.Winner == "" {
			return nil, ErrMatchNotDecided
		}
		if !current.HasTeam(winner) {
			return nil, fmt.Errorf("%w: must be either %s or %s", ErrInvalidWinner, current.TeamA, current.TeamB)
		}

		previous = current.Winner
		current.Winner = winner
		current.Status = models.MatchStatusCompleted
		err = s.store.Matches.Update(ctx, current)
		if err == nil {
			match = current
			break
		}
		if !errors.Is(err, repositories.ErrVersionConflict) || attempt >= scoringAttempts {
			return nil, handleRepositoryError(err, ErrMatchNotFound)
		}
		metrics.ScoringConflictsTotal.Inc()
	}

	kind := scoreKindSet
	if correction {
		kind = scoreKindCorrection
	}
	metrics.MatchesScoredTotal.WithLabelValues(kind).Inc()

	logger := log.With().Str("match_id", match.ID).Str("winner", winner).Str("kind", kind).Logger()
	if previous != "" {
		logger.Warn().Str("previous_winner", previous).Msg("rescoring match with an already declared result")
	}

	scored, err := s.scorePredictions(ctx, match)
	result := &MatchResult{
		Match:             match,
		PreviousWinner:    previous,
		Correction:        correction,
		PredictionsScored: scored,
	}
	if err != nil {
		logger.Error().Err(err).Int("scored", scored).Msg("match result applied with scoring failures")
		return nil, err
	}
	logger.Info().Int("scored", scored).Msg("match result applied")

	s.publishResult(result)
	return result, nil
}

// scorePredictions пересчитывает все прогнозы матча. Неудачи не прерывают обход.
func (s *matchService) scorePredictions(ctx context.Context, match *models.Match) (int, error) {
	predictions, err := s.store.Predictions.ListByMatch(ctx, match.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list match predictions: %w", err)
	}

	scored, failed := 0, 0
	for i := range predictions {
		p := &predictions[i]
		if err := s.scorePrediction(ctx, p, match.Winner); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				// удален параллельно
				continue
			}
			failed++
			log.Error().Err(err).Str("prediction_id", p.ID).Str("match_id", match.ID).Msg("failed to score prediction")
			continue
		}
		scored++
		metrics.PredictionsScoredTotal.WithLabelValues(resultLabel(p.ResultStatus)).Inc()
	}
	if failed > 0 {
		return scored, fmt.Errorf("failed to score %d of %d predictions for match %s", failed, len(predictions), match.ID)
	}
	return scored, nil
}

// scorePrediction применяет результат, при конфликте версий перечитывает прогноз и повторяет.
func (s *matchService) scorePrediction(ctx context.Context, p *models.Prediction, winner string) error {
	for attempt := 1; ; attempt++ {
		p.Score(winner)
		err := s.store.Predictions.Update(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) || attempt >= scoringAttempts {
			return err
		}
		metrics.ScoringConflictsTotal.Inc()

		fresh, getErr := s.store.Predictions.GetByID(ctx, p.ID)
		if getErr != nil {
			return getErr
		}
		*p = *fresh
	}
}

func (s *matchService) publishResult(result *MatchResult) {
	s.opts.Events.BroadcastToRoom(live.DashboardRoom, live.Message{
		Type:    live.EventMatchResult,
		Payload: result,
		RoomID:  live.DashboardRoom,
	})
	room := live.TournamentRoom(result.Match.TournamentID)
	s.opts.Events.BroadcastToRoom(room, live.Message{
		Type:    live.EventMatchResult,
		Payload: result,
		RoomID:  room,
	})
}

func resultLabel(status models.ResultStatus) string {
	switch status {
	case models.ResultCorrect:
		return "correct"
	case models.ResultWrong:
		return "wrong"
	case models.ResultAwaitingPrediction, models.ResultMissedPrediction:
		return "not_predicted"
	default:
		return "pending"
	}
}
