package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Dosada05/tournament-predictor/models"
	"github.com/Dosada05/tournament-predictor/repositories"
)

type PredictionService interface {
	ListPredictions(ctx context.Context) ([]models.PredictionView, error)
	GetPrediction(ctx context.Context, id string) (*models.PredictionDetails, error)
	ListPredictionsByMatch(ctx context.Context, matchID string) ([]models.PredictionView, error)
	ListPredictionsByPredictor(ctx context.Context, predictorID string) ([]models.PredictionView, error)
	CreatePrediction(ctx context.Context, input CreatePredictionInput) (*models.Prediction, error)
	UpdatePrediction(ctx context.Context, id string, input UpdatePredictionInput) (*models.Prediction, error)
	DeletePrediction(ctx context.Context, id string) error
}

type CreatePredictionInput struct {
	MatchID         string `json:"matchId"`
	PredictorID     string `json:"predictorId"`
	PredictedWinner string `json:"predictedWinner"`
}

type UpdatePredictionInput struct {
	PredictedWinner string `json:"predictedWinner"`
	Version         *int   `json:"version,omitempty"`
}

type predictionService struct {
	store *repositories.Store
	opts  Options
}

func NewPredictionService(store *repositories.Store, opts Options) PredictionService {
	return &predictionService{store: store, opts: opts.withDefaults()}
}

// views дополняет прогнозы краткими данными матча и участника.
func (s *predictionService) views(ctx context.Context, predictions []models.Prediction) ([]models.PredictionView, error) {
	matches, err := s.store.Matches.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	predictors, err := s.store.Predictors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictors: %w", err)
	}

	matchByID := make(map[string]*models.Match, len(matches))
	for i := range matches {
		matchByID[matches[i].ID] = &matches[i]
	}
	predictorByID := predictorIndex(predictors)

	views := make([]models.PredictionView, 0, len(predictions))
	for _, p := range predictions {
		view := models.PredictionView{Prediction: p}
		if m, ok := matchByID[p.MatchID]; ok {
			view.Match = m.Summary()
		}
		if predictor, ok := predictorByID[p.PredictorID]; ok {
			view.Predictor = predictor.Summary()
			view.PredictorName = predictor.Name
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *predictionService) ListPredictions(ctx context.Context) ([]models.PredictionView, error) {
	predictions, err := s.store.Predictions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return s.views(ctx, predictions)
}

func (s *predictionService) GetPrediction(ctx context.Context, id string) (*models.PredictionDetails, error) {
	prediction, err := s.store.Predictions.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, ErrPredictionNotFound)
	}

	details := &models.PredictionDetails{Prediction: *prediction}
	match, err := s.store.Matches.GetByID(ctx, prediction.MatchID)
	switch {
	case err == nil:
		details.Match = match
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to load prediction match: %w", err)
	}
	predictor, err := s.store.Predictors.GetByID(ctx, prediction.PredictorID)
	switch {
	case err == nil:
		details.Predictor = predictor
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to load prediction predictor: %w", err)
	}
	return details, nil
}

func (s *predictionService) ListPredictionsByMatch(ctx context.Context, matchID string) ([]models.PredictionView, error) {
	if _, err := s.store.Matches.GetByID(ctx, matchID); err != nil {
		return nil, handleRepositoryError(err, ErrMatchNotFound)
	}
	predictions, err := s.store.Predictions.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match predictions: %w", err)
	}
	return s.views(ctx, predictions)
}

func (s *predictionService) ListPredictionsByPredictor(ctx context.Context, predictorID string) ([]models.PredictionView, error) {
	if _, err := s.store.Predictors.GetByID(ctx, predictorID); err != nil {
		return nil, handleRepositoryError(err, ErrPredictorNotFound)
	}
	predictions, err := s.store.Predictions.ListByPredictor(ctx, predictorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictor predictions: %w", err)
	}
	return s.views(ctx, predictions)
}

// openMatch возвращает матч, на который еще можно прогнозировать, и проверяет выбор.
func (s *predictionService) openMatch(ctx context.Context, matchID, pick string) (*models.Match, error) {
	match, err := s.store.Matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, ErrReferencedMatch)
	}
	if match.IsCompleted() {
		return nil, ErrMatchCompleted
	}
	if !match.HasTeam(pick) {
		return nil, fmt.Errorf("%w: must be either %s or %s", ErrInvalidPick, match.TeamA, match.TeamB)
	}
	return match, nil
}

func (s *predictionService) CreatePrediction(ctx context.Context, input CreatePredictionInput) (*models.Prediction, error) {
	matchID := strings.TrimSpace(input.MatchID)
	predictorID := strings.TrimSpace(input.PredictorID)
	pick := strings.TrimSpace(input.PredictedWinner)
	if matchID == "" || predictorID == "" || pick == "" {
		return nil, ErrPredictionFields
	}

	if _, err := s.store.Predictors.GetByID(ctx, predictorID); err != nil {
		return nil, handleRepositoryError(err, ErrReferencedPredictor)
	}
	if _, err := s.openMatch(ctx, matchID, pick); err != nil {
		return nil, err
	}

	existing, err := s.store.Predictions.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match predictions: %w", err)
	}
	now := s.opts.Now()
	for i := range existing {
		p := &existing[i]
		if p.PredictorID != predictorID {
			continue
		}
		if p.Picked() {
			return nil, ErrDuplicatePrediction
		}
		// Заготовка уже есть, заполняем ее
		p.PredictedWinner = pick
		p.PredictionTime = &now
		p.IsCorrect = models.OutcomeUnresolved
		p.ResultStatus = models.ResultPending
		if err := s.store.Predictions.Update(ctx, p); err != nil {
			return nil, handleRepositoryError(err, ErrPredictionNotFound)
		}
		log.Info().Str("prediction_id", p.ID).Str("match_id", matchID).Str("predictor_id", predictorID).Msg("placeholder prediction filled")
		return p, nil
	}

	prediction := &models.Prediction{
		MatchID:         matchID,
		PredictorID:     predictorID,
		PredictedWinner: pick,
		PredictionTime:  &now,
		IsCorrect:       models.OutcomeUnresolved,
		ResultStatus:    models.ResultPending,
	}
	if err := s.store.Predictions.Create(ctx, prediction); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicatePrediction
		}
		return nil, fmt.Errorf("failed to create prediction: %w", err)
	}
	log.Info().Str("prediction_id", prediction.ID).Str("match_id", matchID).Str("predictor_id", predictorID).Msg("prediction created")
	return prediction, nil
}

func (s *predictionService) UpdatePrediction(ctx context.Context, id string, input UpdatePredictionInput) (*models.Prediction, error) {
	pick := strings.TrimSpace(input.PredictedWinner)
	if pick == "" {
		return nil, ErrPickRequired
	}

	prediction, err := s.store.Predictions.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, ErrPredictionNotFound)
	}
	if err := checkVersion(input.Version, prediction.Version); err != nil {
		return nil, err
	}
	if _, err := s.openMatch(ctx, prediction.MatchID, pick); err != nil {
		return nil, err
	}

	now := s.opts.Now()
	prediction.PredictedWinner = pick
	prediction.PredictionTime = &now
	prediction.IsCorrect = models.OutcomeUnresolved
	prediction.ResultStatus = models.ResultPending
	if err := s.store.Predictions.Update(ctx, prediction); err != nil {
		return nil, handleRepositoryError(err, ErrPredictionNotFound)
	}
	return prediction, nil
}

func (s *predictionService) DeletePrediction(ctx context.Context, id string) error {
	prediction, err := s.store.Predictions.GetByID(ctx, id)
	if err != nil {
		return handleRepositoryError(err, ErrPredictionNotFound)
	}
	match, err := s.store.Matches.GetByID(ctx, prediction.MatchID)
	switch {
	case err == nil && match.IsCompleted():
		return ErrMatchCompleted
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("failed to load prediction match: %w", err)
	}

	if err := s.store.Predictions.Delete(ctx, id); err != nil {
		return handleRepositoryError(err, ErrPredictionNotFound)
	}
	log.Info().Str("prediction_id", id).Msg("prediction deleted")
	return nil
}
