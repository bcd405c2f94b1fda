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

type PredictorService interface {
	ListPredictors(ctx context.Context) ([]models.Predictor, error)
	GetPredictor(ctx context.Context, id string) (*models.Predictor, error)
	CreatePredictor(ctx context.Context, input CreatePredictorInput) (*models.Predictor, error)
	UpdatePredictor(ctx context.Context, id string, input UpdatePredictorInput) (*models.Predictor, error)
	DeletePredictor(ctx context.Context, id string) error
}

type CreatePredictorInput struct {
	Name              string `json:"name"`
	ParentPredictorID string `json:"parentPredictorId"`
}

type UpdatePredictorInput struct {
	Name              string `json:"name"`
	ParentPredictorID string `json:"parentPredictorId"`
	Version           *int   `json:"version,omitempty"`
}

type predictorService struct {
	store *repositories.Store
}

func NewPredictorService(store *repositories.Store) PredictorService {
	return &predictorService{store: store}
}

func (s *predictorService) ListPredictors(ctx context.Context) ([]models.Predictor, error) {
	predictors, err := s.store.Predictors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictors: %w", err)
	}
	return predictors, nil
}

func (s *predictorService) GetPredictor(ctx context.Context, id string) (*models.Predictor, error) {
	predictor, err := s.store.Predictors.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, ErrPredictorNotFound)
	}
	return predictor, nil
}

func (s *predictorService) CreatePredictor(ctx context.Context, input CreatePredictorInput) (*models.Predictor, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	parentID := strings.TrimSpace(input.ParentPredictorID)
	if parentID != "" {
		if _, err := s.store.Predictors.GetByID(ctx, parentID); err != nil {
			return nil, handleRepositoryError(err, ErrParentNotFound)
		}
	}

	predictor := &models.Predictor{Name: name, ParentPredictorID: parentID}
	if err := s.store.Predictors.Create(ctx, predictor); err != nil {
		return nil, fmt.Errorf("failed to create predictor: %w", err)
	}
	log.Info().Str("predictor_id", predictor.ID).Str("name", predictor.Name).Msg("predictor created")
	return predictor, nil
}

func (s *predictorService) UpdatePredictor(ctx context.Context, id string, input UpdatePredictorInput) (*models.Predictor, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	predictor, err := s.store.Predictors.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, ErrPredictorNotFound)
	}
	if err := checkVersion(input.Version, predictor.Version); err != nil {
		return nil, err
	}

	parentID := strings.TrimSpace(input.ParentPredictorID)
	if parentID != "" {
		if err := s.validateParent(ctx, id, parentID); err != nil {
			return nil, err
		}
	}

	predictor.Name = name
	predictor.ParentPredictorID = parentID
	if err := s.store.Predictors.Update(ctx, predictor); err != nil {
		return nil, handleRepositoryError(err, ErrPredictorNotFound)
	}
	return predictor, nil
}

// validateParent проверяет, что родитель существует и не является потомком id.
func (s *predictorService) validateParent(ctx context.Context, id, parentID string) error {
	if parentID == id {
		return ErrSelfParent
	}

	seen := map[string]bool{id: true}
	current := parentID
	for current != "" {
		if seen[current] {
			return ErrParentCycle
		}
		seen[current] = true

		ancestor, err := s.store.Predictors.GetByID(ctx, current)
		if err != nil {
			if current == parentID {
				return handleRepositoryError(err, ErrParentNotFound)
			}
			// Оборванная цепочка выше родителя циклом не является
			if errors.Is(err, repositories.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to walk predictor ancestors: %w", err)
		}
		current = ancestor.ParentPredictorID
	}
	return nil
}

func (s *predictorService) DeletePredictor(ctx context.Context, id string) error {
	if _, err := s.store.Predictors.GetByID(ctx, id); err != nil {
		return handleRepositoryError(err, ErrPredictorNotFound)
	}

	children, err := s.store.Predictors.ListChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check child predictors: %w", err)
	}
	if len(children) > 0 {
		return ErrPredictorHasChildren
	}

	predictions, err := s.store.Predictions.ListByPredictor(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check predictor predictions: %w", err)
	}
	if len(predictions) > 0 {
		return ErrPredictorHasPredictions
	}

	if err := s.store.Predictors.Delete(ctx, id); err != nil {
		return handleRepositoryError(err, ErrPredictorNotFound)
	}
	log.Info().Str("predictor_id", id).Msg("predictor deleted")
	return nil
}
