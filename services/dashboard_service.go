package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-predictor/models"
	"github.com/Dosada05/tournament-predictor/repositories"
	"github.com/Dosada05/tournament-predictor/stats"
)

const (
	DefaultLeaderboardLimit = 20
	DefaultTrendDays        = 30

	recentPredictorPredictions = 10
)

// DashboardService отдает агрегаты, пересчитанные по текущему состоянию хранилища.
type DashboardService interface {
	GetDashboardStats(ctx context.Context) (models.DashboardStats, error)
	GetLeaderboard(ctx context.Context, tournamentID string, limit int) ([]models.LeaderboardEntry, error)
	GetTournamentComparison(ctx context.Context) ([]models.TournamentComparison, error)
	GetPredictionTrends(ctx context.Context, days int) ([]models.TrendPoint, error)
	GetPredictorPerformance(ctx context.Context, predictorID string, days int) (*models.PredictorPerformance, error)
	GetPredictorStats(ctx context.Context, predictorID string) (*models.PredictorStatsView, error)
	ListPredictorsWithStats(ctx context.Context) ([]models.PredictorWithStats, error)
	GetPredictionStats(ctx context.Context) (models.PredictionStats, error)
}

type dashboardService struct {
	store *repositories.Store
	opts  Options
}

func NewDashboardService(store *repositories.Store, opts Options) DashboardService {
	return &dashboardService{store: store, opts: opts.withDefaults()}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (models.DashboardStats, error) {
	snap, err := loadSnapshot(ctx, s.store)
	if err != nil {
		return models.DashboardStats{}, err
	}
	return stats.Dashboard(s.opts.Now(), snap.predictors, snap.tournaments, snap.matches, snap.predictions), nil
}

// GetLeaderboard строит рейтинг; пустой tournamentID - по всем матчам.
func (s *dashboardService) GetLeaderboard(ctx context.Context, tournamentID string, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	var matchIDs map[string]struct{}
	if tournamentID != "" {
		if _, err := s.store.Tournaments.GetByID(ctx, tournamentID); err != nil {
			return nil, handleRepositoryError(err, ErrTournamentNotFound)
		}
		matches, err := s.store.Matches.ListByTournament(ctx, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list tournament matches: %w", err)
		}
		matchIDs = stats.MatchIDs(matches)
	}

	predictors, err := s.store.Predictors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictors: %w", err)
	}
	predictions, err := s.store.Predictions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return stats.Leaderboard(predictors, predictions, matchIDs, limit), nil
}

func (s *dashboardService) GetTournamentComparison(ctx context.Context) ([]models.TournamentComparison, error) {
	snap, err := loadSnapshot(ctx, s.store)
	if err != nil {
		return nil, err
	}
	return stats.TournamentComparison(snap.tournaments, snap.matches, snap.predictions), nil
}

func (s *dashboardService) GetPredictionTrends(ctx context.Context, days int) ([]models.TrendPoint, error) {
	if days <= 0 {
		days = DefaultTrendDays
	}
	predictions, err := s.store.Predictions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return stats.Trends(s.opts.Now(), days, s.opts.Location, predictions), nil
}

func (s *dashboardService) GetPredictorPerformance(ctx context.Context, predictorID string, days int) (*models.PredictorPerformance, error) {
	if days <= 0 {
		days = DefaultTrendDays
	}
	predictor, err := s.store.Predictors.GetByID(ctx, predictorID)
	if err != nil {
		return nil, handleRepositoryError(err, ErrPredictorNotFound)
	}
	predictions, err := s.store.Predictions.ListByPredictor(ctx, predictorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictor predictions: %w", err)
	}

	performance := stats.Trends(s.opts.Now(), days, s.opts.Location, predictions)
	return &models.PredictorPerformance{
		Predictor:   predictor,
		Performance: performance,
		Count:       len(performance),
	}, nil
}

func (s *dashboardService) GetPredictorStats(ctx context.Context, predictorID string) (*models.PredictorStatsView, error) {
	predictor, err := s.store.Predictors.GetByID(ctx, predictorID)
	if err != nil {
		return nil, handleRepositoryError(err, ErrPredictorNotFound)
	}
	predictions, err := s.store.Predictions.ListByPredictor(ctx, predictorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictor predictions: %w", err)
	}

	return &models.PredictorStatsView{
		Predictor:         predictor,
		Stats:             stats.ForPredictor(predictions),
		RecentPredictions: stats.RecentForPredictor(predictions, recentPredictorPredictions),
		TotalPredictions:  len(predictions),
	}, nil
}

func (s *dashboardService) ListPredictorsWithStats(ctx context.Context) ([]models.PredictorWithStats, error) {
	predictors, err := s.store.Predictors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictors: %w", err)
	}
	predictions, err := s.store.Predictions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	byPredictor := make(map[string][]models.Prediction, len(predictors))
	for _, p := range predictions {
		byPredictor[p.PredictorID] = append(byPredictor[p.PredictorID], p)
	}
	out := make([]models.PredictorWithStats, 0, len(predictors))
	for _, predictor := range predictors {
		out = append(out, models.PredictorWithStats{
			Predictor:      predictor,
			PredictorStats: stats.ForPredictor(byPredictor[predictor.ID]),
		})
	}
	return out, nil
}

func (s *dashboardService) GetPredictionStats(ctx context.Context) (models.PredictionStats, error) {
	predictions, err := s.store.Predictions.List(ctx)
	if err != nil {
		return models.PredictionStats{}, fmt.Errorf("failed to list predictions: %w", err)
	}
	return stats.PredictionSummary(predictions), nil
}
