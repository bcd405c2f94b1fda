package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Dosada05/tournament-predictor/live"
	"github.com/Dosada05/tournament-predictor/metrics"
	"github.com/Dosada05/tournament-predictor/models"
	"github.com/Dosada05/tournament-predictor/repositories"
	"github.com/Dosada05/tournament-predictor/stats"
)

const (
	SweepUpcoming       = "upcoming"
	SweepMissing        = "missing"
	SweepCleanup        = "cleanup"
	SweepCompletedCheck = "completed_check"
	SweepDailyReport    = "daily_report"
)

// LifecycleWindows - временные пороги фоновых задач.
type LifecycleWindows struct {
	// Заготовки создаются для матчей, начинающихся в пределах Upcoming
	Upcoming time.Duration
	// Через MissingGrace после начала пустые прогнозы помечаются как пропущенные
	MissingGrace time.Duration
	// Заготовки старше PlaceholderMaxAge удаляются
	PlaceholderMaxAge time.Duration
}

func (w LifecycleWindows) withDefaults() LifecycleWindows {
	if w.Upcoming <= 0 {
		w.Upcoming = time.Hour
	}
	if w.MissingGrace <= 0 {
		w.MissingGrace = 2 * time.Hour
	}
	if w.PlaceholderMaxAge <= 0 {
		w.PlaceholderMaxAge = 24 * time.Hour
	}
	return w
}

// SweepResult - итог одного прохода фоновой задачи.
type SweepResult struct {
	Sweep   string `json:"sweep"`
	Matches int    `json:"matches"`
	// Changed - созданные, обновленные или удаленные прогнозы
	Changed       int           `json:"changed"`
	Skipped       int           `json:"skipped"`
	Failed        int           `json:"failed"`
	MissingWinner []string      `json:"missingWinner,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// LifecycleService переводит прогнозы по жизненному циклу матча.
// Ошибки отдельных записей логируются и не прерывают проход.
type LifecycleService interface {
	SweepUpcoming(ctx context.Context) (*SweepResult, error)
	SweepMissing(ctx context.Context) (*SweepResult, error)
	CleanupPlaceholders(ctx context.Context) (*SweepResult, error)
	CheckCompletedMatches(ctx context.Context) (*SweepResult, error)
	DailyReport(ctx context.Context) (*models.DailyReport, error)
}

type lifecycleService struct {
	store   *repositories.Store
	opts    Options
	windows LifecycleWindows
}

func NewLifecycleService(store *repositories.Store, windows LifecycleWindows, opts Options) LifecycleService {
	return &lifecycleService{store: store, opts: opts.withDefaults(), windows: windows.withDefaults()}
}

// run замеряет проход, пишет метрики и лог, рассылает событие SWEEP.
func (s *lifecycleService) run(ctx context.Context, sweep string, fn func(ctx context.Context, result *SweepResult) error) (*SweepResult, error) {
	started := time.Now()
	result := &SweepResult{Sweep: sweep}
	err := fn(ctx, result)
	result.Duration = time.Since(started)

	metrics.SweepDuration.WithLabelValues(sweep).Observe(result.Duration.Seconds())
	metrics.SweepItemsTotal.WithLabelValues(sweep, "changed").Add(float64(result.Changed))
	metrics.SweepItemsTotal.WithLabelValues(sweep, "skipped").Add(float64(result.Skipped))
	metrics.SweepItemsTotal.WithLabelValues(sweep, "failed").Add(float64(result.Failed))

	if err != nil {
		metrics.SweepRunsTotal.WithLabelValues(sweep, "error").Inc()
		log.Error().Err(err).Str("sweep", sweep).Msg("lifecycle sweep failed")
		return result, err
	}
	metrics.SweepRunsTotal.WithLabelValues(sweep, "ok").Inc()

	event := log.Debug()
	if result.Changed > 0 || result.Failed > 0 {
		event = log.Info()
	}
	event.Str("sweep", sweep).
		Int("matches", result.Matches).
		Int("changed", result.Changed).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("lifecycle sweep finished")

	if result.Changed > 0 {
		s.opts.Events.BroadcastToRoom(live.DashboardRoom, live.Message{
			Type:    live.EventSweep,
			Payload: result,
			RoomID:  live.DashboardRoom,
		})
	}
	return result, nil
}

func (s *lifecycleService) SweepUpcoming(ctx context.Context) (*SweepResult, error) {
	return s.run(ctx, SweepUpcoming, func(ctx context.Context, result *SweepResult) error {
		now := s.opts.Now()
		until := now.Add(s.windows.Upcoming)

		matches, err := s.store.Matches.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list matches: %w", err)
		}
		predictors, err := s.store.Predictors.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list predictors: %w", err)
		}

		for _, m := range matches {
			if m.IsCompleted() || !m.MatchTime.After(now) || m.MatchTime.After(until) {
				continue
			}
			result.Matches++

			existing, err := s.store.Predictions.ListByMatch(ctx, m.ID)
			if err != nil {
				result.Failed++
				log.Error().Err(err).Str("match_id", m.ID).Msg("failed to list match predictions")
				continue
			}
			has := make(map[string]bool, len(existing))
			for _, p := range existing {
				has[p.PredictorID] = true
			}

			for _, predictor := range predictors {
				if has[predictor.ID] {
					continue
				}
				placeholder := &models.Prediction{
					MatchID:        m.ID,
					PredictorID:    predictor.ID,
					PredictionTime: &now,
					IsCorrect:      models.OutcomeUnresolved,
					ResultStatus:   models.ResultAwaitingPrediction,
				}
				err := s.store.Predictions.Create(ctx, placeholder)
				switch {
				case err == nil:
					result.Changed++
				case errors.Is(err, repositories.ErrDuplicate):
					// прогноз появился между чтением и записью
					result.Skipped++
				default:
					result.Failed++
					log.Error().Err(err).Str("match_id", m.ID).Str("predictor_id", predictor.ID).Msg("failed to create prediction placeholder")
				}
			}
		}
		return nil
	})
}

func (s *lifecycleService) SweepMissing(ctx context.Context) (*SweepResult, error) {
	return s.run(ctx, SweepMissing, func(ctx context.Context, result *SweepResult) error {
		now := s.opts.Now()

		matches, err := s.store.Matches.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list matches: %w", err)
		}

		for _, m := range matches {
			if m.IsCompleted() || now.Sub(m.MatchTime) < s.windows.MissingGrace {
				continue
			}
			result.Matches++

			predictions, err := s.store.Predictions.ListByMatch(ctx, m.ID)
			if err != nil {
				result.Failed++
				log.Error().Err(err).Str("match_id", m.ID).Msg("failed to list match predictions")
				continue
			}
			for i := range predictions {
				p := &predictions[i]
				if p.Picked() || (p.IsCorrect == models.OutcomeNotPredicted && p.ResultStatus == models.ResultMissedPrediction) {
					continue
				}
				p.IsCorrect = models.OutcomeNotPredicted
				p.ResultStatus = models.ResultMissedPrediction
				if p.PredictionTime == nil {
					ts := now
					p.PredictionTime = &ts
				}
				s.applyUpdate(ctx, result, p)
			}
		}
		return nil
	})
}

// applyUpdate сохраняет прогноз; конфликт версий означает, что запись уже изменили, и она пропускается.
func (s *lifecycleService) applyUpdate(ctx context.Context, result *SweepResult, p *models.Prediction) {
	err := s.store.Predictions.Update(ctx, p)
	switch {
	case err == nil:
		result.Changed++
	case errors.Is(err, repositories.ErrVersionConflict), errors.Is(err, repositories.ErrNotFound):
		result.Skipped++
		log.Warn().Err(err).Str("sweep", result.Sweep).Str("prediction_id", p.ID).Msg("prediction changed concurrently, skipped")
	default:
		result.Failed++
		log.Error().Err(err).Str("sweep", result.Sweep).Str("prediction_id", p.ID).Msg("failed to update prediction")
	}
}

func (s *lifecycleService) CleanupPlaceholders(ctx context.Context) (*SweepResult, error) {
	return s.run(ctx, SweepCleanup, func(ctx context.Context, result *SweepResult) error {
		cutoff := s.opts.Now().Add(-s.windows.PlaceholderMaxAge)

		matches, err := s.store.Matches.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list matches: %w", err)
		}
		completed := make(map[string]bool, len(matches))
		for _, m := range matches {
			completed[m.ID] = m.IsCompleted()
		}
		predictions, err := s.store.Predictions.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list predictions: %w", err)
		}

		for _, p := range predictions {
			if p.Picked() || p.PredictionTime == nil || !p.PredictionTime.Before(cutoff) {
				continue
			}
			// Пропущенные прогнозы и заготовки завершенных матчей входят в статистику
			if p.IsCorrect == models.OutcomeNotPredicted || completed[p.MatchID] {
				continue
			}
			err := s.store.Predictions.Delete(ctx, p.ID)
			switch {
			case err == nil:
				result.Changed++
			case errors.Is(err, repositories.ErrNotFound):
				result.Skipped++
			default:
				result.Failed++
				log.Error().Err(err).Str("prediction_id", p.ID).Msg("failed to delete prediction placeholder")
			}
		}
		return nil
	})
}

func (s *lifecycleService) CheckCompletedMatches(ctx context.Context) (*SweepResult, error) {
	return s.run(ctx, SweepCompletedCheck, func(ctx context.Context, result *SweepResult) error {
		matches, err := s.store.Matches.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list matches: %w", err)
		}
		for _, m := range matches {
			if !m.IsCompleted() {
				continue
			}
			result.Matches++
			if m.Winner == "" {
				result.MissingWinner = append(result.MissingWinner, m.ID)
				log.Warn().Str("match_id", m.ID).Str("match", m.Title()).Msg("match completed but no winner set")
			}
		}
		return nil
	})
}

func (s *lifecycleService) DailyReport(ctx context.Context) (*models.DailyReport, error) {
	var report models.DailyReport
	_, err := s.run(ctx, SweepDailyReport, func(ctx context.Context, result *SweepResult) error {
		snap, err := loadSnapshot(ctx, s.store)
		if err != nil {
			return err
		}
		result.Matches = len(snap.matches)
		report = stats.Report(s.opts.Now(), s.opts.Location, snap.predictors, snap.tournaments, snap.matches, snap.predictions)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("date", report.Date).
		Int("predictors", report.Counts.TotalPredictors).
		Int("tournaments", report.Counts.TotalTournaments).
		Int("matches", report.Counts.TotalMatches).
		Int("completed_matches", report.Counts.CompletedMatches).
		Int("upcoming_matches", report.Counts.UpcomingMatches).
		Int("predictions", report.Counts.TotalPredictions).
		Float64("accuracy", report.Counts.OverallAccuracy).
		Msg("daily report")
	return &report, nil
}
