package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tournament-predictor/models"
	"github.com/Dosada05/tournament-predictor/repositories"
)

// EventPublisher рассылает события подписчикам. Реализуется live.Hub.
type EventPublisher interface {
	BroadcastToRoom(roomID string, message interface{})
}

type noopPublisher struct{}

func (noopPublisher) BroadcastToRoom(string, interface{}) {}

// Options - общие зависимости сервисов. Пустые поля заменяются значениями по умолчанию.
type Options struct {
	Now      func() time.Time
	Location *time.Location
	Events   EventPublisher
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Events == nil {
		o.Events = noopPublisher{}
	}
	return o
}

// Форматы дат, которые присылает панель управления
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime разбирает дату; значения без зоны трактуются в часовом поясе loc.
func parseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, value, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// checkVersion сверяет версию, которую клиент видел при чтении, с текущей.
func checkVersion(expected *int, actual int) error {
	if expected != nil && *expected != actual {
		return ErrVersionConflict
	}
	return nil
}

// snapshot - все живые сущности, загруженные для агрегатов.
type snapshot struct {
	predictors  []models.Predictor
	tournaments []models.Tournament
	matches     []models.Match
	predictions []models.Prediction
}

// loadSnapshot читает все четыре набора параллельно.
func loadSnapshot(ctx context.Context, store *repositories.Store) (*snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		snap.predictors, err = store.Predictors.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to load predictors: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.tournaments, err = store.Tournaments.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to load tournaments: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.matches, err = store.Matches.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.predictions, err = store.Predictions.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to load predictions: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func predictorIndex(predictors []models.Predictor) map[string]*models.Predictor {
	byID := make(map[string]*models.Predictor, len(predictors))
	for i := range predictors {
		byID[predictors[i].ID] = &predictors[i]
	}
	return byID
}
