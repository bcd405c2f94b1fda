// Package stats считает агрегаты по загруженным наборам сущностей.
// Функции чистые: без хранилища, без текущего времени, кроме переданного явно.
package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dosada05/tournament-predictor/models"
)

var hundred = decimal.NewFromInt(100)

// Accuracy = correct / (correct + wrong) * 100, округление до 2 знаков.
// Ожидающие и непредсказанные прогнозы в знаменатель не входят.
func Accuracy(correct, wrong int) float64 {
	resolved := correct + wrong
	if resolved == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(correct)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(resolved))).
		Round(2).
		InexactFloat64()
}

type tally struct {
	total        int
	correct      int
	wrong        int
	notPredicted int
	pending      int
}

func (t *tally) add(p *models.Prediction) {
	t.total++
	switch p.IsCorrect {
	case models.OutcomeCorrect:
		t.correct++
	case models.OutcomeIncorrect:
		t.wrong++
	}
	if !p.Picked() {
		t.notPredicted++
	} else if p.IsCorrect == models.OutcomeUnresolved {
		t.pending++
	}
}

func (t *tally) accuracy() float64 {
	return Accuracy(t.correct, t.wrong)
}

func tallyOf(predictions []models.Prediction) tally {
	var t tally
	for i := range predictions {
		t.add(&predictions[i])
	}
	return t
}

// recentDated возвращает до limit прогнозов с заполненным временем, новые первыми.
func recentDated(predictions []models.Prediction, limit int) []models.Prediction {
	dated := make([]models.Prediction, 0, len(predictions))
	for _, p := range predictions {
		if p.PredictionTime != nil {
			dated = append(dated, p)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].PredictionTime.After(*dated[j].PredictionTime)
	})
	if limit >= 0 && len(dated) > limit {
		dated = dated[:limit]
	}
	return dated
}

func matchIndex(matches []models.Match) map[string]*models.Match {
	idx := make(map[string]*models.Match, len(matches))
	for i := range matches {
		idx[matches[i].ID] = &matches[i]
	}
	return idx
}

// MatchIDs - множество идентификаторов матчей, используется для ограничения выборки турниром.
func MatchIDs(matches []models.Match) map[string]struct{} {
	ids := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		ids[m.ID] = struct{}{}
	}
	return ids
}

// FilterByMatches оставляет прогнозы на матчи из ids.
func FilterByMatches(predictions []models.Prediction, ids map[string]struct{}) []models.Prediction {
	out := make([]models.Prediction, 0)
	for _, p := range predictions {
		if _, ok := ids[p.MatchID]; ok {
			out = append(out, p)
		}
	}
	return out
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
