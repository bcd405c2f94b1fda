package stats

import (
	"sort"

	"github.com/Dosada05/tournament-predictor/models"
)

// ForPredictor считает статистику по прогнозам одного участника.
func ForPredictor(predictions []models.Prediction) models.PredictorStats {
	t := tallyOf(predictions)
	current, longest := Streaks(predictions)
	return models.PredictorStats{
		Total:         t.total,
		Correct:       t.correct,
		Wrong:         t.wrong,
		NotPredicted:  t.notPredicted,
		Pending:       t.pending,
		Accuracy:      t.accuracy(),
		CurrentStreak: current,
		MaxStreak:     longest,
	}
}

// Streaks возвращает текущую и максимальную серии верных прогнозов.
// Прогнозы без времени не участвуют, любой неверный или пропущенный прогноз прерывает серию.
func Streaks(predictions []models.Prediction) (current, longest int) {
	dated := make([]models.Prediction, 0, len(predictions))
	for _, p := range predictions {
		if p.PredictionTime != nil {
			dated = append(dated, p)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].PredictionTime.Before(*dated[j].PredictionTime)
	})

	run := 0
	for _, p := range dated {
		if p.IsCorrect == models.OutcomeCorrect {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	return run, longest
}
