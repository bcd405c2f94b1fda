package stats

import (
	"sort"

	"github.com/Dosada05/tournament-predictor/models"
)

// Leaderboard строит рейтинг участников по точности.
//
// Если matchIDs != nil, учитываются только прогнозы на эти матчи, а участники
// без прогнозов в выборке исключаются. Без ограничения в рейтинг попадают все.
// Сортировка устойчивая, равные по точности сохраняют порядок predictors.
// limit <= 0 - без усечения.
func Leaderboard(predictors []models.Predictor, predictions []models.Prediction, matchIDs map[string]struct{}, limit int) []models.LeaderboardEntry {
	scoped := matchIDs != nil

	byPredictor := make(map[string]*tally, len(predictors))
	for i := range predictions {
		p := &predictions[i]
		if scoped {
			if _, ok := matchIDs[p.MatchID]; !ok {
				continue
			}
		}
		t, ok := byPredictor[p.PredictorID]
		if !ok {
			t = &tally{}
			byPredictor[p.PredictorID] = t
		}
		t.add(p)
	}

	entries := make([]models.LeaderboardEntry, 0, len(predictors))
	for _, predictor := range predictors {
		t := byPredictor[predictor.ID]
		if t == nil {
			t = &tally{}
		}
		if scoped && t.total == 0 {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			Predictor:    predictor,
			Total:        t.total,
			Correct:      t.correct,
			Wrong:        t.wrong,
			NotPredicted: t.notPredicted,
			Accuracy:     t.accuracy(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Accuracy > entries[j].Accuracy
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
