package stats

import (
	"sort"
	"time"

	"github.com/Dosada05/tournament-predictor/models"
)

const (
	recentMatchesLimit     = 5
	recentPredictionsLimit = 10
	upcomingHorizon        = 7 * 24 * time.Hour

	unknownPredictor = "Unknown Predictor"
	unknownMatch     = "Unknown Match"
)

// Counts считает глобальные счетчики.
func Counts(predictors []models.Predictor, tournaments []models.Tournament, matches []models.Match, predictions []models.Prediction) models.DashboardCounts {
	t := tallyOf(predictions)
	counts := models.DashboardCounts{
		TotalPredictors:    len(predictors),
		TotalTournaments:   len(tournaments),
		TotalMatches:       len(matches),
		TotalPredictions:   t.total,
		CorrectPredictions: t.correct,
		WrongPredictions:   t.wrong,
		PendingPredictions: t.pending,
		NotPredicted:       t.notPredicted,
		OverallAccuracy:    t.accuracy(),
	}
	for _, m := range matches {
		if m.IsCompleted() {
			counts.CompletedMatches++
		} else {
			counts.UpcomingMatches++
		}
	}
	return counts
}

// Dashboard собирает данные главной панели на момент now.
func Dashboard(now time.Time, predictors []models.Predictor, tournaments []models.Tournament, matches []models.Match, predictions []models.Prediction) models.DashboardStats {
	return models.DashboardStats{
		Stats:             Counts(predictors, tournaments, matches, predictions),
		RecentMatches:     RecentMatches(matches, recentMatchesLimit),
		RecentPredictions: RecentPredictions(predictors, matches, predictions, recentPredictionsLimit),
		UpcomingMatches:   UpcomingMatches(now, upcomingHorizon, matches),
	}
}

// RecentMatches - до limit матчей по убыванию времени начала.
func RecentMatches(matches []models.Match, limit int) []models.Match {
	sorted := make([]models.Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MatchTime.After(sorted[j].MatchTime)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// RecentPredictions - до limit датированных прогнозов с именем участника и названием матча.
func RecentPredictions(predictors []models.Predictor, matches []models.Match, predictions []models.Prediction, limit int) []models.RecentPrediction {
	names := make(map[string]string, len(predictors))
	for _, p := range predictors {
		names[p.ID] = p.Name
	}
	byID := matchIndex(matches)

	recent := recentDated(predictions, limit)
	out := make([]models.RecentPrediction, 0, len(recent))
	for _, p := range recent {
		item := models.RecentPrediction{
			Prediction:    p,
			PredictorName: unknownPredictor,
			MatchDetails:  unknownMatch,
		}
		if name, ok := names[p.PredictorID]; ok {
			item.PredictorName = name
		}
		if m, ok := byID[p.MatchID]; ok {
			item.MatchDetails = m.Title()
		}
		out = append(out, item)
	}
	return out
}

// UpcomingMatches - незавершенные матчи с временем начала в (now, now+horizon], по возрастанию времени.
func UpcomingMatches(now time.Time, horizon time.Duration, matches []models.Match) []models.Match {
	until := now.Add(horizon)
	out := make([]models.Match, 0)
	for _, m := range matches {
		if m.IsCompleted() {
			continue
		}
		if m.MatchTime.After(now) && !m.MatchTime.After(until) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchTime.Before(out[j].MatchTime)
	})
	return out
}

// PredictionSummary - глобальная статистика прогнозов и 10 последних.
func PredictionSummary(predictions []models.Prediction) models.PredictionStats {
	t := tallyOf(predictions)
	return models.PredictionStats{
		Total:             t.total,
		Correct:           t.correct,
		Wrong:             t.wrong,
		NotPredicted:      t.notPredicted,
		Pending:           t.pending,
		Accuracy:          t.accuracy(),
		RecentPredictions: recentDated(predictions, recentPredictionsLimit),
	}
}

// RecentForPredictor - последние limit прогнозов участника.
func RecentForPredictor(predictions []models.Prediction, limit int) []models.Prediction {
	return recentDated(predictions, limit)
}

// Report - снимок счетчиков для ежедневного отчета, дата в часовом поясе loc.
func Report(now time.Time, loc *time.Location, predictors []models.Predictor, tournaments []models.Tournament, matches []models.Match, predictions []models.Prediction) models.DailyReport {
	return models.DailyReport{
		Date:        now.In(loc).Format(dateLayout),
		GeneratedAt: now,
		Counts:      Counts(predictors, tournaments, matches, predictions),
	}
}
