package stats

import "github.com/Dosada05/tournament-predictor/models"

// ForTournament считает статистику турнира. matches - матчи турнира,
// predictions может содержать лишнее: учитываются только прогнозы на эти матчи.
func ForTournament(matches []models.Match, predictions []models.Prediction) models.TournamentStats {
	stats := models.TournamentStats{TotalMatches: len(matches)}
	for _, m := range matches {
		if m.IsCompleted() {
			stats.CompletedMatches++
		} else {
			stats.UpcomingMatches++
		}
	}

	t := tallyOf(FilterByMatches(predictions, MatchIDs(matches)))
	stats.TotalPredictions = t.total
	stats.Correct = t.correct
	stats.Wrong = t.wrong
	stats.NotPredicted = t.notPredicted
	stats.AverageAccuracy = t.accuracy()
	return stats
}

// TournamentComparison считает статистику для каждого турнира в порядке tournaments.
func TournamentComparison(tournaments []models.Tournament, matches []models.Match, predictions []models.Prediction) []models.TournamentComparison {
	byTournament := make(map[string][]models.Match)
	for _, m := range matches {
		byTournament[m.TournamentID] = append(byTournament[m.TournamentID], m)
	}

	out := make([]models.TournamentComparison, 0, len(tournaments))
	for _, t := range tournaments {
		out = append(out, models.TournamentComparison{
			Tournament: t,
			Stats:      ForTournament(byTournament[t.ID], predictions),
		})
	}
	return out
}
