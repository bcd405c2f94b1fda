package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-predictor/models"
)

var base = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func at(offset time.Duration) *time.Time {
	t := base.Add(offset)
	return &t
}

func pred(predictor, match, pick string, outcome models.Outcome, when *time.Time) models.Prediction {
	return models.Prediction{
		ID:              predictor + "-" + match,
		PredictorID:     predictor,
		MatchID:         match,
		PredictedWinner: pick,
		IsCorrect:       outcome,
		PredictionTime:  when,
	}
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name           string
		correct, wrong int
		expected       float64
	}{
		{name: "no resolved predictions", correct: 0, wrong: 0, expected: 0},
		{name: "all correct", correct: 4, wrong: 0, expected: 100},
		{name: "all wrong", correct: 0, wrong: 3, expected: 0},
		{name: "two thirds", correct: 2, wrong: 1, expected: 66.67},
		{name: "one third", correct: 1, wrong: 2, expected: 33.33},
		{name: "one seventh", correct: 1, wrong: 6, expected: 14.29},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Accuracy(tt.correct, tt.wrong))
		})
	}
}

func TestForPredictor_CountsAndAccuracy(t *testing.T) {
	predictions := []models.Prediction{
		pred("p", "m1", "Red", models.OutcomeCorrect, at(0)),
		pred("p", "m2", "Red", models.OutcomeIncorrect, at(time.Hour)),
		pred("p", "m3", "Blue", models.OutcomeUnresolved, at(2*time.Hour)),
		pred("p", "m4", "", models.OutcomeNotPredicted, at(3*time.Hour)),
		pred("p", "m5", "", models.OutcomeUnresolved, nil),
	}

	s := ForPredictor(predictions)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 1, s.Correct)
	assert.Equal(t, 1, s.Wrong)
	assert.Equal(t, 2, s.NotPredicted)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 50.0, s.Accuracy)
}

func TestForPredictor_OnlyUnresolvedGivesZeroAccuracy(t *testing.T) {
	s := ForPredictor([]models.Prediction{
		pred("p", "m1", "Red", models.OutcomeUnresolved, at(0)),
		pred("p", "m2", "", models.OutcomeNotPredicted, at(time.Hour)),
	})
	assert.Equal(t, 0.0, s.Accuracy)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Equal(t, 0, s.MaxStreak)
}

func TestStreaks(t *testing.T) {
	c, w, np := models.OutcomeCorrect, models.OutcomeIncorrect, models.OutcomeNotPredicted

	tests := []struct {
		name                string
		outcomes            []models.Outcome
		current, longestRun int
	}{
		{name: "C C W C", outcomes: []models.Outcome{c, c, w, c}, current: 1, longestRun: 2},
		{name: "all correct", outcomes: []models.Outcome{c, c, c}, current: 3, longestRun: 3},
		{name: "ends wrong", outcomes: []models.Outcome{c, c, c, w}, current: 0, longestRun: 3},
		{name: "not predicted breaks run", outcomes: []models.Outcome{c, np, c, c}, current: 2, longestRun: 2},
		{name: "none correct", outcomes: []models.Outcome{w, np, w}, current: 0, longestRun: 0},
		{name: "empty", outcomes: nil, current: 0, longestRun: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var predictions []models.Prediction
			for i, o := range tt.outcomes {
				predictions = append(predictions, pred("p", string(rune('a'+i)), "X", o, at(time.Duration(i)*time.Hour)))
			}
			current, longest := Streaks(predictions)
			assert.Equal(t, tt.current, current)
			assert.Equal(t, tt.longestRun, longest)
			assert.LessOrEqual(t, current, longest)
		})
	}
}

func TestStreaks_OrderedByPredictionTimeAndSkipsUndated(t *testing.T) {
	// в хранилище порядок другой: W, C(undated), C, C
	predictions := []models.Prediction{
		pred("p", "m4", "X", models.OutcomeIncorrect, at(3*time.Hour)),
		pred("p", "m0", "X", models.OutcomeCorrect, nil),
		pred("p", "m2", "X", models.OutcomeCorrect, at(time.Hour)),
		pred("p", "m1", "X", models.OutcomeCorrect, at(0)),
	}
	current, longest := Streaks(predictions)
	assert.Equal(t, 0, current)
	assert.Equal(t, 2, longest)
}

func TestLeaderboard_ScopedExcludesInactiveGlobalKeepsThem(t *testing.T) {
	predictors := []models.Predictor{{ID: "alice", Name: "Alice"}, {ID: "bob", Name: "Bob"}, {ID: "carol", Name: "Carol"}}
	predictions := []models.Prediction{
		pred("alice", "t1m1", "Red", models.OutcomeCorrect, at(0)),
		pred("alice", "t1m2", "Red", models.OutcomeIncorrect, at(time.Hour)),
		pred("bob", "t1m1", "Red", models.OutcomeCorrect, at(0)),
		pred("carol", "t2m1", "Blue", models.OutcomeCorrect, at(0)),
	}
	t1 := map[string]struct{}{"t1m1": {}, "t1m2": {}}

	scoped := Leaderboard(predictors, predictions, t1, 20)
	require.Len(t, scoped, 2)
	assert.Equal(t, "bob", scoped[0].ID)
	assert.Equal(t, 100.0, scoped[0].Accuracy)
	assert.Equal(t, "alice", scoped[1].ID)
	assert.Equal(t, 50.0, scoped[1].Accuracy)

	global := Leaderboard(append(predictors, models.Predictor{ID: "dave", Name: "Dave"}), predictions, nil, 20)
	require.Len(t, global, 4)
	last := global[3]
	assert.Equal(t, "dave", last.ID)
	assert.Equal(t, 0, last.Total)
	assert.Equal(t, 0.0, last.Accuracy)
}

func TestLeaderboard_SortedTruncatedAndRanked(t *testing.T) {
	var predictors []models.Predictor
	var predictions []models.Prediction
	// i верных из 4
	for i, id := range []string{"p0", "p1", "p2", "p3", "p4"} {
		predictors = append(predictors, models.Predictor{ID: id})
		for j := 0; j < 4; j++ {
			outcome := models.OutcomeIncorrect
			if j < i {
				outcome = models.OutcomeCorrect
			}
			predictions = append(predictions, pred(id, string(rune('a'+j)), "X", outcome, at(time.Duration(j)*time.Hour)))
		}
	}

	board := Leaderboard(predictors, predictions, nil, 3)

	require.Len(t, board, 3)
	for i, entry := range board {
		assert.Equal(t, i+1, entry.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, board[i-1].Accuracy, entry.Accuracy)
		}
	}
	assert.Equal(t, "p4", board[0].ID)
	assert.Equal(t, 100.0, board[0].Accuracy)
}

func TestLeaderboard_TiesKeepInputOrder(t *testing.T) {
	predictors := []models.Predictor{{ID: "first"}, {ID: "second"}, {ID: "third"}}
	board := Leaderboard(predictors, nil, nil, 0)

	require.Len(t, board, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{board[0].ID, board[1].ID, board[2].ID})
}

func TestForTournament_NoCompletedMatches(t *testing.T) {
	matches := []models.Match{
		{ID: "m1", Status: models.MatchStatusScheduled},
		{ID: "m2", Status: models.MatchStatusInProgress},
		{ID: "m3", Status: models.MatchStatusScheduled},
	}
	predictions := []models.Prediction{
		pred("p", "m1", "Red", models.OutcomeUnresolved, at(0)),
		pred("p", "other", "Red", models.OutcomeCorrect, at(0)),
	}

	s := ForTournament(matches, predictions)

	assert.Equal(t, 3, s.TotalMatches)
	assert.Equal(t, 0, s.CompletedMatches)
	assert.Equal(t, 3, s.UpcomingMatches)
	assert.Equal(t, 1, s.TotalPredictions)
	assert.Equal(t, 0.0, s.AverageAccuracy)
}

func TestTournamentComparison(t *testing.T) {
	tournaments := []models.Tournament{{ID: "t1", Name: "Spring"}, {ID: "t2", Name: "Autumn"}}
	matches := []models.Match{
		{ID: "m1", TournamentID: "t1", Status: models.MatchStatusCompleted},
		{ID: "m2", TournamentID: "t2", Status: models.MatchStatusScheduled},
	}
	predictions := []models.Prediction{
		pred("p", "m1", "Red", models.OutcomeCorrect, at(0)),
		pred("q", "m1", "Blue", models.OutcomeIncorrect, at(0)),
	}

	out := TournamentComparison(tournaments, matches, predictions)

	require.Len(t, out, 2)
	assert.Equal(t, "Spring", out[0].Name)
	assert.Equal(t, 50.0, out[0].Stats.AverageAccuracy)
	assert.Equal(t, 1, out[0].Stats.CompletedMatches)
	assert.Equal(t, 0, out[1].Stats.TotalPredictions)
}

func TestDashboard(t *testing.T) {
	now := base
	predictors := []models.Predictor{{ID: "alice", Name: "Alice"}}
	tournaments := []models.Tournament{{ID: "t1"}}

	var matches []models.Match
	for i := 0; i < 7; i++ {
		matches = append(matches, models.Match{
			ID: string(rune('a' + i)), TeamA: "Red", TeamB: "Blue",
			MatchTime: now.Add(time.Duration(i-3) * 24 * time.Hour),
			Status:    models.MatchStatusScheduled,
		})
	}
	matches[4].Status = models.MatchStatusCompleted
	// за горизонтом 7 дней
	matches = append(matches, models.Match{ID: "far", MatchTime: now.Add(8 * 24 * time.Hour)})

	var predictions []models.Prediction
	for i := 0; i < 12; i++ {
		predictions = append(predictions, pred("alice", "a", "Red", models.OutcomeCorrect, at(time.Duration(-i)*time.Minute)))
	}
	predictions = append(predictions,
		pred("ghost", "missing", "Red", models.OutcomeIncorrect, at(time.Minute)),
		pred("alice", "b", "", models.OutcomeUnresolved, nil),
	)

	d := Dashboard(now, predictors, tournaments, matches, predictions)

	assert.Equal(t, 1, d.Stats.TotalPredictors)
	assert.Equal(t, 8, d.Stats.TotalMatches)
	assert.Equal(t, 1, d.Stats.CompletedMatches)
	assert.Equal(t, 14, d.Stats.TotalPredictions)
	assert.Equal(t, 12, d.Stats.CorrectPredictions)
	assert.Equal(t, 1, d.Stats.WrongPredictions)
	assert.Equal(t, 1, d.Stats.NotPredicted)
	assert.Equal(t, 92.31, d.Stats.OverallAccuracy)

	require.Len(t, d.RecentMatches, 5)
	assert.Equal(t, "far", d.RecentMatches[0].ID)

	require.Len(t, d.RecentPredictions, 10)
	assert.Equal(t, "Unknown Predictor", d.RecentPredictions[0].PredictorName)
	assert.Equal(t, "Unknown Match", d.RecentPredictions[0].MatchDetails)
	assert.Equal(t, "Alice", d.RecentPredictions[1].PredictorName)
	assert.Equal(t, "Red vs Blue", d.RecentPredictions[1].MatchDetails)

	// d (now) не входит, e завершен, f и g в окне, far за горизонтом
	require.Len(t, d.UpcomingMatches, 2)
	assert.Equal(t, "f", d.UpcomingMatches[0].ID)
	assert.Equal(t, "g", d.UpcomingMatches[1].ID)
}

func TestTrends(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	day := func(d, h int) *time.Time {
		ts := time.Date(2025, 3, d, h, 0, 0, 0, time.UTC)
		return &ts
	}
	predictions := []models.Prediction{
		pred("p", "m1", "X", models.OutcomeCorrect, day(8, 10)),
		pred("p", "m2", "X", models.OutcomeIncorrect, day(8, 23)),
		pred("p", "m3", "X", models.OutcomeCorrect, day(10, 1)),
		pred("p", "m4", "", models.OutcomeNotPredicted, day(10, 2)),
		pred("p", "m5", "X", models.OutcomeCorrect, day(1, 0)),  // вне окна
		pred("p", "m6", "X", models.OutcomeCorrect, day(11, 0)), // в будущем
		pred("p", "m7", "X", models.OutcomeCorrect, nil),
	}

	points := Trends(now, 3, time.UTC, predictions)

	require.Len(t, points, 2)
	assert.Equal(t, models.TrendPoint{Date: "2025-03-08", Total: 2, Correct: 1, Wrong: 1, Accuracy: 50}, points[0])
	assert.Equal(t, models.TrendPoint{Date: "2025-03-10", Total: 2, Correct: 1, Wrong: 0, Accuracy: 100}, points[1])

	assert.Equal(t, points, Trends(now, 3, time.UTC, predictions))
}

func TestTrends_BucketsByLocation(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	late := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)
	predictions := []models.Prediction{pred("p", "m1", "X", models.OutcomeCorrect, &late)}

	plusTwo := time.FixedZone("UTC+2", 2*60*60)

	assert.Equal(t, "2025-03-09", Trends(now, 30, time.UTC, predictions)[0].Date)
	assert.Equal(t, "2025-03-10", Trends(now, 30, plusTwo, predictions)[0].Date)
}

func TestPredictionSummary(t *testing.T) {
	var predictions []models.Prediction
	for i := 0; i < 11; i++ {
		predictions = append(predictions, pred("p", string(rune('a'+i)), "X", models.OutcomeCorrect, at(time.Duration(i)*time.Minute)))
	}
	predictions = append(predictions, pred("p", "z", "X", models.OutcomeUnresolved, nil))

	s := PredictionSummary(predictions)

	assert.Equal(t, 12, s.Total)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 100.0, s.Accuracy)
	require.Len(t, s.RecentPredictions, 10)
	assert.Equal(t, "k", s.RecentPredictions[0].MatchID)
}
