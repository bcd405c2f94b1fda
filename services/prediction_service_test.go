package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-predictor/models"
)

func TestCreatePrediction_Validation(t *testing.T) {
	env := newTestEnv(t)
	tr := env.wideTournament(t)
	open := env.match(t, tr.ID, "Red", "Blue", testNow.Add(time.Hour))
	done := env.match(t, tr.ID, "Green", "Gold", testNow.Add(-time.Hour))
	done.Status = models.MatchStatusCompleted
	require.NoError(t, env.store.Matches.Update(env.ctx, done))
	alice := env.predictor(t, "Alice", "")
	svc := NewPredictionService(env.store, env.opts)

	tests := []struct {
		name    string
		input   CreatePredictionInput
		wantErr error
	}{
		{"нет выбора", CreatePredictionInput{MatchID: open.ID, PredictorID: alice.ID}, ErrPredictionFields},
		{"нет матча", CreatePredictionInput{MatchID: "missing", PredictorID: alice.ID, PredictedWinner: "Red"}, ErrReferencedMatch},
		{"нет участника", CreatePredictionInput{MatchID: open.ID, PredictorID: "missing", PredictedWinner: "Red"}, ErrReferencedPredictor},
		{"матч завершен", CreatePredictionInput{MatchID: done.ID, PredictorID: alice.ID, PredictedWinner: "Green"}, ErrMatchCompleted},
		{"чужая команда", CreatePredictionInput{MatchID: open.ID, PredictorID: alice.ID, PredictedWinner: "Green"}, ErrInvalidPick},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePrediction(env.ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestCreatePrediction_FillsPlaceholderAndRejectsDuplicate(t *testing.T) {
	env := newTestEnv(t)
	tr := env.wideTournament(t)
	m := env.match(t, tr.ID, "Red", "Blue", testNow.Add(30*time.Minute))
	alice := env.predictor(t, "Alice", "")
	bob := env.predictor(t, "Bob", "")
	placeholder := env.prediction(t, m.ID, alice.ID, "", ptr(testNow.Add(-time.Minute)))
	svc := NewPredictionService(env.store, env.opts)

	filled, err := svc.CreatePrediction(env.ctx, CreatePredictionInput{MatchID: m.ID, PredictorID: alice.ID, PredictedWinner: "Blue"})
	require.NoError(t, err)
	assert.Equal(t, placeholder.ID, filled.ID)
	assert.Equal(t, "Blue", filled.PredictedWinner)
	assert.Equal(t, models.ResultPending, filled.ResultStatus)
	assert.Equal(t, models.OutcomeUnresolved, filled.IsCorrect)
	require.NotNil(t, filled.PredictionTime)
	assert.True(t, filled.PredictionTime.Equal(testNow))

	_, err = svc.CreatePrediction(env.ctx, CreatePredictionInput{MatchID: m.ID, PredictorID: alice.ID, PredictedWinner: "Red"})
	assert.ErrorIs(t, err, ErrDuplicatePrediction)

	created, err := svc.CreatePrediction(env.ctx, CreatePredictionInput{MatchID: m.ID, PredictorID: bob.ID, PredictedWinner: "Red"})
	require.NoError(t, err)
	assert.NotEqual(t, placeholder.ID, created.ID)

	byMatch, err := svc.ListPredictionsByMatch(env.ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, byMatch, 2)
}

func TestUpdatePrediction_ResetsToPending(t *testing.T) {
	env := newTestEnv(t)
	tr := env.wideTournament(t)
	m := env.match(t, tr.ID, "Red", "Blue", testNow.Add(time.Hour))
	alice := env.predictor(t, "Alice", "")
	p := env.prediction(t, m.ID, alice.ID, "Red", ptr(testNow.Add(-time.Hour)))
	p.IsCorrect = models.OutcomeIncorrect
	p.ResultStatus = models.ResultWrong
	require.NoError(t, env.store.Predictions.Update(env.ctx, p))
	svc := NewPredictionService(env.store, env.opts)

	_, err := svc.UpdatePrediction(env.ctx, p.ID, UpdatePredictionInput{})
	assert.ErrorIs(t, err, ErrPickRequired)

	_, err = svc.UpdatePrediction(env.ctx, p.ID, UpdatePredictionInput{PredictedWinner: "Gold"})
	assert.ErrorIs(t, err, ErrInvalidPick)

	_, err = svc.UpdatePrediction(env.ctx, "missing", UpdatePredictionInput{PredictedWinner: "Red"})
	assert.ErrorIs(t, err, ErrPredictionNotFound)

	updated, err := svc.UpdatePrediction(env.ctx, p.ID, UpdatePredictionInput{PredictedWinner: "Blue"})
	require.NoError(t, err)
	assert.Equal(t, "Blue", updated.PredictedWinner)
	assert.Equal(t, models.OutcomeUnresolved, updated.IsCorrect)
	assert.Equal(t, models.ResultPending, updated.ResultStatus)
	assert.True(t, updated.PredictionTime.Equal(testNow))

	_, err = NewMatchService(env.store, env.opts).SetMatchWinner(env.ctx, m.ID, "Blue")
	require.NoError(t, err)
	_, err = svc.UpdatePrediction(env.ctx, p.ID, UpdatePredictionInput{PredictedWinner: "Red"})
	assert.ErrorIs(t, err, ErrMatchCompleted)
}

func TestDeletePrediction(t *testing.T) {
	env := newTestEnv(t)
	tr := env.wideTournament(t)
	m := env.match(t, tr.ID, "Red", "Blue", testNow.Add(time.Hour))
	alice := env.predictor(t, "Alice", "")
	bob := env.predictor(t, "Bob", "")
	pa := env.prediction(t, m.ID, alice.ID, "Red", ptr(testNow))
	pb := env.prediction(t, m.ID, bob.ID, "Blue", ptr(testNow))
	svc := NewPredictionService(env.store, env.opts)

	require.NoError(t, svc.DeletePrediction(env.ctx, pa.ID))
	assert.ErrorIs(t, svc.DeletePrediction(env.ctx, pa.ID), ErrPredictionNotFound)

	_, err := NewMatchService(env.store, env.opts).SetMatchWinner(env.ctx, m.ID, "Blue")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeletePrediction(env.ctx, pb.ID), ErrMatchCompleted)
}

func TestPredictionViews(t *testing.T) {
	env := newTestEnv(t)
	tr := env.wideTournament(t)
	m := env.match(t, tr.ID, "Red", "Blue", testNow.Add(time.Hour))
	alice := env.predictor(t, "Alice", "")
	p := env.prediction(t, m.ID, alice.ID, "Red", ptr(testNow))
	orphan := env.prediction(t, "gone", alice.ID, "X", ptr(testNow))
	svc := NewPredictionService(env.store, env.opts)

	all, err := svc.ListPredictions(env.ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].Match)
	assert.Equal(t, "Red", all[0].Match.TeamA)
	assert.Equal(t, "Alice", all[0].PredictorName)
	assert.Nil(t, all[1].Match)

	byPredictor, err := svc.ListPredictionsByPredictor(env.ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, byPredictor, 2)

	_, err = svc.ListPredictionsByPredictor(env.ctx, "missing")
	assert.ErrorIs(t, err, ErrPredictorNotFound)
	_, err = svc.ListPredictionsByMatch(env.ctx, "missing")
	assert.ErrorIs(t, err, ErrMatchNotFound)

	details, err := svc.GetPrediction(env.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, details.Match.ID)
	assert.Equal(t, alice.ID, details.Predictor.ID)

	details, err = svc.GetPrediction(env.ctx, orphan.ID)
	require.NoError(t, err)
	assert.Nil(t, details.Match)
}
