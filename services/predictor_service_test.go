package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePredictor(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPredictorService(env.store)

	_, err := svc.CreatePredictor(env.ctx, CreatePredictorInput{Name: "   "})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.CreatePredictor(env.ctx, CreatePredictorInput{Name: "Alice", ParentPredictorID: "missing"})
	assert.ErrorIs(t, err, ErrParentNotFound)
	assert.ErrorIs(t, err, ErrValidationFailed)

	parent, err := svc.CreatePredictor(env.ctx, CreatePredictorInput{Name: " Family "})
	require.NoError(t, err)
	assert.Equal(t, "Family", parent.Name)
	assert.Equal(t, 1, parent.Version)

	child, err := svc.CreatePredictor(env.ctx, CreatePredictorInput{Name: "Alice", ParentPredictorID: parent.ID})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, child.ParentPredictorID)
}

func TestUpdatePredictor_ParentRules(t *testing.T) {
	env := newTestEnv(t)
	root := env.predictor(t, "Root", "")
	mid := env.predictor(t, "Mid", root.ID)
	leaf := env.predictor(t, "Leaf", mid.ID)
	svc := NewPredictorService(env.store)

	tests := []struct {
		name    string
		id      string
		input   UpdatePredictorInput
		wantErr error
	}{
		{"без имени", leaf.ID, UpdatePredictorInput{}, ErrNameRequired},
		{"сам себе родитель", leaf.ID, UpdatePredictorInput{Name: "Leaf", ParentPredictorID: leaf.ID}, ErrSelfParent},
		{"цикл через потомка", root.ID, UpdatePredictorInput{Name: "Root", ParentPredictorID: leaf.ID}, ErrParentCycle},
		{"нет родителя", leaf.ID, UpdatePredictorInput{Name: "Leaf", ParentPredictorID: "missing"}, ErrParentNotFound},
		{"нет участника", "missing", UpdatePredictorInput{Name: "X"}, ErrPredictorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdatePredictor(env.ctx, tt.id, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	moved, err := svc.UpdatePredictor(env.ctx, leaf.ID, UpdatePredictorInput{Name: "Leaf 2", ParentPredictorID: root.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, moved.ParentPredictorID)
	assert.Equal(t, "Leaf 2", moved.Name)
	assert.Equal(t, 2, moved.Version)

	detached, err := svc.UpdatePredictor(env.ctx, mid.ID, UpdatePredictorInput{Name: "Mid"})
	require.NoError(t, err)
	assert.Empty(t, detached.ParentPredictorID)
}

func TestDeletePredictor_Dependents(t *testing.T) {
	env := newTestEnv(t)
	parent := env.predictor(t, "Parent", "")
	child := env.predictor(t, "Child", parent.ID)
	tr := env.wideTournament(t)
	m := env.match(t, tr.ID, "Red", "Blue", testNow.Add(time.Hour))
	env.prediction(t, m.ID, child.ID, "Red", ptr(testNow))
	svc := NewPredictorService(env.store)

	err := svc.DeletePredictor(env.ctx, parent.ID)
	assert.ErrorIs(t, err, ErrPredictorHasChildren)
	assert.ErrorIs(t, err, ErrHasDependents)

	err = svc.DeletePredictor(env.ctx, child.ID)
	assert.ErrorIs(t, err, ErrPredictorHasPredictions)

	lonely := env.predictor(t, "Lonely", "")
	require.NoError(t, svc.DeletePredictor(env.ctx, lonely.ID))
	_, err = svc.GetPredictor(env.ctx, lonely.ID)
	assert.ErrorIs(t, err, ErrPredictorNotFound)

	list, err := svc.ListPredictors(env.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
