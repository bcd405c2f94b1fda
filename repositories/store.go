package repositories

import "database/sql"

// Store объединяет репозитории всех сущностей и передается в сервисы при создании.
type Store struct {
	Predictors  PredictorRepository
	Tournaments TournamentRepository
	Matches     MatchRepository
	Predictions PredictionRepository
}

func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Predictors:  NewPostgresPredictorRepository(db),
		Tournaments: NewPostgresTournamentRepository(db),
		Matches:     NewPostgresMatchRepository(db),
		Predictions: NewPostgresPredictionRepository(db),
	}
}

func NewMemoryStore() *Store {
	return &Store{
		Predictors:  NewMemoryPredictorRepository(),
		Tournaments: NewMemoryTournamentRepository(),
		Matches:     NewMemoryMatchRepository(),
		Predictions: NewMemoryPredictionRepository(),
	}
}
