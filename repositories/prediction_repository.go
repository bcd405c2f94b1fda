package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-predictor/models"
)

// PredictionRepository допускает не более одной живой записи на пару (матч, участник),
// попытка создать вторую возвращает ErrDuplicate.
type PredictionRepository interface {
	List(ctx context.Context) ([]models.Prediction, error)
	ListByMatch(ctx context.Context, matchID string) ([]models.Prediction, error)
	ListByPredictor(ctx context.Context, predictorID string) ([]models.Prediction, error)
	GetByID(ctx context.Context, id string) (*models.Prediction, error)
	Create(ctx context.Context, prediction *models.Prediction) error
	Update(ctx context.Context, prediction *models.Prediction) error
	Delete(ctx context.Context, id string) error
}

type postgresPredictionRepository struct {
	db SQLExecutor
}

func NewPostgresPredictionRepository(db *sql.DB) PredictionRepository {
	return &postgresPredictionRepository{db: db}
}

const predictionColumns = `id, match_id, predictor_id, predicted_winner, prediction_time, is_correct, result_status, created_date, version`

func scanPrediction(row interface{ Scan(...interface{}) error }, p *models.Prediction) error {
	return row.Scan(
		&p.ID, &p.MatchID, &p.PredictorID, &p.PredictedWinner, &p.PredictionTime,
		&p.IsCorrect, &p.ResultStatus, &p.CreatedDate, &p.Version,
	)
}

func (r *postgresPredictionRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Prediction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]models.Prediction, 0)
	for rows.Next() {
		var p models.Prediction
		if scanErr := scanPrediction(rows, &p); scanErr != nil {
			return nil, scanErr
		}
		predictions = append(predictions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return predictions, nil
}

func (r *postgresPredictionRepository) List(ctx context.Context) ([]models.Prediction, error) {
	return r.query(ctx, `SELECT `+predictionColumns+` FROM predictions WHERE deleted_at IS NULL ORDER BY created_date, id`)
}

func (r *postgresPredictionRepository) ListByMatch(ctx context.Context, matchID string) ([]models.Prediction, error) {
	return r.query(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE match_id = $1 AND deleted_at IS NULL ORDER BY created_date, id`,
		matchID)
}

func (r *postgresPredictionRepository) ListByPredictor(ctx context.Context, predictorID string) ([]models.Prediction, error) {
	return r.query(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE predictor_id = $1 AND deleted_at IS NULL ORDER BY created_date, id`,
		predictorID)
}

func (r *postgresPredictionRepository) GetByID(ctx context.Context, id string) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1 AND deleted_at IS NULL`
	p := &models.Prediction{}
	if err := scanPrediction(r.db.QueryRowContext(ctx, query, id), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	query := `
		INSERT INTO predictions (id, match_id, predictor_id, predicted_winner, prediction_time, is_correct, result_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_date, version`

	id := newID()
	err := r.db.QueryRowContext(ctx, query,
		id, p.MatchID, p.PredictorID, p.PredictedWinner, p.PredictionTime, p.IsCorrect, p.ResultStatus,
	).Scan(&p.CreatedDate, &p.Version)
	if err != nil {
		return handleWriteError(err)
	}
	p.ID = id
	return nil
}

func (r *postgresPredictionRepository) Update(ctx context.Context, p *models.Prediction) error {
	query := `
		UPDATE predictions SET
			match_id = $1,
			predictor_id = $2,
			predicted_winner = $3,
			prediction_time = $4,
			is_correct = $5,
			result_status = $6,
			version = version + 1
		WHERE id = $7 AND version = $8 AND deleted_at IS NULL
		RETURNING version`

	err := r.db.QueryRowContext(ctx, query,
		p.MatchID, p.PredictorID, p.PredictedWinner, p.PredictionTime, p.IsCorrect, p.ResultStatus,
		p.ID, p.Version,
	).Scan(&p.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return resolveUpdateMiss(ctx, r.db, "predictions", p.ID)
	}
	return handleWriteError(err)
}

func (r *postgresPredictionRepository) Delete(ctx context.Context, id string) error {
	return softDelete(ctx, r.db, "predictions", id)
}

type memoryPredictionRepository struct {
	table *memoryTable[models.Prediction]
}

func NewMemoryPredictionRepository() PredictionRepository {
	return &memoryPredictionRepository{
		table: newMemoryTable(
			func(p *models.Prediction) rowMeta {
				return rowMeta{id: &p.ID, version: &p.Version, created: &p.CreatedDate, deleted: &p.DeletedAt}
			},
			func(p *models.Prediction) string {
				return p.MatchID + "/" + p.PredictorID
			},
		),
	}
}

func (r *memoryPredictionRepository) List(ctx context.Context) ([]models.Prediction, error) {
	return r.table.list(ctx, nil)
}

func (r *memoryPredictionRepository) ListByMatch(ctx context.Context, matchID string) ([]models.Prediction, error) {
	return r.table.list(ctx, func(p *models.Prediction) bool {
		return p.MatchID == matchID
	})
}

func (r *memoryPredictionRepository) ListByPredictor(ctx context.Context, predictorID string) ([]models.Prediction, error) {
	return r.table.list(ctx, func(p *models.Prediction) bool {
		return p.PredictorID == predictorID
	})
}

func (r *memoryPredictionRepository) GetByID(ctx context.Context, id string) (*models.Prediction, error) {
	return r.table.get(ctx, id)
}

func (r *memoryPredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	return r.table.create(ctx, p)
}

func (r *memoryPredictionRepository) Update(ctx context.Context, p *models.Prediction) error {
	return r.table.update(ctx, p)
}

func (r *memoryPredictionRepository) Delete(ctx context.Context, id string) error {
	return r.table.delete(ctx, id)
}
