package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-predictor/models"
)

type PredictorRepository interface {
	List(ctx context.Context) ([]models.Predictor, error)
	ListChildren(ctx context.Context, parentID string) ([]models.Predictor, error)
	GetByID(ctx context.Context, id string) (*models.Predictor, error)
	Create(ctx context.Context, predictor *models.Predictor) error
	Update(ctx context.Context, predictor *models.Predictor) error
	Delete(ctx context.Context, id string) error
}

type postgresPredictorRepository struct {
	db SQLExecutor
}

func NewPostgresPredictorRepository(db *sql.DB) PredictorRepository {
	return &postgresPredictorRepository{db: db}
}

const predictorColumns = `id, name, parent_predictor_id, created_date, version`

func scanPredictor(row interface{ Scan(...interface{}) error }, p *models.Predictor) error {
	return row.Scan(&p.ID, &p.Name, &p.ParentPredictorID, &p.CreatedDate, &p.Version)
}

func (r *postgresPredictorRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Predictor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictors := make([]models.Predictor, 0)
	for rows.Next() {
		var p models.Predictor
		if scanErr := scanPredictor(rows, &p); scanErr != nil {
			return nil, scanErr
		}
		predictors = append(predictors, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return predictors, nil
}

func (r *postgresPredictorRepository) List(ctx context.Context) ([]models.Predictor, error) {
	return r.query(ctx, `SELECT `+predictorColumns+` FROM predictors WHERE deleted_at IS NULL ORDER BY created_date, id`)
}

func (r *postgresPredictorRepository) ListChildren(ctx context.Context, parentID string) ([]models.Predictor, error) {
	return r.query(ctx,
		`SELECT `+predictorColumns+` FROM predictors WHERE parent_predictor_id = $1 AND deleted_at IS NULL ORDER BY created_date, id`,
		parentID)
}

func (r *postgresPredictorRepository) GetByID(ctx context.Context, id string) (*models.Predictor, error) {
	query := `SELECT ` + predictorColumns + ` FROM predictors WHERE id = $1 AND deleted_at IS NULL`
	p := &models.Predictor{}
	if err := scanPredictor(r.db.QueryRowContext(ctx, query, id), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPredictorRepository) Create(ctx context.Context, p *models.Predictor) error {
	query := `
		INSERT INTO predictors (id, name, parent_predictor_id)
		VALUES ($1, $2, $3)
		RETURNING created_date, version`

	id := newID()
	err := r.db.QueryRowContext(ctx, query, id, p.Name, p.ParentPredictorID).Scan(&p.CreatedDate, &p.Version)
	if err != nil {
		return handleWriteError(err)
	}
	p.ID = id
	return nil
}

func (r *postgresPredictorRepository) Update(ctx context.Context, p *models.Predictor) error {
	query := `
		UPDATE predictors SET
			name = $1,
			parent_predictor_id = $2,
			version = version + 1
		WHERE id = $3 AND version = $4 AND deleted_at IS NULL
		RETURNING version`

	err := r.db.QueryRowContext(ctx, query, p.Name, p.ParentPredictorID, p.ID, p.Version).Scan(&p.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return resolveUpdateMiss(ctx, r.db, "predictors", p.ID)
	}
	return handleWriteError(err)
}

func (r *postgresPredictorRepository) Delete(ctx context.Context, id string) error {
	return softDelete(ctx, r.db, "predictors", id)
}

type memoryPredictorRepository struct {
	table *memoryTable[models.Predictor]
}

func NewMemoryPredictorRepository() PredictorRepository {
	return &memoryPredictorRepository{
		table: newMemoryTable(func(p *models.Predictor) rowMeta {
			return rowMeta{id: &p.ID, version: &p.Version, created: &p.CreatedDate, deleted: &p.DeletedAt}
		}, nil),
	}
}

func (r *memoryPredictorRepository) List(ctx context.Context) ([]models.Predictor, error) {
	return r.table.list(ctx, nil)
}

func (r *memoryPredictorRepository) ListChildren(ctx context.Context, parentID string) ([]models.Predictor, error) {
	return r.table.list(ctx, func(p *models.Predictor) bool {
		return p.ParentPredictorID == parentID
	})
}

func (r *memoryPredictorRepository) GetByID(ctx context.Context, id string) (*models.Predictor, error) {
	return r.table.get(ctx, id)
}

func (r *memoryPredictorRepository) Create(ctx context.Context, p *models.Predictor) error {
	return r.table.create(ctx, p)
}

func (r *memoryPredictorRepository) Update(ctx context.Context, p *models.Predictor) error {
	return r.table.update(ctx, p)
}

func (r *memoryPredictorRepository) Delete(ctx context.Context, id string) error {
	return r.table.delete(ctx, id)
}
