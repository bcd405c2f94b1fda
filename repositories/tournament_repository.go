package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-predictor/models"
)

type TournamentRepository interface {
	List(ctx context.Context) ([]models.Tournament, error)
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	Create(ctx context.Context, tournament *models.Tournament) error
	Update(ctx context.Context, tournament *models.Tournament) error
	Delete(ctx context.Context, id string) error
}

type postgresTournamentRepository struct {
	db SQLExecutor
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, start_date, end_date, created_date, version`

func scanTournament(row interface{ Scan(...interface{}) error }, t *models.Tournament) error {
	return row.Scan(&t.ID, &t.Name, &t.StartDate, &t.EndDate, &t.CreatedDate, &t.Version)
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE deleted_at IS NULL ORDER BY created_date, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 AND deleted_at IS NULL`
	t := &models.Tournament{}
	if err := scanTournament(r.db.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (id, name, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING created_date, version`

	id := newID()
	err := r.db.QueryRowContext(ctx, query, id, t.Name, t.StartDate, t.EndDate).Scan(&t.CreatedDate, &t.Version)
	if err != nil {
		return handleWriteError(err)
	}
	t.ID = id
	return nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			start_date = $2,
			end_date = $3,
			version = version + 1
		WHERE id = $4 AND version = $5 AND deleted_at IS NULL
		RETURNING version`

	err := r.db.QueryRowContext(ctx, query, t.Name, t.StartDate, t.EndDate, t.ID, t.Version).Scan(&t.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return resolveUpdateMiss(ctx, r.db, "tournaments", t.ID)
	}
	return handleWriteError(err)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id string) error {
	return softDelete(ctx, r.db, "tournaments", id)
}

type memoryTournamentRepository struct {
	table *memoryTable[models.Tournament]
}

func NewMemoryTournamentRepository() TournamentRepository {
	return &memoryTournamentRepository{
		table: newMemoryTable(func(t *models.Tournament) rowMeta {
			return rowMeta{id: &t.ID, version: &t.Version, created: &t.CreatedDate, deleted: &t.DeletedAt}
		}, nil),
	}
}

func (r *memoryTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	return r.table.list(ctx, nil)
}

func (r *memoryTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	return r.table.get(ctx, id)
}

func (r *memoryTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	return r.table.create(ctx, t)
}

func (r *memoryTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	return r.table.update(ctx, t)
}

func (r *memoryTournamentRepository) Delete(ctx context.Context, id string) error {
	return r.table.delete(ctx, id)
}
