package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-predictor/models"
)

type MatchRepository interface {
	List(ctx context.Context) ([]models.Match, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Match, error)
	GetByID(ctx context.Context, id string) (*models.Match, error)
	Create(ctx context.Context, match *models.Match) error
	Update(ctx context.Context, match *models.Match) error
	Delete(ctx context.Context, id string) error
}

type postgresMatchRepository struct {
	db SQLExecutor
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, team_a, team_b, match_time, status, winner, created_date, version`

func scanMatch(row interface{ Scan(...interface{}) error }, m *models.Match) error {
	return row.Scan(&m.ID, &m.TournamentID, &m.TeamA, &m.TeamB, &m.MatchTime, &m.Status, &m.Winner, &m.CreatedDate, &m.Version)
}

func (r *postgresMatchRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := scanMatch(rows, &m); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) List(ctx context.Context) ([]models.Match, error) {
	return r.query(ctx, `SELECT `+matchColumns+` FROM matches WHERE deleted_at IS NULL ORDER BY created_date, id`)
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Match, error) {
	return r.query(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE tournament_id = $1 AND deleted_at IS NULL ORDER BY created_date, id`,
		tournamentID)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 AND deleted_at IS NULL`
	m := &models.Match{}
	if err := scanMatch(r.db.QueryRowContext(ctx, query, id), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (id, tournament_id, team_a, team_b, match_time, status, winner)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_date, version`

	id := newID()
	err := r.db.QueryRowContext(ctx, query,
		id, m.TournamentID, m.TeamA, m.TeamB, m.MatchTime, m.Status, m.Winner,
	).Scan(&m.CreatedDate, &m.Version)
	if err != nil {
		return handleWriteError(err)
	}
	m.ID = id
	return nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches SET
			tournament_id = $1,
			team_a = $2,
			team_b = $3,
			match_time = $4,
			status = $5,
			winner = $6,
			version = version + 1
		WHERE id = $7 AND version = $8 AND deleted_at IS NULL
		RETURNING version`

	err := r.db.QueryRowContext(ctx, query,
		m.TournamentID, m.TeamA, m.TeamB, m.MatchTime, m.Status, m.Winner,
		m.ID, m.Version,
	).Scan(&m.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return resolveUpdateMiss(ctx, r.db, "matches", m.ID)
	}
	return handleWriteError(err)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id string) error {
	return softDelete(ctx, r.db, "matches", id)
}

type memoryMatchRepository struct {
	table *memoryTable[models.Match]
}

func NewMemoryMatchRepository() MatchRepository {
	return &memoryMatchRepository{
		table: newMemoryTable(func(m *models.Match) rowMeta {
			return rowMeta{id: &m.ID, version: &m.Version, created: &m.CreatedDate, deleted: &m.DeletedAt}
		}, nil),
	}
}

func (r *memoryMatchRepository) List(ctx context.Context) ([]models.Match, error) {
	return r.table.list(ctx, nil)
}

func (r *memoryMatchRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Match, error) {
	return r.table.list(ctx, func(m *models.Match) bool {
		return m.TournamentID == tournamentID
	})
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	return r.table.get(ctx, id)
}

func (r *memoryMatchRepository) Create(ctx context.Context, m *models.Match) error {
	return r.table.create(ctx, m)
}

func (r *memoryMatchRepository) Update(ctx context.Context, m *models.Match) error {
	return r.table.update(ctx, m)
}

func (r *memoryMatchRepository) Delete(ctx context.Context, id string) error {
	return r.table.delete(ctx, id)
}
