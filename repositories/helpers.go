package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified concurrently")
	ErrDuplicate       = errors.New("record already exists")
)

// SQLExecutor - общий интерфейс *sql.DB и *sql.Tx
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func newID() string {
	return uuid.NewString()
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// resolveUpdateMiss вызывается, когда условный UPDATE не затронул строк:
// либо записи нет, либо версия уже сдвинулась.
func resolveUpdateMiss(ctx context.Context, exec SQLExecutor, table, id string) error {
	var version int
	query := fmt.Sprintf(`SELECT version FROM %s WHERE id = $1 AND deleted_at IS NULL`, table)
	err := exec.QueryRowContext(ctx, query, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

func softDelete(ctx context.Context, exec SQLExecutor, table, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = NOW(), version = version + 1 WHERE id = $1 AND deleted_at IS NULL`, table)
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNotFound)
}

func handleWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
