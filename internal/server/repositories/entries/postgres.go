// Package entries provides the PostgreSQL-backed repository for server-side
// journal entries.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gokigennote/gokigen/internal/common"
	"github.com/gokigennote/gokigen/internal/dbx"
	"github.com/gokigennote/gokigen/internal/server/models"
)

const columns = `id, date, updated_at, mood, original_text, reformulated_text, empathy_text, next_step`

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts or replaces an entry by ID for a specific user. A write
// older than the stored row is ignored. If a conflicting row exists for
// another user, no row is updated and ErrVersionConflict is returned.
func (r *PostgresRepository) Upsert(ctx context.Context, e *models.Entry) error {
	query := `
		INSERT INTO entries (id, user_id, date, updated_at, mood, original_text, reformulated_text, empathy_text, next_step)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			date = EXCLUDED.date,
			updated_at = EXCLUDED.updated_at,
			mood = EXCLUDED.mood,
			original_text = EXCLUDED.original_text,
			reformulated_text = EXCLUDED.reformulated_text,
			empathy_text = EXCLUDED.empathy_text,
			next_step = EXCLUDED.next_step
			WHERE entries.user_id = EXCLUDED.user_id AND entries.updated_at <= EXCLUDED.updated_at;
	`
	res, err := r.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.Date, e.UpdatedAt, e.Mood, e.OriginalText, e.ReformulatedText, e.EmpathyText, e.NextStep)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return r.checkOwner(ctx, e)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// checkOwner tells a stale write of the user's own entry, which is not an
// error, from an id held by someone else.
func (r *PostgresRepository) checkOwner(ctx context.Context, e *models.Entry) error {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM entries WHERE id = $1`, e.ID).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrVersionConflict
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case owner == e.UserID:
		return nil
	default:
		return common.ErrVersionConflict
	}
}

func (r *PostgresRepository) LoadPage(ctx context.Context, userID string, limit int, cursor *models.PageCursor) ([]*models.Entry, error) {
	if cursor == nil {
		query := `SELECT ` + columns + ` FROM entries
			WHERE user_id = $1
			ORDER BY date DESC, id DESC
			LIMIT $2`
		return r.query(ctx, userID, query, userID, limit)
	}
	query := `SELECT ` + columns + ` FROM entries
		WHERE user_id = $1 AND (date, id) < ($2, $3)
		ORDER BY date DESC, id DESC
		LIMIT $4`
	return r.query(ctx, userID, query, userID, cursor.Date, cursor.ID, limit)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM entries WHERE user_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// SelectAll returns every entry of userID, newest first.
func (r *PostgresRepository) SelectAll(ctx context.Context, userID string) ([]*models.Entry, error) {
	query := `SELECT ` + columns + ` FROM entries
		WHERE user_id = $1
		ORDER BY date DESC, id DESC`
	return r.query(ctx, userID, query, userID)
}

func (r *PostgresRepository) query(ctx context.Context, userID, query string, args ...any) ([]*models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		item := models.Entry{UserID: userID}
		if err := rows.Scan(
			&item.ID, &item.Date, &item.UpdatedAt, &item.Mood,
			&item.OriginalText, &item.ReformulatedText, &item.EmpathyText, &item.NextStep,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
