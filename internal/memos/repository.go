package memos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// Repository is the durable memo table. Every method is a single statement,
// so each call is atomic with respect to every other call on the table.
// Placeholders are numbered in order of appearance, which both pgx and
// go-sqlite3 bind positionally.
type Repository struct {
	stmtInsert      *sql.Stmt
	stmtGet         *sql.Stmt
	stmtList        *sql.Stmt
	stmtUpdate      *sql.Stmt
	stmtDelete      *sql.Stmt
	stmtPurge       *sql.Stmt
	stmtPurgeExcept *sql.Stmt
	stmtCount       *sql.Stmt
	stmtTop         *sql.Stmt

	changes *broker
	logger  *slog.Logger
}

const memoColumns = `id, text, created_at, delete_at`

func NewRepository(ctx context.Context, db *sql.DB) (*Repository, error) {
	r := &Repository{changes: newBroker(), logger: slog.Default()}

	prepared := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&r.stmtInsert, `
			INSERT INTO memos (text, created_at, delete_at) VALUES ($1, $2, $3)
			RETURNING id
		`},
		{&r.stmtGet, `SELECT ` + memoColumns + ` FROM memos WHERE id = $1`},
		{&r.stmtList, `
			SELECT ` + memoColumns + `
			FROM memos
			ORDER BY delete_at ASC, id ASC
		`},
		{&r.stmtUpdate, `UPDATE memos SET text = $1, delete_at = $2 WHERE id = $3`},
		{&r.stmtDelete, `DELETE FROM memos WHERE id = $1`},
		{&r.stmtPurge, `DELETE FROM memos WHERE delete_at <= $1`},
		{&r.stmtPurgeExcept, `DELETE FROM memos WHERE delete_at <= $1 AND id <> $2`},
		{&r.stmtCount, `SELECT count(*) FROM memos WHERE delete_at > $1`},
		{&r.stmtTop, `
			SELECT ` + memoColumns + `
			FROM memos
			WHERE delete_at > $1
			ORDER BY delete_at ASC, id ASC
			LIMIT $2
		`},
	}
	for _, p := range prepared {
		s, err := db.PrepareContext(ctx, p.query)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("prepare memo statements: %w", err)
		}
		*p.dst = s
	}

	return r, nil
}

// Close ends all live subscriptions and releases the prepared statements.
func (r *Repository) Close() error {
	r.changes.close()
	for _, s := range []*sql.Stmt{
		r.stmtInsert, r.stmtGet, r.stmtList, r.stmtUpdate, r.stmtDelete,
		r.stmtPurge, r.stmtPurgeExcept, r.stmtCount, r.stmtTop,
	} {
		if s != nil {
			_ = s.Close()
		}
	}
	return nil
}

// Insert appends a memo and returns the id the engine assigned to it.
func (r *Repository) Insert(ctx context.Context, text string, createdAt, deleteAt int64) (int64, error) {
	var id int64
	if err := r.stmtInsert.QueryRowContext(ctx, text, createdAt, deleteAt).Scan(&id); err != nil {
		return 0, storageErr("insert", err)
	}
	r.changes.publish()
	return id, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Memo, bool, error) {
	var m Memo
	err := r.stmtGet.QueryRowContext(ctx, id).Scan(&m.ID, &m.Text, &m.CreatedAt, &m.DeleteAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Memo{}, false, nil
	}
	if err != nil {
		return Memo{}, false, storageErr("get", err)
	}
	return m, true, nil
}

// ListByExpiry returns every memo, nearest expiry first.
func (r *Repository) ListByExpiry(ctx context.Context) ([]Memo, error) {
	rows, err := r.stmtList.QueryContext(ctx)
	if err != nil {
		return nil, storageErr("list", err)
	}
	defer rows.Close()
	return scanMemos(rows, "list")
}

// UpdateGuarded rewrites text and deleteAt of one memo and reports how many rows
// changed. Zero means the memo was deleted first; callers decide what to tell the user.
func (r *Repository) UpdateGuarded(ctx context.Context, id int64, text string, deleteAt int64) (int64, error) {
	return r.exec(ctx, "update", r.stmtUpdate, text, deleteAt, id)
}

// Delete removes one memo. Deleting an absent id is not an error.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	_, err := r.exec(ctx, "delete", r.stmtDelete, id)
	return err
}

func (r *Repository) DeleteExpiredBefore(ctx context.Context, now int64) (int64, error) {
	return r.exec(ctx, "purge", r.stmtPurge, now)
}

// DeleteExpiredBeforeExcept purges like DeleteExpiredBefore but never touches protectedID.
func (r *Repository) DeleteExpiredBeforeExcept(ctx context.Context, now, protectedID int64) (int64, error) {
	return r.exec(ctx, "purge", r.stmtPurgeExcept, now, protectedID)
}

func (r *Repository) CountValidAsOf(ctx context.Context, now int64) (int64, error) {
	var n int64
	if err := r.stmtCount.QueryRowContext(ctx, now).Scan(&n); err != nil {
		return 0, storageErr("count", err)
	}
	return n, nil
}

// TopValidAsOf returns at most limit unexpired memos, nearest expiry first.
func (r *Repository) TopValidAsOf(ctx context.Context, now int64, limit int) ([]Memo, error) {
	if limit <= 0 {
		return []Memo{}, nil
	}
	rows, err := r.stmtTop.QueryContext(ctx, now, limit)
	if err != nil {
		return nil, storageErr("top", err)
	}
	defer rows.Close()
	return scanMemos(rows, "top")
}

func (r *Repository) exec(ctx context.Context, op string, stmt *sql.Stmt, args ...any) (int64, error) {
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, storageErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr(op, err)
	}
	if n > 0 {
		r.changes.publish()
	}
	return n, nil
}

func scanMemos(rows *sql.Rows, op string) ([]Memo, error) {
	out := make([]Memo, 0, 32)
	for rows.Next() {
		var m Memo
		if err := rows.Scan(&m.ID, &m.Text, &m.CreatedAt, &m.DeleteAt); err != nil {
			return nil, storageErr(op, err)
		}
		out = append(out, m)
	}
	return out, storageErr(op, rows.Err())
}
