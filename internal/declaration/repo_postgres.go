package declaration

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"declaration-platform/pkg/utils"
)

const Schema = `
CREATE TABLE IF NOT EXISTS declarations (
  id text PRIMARY KEY,
  text text NOT NULL,
  plan text NOT NULL,
  status text NOT NULL,
  submitted_by text NOT NULL,
  submitted_role text NOT NULL,
  created_at timestamptz NOT NULL,
  committed_by text NOT NULL DEFAULT '',
  committed_at timestamptz NULL
)`

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const declarationColumns = `id, text, plan, status, submitted_by, submitted_role, created_at, committed_by, committed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeclaration(row rowScanner) (Declaration, error) {
	var d Declaration
	var committedAt sql.NullTime
	if err := row.Scan(
		&d.ID,
		&d.Text,
		&d.Plan,
		&d.Status,
		&d.SubmittedBy,
		&d.SubmittedRole,
		&d.CreatedAt,
		&d.CommittedBy,
		&committedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Declaration{}, ErrNotFound
		}
		return Declaration{}, err
	}
	if committedAt.Valid {
		t := committedAt.Time
		d.CommittedAt = &t
	}
	return d, nil
}

func (r *PostgresRepo) Insert(ctx context.Context, d Declaration) error {
	const q = `
INSERT INTO declarations (
  id, text, plan, status, submitted_by, submitted_role, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7
)
`
	_, err := r.db.ExecContext(ctx, q,
		d.ID,
		d.Text,
		d.Plan,
		d.Status,
		d.SubmittedBy,
		d.SubmittedRole,
		d.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Declaration, error) {
	q := `SELECT ` + declarationColumns + ` FROM declarations WHERE id = $1`
	return scanDeclaration(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Declaration, error) {
	q := `SELECT ` + declarationColumns + ` FROM declarations ORDER BY created_at DESC, id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Declaration, 0)
	for rows.Next() {
		d, err := scanDeclaration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Commit locks the row for the duration of apply so concurrent commits of the
// same declaration serialize and only the first succeeds.
func (r *PostgresRepo) Commit(ctx context.Context, id, by string, at time.Time, apply func(Declaration) error) (Declaration, error) {
	var out Declaration
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		q := `SELECT ` + declarationColumns + ` FROM declarations WHERE id = $1 FOR UPDATE`
		d, err := scanDeclaration(tx.QueryRowContext(ctx, q, id))
		if err != nil {
			return err
		}
		if d.Status != StatusSubmitted {
			return ErrAlreadyCommitted
		}
		if err := apply(d); err != nil {
			return err
		}

		const upd = `UPDATE declarations SET status = $2, committed_by = $3, committed_at = $4 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, upd, id, StatusCommitted, by, at); err != nil {
			return err
		}
		d.Status = StatusCommitted
		d.CommittedBy = by
		d.CommittedAt = &at
		out = d
		return nil
	})
	if err != nil {
		return Declaration{}, err
	}
	return out, nil
}
