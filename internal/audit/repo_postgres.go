package audit

import (
	"context"
	"database/sql"
)

// Schema creates the audit table. Grant the application role INSERT and
// SELECT only.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
  id text PRIMARY KEY,
  type text NOT NULL,
  actor_username text NOT NULL DEFAULT '',
  actor_role text NOT NULL DEFAULT '',
  ip_address text NOT NULL DEFAULT '',
  declaration_id text NOT NULL DEFAULT '',
  message text NOT NULL,
  created_at timestamptz NOT NULL
)`

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, type, actor_username, actor_role, ip_address, declaration_id, message, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.Type,
		e.ActorUsername,
		e.ActorRole,
		e.IPAddress,
		e.DeclarationID,
		e.Message,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Event, error) {
	const q = `
SELECT id, type, actor_username, actor_role, ip_address, declaration_id, message, created_at
FROM audit_events
ORDER BY created_at DESC, id DESC
LIMIT $1
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID,
			&e.Type,
			&e.ActorUsername,
			&e.ActorRole,
			&e.IPAddress,
			&e.DeclarationID,
			&e.Message,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
