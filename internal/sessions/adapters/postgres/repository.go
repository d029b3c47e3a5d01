package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"kpi-report-service/internal/sessions/core/domain"
	"kpi-report-service/internal/sessions/core/ports"
)

type SessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

var _ ports.SessionStorePort = (*SessionRepository)(nil)

const createSessionsSQL = `
CREATE TABLE IF NOT EXISTS enriched_sessions (
    id           TEXT PRIMARY KEY,
    session_date TEXT NOT NULL,
    flows        TEXT[] NOT NULL DEFAULT '{}',
    doc          JSONB NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS enriched_sessions_date_idx ON enriched_sessions (session_date);
`

// The whole document is replaced in one statement, so a session is either
// fully re-enriched or left as it was.
const upsertSessionSQL = `
INSERT INTO enriched_sessions (
    id,
    session_date,
    flows,
    doc
) VALUES (
    $1, $2, $3, $4
)
ON CONFLICT (id) DO UPDATE SET
    session_date = EXCLUDED.session_date,
    flows        = EXCLUDED.flows,
    doc          = EXCLUDED.doc,
    updated_at   = now();
`

// Migrate creates the sessions table if it does not exist.
func (r *SessionRepository) Migrate(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createSessionsSQL); err != nil {
		return fmt.Errorf("postgres: create enriched_sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) PutSession(ctx context.Context, id string, s domain.EnrichedSession) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("postgres: encode session %s: %w", id, err)
	}

	if _, err := r.db.ExecContext(ctx, upsertSessionSQL,
		id,
		s.Date,
		pq.Array(s.Flows()),
		doc,
	); err != nil {
		return fmt.Errorf("postgres: upsert session %s: %w", id, err)
	}
	return nil
}
