package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"kpi-report-service/internal/sessions/core/domain"
	"kpi-report-service/internal/sessions/core/ports"
)

type RowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (RowScanner, error)
}

// SessionReader streams enriched sessions back out of the enriched_sessions
// table for the view engine.
type SessionReader struct {
	db DB
}

func NewSessionReader(db DB) *SessionReader {
	return &SessionReader{db: db}
}

var _ ports.SessionScannerPort = (*SessionReader)(nil)

func (r *SessionReader) ScanSessions(ctx context.Context, f domain.ScanFilter, fn func(domain.EnrichedSession) error) error {
	var (
		where []string
		args  []any
	)
	arg := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.From != "" {
		arg("session_date >= $%d", f.From)
	}
	if f.To != "" {
		arg("session_date <= $%d", f.To)
	}
	if f.Flow != "" {
		arg("$%d = ANY(flows)", f.Flow)
	}

	query := `
SELECT
    id,
    doc
FROM enriched_sessions`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY session_date, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: scan sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return fmt.Errorf("postgres: scan sessions: %w", err)
		}

		var s domain.EnrichedSession
		if err := json.Unmarshal(doc, &s); err != nil {
			return fmt.Errorf("postgres: decode session %s: %w", id, err)
		}
		if err := fn(s); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: scan sessions: %w", err)
	}
	return nil
}
