package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/lib/pq"

	"kpi-report-service/internal/sessions/core/domain"
)

// fakeResult implements sql.Result for tests.
type fakeResult struct {
	rowsAffected int64
}

func (f *fakeResult) LastInsertId() (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeResult) RowsAffected() (int64, error) {
	return f.rowsAffected, nil
}

// fakeDB implements DB interface for tests.
type fakeDB struct {
	ExecFn     func(ctx context.Context, query string, args ...any) (sql.Result, error)
	PingErr    error
	queries    []string
	lastArgs   []any
	execCalled bool
}

func (f *fakeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.execCalled = true
	f.queries = append(f.queries, query)
	f.lastArgs = args
	if f.ExecFn != nil {
		return f.ExecFn(ctx, query, args...)
	}
	return &fakeResult{rowsAffected: 1}, nil
}

func (f *fakeDB) PingContext(ctx context.Context) error {
	return f.PingErr
}

func enriched() domain.EnrichedSession {
	return domain.EnrichedSession{
		ID:   "sess-1",
		Date: "2012-06-01",
		Steps: map[string][]string{
			domain.FlowNewUser:       {"1 - Password set"},
			domain.FlowPasswordReset: {},
		},
		Segments:      map[string]string{"Browser": "Firefox"},
		SitesLoggedIn: 2,
	}
}

// ------------------------------------------------------------
// SUCCESS
// ------------------------------------------------------------

func TestSessionRepository_PutSession_Upserts(t *testing.T) {
	db := &fakeDB{
		ExecFn: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO enriched_sessions") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "ON CONFLICT (id) DO UPDATE") {
				t.Fatalf("expected upsert by id, got: %s", query)
			}
			return &fakeResult{rowsAffected: 1}, nil
		},
	}

	repo := NewSessionRepository(db)

	if err := repo.PutSession(context.Background(), "sess-1", enriched()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !db.execCalled {
		t.Fatalf("expected ExecContext to be called")
	}
	if len(db.lastArgs) != 4 {
		t.Fatalf("expected 4 args, got %d", len(db.lastArgs))
	}
	if db.lastArgs[0] != "sess-1" || db.lastArgs[1] != "2012-06-01" {
		t.Fatalf("unexpected key args: %v %v", db.lastArgs[0], db.lastArgs[1])
	}

	flows, ok := db.lastArgs[2].(*pq.StringArray)
	if !ok {
		t.Fatalf("expected flows as pq array, got %T", db.lastArgs[2])
	}
	if len(*flows) != 1 || (*flows)[0] != domain.FlowNewUser {
		t.Fatalf("expected only flows with completed steps, got %v", *flows)
	}

	var doc domain.EnrichedSession
	if err := json.Unmarshal(db.lastArgs[3].([]byte), &doc); err != nil {
		t.Fatalf("document is not valid json: %v", err)
	}
	if doc.Segments["Browser"] != "Firefox" || doc.SitesLoggedIn != 2 {
		t.Fatalf("unexpected stored document: %+v", doc)
	}
}

// ------------------------------------------------------------
// DB ERROR
// ------------------------------------------------------------

func TestSessionRepository_PutSession_Error(t *testing.T) {
	dbErr := errors.New("db error")
	db := &fakeDB{
		ExecFn: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			return nil, dbErr
		},
	}

	repo := NewSessionRepository(db)

	err := repo.PutSession(context.Background(), "sess-1", enriched())
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if !strings.Contains(err.Error(), "sess-1") {
		t.Fatalf("expected session id in error, got %v", err)
	}
}

// ------------------------------------------------------------
// MIGRATE
// ------------------------------------------------------------

func TestSessionRepository_Migrate(t *testing.T) {
	db := &fakeDB{}
	repo := NewSessionRepository(db)

	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(db.queries) != 1 || !strings.Contains(db.queries[0], "CREATE TABLE IF NOT EXISTS enriched_sessions") {
		t.Fatalf("unexpected migration queries: %v", db.queries)
	}
}

func TestSessionRepository_Migrate_PingError(t *testing.T) {
	db := &fakeDB{PingErr: errors.New("refused")}
	repo := NewSessionRepository(db)

	if err := repo.Migrate(context.Background()); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if db.execCalled {
		t.Fatalf("expected no statements after failed ping")
	}
}
