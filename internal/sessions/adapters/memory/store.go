// Package memory is an in-process session store for local runs and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"kpi-report-service/internal/sessions/core/domain"
	"kpi-report-service/internal/sessions/core/ports"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]domain.EnrichedSession
}

func NewStore() *Store {
	return &Store{sessions: map[string]domain.EnrichedSession{}}
}

var (
	_ ports.SessionStorePort   = (*Store)(nil)
	_ ports.SessionScannerPort = (*Store)(nil)
)

func (s *Store) PutSession(ctx context.Context, id string, e domain.EnrichedSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = e
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ScanSessions yields the sessions matching f ordered by date, then id.
func (s *Store) ScanSessions(ctx context.Context, f domain.ScanFilter, fn func(domain.EnrichedSession) error) error {
	s.mu.RLock()
	matched := make([]domain.EnrichedSession, 0, len(s.sessions))
	for _, e := range s.sessions {
		if f.Matches(e) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b domain.EnrichedSession) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	for _, e := range matched {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}
