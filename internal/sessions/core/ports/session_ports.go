package ports

import (
	"context"

	"kpi-report-service/internal/sessions/core/domain"
)

// FetchOptions bounds a telemetry fetch. Times are milliseconds since epoch;
// nil means unbounded.
type FetchOptions struct {
	Start *int64
	End   *int64
}

type SessionFetcherPort interface {
	// FetchSessions streams raw sessions to fn in source order. An error from
	// fn stops the fetch and is returned as is.
	FetchSessions(ctx context.Context, opts FetchOptions, fn func(domain.RawSession) error) error
}

type SessionStorePort interface {
	// PutSession stores s under id, replacing any earlier enrichment of the
	// same session.
	PutSession(ctx context.Context, id string, s domain.EnrichedSession) error
}

// SessionScannerPort reads stored sessions back for aggregation.
type SessionScannerPort interface {
	ScanSessions(ctx context.Context, f domain.ScanFilter, fn func(domain.EnrichedSession) error) error
}
