package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"kpi-report-service/internal/observability"
	"kpi-report-service/internal/sessions/core/classify"
	"kpi-report-service/internal/sessions/core/domain"
	"kpi-report-service/internal/sessions/core/ports"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
)

type IngestSessionsUseCase struct {
	fetcher ports.SessionFetcherPort
	store   ports.SessionStorePort
	catalog *domain.Catalog
	logger  *slog.Logger
}

func NewIngestSessionsUseCase(
	fetcher ports.SessionFetcherPort,
	store ports.SessionStorePort,
	catalog *domain.Catalog,
	logger *slog.Logger,
) *IngestSessionsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestSessionsUseCase{fetcher: fetcher, store: store, catalog: catalog, logger: logger}
}

type IngestSessionsInput struct {
	Start *int64 // ms
	End   *int64 // ms
}

type IngestSessionsResult struct {
	RunID   string
	Fetched int
	Stored  int
	Skipped int
}

// Execute pulls every session in the window from the telemetry source,
// enriches it and stores it under its own id. Sessions that carry no events
// or no identity, or that the source served in the wrong shape, are upstream
// error artifacts and are skipped. Any fetch or store failure aborts the
// batch.
func (uc *IngestSessionsUseCase) Execute(ctx context.Context, in IngestSessionsInput) (res IngestSessionsResult, err error) {
	if in.Start != nil && in.End != nil && *in.Start > *in.End {
		return res, ErrInvalidTimeRange
	}

	res.RunID = uuid.NewString()
	log := uc.logger.With("run_id", res.RunID)
	started := time.Now()
	log.Info("ingestion started", "start", in.Start, "end", in.End)
	defer func() {
		observability.ObserveIngest(started, err)
		if err != nil {
			log.Error("ingestion failed", "error", err, "stored", res.Stored, "skipped", res.Skipped)
			return
		}
		log.Info("ingestion finished",
			"fetched", res.Fetched,
			"stored", res.Stored,
			"skipped", res.Skipped,
			"duration", time.Since(started),
		)
	}()

	opts := ports.FetchOptions{Start: in.Start, End: in.End}
	var storeErr error
	fetchErr := uc.fetcher.FetchSessions(ctx, opts, func(raw domain.RawSession) error {
		res.Fetched++

		if raw.Malformed != nil {
			res.Skipped++
			observability.SessionsIngested.WithLabelValues("skipped").Inc()
			log.Debug("skipping malformed session", "id", raw.ID, "reason", raw.Malformed)
			return nil
		}

		if raw.ID == "" {
			res.Skipped++
			observability.SessionsIngested.WithLabelValues("skipped").Inc()
			log.Debug("skipping session without id")
			return nil
		}

		enriched, err := classify.Enrich(raw, uc.catalog)
		if err != nil {
			res.Skipped++
			observability.SessionsIngested.WithLabelValues("skipped").Inc()
			log.Debug("skipping session", "id", raw.ID, "reason", err)
			return nil
		}

		if err := uc.store.PutSession(ctx, raw.ID, enriched); err != nil {
			storeErr = fmt.Errorf("store session %s: %w", raw.ID, err)
			return storeErr
		}
		res.Stored++
		observability.SessionsIngested.WithLabelValues("stored").Inc()
		return nil
	})

	if storeErr != nil {
		return res, storeErr
	}
	if fetchErr != nil {
		return res, fmt.Errorf("fetch sessions: %w", fetchErr)
	}
	return res, nil
}
