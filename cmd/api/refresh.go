package main

import (
	"context"
	"log/slog"
	"time"

	"kpi-report-service/internal/sessions/core/usecase"
)

type ingester interface {
	Execute(ctx context.Context, in usecase.IngestSessionsInput) (usecase.IngestSessionsResult, error)
}

// runRefresh re-ingests the trailing window on every tick until ctx is done.
// Runs are sequential; a slow run delays the next tick instead of
// overlapping it.
func runRefresh(ctx context.Context, uc ingester, interval, window time.Duration, now func() time.Time, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshOnce(ctx, uc, window, now(), logger)
		}
	}
}

func refreshOnce(ctx context.Context, uc ingester, window time.Duration, at time.Time, logger *slog.Logger) {
	end := at.UnixMilli()
	start := at.Add(-window).UnixMilli()

	res, err := uc.Execute(ctx, usecase.IngestSessionsInput{Start: &start, End: &end})
	if err != nil {
		logger.Error("scheduled refresh failed", "error", err)
		return
	}
	logger.Info("scheduled refresh done", "run_id", res.RunID, "stored", res.Stored)
}
