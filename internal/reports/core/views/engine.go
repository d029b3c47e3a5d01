package views

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"kpi-report-service/internal/observability"
	"kpi-report-service/internal/reports/core/ports"
	"kpi-report-service/internal/sessions/core/domain"
	sessionports "kpi-report-service/internal/sessions/core/ports"
)

const (
	DefaultShards = 4
	DefaultBatch  = 256
)

// Engine evaluates views by scanning stored sessions once and folding them
// across a fixed number of shards. Results do not depend on the shard count.
type Engine struct {
	registry *Registry
	scanner  sessionports.SessionScannerPort
	shards   int
	batch    int
	logger   *slog.Logger
}

type EngineOption func(*Engine)

func WithShards(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.shards = n
		}
	}
}

// WithBatch sets how many values a shard buffers per key before reducing.
func WithBatch(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.batch = n
		}
	}
}

func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(registry *Registry, scanner sessionports.SessionScannerPort, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: registry,
		scanner:  scanner,
		shards:   DefaultShards,
		batch:    DefaultBatch,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

var _ ports.ViewQuerierPort = (*Engine)(nil)

func (e *Engine) QueryView(ctx context.Context, name string, r ports.KeyRange, group bool) ([]ports.Row, error) {
	start := time.Now()

	v, err := e.registry.View(name)
	if err != nil {
		return nil, err
	}

	accs := make([]accumulator, e.shards)
	feeds := make([]chan domain.EnrichedSession, e.shards)
	for i := range accs {
		accs[i] = v.newAccumulator(e.batch)
		feeds[i] = make(chan domain.EnrichedSession, e.batch)
	}

	g, gctx := errgroup.WithContext(ctx)

	for i := range accs {
		acc, feed := accs[i], feeds[i]
		g.Go(func() error {
			for s := range feed {
				acc.add(s)
			}
			return nil
		})
	}

	filter := domain.ScanFilter{From: r.StartDate, To: r.EndDate, Flow: v.Flow()}
	g.Go(func() error {
		defer func() {
			for _, f := range feeds {
				close(f)
			}
		}()
		n := 0
		return e.scanner.ScanSessions(gctx, filter, func(s domain.EnrichedSession) error {
			if !filter.Matches(s) {
				return nil
			}
			select {
			case feeds[n%len(feeds)] <- s:
			case <-gctx.Done():
				return gctx.Err()
			}
			n++
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("query view %s: %w", name, err)
	}

	for _, acc := range accs[1:] {
		accs[0].absorb(acc)
	}
	rows := accs[0].rows(group)

	observability.ObserveView(name, start, len(rows))
	e.logger.Debug("view queried", "view", name, "start_date", r.StartDate, "end_date", r.EndDate,
		"group", group, "rows", len(rows), "shards", e.shards)
	return rows, nil
}
