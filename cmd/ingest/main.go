// Command ingest runs one ingestion batch against the configured telemetry
// source and Postgres store, then exits.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"kpi-report-service/internal/config"
	"kpi-report-service/internal/sessions/adapters/kpiggybank"
	sessionsRepoPg "kpi-report-service/internal/sessions/adapters/postgres"
	"kpi-report-service/internal/sessions/core/usecase"
)

var (
	startFlag   string
	endFlag     string
	catalogFlag string
	sourceFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch, enrich and store telemetry sessions for a time window",
	Long: `Fetches raw sessions from the telemetry source, classifies them and
upserts the enriched sessions into Postgres. Re-running a window overwrites
the sessions it already stored.

--start and --end accept a UTC date (2006-01-02) or milliseconds since epoch.
An end date covers that whole day.`,
	SilenceUsage: true,
	RunE:         runIngest,
}

func init() {
	rootCmd.Flags().StringVar(&startFlag, "start", "", "start of the window (date or ms)")
	rootCmd.Flags().StringVar(&endFlag, "end", "", "end of the window (date or ms)")
	rootCmd.Flags().StringVar(&catalogFlag, "catalog", "", "catalog YAML file (default: CATALOG_PATH or the built-in catalog)")
	rootCmd.Flags().StringVar(&sourceFlag, "source", "", "telemetry base URL (default: TELEMETRY_URL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if catalogFlag != "" {
		cfg.CatalogPath = catalogFlag
	}
	if sourceFlag != "" {
		cfg.TelemetryURL = sourceFlag
	}
	cfg.StoreDriver = config.StoreDriverPostgres
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	start, err := parseBound(startFlag, false)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	end, err := parseBound(endFlag, true)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	repo := sessionsRepoPg.NewSessionRepository(sessionsRepoPg.NewSQLDB(db))
	if err := repo.Migrate(ctx); err != nil {
		return err
	}

	fetcher := kpiggybank.NewClient(cfg.TelemetryURL, &http.Client{Timeout: 30 * time.Minute})
	uc := usecase.NewIngestSessionsUseCase(fetcher, repo, catalog, logger)

	res, err := uc.Execute(ctx, usecase.IngestSessionsInput{Start: start, End: end})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: fetched %d, stored %d, skipped %d\n", res.RunID, res.Fetched, res.Stored, res.Skipped)
	return nil
}

// parseBound reads a window bound as milliseconds since epoch or as a UTC
// date. For an end bound a date means the last millisecond of that day.
func parseBound(s string, end bool) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &ms, nil
	}
	day, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a date nor milliseconds", s)
	}
	if end {
		day = day.Add(24*time.Hour - time.Millisecond)
	}
	ms := day.UnixMilli()
	return &ms, nil
}
