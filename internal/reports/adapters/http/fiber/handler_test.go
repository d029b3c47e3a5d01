package fiber_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	httpadapter "kpi-report-service/internal/reports/adapters/http/fiber"
	"kpi-report-service/internal/reports/core/domain"
	"kpi-report-service/internal/reports/core/usecase"

	"github.com/gofiber/fiber/v2"
)

// Fake usecase implementing the interface that handler depends on.
type fakeGetReportUseCase struct {
	ExecuteFn     func(ctx context.Context, in usecase.ReportInput) (*domain.Report, error)
	SegmentsValue []string
	lastInput     usecase.ReportInput
	called        bool
}

func (f *fakeGetReportUseCase) Segmentations() []string {
	return f.SegmentsValue
}

func (f *fakeGetReportUseCase) Execute(ctx context.Context, in usecase.ReportInput) (*domain.Report, error) {
	f.called = true
	f.lastInput = in
	if f.ExecuteFn != nil {
		return f.ExecuteFn(ctx, in)
	}
	return &domain.Report{Family: in.Family, Kind: domain.KindSeries}, nil
}

func setupApp(t *testing.T, uc httpadapter.GetReportUseCase) *fiber.App {
	t.Helper()
	return setupAppWithLogger(t, uc, nil)
}

func setupAppWithLogger(t *testing.T, uc httpadapter.GetReportUseCase, logger *slog.Logger) *fiber.App {
	t.Helper()
	app := fiber.New()
	h := httpadapter.NewReportHandler(uc, logger)
	app.Get("/reports", h.ListReports)
	app.Get("/reports/:family", h.GetReport)
	return app
}

// ------------------------------------------------------------
// SUCCESS
// ------------------------------------------------------------

func TestGetReport_Success(t *testing.T) {
	uc := &fakeGetReportUseCase{
		ExecuteFn: func(ctx context.Context, in usecase.ReportInput) (*domain.Report, error) {
			return &domain.Report{
				Family: in.Family,
				Kind:   domain.KindSeries,
				Series: map[string][]domain.Point{
					domain.TotalSeries: {
						{Category: "2012-06-01", Value: domain.Value(0.5)},
						{Category: "2012-06-02", Value: nil},
					},
				},
			}, nil
		},
	}

	app := setupApp(t, uc)

	params := url.Values{}
	params.Set("segmentation", "Browser")
	params.Set("start", "1338508800")
	params.Set("end", "1338681600")

	req := httptest.NewRequest(http.MethodGet, "/reports/bounce_rate?"+params.Encode(), nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	in := uc.lastInput
	if in.Family != "bounce_rate" || in.Segmentation != "Browser" {
		t.Fatalf("unexpected input: %+v", in)
	}
	if in.Start == nil || *in.Start != 1338508800 || in.End == nil || *in.End != 1338681600 {
		t.Fatalf("unexpected window: start=%v end=%v", in.Start, in.End)
	}

	var body struct {
		Family string `json:"family"`
		Series map[string][]struct {
			Category string   `json:"category"`
			Value    *float64 `json:"value"`
		} `json:"series"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	total := body.Series["Total"]
	if body.Family != "bounce_rate" || len(total) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if total[0].Value == nil || *total[0].Value != 0.5 {
		t.Fatalf("expected 0.5 for the first point, got %v", total[0].Value)
	}
	if total[1].Value != nil {
		t.Fatalf("expected null for the second point, got %v", *total[1].Value)
	}
}

func TestGetReport_OpenWindow(t *testing.T) {
	uc := &fakeGetReportUseCase{}
	app := setupApp(t, uc)

	req := httptest.NewRequest(http.MethodGet, "/reports/assertions", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if uc.lastInput.Start != nil || uc.lastInput.End != nil || uc.lastInput.Segmentation != "" {
		t.Fatalf("expected an open, unsegmented query, got %+v", uc.lastInput)
	}
}

func TestListReports(t *testing.T) {
	app := setupApp(t, &fakeGetReportUseCase{SegmentsValue: []string{"Browser", "OS"}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/reports", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Families      []string `json:"families"`
		Segmentations []string `json:"segmentations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Families) != len(usecase.Families()) {
		t.Fatalf("expected %d families, got %v", len(usecase.Families()), body.Families)
	}
	if len(body.Segmentations) != 2 || body.Segmentations[0] != "Browser" || body.Segmentations[1] != "OS" {
		t.Fatalf("unexpected segmentations: %v", body.Segmentations)
	}
}

// ------------------------------------------------------------
// INVALID QUERY PARAM (bad int)
// ------------------------------------------------------------

func TestGetReport_InvalidQueryParam(t *testing.T) {
	for _, p := range []string{"start", "end"} {
		t.Run(p, func(t *testing.T) {
			uc := &fakeGetReportUseCase{}
			app := setupApp(t, uc)

			params := url.Values{}
			params.Set(p, "abc")

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/reports/sites?"+params.Encode(), nil))
			if err != nil {
				t.Fatalf("app.Test error: %v", err)
			}
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", resp.StatusCode)
			}
			if uc.called {
				t.Fatalf("usecase should not be called on invalid query params")
			}
		})
	}
}

// ------------------------------------------------------------
// USECASE ERRORS
// ------------------------------------------------------------

func TestGetReport_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		ucError error
		status  int
	}{
		{"unknown_family", usecase.ErrUnknownFamily, http.StatusNotFound},
		{"unknown_segmentation", usecase.ErrUnknownSegmentation, http.StatusBadRequest},
		{"unsupported_segmentation", usecase.ErrSegmentationUnsupported, http.StatusBadRequest},
		{"invalid_time_range", usecase.ErrInvalidTimeRange, http.StatusBadRequest},
		{"unexpected_shape", usecase.ErrUnexpectedShape, http.StatusInternalServerError},
		{"other", errors.New("scan failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeGetReportUseCase{
				ExecuteFn: func(ctx context.Context, in usecase.ReportInput) (*domain.Report, error) {
					return nil, tt.ucError
				},
			}

			app := setupApp(t, uc)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/reports/new_user", nil))
			if err != nil {
				t.Fatalf("app.Test error: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestGetReport_InternalErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	uc := &fakeGetReportUseCase{
		ExecuteFn: func(ctx context.Context, in usecase.ReportInput) (*domain.Report, error) {
			return nil, errors.New("scan failed")
		},
	}
	app := setupAppWithLogger(t, uc, logger)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/reports/sites", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.StatusCode)
	}

	out := buf.String()
	if !strings.Contains(out, "report failed") || !strings.Contains(out, "family=sites") || !strings.Contains(out, "scan failed") {
		t.Fatalf("expected the failure to be logged, got %q", out)
	}
}

func TestGetReport_ClientErrorIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	uc := &fakeGetReportUseCase{
		ExecuteFn: func(ctx context.Context, in usecase.ReportInput) (*domain.Report, error) {
			return nil, usecase.ErrUnknownFamily
		},
	}
	app := setupAppWithLogger(t, uc, logger)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/reports/nope", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing logged, got %q", buf.String())
	}
}
