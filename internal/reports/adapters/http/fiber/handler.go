package fiber

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"kpi-report-service/internal/reports/core/domain"
	"kpi-report-service/internal/reports/core/usecase"

	"github.com/gofiber/fiber/v2"
)

type GetReportUseCase interface {
	Execute(ctx context.Context, in usecase.ReportInput) (*domain.Report, error)
	Segmentations() []string
}

type ReportHandler struct {
	uc     GetReportUseCase
	logger *slog.Logger
}

// NewReportHandler builds the handler. A nil logger means slog.Default().
func NewReportHandler(uc GetReportUseCase, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{uc: uc, logger: logger}
}

// GetReport godoc
// @Summary Get a KPI report
// @Description Returns a report family over an optional date window, optionally broken down by a segmentation. A null value means there was no data to compute it.
// @Tags Reports
// @Produce json
// @Param family path string true "Report family" Enums(assertions, sites, new_user_success, new_user, new_user_per_day, new_user_time, password_reset, general_progress_time, bounce_rate, new_user_bounce)
// @Param segmentation query string false "Segmentation, e.g. Browser"
// @Param start query int false "Start, unix seconds"
// @Param end query int false "End, unix seconds"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /reports/{family} [get]
func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	start, err := optionalInt(c.Query("start", ""))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "invalid 'start' parameter",
		})
	}
	end, err := optionalInt(c.Query("end", ""))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "invalid 'end' parameter",
		})
	}

	in := usecase.ReportInput{
		Family:       c.Params("family"),
		Segmentation: c.Query("segmentation", ""),
		Start:        start,
		End:          end,
	}

	rep, err := h.uc.Execute(c.UserContext(), in)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUnknownFamily):
			return c.Status(http.StatusNotFound).JSON(ErrorResponse{
				Error:   "unknown_report",
				Message: err.Error(),
			})
		case errors.Is(err, usecase.ErrUnknownSegmentation),
			errors.Is(err, usecase.ErrSegmentationUnsupported),
			errors.Is(err, usecase.ErrInvalidTimeRange):
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
		default:
			h.logger.Error("report failed", "family", in.Family, "segmentation", in.Segmentation, "error", err)
			return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
				Error: "internal_server_error",
			})
		}
	}

	return c.Status(http.StatusOK).JSON(toReportResponse(rep))
}

// ListReports godoc
// @Summary List report families and segmentations
// @Tags Reports
// @Produce json
// @Success 200 {object} ReportIndexResponse
// @Router /reports [get]
func (h *ReportHandler) ListReports(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(ReportIndexResponse{
		Families:      usecase.Families(),
		Segmentations: h.uc.Segmentations(),
	})
}

func optionalInt(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
