package fiber

import (
	"context"
	"errors"
	"net/http"

	"kpi-report-service/internal/sessions/core/usecase"

	"github.com/gofiber/fiber/v2"
)

type IngestSessionsUseCase interface {
	Execute(ctx context.Context, in usecase.IngestSessionsInput) (usecase.IngestSessionsResult, error)
}

type IngestHandler struct {
	ingestUC IngestSessionsUseCase
}

func NewIngestHandler(ingestUC IngestSessionsUseCase) *IngestHandler {
	return &IngestHandler{ingestUC: ingestUC}
}

// Ingest godoc
// @Summary Ingest telemetry sessions
// @Description Fetches raw sessions in the window, enriches them and stores them by id. Re-ingesting a window is idempotent.
// @Tags Ingestion
// @Accept json
// @Produce json
// @Param request body IngestRequest false "Ingestion window"
// @Success 200 {object} IngestResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /ingest [post]
func (h *IngestHandler) Ingest(c *fiber.Ctx) error {
	var req IngestRequest

	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error: "invalid_json",
			})
		}
	}

	res, err := h.ingestUC.Execute(c.UserContext(), usecase.IngestSessionsInput{
		Start: req.Start,
		End:   req.End,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidTimeRange):
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
		default:
			return c.Status(http.StatusBadGateway).JSON(ErrorResponse{
				Error:   "ingestion_failed",
				Message: err.Error(),
			})
		}
	}

	return c.Status(http.StatusOK).JSON(IngestResponse{
		Status:  "completed",
		RunID:   res.RunID,
		Fetched: res.Fetched,
		Stored:  res.Stored,
		Skipped: res.Skipped,
	})
}
