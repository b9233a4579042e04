package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/junwei-lin/smsflow/app/dto"
	businessflow "github.com/junwei-lin/smsflow/business_flow"
	"github.com/junwei-lin/smsflow/models"
)

// StatsHandlerInterface defines the contract for statistics handlers
type StatsHandlerInterface interface {
	GetStats(c fiber.Ctx) error
	GetRecords(c fiber.Ctx) error
}

// StatsHandler handles statistics HTTP requests
type StatsHandler struct {
	statsFlow     businessflow.StatsFlow
	retentionFlow businessflow.RetentionFlow
	validator     *validator.Validate
}

// NewStatsHandler creates a new statistics handler
func NewStatsHandler(statsFlow businessflow.StatsFlow, retentionFlow businessflow.RetentionFlow) *StatsHandler {
	return &StatsHandler{
		statsFlow:     statsFlow,
		retentionFlow: retentionFlow,
		validator:     validator.New(),
	}
}

// GetStats aggregates the send history over a window (default: today).
func (h *StatsHandler) GetStats(c fiber.Ctx) error {
	var req dto.StatsRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	window := models.StatsWindow(req.Window)
	if req.Window == "" {
		window = models.StatsWindowToday
	}

	ctx, cancel := requestContext(c, "get_stats", 30*time.Second)
	defer cancel()

	summary, err := h.statsFlow.StatisticsFor(ctx, window)
	if err != nil {
		if businessflow.IsInvalidStatsWindow(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid statistics window", "INVALID_STATS_WINDOW", nil)
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to aggregate statistics", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Statistics retrieved", summary)
}

// GetRecords returns the retained send history, newest first.
func (h *StatsHandler) GetRecords(c fiber.Ctx) error {
	ctx, cancel := requestContext(c, "get_records", 30*time.Second)
	defer cancel()

	records, err := h.retentionFlow.Records(ctx)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load send records", "INTERNAL_ERROR", nil)
	}

	return successResponse(c, fiber.StatusOK, "Records retrieved", records)
}
