package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lofiradio/automation/internal/model"
	"github.com/lofiradio/automation/internal/service"
	"github.com/lofiradio/automation/pkg/response"
)

type RunHandler struct {
	service *service.RunService
}

func NewRunHandler(svc *service.RunService) *RunHandler {
	return &RunHandler{service: svc}
}

// Trigger handles POST /api/runs/:slot
func (h *RunHandler) Trigger(c *fiber.Ctx) error {
	slot, err := model.ParseSlot(c.Params("slot"))
	if err != nil {
		return response.ValidationError(c, err.Error(), nil)
	}

	result, err := h.service.StartRun(c.Context(), slot)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/runs/:runId
func (h *RunHandler) Status(c *fiber.Ctx) error {
	runID := c.Params("runId")
	if runID == "" {
		return response.ValidationError(c, "Run ID is required", nil)
	}

	run, err := h.service.GetRun(c.Context(), runID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return response.NotFound(c, "Run not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, run)
}

// Result handles GET /api/runs/:runId/result. Unlike Status it only answers
// once the run has finished, so pollers can treat a 200 as final.
func (h *RunHandler) Result(c *fiber.Ctx) error {
	runID := c.Params("runId")
	if runID == "" {
		return response.ValidationError(c, "Run ID is required", nil)
	}

	run, err := h.service.GetRun(c.Context(), runID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return response.NotFound(c, "Run not found")
		}
		return response.ServiceError(c, err.Error())
	}

	if run.Status != model.RunStatusSucceeded && run.Status != model.RunStatusFailed {
		return response.Error(c, fiber.StatusConflict, response.CodeRunNotFinished, "Run has not finished", nil)
	}

	return response.OK(c, fiber.Map{
		"runId":          run.ID,
		"slot":           run.Slot,
		"status":         run.Status,
		"degraded":       run.Degraded,
		"videoGenerated": run.VideoGenerated,
		"metadata":       run.Metadata,
		"publishResults": run.PublishResults,
		"error":          run.Error,
		"completedAt":    run.CompletedAt,
	})
}

// Recent handles GET /api/runs
func (h *RunHandler) Recent(c *fiber.Ctx) error {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return response.ValidationError(c, "limit must be a positive integer", nil)
		}
		limit = parsed
	}

	runs, err := h.service.GetRecentRuns(c.Context(), limit)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, fiber.Map{"runs": runs})
}
