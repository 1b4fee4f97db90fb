package project

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/gantryhq/gantry/pkg/models"
	"github.com/gantryhq/gantry/pkg/utils"
)

type summaryService interface {
	GetProjectSummary(ctx context.Context, projectID int64) (*models.ProjectSummary, error)
}

type taskService interface {
	UpdateTask(ctx context.Context, projectID, taskID int64, req models.UpdateTaskRequest) error
	UpdateTasksInBulk(ctx context.Context, projectID int64, items []models.BulkUpdateTaskItem) error
}

type allocationService interface {
	ReconcileAssignees(ctx context.Context, projectID, taskID int64, replacements []models.AllocationInput) (*models.ReconcileAssigneesResponse, error)
}

// Handler serves the project endpoints
type Handler struct {
	summaries   summaryService
	tasks       taskService
	allocations allocationService
	logger      ectologger.Logger
}

// NewHandler creates a new project handler
func NewHandler(
	summaries summaryService,
	tasks taskService,
	allocations allocationService,
	logger ectologger.Logger,
) *Handler {
	return &Handler{
		summaries:   summaries,
		tasks:       tasks,
		allocations: allocations,
		logger:      logger,
	}
}

// Register registers project routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/:projectId", h.GetProjectSummary)
	g.PATCH("/:projectId/bulk-task", h.UpdateTasksInBulk)
	g.PATCH("/:projectId/:taskId/assignees", h.ReconcileAssignees)
	g.PATCH("/:projectId/:taskId", h.UpdateTask)
}

// GetProjectSummary returns the denormalized summary for a project
func (h *Handler) GetProjectSummary(c echo.Context) error {
	ctx := c.Request().Context()

	projectID, err := parseID(c, "projectId")
	if err != nil {
		return err
	}

	summary, err := h.summaries.GetProjectSummary(ctx, projectID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}

// UpdateTask applies a partial update to a single task
func (h *Handler) UpdateTask(c echo.Context) error {
	ctx := c.Request().Context()

	projectID, err := parseID(c, "projectId")
	if err != nil {
		return err
	}

	taskID, err := parseID(c, "taskId")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[models.UpdateTaskRequest](c)
	if err != nil {
		return err
	}

	if err := h.tasks.UpdateTask(ctx, projectID, taskID, req); err != nil {
		return err
	}

	return c.NoContent(http.StatusOK)
}

// UpdateTasksInBulk applies partial updates to many tasks atomically
func (h *Handler) UpdateTasksInBulk(c echo.Context) error {
	ctx := c.Request().Context()

	projectID, err := parseID(c, "projectId")
	if err != nil {
		return err
	}

	var items []models.BulkUpdateTaskItem
	if err := c.Bind(&items); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	for _, item := range items {
		if item.ID == 0 {
			return httperror.NewHTTPError(http.StatusBadRequest, "id is required for every task")
		}
	}

	if err := h.tasks.UpdateTasksInBulk(ctx, projectID, items); err != nil {
		return err
	}

	return c.NoContent(http.StatusOK)
}

// ReconcileAssignees replaces the resource allocations of a task
func (h *Handler) ReconcileAssignees(c echo.Context) error {
	ctx := c.Request().Context()

	projectID, err := parseID(c, "projectId")
	if err != nil {
		return err
	}

	taskID, err := parseID(c, "taskId")
	if err != nil {
		return err
	}

	var replacements []models.AllocationInput
	if err := c.Bind(&replacements); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	for _, r := range replacements {
		if r.EstimateResourceID == 0 {
			return httperror.NewHTTPError(http.StatusBadRequest, "estimateResourceId is required for every allocation")
		}
	}

	result, err := h.allocations.ReconcileAssignees(ctx, projectID, taskID, replacements)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func parseID(c echo.Context, param string) (int64, error) {
	raw := c.Param(param)
	if raw == "" {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "missing "+param)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be an integer", param)
	}

	return id, nil
}
