package status

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/gantryhq/gantry/pkg/models"
	"github.com/gantryhq/gantry/pkg/normalize"
)

type statusCatalog interface {
	List(ctx context.Context) ([]models.StatusType, error)
}

// Handler serves the status catalog endpoints
type Handler struct {
	statuses statusCatalog
	logger   ectologger.Logger
}

// NewHandler creates a new status handler
func NewHandler(statuses statusCatalog, logger ectologger.Logger) *Handler {
	return &Handler{
		statuses: statuses,
		logger:   logger,
	}
}

// Register registers status routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/getAllStatus", h.GetAllStatuses)
}

// GetAllStatuses returns every status option, normalized by id
func (h *Handler) GetAllStatuses(c echo.Context) error {
	ctx := c.Request().Context()

	statuses, err := h.statuses.List(ctx)
	if err != nil {
		return err
	}

	options := normalize.Normalize(statuses, func(s models.StatusType) string {
		return s.ID
	})

	return c.JSON(http.StatusOK, options)
}
