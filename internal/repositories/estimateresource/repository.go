package estimateresource

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/gantryhq/gantry/pkg/database"
	"github.com/gantryhq/gantry/pkg/models"
	"github.com/gantryhq/gantry/pkg/tracing"
)

// Repository handles the estimate resource roster
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new estimate resource repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListRosterByEstimate retrieves the roster projection used to attach
// estimateResourceId and projectRole to summary assignees.
func (r *Repository) ListRosterByEstimate(ctx context.Context, estimateID int64) ([]models.RosterEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "estimateresource.Repository.ListRosterByEstimate")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "employee_id", "project_role")
	sb.From("estimate_resources")
	sb.Where(sb.Equal("estimate_id", estimateID))

	query, args := sb.Build()
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list estimate resources")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list estimate resources")
	}

	return roster, nil
}
