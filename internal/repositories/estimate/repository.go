package estimate

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

// Repository handles estimate persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new estimate repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves an estimate by id. Returns nil when absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Estimate, error) {
	ctx, span := tracing.StartSpan(ctx, "estimate.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "project_name", "created_at", "updated_at")
	sb.From("estimates")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var estimate models.Estimate
	if err := r.db.GetContext(ctx, &estimate, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get estimate")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get estimate")
	}

	return &estimate, nil
}
