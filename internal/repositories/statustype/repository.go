package statustype

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

// Repository handles status catalog reads
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new status type repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a status type by id. Returns nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.StatusType, error) {
	ctx, span := tracing.StartSpan(ctx, "statustype.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "status", "color")
	sb.From("status_types")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var status models.StatusType
	if err := r.db.GetContext(ctx, &status, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get status type")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get status type")
	}

	return &status, nil
}

// List retrieves the full status catalog.
func (r *Repository) List(ctx context.Context) ([]models.StatusType, error) {
	ctx, span := tracing.StartSpan(ctx, "statustype.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "status", "color")
	sb.From("status_types")
	sb.OrderBy("id ASC")

	query, args := sb.Build()
	var statuses []models.StatusType
	if err := r.db.SelectContext(ctx, &statuses, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list status types")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list status types")
	}

	return statuses, nil
}

// GetManyByIDs retrieves the status types matching the id set.
func (r *Repository) GetManyByIDs(ctx context.Context, ids []string) ([]models.StatusType, error) {
	ctx, span := tracing.StartSpan(ctx, "statustype.Repository.GetManyByIDs")
	defer span.End()

	if len(ids) == 0 {
		return []models.StatusType{}, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "status", "color")
	sb.From("status_types")
	sb.Where(sb.In("id", sqlbuilder.Flatten(ids)...))

	query, args := sb.Build()
	var statuses []models.StatusType
	if err := r.db.SelectContext(ctx, &statuses, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get status types by ids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get status types by ids")
	}

	return statuses, nil
}
