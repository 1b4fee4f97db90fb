package statusassignment

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/gantryhq/gantry/pkg/database"
	"github.com/gantryhq/gantry/pkg/models"
	"github.com/gantryhq/gantry/pkg/tracing"
)

// Repository handles the task-uid to status bindings of an estimate
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new status assignment repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListByEstimate retrieves all status assignments of an estimate.
func (r *Repository) ListByEstimate(ctx context.Context, estimateID int64) ([]models.StatusAssignment, error) {
	ctx, span := tracing.StartSpan(ctx, "statusassignment.Repository.ListByEstimate")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "estimate_id", "task_uid", "status_id", "created_at", "updated_at")
	sb.From("estimate_line_item_status_map")
	sb.Where(sb.Equal("estimate_id", estimateID))

	query, args := sb.Build()
	var assignments []models.StatusAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list status assignments")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list status assignments")
	}

	return assignments, nil
}

// UpsertTx creates or replaces the status binding for (task_uid, estimate_id)
// inside tx.
func (r *Repository) UpsertTx(ctx context.Context, tx database.Tx, estimateID int64, taskUID, statusID string) error {
	ctx, span := tracing.StartSpan(ctx, "statusassignment.Repository.UpsertTx")
	defer span.End()

	now := time.Now().UTC()

	ib := database.NewInsertBuilder()
	ib.InsertInto("estimate_line_item_status_map")
	ib.Cols("id", "estimate_id", "task_uid", "status_id", "created_at", "updated_at")
	ib.Values(uuid.New().String(), estimateID, taskUID, statusID, now, now)
	ub := ib.OnConflict("task_uid", "estimate_id")
	ub.Set(
		ub.Assign("status_id", database.Excluded("status_id")),
		ub.Assign("updated_at", now),
	)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("task_uid", taskUID).Error("Failed to upsert status assignment")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert status assignment")
	}

	return nil
}
