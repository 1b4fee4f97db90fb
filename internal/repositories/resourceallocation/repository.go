package resourceallocation

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/gantryhq/gantry/pkg/database"
	"github.com/gantryhq/gantry/pkg/models"
	"github.com/gantryhq/gantry/pkg/tracing"
)

// Repository handles resource allocation persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new resource allocation repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListDetailsByEstimate retrieves every allocation of an estimate joined
// through the roster to the employee and their location. Rows come back in
// allocation id order so summary assembly is deterministic.
func (r *Repository) ListDetailsByEstimate(ctx context.Context, estimateID int64) ([]models.AllocationDetail, error) {
	ctx, span := tracing.StartSpan(ctx, "resourceallocation.Repository.ListDetailsByEstimate")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"ra.id", "ra.estimate_line_item_id", "ra.estimate_resource_id",
		"ra.billed_hours", "ra.write_off",
		"er.hourly_rate",
		"e.id AS employee_id", "e.first_name", "e.middle_name", "e.last_name", "e.location_id",
	)
	sb.From("resource_allocations ra")
	sb.JoinWithOption(sqlbuilder.InnerJoin, "estimate_line_items li", "li.id = ra.estimate_line_item_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "estimate_resources er", "er.id = ra.estimate_resource_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "employees e", "e.id = er.employee_id")
	sb.Where(sb.Equal("li.estimate_id", estimateID))
	sb.OrderBy("ra.id ASC")

	query, args := sb.Build()
	var details []models.AllocationDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list allocation details")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list allocation details")
	}

	return details, nil
}

// DeleteForTaskTx removes every allocation of a task inside tx.
func (r *Repository) DeleteForTaskTx(ctx context.Context, tx database.Tx, taskID int64) error {
	ctx, span := tracing.StartSpan(ctx, "resourceallocation.Repository.DeleteForTaskTx")
	defer span.End()

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("resource_allocations")
	db.Where(db.Equal("estimate_line_item_id", taskID))

	query, args := db.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("task_id", taskID).Error("Failed to delete allocations for task")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete allocations for task")
	}

	return nil
}

// BulkInsertTx inserts the replacement allocations for a task inside tx.
func (r *Repository) BulkInsertTx(ctx context.Context, tx database.Tx, taskID int64, allocations []models.AllocationInput) error {
	ctx, span := tracing.StartSpan(ctx, "resourceallocation.Repository.BulkInsertTx")
	defer span.End()

	if len(allocations) == 0 {
		return nil
	}

	now := time.Now().UTC()

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("resource_allocations")
	ib.Cols("estimate_line_item_id", "estimate_resource_id", "billed_hours", "write_off", "created_at", "updated_at")
	for _, allocation := range allocations {
		ib.Values(taskID, allocation.EstimateResourceID, allocation.BilledHours, allocation.WriteOff, now, now)
	}

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("task_id", taskID).Error("Failed to insert allocations")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert allocations")
	}

	return nil
}
