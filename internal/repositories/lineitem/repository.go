package lineitem

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/shopspring/decimal"

	"github.com/gantryhq/gantry/pkg/database"
	"github.com/gantryhq/gantry/pkg/models"
	"github.com/gantryhq/gantry/pkg/tracing"
)

var columns = []string{"id", "uid", "estimate_id", "name", "start_date", "end_date", "duration", "hours", "notes", "parent_id", "linked_to", "type", "created_at", "updated_at"}

// Repository handles estimate line item persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new line item repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a line item by id within an estimate. Returns nil when absent.
func (r *Repository) GetByID(ctx context.Context, estimateID, id int64) (*models.LineItem, error) {
	ctx, span := tracing.StartSpan(ctx, "lineitem.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("estimate_line_items")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("estimate_id", estimateID),
	)

	query, args := sb.Build()
	var item models.LineItem
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get line item")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get line item")
	}

	return &item, nil
}

// GetByUID retrieves a line item by uid within an estimate. Returns nil when absent.
func (r *Repository) GetByUID(ctx context.Context, estimateID int64, uid string) (*models.LineItem, error) {
	ctx, span := tracing.StartSpan(ctx, "lineitem.Repository.GetByUID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("estimate_line_items")
	sb.Where(
		sb.Equal("uid", uid),
		sb.Equal("estimate_id", estimateID),
	)

	query, args := sb.Build()
	var item models.LineItem
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get line item by uid")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get line item by uid")
	}

	return &item, nil
}

// ListByEstimate retrieves all line items of an estimate ordered by id.
func (r *Repository) ListByEstimate(ctx context.Context, estimateID int64) ([]models.LineItem, error) {
	ctx, span := tracing.StartSpan(ctx, "lineitem.Repository.ListByEstimate")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("estimate_line_items")
	sb.Where(sb.Equal("estimate_id", estimateID))
	sb.OrderBy("id ASC")

	query, args := sb.Build()
	var items []models.LineItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list line items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list line items")
	}

	return items, nil
}

// GetManyByIDs retrieves the line items matching the id set within an estimate.
func (r *Repository) GetManyByIDs(ctx context.Context, estimateID int64, ids []int64) ([]models.LineItem, error) {
	ctx, span := tracing.StartSpan(ctx, "lineitem.Repository.GetManyByIDs")
	defer span.End()

	if len(ids) == 0 {
		return []models.LineItem{}, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("estimate_line_items")
	sb.Where(
		sb.In("id", sqlbuilder.Flatten(ids)...),
		sb.Equal("estimate_id", estimateID),
	)

	query, args := sb.Build()
	var items []models.LineItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get line items by ids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get line items by ids")
	}

	return items, nil
}

// GetManyByUIDs retrieves the line items matching the uid set within an estimate.
func (r *Repository) GetManyByUIDs(ctx context.Context, estimateID int64, uids []string) ([]models.LineItem, error) {
	ctx, span := tracing.StartSpan(ctx, "lineitem.Repository.GetManyByUIDs")
	defer span.End()

	if len(uids) == 0 {
		return []models.LineItem{}, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("estimate_line_items")
	sb.Where(
		sb.In("uid", sqlbuilder.Flatten(uids)...),
		sb.Equal("estimate_id", estimateID),
	)

	query, args := sb.Build()
	var items []models.LineItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get line items by uids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get line items by uids")
	}

	return items, nil
}

// UpdateFieldsTx applies a partial column update to a line item inside tx.
func (r *Repository) UpdateFieldsTx(ctx context.Context, tx database.Tx, id int64, fields map[string]any) error {
	ctx, span := tracing.StartSpan(ctx, "lineitem.Repository.UpdateFieldsTx")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("estimate_line_items")
	assignments := make([]string, 0, len(fields)+1)
	for column, value := range fields {
		assignments = append(assignments, ub.Assign(column, value))
	}
	assignments = append(assignments, ub.Assign("updated_at", time.Now().UTC()))
	ub.Set(assignments...)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("id", id).Error("Failed to update line item")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update line item")
	}

	return nil
}

// UpdateHoursTx sets a line item's hours inside tx.
func (r *Repository) UpdateHoursTx(ctx context.Context, tx database.Tx, id int64, hours decimal.Decimal) error {
	ctx, span := tracing.StartSpan(ctx, "lineitem.Repository.UpdateHoursTx")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("estimate_line_items")
	ub.Set(
		ub.Assign("hours", hours),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("id", id).Error("Failed to update line item hours")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update line item hours")
	}

	return nil
}
