package tasks

import (
	"context"
	"database/sql"

	"github.com/Gobusters/ectologger"

	"github.com/gantryhq/gantry/pkg/database"
	"github.com/gantryhq/gantry/pkg/events"
	"github.com/gantryhq/gantry/pkg/faults"
	"github.com/gantryhq/gantry/pkg/models"
	"github.com/gantryhq/gantry/pkg/tracing"
)

type estimateReader interface {
	GetByID(ctx context.Context, id int64) (*models.Estimate, error)
}

type lineItemStore interface {
	GetByID(ctx context.Context, estimateID, id int64) (*models.LineItem, error)
	GetByUID(ctx context.Context, estimateID int64, uid string) (*models.LineItem, error)
	GetManyByIDs(ctx context.Context, estimateID int64, ids []int64) ([]models.LineItem, error)
	GetManyByUIDs(ctx context.Context, estimateID int64, uids []string) ([]models.LineItem, error)
	UpdateFieldsTx(ctx context.Context, tx database.Tx, id int64, fields map[string]any) error
}

type statusCatalog interface {
	GetByID(ctx context.Context, id string) (*models.StatusType, error)
	GetManyByIDs(ctx context.Context, ids []string) ([]models.StatusType, error)
}

type statusBinder interface {
	UpsertTx(ctx context.Context, tx database.Tx, estimateID int64, taskUID, statusID string) error
}

type transactor interface {
	Begin(ctx context.Context, opts *sql.TxOptions) (database.Tx, error)
}

// Service validates and applies task mutations. Every guard short-circuits
// on the first violated rule; the writes of one request commit as a single
// transaction.
type Service struct {
	db        transactor
	estimates estimateReader
	lineItems lineItemStore
	statuses  statusCatalog
	bindings  statusBinder
	emitter   *events.Emitter
	logger    ectologger.Logger
}

// NewService creates a task mutation service.
func NewService(
	db transactor,
	estimates estimateReader,
	lineItems lineItemStore,
	statuses statusCatalog,
	bindings statusBinder,
	emitter *events.Emitter,
	logger ectologger.Logger,
) *Service {
	return &Service{
		db:        db,
		estimates: estimates,
		lineItems: lineItems,
		statuses:  statuses,
		bindings:  bindings,
		emitter:   emitter,
		logger:    logger,
	}
}

// UpdateTask applies a partial update to one task after running the guard
// sequence: project, task, status, parent, linked task, temporal ordering.
func (s *Service) UpdateTask(ctx context.Context, projectID, taskID int64, req models.UpdateTaskRequest) error {
	ctx, span := tracing.StartSpan(ctx, "tasks.Service.UpdateTask")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": projectID,
		"task_id":    taskID,
	})

	estimate, err := s.estimates.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if estimate == nil {
		return faults.ProjectDoesNotExist()
	}

	task, err := s.lineItems.GetByID(ctx, projectID, taskID)
	if err != nil {
		return err
	}
	if task == nil || task.UID == nil || *task.UID == "" {
		return faults.TaskDoesNotExist()
	}

	if req.Status != nil && *req.Status != "" {
		status, err := s.statuses.GetByID(ctx, *req.Status)
		if err != nil {
			return err
		}
		if status == nil {
			return faults.StatusDoesNotExist()
		}
	}

	var parentTask *models.LineItem
	if req.ParentID != nil {
		parentTask, err = s.lineItems.GetByID(ctx, projectID, *req.ParentID)
		if err != nil {
			return err
		}
		if parentTask == nil {
			return faults.ParentTaskDoesNotExist()
		}
	}

	var linkedTask *models.LineItem
	if req.LinkedTo != nil && *req.LinkedTo != "" {
		linkedTask, err = s.lineItems.GetByUID(ctx, projectID, *req.LinkedTo)
		if err != nil {
			return err
		}
		if linkedTask == nil {
			return faults.LinkedTaskDoesNotExist()
		}
	}

	if err := s.checkTemporalRules(ctx, projectID, task, req, parentTask, linkedTask); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if req.Status != nil && *req.Status != "" {
		if err := s.bindings.UpsertTx(ctx, tx, projectID, *task.UID, *req.Status); err != nil {
			return err
		}
	}

	if err := s.lineItems.UpdateFieldsTx(ctx, tx, taskID, req.CleanFields()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info("Updated task")
	s.emitter.EmitTaskUpdated(ctx, projectID, taskID)
	return nil
}

// checkTemporalRules enforces day-granularity scheduling order. The update's
// values take precedence over stored ones wherever both exist.
func (s *Service) checkTemporalRules(
	ctx context.Context,
	projectID int64,
	task *models.LineItem,
	req models.UpdateTaskRequest,
	parentTask, linkedTask *models.LineItem,
) error {
	effectiveStart := coalesceTime(req.StartDate, task.StartDate)

	// Linked predecessor: the task may not start before the linked task ends.
	hasLinkedRef := (req.LinkedTo != nil && *req.LinkedTo != "") || (task.LinkedTo != nil && *task.LinkedTo != "")
	if hasLinkedRef {
		if linkedTask == nil && task.LinkedTo != nil && *task.LinkedTo != "" {
			stored, err := s.lineItems.GetByUID(ctx, projectID, *task.LinkedTo)
			if err != nil {
				return err
			}
			linkedTask = stored
		}

		if linkedTask != nil && effectiveStart != nil && linkedTask.EndDate != nil {
			if beforeDay(*effectiveStart, *linkedTask.EndDate) {
				return faults.InvalidStartDate()
			}
		}
	}

	// Parent: the task may not start before its parent starts.
	if req.ParentID != nil || task.ParentID != nil {
		if parentTask == nil {
			parentID := task.ParentID
			if req.ParentID != nil {
				parentID = req.ParentID
			}
			stored, err := s.lineItems.GetByID(ctx, projectID, *parentID)
			if err != nil {
				return err
			}
			parentTask = stored
		}

		if parentTask != nil && effectiveStart != nil && parentTask.StartDate != nil {
			if beforeDay(*effectiveStart, *parentTask.StartDate) {
				return faults.InvalidStartDate()
			}
		}
	}

	// The task's own window must be ordered whenever both ends are known.
	effectiveEnd := coalesceTime(req.EndDate, task.EndDate)
	if effectiveStart != nil && effectiveEnd != nil {
		if afterDay(*effectiveStart, *effectiveEnd) {
			return faults.InvalidStartDate()
		}
	}

	return nil
}

// UpdateTasksInBulk validates the whole batch up front and then applies
// every update in one transaction. Either all tasks mutate or none do.
// Unlike the single path, the bulk path checks existence only, not temporal
// ordering.
func (s *Service) UpdateTasksInBulk(ctx context.Context, projectID int64, items []models.BulkUpdateTaskItem) error {
	ctx, span := tracing.StartSpan(ctx, "tasks.Service.UpdateTasksInBulk")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": projectID,
		"task_count": len(items),
	})

	estimate, err := s.estimates.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if estimate == nil {
		return faults.ProjectDoesNotExist()
	}

	taskIDs := make([]int64, 0, len(items))
	for _, item := range items {
		taskIDs = append(taskIDs, item.ID)
	}

	existing, err := s.lineItems.GetManyByIDs(ctx, projectID, taskIDs)
	if err != nil {
		return err
	}

	uidByTaskID := map[int64]string{}
	for _, task := range existing {
		if task.UID != nil && *task.UID != "" {
			uidByTaskID[task.ID] = *task.UID
		}
	}

	// Both counts must match the input: a duplicate id, a missing row, or a
	// row without a uid all fail the batch.
	if len(existing) != len(items) || len(uidByTaskID) != len(items) {
		return faults.OneOrMoreTasksDoesNotExist()
	}

	statusIDs := distinctStrings(items, func(item models.BulkUpdateTaskItem) *string { return item.Status })
	if len(statusIDs) > 0 {
		statuses, err := s.statuses.GetManyByIDs(ctx, statusIDs)
		if err != nil {
			return err
		}
		if len(statuses) != len(statusIDs) {
			return faults.OneOrMoreStatusDoesNotExist()
		}
	}

	parentIDs := distinctInt64s(items, func(item models.BulkUpdateTaskItem) *int64 { return item.ParentID })
	if len(parentIDs) > 0 {
		parents, err := s.lineItems.GetManyByIDs(ctx, projectID, parentIDs)
		if err != nil {
			return err
		}
		if len(parents) != len(parentIDs) {
			return faults.OneOrMoreParentTasksDoesNotExist()
		}
	}

	linkedUIDs := distinctStrings(items, func(item models.BulkUpdateTaskItem) *string { return item.LinkedTo })
	if len(linkedUIDs) > 0 {
		linked, err := s.lineItems.GetManyByUIDs(ctx, projectID, linkedUIDs)
		if err != nil {
			return err
		}
		if len(linked) != len(linkedUIDs) {
			return faults.OneOrMoreLinkedTasksDoesNotExist()
		}
	}

	tx, err := s.db.Begin(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, item := range items {
		if item.Status != nil && *item.Status != "" {
			if err := s.bindings.UpsertTx(ctx, tx, projectID, uidByTaskID[item.ID], *item.Status); err != nil {
				return err
			}
		}

		if err := s.lineItems.UpdateFieldsTx(ctx, tx, item.ID, item.CleanFields()); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info("Updated tasks in bulk")
	s.emitter.EmitTasksBulkUpdated(ctx, projectID, taskIDs)
	return nil
}

func distinctStrings(items []models.BulkUpdateTaskItem, pick func(models.BulkUpdateTaskItem) *string) []string {
	seen := map[string]bool{}
	values := []string{}
	for _, item := range items {
		value := pick(item)
		if value == nil || *value == "" || seen[*value] {
			continue
		}
		seen[*value] = true
		values = append(values, *value)
	}
	return values
}

func distinctInt64s(items []models.BulkUpdateTaskItem, pick func(models.BulkUpdateTaskItem) *int64) []int64 {
	seen := map[int64]bool{}
	values := []int64{}
	for _, item := range items {
		value := pick(item)
		if value == nil || seen[*value] {
			continue
		}
		seen[*value] = true
		values = append(values, *value)
	}
	return values
}
