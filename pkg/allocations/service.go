package allocations

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"

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
	UpdateHoursTx(ctx context.Context, tx database.Tx, id int64, hours decimal.Decimal) error
}

type allocationStore interface {
	DeleteForTaskTx(ctx context.Context, tx database.Tx, taskID int64) error
	BulkInsertTx(ctx context.Context, tx database.Tx, taskID int64, allocations []models.AllocationInput) error
}

type transactor interface {
	Begin(ctx context.Context, opts *sql.TxOptions) (database.Tx, error)
}

// Service replaces a task's resource allocations and propagates the hour
// totals up the module/phase chain.
type Service struct {
	db          transactor
	estimates   estimateReader
	lineItems   lineItemStore
	allocations allocationStore
	emitter     *events.Emitter
	logger      ectologger.Logger
}

// NewService creates an allocation reconciliation service.
func NewService(
	db transactor,
	estimates estimateReader,
	lineItems lineItemStore,
	allocations allocationStore,
	emitter *events.Emitter,
	logger ectologger.Logger,
) *Service {
	return &Service{
		db:          db,
		estimates:   estimates,
		lineItems:   lineItems,
		allocations: allocations,
		emitter:     emitter,
		logger:      logger,
	}
}

// ReconcileAssignees swaps a task's allocation set for the given replacement
// list. The task's hours become the planned total (billed + write-off); the
// module and phase above it are first reduced by the task's prior hours and
// then re-increased by the new total, so their figures never double-count.
// Delete, insert and the three hour updates commit as one transaction.
func (s *Service) ReconcileAssignees(ctx context.Context, projectID, taskID int64, replacements []models.AllocationInput) (*models.ReconcileAssigneesResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "allocations.Service.ReconcileAssignees")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": projectID,
		"task_id":    taskID,
	})

	estimate, err := s.estimates.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if estimate == nil {
		return nil, faults.ProjectDoesNotExist()
	}

	task, err := s.lineItems.GetByID(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, faults.TaskDoesNotExist()
	}

	if task.ParentID == nil {
		return nil, faults.ModuleDoesNotExist()
	}
	module, err := s.lineItems.GetByID(ctx, projectID, *task.ParentID)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, faults.ModuleDoesNotExist()
	}

	taskHoursBefore := task.HoursOrZero()
	updatedHours := []models.UpdatedHoursItem{}

	var moduleAfterRemoval, phaseAfterRemoval decimal.Decimal
	var phase *models.LineItem

	// Hours propagate only through a properly shaped chain: a module-tagged
	// parent that itself hangs under a root phase.
	moduleAdjusted := module.ParentID != nil && module.Type == models.LineItemTypeModule
	phaseAdjusted := false

	if moduleAdjusted {
		moduleAfterRemoval = module.HoursOrZero().Sub(taskHoursBefore)

		phase, err = s.lineItems.GetByID(ctx, projectID, *module.ParentID)
		if err != nil {
			return nil, err
		}
		if phase == nil {
			return nil, faults.PhaseDoesNotExist()
		}

		if phase.ParentID == nil && phase.Type == models.LineItemTypePhase {
			phaseAdjusted = true
			phaseAfterRemoval = phase.HoursOrZero().Sub(taskHoursBefore)
		}
	}

	totalBilledHours := decimal.NewFromInt(0)
	totalPlannedHours := decimal.NewFromInt(0)
	for _, replacement := range replacements {
		totalBilledHours = totalBilledHours.Add(replacement.BilledHours)
		totalPlannedHours = totalPlannedHours.Add(replacement.BilledHours.Add(replacement.WriteOff))
	}

	if moduleAdjusted {
		updatedHours = append(updatedHours, models.UpdatedHoursItem{
			ID:    module.ID,
			Type:  models.LineItemTypeModule,
			Hours: moduleAfterRemoval.Add(totalPlannedHours),
		})
	}
	if phaseAdjusted {
		updatedHours = append(updatedHours, models.UpdatedHoursItem{
			ID:    phase.ID,
			Type:  models.LineItemTypePhase,
			Hours: phaseAfterRemoval.Add(totalPlannedHours),
		})
	}

	if err := s.applyReconciliation(ctx, taskID, replacements, totalPlannedHours, updatedHours); err != nil {
		log.WithError(err).Error("Resource allocation transaction failed")
		return nil, faults.ResourceAllocationTransaction()
	}

	log.WithFields(map[string]any{
		"total_billed_hours":  totalBilledHours.String(),
		"total_planned_hours": totalPlannedHours.String(),
	}).Info("Reconciled task assignees")

	response := &models.ReconcileAssigneesResponse{
		Allocations:  map[string]models.AllocationInput{},
		UpdatedHours: updatedHours,
	}
	for _, replacement := range replacements {
		response.Allocations[strconv.FormatInt(replacement.EstimateResourceID, 10)] = replacement
	}

	s.emitter.EmitAllocationsReconciled(ctx, projectID, taskID, updatedHours)
	return response, nil
}

// applyReconciliation runs the delete + insert + hour updates as one unit.
func (s *Service) applyReconciliation(
	ctx context.Context,
	taskID int64,
	replacements []models.AllocationInput,
	totalPlannedHours decimal.Decimal,
	updatedHours []models.UpdatedHoursItem,
) error {
	tx, err := s.db.Begin(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.allocations.DeleteForTaskTx(ctx, tx, taskID); err != nil {
		return err
	}

	if err := s.allocations.BulkInsertTx(ctx, tx, taskID, replacements); err != nil {
		return err
	}

	if err := s.lineItems.UpdateHoursTx(ctx, tx, taskID, totalPlannedHours); err != nil {
		return err
	}

	for _, item := range updatedHours {
		if err := s.lineItems.UpdateHoursTx(ctx, tx, item.ID, item.Hours); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
