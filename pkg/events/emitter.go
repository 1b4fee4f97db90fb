// Package events emits lifecycle events after successful task mutations.
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/gantryhq/gantry/pkg/kafka"
	"github.com/gantryhq/gantry/pkg/models"
	"github.com/gantryhq/gantry/pkg/tracing"
)

const (
	EventTypeTaskUpdated           = "task.updated"
	EventTypeTaskBulkUpdated       = "task.bulk_updated"
	EventTypeAllocationsReconciled = "allocations.reconciled"
)

// Emitter publishes mutation events. A nil Emitter is valid and emits
// nothing, so event publishing stays optional in configuration.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitTaskUpdated emits a task.updated event after a committed single-task update.
func (e *Emitter) EmitTaskUpdated(ctx context.Context, projectID, taskID int64) {
	if e == nil || e.producer == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitTaskUpdated")
	defer span.End()

	event := &kafka.TaskEvent{
		EventType: EventTypeTaskUpdated,
		ProjectID: projectID,
		TaskID:    taskID,
	}

	if err := e.producer.PublishTaskEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit task.updated event")
	}
}

// EmitTasksBulkUpdated emits a task.bulk_updated event after a committed bulk update.
func (e *Emitter) EmitTasksBulkUpdated(ctx context.Context, projectID int64, taskIDs []int64) {
	if e == nil || e.producer == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitTasksBulkUpdated")
	defer span.End()

	event := &kafka.TaskEvent{
		EventType: EventTypeTaskBulkUpdated,
		ProjectID: projectID,
		TaskIDs:   taskIDs,
	}

	if err := e.producer.PublishTaskEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit task.bulk_updated event")
	}
}

// EmitAllocationsReconciled emits an allocations.reconciled event carrying
// the ancestor hour adjustments.
func (e *Emitter) EmitAllocationsReconciled(ctx context.Context, projectID, taskID int64, updatedHours []models.UpdatedHoursItem) {
	if e == nil || e.producer == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAllocationsReconciled")
	defer span.End()

	event := &kafka.TaskEvent{
		EventType:    EventTypeAllocationsReconciled,
		ProjectID:    projectID,
		TaskID:       taskID,
		UpdatedHours: updatedHours,
	}

	if err := e.producer.PublishTaskEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit allocations.reconciled event")
	}
}
