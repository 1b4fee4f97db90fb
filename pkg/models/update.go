package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UpdateTaskRequest is a partial line-item update. Every field is optional;
// nil means "leave unchanged".
type UpdateTaskRequest struct {
	Name      *string       `json:"name"`
	StartDate *time.Time    `json:"startDate"`
	EndDate   *time.Time    `json:"endDate"`
	LinkedTo  *string       `json:"linkedTo"`
	Notes     *string       `json:"notes"`
	Status    *string       `json:"status"`
	ParentID  *int64        `json:"parentId"`
	Type      *LineItemType `json:"type"`
}

// CleanFields returns the set fields as update columns. Status is always
// excluded: it lives in the status map, not on the line item.
func (r *UpdateTaskRequest) CleanFields() map[string]any {
	fields := map[string]any{}
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.StartDate != nil {
		fields["start_date"] = *r.StartDate
	}
	if r.EndDate != nil {
		fields["end_date"] = *r.EndDate
	}
	if r.LinkedTo != nil {
		fields["linked_to"] = *r.LinkedTo
	}
	if r.Notes != nil {
		fields["notes"] = *r.Notes
	}
	if r.ParentID != nil {
		fields["parent_id"] = *r.ParentID
	}
	if r.Type != nil {
		fields["type"] = string(*r.Type)
	}
	return fields
}

// BulkUpdateTaskItem is one entry of a bulk update: the task id plus the
// same optional fields as the single-task path.
type BulkUpdateTaskItem struct {
	ID int64 `json:"id" validate:"required"`
	UpdateTaskRequest
}

// AllocationInput is one replacement allocation for a task.
type AllocationInput struct {
	EstimateResourceID int64           `json:"estimateResourceId" validate:"required"`
	BilledHours        decimal.Decimal `json:"billedHours"`
	WriteOff           decimal.Decimal `json:"writeOff"`
}

// UpdatedHoursItem reports an ancestor line item whose hours were adjusted
// during allocation reconciliation.
type UpdatedHoursItem struct {
	ID    int64           `json:"id"`
	Type  LineItemType    `json:"type"`
	Hours decimal.Decimal `json:"hours"`
}

// ReconcileAssigneesResponse returns the applied allocations keyed by
// estimateResourceId plus the adjusted ancestor hours.
type ReconcileAssigneesResponse struct {
	Allocations  map[string]AllocationInput `json:"allocations"`
	UpdatedHours []UpdatedHoursItem         `json:"updatedHours"`
}
