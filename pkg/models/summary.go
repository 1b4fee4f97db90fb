package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gantryhq/gantry/pkg/normalize"
)

// TaskItem is a leaf task in the project summary. Relations are flattened to
// id references: allocatedResources point into the resourceAllocations
// collection, linkedBy is back-filled from other items' linkedTo.
type TaskItem struct {
	ID                 string           `json:"id"`
	UID                string           `json:"uid"`
	Name               string           `json:"name"`
	StartDate          *time.Time       `json:"startDate"`
	EndDate            *time.Time       `json:"endDate"`
	Duration           *int             `json:"duration"`
	Hours              *decimal.Decimal `json:"hours"`
	LinkedTo           *string          `json:"linkedTo"`
	LinkedBy           []string         `json:"linkedBy"`
	Notes              *string          `json:"notes"`
	ParentID           *string          `json:"parentId"`
	Status             *string          `json:"status"`
	Type               LineItemType     `json:"type"`
	AllocatedResources []string         `json:"allocatedResources"`
}

// ModuleItem is a module entry: a TaskItem without allocated resources,
// plus the ids of its child tasks.
type ModuleItem struct {
	ID          string           `json:"id"`
	UID         string           `json:"uid"`
	Name        string           `json:"name"`
	StartDate   *time.Time       `json:"startDate"`
	EndDate     *time.Time       `json:"endDate"`
	Duration    *int             `json:"duration"`
	Hours       *decimal.Decimal `json:"hours"`
	LinkedTo    *string          `json:"linkedTo"`
	LinkedBy    []string         `json:"linkedBy"`
	Notes       *string          `json:"notes"`
	ParentID    *string          `json:"parentId"`
	Status      *string          `json:"status"`
	Type        LineItemType     `json:"type"`
	ChildrenIDs []string         `json:"childrenIds"`
}

// PhaseItem is a root phase entry: no parent, no allocated resources.
type PhaseItem struct {
	ID          string           `json:"id"`
	UID         string           `json:"uid"`
	Name        string           `json:"name"`
	StartDate   *time.Time       `json:"startDate"`
	EndDate     *time.Time       `json:"endDate"`
	Duration    *int             `json:"duration"`
	Hours       *decimal.Decimal `json:"hours"`
	LinkedTo    *string          `json:"linkedTo"`
	LinkedBy    []string         `json:"linkedBy"`
	Notes       *string          `json:"notes"`
	Status      *string          `json:"status"`
	Type        LineItemType     `json:"type"`
	ChildrenIDs []string         `json:"childrenIds"`
}

// Assignee is an employee appearing in at least one resource allocation of
// the project, with the derived cost rate for their location.
type Assignee struct {
	ID                 string          `json:"id"`
	FirstName          string          `json:"firstName"`
	MiddleName         *string         `json:"middleName"`
	LastName           string          `json:"lastName"`
	HourlyBillRate     decimal.Decimal `json:"hourlyBillRate"`
	HourlyCostRate     decimal.Decimal `json:"hourlyCostRate"`
	EstimateResourceID *int64          `json:"estimateResourceId"`
	ProjectRole        *string         `json:"projectRole"`
}

// ResourceAllocationItem is one allocation row in the summary.
type ResourceAllocationItem struct {
	ID          string          `json:"id"`
	AssigneeID  string          `json:"assigneeId"`
	BilledHours decimal.Decimal `json:"billedHours"`
	WriteOff    decimal.Decimal `json:"writeOff"`
}

// ProjectDetails is the denormalized summary payload: five normalized
// collections referencing each other by id.
type ProjectDetails struct {
	Tasks               normalize.Collection[*TaskItem]               `json:"tasks"`
	Modules             normalize.Collection[*ModuleItem]             `json:"modules"`
	Phases              normalize.Collection[*PhaseItem]              `json:"phases"`
	ResourceAllocations normalize.Collection[*ResourceAllocationItem] `json:"resourceAllocations"`
	Assignees           normalize.Collection[*Assignee]               `json:"assignees"`
}

// ProjectSummary is the GET project response.
type ProjectSummary struct {
	ID          string         `json:"id"`
	ProjectName string         `json:"projectName"`
	Details     ProjectDetails `json:"details"`
}

// AllocationDetail is one resource-allocation row joined through the
// estimate resource to the employee and their location. Join columns are
// nullable because the resource or employee link may be absent.
type AllocationDetail struct {
	ID                 int64               `db:"id"`
	EstimateLineItemID int64               `db:"estimate_line_item_id"`
	EstimateResourceID int64               `db:"estimate_resource_id"`
	BilledHours        decimal.NullDecimal `db:"billed_hours"`
	WriteOff           decimal.NullDecimal `db:"write_off"`
	HourlyRate         decimal.NullDecimal `db:"hourly_rate"`
	EmployeeID         *int64              `db:"employee_id"`
	FirstName          *string             `db:"first_name"`
	MiddleName         *string             `db:"middle_name"`
	LastName           *string             `db:"last_name"`
	LocationID         *string             `db:"location_id"`
}

// RosterEntry is the slim estimate-resource projection used to attach
// estimateResourceId and projectRole to assignees.
type RosterEntry struct {
	ID          int64   `db:"id"`
	EmployeeID  *int64  `db:"employee_id"`
	ProjectRole *string `db:"project_role"`
}
