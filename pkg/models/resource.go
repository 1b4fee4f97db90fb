package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Location ids as stored in the legacy locations table.
const (
	LocationIDUSA = "USA"
	LocationIDIND = "IND"
)

// Hourly cost rates are derived from the employee's location, not stored.
var (
	CostRateUSA = decimal.RequireFromString("153.00")
	CostRateIND = decimal.RequireFromString("45.00")
)

// CostRateForLocation returns the hourly cost rate for a location id.
// Unknown or missing locations rate at zero.
func CostRateForLocation(locationID string) decimal.Decimal {
	switch locationID {
	case LocationIDUSA:
		return CostRateUSA
	case LocationIDIND:
		return CostRateIND
	default:
		return decimal.NewFromInt(0)
	}
}

type Location struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Employee struct {
	ID         int64   `json:"id" db:"id"`
	FirstName  string  `json:"firstName" db:"first_name"`
	MiddleName *string `json:"middleName" db:"middle_name"`
	LastName   string  `json:"lastName" db:"last_name"`
	LocationID *string `json:"locationId" db:"location_id"`
}

// EstimateResource is an employee's membership on an estimate's roster.
type EstimateResource struct {
	ID          int64               `json:"id" db:"id"`
	EstimateID  int64               `json:"estimateId" db:"estimate_id"`
	EmployeeID  int64               `json:"employeeId" db:"employee_id"`
	ProjectRole *string             `json:"projectRole" db:"project_role"`
	HourlyRate  decimal.NullDecimal `json:"hourlyRate" db:"hourly_rate"`
}

// ResourceAllocation assigns part of a roster member's time to a task.
type ResourceAllocation struct {
	ID                 int64           `json:"id" db:"id"`
	EstimateLineItemID int64           `json:"estimateLineItemId" db:"estimate_line_item_id"`
	EstimateResourceID int64           `json:"estimateResourceId" db:"estimate_resource_id"`
	BilledHours        decimal.Decimal `json:"billedHours" db:"billed_hours"`
	WriteOff           decimal.Decimal `json:"writeOff" db:"write_off"`
	CreatedAt          time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time       `json:"updatedAt" db:"updated_at"`
}
