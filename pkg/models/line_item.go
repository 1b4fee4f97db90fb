package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemType tags a line item as a phase, module or leaf task.
type LineItemType string

const (
	LineItemTypePhase LineItemType = "Phase"
	// The module tag is stored with this spelling in the legacy database.
	// The database is shared with the older system, so the value stays
	// verbatim in storage and on the wire.
	LineItemTypeModule LineItemType = "Modyule"
	LineItemTypeTask   LineItemType = "Task"
)

// LineItem is a single WBS node. Phases sit at the root, modules under
// phases, tasks under modules. All scheduling fields are nullable.
type LineItem struct {
	ID         int64               `json:"id" db:"id"`
	UID        *string             `json:"uid" db:"uid"`
	EstimateID int64               `json:"estimateId" db:"estimate_id"`
	Name       *string             `json:"name" db:"name"`
	StartDate  *time.Time          `json:"startDate" db:"start_date"`
	EndDate    *time.Time          `json:"endDate" db:"end_date"`
	Duration   *int                `json:"duration" db:"duration"`
	Hours      decimal.NullDecimal `json:"hours" db:"hours"`
	Notes      *string             `json:"notes" db:"notes"`
	ParentID   *int64              `json:"parentId" db:"parent_id"`
	LinkedTo   *string             `json:"linkedTo" db:"linked_to"`
	Type       LineItemType        `json:"type" db:"type"`
	CreatedAt  time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time           `json:"updatedAt" db:"updated_at"`
}

// HoursOrZero returns the item's hours, treating NULL as zero.
func (l *LineItem) HoursOrZero() decimal.Decimal {
	if !l.Hours.Valid {
		return decimal.Zero
	}
	return l.Hours.Decimal
}
