package models

import "time"

// Estimate is a project estimate, the root of the line-item hierarchy.
type Estimate struct {
	ID          int64     `json:"id" db:"id"`
	ProjectName string    `json:"projectName" db:"project_name"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
