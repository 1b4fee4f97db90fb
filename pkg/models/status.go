package models

import "time"

// StatusType is one entry of the status catalog.
type StatusType struct {
	ID     string `json:"id" db:"id"`
	Status string `json:"status" db:"status"`
	Color  string `json:"color" db:"color"`
}

// StatusAssignment binds a task uid to a status within one estimate.
// (task_uid, estimate_id) is unique and is the upsert key.
type StatusAssignment struct {
	ID         string    `json:"id" db:"id"`
	EstimateID int64     `json:"estimateId" db:"estimate_id"`
	TaskUID    string    `json:"taskUid" db:"task_uid"`
	StatusID   string    `json:"statusId" db:"status_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}
