package models

import "time"

// Order and item statuses. Transitions are forward-only.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// RepairOrder is a customer vehicle's visit to the shop. Its status is
// derived from its top-level items on every completion, never edited freely.
type RepairOrder struct {
	ID              string `gorm:"primaryKey;size:32"`
	Status          string `gorm:"size:16;default:pending;index"`
	ReceiveDate     *time.Time
	ReturnDate      *time.Time
	WaitingForParts bool `gorm:"default:false"`
	PartsWaitStart  *time.Time
	PartsWaitEnd    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []RepairItem `gorm:"foreignKey:OrderID"`
}
