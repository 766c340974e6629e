package models

import "time"

// Engagement sources for WorkerAssignment.WorkloadEngagedBy.
const (
	EngagedByStart    = "start"
	EngagedByPriority = "priority"
)

// WorkerAssignment is one row of the worker-to-item ledger, unique per
// (item, worker). WorkloadEngagedAt is set at most once; the first writer
// wins and later start/priority calls never overwrite it.
type WorkerAssignment struct {
	ItemID            string    `gorm:"primaryKey;size:32"`
	WorkerID          string    `gorm:"primaryKey;size:32"`
	AssignedAt        time.Time `gorm:"index"`
	WorkloadEngagedAt *time.Time
	WorkloadEngagedBy string `gorm:"size:16"`
	PriorityMarkedAt  *time.Time

	Item   RepairItem `gorm:"foreignKey:ItemID"`
	Worker Worker     `gorm:"foreignKey:WorkerID"`
}

// WorkerTransfer records a handoff of an item from one worker to another.
// Rows are append-only history.
type WorkerTransfer struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	ItemID        string `gorm:"size:32;index"`
	FromWorkerID  string `gorm:"size:32"`
	ToWorkerID    string `gorm:"size:32"`
	TransferredAt time.Time
}
