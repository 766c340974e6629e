package models

import "time"

// Lift assignment statuses.
const (
	LiftQueued    = "queued"
	LiftOnLift    = "on_lift"
	LiftCompleted = "completed"
)

// Lift is a physical vehicle hoist. Lifts are mutually exclusive: at most
// one order may occupy a lift for any time window.
type Lift struct {
	ID        string `gorm:"primaryKey;size:32"`
	Name      string `gorm:"not null"`
	Active    bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LiftAssignment schedules a repair order onto a lift for a time window.
// Removing an order from a lift clears LiftID but keeps the row for history.
type LiftAssignment struct {
	ID              uint    `gorm:"primaryKey;autoIncrement"`
	RepairOrderID   string  `gorm:"size:32;not null;index"`
	LiftID          *string `gorm:"size:32;index"`
	ScheduledStart  *time.Time
	ScheduledEnd    *time.Time
	Status          string `gorm:"size:16;default:queued;index"`
	WaitingForParts bool   `gorm:"default:false"`
	PartsWaitStart  *time.Time
	PartsWaitEnd    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	RepairOrder RepairOrder `gorm:"foreignKey:RepairOrderID"`
	Lift        *Lift       `gorm:"foreignKey:LiftID"`
}
