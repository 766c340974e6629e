package models

import "time"

// Worker types. A worker belongs to exactly one shop domain.
const (
	WorkerRepair = "repair"
	WorkerPaint  = "paint"
)

// Worker is a technician on the shop floor.
type Worker struct {
	ID        string `gorm:"primaryKey;size:32"`
	Name      string `gorm:"not null"`
	Type      string `gorm:"size:16;default:repair;index"`
	Active    bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
