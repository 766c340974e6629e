package models

import "time"

// Item domains, used for lead-role permission checks.
const (
	DomainRepair = "repair"
	DomainPaint  = "paint"
)

// RepairItem is a trackable unit of work within a repair order. Nesting is
// one level deep: a child's ParentID never points at another child.
type RepairItem struct {
	ID                       string  `gorm:"primaryKey;size:32"`
	OrderID                  string  `gorm:"size:32;not null;index"`
	ParentID                 *string `gorm:"size:32;index"`
	Name                     string  `gorm:"not null"`
	Domain                   string  `gorm:"size:16;default:repair"`
	Status                   string  `gorm:"size:16;default:pending;index"`
	StartedAt                *time.Time
	CompletedAt              *time.Time
	PrimaryWorkerID          *string `gorm:"size:32"`
	EstimatedDurationMinutes *int
	CreatedAt                time.Time
	UpdatedAt                time.Time

	Order       RepairOrder        `gorm:"foreignKey:OrderID"`
	Parent      *RepairItem        `gorm:"foreignKey:ParentID"`
	Children    []RepairItem       `gorm:"foreignKey:ParentID"`
	Assignments []WorkerAssignment `gorm:"foreignKey:ItemID"`
}
