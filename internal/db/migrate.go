package db

import (
	"fmt"

	"github.com/wrenchworks/liftline/internal/config"
	"github.com/wrenchworks/liftline/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.RepairOrder{},
		&models.RepairItem{},
		&models.Worker{},
		&models.WorkerAssignment{},
		&models.WorkerTransfer{},
		&models.Lift{},
		&models.LiftAssignment{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedLifts upserts Lift rows from configuration.
func SeedLifts(db *gorm.DB, lifts []config.LiftConfig) error {
	for _, lc := range lifts {
		lift := models.Lift{
			ID:     lc.ID,
			Name:   lc.Name,
			Active: true,
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "active"}),
		}).Create(&lift)
		if result.Error != nil {
			return fmt.Errorf("db: seed lift %q: %w", lc.ID, result.Error)
		}
	}
	return nil
}

// SeedWorkers upserts Worker rows from configuration.
func SeedWorkers(db *gorm.DB, workers []config.WorkerConfig) error {
	for _, wc := range workers {
		workerType := wc.Type
		if workerType == "" {
			workerType = models.WorkerRepair
		}
		worker := models.Worker{
			ID:     wc.ID,
			Name:   wc.Name,
			Type:   workerType,
			Active: true,
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "type", "active"}),
		}).Create(&worker)
		if result.Error != nil {
			return fmt.Errorf("db: seed worker %q: %w", wc.ID, result.Error)
		}
	}
	return nil
}
