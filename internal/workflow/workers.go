package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/wrenchworks/liftline/internal/civil"
	"github.com/wrenchworks/liftline/internal/fault"
	"github.com/wrenchworks/liftline/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddWorker assigns a worker to an item. Duplicate adds are idempotent: the
// (item, worker) pair is the ledger's primary key and a second add neither
// errors nor creates a second row. When the item was priority-marked today,
// the mark and its engagement credit propagate onto the row so late joiners
// still count toward utilization.
func AddWorker(db *gorm.DB, itemID, workerID string, estimatedMinutes *int) error {
	if itemID == "" || workerID == "" {
		return fault.InvalidArgumentf("workflow: item id and worker id are required")
	}
	if estimatedMinutes != nil && *estimatedMinutes <= 0 {
		return fault.InvalidArgumentf("workflow: estimated duration must be a positive number of minutes, got %d", *estimatedMinutes)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		item, err := getItem(tx, itemID)
		if err != nil {
			return err
		}
		if err := checkWorker(tx, workerID); err != nil {
			return err
		}

		now := time.Now()
		row := models.WorkerAssignment{
			ItemID:     itemID,
			WorkerID:   workerID,
			AssignedAt: now,
		}

		markedAt, err := priorityMarkToday(tx, itemID, now)
		if err != nil {
			return err
		}
		if markedAt != nil {
			row.PriorityMarkedAt = markedAt
			row.WorkloadEngagedAt = markedAt
			row.WorkloadEngagedBy = models.EngagedByPriority
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("workflow: add worker %s to %s: %w", workerID, itemID, err)
		}

		if markedAt != nil {
			// A pre-existing row also receives the mark; its engagement is
			// only filled when still null.
			err := tx.Model(&models.WorkerAssignment{}).
				Where("item_id = ? AND worker_id = ?", itemID, workerID).
				Update("priority_marked_at", markedAt).Error
			if err != nil {
				return fmt.Errorf("workflow: propagate priority mark to (%s, %s): %w", itemID, workerID, err)
			}
			err = tx.Model(&models.WorkerAssignment{}).
				Where("item_id = ? AND worker_id = ? AND workload_engaged_at IS NULL", itemID, workerID).
				Updates(map[string]interface{}{
					"workload_engaged_at": markedAt,
					"workload_engaged_by": models.EngagedByPriority,
				}).Error
			if err != nil {
				return fmt.Errorf("workflow: propagate engagement to (%s, %s): %w", itemID, workerID, err)
			}
		}

		itemUpdates := map[string]interface{}{}
		if item.PrimaryWorkerID == nil {
			itemUpdates["primary_worker_id"] = workerID
		}
		if estimatedMinutes != nil {
			itemUpdates["estimated_duration_minutes"] = *estimatedMinutes
		}
		if len(itemUpdates) > 0 {
			if err := tx.Model(&models.RepairItem{}).Where("id = ?", itemID).Updates(itemUpdates).Error; err != nil {
				return fmt.Errorf("workflow: update item %s: %w", itemID, err)
			}
		}
		return nil
	})
}

// RemoveWorker deletes the worker's ledger row. Removing a worker who is not
// assigned is a no-op, not an error. The primary worker slot is cleared when
// it pointed at the removed worker.
func RemoveWorker(db *gorm.DB, itemID, workerID string) error {
	if itemID == "" || workerID == "" {
		return fault.InvalidArgumentf("workflow: item id and worker id are required")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		item, err := getItem(tx, itemID)
		if err != nil {
			return err
		}

		err = tx.Where("item_id = ? AND worker_id = ?", itemID, workerID).
			Delete(&models.WorkerAssignment{}).Error
		if err != nil {
			return fmt.Errorf("workflow: remove worker %s from %s: %w", workerID, itemID, err)
		}

		if item.PrimaryWorkerID != nil && *item.PrimaryWorkerID == workerID {
			err := tx.Model(&models.RepairItem{}).Where("id = ?", itemID).
				Update("primary_worker_id", nil).Error
			if err != nil {
				return fmt.Errorf("workflow: clear primary worker on %s: %w", itemID, err)
			}
		}
		return nil
	})
}

// TransferWorker hands an item from one worker to another: the transfer is
// recorded in history, the outgoing row is deleted, the incoming row is
// created if absent, and the incoming worker becomes primary.
func TransferWorker(db *gorm.DB, itemID, fromWorkerID, toWorkerID string) error {
	if itemID == "" || fromWorkerID == "" || toWorkerID == "" {
		return fault.InvalidArgumentf("workflow: item id and both worker ids are required")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := getItem(tx, itemID); err != nil {
			return err
		}
		if err := checkWorker(tx, toWorkerID); err != nil {
			return err
		}

		now := time.Now()
		transfer := models.WorkerTransfer{
			ItemID:        itemID,
			FromWorkerID:  fromWorkerID,
			ToWorkerID:    toWorkerID,
			TransferredAt: now,
		}
		if err := tx.Create(&transfer).Error; err != nil {
			return fmt.Errorf("workflow: record transfer on %s: %w", itemID, err)
		}

		err := tx.Where("item_id = ? AND worker_id = ?", itemID, fromWorkerID).
			Delete(&models.WorkerAssignment{}).Error
		if err != nil {
			return fmt.Errorf("workflow: remove outgoing worker %s from %s: %w", fromWorkerID, itemID, err)
		}

		row := models.WorkerAssignment{
			ItemID:     itemID,
			WorkerID:   toWorkerID,
			AssignedAt: now,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("workflow: add incoming worker %s to %s: %w", toWorkerID, itemID, err)
		}

		err = tx.Model(&models.RepairItem{}).Where("id = ?", itemID).
			Update("primary_worker_id", toWorkerID).Error
		if err != nil {
			return fmt.Errorf("workflow: set primary worker on %s: %w", itemID, err)
		}
		return nil
	})
}

// TransferHistory lists transfers for an item, oldest first.
func TransferHistory(db *gorm.DB, itemID string) ([]models.WorkerTransfer, error) {
	var transfers []models.WorkerTransfer
	err := db.Where("item_id = ?", itemID).Order("transferred_at ASC, id ASC").
		Find(&transfers).Error
	if err != nil {
		return nil, fmt.Errorf("workflow: transfer history of %s: %w", itemID, err)
	}
	return transfers, nil
}

// checkWorker verifies the worker exists.
func checkWorker(tx *gorm.DB, workerID string) error {
	var worker models.Worker
	if err := tx.Select("id").Where("id = ?", workerID).First(&worker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fault.NotFoundf("workflow: worker not found: %s", workerID)
		}
		return fmt.Errorf("workflow: check worker %s: %w", workerID, err)
	}
	return nil
}

// priorityMarkToday returns the item's priority mark when one was made on
// now's civil day, nil otherwise.
func priorityMarkToday(tx *gorm.DB, itemID string, now time.Time) (*time.Time, error) {
	var row models.WorkerAssignment
	err := tx.Where("item_id = ? AND priority_marked_at IS NOT NULL", itemID).
		Order("priority_marked_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("workflow: check priority mark on %s: %w", itemID, err)
	}
	if row.PriorityMarkedAt == nil || !civil.SameDay(*row.PriorityMarkedAt, now) {
		return nil, nil
	}
	return row.PriorityMarkedAt, nil
}
