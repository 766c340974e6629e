package workflow

import (
	"fmt"
	"time"

	"github.com/wrenchworks/liftline/internal/fault"
	"github.com/wrenchworks/liftline/internal/models"
	"gorm.io/gorm"
)

// StartOpts holds optional parameters for starting an item.
type StartOpts struct {
	WorkerID string // technician beginning the work
	ParentID string // pulls the parent into in_progress
	OrderID  string // pulls the owning order into in_progress
}

// Start moves an item to in_progress, records the starting worker in the
// ledger, and idempotently pulls the parent item and owning order along.
func Start(db *gorm.DB, itemID string, opts StartOpts) error {
	if itemID == "" {
		return fault.InvalidArgumentf("workflow: item id is required")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		item, err := getItem(tx, itemID)
		if err != nil {
			return err
		}
		if item.Status == models.StatusCompleted {
			return fault.Conflictf("workflow: item %s is already completed", itemID)
		}

		now := time.Now()
		updates := map[string]interface{}{"status": models.StatusInProgress}
		if item.StartedAt == nil {
			updates["started_at"] = now
		}
		if opts.WorkerID != "" && item.PrimaryWorkerID == nil {
			updates["primary_worker_id"] = opts.WorkerID
		}
		if err := tx.Model(&models.RepairItem{}).Where("id = ?", itemID).Updates(updates).Error; err != nil {
			return fmt.Errorf("workflow: start item %s: %w", itemID, err)
		}

		if opts.WorkerID != "" {
			if err := ensureLedgerRow(tx, itemID, opts.WorkerID, now, models.EngagedByStart); err != nil {
				return err
			}
		}

		if opts.ParentID != "" {
			if err := pullItemInProgress(tx, opts.ParentID, now); err != nil {
				return err
			}
		}
		if opts.OrderID != "" {
			if err := pullOrderInProgress(tx, opts.OrderID, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// pullItemInProgress moves a pending item to in_progress. Items already in
// progress or completed are left untouched.
func pullItemInProgress(tx *gorm.DB, itemID string, now time.Time) error {
	var count int64
	if err := tx.Model(&models.RepairItem{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
		return fmt.Errorf("workflow: check parent %s: %w", itemID, err)
	}
	if count == 0 {
		return fault.NotFoundf("workflow: parent item not found: %s", itemID)
	}

	err := tx.Model(&models.RepairItem{}).
		Where("id = ? AND status = ?", itemID, models.StatusPending).
		Updates(map[string]interface{}{
			"status":     models.StatusInProgress,
			"started_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("workflow: pull parent %s in progress: %w", itemID, err)
	}
	return nil
}

// pullOrderInProgress moves a pending order to in_progress.
func pullOrderInProgress(tx *gorm.DB, orderID string, now time.Time) error {
	var count int64
	if err := tx.Model(&models.RepairOrder{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return fmt.Errorf("workflow: check order %s: %w", orderID, err)
	}
	if count == 0 {
		return fault.NotFoundf("workflow: order not found: %s", orderID)
	}

	err := tx.Model(&models.RepairOrder{}).
		Where("id = ? AND status = ?", orderID, models.StatusPending).
		Update("status", models.StatusInProgress).Error
	if err != nil {
		return fmt.Errorf("workflow: pull order %s in progress: %w", orderID, err)
	}
	return nil
}
