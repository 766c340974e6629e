// Package workflow advances repair items through their lifecycle and keeps
// the worker assignment ledger consistent. Every operation runs inside a
// single transaction; cascade checks re-read committed state at call time so
// concurrent sibling completions are each individually safe.
package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/wrenchworks/liftline/internal/fault"
	"github.com/wrenchworks/liftline/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// getItem loads a repair item or returns a NotFound fault.
func getItem(tx *gorm.DB, itemID string) (*models.RepairItem, error) {
	var item models.RepairItem
	if err := tx.Where("id = ?", itemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.NotFoundf("workflow: item not found: %s", itemID)
		}
		return nil, fmt.Errorf("workflow: get item %s: %w", itemID, err)
	}
	return &item, nil
}

// ensureLedgerRow inserts a pre-engaged ledger row for (item, worker) if none
// exists, then applies the engagement to any pre-existing row that is still
// unengaged. The conditional update makes the engagement first-writer-wins:
// a row that already carries a timestamp is never overwritten.
func ensureLedgerRow(tx *gorm.DB, itemID, workerID string, now time.Time, source string) error {
	row := models.WorkerAssignment{
		ItemID:            itemID,
		WorkerID:          workerID,
		AssignedAt:        now,
		WorkloadEngagedAt: &now,
		WorkloadEngagedBy: source,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("workflow: upsert ledger row (%s, %s): %w", itemID, workerID, err)
	}

	err := tx.Model(&models.WorkerAssignment{}).
		Where("item_id = ? AND worker_id = ? AND workload_engaged_at IS NULL", itemID, workerID).
		Updates(map[string]interface{}{
			"workload_engaged_at": now,
			"workload_engaged_by": source,
		}).Error
	if err != nil {
		return fmt.Errorf("workflow: engage ledger row (%s, %s): %w", itemID, workerID, err)
	}
	return nil
}
