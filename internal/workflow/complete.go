package workflow

import (
	"fmt"
	"time"

	"github.com/wrenchworks/liftline/internal/fault"
	"github.com/wrenchworks/liftline/internal/models"
	"gorm.io/gorm"
)

// CompleteOpts holds optional parameters for completing an item.
type CompleteOpts struct {
	WorkerID string // technician who finished; recorded as primary worker
	ParentID string // cascade target: complete the parent when no children remain
	OrderID  string // cascade target: complete the order when no top-level items remain
}

// CompleteResult reports what a completion call cascaded into.
type CompleteResult struct {
	OrderID         string // owning order of the completed item
	ParentCompleted bool
	OrderCompleted  bool
}

// Complete marks an item completed and cascades upward. The cascade re-reads
// sibling state inside the transaction rather than trusting any caller
// snapshot, so whichever concurrent completion observes zero remaining
// performs the parent/order completion, and performing it twice is a no-op.
func Complete(db *gorm.DB, itemID string, opts CompleteOpts) (CompleteResult, error) {
	var res CompleteResult
	if itemID == "" {
		return res, fault.InvalidArgumentf("workflow: item id is required")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		item, err := getItem(tx, itemID)
		if err != nil {
			return err
		}
		if item.Status == models.StatusCompleted {
			return fault.Conflictf("workflow: item %s is already completed", itemID)
		}
		res.OrderID = item.OrderID

		now := time.Now()
		updates := map[string]interface{}{
			"status":       models.StatusCompleted,
			"completed_at": now,
		}
		if opts.WorkerID != "" {
			updates["primary_worker_id"] = opts.WorkerID
		}
		if err := tx.Model(&models.RepairItem{}).Where("id = ?", itemID).Updates(updates).Error; err != nil {
			return fmt.Errorf("workflow: complete item %s: %w", itemID, err)
		}

		if opts.ParentID != "" {
			done, err := completeParentIfDone(tx, opts.ParentID, now)
			if err != nil {
				return err
			}
			res.ParentCompleted = done
		}
		if opts.OrderID != "" {
			done, err := completeOrderIfDone(tx, opts.OrderID, now)
			if err != nil {
				return err
			}
			res.OrderCompleted = done
		}
		return nil
	})
	if err != nil {
		return CompleteResult{}, err
	}
	return res, nil
}

// completeParentIfDone completes the parent when none of its children remain
// incomplete. Returns true only when this call performed the completion.
func completeParentIfDone(tx *gorm.DB, parentID string, now time.Time) (bool, error) {
	var count int64
	if err := tx.Model(&models.RepairItem{}).Where("id = ?", parentID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("workflow: check parent %s: %w", parentID, err)
	}
	if count == 0 {
		return false, fault.NotFoundf("workflow: parent item not found: %s", parentID)
	}

	var remaining int64
	err := tx.Model(&models.RepairItem{}).
		Where("parent_id = ? AND status <> ?", parentID, models.StatusCompleted).
		Count(&remaining).Error
	if err != nil {
		return false, fmt.Errorf("workflow: count open children of %s: %w", parentID, err)
	}
	if remaining > 0 {
		return false, nil
	}

	result := tx.Model(&models.RepairItem{}).
		Where("id = ? AND status <> ?", parentID, models.StatusCompleted).
		Updates(map[string]interface{}{
			"status":       models.StatusCompleted,
			"completed_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("workflow: complete parent %s: %w", parentID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// completeOrderIfDone completes the order when none of its top-level items
// remain incomplete. Children are excluded: their truth rolls up through
// their parent item first. Completing the order also closes out its active
// lift assignment so the lift stops counting the order as an occupant.
func completeOrderIfDone(tx *gorm.DB, orderID string, now time.Time) (bool, error) {
	var count int64
	if err := tx.Model(&models.RepairOrder{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("workflow: check order %s: %w", orderID, err)
	}
	if count == 0 {
		return false, fault.NotFoundf("workflow: order not found: %s", orderID)
	}

	var remaining int64
	err := tx.Model(&models.RepairItem{}).
		Where("order_id = ? AND parent_id IS NULL AND status <> ?", orderID, models.StatusCompleted).
		Count(&remaining).Error
	if err != nil {
		return false, fmt.Errorf("workflow: count open items of order %s: %w", orderID, err)
	}
	if remaining > 0 {
		return false, nil
	}

	result := tx.Model(&models.RepairOrder{}).
		Where("id = ? AND status <> ?", orderID, models.StatusCompleted).
		Updates(map[string]interface{}{
			"status":      models.StatusCompleted,
			"return_date": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("workflow: complete order %s: %w", orderID, result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	err = tx.Model(&models.LiftAssignment{}).
		Where("repair_order_id = ? AND status <> ?", orderID, models.LiftCompleted).
		Update("status", models.LiftCompleted).Error
	if err != nil {
		return false, fmt.Errorf("workflow: release lift for order %s: %w", orderID, err)
	}
	return true, nil
}
