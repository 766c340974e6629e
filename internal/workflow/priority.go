package workflow

import (
	"fmt"
	"time"

	"github.com/wrenchworks/liftline/internal/fault"
	"github.com/wrenchworks/liftline/internal/identity"
	"github.com/wrenchworks/liftline/internal/models"
	"gorm.io/gorm"
)

// MarkPriorityToday stamps every ledger row of a pending item with a priority
// mark, and engages any still-unengaged row so prioritized-but-unstarted work
// already counts toward today's utilization. Returns the mark timestamp.
//
// Only admins, or the lead of the item's domain, may mark priority.
func MarkPriorityToday(db *gorm.DB, itemID string, actor identity.Actor) (time.Time, error) {
	if itemID == "" {
		return time.Time{}, fault.InvalidArgumentf("workflow: item id is required")
	}

	var markedAt time.Time
	err := db.Transaction(func(tx *gorm.DB) error {
		item, err := getItem(tx, itemID)
		if err != nil {
			return err
		}
		if item.Status != models.StatusPending {
			return fault.Conflictf("workflow: item %s is %s, only pending items can be prioritized", itemID, item.Status)
		}

		var rows int64
		if err := tx.Model(&models.WorkerAssignment{}).Where("item_id = ?", itemID).Count(&rows).Error; err != nil {
			return fmt.Errorf("workflow: count ledger rows for %s: %w", itemID, err)
		}
		if rows == 0 {
			return fault.Conflictf("workflow: item %s has no assigned workers to prioritize", itemID)
		}

		if !actor.CanMarkPriority(item.Domain) {
			return fault.Forbiddenf("workflow: role %q may not prioritize %s-domain items", actor.Role, item.Domain)
		}

		markedAt = time.Now()
		err = tx.Model(&models.WorkerAssignment{}).
			Where("item_id = ?", itemID).
			Update("priority_marked_at", markedAt).Error
		if err != nil {
			return fmt.Errorf("workflow: mark priority on %s: %w", itemID, err)
		}

		// First writer wins: rows engaged by an earlier start keep their
		// original timestamp.
		err = tx.Model(&models.WorkerAssignment{}).
			Where("item_id = ? AND workload_engaged_at IS NULL", itemID).
			Updates(map[string]interface{}{
				"workload_engaged_at": markedAt,
				"workload_engaged_by": models.EngagedByPriority,
			}).Error
		if err != nil {
			return fmt.Errorf("workflow: engage prioritized rows on %s: %w", itemID, err)
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return markedAt, nil
}
