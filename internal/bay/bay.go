// Package bay schedules repair orders onto the shop's lifts. It is a guard,
// not an optimizer: lift selection is a human decision, the engine only
// rejects windows that would overlap an existing occupant.
package bay

import (
	"errors"
	"fmt"
	"time"

	"github.com/wrenchworks/liftline/internal/civil"
	"github.com/wrenchworks/liftline/internal/fault"
	"github.com/wrenchworks/liftline/internal/models"
	"gorm.io/gorm"
)

// Floor is the earliest time a lift becomes free: the latest scheduled end
// among its active occupants, and the order holding it.
type Floor struct {
	Time            time.Time
	BlockingOrderID string
}

// ComputeFloor returns the lift's floor, ignoring excludeOrderID's own
// assignment so an order can be re-scheduled on its current lift. Returns nil
// when the lift has no active occupant, or when the latest end already lies
// before the start of the current civil day (stale rows left by completed
// work that never got closed out).
func ComputeFloor(db *gorm.DB, liftID, excludeOrderID string) (*Floor, error) {
	var rows []models.LiftAssignment
	err := db.Where("lift_id = ? AND status <> ? AND repair_order_id <> ? AND scheduled_end IS NOT NULL",
		liftID, models.LiftCompleted, excludeOrderID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("bay: compute floor for lift %s: %w", liftID, err)
	}

	var floor *Floor
	for _, row := range rows {
		if floor == nil || row.ScheduledEnd.After(floor.Time) {
			floor = &Floor{Time: *row.ScheduledEnd, BlockingOrderID: row.RepairOrderID}
		}
	}
	if floor == nil {
		return nil, nil
	}
	if floor.Time.Before(civil.StartOfDay(time.Now())) {
		return nil, nil
	}
	return floor, nil
}

// Assign schedules an order onto a lift for [start, end). The floor check
// runs against committed state inside the call; there is no storage-level
// exclusion constraint backing it up, so two truly simultaneous assigns can
// in principle both pass — an accepted, documented risk.
//
// An order keeps a single active assignment row: re-assigning moves it.
func Assign(db *gorm.DB, orderID, liftID string, start, end time.Time) (*models.LiftAssignment, error) {
	if orderID == "" || liftID == "" {
		return nil, fault.InvalidArgumentf("bay: order id and lift id are required")
	}
	if end.Before(start) {
		return nil, fault.InvalidArgumentf("bay: window end %s is before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if start.Before(civil.StartOfDay(time.Now())) {
		return nil, fault.InvalidArgumentf("bay: window start %s is before the current day",
			start.Format(time.RFC3339))
	}

	var assignment models.LiftAssignment
	err := db.Transaction(func(tx *gorm.DB) error {
		var orderCount int64
		if err := tx.Model(&models.RepairOrder{}).Where("id = ?", orderID).Count(&orderCount).Error; err != nil {
			return fmt.Errorf("bay: check order %s: %w", orderID, err)
		}
		if orderCount == 0 {
			return fault.NotFoundf("bay: order not found: %s", orderID)
		}

		var lift models.Lift
		if err := tx.Where("id = ?", liftID).First(&lift).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.NotFoundf("bay: lift not found: %s", liftID)
			}
			return fmt.Errorf("bay: get lift %s: %w", liftID, err)
		}
		if !lift.Active {
			return fault.Conflictf("bay: lift %s is out of service", liftID)
		}

		floor, err := ComputeFloor(tx, liftID, orderID)
		if err != nil {
			return err
		}
		if floor != nil && start.Before(floor.Time) {
			return fault.Conflictf("bay: lift %s is occupied by order %s until %s",
				liftID, floor.BlockingOrderID, floor.Time.In(civil.Zone).Format(time.RFC3339)).
				With("blockingOrder", floor.BlockingOrderID).
				With("floorTime", floor.Time)
		}

		err = tx.Where("repair_order_id = ? AND status <> ?", orderID, models.LiftCompleted).
			First(&assignment).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			assignment = models.LiftAssignment{
				RepairOrderID:  orderID,
				LiftID:         &liftID,
				ScheduledStart: &start,
				ScheduledEnd:   &end,
				Status:         models.LiftOnLift,
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return fmt.Errorf("bay: create assignment for order %s: %w", orderID, err)
			}
		case err != nil:
			return fmt.Errorf("bay: find assignment for order %s: %w", orderID, err)
		default:
			updates := map[string]interface{}{
				"lift_id":         liftID,
				"scheduled_start": start,
				"scheduled_end":   end,
				"status":          models.LiftOnLift,
			}
			if err := tx.Model(&assignment).Updates(updates).Error; err != nil {
				return fmt.Errorf("bay: update assignment %d: %w", assignment.ID, err)
			}
			assignment.LiftID = &liftID
			assignment.ScheduledStart = &start
			assignment.ScheduledEnd = &end
			assignment.Status = models.LiftOnLift
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Remove takes an order off its lift. Only the lift reference is cleared;
// the row and its window stay as history.
func Remove(db *gorm.DB, assignmentID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := checkAssignment(tx, assignmentID); err != nil {
			return err
		}
		err := tx.Model(&models.LiftAssignment{}).Where("id = ?", assignmentID).
			Updates(map[string]interface{}{
				"lift_id": nil,
				"status":  models.LiftQueued,
			}).Error
		if err != nil {
			return fmt.Errorf("bay: remove assignment %d from lift: %w", assignmentID, err)
		}
		return nil
	})
}

// SetPartsWait annotates an assignment (and its owning order) as waiting for
// parts. The annotation never affects scheduling validity.
func SetPartsWait(db *gorm.DB, assignmentID uint, waiting bool, windowStart, windowEnd *time.Time) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var assignment models.LiftAssignment
		if err := tx.Where("id = ?", assignmentID).First(&assignment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.NotFoundf("bay: assignment not found: %d", assignmentID)
			}
			return fmt.Errorf("bay: get assignment %d: %w", assignmentID, err)
		}

		updates := map[string]interface{}{
			"waiting_for_parts": waiting,
			"parts_wait_start":  windowStart,
			"parts_wait_end":    windowEnd,
		}
		if err := tx.Model(&models.LiftAssignment{}).Where("id = ?", assignmentID).Updates(updates).Error; err != nil {
			return fmt.Errorf("bay: set parts wait on assignment %d: %w", assignmentID, err)
		}

		err := tx.Model(&models.RepairOrder{}).Where("id = ?", assignment.RepairOrderID).
			Updates(map[string]interface{}{
				"waiting_for_parts": waiting,
				"parts_wait_start":  windowStart,
				"parts_wait_end":    windowEnd,
			}).Error
		if err != nil {
			return fmt.Errorf("bay: mirror parts wait to order %s: %w", assignment.RepairOrderID, err)
		}
		return nil
	})
}

func checkAssignment(tx *gorm.DB, assignmentID uint) error {
	var count int64
	if err := tx.Model(&models.LiftAssignment{}).Where("id = ?", assignmentID).Count(&count).Error; err != nil {
		return fmt.Errorf("bay: check assignment %d: %w", assignmentID, err)
	}
	if count == 0 {
		return fault.NotFoundf("bay: assignment not found: %d", assignmentID)
	}
	return nil
}
