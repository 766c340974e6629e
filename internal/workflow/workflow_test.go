package workflow

import (
	"errors"
	"testing"
	"time"

	liftdb "github.com/wrenchworks/liftline/internal/db"
	"github.com/wrenchworks/liftline/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := liftdb.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}

func seedWorker(t *testing.T, gdb *gorm.DB, id, workerType string) {
	t.Helper()
	w := models.Worker{ID: id, Name: "Worker " + id, Type: workerType, Active: true}
	if err := gdb.Create(&w).Error; err != nil {
		t.Fatalf("seed worker %s: %v", id, err)
	}
}

func seedOrder(t *testing.T, gdb *gorm.DB, id string) {
	t.Helper()
	o := models.RepairOrder{ID: id, Status: models.StatusPending}
	if err := gdb.Create(&o).Error; err != nil {
		t.Fatalf("seed order %s: %v", id, err)
	}
}

type itemSpec struct {
	id       string
	orderID  string
	parentID string
	domain   string
	status   string
}

func seedItem(t *testing.T, gdb *gorm.DB, spec itemSpec) {
	t.Helper()
	if spec.domain == "" {
		spec.domain = models.DomainRepair
	}
	if spec.status == "" {
		spec.status = models.StatusPending
	}
	item := models.RepairItem{
		ID:      spec.id,
		OrderID: spec.orderID,
		Name:    "Item " + spec.id,
		Domain:  spec.domain,
		Status:  spec.status,
	}
	if spec.parentID != "" {
		item.ParentID = &spec.parentID
	}
	if err := gdb.Create(&item).Error; err != nil {
		t.Fatalf("seed item %s: %v", spec.id, err)
	}
}

func loadItem(t *testing.T, gdb *gorm.DB, id string) models.RepairItem {
	t.Helper()
	var item models.RepairItem
	if err := gdb.First(&item, "id = ?", id).Error; err != nil {
		t.Fatalf("load item %s: %v", id, err)
	}
	return item
}

func loadOrder(t *testing.T, gdb *gorm.DB, id string) models.RepairOrder {
	t.Helper()
	var order models.RepairOrder
	if err := gdb.First(&order, "id = ?", id).Error; err != nil {
		t.Fatalf("load order %s: %v", id, err)
	}
	return order
}

func loadLedgerRow(t *testing.T, gdb *gorm.DB, itemID, workerID string) *models.WorkerAssignment {
	t.Helper()
	var row models.WorkerAssignment
	err := gdb.First(&row, "item_id = ? AND worker_id = ?", itemID, workerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("load ledger row (%s, %s): %v", itemID, workerID, err)
	}
	return &row
}

func ledgerCount(t *testing.T, gdb *gorm.DB, itemID string) int64 {
	t.Helper()
	var count int64
	if err := gdb.Model(&models.WorkerAssignment{}).Where("item_id = ?", itemID).Count(&count).Error; err != nil {
		t.Fatalf("count ledger rows: %v", err)
	}
	return count
}

// presetEngagement writes an engagement directly, simulating an earlier call.
func presetEngagement(t *testing.T, gdb *gorm.DB, itemID, workerID string, at time.Time, source string) {
	t.Helper()
	err := gdb.Model(&models.WorkerAssignment{}).
		Where("item_id = ? AND worker_id = ?", itemID, workerID).
		Updates(map[string]interface{}{
			"workload_engaged_at": at,
			"workload_engaged_by": source,
		}).Error
	if err != nil {
		t.Fatalf("preset engagement: %v", err)
	}
}
