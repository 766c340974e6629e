package utilization

import (
	"testing"
	"time"

	"github.com/wrenchworks/liftline/internal/civil"
	liftdb "github.com/wrenchworks/liftline/internal/db"
	"github.com/wrenchworks/liftline/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	day     = time.Date(2026, 8, 29, 0, 0, 0, 0, civil.Zone)
	fullCap = liftdb.Capabilities{HasLedgerTable: true, HasEngagementColumns: true}
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

func seedWorker(t *testing.T, gdb *gorm.DB, id, name, workerType string) {
	t.Helper()
	if err := gdb.Create(&models.Worker{ID: id, Name: name, Type: workerType, Active: true}).Error; err != nil {
		t.Fatalf("seed worker %s: %v", id, err)
	}
}

func seedItem(t *testing.T, gdb *gorm.DB, id string, estimate *int) {
	t.Helper()
	item := models.RepairItem{
		ID:                       id,
		OrderID:                  "ro-1",
		Name:                     "Item " + id,
		Status:                   models.StatusPending,
		EstimatedDurationMinutes: estimate,
	}
	if err := gdb.Create(&item).Error; err != nil {
		t.Fatalf("seed item %s: %v", id, err)
	}
}

func seedRow(t *testing.T, gdb *gorm.DB, itemID, workerID string, assignedAt time.Time, engagedAt *time.Time) {
	t.Helper()
	row := models.WorkerAssignment{
		ItemID:            itemID,
		WorkerID:          workerID,
		AssignedAt:        assignedAt,
		WorkloadEngagedAt: engagedAt,
	}
	if engagedAt != nil {
		row.WorkloadEngagedBy = models.EngagedByStart
	}
	if err := gdb.Create(&row).Error; err != nil {
		t.Fatalf("seed ledger row (%s, %s): %v", itemID, workerID, err)
	}
}

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func findWorker(t *testing.T, list []WorkerUtilization, id string) WorkerUtilization {
	t.Helper()
	for _, u := range list {
		if u.WorkerID == id {
			return u
		}
	}
	t.Fatalf("worker %s not in report", id)
	return WorkerUtilization{}
}

func TestBuildReport_SumsEngagedToday(t *testing.T) {
	gdb := testDB(t)
	seedWorker(t, gdb, "w-1", "Anan", models.WorkerRepair)
	seedItem(t, gdb, "it-1", intPtr(90))
	seedItem(t, gdb, "it-2", intPtr(45))
	seedItem(t, gdb, "it-3", intPtr(200))

	morning := day.Add(8 * time.Hour)
	seedRow(t, gdb, "it-1", "w-1", morning, timePtr(morning))
	seedRow(t, gdb, "it-2", "w-1", morning, timePtr(day.Add(10*time.Hour)))
	// Engaged yesterday: excluded.
	seedRow(t, gdb, "it-3", "w-1", day.Add(-5*time.Hour), timePtr(day.Add(-5*time.Hour)))

	report, err := BuildReport(gdb, day, Options{TargetMinutes: 480, Caps: fullCap})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	u := findWorker(t, report.RepairWorkers, "w-1")
	if u.AssignedMinutes != 135 {
		t.Errorf("AssignedMinutes = %d, want 135", u.AssignedMinutes)
	}
	if u.AssignedJobs != 2 {
		t.Errorf("AssignedJobs = %d, want 2", u.AssignedJobs)
	}
	if u.UtilizationPercent != 28 {
		t.Errorf("UtilizationPercent = %d, want 28", u.UtilizationPercent)
	}
	if u.RemainingMinutes != 345 {
		t.Errorf("RemainingMinutes = %d, want 345", u.RemainingMinutes)
	}
}

func TestBuildReport_PriorityMarkCountsBeforeStart(t *testing.T) {
	gdb := testDB(t)
	seedWorker(t, gdb, "w-1", "Anan", models.WorkerRepair)
	seedItem(t, gdb, "it-1", intPtr(60))

	// Assigned at 09:00 unengaged; priority-marked at 09:05 engages the row.
	assigned := day.Add(9 * time.Hour)
	marked := day.Add(9*time.Hour + 5*time.Minute)
	row := models.WorkerAssignment{
		ItemID:            "it-1",
		WorkerID:          "w-1",
		AssignedAt:        assigned,
		WorkloadEngagedAt: &marked,
		WorkloadEngagedBy: models.EngagedByPriority,
		PriorityMarkedAt:  &marked,
	}
	if err := gdb.Create(&row).Error; err != nil {
		t.Fatalf("seed row: %v", err)
	}

	report, err := BuildReport(gdb, day.Add(9*time.Hour+10*time.Minute), Options{TargetMinutes: 480, Caps: fullCap})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	u := findWorker(t, report.RepairWorkers, "w-1")
	if u.AssignedMinutes != 60 || u.AssignedJobs != 1 {
		t.Errorf("minutes=%d jobs=%d, want 60 and 1", u.AssignedMinutes, u.AssignedJobs)
	}
}

func TestBuildReport_LegacyRowFallsBackToAssignedAt(t *testing.T) {
	gdb := testDB(t)
	seedWorker(t, gdb, "w-1", "Anan", models.WorkerRepair)
	seedItem(t, gdb, "it-1", intPtr(120))

	// Transitional null: the row predates engagement writes.
	seedRow(t, gdb, "it-1", "w-1", day.Add(7*time.Hour), nil)

	report, err := BuildReport(gdb, day, Options{TargetMinutes: 480, Caps: fullCap})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	u := findWorker(t, report.RepairWorkers, "w-1")
	if u.AssignedMinutes != 120 || u.AssignedJobs != 1 {
		t.Errorf("minutes=%d jobs=%d, want 120 and 1 via assigned_at fallback", u.AssignedMinutes, u.AssignedJobs)
	}
}

func TestBuildReport_MissingEstimateCountsZeroMinutes(t *testing.T) {
	gdb := testDB(t)
	seedWorker(t, gdb, "w-1", "Anan", models.WorkerRepair)
	seedItem(t, gdb, "it-1", nil)

	at := day.Add(8 * time.Hour)
	seedRow(t, gdb, "it-1", "w-1", at, timePtr(at))

	report, err := BuildReport(gdb, day, Options{TargetMinutes: 480, Caps: fullCap})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	u := findWorker(t, report.RepairWorkers, "w-1")
	if u.AssignedMinutes != 0 {
		t.Errorf("AssignedMinutes = %d, want 0 for missing estimate", u.AssignedMinutes)
	}
	if u.AssignedJobs != 1 {
		t.Errorf("AssignedJobs = %d, want 1", u.AssignedJobs)
	}
	if u.RemainingMinutes != 480 {
		t.Errorf("RemainingMinutes = %d, want full target", u.RemainingMinutes)
	}
}

func TestBuildReport_CapsAtHundredPercent(t *testing.T) {
	gdb := testDB(t)
	seedWorker(t, gdb, "w-1", "Anan", models.WorkerRepair)
	seedItem(t, gdb, "it-1", intPtr(600))

	at := day.Add(8 * time.Hour)
	seedRow(t, gdb, "it-1", "w-1", at, timePtr(at))

	report, err := BuildReport(gdb, day, Options{TargetMinutes: 480, Caps: fullCap})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	u := findWorker(t, report.RepairWorkers, "w-1")
	if u.UtilizationPercent != 100 {
		t.Errorf("UtilizationPercent = %d, want capped 100", u.UtilizationPercent)
	}
	if u.RemainingMinutes != 0 {
		t.Errorf("RemainingMinutes = %d, want 0", u.RemainingMinutes)
	}
}

func TestBuildReport_PartitionsAndSorts(t *testing.T) {
	gdb := testDB(t)
	seedWorker(t, gdb, "w-r1", "Anan", models.WorkerRepair)
	seedWorker(t, gdb, "w-r2", "Boon", models.WorkerRepair)
	seedWorker(t, gdb, "w-p1", "Chai", models.WorkerPaint)
	seedItem(t, gdb, "it-1", intPtr(240))
	seedItem(t, gdb, "it-2", intPtr(60))
	seedItem(t, gdb, "it-3", intPtr(120))

	at := day.Add(8 * time.Hour)
	seedRow(t, gdb, "it-1", "w-r2", at, timePtr(at))
	seedRow(t, gdb, "it-2", "w-r1", at, timePtr(at))
	seedRow(t, gdb, "it-3", "w-p1", at, timePtr(at))

	report, err := BuildReport(gdb, day, Options{TargetMinutes: 480, Caps: fullCap})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if len(report.RepairWorkers) != 2 {
		t.Fatalf("repair workers = %d, want 2", len(report.RepairWorkers))
	}
	if report.RepairWorkers[0].WorkerID != "w-r2" {
		t.Errorf("repair[0] = %s, want w-r2 (higher utilization first)", report.RepairWorkers[0].WorkerID)
	}
	if len(report.PaintWorkers) != 1 || report.PaintWorkers[0].WorkerID != "w-p1" {
		t.Errorf("paint partition = %+v, want just w-p1", report.PaintWorkers)
	}
}

func TestBuildReport_TransitionalSchemaUsesAssignedAt(t *testing.T) {
	gdb := testDB(t)
	seedWorker(t, gdb, "w-1", "Anan", models.WorkerRepair)
	seedItem(t, gdb, "it-1", intPtr(90))

	// Engagement exists in the row but the schema reports no such columns;
	// the reduced query must count assigned_at instead of failing.
	engaged := day.AddDate(0, 0, 1)
	seedRow(t, gdb, "it-1", "w-1", day.Add(8*time.Hour), timePtr(engaged))

	caps := liftdb.Capabilities{HasLedgerTable: true, HasEngagementColumns: false}
	report, err := BuildReport(gdb, day, Options{TargetMinutes: 480, Caps: caps})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	u := findWorker(t, report.RepairWorkers, "w-1")
	if u.AssignedMinutes != 90 || u.AssignedJobs != 1 {
		t.Errorf("minutes=%d jobs=%d, want 90 and 1 from assigned_at", u.AssignedMinutes, u.AssignedJobs)
	}
}

func TestBuildReport_NoLedgerDegradesToItems(t *testing.T) {
	gdb := testDB(t)
	seedWorker(t, gdb, "w-1", "Anan", models.WorkerRepair)

	started := day.Add(9 * time.Hour)
	worker := "w-1"
	item := models.RepairItem{
		ID:                       "it-1",
		OrderID:                  "ro-1",
		Name:                     "Legacy item",
		Status:                   models.StatusInProgress,
		StartedAt:                &started,
		PrimaryWorkerID:          &worker,
		EstimatedDurationMinutes: intPtr(60),
	}
	if err := gdb.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	report, err := BuildReport(gdb, day, Options{TargetMinutes: 480, Caps: liftdb.Capabilities{}})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	u := findWorker(t, report.RepairWorkers, "w-1")
	if u.AssignedMinutes != 60 || u.AssignedJobs != 1 {
		t.Errorf("minutes=%d jobs=%d, want 60 and 1 from item fallback", u.AssignedMinutes, u.AssignedJobs)
	}
}

func TestBuildReport_DefaultTarget(t *testing.T) {
	gdb := testDB(t)
	seedWorker(t, gdb, "w-1", "Anan", models.WorkerRepair)

	report, err := BuildReport(gdb, day, Options{Caps: fullCap})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if report.TargetMinutes != DefaultTargetMinutes {
		t.Errorf("TargetMinutes = %d, want default %d", report.TargetMinutes, DefaultTargetMinutes)
	}

	u := findWorker(t, report.RepairWorkers, "w-1")
	if u.AssignedMinutes != 0 || u.UtilizationPercent != 0 {
		t.Errorf("idle worker = %+v, want zeros", u)
	}
}
