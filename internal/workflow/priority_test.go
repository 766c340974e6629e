package workflow

import (
	"testing"
	"time"

	"github.com/wrenchworks/liftline/internal/fault"
	"github.com/wrenchworks/liftline/internal/identity"
	"github.com/wrenchworks/liftline/internal/models"
)

var (
	admin      = identity.Actor{ID: "u-admin", Role: identity.RoleAdmin}
	repairLead = identity.Actor{ID: "u-rlead", Role: identity.RoleRepairLead}
	paintLead  = identity.Actor{ID: "u-plead", Role: identity.RolePaintLead}
	technician = identity.Actor{ID: "u-tech", Role: identity.RoleTechnician}
)

func TestMarkPriority_StampsAllRowsAndEngages(t *testing.T) {
	gdb := testDB(t)
	seedOrder(t, gdb, "ro-1")
	seedItem(t, gdb, itemSpec{id: "it-1", orderID: "ro-1"})
	seedWorker(t, gdb, "w-1", models.WorkerRepair)
	seedWorker(t, gdb, "w-2", models.WorkerRepair)
	if err := AddWorker(gdb, "it-1", "w-1", nil); err != nil {
		t.Fatalf("AddWorker w-1: %v", err)
	}
	if err := AddWorker(gdb, "it-1", "w-2", nil); err != nil {
		t.Fatalf("AddWorker w-2: %v", err)
	}

	markedAt, err := MarkPriorityToday(gdb, "it-1", admin)
	if err != nil {
		t.Fatalf("MarkPriorityToday: %v", err)
	}
	if markedAt.IsZero() {
		t.Fatal("markedAt is zero")
	}

	for _, workerID := range []string{"w-1", "w-2"} {
		row := loadLedgerRow(t, gdb, "it-1", workerID)
		if row.PriorityMarkedAt == nil {
			t.Errorf("%s: priority_marked_at not set", workerID)
			continue
		}
		if row.WorkloadEngagedAt == nil {
			t.Errorf("%s: workload_engaged_at not set", workerID)
			continue
		}
		if row.WorkloadEngagedBy != models.EngagedByPriority {
			t.Errorf("%s: engaged by = %q, want priority", workerID, row.WorkloadEngagedBy)
		}
	}
}

func TestMarkPriority_KeepsEarlierEngagement(t *testing.T) {
	gdb := testDB(t)
	seedOrder(t, gdb, "ro-1")
	seedItem(t, gdb, itemSpec{id: "it-1", orderID: "ro-1"})
	seedWorker(t, gdb, "w-1", models.WorkerRepair)
	if err := AddWorker(gdb, "it-1", "w-1", nil); err != nil {
		t.Fatalf("AddWorker: %v", err)
	}

	earlier := time.Date(2026, 8, 29, 1, 30, 0, 0, time.UTC)
	presetEngagement(t, gdb, "it-1", "w-1", earlier, models.EngagedByStart)

	if _, err := MarkPriorityToday(gdb, "it-1", admin); err != nil {
		t.Fatalf("MarkPriorityToday: %v", err)
	}

	row := loadLedgerRow(t, gdb, "it-1", "w-1")
	if row.WorkloadEngagedAt == nil || !row.WorkloadEngagedAt.Equal(earlier) {
		t.Errorf("engagement overwritten: got %v, want %v", row.WorkloadEngagedAt, earlier)
	}
	if row.WorkloadEngagedBy != models.EngagedByStart {
		t.Errorf("engagement source overwritten: got %q, want start", row.WorkloadEngagedBy)
	}
	if row.PriorityMarkedAt == nil {
		t.Error("priority_marked_at should still be stamped")
	}
}

func TestMarkPriority_NonPendingConflict(t *testing.T) {
	gdb := testDB(t)
	seedOrder(t, gdb, "ro-1")
	seedItem(t, gdb, itemSpec{id: "it-1", orderID: "ro-1", status: models.StatusInProgress})
	seedWorker(t, gdb, "w-1", models.WorkerRepair)
	// Ledger row exists, but status rules it out.
	gdb.Create(&models.WorkerAssignment{ItemID: "it-1", WorkerID: "w-1", AssignedAt: time.Now()})

	_, err := MarkPriorityToday(gdb, "it-1", admin)
	if !fault.Is(err, fault.Conflict) {
		t.Errorf("kind = %q, want conflict", fault.KindOf(err))
	}
}

func TestMarkPriority_NoWorkersConflict(t *testing.T) {
	gdb := testDB(t)
	seedOrder(t, gdb, "ro-1")
	seedItem(t, gdb, itemSpec{id: "it-1", orderID: "ro-1"})

	_, err := MarkPriorityToday(gdb, "it-1", admin)
	if !fault.Is(err, fault.Conflict) {
		t.Errorf("kind = %q, want conflict", fault.KindOf(err))
	}
}

func TestMarkPriority_RolePermissions(t *testing.T) {
	tests := []struct {
		name     string
		domain   string
		actor    identity.Actor
		wantKind fault.Kind
	}{
		{"admin on repair", models.DomainRepair, admin, ""},
		{"admin on paint", models.DomainPaint, admin, ""},
		{"repair lead on repair", models.DomainRepair, repairLead, ""},
		{"paint lead on paint", models.DomainPaint, paintLead, ""},
		{"repair lead on paint", models.DomainPaint, repairLead, fault.Forbidden},
		{"paint lead on repair", models.DomainRepair, paintLead, fault.Forbidden},
		{"technician", models.DomainRepair, technician, fault.Forbidden},
	}
	for _, tt := range tests {
		gdb := testDB(t)
		seedOrder(t, gdb, "ro-1")
		seedItem(t, gdb, itemSpec{id: "it-1", orderID: "ro-1", domain: tt.domain})
		seedWorker(t, gdb, "w-1", models.WorkerRepair)
		if err := AddWorker(gdb, "it-1", "w-1", nil); err != nil {
			t.Fatalf("%s: AddWorker: %v", tt.name, err)
		}

		_, err := MarkPriorityToday(gdb, "it-1", tt.actor)
		if got := fault.KindOf(err); got != tt.wantKind {
			t.Errorf("%s: kind = %q, want %q (err: %v)", tt.name, got, tt.wantKind, err)
		}
	}
}

func TestMarkPriority_ItemNotFound(t *testing.T) {
	gdb := testDB(t)

	_, err := MarkPriorityToday(gdb, "it-missing", admin)
	if !fault.Is(err, fault.NotFound) {
		t.Errorf("kind = %q, want not_found", fault.KindOf(err))
	}
}
