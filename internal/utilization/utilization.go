// Package utilization computes each worker's engaged-minutes for a civil day
// against a fixed daily target. It is a read-only projection over the ledger
// and tolerates three generations of schema: no ledger table at all, a ledger
// without engagement columns, and the fully populated form.
package utilization

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wrenchworks/liftline/internal/civil"
	"github.com/wrenchworks/liftline/internal/db"
	"github.com/wrenchworks/liftline/internal/models"
	"gorm.io/gorm"
)

// DefaultTargetMinutes is the daily target when none is configured.
const DefaultTargetMinutes = 480

// DefaultWindowDays bounds how far back ledger rows are gathered. Only rows
// touched within the trailing window can count toward the target day, so
// unbounded history never loads.
const DefaultWindowDays = 3

// WorkerUtilization is one worker's engaged workload for the target day.
type WorkerUtilization struct {
	WorkerID           string `json:"workerId"`
	Name               string `json:"name"`
	Type               string `json:"type"`
	AssignedMinutes    int    `json:"assignedMinutes"`
	AssignedJobs       int    `json:"assignedJobs"`
	UtilizationPercent int    `json:"utilizationPercent"`
	RemainingMinutes   int    `json:"remainingMinutes"`
}

// Report partitions worker utilization by shop domain.
type Report struct {
	Day           time.Time           `json:"day"`
	TargetMinutes int                 `json:"targetMinutes"`
	RepairWorkers []WorkerUtilization `json:"repairWorkers"`
	PaintWorkers  []WorkerUtilization `json:"paintWorkers"`
}

// Options tunes report building.
type Options struct {
	TargetMinutes int
	WindowDays    int
	Caps          db.Capabilities
}

// reducedRow is the pre-engagement ledger shape, scanned with an explicit
// column list so the query works against old schemas.
type reducedRow struct {
	ItemID     string
	WorkerID   string
	AssignedAt time.Time
}

// BuildReport computes utilization for the civil day containing day.
func BuildReport(gdb *gorm.DB, day time.Time, opts Options) (*Report, error) {
	if opts.TargetMinutes <= 0 {
		opts.TargetMinutes = DefaultTargetMinutes
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}

	workers, err := activeWorkers(gdb)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		minutes int
		jobs    int
	}
	buckets := make(map[string]*bucket, len(workers))
	for id := range workers {
		buckets[id] = &bucket{}
	}
	count := func(workerID string, countedAt time.Time, estimate *int) {
		b, ok := buckets[workerID]
		if !ok || !civil.OnDay(countedAt, day) {
			return
		}
		if estimate != nil {
			b.minutes += *estimate
		}
		b.jobs++
	}

	windowStart := civil.StartOfDay(day).AddDate(0, 0, -opts.WindowDays)

	switch {
	case opts.Caps.HasLedgerTable && opts.Caps.HasEngagementColumns:
		var rows []models.WorkerAssignment
		err := gdb.Where("assigned_at >= ? OR workload_engaged_at >= ?", windowStart, windowStart).
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("utilization: load ledger rows: %w", err)
		}
		items, err := itemsByID(gdb, itemIDs(rows))
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			item := items[row.ItemID]
			countedAt, ok := countedTimestamp(row, item)
			if !ok {
				continue
			}
			var estimate *int
			if item != nil {
				estimate = item.EstimatedDurationMinutes
			}
			count(row.WorkerID, countedAt, estimate)
		}

	case opts.Caps.HasLedgerTable:
		// Transitional schema: the ledger exists but predates the engagement
		// columns, so assignment time is the best available signal.
		var rows []reducedRow
		err := gdb.Model(&models.WorkerAssignment{}).
			Select("item_id", "worker_id", "assigned_at").
			Where("assigned_at >= ?", windowStart).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("utilization: load reduced ledger rows: %w", err)
		}
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ItemID)
		}
		items, err := itemsByID(gdb, ids)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			var estimate *int
			if item := items[row.ItemID]; item != nil {
				estimate = item.EstimatedDurationMinutes
			}
			count(row.WorkerID, row.AssignedAt, estimate)
		}

	default:
		// Oldest schema: no ledger at all. The item's single primary worker
		// and start time stand in for an engagement. Ledger rows are never
		// consulted here, so a worker cannot be counted twice.
		var items []models.RepairItem
		err := gdb.Where("started_at >= ? AND primary_worker_id IS NOT NULL", windowStart).
			Find(&items).Error
		if err != nil {
			return nil, fmt.Errorf("utilization: load legacy items: %w", err)
		}
		for _, item := range items {
			if item.StartedAt == nil || item.PrimaryWorkerID == nil {
				continue
			}
			count(*item.PrimaryWorkerID, *item.StartedAt, item.EstimatedDurationMinutes)
		}
	}

	report := &Report{
		Day:           civil.StartOfDay(day),
		TargetMinutes: opts.TargetMinutes,
	}
	for id, w := range workers {
		b := buckets[id]
		u := WorkerUtilization{
			WorkerID:           w.ID,
			Name:               w.Name,
			Type:               w.Type,
			AssignedMinutes:    b.minutes,
			AssignedJobs:       b.jobs,
			UtilizationPercent: percent(b.minutes, opts.TargetMinutes),
			RemainingMinutes:   max(0, opts.TargetMinutes-b.minutes),
		}
		if w.Type == models.WorkerPaint {
			report.PaintWorkers = append(report.PaintWorkers, u)
		} else {
			report.RepairWorkers = append(report.RepairWorkers, u)
		}
	}
	sortByUtilization(report.RepairWorkers)
	sortByUtilization(report.PaintWorkers)
	return report, nil
}

// countedTimestamp resolves the moment a ledger row starts counting:
// engagement first, then legacy assignment time, then the item's own start
// when it belongs to this worker.
func countedTimestamp(row models.WorkerAssignment, item *models.RepairItem) (time.Time, bool) {
	if row.WorkloadEngagedAt != nil {
		return *row.WorkloadEngagedAt, true
	}
	if !row.AssignedAt.IsZero() {
		return row.AssignedAt, true
	}
	if item != nil && item.StartedAt != nil &&
		item.PrimaryWorkerID != nil && *item.PrimaryWorkerID == row.WorkerID {
		return *item.StartedAt, true
	}
	return time.Time{}, false
}

func percent(minutes, target int) int {
	p := float64(minutes) / float64(target) * 100
	if p > 100 {
		p = 100
	}
	return int(math.Round(p))
}

func sortByUtilization(list []WorkerUtilization) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].UtilizationPercent != list[j].UtilizationPercent {
			return list[i].UtilizationPercent > list[j].UtilizationPercent
		}
		return list[i].Name < list[j].Name
	})
}

func activeWorkers(gdb *gorm.DB) (map[string]models.Worker, error) {
	var list []models.Worker
	if err := gdb.Where("active = ?", true).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("utilization: load workers: %w", err)
	}
	workers := make(map[string]models.Worker, len(list))
	for _, w := range list {
		workers[w.ID] = w
	}
	return workers, nil
}

func itemIDs(rows []models.WorkerAssignment) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ItemID)
	}
	return ids
}

func itemsByID(gdb *gorm.DB, ids []string) (map[string]*models.RepairItem, error) {
	items := make(map[string]*models.RepairItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	var list []models.RepairItem
	if err := gdb.Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("utilization: load items: %w", err)
	}
	for i := range list {
		items[list[i].ID] = &list[i]
	}
	return items, nil
}
