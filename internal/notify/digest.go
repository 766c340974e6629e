package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/wrenchworks/liftline/internal/civil"
	"github.com/wrenchworks/liftline/internal/models"
	"github.com/wrenchworks/liftline/internal/utilization"
	"gorm.io/gorm"
)

// DailyDigest holds end-of-day metrics for one civil day.
type DailyDigest struct {
	Day             time.Time
	OrdersCompleted int
	ItemsCompleted  int
	ItemsInProgress int
	WaitingForParts int
	OnLift          int
	TopWorkers      []utilization.WorkerUtilization
}

// digestTopWorkers bounds how many workers the digest names.
const digestTopWorkers = 3

// BuildDailyDigest queries the day's activity and formats it for chat.
// Worker percentages honor the configured target and window from opts.
// Returns nil when the shop saw no activity, so quiet days send nothing.
func BuildDailyDigest(gdb *gorm.DB, day time.Time, opts utilization.Options) (*Message, error) {
	digest, err := buildDailyDigest(gdb, day, opts)
	if err != nil {
		return nil, fmt.Errorf("notify: daily digest: %w", err)
	}
	if digest.OrdersCompleted == 0 && digest.ItemsCompleted == 0 &&
		digest.ItemsInProgress == 0 && digest.OnLift == 0 {
		return nil, nil
	}
	msg := formatDailyDigest(digest)
	return &msg, nil
}

func buildDailyDigest(gdb *gorm.DB, day time.Time, opts utilization.Options) (*DailyDigest, error) {
	start := civil.StartOfDay(day)
	end := civil.EndOfDay(day)
	digest := &DailyDigest{Day: start}

	var ordersCompleted int64
	err := gdb.Model(&models.RepairOrder{}).
		Where("status = ? AND return_date >= ? AND return_date < ?", models.StatusCompleted, start, end).
		Count(&ordersCompleted).Error
	if err != nil {
		return nil, err
	}
	digest.OrdersCompleted = int(ordersCompleted)

	var itemsCompleted int64
	err = gdb.Model(&models.RepairItem{}).
		Where("status = ? AND completed_at >= ? AND completed_at < ?", models.StatusCompleted, start, end).
		Count(&itemsCompleted).Error
	if err != nil {
		return nil, err
	}
	digest.ItemsCompleted = int(itemsCompleted)

	var itemsInProgress int64
	err = gdb.Model(&models.RepairItem{}).
		Where("status = ?", models.StatusInProgress).
		Count(&itemsInProgress).Error
	if err != nil {
		return nil, err
	}
	digest.ItemsInProgress = int(itemsInProgress)

	var waiting int64
	err = gdb.Model(&models.RepairOrder{}).
		Where("waiting_for_parts = ?", true).
		Count(&waiting).Error
	if err != nil {
		return nil, err
	}
	digest.WaitingForParts = int(waiting)

	var onLift int64
	err = gdb.Model(&models.LiftAssignment{}).
		Where("status = ?", models.LiftOnLift).
		Count(&onLift).Error
	if err != nil {
		return nil, err
	}
	digest.OnLift = int(onLift)

	report, err := utilization.BuildReport(gdb, day, opts)
	if err != nil {
		return nil, err
	}
	top := append([]utilization.WorkerUtilization{}, report.RepairWorkers...)
	top = append(top, report.PaintWorkers...)
	for _, u := range top {
		if u.AssignedMinutes == 0 {
			continue
		}
		digest.TopWorkers = append(digest.TopWorkers, u)
		if len(digest.TopWorkers) == digestTopWorkers {
			break
		}
	}

	return digest, nil
}

func formatDailyDigest(digest *DailyDigest) Message {
	var bodyLines []string
	bodyLines = append(bodyLines, fmt.Sprintf("**Day**: %s", digest.Day.Format("Jan 2 2006")))
	bodyLines = append(bodyLines, fmt.Sprintf("**Orders completed**: %d", digest.OrdersCompleted))
	bodyLines = append(bodyLines, fmt.Sprintf("**Items**: %d completed, %d in progress",
		digest.ItemsCompleted, digest.ItemsInProgress))
	if digest.OnLift > 0 {
		bodyLines = append(bodyLines, fmt.Sprintf("**On lifts**: %d", digest.OnLift))
	}
	if digest.WaitingForParts > 0 {
		bodyLines = append(bodyLines, fmt.Sprintf("**Waiting for parts**: %d", digest.WaitingForParts))
	}
	if len(digest.TopWorkers) > 0 {
		bodyLines = append(bodyLines, "")
		bodyLines = append(bodyLines, "**Busiest workers**:")
		for _, u := range digest.TopWorkers {
			bodyLines = append(bodyLines, fmt.Sprintf("  %s: %dm across %d jobs (%d%%)",
				u.Name, u.AssignedMinutes, u.AssignedJobs, u.UtilizationPercent))
		}
	}

	fields := []Field{
		{Name: "Orders", Value: fmt.Sprintf("%d", digest.OrdersCompleted), Short: true},
		{Name: "Items", Value: fmt.Sprintf("%d", digest.ItemsCompleted), Short: true},
	}
	if digest.OnLift > 0 {
		fields = append(fields, Field{Name: "On Lifts", Value: fmt.Sprintf("%d", digest.OnLift), Short: true})
	}
	if digest.WaitingForParts > 0 {
		fields = append(fields, Field{Name: "Parts Wait", Value: fmt.Sprintf("%d", digest.WaitingForParts), Short: true})
	}

	return Message{
		Title:    "Daily Shop Digest",
		Body:     strings.Join(bodyLines, "\n"),
		Severity: "info",
		Color:    ColorInfo,
		Fields:   fields,
	}
}
