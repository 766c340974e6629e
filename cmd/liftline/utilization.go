package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/wrenchworks/liftline/internal/civil"
	"github.com/wrenchworks/liftline/internal/db"
	"github.com/wrenchworks/liftline/internal/fault"
	"github.com/wrenchworks/liftline/internal/utilization"
)

func newUtilizationCmd() *cobra.Command {
	var (
		configPath string
		day        string
		target     int
	)

	cmd := &cobra.Command{
		Use:   "utilization",
		Short: "Show per-worker daily workload",
		Long:  "Prints each worker's engaged minutes and utilization against the daily target for one civil day.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUtilization(cmd, configPath, day, target)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "liftline.yaml", "path to Liftline config file")
	cmd.Flags().StringVarP(&day, "day", "d", "", "civil day to report (YYYY-MM-DD, default today)")
	cmd.Flags().IntVarP(&target, "target", "t", 0, "daily target minutes (overrides config)")
	return cmd
}

func runUtilization(cmd *cobra.Command, configPath, dayFlag string, target int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	day := time.Now().In(civil.Zone)
	if dayFlag != "" {
		day, err = time.ParseInLocation("2006-01-02", dayFlag, civil.Zone)
		if err != nil {
			return fault.InvalidArgumentf("bad day %q, want YYYY-MM-DD", dayFlag)
		}
	}

	caps, err := db.DetectCapabilities(gormDB)
	if err != nil {
		return err
	}

	if target <= 0 {
		target = cfg.Utilization.TargetMinutes
	}

	report, err := utilization.BuildReport(gormDB, day, utilization.Options{
		TargetMinutes: target,
		WindowDays:    cfg.Utilization.WindowDays,
		Caps:          caps,
	})
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), formatReport(report))
	return nil
}

// formatReport renders the utilization report as an aligned text table.
func formatReport(report *utilization.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Utilization for %s (target %dm)\n\n",
		report.Day.Format("Mon Jan 2 2006"), report.TargetMinutes)

	writeSection(&b, "Repair", report.RepairWorkers)
	writeSection(&b, "Paint", report.PaintWorkers)
	return b.String()
}

func writeSection(b *strings.Builder, title string, workers []utilization.WorkerUtilization) {
	fmt.Fprintf(b, "%s workers:\n", title)
	if len(workers) == 0 {
		fmt.Fprintln(b, "  (none)")
		fmt.Fprintln(b)
		return
	}

	nameWidth := len("Worker")
	for _, w := range workers {
		if len(w.Name) > nameWidth {
			nameWidth = len(w.Name)
		}
	}

	fmt.Fprintf(b, "  %-*s  %8s  %5s  %5s  %10s\n", nameWidth, "Worker", "Assigned", "Jobs", "Util", "Remaining")
	for _, w := range workers {
		fmt.Fprintf(b, "  %-*s  %7dm  %5d  %4d%%  %9dm\n",
			nameWidth, w.Name, w.AssignedMinutes, w.AssignedJobs, w.UtilizationPercent, w.RemainingMinutes)
	}
	fmt.Fprintln(b)
}
