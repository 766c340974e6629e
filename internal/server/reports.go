package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wrenchworks/liftline/internal/civil"
	"github.com/wrenchworks/liftline/internal/fault"
	"github.com/wrenchworks/liftline/internal/utilization"
)

// handleUtilization serves the per-worker workload report. Day defaults to
// the current civil day; override with ?day=2026-08-29.
func (s *api) handleUtilization(c *gin.Context) {
	day := time.Now().In(civil.Zone)
	if raw := c.Query("day"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, civil.Zone)
		if err != nil {
			s.writeError(c, fault.InvalidArgumentf("server: bad day %q, want YYYY-MM-DD", raw))
			return
		}
		day = parsed
	}

	report, err := utilization.BuildReport(s.db, day, utilization.Options{
		TargetMinutes: s.targetMinutes,
		WindowDays:    s.windowDays,
		Caps:          s.caps,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
