package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wrenchworks/liftline/internal/bay"
	"github.com/wrenchworks/liftline/internal/fault"
)

func (s *api) handleFloor(c *gin.Context) {
	floor, err := bay.ComputeFloor(s.db, c.Param("id"), c.Query("excludeOrder"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if floor == nil {
		c.JSON(http.StatusOK, gin.H{"floor": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"floor": gin.H{
		"time":          floor.Time,
		"blockingOrder": floor.BlockingOrderID,
	}})
}

type assignLiftRequest struct {
	OrderID string    `json:"orderId"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

func (s *api) handleAssignLift(c *gin.Context) {
	var req assignLiftRequest
	if err := bindJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	assignment, err := bay.Assign(s.db, req.OrderID, c.Param("id"), req.Start, req.End)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignment": assignment})
}

func (s *api) handleRemoveLiftAssignment(c *gin.Context) {
	id, err := parseAssignmentID(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := bay.Remove(s.db, id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type partsWaitRequest struct {
	Waiting     bool       `json:"waiting"`
	WindowStart *time.Time `json:"windowStart"`
	WindowEnd   *time.Time `json:"windowEnd"`
}

func (s *api) handlePartsWait(c *gin.Context) {
	id, err := parseAssignmentID(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	var req partsWaitRequest
	if err := bindJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	if err := bay.SetPartsWait(s.db, id, req.Waiting, req.WindowStart, req.WindowEnd); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"waiting": req.Waiting})
}

func parseAssignmentID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fault.InvalidArgumentf("server: bad assignment id %q", raw)
	}
	return uint(id), nil
}
