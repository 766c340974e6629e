package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wrenchworks/liftline/internal/identity"
	"github.com/wrenchworks/liftline/internal/models"
	"github.com/wrenchworks/liftline/internal/notify"
	"github.com/wrenchworks/liftline/internal/workflow"
)

type startItemRequest struct {
	WorkerID string `json:"workerId"`
	ParentID string `json:"parentId"`
	OrderID  string `json:"orderId"`
}

func (s *api) handleStartItem(c *gin.Context) {
	var req startItemRequest
	if err := bindJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	err := workflow.Start(s.db, c.Param("id"), workflow.StartOpts{
		WorkerID: req.WorkerID,
		ParentID: req.ParentID,
		OrderID:  req.OrderID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusInProgress})
}

type completeItemRequest struct {
	WorkerID string `json:"workerId"`
	ParentID string `json:"parentId"`
	OrderID  string `json:"orderId"`
}

func (s *api) handleCompleteItem(c *gin.Context) {
	var req completeItemRequest
	if err := bindJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	result, err := workflow.Complete(s.db, c.Param("id"), workflow.CompleteOpts{
		WorkerID: req.WorkerID,
		ParentID: req.ParentID,
		OrderID:  req.OrderID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	if result.OrderCompleted {
		s.announceOrderCompleted(c, result.OrderID)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          models.StatusCompleted,
		"orderId":         result.OrderID,
		"parentCompleted": result.ParentCompleted,
		"orderCompleted":  result.OrderCompleted,
	})
}

// announceOrderCompleted pushes the order-completed event to chat. Failures
// are logged by the fanout and never surface to the API caller.
func (s *api) announceOrderCompleted(c *gin.Context, orderID string) {
	if s.notify == nil || !s.notify.Enabled() || orderID == "" {
		return
	}
	var order models.RepairOrder
	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		s.log.Error().Err(err).Str("order", orderID).Msg("load order for notification")
		return
	}
	var items []models.RepairItem
	if err := s.db.Where("order_id = ? AND parent_id IS NULL", orderID).
		Order("completed_at").Find(&items).Error; err != nil {
		s.log.Error().Err(err).Str("order", orderID).Msg("load items for notification")
		return
	}
	s.notify.Send(c.Request.Context(), notify.OrderCompleted(&order, items))
}

func (s *api) handleMarkPriority(c *gin.Context) {
	actor := identity.FromContext(c.Request.Context())
	markedAt, err := workflow.MarkPriorityToday(s.db, c.Param("id"), actor)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markedAt": markedAt})
}

type addWorkerRequest struct {
	WorkerID                 string `json:"workerId"`
	EstimatedDurationMinutes *int   `json:"estimatedDurationMinutes"`
}

func (s *api) handleAddWorker(c *gin.Context) {
	var req addWorkerRequest
	if err := bindJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	err := workflow.AddWorker(s.db, c.Param("id"), req.WorkerID, req.EstimatedDurationMinutes)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"itemId": c.Param("id"), "workerId": req.WorkerID})
}

func (s *api) handleRemoveWorker(c *gin.Context) {
	err := workflow.RemoveWorker(s.db, c.Param("id"), c.Param("workerId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type transferRequest struct {
	FromWorkerID string `json:"fromWorkerId"`
	ToWorkerID   string `json:"toWorkerId"`
}

func (s *api) handleTransferWorker(c *gin.Context) {
	var req transferRequest
	if err := bindJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	err := workflow.TransferWorker(s.db, c.Param("id"), req.FromWorkerID, req.ToWorkerID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"itemId": c.Param("id"),
		"from":   req.FromWorkerID,
		"to":     req.ToWorkerID,
	})
}

func (s *api) handleTransferHistory(c *gin.Context) {
	transfers, err := workflow.TransferHistory(s.db, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}
