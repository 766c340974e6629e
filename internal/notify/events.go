package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/wrenchworks/liftline/internal/civil"
	"github.com/wrenchworks/liftline/internal/models"
)

// OrderCompleted builds the message announcing that every item on an order
// has been finished and the vehicle is ready for return.
func OrderCompleted(order *models.RepairOrder, items []models.RepairItem) Message {
	var bodyLines []string
	if order.ReceiveDate != nil {
		bodyLines = append(bodyLines, fmt.Sprintf("Received %s",
			order.ReceiveDate.In(civil.Zone).Format("Jan 2 15:04")))
	}
	if order.ReturnDate != nil {
		bodyLines = append(bodyLines, fmt.Sprintf("Ready for return %s",
			order.ReturnDate.In(civil.Zone).Format("Jan 2 15:04")))
	}
	for _, item := range items {
		line := "  " + item.Name
		if item.CompletedAt != nil {
			line += " (" + item.CompletedAt.In(civil.Zone).Format("15:04") + ")"
		}
		bodyLines = append(bodyLines, line)
	}

	fields := []Field{
		{Name: "Order", Value: order.ID, Short: true},
		{Name: "Items", Value: fmt.Sprintf("%d", len(items)), Short: true},
	}
	if order.ReceiveDate != nil && order.ReturnDate != nil {
		fields = append(fields, Field{
			Name:  "Turnaround",
			Value: formatDuration(order.ReturnDate.Sub(*order.ReceiveDate)),
			Short: true,
		})
	}

	return Message{
		Title:    fmt.Sprintf("Order %s completed", order.ID),
		Body:     strings.Join(bodyLines, "\n"),
		Severity: "success",
		Color:    ColorSuccess,
		Fields:   fields,
	}
}

// PartsWaitStarted builds the message announcing that an order's lift work is
// paused on a parts delivery.
func PartsWaitStarted(orderID string, since time.Time) Message {
	return Message{
		Title:    fmt.Sprintf("Order %s waiting for parts", orderID),
		Body:     fmt.Sprintf("Paused since %s", since.In(civil.Zone).Format("Jan 2 15:04")),
		Severity: "warning",
		Color:    ColorWarning,
		Fields: []Field{
			{Name: "Order", Value: orderID, Short: true},
		},
	}
}

// formatDuration renders a duration as a short human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h >= 24 {
		days := h / 24
		return fmt.Sprintf("%dd %dh", days, h%24)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
