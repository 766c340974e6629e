// Package notify pushes shop events to chat platforms (Slack, Discord).
// Delivery is outbound-only and best-effort: a failed send is logged, never
// propagated into the workflow that triggered it.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Color constants for message severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// Notifier is the interface platform-specific senders must satisfy.
type Notifier interface {
	// Send delivers a message to the platform's configured channel.
	Send(ctx context.Context, msg Message) error

	// Close releases the platform connection.
	Close() error
}

// Message is a shop event formatted for display in chat.
type Message struct {
	Title    string  // headline (e.g. "Order RO-1042 completed")
	Body     string  // detail text
	Severity string  // "info", "warning", "error", "success"
	Color    string  // sidebar color hint
	Fields   []Field // key-value metadata pairs
}

// Field is a key-value pair displayed alongside a message.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}

// severityColor maps a severity string to a sidebar color.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return ColorSuccess
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	default:
		return ColorInfo
	}
}

// Fanout delivers each message to every configured notifier. Send never
// returns an error; per-platform failures are logged and swallowed so one
// broken integration cannot block the others or the calling workflow.
type Fanout struct {
	notifiers []Notifier
	log       zerolog.Logger
}

// NewFanout creates a Fanout over the given notifiers. Nil entries are skipped.
func NewFanout(log zerolog.Logger, notifiers ...Notifier) *Fanout {
	f := &Fanout{log: log}
	for _, n := range notifiers {
		if n != nil {
			f.notifiers = append(f.notifiers, n)
		}
	}
	return f
}

// Send delivers msg to all notifiers.
func (f *Fanout) Send(ctx context.Context, msg Message) {
	if msg.Color == "" {
		msg.Color = severityColor(msg.Severity)
	}
	for _, n := range f.notifiers {
		if err := n.Send(ctx, msg); err != nil {
			f.log.Error().Err(err).Str("title", msg.Title).Msg("notify: send failed")
		}
	}
}

// Close shuts down all notifiers.
func (f *Fanout) Close() {
	for _, n := range f.notifiers {
		if err := n.Close(); err != nil {
			f.log.Error().Err(err).Msg("notify: close failed")
		}
	}
}

// Enabled reports whether at least one platform is configured.
func (f *Fanout) Enabled() bool {
	return len(f.notifiers) > 0
}
