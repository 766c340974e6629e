// Package identity carries the per-request actor through context. Identity
// is issued upstream (session layer, out of scope here); this package only
// transports and checks it.
package identity

import (
	"context"

	"github.com/wrenchworks/liftline/internal/models"
)

// Roles recognized by the engine.
const (
	RoleAdmin      = "admin"
	RoleRepairLead = "repair_lead"
	RolePaintLead  = "paint_lead"
	RoleTechnician = "technician"
	RoleScheduler  = "scheduler"
)

// Actor identifies who is making a request.
type Actor struct {
	ID       string
	Role     string
	WorkerID string // set when the actor is also a shop-floor worker
}

type actorKey struct{}

// WithActor returns a context with the actor embedded.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor from context, or a zero Actor if not set.
func FromContext(ctx context.Context) Actor {
	if v := ctx.Value(actorKey{}); v != nil {
		return v.(Actor)
	}
	return Actor{}
}

// CanMarkPriority reports whether the actor may priority-mark an item in the
// given domain. Admins may always; leads only within their own domain.
func (a Actor) CanMarkPriority(domain string) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RolePaintLead:
		return domain == models.DomainPaint
	case RoleRepairLead:
		return domain == models.DomainRepair
	default:
		return false
	}
}
