package db

import (
	"fmt"

	"github.com/wrenchworks/liftline/internal/models"
	"gorm.io/gorm"
)

// Capabilities records which optional schema elements exist. Older shop
// databases predate the assignment ledger and, later, its engagement
// columns; the utilization projection degrades instead of failing when
// they are absent.
type Capabilities struct {
	HasLedgerTable       bool
	HasEngagementColumns bool
}

// DetectCapabilities probes the schema once. Callers should resolve this at
// startup and pass it down rather than re-probing per request.
func DetectCapabilities(db *gorm.DB) (Capabilities, error) {
	m := db.Migrator()

	caps := Capabilities{}
	if !m.HasTable(&models.WorkerAssignment{}) {
		return caps, nil
	}
	caps.HasLedgerTable = true
	caps.HasEngagementColumns = m.HasColumn(&models.WorkerAssignment{}, "workload_engaged_at")
	return caps, nil
}

// RequireLedger returns an error suitable for callers that cannot degrade.
func (c Capabilities) RequireLedger() error {
	if !c.HasLedgerTable {
		return fmt.Errorf("db: worker assignment ledger table is missing")
	}
	return nil
}
