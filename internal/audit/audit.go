// Package audit reports status transitions and admin command executions to a
// sink. Audit failures are logged and never fail the operation that produced
// them; there is no internal retry.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"gorm.io/datatypes"

	"github.com/millwork-io/shoptrak/internal/database"
	"github.com/millwork-io/shoptrak/internal/models"
)

// Event is one auditable occurrence.
type Event struct {
	WorkOrderID string
	EntityID    string
	EntityKind  string
	Station     string
	Actor       string
	OldStatus   models.PartStatus
	NewStatus   models.PartStatus
	Detail      map[string]interface{}
}

// Sink receives audit events.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// GormSink persists events as AuditLog rows.
type GormSink struct {
	db *database.DB
}

// NewGormSink wraps a database handle.
func NewGormSink(db *database.DB) *GormSink {
	return &GormSink{db: db}
}

// Record writes one row. Failure is non-fatal.
func (s *GormSink) Record(ctx context.Context, ev Event) {
	row := models.AuditLog{
		WorkOrderID: ev.WorkOrderID,
		EntityID:    ev.EntityID,
		EntityKind:  ev.EntityKind,
		Station:     ev.Station,
		Actor:       ev.Actor,
		OldStatus:   string(ev.OldStatus),
		NewStatus:   string(ev.NewStatus),
		CreatedAt:   time.Now().UTC(),
	}
	if ev.Detail != nil {
		if raw, err := json.Marshal(ev.Detail); err == nil {
			row.Detail = datatypes.JSON(raw)
		}
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("⚠️ Audit write failed for %s/%s: %v", ev.WorkOrderID, ev.EntityID, err)
	}
}

// LogSink writes events to the process log only. Used in tests and when the
// database sink is unavailable.
type LogSink struct{}

// Record logs the event.
func (LogSink) Record(_ context.Context, ev Event) {
	log.Printf("audit: wo=%s %s %s %s→%s station=%s actor=%s",
		ev.WorkOrderID, ev.EntityKind, ev.EntityID, ev.OldStatus, ev.NewStatus, ev.Station, ev.Actor)
}
