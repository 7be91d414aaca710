package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog persists one status transition or admin command execution.
// Writes are best-effort: a failed audit write is logged and never fails the
// scan that produced it.
type AuditLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	WorkOrderID string         `gorm:"index" json:"work_order_id"`
	EntityID    string         `gorm:"index" json:"entity_id"`
	EntityKind  string         `json:"entity_kind"` // part | hardware | nestsheet | workorder
	Station     string         `json:"station"`
	Actor       string         `json:"actor"` // username or connection id
	OldStatus   string         `json:"old_status"`
	NewStatus   string         `json:"new_status"`
	Detail      datatypes.JSON `json:"detail,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
