package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditActionCreate  = "create"
	AuditActionUpdate  = "update"
	AuditActionMove    = "move"
	AuditActionDelete  = "delete"
	AuditActionPublish = "publish"
	AuditActionEnroll  = "enroll"
	AuditActionComplete = "complete"
)

// AuditEntry is append-only; nothing updates or deletes these rows.
type AuditEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID     uuid.UUID `gorm:"type:uuid;not null;index" json:"actor_id"`
	ActorEmail  string    `gorm:"column:actor_email" json:"actor_email,omitempty"`
	Action      string    `gorm:"column:action;not null" json:"action"`
	EntityType  string    `gorm:"column:entity_type;not null;index:idx_audit_entity" json:"entity_type"`
	EntityID    uuid.UUID `gorm:"type:uuid;not null;index:idx_audit_entity" json:"entity_id"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

func (AuditEntry) TableName() string { return "audit_entry" }
