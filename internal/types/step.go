package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Step stores only parent_id; children are derived by query, never by
// stored back-references.
type Step struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PathwayID     uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_pathway_order_index" json:"pathway_id"`
	Pathway       *Pathway       `gorm:"constraint:OnDelete:CASCADE;foreignKey:PathwayID;references:ID" json:"pathway,omitempty"`
	ParentID      *uuid.UUID     `gorm:"type:uuid;column:parent_id;index" json:"parent_id,omitempty"`
	OrderIndex    int            `gorm:"column:order_index;not null;uniqueIndex:idx_pathway_order_index" json:"order_index"`
	Name          string         `gorm:"column:name;not null" json:"name"`
	Description   string         `gorm:"column:description" json:"description"`
	Milestone     bool           `gorm:"column:milestone;not null;default:false" json:"milestone"`
	Optional      bool           `gorm:"column:optional;not null;default:false" json:"optional"`
	BadgeClassID  *uuid.UUID     `gorm:"type:uuid;column:badge_class_id" json:"badge_class_id,omitempty"`
	ExternalBadge bool           `gorm:"column:external_badge;not null;default:false" json:"external_badge"`
	RuleType      string         `gorm:"column:rule_type;not null;default:'all'" json:"rule_type"`
	RequiredCount int            `gorm:"column:required_count;not null;default:0" json:"required_count"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Step) TableName() string { return "step" }
