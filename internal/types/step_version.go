package types

import (
	"time"

	"github.com/google/uuid"
)

// StepVersion copies a live step by value at publish time. StepID and
// ParentStepID reference live rows for traceability only; they carry
// no FK constraint so later live deletes cannot touch the snapshot.
type StepVersion struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PathwayVersionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"pathway_version_id"`
	PathwayVersion   *PathwayVersion `gorm:"constraint:OnDelete:CASCADE;foreignKey:PathwayVersionID;references:ID" json:"pathway_version,omitempty"`
	StepID           uuid.UUID       `gorm:"type:uuid;column:step_id;index" json:"step_id"`
	ParentStepID     *uuid.UUID      `gorm:"type:uuid;column:parent_step_id" json:"parent_step_id,omitempty"`
	OrderIndex       int             `gorm:"column:order_index;not null" json:"order_index"`
	Name             string          `gorm:"column:name;not null" json:"name"`
	Description      string          `gorm:"column:description" json:"description"`
	Milestone        bool            `gorm:"column:milestone;not null;default:false" json:"milestone"`
	Optional         bool            `gorm:"column:optional;not null;default:false" json:"optional"`
	BadgeClassID     *uuid.UUID      `gorm:"type:uuid;column:badge_class_id" json:"badge_class_id,omitempty"`
	ExternalBadge    bool            `gorm:"column:external_badge;not null;default:false" json:"external_badge"`
	RuleType         string          `gorm:"column:rule_type;not null" json:"rule_type"`
	RequiredCount    int             `gorm:"column:required_count;not null;default:0" json:"required_count"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
}

func (StepVersion) TableName() string { return "step_version" }
