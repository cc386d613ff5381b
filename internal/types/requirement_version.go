package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RequirementVersion copies a live requirement by value at publish
// time. RequirementID is traceability only, not an enforced FK.
type RequirementVersion struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StepVersionID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"step_version_id"`
	StepVersion           *StepVersion   `gorm:"constraint:OnDelete:CASCADE;foreignKey:StepVersionID;references:ID" json:"step_version,omitempty"`
	RequirementID         uuid.UUID      `gorm:"type:uuid;column:requirement_id;index" json:"requirement_id"`
	Kind                  string         `gorm:"column:kind;not null" json:"kind"`
	BadgeClassID          *uuid.UUID     `gorm:"type:uuid;column:badge_class_id" json:"badge_class_id,omitempty"`
	ThirdPartyURL         string         `gorm:"column:third_party_url" json:"third_party_url,omitempty"`
	ThirdPartyPayload     datatypes.JSON `gorm:"type:jsonb;column:third_party_payload" json:"third_party_payload,omitempty"`
	ExperienceName        string         `gorm:"column:experience_name" json:"experience_name,omitempty"`
	ExperienceDescription string         `gorm:"column:experience_description" json:"experience_description,omitempty"`
	GroupKey              string         `gorm:"column:group_key" json:"group_key,omitempty"`
	CreatedAt             time.Time      `gorm:"not null" json:"created_at"`
}

func (RequirementVersion) TableName() string { return "requirement_version" }
