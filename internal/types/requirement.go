package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RequirementKindEarnedBadge      = "earned_badge"
	RequirementKindThirdParty       = "third_party"
	RequirementKindManualExperience = "manual_experience"
)

// Requirement is a tagged variant stored as one row: Kind selects
// which of the sparse columns are live. Spec() exposes the typed view.
type Requirement struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StepID                uuid.UUID      `gorm:"type:uuid;not null;index" json:"step_id"`
	Step                  *Step          `gorm:"constraint:OnDelete:CASCADE;foreignKey:StepID;references:ID" json:"step,omitempty"`
	Kind                  string         `gorm:"column:kind;not null" json:"kind"`
	BadgeClassID          *uuid.UUID     `gorm:"type:uuid;column:badge_class_id" json:"badge_class_id,omitempty"`
	ThirdPartyURL         string         `gorm:"column:third_party_url" json:"third_party_url,omitempty"`
	ThirdPartyPayload     datatypes.JSON `gorm:"type:jsonb;column:third_party_payload" json:"third_party_payload,omitempty"`
	ExperienceName        string         `gorm:"column:experience_name" json:"experience_name,omitempty"`
	ExperienceDescription string         `gorm:"column:experience_description" json:"experience_description,omitempty"`
	GroupKey              string         `gorm:"column:group_key;index" json:"group_key,omitempty"`
	CreatedAt             time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Requirement) TableName() string { return "requirement" }

type RequirementSpec interface {
	RequirementKind() string
}

type EarnedBadgeSpec struct {
	BadgeClassID uuid.UUID
}

func (EarnedBadgeSpec) RequirementKind() string { return RequirementKindEarnedBadge }

type ThirdPartySpec struct {
	URL     string
	Payload datatypes.JSON
}

func (ThirdPartySpec) RequirementKind() string { return RequirementKindThirdParty }

type ManualExperienceSpec struct {
	Name        string
	Description string
}

func (ManualExperienceSpec) RequirementKind() string { return RequirementKindManualExperience }

// Spec returns the variant view of the row, or nil for an unknown kind.
func (r *Requirement) Spec() RequirementSpec {
	switch r.Kind {
	case RequirementKindEarnedBadge:
		var badgeClassID uuid.UUID
		if r.BadgeClassID != nil {
			badgeClassID = *r.BadgeClassID
		}
		return EarnedBadgeSpec{BadgeClassID: badgeClassID}
	case RequirementKindThirdParty:
		return ThirdPartySpec{URL: r.ThirdPartyURL, Payload: r.ThirdPartyPayload}
	case RequirementKindManualExperience:
		return ManualExperienceSpec{Name: r.ExperienceName, Description: r.ExperienceDescription}
	}
	return nil
}
