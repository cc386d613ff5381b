package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PathwayStatusDraft     = "draft"
	PathwayStatusPublished = "published"
)

const (
	RuleAll  = "all"
	RuleNOfM = "n_of_m"
)

type Pathway struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	Name              string         `gorm:"column:name;not null" json:"name"`
	Description       string         `gorm:"column:description" json:"description"`
	Status            string         `gorm:"column:status;not null;default:'draft'" json:"status"`
	ShortCode         string         `gorm:"column:short_code" json:"short_code,omitempty"`
	AlignmentURL      string         `gorm:"column:alignment_url" json:"alignment_url,omitempty"`
	Framework         string         `gorm:"column:framework" json:"framework,omitempty"`
	CompletionBadgeID *uuid.UUID     `gorm:"type:uuid;column:completion_badge_id" json:"completion_badge_id,omitempty"`
	RuleType          string         `gorm:"column:rule_type;not null;default:'all'" json:"rule_type"`
	RequiredCount     int            `gorm:"column:required_count;not null;default:0" json:"required_count"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Pathway) TableName() string { return "pathway" }
