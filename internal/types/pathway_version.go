package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	VersionStatusDraft     = "draft"
	VersionStatusPublished = "published"
	VersionStatusArchived  = "archived"
)

// PathwayVersion is an immutable point-in-time copy of a pathway.
// Rows are created only by the versioning service and never change
// after creation except the status transition to archived.
type PathwayVersion struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PathwayID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_pathway_version,unique" json:"pathway_id"`
	Pathway           *Pathway   `gorm:"constraint:OnDelete:CASCADE;foreignKey:PathwayID;references:ID" json:"pathway,omitempty"`
	Version           int        `gorm:"column:version;not null;index:idx_pathway_version,unique" json:"version"`
	Status            string     `gorm:"column:status;not null;default:'published'" json:"status"`
	Name              string     `gorm:"column:name;not null" json:"name"`
	Description       string     `gorm:"column:description" json:"description"`
	ShortCode         string     `gorm:"column:short_code" json:"short_code,omitempty"`
	AlignmentURL      string     `gorm:"column:alignment_url" json:"alignment_url,omitempty"`
	Framework         string     `gorm:"column:framework" json:"framework,omitempty"`
	CompletionBadgeID *uuid.UUID `gorm:"type:uuid;column:completion_badge_id" json:"completion_badge_id,omitempty"`
	RuleType          string     `gorm:"column:rule_type;not null" json:"rule_type"`
	RequiredCount     int        `gorm:"column:required_count;not null;default:0" json:"required_count"`
	PublishedByID     uuid.UUID  `gorm:"type:uuid;column:published_by_id" json:"published_by_id"`
	CreatedAt         time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null" json:"updated_at"`
}

func (PathwayVersion) TableName() string { return "pathway_version" }
