package types

import (
	"time"

	"github.com/google/uuid"
)

// PathwayProgress is one row per (pathway, user, group). GroupID is
// uuid.Nil for an individual enrollment and still participates in the
// unique index.
type PathwayProgress struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PathwayID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_pathway_user_group,unique" json:"pathway_id"`
	PathwayVersionID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"pathway_version_id"`
	PathwayVersion    *PathwayVersion `gorm:"constraint:OnDelete:CASCADE;foreignKey:PathwayVersionID;references:ID" json:"pathway_version,omitempty"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index:idx_pathway_user_group,unique" json:"user_id"`
	GroupID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_pathway_user_group,unique" json:"group_id"`
	CompletedElements int             `gorm:"column:completed_elements;not null;default:0" json:"completed_elements"`
	TotalElements     int             `gorm:"column:total_elements;not null;default:0" json:"total_elements"`
	Percentage        int             `gorm:"column:percentage;not null;default:0" json:"percentage"`
	Completed         bool            `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt       *time.Time      `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
}

func (PathwayProgress) TableName() string { return "pathway_progress" }
