package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	StepProgressLocked     = "locked"
	StepProgressInProgress = "in_progress"
	StepProgressCompleted  = "completed"
)

// StepProgress moves locked -> in_progress -> completed and never
// regresses from completed.
type StepProgress struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	StepVersionID uuid.UUID    `gorm:"type:uuid;not null;index:idx_stepversion_user_group,unique" json:"step_version_id"`
	StepVersion   *StepVersion `gorm:"constraint:OnDelete:CASCADE;foreignKey:StepVersionID;references:ID" json:"step_version,omitempty"`
	UserID        uuid.UUID    `gorm:"type:uuid;not null;index:idx_stepversion_user_group,unique" json:"user_id"`
	GroupID       uuid.UUID    `gorm:"type:uuid;not null;index:idx_stepversion_user_group,unique" json:"group_id"`
	Status        string       `gorm:"column:status;not null;default:'locked'" json:"status"`
	StartedAt     *time.Time   `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt   *time.Time   `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updated_at"`
}

func (StepProgress) TableName() string { return "step_progress" }
