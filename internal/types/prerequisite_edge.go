package types

import (
	"time"

	"github.com/google/uuid"
)

// PrerequisiteEdge is a directed edge step -> prerequisite step,
// independent of the parent chain. The combined edge set must stay
// acyclic; the structure service enforces that on insert.
type PrerequisiteEdge struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PathwayID          uuid.UUID `gorm:"type:uuid;not null;index" json:"pathway_id"`
	StepID             uuid.UUID `gorm:"type:uuid;not null;index:idx_step_prereq,unique" json:"step_id"`
	PrerequisiteStepID uuid.UUID `gorm:"type:uuid;not null;index:idx_step_prereq,unique" json:"prerequisite_step_id"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
}

func (PrerequisiteEdge) TableName() string { return "prerequisite_edge" }
