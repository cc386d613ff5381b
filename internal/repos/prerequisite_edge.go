package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

type PrerequisiteEdgeRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.PrerequisiteEdge) ([]*types.PrerequisiteEdge, error)
  GetByPathwayID(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) ([]*types.PrerequisiteEdge, error)
  FullDelete(ctx context.Context, tx *gorm.DB, stepID, prerequisiteStepID uuid.UUID) error
  FullDeleteTouchingSteps(ctx context.Context, tx *gorm.DB, stepIDs []uuid.UUID) error
}

type prerequisiteEdgeRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPrerequisiteEdgeRepo(db *gorm.DB, baseLog *logger.Logger) PrerequisiteEdgeRepo {
  repoLog := baseLog.With("repo", "PrerequisiteEdgeRepo")
  return &prerequisiteEdgeRepo{db: db, log: repoLog}
}

func (r *prerequisiteEdgeRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.PrerequisiteEdge) ([]*types.PrerequisiteEdge, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.PrerequisiteEdge{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *prerequisiteEdgeRepo) GetByPathwayID(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) ([]*types.PrerequisiteEdge, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PrerequisiteEdge
  if pathwayID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("pathway_id = ?", pathwayID).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *prerequisiteEdgeRepo) FullDelete(ctx context.Context, tx *gorm.DB, stepID, prerequisiteStepID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  return transaction.WithContext(ctx).
    Where("step_id = ? AND prerequisite_step_id = ?", stepID, prerequisiteStepID).
    Delete(&types.PrerequisiteEdge{}).Error
}

func (r *prerequisiteEdgeRepo) FullDeleteTouchingSteps(ctx context.Context, tx *gorm.DB, stepIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(stepIDs) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Where("step_id IN ? OR prerequisite_step_id IN ?", stepIDs, stepIDs).
    Delete(&types.PrerequisiteEdge{}).Error
}
