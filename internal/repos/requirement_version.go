package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

type RequirementVersionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.RequirementVersion) ([]*types.RequirementVersion, error)
  GetByStepVersionIDs(ctx context.Context, tx *gorm.DB, stepVersionIDs []uuid.UUID) ([]*types.RequirementVersion, error)
}

type requirementVersionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewRequirementVersionRepo(db *gorm.DB, baseLog *logger.Logger) RequirementVersionRepo {
  repoLog := baseLog.With("repo", "RequirementVersionRepo")
  return &requirementVersionRepo{db: db, log: repoLog}
}

func (r *requirementVersionRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.RequirementVersion) ([]*types.RequirementVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.RequirementVersion{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *requirementVersionRepo) GetByStepVersionIDs(ctx context.Context, tx *gorm.DB, stepVersionIDs []uuid.UUID) ([]*types.RequirementVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.RequirementVersion
  if len(stepVersionIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("step_version_id IN ?", stepVersionIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
