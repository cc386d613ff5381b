package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

type StepProgressRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.StepProgress) ([]*types.StepProgress, error)
  GetByStepVersionIDsForUser(ctx context.Context, tx *gorm.DB, stepVersionIDs []uuid.UUID, userID, groupID uuid.UUID) ([]*types.StepProgress, error)
  Update(ctx context.Context, tx *gorm.DB, row *types.StepProgress) error
  FullDeleteByStepVersionIDsForUser(ctx context.Context, tx *gorm.DB, stepVersionIDs []uuid.UUID, userID, groupID uuid.UUID) error
}

type stepProgressRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewStepProgressRepo(db *gorm.DB, baseLog *logger.Logger) StepProgressRepo {
  repoLog := baseLog.With("repo", "StepProgressRepo")
  return &stepProgressRepo{db: db, log: repoLog}
}

func (r *stepProgressRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.StepProgress) ([]*types.StepProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.StepProgress{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *stepProgressRepo) GetByStepVersionIDsForUser(ctx context.Context, tx *gorm.DB, stepVersionIDs []uuid.UUID, userID, groupID uuid.UUID) ([]*types.StepProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.StepProgress
  if len(stepVersionIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("step_version_id IN ? AND user_id = ? AND group_id = ?", stepVersionIDs, userID, groupID).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *stepProgressRepo) Update(ctx context.Context, tx *gorm.DB, row *types.StepProgress) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil || row.ID == uuid.Nil {
    return nil
  }

  return transaction.WithContext(ctx).Save(row).Error
}

func (r *stepProgressRepo) FullDeleteByStepVersionIDsForUser(ctx context.Context, tx *gorm.DB, stepVersionIDs []uuid.UUID, userID, groupID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(stepVersionIDs) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Where("step_version_id IN ? AND user_id = ? AND group_id = ?", stepVersionIDs, userID, groupID).
    Delete(&types.StepProgress{}).Error
}
