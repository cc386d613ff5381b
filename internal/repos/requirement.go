package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

type RequirementRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.Requirement) ([]*types.Requirement, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Requirement, error)
  GetByStepIDs(ctx context.Context, tx *gorm.DB, stepIDs []uuid.UUID) ([]*types.Requirement, error)
  Update(ctx context.Context, tx *gorm.DB, row *types.Requirement) error
  FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
  FullDeleteByStepIDs(ctx context.Context, tx *gorm.DB, stepIDs []uuid.UUID) error
}

type requirementRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewRequirementRepo(db *gorm.DB, baseLog *logger.Logger) RequirementRepo {
  repoLog := baseLog.With("repo", "RequirementRepo")
  return &requirementRepo{db: db, log: repoLog}
}

func (r *requirementRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Requirement) ([]*types.Requirement, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.Requirement{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *requirementRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Requirement, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Requirement
  if len(ids) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *requirementRepo) GetByStepIDs(ctx context.Context, tx *gorm.DB, stepIDs []uuid.UUID) ([]*types.Requirement, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Requirement
  if len(stepIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("step_id IN ?", stepIDs).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *requirementRepo) Update(ctx context.Context, tx *gorm.DB, row *types.Requirement) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil || row.ID == uuid.Nil {
    return nil
  }

  return transaction.WithContext(ctx).Save(row).Error
}

func (r *requirementRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(ids) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Unscoped().
    Where("id IN ?", ids).
    Delete(&types.Requirement{}).Error
}

func (r *requirementRepo) FullDeleteByStepIDs(ctx context.Context, tx *gorm.DB, stepIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(stepIDs) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Unscoped().
    Where("step_id IN ?", stepIDs).
    Delete(&types.Requirement{}).Error
}
