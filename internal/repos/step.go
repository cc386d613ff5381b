package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

type StepRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.Step) ([]*types.Step, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Step, error)
  GetByPathwayID(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) ([]*types.Step, error)
  GetByParentID(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) ([]*types.Step, error)
  Update(ctx context.Context, tx *gorm.DB, row *types.Step) error
  UpdateParent(ctx context.Context, tx *gorm.DB, id uuid.UUID, parentID *uuid.UUID) error
  FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type stepRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewStepRepo(db *gorm.DB, baseLog *logger.Logger) StepRepo {
  repoLog := baseLog.With("repo", "StepRepo")
  return &stepRepo{db: db, log: repoLog}
}

func (r *stepRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Step) ([]*types.Step, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.Step{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *stepRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Step, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Step
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

func (r *stepRepo) GetByPathwayID(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) ([]*types.Step, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Step
  if pathwayID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("pathway_id = ?", pathwayID).
    Order("order_index ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *stepRepo) GetByParentID(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) ([]*types.Step, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Step
  if parentID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("parent_id = ?", parentID).
    Order("order_index ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *stepRepo) Update(ctx context.Context, tx *gorm.DB, row *types.Step) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil || row.ID == uuid.Nil {
    return nil
  }

  return transaction.WithContext(ctx).Save(row).Error
}

func (r *stepRepo) UpdateParent(ctx context.Context, tx *gorm.DB, id uuid.UUID, parentID *uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  return transaction.WithContext(ctx).
    Model(&types.Step{}).
    Where("id = ?", id).
    Update("parent_id", parentID).Error
}

func (r *stepRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
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
    Delete(&types.Step{}).Error
}
