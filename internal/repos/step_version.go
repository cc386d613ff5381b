package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

type StepVersionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.StepVersion) ([]*types.StepVersion, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.StepVersion, error)
  GetByPathwayVersionID(ctx context.Context, tx *gorm.DB, pathwayVersionID uuid.UUID) ([]*types.StepVersion, error)
}

type stepVersionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewStepVersionRepo(db *gorm.DB, baseLog *logger.Logger) StepVersionRepo {
  repoLog := baseLog.With("repo", "StepVersionRepo")
  return &stepVersionRepo{db: db, log: repoLog}
}

func (r *stepVersionRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.StepVersion) ([]*types.StepVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.StepVersion{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *stepVersionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.StepVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.StepVersion
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

func (r *stepVersionRepo) GetByPathwayVersionID(ctx context.Context, tx *gorm.DB, pathwayVersionID uuid.UUID) ([]*types.StepVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.StepVersion
  if pathwayVersionID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("pathway_version_id = ?", pathwayVersionID).
    Order("order_index ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
