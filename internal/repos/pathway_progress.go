package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

type PathwayProgressRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.PathwayProgress) ([]*types.PathwayProgress, error)
  GetByPathwayUserGroup(ctx context.Context, tx *gorm.DB, pathwayID, userID, groupID uuid.UUID) (*types.PathwayProgress, error)
  GetByPathwayID(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) ([]*types.PathwayProgress, error)
  Update(ctx context.Context, tx *gorm.DB, row *types.PathwayProgress) error
  FullDelete(ctx context.Context, tx *gorm.DB, pathwayID, userID, groupID uuid.UUID) error
}

type pathwayProgressRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPathwayProgressRepo(db *gorm.DB, baseLog *logger.Logger) PathwayProgressRepo {
  repoLog := baseLog.With("repo", "PathwayProgressRepo")
  return &pathwayProgressRepo{db: db, log: repoLog}
}

func (r *pathwayProgressRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.PathwayProgress) ([]*types.PathwayProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.PathwayProgress{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *pathwayProgressRepo) GetByPathwayUserGroup(ctx context.Context, tx *gorm.DB, pathwayID, userID, groupID uuid.UUID) (*types.PathwayProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PathwayProgress
  if err := transaction.WithContext(ctx).
    Where("pathway_id = ? AND user_id = ? AND group_id = ?", pathwayID, userID, groupID).
    Limit(1).
    Find(&results).Error; err != nil {
    return nil, err
  }
  if len(results) == 0 {
    return nil, nil
  }
  return results[0], nil
}

func (r *pathwayProgressRepo) GetByPathwayID(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) ([]*types.PathwayProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PathwayProgress
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

func (r *pathwayProgressRepo) Update(ctx context.Context, tx *gorm.DB, row *types.PathwayProgress) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil || row.ID == uuid.Nil {
    return nil
  }

  return transaction.WithContext(ctx).Save(row).Error
}

func (r *pathwayProgressRepo) FullDelete(ctx context.Context, tx *gorm.DB, pathwayID, userID, groupID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  return transaction.WithContext(ctx).
    Where("pathway_id = ? AND user_id = ? AND group_id = ?", pathwayID, userID, groupID).
    Delete(&types.PathwayProgress{}).Error
}
