package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

type PathwayVersionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.PathwayVersion) ([]*types.PathwayVersion, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.PathwayVersion, error)
  GetByPathwayID(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) ([]*types.PathwayVersion, error)
  GetByPathwayAndVersion(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID, version int) (*types.PathwayVersion, error)
  GetLatestPublished(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) (*types.PathwayVersion, error)
  MaxVersion(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) (int, error)
  UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error
}

type pathwayVersionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPathwayVersionRepo(db *gorm.DB, baseLog *logger.Logger) PathwayVersionRepo {
  repoLog := baseLog.With("repo", "PathwayVersionRepo")
  return &pathwayVersionRepo{db: db, log: repoLog}
}

func (r *pathwayVersionRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.PathwayVersion) ([]*types.PathwayVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.PathwayVersion{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *pathwayVersionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.PathwayVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PathwayVersion
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

func (r *pathwayVersionRepo) GetByPathwayID(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) ([]*types.PathwayVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PathwayVersion
  if pathwayID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("pathway_id = ?", pathwayID).
    Order("version ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *pathwayVersionRepo) GetByPathwayAndVersion(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID, version int) (*types.PathwayVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PathwayVersion
  if err := transaction.WithContext(ctx).
    Where("pathway_id = ? AND version = ?", pathwayID, version).
    Limit(1).
    Find(&results).Error; err != nil {
    return nil, err
  }
  if len(results) == 0 {
    return nil, nil
  }
  return results[0], nil
}

func (r *pathwayVersionRepo) GetLatestPublished(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) (*types.PathwayVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PathwayVersion
  if err := transaction.WithContext(ctx).
    Where("pathway_id = ? AND status = ?", pathwayID, types.VersionStatusPublished).
    Order("version DESC").
    Limit(1).
    Find(&results).Error; err != nil {
    return nil, err
  }
  if len(results) == 0 {
    return nil, nil
  }
  return results[0], nil
}

func (r *pathwayVersionRepo) MaxVersion(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) (int, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var max *int
  if err := transaction.WithContext(ctx).
    Model(&types.PathwayVersion{}).
    Where("pathway_id = ?", pathwayID).
    Select("MAX(version)").
    Scan(&max).Error; err != nil {
    return 0, err
  }
  if max == nil {
    return 0, nil
  }
  return *max, nil
}

func (r *pathwayVersionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  return transaction.WithContext(ctx).
    Model(&types.PathwayVersion{}).
    Where("id = ?", id).
    Update("status", status).Error
}
