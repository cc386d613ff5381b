package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

type PathwayRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.Pathway) ([]*types.Pathway, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Pathway, error)
  GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.Pathway, error)
  Update(ctx context.Context, tx *gorm.DB, row *types.Pathway) error
  UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error
  SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type pathwayRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPathwayRepo(db *gorm.DB, baseLog *logger.Logger) PathwayRepo {
  repoLog := baseLog.With("repo", "PathwayRepo")
  return &pathwayRepo{db: db, log: repoLog}
}

func (r *pathwayRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Pathway) ([]*types.Pathway, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.Pathway{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *pathwayRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Pathway, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Pathway
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

func (r *pathwayRepo) GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.Pathway, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Pathway
  if orgID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("org_id = ?", orgID).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *pathwayRepo) Update(ctx context.Context, tx *gorm.DB, row *types.Pathway) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil || row.ID == uuid.Nil {
    return nil
  }

  return transaction.WithContext(ctx).Save(row).Error
}

func (r *pathwayRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  return transaction.WithContext(ctx).
    Model(&types.Pathway{}).
    Where("id = ?", id).
    Update("status", status).Error
}

func (r *pathwayRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(ids) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Delete(&types.Pathway{}).Error
}
