package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

// AuditEntryRepo is append-only on purpose; there is no update or
// delete surface.
type AuditEntryRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.AuditEntry) ([]*types.AuditEntry, error)
  GetByEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID) ([]*types.AuditEntry, error)
}

type auditEntryRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAuditEntryRepo(db *gorm.DB, baseLog *logger.Logger) AuditEntryRepo {
  repoLog := baseLog.With("repo", "AuditEntryRepo")
  return &auditEntryRepo{db: db, log: repoLog}
}

func (r *auditEntryRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.AuditEntry) ([]*types.AuditEntry, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.AuditEntry{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *auditEntryRepo) GetByEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID) ([]*types.AuditEntry, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.AuditEntry
  if err := transaction.WithContext(ctx).
    Where("entity_type = ? AND entity_id = ?", entityType, entityID).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
