package services

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/repos"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

// Actor identifies who performed a mutation. It comes from the
// already-authenticated request identity.
type Actor struct {
  ID    uuid.UUID
  Email string
}

// AuditService is injected into every mutating service so tests can
// swap it for NewNopAuditService.
type AuditService interface {
  Record(ctx context.Context, tx *gorm.DB, actor Actor, action, entityType string, entityID uuid.UUID, description string) error
}

type auditService struct {
  db        *gorm.DB
  log       *logger.Logger
  auditRepo repos.AuditEntryRepo
}

func NewAuditService(db *gorm.DB, baseLog *logger.Logger, auditRepo repos.AuditEntryRepo) AuditService {
  return &auditService{
    db:        db,
    log:       baseLog.With("service", "AuditService"),
    auditRepo: auditRepo,
  }
}

func (s *auditService) Record(ctx context.Context, tx *gorm.DB, actor Actor, action, entityType string, entityID uuid.UUID, description string) error {
  row := &types.AuditEntry{
    ID:          uuid.New(),
    ActorID:     actor.ID,
    ActorEmail:  actor.Email,
    Action:      action,
    EntityType:  entityType,
    EntityID:    entityID,
    Description: description,
    CreatedAt:   time.Now().UTC(),
  }
  if _, err := s.auditRepo.Create(ctx, tx, []*types.AuditEntry{row}); err != nil {
    s.log.Warn("audit append failed", "error", err, "action", action, "entity_type", entityType, "entity_id", entityID)
    return err
  }
  return nil
}

type nopAuditService struct{}

func NewNopAuditService() AuditService { return nopAuditService{} }

func (nopAuditService) Record(ctx context.Context, tx *gorm.DB, actor Actor, action, entityType string, entityID uuid.UUID, description string) error {
  return nil
}
