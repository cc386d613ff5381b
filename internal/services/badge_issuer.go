package services

import (
  "context"

  "github.com/google/uuid"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
)

// BadgeIssuer is the external issuance collaborator. Calls are
// best-effort from this service's perspective: a failed issue is
// logged by the caller and never rolls back progress state.
type BadgeIssuer interface {
  IssueBadge(ctx context.Context, badgeClassID, userID uuid.UUID, narrative string) (uuid.UUID, error)
}

type logBadgeIssuer struct {
  log *logger.Logger
}

// NewLogBadgeIssuer returns an issuer that only records the request.
// Deployments wire the real issuing backend in its place.
func NewLogBadgeIssuer(baseLog *logger.Logger) BadgeIssuer {
  return &logBadgeIssuer{log: baseLog.With("service", "BadgeIssuer")}
}

func (s *logBadgeIssuer) IssueBadge(ctx context.Context, badgeClassID, userID uuid.UUID, narrative string) (uuid.UUID, error) {
  instanceID := uuid.New()
  s.log.Info("badge issue requested", "badge_class_id", badgeClassID, "user_id", userID, "instance_id", instanceID, "narrative", narrative)
  return instanceID, nil
}
