package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  apperrors "github.com/lokyajadhav/digibadger-backend-sub000/internal/pkg/errors"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/repos"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/requestdata"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

type CreatePathwayInput struct {
  Name              string
  Description       string
  ShortCode         string
  AlignmentURL      string
  Framework         string
  CompletionBadgeID *uuid.UUID
  RuleType          string
  RequiredCount     int
}

type UpdatePathwayInput struct {
  PathwayID         uuid.UUID
  Name              *string
  Description       *string
  ShortCode         *string
  AlignmentURL      *string
  Framework         *string
  CompletionBadgeID *uuid.UUID
  RuleType          *string
  RequiredCount     *int
}

type PathwayService interface {
  CreatePathway(ctx context.Context, input CreatePathwayInput) (*types.Pathway, error)
  UpdatePathway(ctx context.Context, input UpdatePathwayInput) (*types.Pathway, error)
  DeletePathway(ctx context.Context, pathwayID uuid.UUID) error
  GetPathway(ctx context.Context, pathwayID uuid.UUID) (*types.Pathway, error)
  ListPathways(ctx context.Context) ([]*types.Pathway, error)
}

type pathwayService struct {
  db          *gorm.DB
  log         *logger.Logger
  pathwayRepo repos.PathwayRepo
  stepRepo    repos.StepRepo
  audit       AuditService
}

func NewPathwayService(
  db *gorm.DB,
  baseLog *logger.Logger,
  pathwayRepo repos.PathwayRepo,
  stepRepo repos.StepRepo,
  audit AuditService,
) PathwayService {
  return &pathwayService{
    db:          db,
    log:         baseLog.With("service", "PathwayService"),
    pathwayRepo: pathwayRepo,
    stepRepo:    stepRepo,
    audit:       audit,
  }
}

func (s *pathwayService) CreatePathway(ctx context.Context, input CreatePathwayInput) (*types.Pathway, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }
  if input.Name == "" {
    return nil, fmt.Errorf("%w: pathway name required", apperrors.ErrInvalidArgument)
  }
  ruleType := input.RuleType
  if ruleType == "" {
    ruleType = types.RuleAll
  }
  if ruleType != types.RuleAll && ruleType != types.RuleNOfM {
    return nil, fmt.Errorf("%w: unknown rule type %q", apperrors.ErrInvalidArgument, input.RuleType)
  }

  pathway := &types.Pathway{
    ID:                uuid.New(),
    OrgID:             rd.OrgID,
    Name:              input.Name,
    Description:       input.Description,
    Status:            types.PathwayStatusDraft,
    ShortCode:         input.ShortCode,
    AlignmentURL:      input.AlignmentURL,
    Framework:         input.Framework,
    CompletionBadgeID: input.CompletionBadgeID,
    RuleType:          ruleType,
    RequiredCount:     input.RequiredCount,
  }
  // Every pathway gets its terminal milestone step at creation.
  milestone := &types.Step{
    ID:         uuid.New(),
    PathwayID:  pathway.ID,
    OrderIndex: 0,
    Name:       input.Name + " completion",
    Milestone:  true,
    RuleType:   types.RuleAll,
  }

  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := s.pathwayRepo.Create(ctx, tx, []*types.Pathway{pathway}); err != nil {
      return err
    }
    if _, err := s.stepRepo.Create(ctx, tx, []*types.Step{milestone}); err != nil {
      return err
    }
    if err := s.audit.Record(ctx, tx, actor, types.AuditActionCreate, "pathway", pathway.ID, fmt.Sprintf("created pathway %q", pathway.Name)); err != nil {
      return err
    }
    return s.audit.Record(ctx, tx, actor, types.AuditActionCreate, "step", milestone.ID, fmt.Sprintf("created milestone step %q", milestone.Name))
  })
  if err != nil {
    s.log.Warn("CreatePathway failed", "error", err, "name", input.Name)
    return nil, err
  }
  return pathway, nil
}

func (s *pathwayService) UpdatePathway(ctx context.Context, input UpdatePathwayInput) (*types.Pathway, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }

  var updated *types.Pathway
  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    pathway, err := s.loadOwned(ctx, tx, rd, input.PathwayID)
    if err != nil {
      return err
    }

    var diff diffBuilder
    if input.Name != nil {
      diff.str("name", pathway.Name, *input.Name)
      pathway.Name = *input.Name
    }
    if input.Description != nil {
      diff.str("description", pathway.Description, *input.Description)
      pathway.Description = *input.Description
    }
    if input.ShortCode != nil {
      diff.str("short_code", pathway.ShortCode, *input.ShortCode)
      pathway.ShortCode = *input.ShortCode
    }
    if input.AlignmentURL != nil {
      diff.str("alignment_url", pathway.AlignmentURL, *input.AlignmentURL)
      pathway.AlignmentURL = *input.AlignmentURL
    }
    if input.Framework != nil {
      diff.str("framework", pathway.Framework, *input.Framework)
      pathway.Framework = *input.Framework
    }
    if input.CompletionBadgeID != nil {
      diff.note("completion_badge_id changed")
      pathway.CompletionBadgeID = input.CompletionBadgeID
    }
    if input.RuleType != nil {
      if *input.RuleType != types.RuleAll && *input.RuleType != types.RuleNOfM {
        return fmt.Errorf("%w: unknown rule type %q", apperrors.ErrInvalidArgument, *input.RuleType)
      }
      diff.str("rule_type", pathway.RuleType, *input.RuleType)
      pathway.RuleType = *input.RuleType
    }
    if input.RequiredCount != nil {
      diff.num("required_count", pathway.RequiredCount, *input.RequiredCount)
      pathway.RequiredCount = *input.RequiredCount
    }
    if diff.empty() {
      updated = pathway
      return nil
    }
    if err := s.pathwayRepo.Update(ctx, tx, pathway); err != nil {
      return err
    }
    updated = pathway
    return s.audit.Record(ctx, tx, actor, types.AuditActionUpdate, "pathway", pathway.ID, diff.String())
  })
  if err != nil {
    s.log.Warn("UpdatePathway failed", "error", err, "pathway_id", input.PathwayID)
    return nil, err
  }
  return updated, nil
}

func (s *pathwayService) DeletePathway(ctx context.Context, pathwayID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return apperrors.ErrUnauthorized
  }

  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    pathway, err := s.loadOwned(ctx, tx, rd, pathwayID)
    if err != nil {
      return err
    }
    if err := s.pathwayRepo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{pathway.ID}); err != nil {
      return err
    }
    return s.audit.Record(ctx, tx, actor, types.AuditActionDelete, "pathway", pathway.ID, fmt.Sprintf("deleted pathway %q", pathway.Name))
  })
  if err != nil {
    s.log.Warn("DeletePathway failed", "error", err, "pathway_id", pathwayID)
  }
  return err
}

func (s *pathwayService) GetPathway(ctx context.Context, pathwayID uuid.UUID) (*types.Pathway, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }
  return s.loadOwned(ctx, nil, rd, pathwayID)
}

func (s *pathwayService) ListPathways(ctx context.Context) ([]*types.Pathway, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }
  return s.pathwayRepo.GetByOrgID(ctx, nil, rd.OrgID)
}

func (s *pathwayService) loadOwned(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, pathwayID uuid.UUID) (*types.Pathway, error) {
  if pathwayID == uuid.Nil {
    return nil, fmt.Errorf("%w: missing pathway id", apperrors.ErrInvalidArgument)
  }
  pathways, err := s.pathwayRepo.GetByIDs(ctx, tx, []uuid.UUID{pathwayID})
  if err != nil {
    return nil, err
  }
  if len(pathways) == 0 || pathways[0] == nil {
    return nil, fmt.Errorf("%w: pathway %s", apperrors.ErrNotFound, pathwayID)
  }
  pathway := pathways[0]
  if pathway.OrgID != rd.OrgID {
    return nil, fmt.Errorf("%w: pathway %s", apperrors.ErrNotFound, pathwayID)
  }
  return pathway, nil
}
