package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  apperrors "github.com/lokyajadhav/digibadger-backend-sub000/internal/pkg/errors"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/repos"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/requestdata"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

type CreateStepInput struct {
  PathwayID     uuid.UUID
  ParentID      *uuid.UUID
  OrderIndex    *int
  Name          string
  Description   string
  Optional      bool
  BadgeClassID  *uuid.UUID
  ExternalBadge bool
  RuleType      string
  RequiredCount int
}

type UpdateStepInput struct {
  StepID        uuid.UUID
  Name          *string
  Description   *string
  Optional      *bool
  BadgeClassID  *uuid.UUID
  ExternalBadge *bool
  RuleType      *string
  RequiredCount *int
}

type CreateRequirementInput struct {
  StepID                uuid.UUID
  Kind                  string
  BadgeClassID          *uuid.UUID
  ThirdPartyURL         string
  ThirdPartyPayload     datatypes.JSON
  ExperienceName        string
  ExperienceDescription string
  GroupKey              string
}

type UpdateRequirementInput struct {
  RequirementID         uuid.UUID
  BadgeClassID          *uuid.UUID
  ThirdPartyURL         *string
  ThirdPartyPayload     datatypes.JSON
  ExperienceName        *string
  ExperienceDescription *string
  GroupKey              *string
}

// StructureService validates and applies every structural mutation of
// a pathway's step graph. Validation failures are synchronous domain
// errors and block the whole mutation; accepted mutations append one
// audit entry each.
type StructureService interface {
  ListSteps(ctx context.Context, pathwayID uuid.UUID) ([]*types.Step, error)
  CreateStep(ctx context.Context, input CreateStepInput) (*types.Step, error)
  UpdateStep(ctx context.Context, input UpdateStepInput) (*types.Step, error)
  RearrangeStep(ctx context.Context, stepID uuid.UUID, newParentID *uuid.UUID, requestedIndex *int) (*types.Step, error)
  DeleteStep(ctx context.Context, stepID uuid.UUID) error
  ListRequirements(ctx context.Context, stepID uuid.UUID) ([]*types.Requirement, error)
  CreateRequirement(ctx context.Context, input CreateRequirementInput) (*types.Requirement, error)
  UpdateRequirement(ctx context.Context, input UpdateRequirementInput) (*types.Requirement, error)
  DeleteRequirement(ctx context.Context, requirementID uuid.UUID) error
  AddPrerequisite(ctx context.Context, stepID, prerequisiteStepID uuid.UUID) (*types.PrerequisiteEdge, error)
  RemovePrerequisite(ctx context.Context, stepID, prerequisiteStepID uuid.UUID) error
}

type structureService struct {
  db              *gorm.DB
  log             *logger.Logger
  pathwayRepo     repos.PathwayRepo
  stepRepo        repos.StepRepo
  requirementRepo repos.RequirementRepo
  edgeRepo        repos.PrerequisiteEdgeRepo
  audit           AuditService
}

func NewStructureService(
  db *gorm.DB,
  baseLog *logger.Logger,
  pathwayRepo repos.PathwayRepo,
  stepRepo repos.StepRepo,
  requirementRepo repos.RequirementRepo,
  edgeRepo repos.PrerequisiteEdgeRepo,
  audit AuditService,
) StructureService {
  return &structureService{
    db:              db,
    log:             baseLog.With("service", "StructureService"),
    pathwayRepo:     pathwayRepo,
    stepRepo:        stepRepo,
    requirementRepo: requirementRepo,
    edgeRepo:        edgeRepo,
    audit:           audit,
  }
}

func (s *structureService) ListSteps(ctx context.Context, pathwayID uuid.UUID) ([]*types.Step, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }
  if _, err := s.loadOwnedPathway(ctx, nil, rd, pathwayID); err != nil {
    return nil, err
  }
  return s.stepRepo.GetByPathwayID(ctx, nil, pathwayID)
}

func (s *structureService) CreateStep(ctx context.Context, input CreateStepInput) (*types.Step, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }
  if input.Name == "" {
    return nil, fmt.Errorf("%w: step name required", apperrors.ErrInvalidArgument)
  }
  ruleType := input.RuleType
  if ruleType == "" {
    ruleType = types.RuleAll
  }
  if ruleType != types.RuleAll && ruleType != types.RuleNOfM {
    return nil, fmt.Errorf("%w: unknown rule type %q", apperrors.ErrInvalidArgument, input.RuleType)
  }

  var created *types.Step
  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := s.loadOwnedPathway(ctx, tx, rd, input.PathwayID); err != nil {
      return err
    }
    steps, err := s.stepRepo.GetByPathwayID(ctx, tx, input.PathwayID)
    if err != nil {
      return err
    }
    stepsByID := stepsByID(steps)

    step := &types.Step{
      ID:            uuid.New(),
      PathwayID:     input.PathwayID,
      Name:          input.Name,
      Description:   input.Description,
      Optional:      input.Optional,
      BadgeClassID:  input.BadgeClassID,
      ExternalBadge: input.ExternalBadge,
      RuleType:      ruleType,
      RequiredCount: input.RequiredCount,
    }
    if input.ParentID != nil {
      parent, ok := stepsByID[*input.ParentID]
      if !ok {
        return fmt.Errorf("%w: parent step %s", apperrors.ErrNotFound, *input.ParentID)
      }
      if err := validateCycleFree(step.ID, parent, stepsByID); err != nil {
        return err
      }
      step.ParentID = input.ParentID
    }
    step.OrderIndex = assignOrderIndex(steps, input.OrderIndex, step.ID)

    if _, err := s.stepRepo.Create(ctx, tx, []*types.Step{step}); err != nil {
      return err
    }
    created = step
    return s.audit.Record(ctx, tx, actor, types.AuditActionCreate, "step", step.ID,
      fmt.Sprintf("created step %q at index %d", step.Name, step.OrderIndex))
  })
  if err != nil {
    s.log.Warn("CreateStep failed", "error", err, "pathway_id", input.PathwayID, "name", input.Name)
    return nil, err
  }
  return created, nil
}

func (s *structureService) UpdateStep(ctx context.Context, input UpdateStepInput) (*types.Step, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }

  var updated *types.Step
  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    step, err := s.loadOwnedStep(ctx, tx, rd, input.StepID)
    if err != nil {
      return err
    }

    var diff diffBuilder
    if input.Name != nil {
      diff.str("name", step.Name, *input.Name)
      step.Name = *input.Name
    }
    if input.Description != nil {
      diff.str("description", step.Description, *input.Description)
      step.Description = *input.Description
    }
    if input.Optional != nil {
      diff.flag("optional", step.Optional, *input.Optional)
      step.Optional = *input.Optional
    }
    if input.BadgeClassID != nil {
      diff.note("badge_class_id changed")
      step.BadgeClassID = input.BadgeClassID
    }
    if input.ExternalBadge != nil {
      diff.flag("external_badge", step.ExternalBadge, *input.ExternalBadge)
      step.ExternalBadge = *input.ExternalBadge
    }
    if input.RuleType != nil {
      if *input.RuleType != types.RuleAll && *input.RuleType != types.RuleNOfM {
        return fmt.Errorf("%w: unknown rule type %q", apperrors.ErrInvalidArgument, *input.RuleType)
      }
      diff.str("rule_type", step.RuleType, *input.RuleType)
      step.RuleType = *input.RuleType
    }
    if input.RequiredCount != nil {
      diff.num("required_count", step.RequiredCount, *input.RequiredCount)
      step.RequiredCount = *input.RequiredCount
    }
    if diff.empty() {
      updated = step
      return nil
    }
    if err := s.stepRepo.Update(ctx, tx, step); err != nil {
      return err
    }
    updated = step
    return s.audit.Record(ctx, tx, actor, types.AuditActionUpdate, "step", step.ID, diff.String())
  })
  if err != nil {
    s.log.Warn("UpdateStep failed", "error", err, "step_id", input.StepID)
    return nil, err
  }
  return updated, nil
}

func (s *structureService) RearrangeStep(ctx context.Context, stepID uuid.UUID, newParentID *uuid.UUID, requestedIndex *int) (*types.Step, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }

  var moved *types.Step
  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    step, err := s.loadOwnedStep(ctx, tx, rd, stepID)
    if err != nil {
      return err
    }
    steps, err := s.stepRepo.GetByPathwayID(ctx, tx, step.PathwayID)
    if err != nil {
      return err
    }
    byID := stepsByID(steps)

    var diff diffBuilder
    if newParentID != nil {
      if *newParentID == step.ID {
        return fmt.Errorf("%w: step %s cannot be its own parent", apperrors.ErrCycleDetected, step.ID)
      }
      parent, ok := byID[*newParentID]
      if !ok || parent.PathwayID != step.PathwayID {
        return fmt.Errorf("%w: parent step %s", apperrors.ErrNotFound, *newParentID)
      }
      // Walking the proposed parent's chain catches the inverted
      // case too: a descendant of step has step on its chain.
      if err := validateCycleFree(step.ID, parent, byID); err != nil {
        return err
      }
      diff.note(fmt.Sprintf("parent -> %s", parent.ID))
      step.ParentID = newParentID
    }
    if requestedIndex != nil {
      newIndex := assignOrderIndex(steps, requestedIndex, step.ID)
      diff.num("order_index", step.OrderIndex, newIndex)
      step.OrderIndex = newIndex
    }
    if diff.empty() {
      moved = step
      return nil
    }
    if err := s.stepRepo.Update(ctx, tx, step); err != nil {
      return err
    }
    moved = step
    return s.audit.Record(ctx, tx, actor, types.AuditActionMove, "step", step.ID, diff.String())
  })
  if err != nil {
    s.log.Warn("RearrangeStep failed", "error", err, "step_id", stepID)
    return nil, err
  }
  return moved, nil
}

func (s *structureService) DeleteStep(ctx context.Context, stepID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return apperrors.ErrUnauthorized
  }

  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    step, err := s.loadOwnedStep(ctx, tx, rd, stepID)
    if err != nil {
      return err
    }
    if step.Milestone {
      return fmt.Errorf("%w: milestone step cannot be deleted", apperrors.ErrInvalidArgument)
    }
    // Children keep their place in the forest under the deleted
    // step's parent.
    children, err := s.stepRepo.GetByParentID(ctx, tx, step.ID)
    if err != nil {
      return err
    }
    for _, child := range children {
      if err := s.stepRepo.UpdateParent(ctx, tx, child.ID, step.ParentID); err != nil {
        return err
      }
    }
    if err := s.requirementRepo.FullDeleteByStepIDs(ctx, tx, []uuid.UUID{step.ID}); err != nil {
      return err
    }
    if err := s.edgeRepo.FullDeleteTouchingSteps(ctx, tx, []uuid.UUID{step.ID}); err != nil {
      return err
    }
    if err := s.stepRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{step.ID}); err != nil {
      return err
    }
    return s.audit.Record(ctx, tx, actor, types.AuditActionDelete, "step", step.ID,
      fmt.Sprintf("deleted step %q (%d children re-parented)", step.Name, len(children)))
  })
  if err != nil {
    s.log.Warn("DeleteStep failed", "error", err, "step_id", stepID)
  }
  return err
}

func (s *structureService) ListRequirements(ctx context.Context, stepID uuid.UUID) ([]*types.Requirement, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }
  if _, err := s.loadOwnedStep(ctx, nil, rd, stepID); err != nil {
    return nil, err
  }
  return s.requirementRepo.GetByStepIDs(ctx, nil, []uuid.UUID{stepID})
}

func (s *structureService) CreateRequirement(ctx context.Context, input CreateRequirementInput) (*types.Requirement, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }

  row := &types.Requirement{
    ID:                    uuid.New(),
    StepID:                input.StepID,
    Kind:                  input.Kind,
    GroupKey:              input.GroupKey,
  }
  switch input.Kind {
  case types.RequirementKindEarnedBadge:
    if input.BadgeClassID == nil {
      return nil, fmt.Errorf("%w: earned_badge requirement needs a badge class", apperrors.ErrInvalidArgument)
    }
    row.BadgeClassID = input.BadgeClassID
  case types.RequirementKindThirdParty:
    if input.ThirdPartyURL == "" {
      return nil, fmt.Errorf("%w: third_party requirement needs a url", apperrors.ErrInvalidArgument)
    }
    row.ThirdPartyURL = input.ThirdPartyURL
    row.ThirdPartyPayload = input.ThirdPartyPayload
  case types.RequirementKindManualExperience:
    if input.ExperienceName == "" {
      return nil, fmt.Errorf("%w: manual_experience requirement needs a name", apperrors.ErrInvalidArgument)
    }
    row.ExperienceName = input.ExperienceName
    row.ExperienceDescription = input.ExperienceDescription
  default:
    return nil, fmt.Errorf("%w: unknown requirement kind %q", apperrors.ErrInvalidArgument, input.Kind)
  }

  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := s.loadOwnedStep(ctx, tx, rd, input.StepID); err != nil {
      return err
    }
    if _, err := s.requirementRepo.Create(ctx, tx, []*types.Requirement{row}); err != nil {
      return err
    }
    return s.audit.Record(ctx, tx, actor, types.AuditActionCreate, "requirement", row.ID,
      fmt.Sprintf("created %s requirement on step %s", row.Kind, row.StepID))
  })
  if err != nil {
    s.log.Warn("CreateRequirement failed", "error", err, "step_id", input.StepID, "kind", input.Kind)
    return nil, err
  }
  return row, nil
}

func (s *structureService) UpdateRequirement(ctx context.Context, input UpdateRequirementInput) (*types.Requirement, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }

  var updated *types.Requirement
  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    rows, err := s.requirementRepo.GetByIDs(ctx, tx, []uuid.UUID{input.RequirementID})
    if err != nil {
      return err
    }
    if len(rows) == 0 || rows[0] == nil {
      return fmt.Errorf("%w: requirement %s", apperrors.ErrNotFound, input.RequirementID)
    }
    row := rows[0]
    if _, err := s.loadOwnedStep(ctx, tx, rd, row.StepID); err != nil {
      return err
    }

    var diff diffBuilder
    switch row.Kind {
    case types.RequirementKindEarnedBadge:
      if input.BadgeClassID != nil {
        diff.note("badge_class_id changed")
        row.BadgeClassID = input.BadgeClassID
      }
    case types.RequirementKindThirdParty:
      if input.ThirdPartyURL != nil {
        diff.str("third_party_url", row.ThirdPartyURL, *input.ThirdPartyURL)
        row.ThirdPartyURL = *input.ThirdPartyURL
      }
      if input.ThirdPartyPayload != nil {
        diff.note("third_party_payload changed")
        row.ThirdPartyPayload = input.ThirdPartyPayload
      }
    case types.RequirementKindManualExperience:
      if input.ExperienceName != nil {
        diff.str("experience_name", row.ExperienceName, *input.ExperienceName)
        row.ExperienceName = *input.ExperienceName
      }
      if input.ExperienceDescription != nil {
        diff.str("experience_description", row.ExperienceDescription, *input.ExperienceDescription)
        row.ExperienceDescription = *input.ExperienceDescription
      }
    }
    if input.GroupKey != nil {
      diff.str("group_key", row.GroupKey, *input.GroupKey)
      row.GroupKey = *input.GroupKey
    }
    if diff.empty() {
      updated = row
      return nil
    }
    if err := s.requirementRepo.Update(ctx, tx, row); err != nil {
      return err
    }
    updated = row
    return s.audit.Record(ctx, tx, actor, types.AuditActionUpdate, "requirement", row.ID, diff.String())
  })
  if err != nil {
    s.log.Warn("UpdateRequirement failed", "error", err, "requirement_id", input.RequirementID)
    return nil, err
  }
  return updated, nil
}

func (s *structureService) DeleteRequirement(ctx context.Context, requirementID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return apperrors.ErrUnauthorized
  }

  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    rows, err := s.requirementRepo.GetByIDs(ctx, tx, []uuid.UUID{requirementID})
    if err != nil {
      return err
    }
    if len(rows) == 0 || rows[0] == nil {
      return fmt.Errorf("%w: requirement %s", apperrors.ErrNotFound, requirementID)
    }
    row := rows[0]
    if _, err := s.loadOwnedStep(ctx, tx, rd, row.StepID); err != nil {
      return err
    }
    if err := s.requirementRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{row.ID}); err != nil {
      return err
    }
    return s.audit.Record(ctx, tx, actor, types.AuditActionDelete, "requirement", row.ID,
      fmt.Sprintf("deleted %s requirement from step %s", row.Kind, row.StepID))
  })
  if err != nil {
    s.log.Warn("DeleteRequirement failed", "error", err, "requirement_id", requirementID)
  }
  return err
}

func (s *structureService) AddPrerequisite(ctx context.Context, stepID, prerequisiteStepID uuid.UUID) (*types.PrerequisiteEdge, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }
  if stepID == prerequisiteStepID {
    return nil, fmt.Errorf("%w: step %s cannot require itself", apperrors.ErrCycleDetected, stepID)
  }

  var created *types.PrerequisiteEdge
  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    step, err := s.loadOwnedStep(ctx, tx, rd, stepID)
    if err != nil {
      return err
    }
    prereqs, err := s.stepRepo.GetByIDs(ctx, tx, []uuid.UUID{prerequisiteStepID})
    if err != nil {
      return err
    }
    if len(prereqs) == 0 || prereqs[0] == nil || prereqs[0].PathwayID != step.PathwayID {
      return fmt.Errorf("%w: prerequisite step %s", apperrors.ErrNotFound, prerequisiteStepID)
    }
    edges, err := s.edgeRepo.GetByPathwayID(ctx, tx, step.PathwayID)
    if err != nil {
      return err
    }
    candidate := &types.PrerequisiteEdge{
      ID:                 uuid.New(),
      PathwayID:          step.PathwayID,
      StepID:             stepID,
      PrerequisiteStepID: prerequisiteStepID,
    }
    if err := validatePrerequisiteCycleFree(edges, candidate); err != nil {
      return err
    }
    if _, err := s.edgeRepo.Create(ctx, tx, []*types.PrerequisiteEdge{candidate}); err != nil {
      return err
    }
    created = candidate
    return s.audit.Record(ctx, tx, actor, types.AuditActionUpdate, "step", stepID,
      fmt.Sprintf("added prerequisite %s", prerequisiteStepID))
  })
  if err != nil {
    s.log.Warn("AddPrerequisite failed", "error", err, "step_id", stepID, "prerequisite_step_id", prerequisiteStepID)
    return nil, err
  }
  return created, nil
}

func (s *structureService) RemovePrerequisite(ctx context.Context, stepID, prerequisiteStepID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return apperrors.ErrUnauthorized
  }

  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := s.loadOwnedStep(ctx, tx, rd, stepID); err != nil {
      return err
    }
    if err := s.edgeRepo.FullDelete(ctx, tx, stepID, prerequisiteStepID); err != nil {
      return err
    }
    return s.audit.Record(ctx, tx, actor, types.AuditActionUpdate, "step", stepID,
      fmt.Sprintf("removed prerequisite %s", prerequisiteStepID))
  })
  if err != nil {
    s.log.Warn("RemovePrerequisite failed", "error", err, "step_id", stepID)
  }
  return err
}

func (s *structureService) loadOwnedPathway(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, pathwayID uuid.UUID) (*types.Pathway, error) {
  if pathwayID == uuid.Nil {
    return nil, fmt.Errorf("%w: missing pathway id", apperrors.ErrInvalidArgument)
  }
  pathways, err := s.pathwayRepo.GetByIDs(ctx, tx, []uuid.UUID{pathwayID})
  if err != nil {
    return nil, err
  }
  if len(pathways) == 0 || pathways[0] == nil || pathways[0].OrgID != rd.OrgID {
    return nil, fmt.Errorf("%w: pathway %s", apperrors.ErrNotFound, pathwayID)
  }
  return pathways[0], nil
}

func (s *structureService) loadOwnedStep(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, stepID uuid.UUID) (*types.Step, error) {
  if stepID == uuid.Nil {
    return nil, fmt.Errorf("%w: missing step id", apperrors.ErrInvalidArgument)
  }
  steps, err := s.stepRepo.GetByIDs(ctx, tx, []uuid.UUID{stepID})
  if err != nil {
    return nil, err
  }
  if len(steps) == 0 || steps[0] == nil {
    return nil, fmt.Errorf("%w: step %s", apperrors.ErrNotFound, stepID)
  }
  step := steps[0]
  if _, err := s.loadOwnedPathway(ctx, tx, rd, step.PathwayID); err != nil {
    return nil, err
  }
  return step, nil
}

func stepsByID(steps []*types.Step) map[uuid.UUID]*types.Step {
  byID := make(map[uuid.UUID]*types.Step, len(steps))
  for _, st := range steps {
    byID[st.ID] = st
  }
  return byID
}

// validateCycleFree walks the proposed parent's chain upward. Seeing
// the moving step's id means the move would close a cycle.
func validateCycleFree(stepID uuid.UUID, proposedParent *types.Step, byID map[uuid.UUID]*types.Step) error {
  visited := map[uuid.UUID]bool{}
  current := proposedParent
  for current != nil {
    if current.ID == stepID {
      return fmt.Errorf("%w: step %s is on the parent chain", apperrors.ErrCycleDetected, stepID)
    }
    if visited[current.ID] {
      // pre-existing corruption; refuse rather than loop
      return fmt.Errorf("%w: parent chain of %s already cyclic", apperrors.ErrCycleDetected, proposedParent.ID)
    }
    visited[current.ID] = true
    if current.ParentID == nil {
      return nil
    }
    current = byID[*current.ParentID]
  }
  return nil
}

// validatePrerequisiteCycleFree runs DFS coloring over the edge set
// plus the candidate, so it catches cycles of any length.
func validatePrerequisiteCycleFree(edges []*types.PrerequisiteEdge, candidate *types.PrerequisiteEdge) error {
  adjacency := make(map[uuid.UUID][]uuid.UUID, len(edges)+1)
  for _, e := range edges {
    adjacency[e.StepID] = append(adjacency[e.StepID], e.PrerequisiteStepID)
  }
  adjacency[candidate.StepID] = append(adjacency[candidate.StepID], candidate.PrerequisiteStepID)

  const (
    white = 0
    gray  = 1
    black = 2
  )
  color := make(map[uuid.UUID]int, len(adjacency))
  var visit func(node uuid.UUID) bool
  visit = func(node uuid.UUID) bool {
    color[node] = gray
    for _, next := range adjacency[node] {
      switch color[next] {
      case gray:
        return false
      case white:
        if !visit(next) {
          return false
        }
      }
    }
    color[node] = black
    return true
  }
  for node := range adjacency {
    if color[node] == white {
      if !visit(node) {
        return fmt.Errorf("%w: prerequisite edge %s -> %s closes a cycle",
          apperrors.ErrCycleDetected, candidate.StepID, candidate.PrerequisiteStepID)
      }
    }
  }
  return nil
}

// assignOrderIndex implements the collision-avoidance policy: an
// unset index gets max+1 (0 when the pathway is empty), a negative
// request clamps to 0, and a colliding request silently moves to
// max+1 so concurrent sibling inserts converge instead of failing.
func assignOrderIndex(steps []*types.Step, requested *int, selfID uuid.UUID) int {
  maxIndex := -1
  taken := make(map[int]bool, len(steps))
  for _, st := range steps {
    if st.ID == selfID {
      continue
    }
    taken[st.OrderIndex] = true
    if st.OrderIndex > maxIndex {
      maxIndex = st.OrderIndex
    }
  }
  if requested == nil {
    return maxIndex + 1
  }
  idx := *requested
  if idx < 0 {
    idx = 0
  }
  if taken[idx] {
    return maxIndex + 1
  }
  return idx
}
