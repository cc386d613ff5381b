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

// VersionDetail is a fully loaded snapshot: the version row plus its
// frozen steps and requirements.
type VersionDetail struct {
  Version      *types.PathwayVersion         `json:"version"`
  Steps        []*types.StepVersion          `json:"steps"`
  Requirements []*types.RequirementVersion   `json:"requirements"`
}

// VersioningService freezes the live pathway graph into immutable,
// monotonically numbered snapshots. Publish is all-or-nothing: a
// structural invariant violation at publish time aborts the whole
// transaction and no partial snapshot rows stay visible.
type VersioningService interface {
  Publish(ctx context.Context, pathwayID uuid.UUID) (*types.PathwayVersion, error)
  CreateNewDraft(ctx context.Context, pathwayID uuid.UUID) (*types.Pathway, error)
  ListVersions(ctx context.Context, pathwayID uuid.UUID) ([]*types.PathwayVersion, error)
  GetVersion(ctx context.Context, pathwayID uuid.UUID, version int) (*VersionDetail, error)
  ArchiveVersion(ctx context.Context, pathwayID uuid.UUID, version int) (*types.PathwayVersion, error)
}

type versioningService struct {
  db              *gorm.DB
  log             *logger.Logger
  pathwayRepo     repos.PathwayRepo
  stepRepo        repos.StepRepo
  requirementRepo repos.RequirementRepo
  versionRepo     repos.PathwayVersionRepo
  stepVersionRepo repos.StepVersionRepo
  reqVersionRepo  repos.RequirementVersionRepo
  audit           AuditService
}

func NewVersioningService(
  db *gorm.DB,
  baseLog *logger.Logger,
  pathwayRepo repos.PathwayRepo,
  stepRepo repos.StepRepo,
  requirementRepo repos.RequirementRepo,
  versionRepo repos.PathwayVersionRepo,
  stepVersionRepo repos.StepVersionRepo,
  reqVersionRepo repos.RequirementVersionRepo,
  audit AuditService,
) VersioningService {
  return &versioningService{
    db:              db,
    log:             baseLog.With("service", "VersioningService"),
    pathwayRepo:     pathwayRepo,
    stepRepo:        stepRepo,
    requirementRepo: requirementRepo,
    versionRepo:     versionRepo,
    stepVersionRepo: stepVersionRepo,
    reqVersionRepo:  reqVersionRepo,
    audit:           audit,
  }
}

func (s *versioningService) Publish(ctx context.Context, pathwayID uuid.UUID) (*types.PathwayVersion, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }

  var published *types.PathwayVersion
  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    pathways, err := s.pathwayRepo.GetByIDs(ctx, tx, []uuid.UUID{pathwayID})
    if err != nil {
      return err
    }
    if len(pathways) == 0 || pathways[0] == nil || pathways[0].OrgID != rd.OrgID {
      return fmt.Errorf("%w: pathway %s", apperrors.ErrNotFound, pathwayID)
    }
    pathway := pathways[0]

    steps, err := s.stepRepo.GetByPathwayID(ctx, tx, pathway.ID)
    if err != nil {
      return err
    }
    if err := validateStructureForPublish(steps); err != nil {
      return err
    }
    stepIDs := make([]uuid.UUID, 0, len(steps))
    for _, st := range steps {
      stepIDs = append(stepIDs, st.ID)
    }
    requirements, err := s.requirementRepo.GetByStepIDs(ctx, tx, stepIDs)
    if err != nil {
      return err
    }

    maxVersion, err := s.versionRepo.MaxVersion(ctx, tx, pathway.ID)
    if err != nil {
      return err
    }
    version := &types.PathwayVersion{
      ID:                uuid.New(),
      PathwayID:         pathway.ID,
      Version:           maxVersion + 1,
      Status:            types.VersionStatusPublished,
      Name:              pathway.Name,
      Description:       pathway.Description,
      ShortCode:         pathway.ShortCode,
      AlignmentURL:      pathway.AlignmentURL,
      Framework:         pathway.Framework,
      CompletionBadgeID: copyUUIDPtr(pathway.CompletionBadgeID),
      RuleType:          pathway.RuleType,
      RequiredCount:     pathway.RequiredCount,
      PublishedByID:     rd.UserID,
    }
    if _, err := s.versionRepo.Create(ctx, tx, []*types.PathwayVersion{version}); err != nil {
      return err
    }

    stepVersions := make([]*types.StepVersion, 0, len(steps))
    stepVersionIDByStep := make(map[uuid.UUID]uuid.UUID, len(steps))
    for _, st := range steps {
      sv := &types.StepVersion{
        ID:               uuid.New(),
        PathwayVersionID: version.ID,
        StepID:           st.ID,
        ParentStepID:     copyUUIDPtr(st.ParentID),
        OrderIndex:       st.OrderIndex,
        Name:             st.Name,
        Description:      st.Description,
        Milestone:        st.Milestone,
        Optional:         st.Optional,
        BadgeClassID:     copyUUIDPtr(st.BadgeClassID),
        ExternalBadge:    st.ExternalBadge,
        RuleType:         st.RuleType,
        RequiredCount:    st.RequiredCount,
      }
      stepVersions = append(stepVersions, sv)
      stepVersionIDByStep[st.ID] = sv.ID
    }
    if _, err := s.stepVersionRepo.Create(ctx, tx, stepVersions); err != nil {
      return err
    }

    reqVersions := make([]*types.RequirementVersion, 0, len(requirements))
    for _, req := range requirements {
      stepVersionID, ok := stepVersionIDByStep[req.StepID]
      if !ok {
        continue
      }
      reqVersions = append(reqVersions, &types.RequirementVersion{
        ID:                    uuid.New(),
        StepVersionID:         stepVersionID,
        RequirementID:         req.ID,
        Kind:                  req.Kind,
        BadgeClassID:          copyUUIDPtr(req.BadgeClassID),
        ThirdPartyURL:         req.ThirdPartyURL,
        ThirdPartyPayload:     datatypes.JSON(append([]byte(nil), req.ThirdPartyPayload...)),
        ExperienceName:        req.ExperienceName,
        ExperienceDescription: req.ExperienceDescription,
        GroupKey:              req.GroupKey,
      })
    }
    if _, err := s.reqVersionRepo.Create(ctx, tx, reqVersions); err != nil {
      return err
    }

    if err := s.pathwayRepo.UpdateStatus(ctx, tx, pathway.ID, types.PathwayStatusPublished); err != nil {
      return err
    }
    published = version
    return s.audit.Record(ctx, tx, actor, types.AuditActionPublish, "pathway", pathway.ID,
      fmt.Sprintf("published version %d (%d steps, %d requirements)", version.Version, len(stepVersions), len(reqVersions)))
  })
  if err != nil {
    s.log.Warn("Publish failed", "error", err, "pathway_id", pathwayID)
    return nil, err
  }
  s.log.Info("pathway published", "pathway_id", pathwayID, "version", published.Version)
  return published, nil
}

func (s *versioningService) CreateNewDraft(ctx context.Context, pathwayID uuid.UUID) (*types.Pathway, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }

  var pathway *types.Pathway
  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    pathways, err := s.pathwayRepo.GetByIDs(ctx, tx, []uuid.UUID{pathwayID})
    if err != nil {
      return err
    }
    if len(pathways) == 0 || pathways[0] == nil || pathways[0].OrgID != rd.OrgID {
      return fmt.Errorf("%w: pathway %s", apperrors.ErrNotFound, pathwayID)
    }
    pathway = pathways[0]
    if pathway.Status == types.PathwayStatusDraft {
      return nil
    }
    if err := s.pathwayRepo.UpdateStatus(ctx, tx, pathway.ID, types.PathwayStatusDraft); err != nil {
      return err
    }
    pathway.Status = types.PathwayStatusDraft
    return s.audit.Record(ctx, tx, actor, types.AuditActionUpdate, "pathway", pathway.ID, "status: \"published\" -> \"draft\"")
  })
  if err != nil {
    s.log.Warn("CreateNewDraft failed", "error", err, "pathway_id", pathwayID)
    return nil, err
  }
  return pathway, nil
}

func (s *versioningService) ListVersions(ctx context.Context, pathwayID uuid.UUID) ([]*types.PathwayVersion, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }
  return s.versionRepo.GetByPathwayID(ctx, nil, pathwayID)
}

func (s *versioningService) GetVersion(ctx context.Context, pathwayID uuid.UUID, version int) (*VersionDetail, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }
  row, err := s.versionRepo.GetByPathwayAndVersion(ctx, nil, pathwayID, version)
  if err != nil {
    return nil, err
  }
  if row == nil {
    return nil, fmt.Errorf("%w: pathway %s version %d", apperrors.ErrNotFound, pathwayID, version)
  }
  stepVersions, err := s.stepVersionRepo.GetByPathwayVersionID(ctx, nil, row.ID)
  if err != nil {
    return nil, err
  }
  stepVersionIDs := make([]uuid.UUID, 0, len(stepVersions))
  for _, sv := range stepVersions {
    stepVersionIDs = append(stepVersionIDs, sv.ID)
  }
  reqVersions, err := s.reqVersionRepo.GetByStepVersionIDs(ctx, nil, stepVersionIDs)
  if err != nil {
    return nil, err
  }
  return &VersionDetail{Version: row, Steps: stepVersions, Requirements: reqVersions}, nil
}

func (s *versioningService) ArchiveVersion(ctx context.Context, pathwayID uuid.UUID, version int) (*types.PathwayVersion, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }

  var archived *types.PathwayVersion
  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    row, err := s.versionRepo.GetByPathwayAndVersion(ctx, tx, pathwayID, version)
    if err != nil {
      return err
    }
    if row == nil {
      return fmt.Errorf("%w: pathway %s version %d", apperrors.ErrNotFound, pathwayID, version)
    }
    if row.Status == types.VersionStatusArchived {
      archived = row
      return nil
    }
    // Archiving is the only mutation a frozen version permits.
    if err := s.versionRepo.UpdateStatus(ctx, tx, row.ID, types.VersionStatusArchived); err != nil {
      return err
    }
    row.Status = types.VersionStatusArchived
    archived = row
    return s.audit.Record(ctx, tx, actor, types.AuditActionUpdate, "pathway_version", row.ID,
      fmt.Sprintf("archived version %d", row.Version))
  })
  if err != nil {
    s.log.Warn("ArchiveVersion failed", "error", err, "pathway_id", pathwayID, "version", version)
    return nil, err
  }
  return archived, nil
}

// validateStructureForPublish re-checks the structural invariants so
// a pathway that somehow drifted never publishes a broken snapshot.
func validateStructureForPublish(steps []*types.Step) error {
  byID := stepsByID(steps)
  seenIndex := make(map[int]uuid.UUID, len(steps))
  for _, st := range steps {
    if st.OrderIndex < 0 {
      return fmt.Errorf("%w: step %s has negative order index %d", apperrors.ErrInvalidArgument, st.ID, st.OrderIndex)
    }
    if other, dup := seenIndex[st.OrderIndex]; dup {
      return fmt.Errorf("%w: steps %s and %s share order index %d", apperrors.ErrInvalidArgument, other, st.ID, st.OrderIndex)
    }
    seenIndex[st.OrderIndex] = st.ID
    if st.ParentID != nil {
      parent, ok := byID[*st.ParentID]
      if !ok {
        return fmt.Errorf("%w: parent step %s", apperrors.ErrNotFound, *st.ParentID)
      }
      if err := validateCycleFree(st.ID, parent, byID); err != nil {
        return err
      }
    }
  }
  return nil
}

func copyUUIDPtr(src *uuid.UUID) *uuid.UUID {
  if src == nil {
    return nil
  }
  dup := *src
  return &dup
}
