package services

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  apperrors "github.com/lokyajadhav/digibadger-backend-sub000/internal/pkg/errors"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/repos"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/requestdata"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

// ProgressService tracks per-user, per-group progress against a
// published pathway version. All evaluation runs against snapshot
// rows; live edits never move an enrolled learner's goalposts until
// the next publish.
type ProgressService interface {
  Enroll(ctx context.Context, pathwayID, userID, groupID uuid.UUID) (*types.PathwayProgress, error)
  Unenroll(ctx context.Context, pathwayID, userID, groupID uuid.UUID) error
  CompleteStep(ctx context.Context, stepVersionID, userID, groupID uuid.UUID) (*types.StepProgress, error)
  GetProgress(ctx context.Context, pathwayID, userID, groupID uuid.UUID) (*types.PathwayProgress, error)
  CalculatePathwayProgress(ctx context.Context, pathwayID, userID, groupID uuid.UUID) (int, error)
  RecalculateAllProgressForPathway(ctx context.Context, pathwayID uuid.UUID) error
}

type progressService struct {
  db               *gorm.DB
  log              *logger.Logger
  pathwayRepo      repos.PathwayRepo
  versionRepo      repos.PathwayVersionRepo
  stepVersionRepo  repos.StepVersionRepo
  edgeRepo         repos.PrerequisiteEdgeRepo
  pathwayProgRepo  repos.PathwayProgressRepo
  stepProgRepo     repos.StepProgressRepo
  audit            AuditService
  badgeIssuer      BadgeIssuer
  cache            *ProgressCache
}

func NewProgressService(
  db *gorm.DB,
  baseLog *logger.Logger,
  pathwayRepo repos.PathwayRepo,
  versionRepo repos.PathwayVersionRepo,
  stepVersionRepo repos.StepVersionRepo,
  edgeRepo repos.PrerequisiteEdgeRepo,
  pathwayProgRepo repos.PathwayProgressRepo,
  stepProgRepo repos.StepProgressRepo,
  audit AuditService,
  badgeIssuer BadgeIssuer,
  cache *ProgressCache,
) ProgressService {
  return &progressService{
    db:              db,
    log:             baseLog.With("service", "ProgressService"),
    pathwayRepo:     pathwayRepo,
    versionRepo:     versionRepo,
    stepVersionRepo: stepVersionRepo,
    edgeRepo:        edgeRepo,
    pathwayProgRepo: pathwayProgRepo,
    stepProgRepo:    stepProgRepo,
    audit:           audit,
    badgeIssuer:     badgeIssuer,
    cache:           cache,
  }
}

// completionFire carries the badge issue that must happen after the
// transaction commits; issuance never rolls back progress state.
type completionFire struct {
  badgeClassID uuid.UUID
  userID       uuid.UUID
  narrative    string
}

func (s *progressService) Enroll(ctx context.Context, pathwayID, userID, groupID uuid.UUID) (*types.PathwayProgress, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }
  if userID == uuid.Nil {
    userID = rd.UserID
  }

  var enrolled *types.PathwayProgress
  var fire *completionFire
  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    pathways, err := s.pathwayRepo.GetByIDs(ctx, tx, []uuid.UUID{pathwayID})
    if err != nil {
      return err
    }
    if len(pathways) == 0 || pathways[0] == nil {
      return fmt.Errorf("%w: pathway %s", apperrors.ErrNotFound, pathwayID)
    }
    version, err := s.versionRepo.GetLatestPublished(ctx, tx, pathwayID)
    if err != nil {
      return err
    }
    if version == nil {
      return fmt.Errorf("%w: pathway %s has no published version", apperrors.ErrNotFound, pathwayID)
    }

    existing, err := s.pathwayProgRepo.GetByPathwayUserGroup(ctx, tx, pathwayID, userID, groupID)
    if err != nil {
      return err
    }
    if existing != nil {
      enrolled = existing
      return nil
    }

    stepVersions, err := s.stepVersionRepo.GetByPathwayVersionID(ctx, tx, version.ID)
    if err != nil {
      return err
    }
    edges, err := s.edgeRepo.GetByPathwayID(ctx, tx, pathwayID)
    if err != nil {
      return err
    }

    // Steps with no unmet prerequisites start in_progress, the rest
    // locked. With no progress yet, only prerequisite-free gates pass.
    now := time.Now().UTC()
    stepRows := make([]*types.StepProgress, 0, len(stepVersions))
    for _, sv := range stepVersions {
      status := types.StepProgressLocked
      var startedAt *time.Time
      if gateSatisfied(sv, edges, stepVersions, map[uuid.UUID]*types.StepProgress{}) {
        status = types.StepProgressInProgress
        started := now
        startedAt = &started
      }
      stepRows = append(stepRows, &types.StepProgress{
        ID:            uuid.New(),
        StepVersionID: sv.ID,
        UserID:        userID,
        GroupID:       groupID,
        Status:        status,
        StartedAt:     startedAt,
      })
    }
    if _, err := s.stepProgRepo.Create(ctx, tx, stepRows); err != nil {
      return err
    }

    // The aggregate row goes through the same refresh as every later
    // mutation, so a pathway that is already at 100 (no non-optional
    // steps) completes and fires right at enrollment.
    progressBySV := make(map[uuid.UUID]*types.StepProgress, len(stepRows))
    for _, sp := range stepRows {
      progressBySV[sp.StepVersionID] = sp
    }
    row, enrollFire, err := s.refreshAggregate(ctx, tx, version, stepVersions, userID, groupID, progressBySV)
    if err != nil {
      return err
    }
    fire = enrollFire
    enrolled = row
    return s.audit.Record(ctx, tx, actor, types.AuditActionEnroll, "pathway", pathwayID,
      fmt.Sprintf("enrolled user %s against version %d", userID, version.Version))
  })
  if err != nil {
    s.log.Warn("Enroll failed", "error", err, "pathway_id", pathwayID, "user_id", userID)
    return nil, err
  }
  s.cache.Invalidate(ctx, pathwayID, userID, groupID)
  s.fireCompletion(ctx, fire)
  return enrolled, nil
}

func (s *progressService) Unenroll(ctx context.Context, pathwayID, userID, groupID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return apperrors.ErrUnauthorized
  }
  if userID == uuid.Nil {
    userID = rd.UserID
  }

  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    row, err := s.pathwayProgRepo.GetByPathwayUserGroup(ctx, tx, pathwayID, userID, groupID)
    if err != nil {
      return err
    }
    if row == nil {
      return fmt.Errorf("%w: no enrollment for pathway %s", apperrors.ErrNotFound, pathwayID)
    }
    stepVersions, err := s.stepVersionRepo.GetByPathwayVersionID(ctx, tx, row.PathwayVersionID)
    if err != nil {
      return err
    }
    svIDs := make([]uuid.UUID, 0, len(stepVersions))
    for _, sv := range stepVersions {
      svIDs = append(svIDs, sv.ID)
    }
    if err := s.stepProgRepo.FullDeleteByStepVersionIDsForUser(ctx, tx, svIDs, userID, groupID); err != nil {
      return err
    }
    return s.pathwayProgRepo.FullDelete(ctx, tx, pathwayID, userID, groupID)
  })
  if err != nil {
    s.log.Warn("Unenroll failed", "error", err, "pathway_id", pathwayID, "user_id", userID)
    return err
  }
  s.cache.Invalidate(ctx, pathwayID, userID, groupID)
  return nil
}

func (s *progressService) CompleteStep(ctx context.Context, stepVersionID, userID, groupID uuid.UUID) (*types.StepProgress, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }
  if userID == uuid.Nil {
    userID = rd.UserID
  }

  var result *types.StepProgress
  var fire *completionFire
  var pathwayID uuid.UUID
  actor := Actor{ID: rd.UserID, Email: rd.Email}
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    stepVersions, version, err := s.loadVersionForStepVersion(ctx, tx, stepVersionID)
    if err != nil {
      return err
    }
    if version.Status == types.VersionStatusArchived {
      return fmt.Errorf("%w: version %d of pathway %s is archived", apperrors.ErrVersionConflict, version.Version, version.PathwayID)
    }
    pathwayID = version.PathwayID
    var target *types.StepVersion
    for _, sv := range stepVersions {
      if sv.ID == stepVersionID {
        target = sv
        break
      }
    }

    svIDs := make([]uuid.UUID, 0, len(stepVersions))
    for _, sv := range stepVersions {
      svIDs = append(svIDs, sv.ID)
    }
    progressRows, err := s.stepProgRepo.GetByStepVersionIDsForUser(ctx, tx, svIDs, userID, groupID)
    if err != nil {
      return err
    }
    progressBySV := make(map[uuid.UUID]*types.StepProgress, len(progressRows))
    for _, sp := range progressRows {
      progressBySV[sp.StepVersionID] = sp
    }

    // A racing second completion observes completed and no-ops.
    if existing := progressBySV[stepVersionID]; existing != nil && existing.Status == types.StepProgressCompleted {
      result = existing
      return nil
    }

    edges, err := s.edgeRepo.GetByPathwayID(ctx, tx, version.PathwayID)
    if err != nil {
      return err
    }
    if !gateSatisfied(target, edges, stepVersions, progressBySV) {
      return fmt.Errorf("%w: step version %s", apperrors.ErrPrerequisiteNotMet, stepVersionID)
    }

    now := time.Now().UTC()
    sp := progressBySV[stepVersionID]
    if sp == nil {
      // Lazily created on first touch.
      sp = &types.StepProgress{
        ID:            uuid.New(),
        StepVersionID: stepVersionID,
        UserID:        userID,
        GroupID:       groupID,
        Status:        types.StepProgressCompleted,
        StartedAt:     &now,
        CompletedAt:   &now,
      }
      if _, err := s.stepProgRepo.Create(ctx, tx, []*types.StepProgress{sp}); err != nil {
        return err
      }
      progressBySV[stepVersionID] = sp
    } else {
      sp.Status = types.StepProgressCompleted
      if sp.StartedAt == nil {
        sp.StartedAt = &now
      }
      sp.CompletedAt = &now
      if err := s.stepProgRepo.Update(ctx, tx, sp); err != nil {
        return err
      }
    }
    result = sp

    // Dependents whose gate now passes move locked -> in_progress.
    for _, sv := range stepVersions {
      dep := progressBySV[sv.ID]
      if dep == nil || dep.Status != types.StepProgressLocked {
        continue
      }
      if gateSatisfied(sv, edges, stepVersions, progressBySV) {
        dep.Status = types.StepProgressInProgress
        if dep.StartedAt == nil {
          dep.StartedAt = &now
        }
        if err := s.stepProgRepo.Update(ctx, tx, dep); err != nil {
          return err
        }
      }
    }

    if err := s.audit.Record(ctx, tx, actor, types.AuditActionComplete, "step_version", stepVersionID,
      fmt.Sprintf("completed step %q for user %s", target.Name, userID)); err != nil {
      return err
    }

    _, fire, err = s.refreshAggregate(ctx, tx, version, stepVersions, userID, groupID, progressBySV)
    return err
  })
  if err != nil {
    s.log.Warn("CompleteStep failed", "error", err, "step_version_id", stepVersionID, "user_id", userID)
    return nil, err
  }
  s.cache.Invalidate(ctx, pathwayID, userID, groupID)
  s.fireCompletion(ctx, fire)
  return result, nil
}

func (s *progressService) GetProgress(ctx context.Context, pathwayID, userID, groupID uuid.UUID) (*types.PathwayProgress, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthorized
  }
  if userID == uuid.Nil {
    userID = rd.UserID
  }
  row, err := s.pathwayProgRepo.GetByPathwayUserGroup(ctx, nil, pathwayID, userID, groupID)
  if err != nil {
    return nil, err
  }
  if row == nil {
    return nil, fmt.Errorf("%w: no enrollment for pathway %s", apperrors.ErrNotFound, pathwayID)
  }
  s.cache.SetPercentage(ctx, pathwayID, userID, groupID, row.Percentage)
  return row, nil
}

// CalculatePathwayProgress is a pure function of the persisted step
// progress rows: no writes, idempotent, re-runnable at any time.
func (s *progressService) CalculatePathwayProgress(ctx context.Context, pathwayID, userID, groupID uuid.UUID) (int, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return 0, apperrors.ErrUnauthorized
  }
  if userID == uuid.Nil {
    userID = rd.UserID
  }
  if pct, ok := s.cache.GetPercentage(ctx, pathwayID, userID, groupID); ok {
    return pct, nil
  }

  row, err := s.pathwayProgRepo.GetByPathwayUserGroup(ctx, nil, pathwayID, userID, groupID)
  if err != nil {
    return 0, err
  }
  var version *types.PathwayVersion
  if row != nil {
    versions, err := s.versionRepo.GetByIDs(ctx, nil, []uuid.UUID{row.PathwayVersionID})
    if err != nil {
      return 0, err
    }
    if len(versions) > 0 {
      version = versions[0]
    }
  } else {
    version, err = s.versionRepo.GetLatestPublished(ctx, nil, pathwayID)
    if err != nil {
      return 0, err
    }
  }
  if version == nil {
    return 0, fmt.Errorf("%w: pathway %s has no published version", apperrors.ErrNotFound, pathwayID)
  }

  stepVersions, err := s.stepVersionRepo.GetByPathwayVersionID(ctx, nil, version.ID)
  if err != nil {
    return 0, err
  }
  svIDs := make([]uuid.UUID, 0, len(stepVersions))
  for _, sv := range stepVersions {
    svIDs = append(svIDs, sv.ID)
  }
  progressRows, err := s.stepProgRepo.GetByStepVersionIDsForUser(ctx, nil, svIDs, userID, groupID)
  if err != nil {
    return 0, err
  }
  progressBySV := make(map[uuid.UUID]*types.StepProgress, len(progressRows))
  for _, sp := range progressRows {
    progressBySV[sp.StepVersionID] = sp
  }
  completed, total := countCompletion(stepVersions, progressBySV)
  pct := percentageOf(completed, total)
  s.cache.SetPercentage(ctx, pathwayID, userID, groupID, pct)
  return pct, nil
}

// RecalculateAllProgressForPathway re-derives every progress row for
// the pathway from scratch. Used for repair and migration; safe to
// run repeatedly.
func (s *progressService) RecalculateAllProgressForPathway(ctx context.Context, pathwayID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return apperrors.ErrUnauthorized
  }

  var fires []*completionFire
  var rows []*types.PathwayProgress
  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    var err error
    rows, err = s.pathwayProgRepo.GetByPathwayID(ctx, tx, pathwayID)
    if err != nil {
      return err
    }
    for _, row := range rows {
      versions, err := s.versionRepo.GetByIDs(ctx, tx, []uuid.UUID{row.PathwayVersionID})
      if err != nil {
        return err
      }
      if len(versions) == 0 || versions[0] == nil {
        continue
      }
      version := versions[0]
      stepVersions, err := s.stepVersionRepo.GetByPathwayVersionID(ctx, tx, version.ID)
      if err != nil {
        return err
      }
      svIDs := make([]uuid.UUID, 0, len(stepVersions))
      for _, sv := range stepVersions {
        svIDs = append(svIDs, sv.ID)
      }
      progressRows, err := s.stepProgRepo.GetByStepVersionIDsForUser(ctx, tx, svIDs, row.UserID, row.GroupID)
      if err != nil {
        return err
      }
      progressBySV := make(map[uuid.UUID]*types.StepProgress, len(progressRows))
      for _, sp := range progressRows {
        progressBySV[sp.StepVersionID] = sp
      }
      _, fire, err := s.refreshAggregate(ctx, tx, version, stepVersions, row.UserID, row.GroupID, progressBySV)
      if err != nil {
        return err
      }
      if fire != nil {
        fires = append(fires, fire)
      }
    }
    return nil
  })
  if err != nil {
    s.log.Warn("RecalculateAllProgressForPathway failed", "error", err, "pathway_id", pathwayID)
    return err
  }
  for _, row := range rows {
    s.cache.Invalidate(ctx, pathwayID, row.UserID, row.GroupID)
  }
  for _, fire := range fires {
    s.fireCompletion(ctx, fire)
  }
  return nil
}

// refreshAggregate recounts and persists one PathwayProgress row and
// returns a completionFire the first time the row reaches 100. The
// completed flag is checked before triggering, so re-running the
// aggregation never re-fires completion side effects; it also never
// unsets a completed row.
func (s *progressService) refreshAggregate(
  ctx context.Context,
  tx *gorm.DB,
  version *types.PathwayVersion,
  stepVersions []*types.StepVersion,
  userID, groupID uuid.UUID,
  progressBySV map[uuid.UUID]*types.StepProgress,
) (*types.PathwayProgress, *completionFire, error) {
  row, err := s.pathwayProgRepo.GetByPathwayUserGroup(ctx, tx, version.PathwayID, userID, groupID)
  if err != nil {
    return nil, nil, err
  }
  if row == nil {
    // Lazily created on first touch.
    row = &types.PathwayProgress{
      ID:               uuid.New(),
      PathwayID:        version.PathwayID,
      PathwayVersionID: version.ID,
      UserID:           userID,
      GroupID:          groupID,
    }
    if _, err := s.pathwayProgRepo.Create(ctx, tx, []*types.PathwayProgress{row}); err != nil {
      return nil, nil, err
    }
  }

  completed, total := countCompletion(stepVersions, progressBySV)
  row.CompletedElements = completed
  row.TotalElements = total
  row.Percentage = percentageOf(completed, total)

  var fire *completionFire
  if row.Percentage >= 100 && !row.Completed {
    now := time.Now().UTC()
    row.Completed = true
    row.CompletedAt = &now
    if version.CompletionBadgeID != nil {
      fire = &completionFire{
        badgeClassID: *version.CompletionBadgeID,
        userID:       userID,
        narrative:    fmt.Sprintf("Completed pathway %q (version %d)", version.Name, version.Version),
      }
    }
  }
  if err := s.pathwayProgRepo.Update(ctx, tx, row); err != nil {
    return nil, nil, err
  }
  return row, fire, nil
}

func (s *progressService) fireCompletion(ctx context.Context, fire *completionFire) {
  if fire == nil || s.badgeIssuer == nil {
    return
  }
  if _, err := s.badgeIssuer.IssueBadge(ctx, fire.badgeClassID, fire.userID, fire.narrative); err != nil {
    // Best-effort: issuance failure never rolls back progress.
    s.log.Warn("completion badge issuance failed", "error", err, "badge_class_id", fire.badgeClassID, "user_id", fire.userID)
  }
}

func (s *progressService) loadVersionForStepVersion(ctx context.Context, tx *gorm.DB, stepVersionID uuid.UUID) ([]*types.StepVersion, *types.PathwayVersion, error) {
  svRows, err := s.stepVersionRepo.GetByIDs(ctx, tx, []uuid.UUID{stepVersionID})
  if err != nil {
    return nil, nil, err
  }
  if len(svRows) == 0 || svRows[0] == nil {
    return nil, nil, fmt.Errorf("%w: step version %s", apperrors.ErrNotFound, stepVersionID)
  }
  versions, err := s.versionRepo.GetByIDs(ctx, tx, []uuid.UUID{svRows[0].PathwayVersionID})
  if err != nil {
    return nil, nil, err
  }
  if len(versions) == 0 || versions[0] == nil {
    return nil, nil, fmt.Errorf("%w: pathway version %s", apperrors.ErrNotFound, svRows[0].PathwayVersionID)
  }
  stepVersions, err := s.stepVersionRepo.GetByPathwayVersionID(ctx, tx, versions[0].ID)
  if err != nil {
    return nil, nil, err
  }
  return stepVersions, versions[0], nil
}

// gateSatisfied evaluates a step version's gating rule over its
// prerequisite set. Prerequisite edges reference live step ids; the
// snapshot's step_id back-references map them onto step versions.
func gateSatisfied(sv *types.StepVersion, edges []*types.PrerequisiteEdge, stepVersions []*types.StepVersion, progressBySV map[uuid.UUID]*types.StepProgress) bool {
  svByStepID := make(map[uuid.UUID]*types.StepVersion, len(stepVersions))
  for _, other := range stepVersions {
    svByStepID[other.StepID] = other
  }

  var prereqSVs []*types.StepVersion
  for _, e := range edges {
    if e.StepID != sv.StepID {
      continue
    }
    if prereq, ok := svByStepID[e.PrerequisiteStepID]; ok {
      prereqSVs = append(prereqSVs, prereq)
    }
  }
  if len(prereqSVs) == 0 {
    return true
  }

  satisfied := 0
  for _, prereq := range prereqSVs {
    if sp := progressBySV[prereq.ID]; sp != nil && sp.Status == types.StepProgressCompleted {
      satisfied++
    }
  }
  if sv.RuleType == types.RuleNOfM {
    required := sv.RequiredCount
    if required <= 0 || required > len(prereqSVs) {
      required = len(prereqSVs)
    }
    return satisfied >= required
  }
  return satisfied == len(prereqSVs)
}

func countCompletion(stepVersions []*types.StepVersion, progressBySV map[uuid.UUID]*types.StepProgress) (completed, total int) {
  for _, sv := range stepVersions {
    if sv.Optional {
      continue
    }
    total++
    if sp := progressBySV[sv.ID]; sp != nil && sp.Status == types.StepProgressCompleted {
      completed++
    }
  }
  return completed, total
}

// percentageOf matches the aggregation rule: an empty non-optional
// set is complete, otherwise whole percent of completed over total.
func percentageOf(completed, total int) int {
  if total == 0 {
    return 100
  }
  return 100 * completed / total
}
