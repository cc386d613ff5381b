package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
	"github.com/lokyajadhav/digibadger-backend-sub000/internal/repos"
	"github.com/lokyajadhav/digibadger-backend-sub000/internal/requestdata"
	"github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

var testDBCounter atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&types.Pathway{},
		&types.Step{},
		&types.Requirement{},
		&types.PrerequisiteEdge{},
		&types.PathwayVersion{},
		&types.StepVersion{},
		&types.RequirementVersion{},
		&types.PathwayProgress{},
		&types.StepProgress{},
		&types.AuditEntry{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// countingBadgeIssuer records every issuance so tests can assert the
// once-only completion trigger.
type countingBadgeIssuer struct {
	calls int
}

func (c *countingBadgeIssuer) IssueBadge(ctx context.Context, badgeClassID, userID uuid.UUID, narrative string) (uuid.UUID, error) {
	c.calls++
	return uuid.New(), nil
}

type testEnv struct {
	db         *gorm.DB
	orgID      uuid.UUID
	actorID    uuid.UUID
	issuer     *countingBadgeIssuer
	auditRepo  repos.AuditEntryRepo
	pathways   PathwayService
	structure  StructureService
	versioning VersioningService
	progress   ProgressService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := logger.NewNop()

	pathwayRepo := repos.NewPathwayRepo(db, log)
	stepRepo := repos.NewStepRepo(db, log)
	requirementRepo := repos.NewRequirementRepo(db, log)
	edgeRepo := repos.NewPrerequisiteEdgeRepo(db, log)
	versionRepo := repos.NewPathwayVersionRepo(db, log)
	stepVersionRepo := repos.NewStepVersionRepo(db, log)
	reqVersionRepo := repos.NewRequirementVersionRepo(db, log)
	pathwayProgRepo := repos.NewPathwayProgressRepo(db, log)
	stepProgRepo := repos.NewStepProgressRepo(db, log)
	auditRepo := repos.NewAuditEntryRepo(db, log)

	audit := NewAuditService(db, log, auditRepo)
	issuer := &countingBadgeIssuer{}

	return &testEnv{
		db:         db,
		orgID:      uuid.New(),
		actorID:    uuid.New(),
		issuer:     issuer,
		auditRepo:  auditRepo,
		pathways:   NewPathwayService(db, log, pathwayRepo, stepRepo, audit),
		structure:  NewStructureService(db, log, pathwayRepo, stepRepo, requirementRepo, edgeRepo, audit),
		versioning: NewVersioningService(db, log, pathwayRepo, stepRepo, requirementRepo, versionRepo, stepVersionRepo, reqVersionRepo, audit),
		progress:   NewProgressService(db, log, pathwayRepo, versionRepo, stepVersionRepo, edgeRepo, pathwayProgRepo, stepProgRepo, audit, issuer, nil),
	}
}

func (e *testEnv) ctx() context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: e.actorID,
		Email:  "tester@example.com",
		OrgID:  e.orgID,
	})
}

func (e *testEnv) mustCreatePathway(t *testing.T, input CreatePathwayInput) *types.Pathway {
	t.Helper()
	pathway, err := e.pathways.CreatePathway(e.ctx(), input)
	if err != nil {
		t.Fatalf("CreatePathway: %v", err)
	}
	return pathway
}

func (e *testEnv) mustCreateStep(t *testing.T, input CreateStepInput) *types.Step {
	t.Helper()
	step, err := e.structure.CreateStep(e.ctx(), input)
	if err != nil {
		t.Fatalf("CreateStep %q: %v", input.Name, err)
	}
	return step
}
