package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/lokyajadhav/digibadger-backend-sub000/internal/pkg/errors"
	"github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

func boolPtr(v bool) *bool { return &v }

// gatedPathway is the canonical three-step fixture: steps a and b are
// open, the milestone requires both of them, and the pathway carries a
// completion badge.
type gatedPathway struct {
	pathway   *types.Pathway
	milestone uuid.UUID // step version ids
	a         uuid.UUID
	b         uuid.UUID
}

func buildGatedPathway(t *testing.T, env *testEnv) gatedPathway {
	t.Helper()
	badge := uuid.New()
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p", CompletionBadgeID: &badge})

	steps, err := env.structure.ListSteps(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("ListSteps: %v", err)
	}
	milestone := steps[0]
	a := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "a"})
	b := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "b"})
	if _, err := env.structure.AddPrerequisite(env.ctx(), milestone.ID, a.ID); err != nil {
		t.Fatalf("AddPrerequisite: %v", err)
	}
	if _, err := env.structure.AddPrerequisite(env.ctx(), milestone.ID, b.ID); err != nil {
		t.Fatalf("AddPrerequisite: %v", err)
	}

	published, err := env.versioning.Publish(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	detail, err := env.versioning.GetVersion(env.ctx(), pathway.ID, published.Version)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}

	out := gatedPathway{pathway: pathway}
	for _, sv := range detail.Steps {
		switch sv.StepID {
		case milestone.ID:
			out.milestone = sv.ID
		case a.ID:
			out.a = sv.ID
		case b.ID:
			out.b = sv.ID
		}
	}
	return out
}

func TestEnroll_RequiresPublishedVersion(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})

	_, err := env.progress.Enroll(env.ctx(), pathway.ID, uuid.Nil, uuid.Nil)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first publish, got %v", err)
	}
}

func TestEnroll_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	fixture := buildGatedPathway(t, env)

	first, err := env.progress.Enroll(env.ctx(), fixture.pathway.ID, uuid.Nil, uuid.Nil)
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if first.TotalElements != 3 {
		t.Fatalf("expected 3 tracked elements, got %d", first.TotalElements)
	}
	if first.Percentage != 0 {
		t.Fatalf("expected 0%%, got %d", first.Percentage)
	}

	second, err := env.progress.Enroll(env.ctx(), fixture.pathway.ID, uuid.Nil, uuid.Nil)
	if err != nil {
		t.Fatalf("Enroll again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("re-enroll created a second row")
	}
}

func TestCompleteStep_GatingAndAggregation(t *testing.T) {
	env := newTestEnv(t)
	fixture := buildGatedPathway(t, env)
	ctx := env.ctx()

	if _, err := env.progress.Enroll(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	// The milestone's gate needs both a and b.
	if _, err := env.progress.CompleteStep(ctx, fixture.milestone, uuid.Nil, uuid.Nil); !errors.Is(err, apperrors.ErrPrerequisiteNotMet) {
		t.Fatalf("expected ErrPrerequisiteNotMet, got %v", err)
	}

	if _, err := env.progress.CompleteStep(ctx, fixture.a, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("complete a: %v", err)
	}
	row, err := env.progress.GetProgress(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if row.Percentage != 33 {
		t.Fatalf("expected 33%% after 1 of 3, got %d", row.Percentage)
	}

	// Still gated on b.
	if _, err := env.progress.CompleteStep(ctx, fixture.milestone, uuid.Nil, uuid.Nil); !errors.Is(err, apperrors.ErrPrerequisiteNotMet) {
		t.Fatalf("expected ErrPrerequisiteNotMet, got %v", err)
	}

	if _, err := env.progress.CompleteStep(ctx, fixture.b, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("complete b: %v", err)
	}
	row, err = env.progress.GetProgress(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if row.Percentage != 66 {
		t.Fatalf("expected 66%% after 2 of 3, got %d", row.Percentage)
	}
	if row.Completed {
		t.Fatalf("pathway must not complete at 66%%")
	}

	if _, err := env.progress.CompleteStep(ctx, fixture.milestone, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("complete milestone: %v", err)
	}
	row, err = env.progress.GetProgress(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if row.Percentage != 100 || !row.Completed || row.CompletedAt == nil {
		t.Fatalf("expected completed pathway, got pct=%d completed=%v", row.Percentage, row.Completed)
	}
	if env.issuer.calls != 1 {
		t.Fatalf("expected exactly one badge issuance, got %d", env.issuer.calls)
	}
}

func TestCompletionFiresExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	fixture := buildGatedPathway(t, env)
	ctx := env.ctx()

	if _, err := env.progress.Enroll(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	for _, sv := range []uuid.UUID{fixture.a, fixture.b, fixture.milestone} {
		if _, err := env.progress.CompleteStep(ctx, sv, uuid.Nil, uuid.Nil); err != nil {
			t.Fatalf("CompleteStep: %v", err)
		}
	}
	if env.issuer.calls != 1 {
		t.Fatalf("expected 1 issuance, got %d", env.issuer.calls)
	}

	// Re-completing is a no-op and recalculation never re-fires.
	if _, err := env.progress.CompleteStep(ctx, fixture.milestone, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	if err := env.progress.RecalculateAllProgressForPathway(ctx, fixture.pathway.ID); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if err := env.progress.RecalculateAllProgressForPathway(ctx, fixture.pathway.ID); err != nil {
		t.Fatalf("Recalculate again: %v", err)
	}
	if env.issuer.calls != 1 {
		t.Fatalf("completion must fire once, got %d issuances", env.issuer.calls)
	}

	row, err := env.progress.GetProgress(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if !row.Completed {
		t.Fatalf("recalculation must never unset completion")
	}
}

func TestCalculatePathwayProgress_IsPure(t *testing.T) {
	env := newTestEnv(t)
	fixture := buildGatedPathway(t, env)
	ctx := env.ctx()

	if _, err := env.progress.Enroll(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if _, err := env.progress.CompleteStep(ctx, fixture.a, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("CompleteStep: %v", err)
	}
	for i := 0; i < 3; i++ {
		pct, err := env.progress.CalculatePathwayProgress(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil)
		if err != nil {
			t.Fatalf("CalculatePathwayProgress: %v", err)
		}
		if pct != 33 {
			t.Fatalf("expected 33, got %d", pct)
		}
	}
}

func TestNOfMGate(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})

	a := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "a"})
	b := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "b"})
	c := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "c", RuleType: types.RuleNOfM, RequiredCount: 1})
	if _, err := env.structure.AddPrerequisite(env.ctx(), c.ID, a.ID); err != nil {
		t.Fatalf("AddPrerequisite: %v", err)
	}
	if _, err := env.structure.AddPrerequisite(env.ctx(), c.ID, b.ID); err != nil {
		t.Fatalf("AddPrerequisite: %v", err)
	}

	published, err := env.versioning.Publish(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	detail, err := env.versioning.GetVersion(env.ctx(), pathway.ID, published.Version)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	var svA, svC uuid.UUID
	for _, sv := range detail.Steps {
		switch sv.StepID {
		case a.ID:
			svA = sv.ID
		case c.ID:
			svC = sv.ID
		}
	}

	ctx := env.ctx()
	if _, err := env.progress.Enroll(ctx, pathway.ID, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if _, err := env.progress.CompleteStep(ctx, svC, uuid.Nil, uuid.Nil); !errors.Is(err, apperrors.ErrPrerequisiteNotMet) {
		t.Fatalf("expected gated c, got %v", err)
	}
	// One of two satisfies an n_of_m(1) gate.
	if _, err := env.progress.CompleteStep(ctx, svA, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("complete a: %v", err)
	}
	if _, err := env.progress.CompleteStep(ctx, svC, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("expected c unlocked by a alone, got %v", err)
	}
}

func TestOptionalStepsExcludedFromAggregate(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})
	a := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "a"})
	env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "extra", Optional: true})

	published, err := env.versioning.Publish(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	detail, err := env.versioning.GetVersion(env.ctx(), pathway.ID, published.Version)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}

	ctx := env.ctx()
	row, err := env.progress.Enroll(ctx, pathway.ID, uuid.Nil, uuid.Nil)
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	// Milestone plus a; the optional step does not count.
	if row.TotalElements != 2 {
		t.Fatalf("expected 2 tracked elements, got %d", row.TotalElements)
	}

	for _, sv := range detail.Steps {
		if sv.StepID == a.ID {
			if _, err := env.progress.CompleteStep(ctx, sv.ID, uuid.Nil, uuid.Nil); err != nil {
				t.Fatalf("CompleteStep: %v", err)
			}
		}
	}
	pct, err := env.progress.CalculatePathwayProgress(ctx, pathway.ID, uuid.Nil, uuid.Nil)
	if err != nil {
		t.Fatalf("CalculatePathwayProgress: %v", err)
	}
	if pct != 50 {
		t.Fatalf("expected 50%%, got %d", pct)
	}
}

func TestEnroll_AllOptionalPathwayCompletesImmediately(t *testing.T) {
	env := newTestEnv(t)
	badge := uuid.New()
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p", CompletionBadgeID: &badge})

	steps, err := env.structure.ListSteps(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("ListSteps: %v", err)
	}
	if _, err := env.structure.UpdateStep(env.ctx(), UpdateStepInput{StepID: steps[0].ID, Optional: boolPtr(true)}); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}
	if _, err := env.versioning.Publish(env.ctx(), pathway.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// With zero tracked elements the aggregate starts at 100, so
	// enrollment itself is the completion event.
	row, err := env.progress.Enroll(env.ctx(), pathway.ID, uuid.Nil, uuid.Nil)
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if row.TotalElements != 0 {
		t.Fatalf("expected 0 tracked elements, got %d", row.TotalElements)
	}
	if row.Percentage != 100 {
		t.Fatalf("expected 100%%, got %d", row.Percentage)
	}
	if !row.Completed || row.CompletedAt == nil {
		t.Fatalf("expected completion at enrollment, got completed=%v completedAt=%v", row.Completed, row.CompletedAt)
	}
	if env.issuer.calls != 1 {
		t.Fatalf("expected 1 issuance, got %d", env.issuer.calls)
	}
}

func TestCompleteStep_RejectsArchivedVersion(t *testing.T) {
	env := newTestEnv(t)
	fixture := buildGatedPathway(t, env)
	ctx := env.ctx()

	if _, err := env.progress.Enroll(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if _, err := env.versioning.ArchiveVersion(ctx, fixture.pathway.ID, 1); err != nil {
		t.Fatalf("ArchiveVersion: %v", err)
	}
	if _, err := env.progress.CompleteStep(ctx, fixture.a, uuid.Nil, uuid.Nil); !errors.Is(err, apperrors.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict on archived version, got %v", err)
	}
}

func TestUnenroll_RemovesProgress(t *testing.T) {
	env := newTestEnv(t)
	fixture := buildGatedPathway(t, env)
	ctx := env.ctx()

	if _, err := env.progress.Enroll(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if err := env.progress.Unenroll(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil); err != nil {
		t.Fatalf("Unenroll: %v", err)
	}
	if _, err := env.progress.GetProgress(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after unenroll, got %v", err)
	}
	if err := env.progress.Unenroll(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double unenroll, got %v", err)
	}
}

func TestEnrolledLearnerKeepsVersionAcrossRepublish(t *testing.T) {
	env := newTestEnv(t)
	fixture := buildGatedPathway(t, env)
	ctx := env.ctx()

	enrolled, err := env.progress.Enroll(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil)
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	// Publishing a new version leaves existing enrollments pinned.
	env.mustCreateStep(t, CreateStepInput{PathwayID: fixture.pathway.ID, Name: "later addition"})
	if _, err := env.versioning.Publish(ctx, fixture.pathway.ID); err != nil {
		t.Fatalf("Publish v2: %v", err)
	}

	row, err := env.progress.GetProgress(ctx, fixture.pathway.ID, uuid.Nil, uuid.Nil)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if row.PathwayVersionID != enrolled.PathwayVersionID {
		t.Fatalf("enrollment moved to a different version")
	}
	if row.TotalElements != 3 {
		t.Fatalf("expected pinned total of 3, got %d", row.TotalElements)
	}
}

func TestPercentageOf(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 100},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 66},
		{3, 3, 100},
		{1, 2, 50},
	}
	for _, tc := range cases {
		if got := percentageOf(tc.completed, tc.total); got != tc.want {
			t.Fatalf("percentageOf(%d, %d) = %d, want %d", tc.completed, tc.total, got, tc.want)
		}
	}
}
