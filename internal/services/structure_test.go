package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/lokyajadhav/digibadger-backend-sub000/internal/pkg/errors"
	"github.com/lokyajadhav/digibadger-backend-sub000/internal/requestdata"
	"github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

func intPtr(v int) *int { return &v }

func TestCreatePathway_CreatesMilestoneStep(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "Intro to Soldering"})

	steps, err := env.structure.ListSteps(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("ListSteps: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("expected 1 auto-created step, got %d", len(steps))
	}
	if !steps[0].Milestone {
		t.Fatalf("expected milestone step")
	}
	if steps[0].OrderIndex != 0 {
		t.Fatalf("expected milestone at index 0, got %d", steps[0].OrderIndex)
	}
	if steps[0].Name != "Intro to Soldering completion" {
		t.Fatalf("unexpected milestone name %q", steps[0].Name)
	}
}

func TestCreateStep_OrderIndexAssignment(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})

	// Milestone already holds index 0; unset request appends.
	a := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "a"})
	if a.OrderIndex != 1 {
		t.Fatalf("expected unset index to append at 1, got %d", a.OrderIndex)
	}
	// Colliding request moves to max+1 instead of failing.
	b := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "b", OrderIndex: intPtr(1)})
	if b.OrderIndex != 2 {
		t.Fatalf("expected collision to resolve to 2, got %d", b.OrderIndex)
	}
	// Negative clamps to 0, which is taken, so it also appends.
	c := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "c", OrderIndex: intPtr(-5)})
	if c.OrderIndex != 3 {
		t.Fatalf("expected negative request to resolve to 3, got %d", c.OrderIndex)
	}
	// A free index is honored as requested.
	d := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "d", OrderIndex: intPtr(10)})
	if d.OrderIndex != 10 {
		t.Fatalf("expected free index 10 to be honored, got %d", d.OrderIndex)
	}
}

func TestAssignOrderIndex(t *testing.T) {
	self := uuid.New()
	steps := []*types.Step{
		{ID: uuid.New(), OrderIndex: 0},
		{ID: uuid.New(), OrderIndex: 1},
		{ID: uuid.New(), OrderIndex: 4},
	}
	cases := []struct {
		name      string
		requested *int
		want      int
	}{
		{"unset appends", nil, 5},
		{"collision appends", intPtr(1), 5},
		{"negative clamps then appends on collision", intPtr(-1), 5},
		{"free slot honored", intPtr(2), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := assignOrderIndex(steps, tc.requested, self)
			if got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}

func TestRearrangeStep_RejectsParentCycle(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})

	a := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "a"})
	b := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "b", ParentID: &a.ID})
	c := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "c", ParentID: &b.ID})

	// Moving a under its own descendant would close a cycle.
	_, err := env.structure.RearrangeStep(env.ctx(), a.ID, &c.ID, nil)
	if !errors.Is(err, apperrors.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}

	// The rejected move leaves the structure untouched.
	steps, err := env.structure.ListSteps(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("ListSteps: %v", err)
	}
	for _, st := range steps {
		if st.ID == a.ID && st.ParentID != nil {
			t.Fatalf("rejected move must not change parent, got %v", st.ParentID)
		}
	}
}

func TestRearrangeStep_RejectsSelfParent(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})
	a := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "a"})

	_, err := env.structure.RearrangeStep(env.ctx(), a.ID, &a.ID, nil)
	if !errors.Is(err, apperrors.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestAddPrerequisite_RejectsCycles(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})

	a := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "a"})
	b := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "b"})
	c := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "c"})

	if _, err := env.structure.AddPrerequisite(env.ctx(), a.ID, a.ID); !errors.Is(err, apperrors.ErrCycleDetected) {
		t.Fatalf("expected self edge rejection, got %v", err)
	}

	// a requires b, b requires c; closing c -> a is a length-3 cycle.
	if _, err := env.structure.AddPrerequisite(env.ctx(), a.ID, b.ID); err != nil {
		t.Fatalf("AddPrerequisite a<-b: %v", err)
	}
	if _, err := env.structure.AddPrerequisite(env.ctx(), b.ID, c.ID); err != nil {
		t.Fatalf("AddPrerequisite b<-c: %v", err)
	}
	if _, err := env.structure.AddPrerequisite(env.ctx(), c.ID, a.ID); !errors.Is(err, apperrors.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}

	// Removing an edge reopens the graph.
	if err := env.structure.RemovePrerequisite(env.ctx(), a.ID, b.ID); err != nil {
		t.Fatalf("RemovePrerequisite: %v", err)
	}
	if _, err := env.structure.AddPrerequisite(env.ctx(), c.ID, a.ID); err != nil {
		t.Fatalf("expected edge to be accepted after removal, got %v", err)
	}
}

func TestDeleteStep_ReparentsChildrenAndProtectsMilestone(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})

	steps, err := env.structure.ListSteps(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("ListSteps: %v", err)
	}
	milestone := steps[0]
	if err := env.structure.DeleteStep(env.ctx(), milestone.ID); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected milestone deletion to be rejected, got %v", err)
	}

	a := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "a"})
	b := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "b", ParentID: &a.ID})
	c := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "c", ParentID: &b.ID})

	if err := env.structure.DeleteStep(env.ctx(), b.ID); err != nil {
		t.Fatalf("DeleteStep: %v", err)
	}
	steps, err = env.structure.ListSteps(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("ListSteps: %v", err)
	}
	for _, st := range steps {
		if st.ID == b.ID {
			t.Fatalf("deleted step still listed")
		}
		if st.ID == c.ID {
			if st.ParentID == nil || *st.ParentID != a.ID {
				t.Fatalf("expected c re-parented to a, got %v", st.ParentID)
			}
		}
	}
}

func TestCreateRequirement_ValidatesKinds(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})
	step := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "a"})

	cases := []struct {
		name    string
		input   CreateRequirementInput
		wantErr bool
	}{
		{"unknown kind", CreateRequirementInput{StepID: step.ID, Kind: "quiz"}, true},
		{"earned_badge without badge", CreateRequirementInput{StepID: step.ID, Kind: types.RequirementKindEarnedBadge}, true},
		{"third_party without url", CreateRequirementInput{StepID: step.ID, Kind: types.RequirementKindThirdParty}, true},
		{"manual without name", CreateRequirementInput{StepID: step.ID, Kind: types.RequirementKindManualExperience}, true},
		{"manual ok", CreateRequirementInput{StepID: step.ID, Kind: types.RequirementKindManualExperience, ExperienceName: "volunteering"}, false},
		{"third_party ok", CreateRequirementInput{StepID: step.ID, Kind: types.RequirementKindThirdParty, ThirdPartyURL: "https://example.com/cert"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.structure.CreateRequirement(env.ctx(), tc.input)
			if tc.wantErr && !errors.Is(err, apperrors.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestMutationsAppendAuditEntries(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})
	step := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "a"})
	if _, err := env.structure.UpdateStep(env.ctx(), UpdateStepInput{StepID: step.ID, Name: strPtr("a2")}); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}

	entries, err := env.auditRepo.GetByEntity(context.Background(), nil, "step", step.ID)
	if err != nil {
		t.Fatalf("GetByEntity: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected create+update entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.ActorID != env.actorID {
			t.Fatalf("audit entry missing actor, got %s", e.ActorID)
		}
	}

	pathwayEntries, err := env.auditRepo.GetByEntity(context.Background(), nil, "pathway", pathway.ID)
	if err != nil {
		t.Fatalf("GetByEntity pathway: %v", err)
	}
	if len(pathwayEntries) != 1 {
		t.Fatalf("expected 1 pathway entry, got %d", len(pathwayEntries))
	}
	if pathwayEntries[0].Action != types.AuditActionCreate {
		t.Fatalf("unexpected action %q", pathwayEntries[0].Action)
	}
}

func TestStructure_RejectsForeignOrg(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})

	foreign := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: uuid.New(),
		OrgID:  uuid.New(),
	})
	_, err := env.structure.ListSteps(foreign, pathway.ID)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected foreign org to see not found, got %v", err)
	}
}
