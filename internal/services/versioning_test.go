package services

import (
	"errors"
	"testing"

	apperrors "github.com/lokyajadhav/digibadger-backend-sub000/internal/pkg/errors"
	"github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
)

func strPtr(v string) *string { return &v }

func TestPublish_AssignsMonotonicVersions(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})
	env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "a"})

	v1, err := env.versioning.Publish(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if v1.Version != 1 {
		t.Fatalf("expected version 1, got %d", v1.Version)
	}
	if v1.Status != types.VersionStatusPublished {
		t.Fatalf("expected published status, got %q", v1.Status)
	}

	v2, err := env.versioning.Publish(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("Publish again: %v", err)
	}
	if v2.Version != 2 {
		t.Fatalf("expected version 2, got %d", v2.Version)
	}

	got, err := env.pathways.GetPathway(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("GetPathway: %v", err)
	}
	if got.Status != types.PathwayStatusPublished {
		t.Fatalf("expected pathway flipped to published, got %q", got.Status)
	}

	versions, err := env.versioning.ListVersions(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
}

func TestPublish_SnapshotSurvivesLiveEdits(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})
	step := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "original"})
	_, err := env.structure.CreateRequirement(env.ctx(), CreateRequirementInput{
		StepID:         step.ID,
		Kind:           types.RequirementKindManualExperience,
		ExperienceName: "field work",
	})
	if err != nil {
		t.Fatalf("CreateRequirement: %v", err)
	}

	published, err := env.versioning.Publish(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// Live edits after publish must not leak into the snapshot.
	if _, err := env.structure.UpdateStep(env.ctx(), UpdateStepInput{StepID: step.ID, Name: strPtr("renamed")}); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}
	if err := env.structure.DeleteStep(env.ctx(), step.ID); err != nil {
		t.Fatalf("DeleteStep: %v", err)
	}

	detail, err := env.versioning.GetVersion(env.ctx(), pathway.ID, published.Version)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if len(detail.Steps) != 2 {
		t.Fatalf("expected 2 frozen steps, got %d", len(detail.Steps))
	}
	var found bool
	for _, sv := range detail.Steps {
		if sv.StepID == step.ID {
			found = true
			if sv.Name != "original" {
				t.Fatalf("snapshot step renamed to %q", sv.Name)
			}
		}
	}
	if !found {
		t.Fatalf("deleted live step missing from snapshot")
	}
	if len(detail.Requirements) != 1 {
		t.Fatalf("expected 1 frozen requirement, got %d", len(detail.Requirements))
	}
	if detail.Requirements[0].ExperienceName != "field work" {
		t.Fatalf("unexpected frozen requirement %q", detail.Requirements[0].ExperienceName)
	}
}

func TestPublish_RejectsInvalidStructure(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})
	a := env.mustCreateStep(t, CreateStepInput{PathwayID: pathway.ID, Name: "a"})

	// Duplicate indexes cannot even be written past the service-level
	// collision policy: the (pathway_id, order_index) unique index
	// rejects the raw update.
	if err := env.db.Model(&types.Step{}).Where("id = ?", a.ID).Update("order_index", 0).Error; err == nil {
		t.Fatalf("expected unique index to reject duplicate order index")
	}

	// A negative index slips past the database but publish must still
	// refuse to freeze it.
	if err := env.db.Model(&types.Step{}).Where("id = ?", a.ID).Update("order_index", -1).Error; err != nil {
		t.Fatalf("force negative index: %v", err)
	}
	_, err := env.versioning.Publish(env.ctx(), pathway.ID)
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	versions, err := env.versioning.ListVersions(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("failed publish must not leave snapshot rows, got %d", len(versions))
	}
}

func TestCreateNewDraft_FlipsStatusBack(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})

	if _, err := env.versioning.Publish(env.ctx(), pathway.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	drafted, err := env.versioning.CreateNewDraft(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("CreateNewDraft: %v", err)
	}
	if drafted.Status != types.PathwayStatusDraft {
		t.Fatalf("expected draft status, got %q", drafted.Status)
	}

	// Idempotent on an already-draft pathway.
	again, err := env.versioning.CreateNewDraft(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("CreateNewDraft again: %v", err)
	}
	if again.Status != types.PathwayStatusDraft {
		t.Fatalf("expected draft status, got %q", again.Status)
	}
}

func TestArchiveVersion(t *testing.T) {
	env := newTestEnv(t)
	pathway := env.mustCreatePathway(t, CreatePathwayInput{Name: "p"})

	published, err := env.versioning.Publish(env.ctx(), pathway.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	archived, err := env.versioning.ArchiveVersion(env.ctx(), pathway.ID, published.Version)
	if err != nil {
		t.Fatalf("ArchiveVersion: %v", err)
	}
	if archived.Status != types.VersionStatusArchived {
		t.Fatalf("expected archived status, got %q", archived.Status)
	}

	if _, err := env.versioning.ArchiveVersion(env.ctx(), pathway.ID, 99); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing version, got %v", err)
	}
}
