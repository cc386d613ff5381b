package types

import (
	"testing"

	"github.com/google/uuid"
)

func TestRequirementSpec_VariantSelection(t *testing.T) {
	badge := uuid.New()

	r := &Requirement{Kind: RequirementKindEarnedBadge, BadgeClassID: &badge}
	spec, ok := r.Spec().(EarnedBadgeSpec)
	if !ok {
		t.Fatalf("expected EarnedBadgeSpec, got %T", r.Spec())
	}
	if spec.BadgeClassID != badge {
		t.Fatalf("unexpected badge class %s", spec.BadgeClassID)
	}

	r = &Requirement{Kind: RequirementKindThirdParty, ThirdPartyURL: "https://example.com/cert"}
	tp, ok := r.Spec().(ThirdPartySpec)
	if !ok {
		t.Fatalf("expected ThirdPartySpec, got %T", r.Spec())
	}
	if tp.URL != "https://example.com/cert" {
		t.Fatalf("unexpected url %q", tp.URL)
	}

	r = &Requirement{Kind: RequirementKindManualExperience, ExperienceName: "field work"}
	me, ok := r.Spec().(ManualExperienceSpec)
	if !ok {
		t.Fatalf("expected ManualExperienceSpec, got %T", r.Spec())
	}
	if me.Name != "field work" {
		t.Fatalf("unexpected name %q", me.Name)
	}

	r = &Requirement{Kind: "quiz"}
	if r.Spec() != nil {
		t.Fatalf("expected nil spec for unknown kind")
	}
}
