package entitlement

import (
	"context"
	"testing"

	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

func TestAdmitPremiumAlwaysAdmitted(t *testing.T) {
	table := DefaultTable()
	for _, feature := range table.Features() {
		desc, err := table.Lookup(context.Background(), feature)
		if err != nil {
			t.Fatalf("lookup %s: %v", feature, err)
		}
		record := &Record{
			UserID: "user-1",
			Tier:   TierPremium,
			Usage:  map[Feature]int{feature: 1000},
		}
		decision := Admit(record, desc)
		if !decision.Admitted {
			t.Errorf("premium caller rejected for %s: %s", feature, decision.Reason)
		}
	}
}

func TestAdmitFreeUnderLimit(t *testing.T) {
	desc := Descriptor{Name: FeatureImage, FreeMonthlyLimit: 3}
	record := &Record{UserID: "user-1", Tier: TierFree, Usage: map[Feature]int{FeatureImage: 2}}

	decision := Admit(record, desc)
	if !decision.Admitted {
		t.Fatalf("expected admit at usage 2 of limit 3, got reject: %s", decision.Reason)
	}
}

func TestAdmitFreeAtLimit(t *testing.T) {
	desc := Descriptor{Name: FeatureImage, FreeMonthlyLimit: 3}
	record := &Record{UserID: "user-1", Tier: TierFree, Usage: map[Feature]int{FeatureImage: 3}}

	decision := Admit(record, desc)
	if decision.Admitted {
		t.Fatal("expected reject at usage 3 of limit 3")
	}
	if decision.Reason == "" {
		t.Fatal("rejection must carry a reason")
	}
}

func TestAdmitMissingCounterTreatedAsZero(t *testing.T) {
	desc := Descriptor{Name: FeatureResume, FreeMonthlyLimit: 1}
	record := &Record{UserID: "user-1", Tier: TierFree, Usage: map[Feature]int{}}

	if decision := Admit(record, desc); !decision.Admitted {
		t.Fatalf("expected admit with no recorded usage, got: %s", decision.Reason)
	}
}

func TestLookupUnknownFeatureIsConfigurationError(t *testing.T) {
	table := DefaultTable()
	_, err := table.Lookup(context.Background(), Feature("no_such_feature"))
	if err == nil {
		t.Fatal("expected error for unknown feature")
	}
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeConfiguration) {
		t.Fatalf("expected CONFIGURATION error, got %v", err)
	}
}

func TestDefaultLimits(t *testing.T) {
	table := DefaultTable()
	expected := map[Feature]int{
		FeatureArticle:   2,
		FeatureBlogTitle: 2,
		FeatureImage:     3,
		FeatureImageEdit: 2,
		FeatureResume:    1,
	}
	for feature, limit := range expected {
		desc, err := table.Lookup(context.Background(), feature)
		if err != nil {
			t.Fatalf("lookup %s: %v", feature, err)
		}
		if desc.FreeMonthlyLimit != limit {
			t.Errorf("%s: expected limit %d, got %d", feature, limit, desc.FreeMonthlyLimit)
		}
	}
}

func TestOnlyImagePromptIsSafetyChecked(t *testing.T) {
	table := DefaultTable()
	for _, feature := range table.Features() {
		desc, _ := table.Lookup(context.Background(), feature)
		if desc.CheckPrompt != (feature == FeatureImage) {
			t.Errorf("%s: unexpected CheckPrompt=%v", feature, desc.CheckPrompt)
		}
	}
}
