package entitlement

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

// Feature is one distinct generation capability with its own monthly quota
// and safety-check policy.
type Feature string

const (
	FeatureArticle   Feature = "article"
	FeatureBlogTitle Feature = "blog_title"
	FeatureImage     Feature = "image"
	FeatureImageEdit Feature = "image_edit"
	FeatureResume    Feature = "resume"
)

// Descriptor is the static policy for one feature. CheckPrompt marks flows
// whose text prompt must pass the safety gate before any backend call; the
// object-removal flow additionally screens its instruction text regardless
// of this flag.
type Descriptor struct {
	Name             Feature
	FreeMonthlyLimit int
	CheckPrompt      bool
}

func defaultDescriptors() map[Feature]Descriptor {
	return map[Feature]Descriptor{
		FeatureArticle:   {Name: FeatureArticle, FreeMonthlyLimit: 2},
		FeatureBlogTitle: {Name: FeatureBlogTitle, FreeMonthlyLimit: 2},
		FeatureImage:     {Name: FeatureImage, FreeMonthlyLimit: 3, CheckPrompt: true},
		FeatureImageEdit: {Name: FeatureImageEdit, FreeMonthlyLimit: 2},
		FeatureResume:    {Name: FeatureResume, FreeMonthlyLimit: 1},
	}
}

// Table holds the feature descriptors the service was deployed with.
type Table struct {
	descriptors map[Feature]Descriptor
}

// DefaultTable returns the built-in feature table.
func DefaultTable() *Table {
	return &Table{descriptors: defaultDescriptors()}
}

// LoadTable returns the default table, with free-tier limits overridden
// from a YAML file (feature name -> limit) when path is non-empty.
func LoadTable(path string) (*Table, error) {
	table := DefaultTable()
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature limits file: %w", err)
	}

	overrides := map[string]int{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse feature limits file: %w", err)
	}

	for name, limit := range overrides {
		desc, ok := table.descriptors[Feature(name)]
		if !ok {
			return nil, fmt.Errorf("feature limits file references unknown feature %q", name)
		}
		if limit < 0 {
			return nil, fmt.Errorf("feature %q has negative limit %d", name, limit)
		}
		desc.FreeMonthlyLimit = limit
		table.descriptors[Feature(name)] = desc
	}
	return table, nil
}

// Lookup returns the descriptor for a feature. An unknown feature name is a
// code/deployment mismatch, not caller input, and is reported as a
// configuration error.
func (t *Table) Lookup(ctx context.Context, feature Feature) (Descriptor, error) {
	desc, ok := t.descriptors[feature]
	if !ok {
		return Descriptor{}, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeConfiguration,
			fmt.Sprintf("unknown feature %q", feature),
			nil,
			"0f4c7b9e-2d61-4a38-9f05-8c3a1d6e7b42",
		)
	}
	return desc, nil
}

// Features returns all known feature names.
func (t *Table) Features() []Feature {
	out := make([]Feature, 0, len(t.descriptors))
	for name := range t.descriptors {
		out = append(out, name)
	}
	return out
}
