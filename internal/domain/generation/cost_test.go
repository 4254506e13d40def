package generation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"creatorhub/services/creation-api/internal/domain/entitlement"
)

func TestEstimateCost(t *testing.T) {
	assert.True(t, EstimateCost(entitlement.FeatureImage).GreaterThan(decimal.Zero))
	assert.True(t, EstimateCost(entitlement.FeatureArticle).GreaterThan(decimal.Zero))

	// Image synthesis is the most expensive flow.
	for _, feature := range []entitlement.Feature{
		entitlement.FeatureArticle,
		entitlement.FeatureBlogTitle,
		entitlement.FeatureImageEdit,
		entitlement.FeatureResume,
	} {
		assert.True(t, EstimateCost(entitlement.FeatureImage).GreaterThan(EstimateCost(feature)),
			"image should cost more than %s", feature)
	}

	assert.True(t, EstimateCost("unknown").IsZero())
}
