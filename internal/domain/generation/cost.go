package generation

import (
	"github.com/shopspring/decimal"

	"creatorhub/services/creation-api/internal/domain/entitlement"
)

// Flat per-generation cost estimates (USD), recorded on the creation for
// reporting. Not billed; quota is the enforcement mechanism.
var featureCost = map[entitlement.Feature]decimal.Decimal{
	entitlement.FeatureArticle:   decimal.NewFromFloat(0.002),
	entitlement.FeatureBlogTitle: decimal.NewFromFloat(0.0005),
	entitlement.FeatureImage:     decimal.NewFromFloat(0.01),
	entitlement.FeatureImageEdit: decimal.NewFromFloat(0.008),
	entitlement.FeatureResume:    decimal.NewFromFloat(0.004),
}

// EstimateCost returns the flat cost estimate for one generation of the
// feature, zero for unknown features.
func EstimateCost(feature entitlement.Feature) decimal.Decimal {
	if cost, ok := featureCost[feature]; ok {
		return cost
	}
	return decimal.Zero
}
