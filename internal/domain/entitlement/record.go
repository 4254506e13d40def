// Package entitlement resolves a caller's tier and per-feature usage
// counters and decides whether a generation request may proceed.
package entitlement

// Tier is the caller's subscription class.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Record is one caller's entitlement state. It is read from the profile
// store at the start of each request and cached only for that request's
// lifetime; cross-request staleness is handled by always re-reading.
type Record struct {
	UserID string
	Tier   Tier
	Usage  map[Feature]int
}

// Count returns the recorded usage for a feature, zero when absent.
func (r *Record) Count(feature Feature) int {
	if r == nil || r.Usage == nil {
		return 0
	}
	return r.Usage[feature]
}

// ZeroRecord returns a fresh free-tier record with empty counters, used to
// seed the profile store on a caller's first request.
func ZeroRecord(userID string) *Record {
	return &Record{
		UserID: userID,
		Tier:   TierFree,
		Usage:  map[Feature]int{},
	}
}
