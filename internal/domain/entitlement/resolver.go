package entitlement

import (
	"context"

	"github.com/rs/zerolog"

	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

// Store defines the profile-store operations the resolver needs. Get
// returns (nil, nil) when no record exists for the caller.
type Store interface {
	Get(ctx context.Context, userID string) (*Record, error)
	Create(ctx context.Context, record *Record) error
	SetUsage(ctx context.Context, userID string, feature Feature, count int) error
}

// Resolver loads entitlement records, seeding a zero record on a caller's
// first-ever lookup (write-on-read initialization).
type Resolver struct {
	store Store
	log   zerolog.Logger
}

func NewResolver(store Store, log zerolog.Logger) *Resolver {
	return &Resolver{
		store: store,
		log:   log.With().Str("component", "entitlement-resolver").Logger(),
	}
}

// Resolve returns the caller's current entitlement record. A store failure
// is fatal for the whole request: no request can be quota-evaluated
// without the record.
func (r *Resolver) Resolve(ctx context.Context, userID string) (*Record, error) {
	record, err := r.store.Get(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "profile store unavailable")
	}
	if record != nil {
		return record, nil
	}

	record = ZeroRecord(userID)
	if err := r.store.Create(ctx, record); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "seed profile record")
	}
	r.log.Debug().Str("user_id", userID).Msg("seeded zero entitlement record")
	return record, nil
}

// CommitUsage writes the post-success counter for a non-premium caller.
// The write is a read-modify-write against the snapshot taken at
// admission, not a re-read: two requests admitted concurrently can both
// commit snapshot+1, which is the accepted bounded-overshoot behavior.
func (r *Resolver) CommitUsage(ctx context.Context, record *Record, feature Feature) error {
	if record.Tier == TierPremium {
		return nil
	}
	next := record.Count(feature) + 1
	if err := r.store.SetUsage(ctx, record.UserID, feature, next); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "commit usage")
	}
	return nil
}
