// Package retention keeps plan records alive for a window that depends on
// their tier. Windows only ever move forward: extending a record that
// already outlives the requested window leaves it untouched.
package retention

import (
	"context"
	"time"

	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
	"synapse/pkg/requestcontext"
)

const day = 24 * time.Hour

// Retention windows per tier. Hot > Cold > Archive.
const (
	HotWindow     = 31 * day
	ColdWindow    = 15 * day
	ArchiveWindow = 7 * day
)

// WindowFor returns how long a record of the given tier is kept alive.
// Unknown tiers get the shortest window.
func WindowFor(tier id.Tier) time.Duration {
	switch tier {
	case id.TierHot:
		return HotWindow
	case id.TierCold:
		return ColdWindow
	default:
		return ArchiveWindow
	}
}

// KeepAlive persists the expiry of each retained record.
type KeepAlive interface {
	// ExtendTo sets the expiry of key to the later of its current expiry and
	// candidate, returning the expiry now in force.
	ExtendTo(ctx context.Context, key string, candidate time.Time) (time.Time, error)
	// ExpiresAt returns the current expiry and whether key is known.
	ExpiresAt(ctx context.Context, key string) (time.Time, bool, error)
}

// Policy applies tier windows to a KeepAlive store. It only records
// expiries; making a lapsed plan unavailable is left to the host.
type Policy struct {
	store KeepAlive
	now   func(ctx context.Context) time.Time
}

type Option func(*Policy)

// WithClock overrides the time source; defaults to the request time.
func WithClock(now func(ctx context.Context) time.Time) Option {
	return func(p *Policy) {
		p.now = now
	}
}

func New(store KeepAlive, opts ...Option) (*Policy, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "keep-alive store is required")
	}
	p := &Policy{store: store, now: requestcontext.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Extend makes sure key survives at least WindowFor(tier) from now.
func (p *Policy) Extend(ctx context.Context, key string, tier id.Tier) (time.Time, error) {
	expires, err := p.store.ExtendTo(ctx, key, p.now(ctx).Add(WindowFor(tier)))
	if err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to extend retention")
	}
	return expires, nil
}

func (p *Policy) ExpiresAt(ctx context.Context, key string) (time.Time, bool, error) {
	expires, ok, err := p.store.ExpiresAt(ctx, key)
	if err != nil {
		return time.Time{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read retention")
	}
	return expires, ok, nil
}

// PlanKey is the retention key of a plan record.
func PlanKey(planID id.PlanID) string {
	return "plan:" + planID.String()
}
