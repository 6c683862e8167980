package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Resolver resolves a raw coupon reference into a validated coupon for a
// specific user at a specific time.
type Resolver struct {
	now func() time.Time
}

// NewResolver creates a Resolver using the wall clock.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// Resolve looks up and validates a coupon reference against the given store.
//
// An empty raw reference is not an error: checkout without a coupon is the
// common case, and Resolve reports it as (nil, nil).
//
// The primary lookup filters on the validity window, so a miss cannot tell
// "does not exist" from "out of window". On a miss Resolve re-queries without
// the filter to produce a specific diagnostic: ExpiredError, NotYetActiveError,
// or NotFoundError. On a hit it counts the user's prior usage events and
// rejects with UsageLimitError once the per-user cap is reached.
//
// Resolving the same coupon by code and by storage identifier yields the same
// coupon and therefore identical downstream discount results.
func (r *Resolver) Resolve(ctx context.Context, store Store, raw, userID string) (*Coupon, error) {
	if raw == "" {
		return nil, nil
	}

	ref := ParseReference(raw)
	now := r.now()

	c, err := store.FindActive(ctx, ref, now)
	if err != nil {
		if !errors.Is(err, ErrNoCoupon) {
			return nil, errors.Wrap(err, "find active coupon")
		}
		return nil, r.diagnose(ctx, store, ref, now)
	}

	used, err := store.CountUsage(ctx, c.ID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "count coupon usage")
	}
	if used >= c.Duration {
		return nil, &UsageLimitError{Code: c.Code, Used: used, Limit: c.Duration}
	}

	return c, nil
}

// diagnose re-queries without the window filter to explain why the primary
// lookup missed.
func (r *Resolver) diagnose(ctx context.Context, store Store, ref Reference, now time.Time) error {
	c, err := store.Find(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrNoCoupon) {
			return &NotFoundError{Ref: ref}
		}
		return errors.Wrap(err, "find coupon")
	}

	if c.EndDate.Before(now) {
		return &ExpiredError{Code: c.Code, EndDate: c.EndDate}
	}
	if c.StartDate.After(now) {
		return &NotYetActiveError{Code: c.Code, StartDate: c.StartDate}
	}
	// The window query and the unfiltered one disagree; treat as missing
	// rather than invent a reason.
	return &NotFoundError{Ref: ref}
}

// ErrNoCoupon is the sentinel stores return when a lookup matches no row.
// The resolver translates it into the specific user-facing errors above.
var ErrNoCoupon = errors.New("no matching coupon")
