package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

// Coupon is a named discount instrument with a validity window and a per-user
// usage cap (Duration = how many separate orders each user may apply it to).
type Coupon struct {
	ID           string
	Code         string
	Discount     decimal.Decimal
	DiscountType DiscountType
	StartDate    time.Time
	EndDate      time.Time
	Duration     int
}

// RefKind distinguishes the two forms a raw coupon reference can take.
type RefKind int

const (
	// ByCode references a coupon by its human-readable code.
	ByCode RefKind = iota
	// ByID references a coupon by its storage identifier.
	ByID
)

// Reference is a coupon reference resolved once at the boundary into a tagged
// value. Downstream code switches on Kind and never re-sniffs the raw input.
type Reference struct {
	Kind  RefKind
	Value string
}

// ParseReference classifies a raw coupon reference. Inputs in the storage
// identifier format (UUID) become ByID references; everything else is treated
// as a coupon code.
func ParseReference(raw string) Reference {
	if _, err := uuid.Parse(raw); err == nil {
		return Reference{Kind: ByID, Value: raw}
	}
	return Reference{Kind: ByCode, Value: raw}
}

func (r Reference) String() string { return r.Value }

// NotFoundError indicates the referenced coupon does not exist at all.
type NotFoundError struct {
	Ref Reference
}

func (e *NotFoundError) Error() string {
	if e.Ref.Kind == ByCode {
		return fmt.Sprintf("coupon code %q not found", e.Ref.Value)
	}
	return fmt.Sprintf("coupon %s not found", e.Ref.Value)
}

// ExpiredError indicates the coupon exists but its validity window has closed.
type ExpiredError struct {
	Code    string
	EndDate time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("coupon %q expired on %s", e.Code, e.EndDate.Format(time.RFC3339))
}

// NotYetActiveError indicates the coupon exists but its window has not opened.
type NotYetActiveError struct {
	Code      string
	StartDate time.Time
}

func (e *NotYetActiveError) Error() string {
	return fmt.Sprintf("coupon %q is not active until %s", e.Code, e.StartDate.Format(time.RFC3339))
}

// UsageLimitError indicates the requesting user has exhausted the coupon's
// per-user usage cap.
type UsageLimitError struct {
	Code  string
	Used  int
	Limit int
}

func (e *UsageLimitError) Error() string {
	return fmt.Sprintf("coupon %q usage limit exceeded: used %d of %d", e.Code, e.Used, e.Limit)
}

// Store defines coupon persistence operations used by the resolver and the
// checkout workflow.
type Store interface {
	// FindActive looks up a coupon by reference, restricted to
	// startDate <= now <= endDate. A miss conflates "does not exist" with
	// "out of window"; callers disambiguate via Find.
	// Implementations used inside a checkout transaction lock the coupon row
	// so usage-cap checks serialize under concurrency.
	FindActive(ctx context.Context, ref Reference, now time.Time) (*Coupon, error)
	// Find looks up a coupon by reference without the window filter.
	Find(ctx context.Context, ref Reference) (*Coupon, error)
	// CountUsage returns how many usage events this user has recorded for
	// the coupon.
	CountUsage(ctx context.Context, couponID, userID string) (int, error)
	// RecordUsage appends a usage event keyed (coupon, user, order). It is
	// idempotent per (coupon, order): repeating it for the same order does
	// not add a second event.
	RecordUsage(ctx context.Context, couponID, userID, orderID string) error
}
