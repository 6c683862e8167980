package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/marketloop/checkout/internal/domain/coupon"
)

const (
	couponColumns = `id, code, discount, discount_type, start_date, end_date, duration`

	// FOR UPDATE serializes usage-cap checks for the same coupon across
	// concurrent checkout transactions.
	findActiveCouponByIDSQL = `SELECT ` + couponColumns + ` FROM coupons
		WHERE id = $1 AND start_date <= $2 AND end_date >= $2 FOR UPDATE`
	findActiveCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons
		WHERE code = $1 AND start_date <= $2 AND end_date >= $2 FOR UPDATE`

	findCouponByIDSQL   = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	findCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	countCouponUsageSQL = `SELECT count(*) FROM coupon_usages
		WHERE coupon_id = $1 AND user_id = $2`

	// ON CONFLICT DO NOTHING makes recording idempotent per (coupon, order).
	recordCouponUsageSQL = `INSERT INTO coupon_usages (coupon_id, user_id, order_id)
		VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
)

var _ coupon.Store = (*CouponStore)(nil)

// CouponStore implements coupon.Store backed by PostgreSQL.
type CouponStore struct {
	db Querier
}

// NewCouponStore returns a CouponStore that uses the given querier.
func NewCouponStore(db Querier) *CouponStore {
	return &CouponStore{db: db}
}

// FindActive looks up a coupon whose validity window contains now, locking
// the row for the remainder of the transaction.
func (s *CouponStore) FindActive(ctx context.Context, ref coupon.Reference, now time.Time) (*coupon.Coupon, error) {
	sql := findActiveCouponByCodeSQL
	if ref.Kind == coupon.ByID {
		sql = findActiveCouponByIDSQL
	}
	return s.findOne(ctx, sql, ref, now)
}

// Find looks up a coupon without the validity window filter.
func (s *CouponStore) Find(ctx context.Context, ref coupon.Reference) (*coupon.Coupon, error) {
	sql := findCouponByCodeSQL
	if ref.Kind == coupon.ByID {
		sql = findCouponByIDSQL
	}
	return s.findOne(ctx, sql, ref)
}

func (s *CouponStore) findOne(ctx context.Context, sql string, ref coupon.Reference, extra ...any) (*coupon.Coupon, error) {
	args := append([]any{ref.Value}, extra...)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", ref.Value, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNoCoupon
		}
		return nil, fmt.Errorf("finding coupon %q: %w", ref.Value, err)
	}
	return &c, nil
}

// CountUsage returns how many usage events the user has for the coupon.
func (s *CouponStore) CountUsage(ctx context.Context, couponID, userID string) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, countCouponUsageSQL, couponID, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting usage for coupon %q: %w", couponID, err)
	}
	return n, nil
}

// RecordUsage appends a usage event for (coupon, user, order).
func (s *CouponStore) RecordUsage(ctx context.Context, couponID, userID, orderID string) error {
	if _, err := s.db.Exec(ctx, recordCouponUsageSQL, couponID, userID, orderID); err != nil {
		return fmt.Errorf("recording usage for coupon %q: %w", couponID, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.Discount, &c.DiscountType,
		&c.StartDate, &c.EndDate, &c.Duration,
	)
	return c, err
}
