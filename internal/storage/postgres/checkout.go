package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketloop/checkout/internal/domain/order"
)

// advisoryLockSQL serializes checkout attempts per user: the second
// transaction for the same user blocks here until the first commits or
// rolls back, so a double submit cannot spawn two orders from one cart
// snapshot. The lock is transaction-scoped and released automatically.
const advisoryLockSQL = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

var _ order.UnitOfWork = (*CheckoutUnit)(nil)

// CheckoutUnit implements order.UnitOfWork on a single PostgreSQL
// transaction. Everything the workflow touches (cart, products, coupon,
// usage log, the new order) commits together or not at all.
type CheckoutUnit struct {
	pool *pgxpool.Pool
}

// NewCheckoutUnit returns a CheckoutUnit that uses the given pool.
func NewCheckoutUnit(pool *pgxpool.Pool) *CheckoutUnit {
	return &CheckoutUnit{pool: pool}
}

// Run opens a transaction, takes the per-user advisory lock, and invokes fn
// with stores bound to the transaction. Any error from fn, including a
// context deadline, rolls the whole transaction back.
func (u *CheckoutUnit) Run(ctx context.Context, userID string, fn func(ctx context.Context, s order.Stores) error) error {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin checkout transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, advisoryLockSQL, userID); err != nil {
		return errors.Wrap(err, "acquire checkout lock")
	}

	stores := order.Stores{
		Carts:    NewCartStore(tx),
		Products: NewProductStore(tx),
		Coupons:  NewCouponStore(tx),
		Orders:   NewOrderStore(tx),
	}
	if err := fn(ctx, stores); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit checkout transaction")
	}
	return nil
}
