package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/marketloop/checkout/internal/domain/cart"
)

const (
	getCartLinesSQL = `SELECT product_id, quantity FROM cart_items
		WHERE cart_id = $1 ORDER BY product_id`

	deleteCartSQL = `DELETE FROM carts WHERE user_id = $1`
)

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store backed by PostgreSQL.
type CartStore struct {
	db Querier
}

// NewCartStore returns a CartStore that uses the given querier.
func NewCartStore(db Querier) *CartStore {
	return &CartStore{db: db}
}

// ByUser returns the user's cart lines. An absent cart and a cart with zero
// lines are indistinguishable here and both map to cart.ErrNotFound.
func (s *CartStore) ByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	rows, err := s.db.Query(ctx, getCartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("getting cart for user %q: %w", userID, err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Line, error) {
		var l cart.Line
		err := row.Scan(&l.ProductID, &l.Quantity)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning cart lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, cart.ErrNotFound
	}

	return &cart.Cart{UserID: userID, Lines: lines}, nil
}

// Delete removes the user's cart; cart items go with it via ON DELETE CASCADE.
func (s *CartStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.Exec(ctx, deleteCartSQL, userID); err != nil {
		return fmt.Errorf("deleting cart for user %q: %w", userID, err)
	}
	return nil
}
