package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/marketloop/checkout/internal/domain/product"
)

const (
	getProductsByIDsSQL = `SELECT id, name, original_price, discount_percentage, sale_price, stock, sold_items
		FROM products WHERE id = ANY($1)`

	// The WHERE stock >= qty guard makes the decrement conditional; the
	// reported row count tells the caller whether it applied.
	decrementStockSQL = `UPDATE products
		SET stock = stock - $2, sold_items = sold_items + $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`
)

var _ product.Store = (*ProductStore)(nil)

// ProductStore implements product.Store backed by PostgreSQL.
type ProductStore struct {
	db Querier
}

// NewProductStore returns a ProductStore that uses the given querier.
func NewProductStore(db Querier) *ProductStore {
	return &ProductStore{db: db}
}

// GetByIDs returns products matching any of the given IDs.
func (s *ProductStore) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := s.db.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// DecrementStock atomically subtracts qty from stock and adds it to
// sold_items, but only when enough stock remains. It reports whether the
// update applied.
func (s *ProductStore) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	tag, err := s.db.Exec(ctx, decrementStockSQL, id, qty)
	if err != nil {
		return false, fmt.Errorf("decrementing stock for product %q: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name,
		&p.OriginalPrice, &p.DiscountPercentage, &p.SalePrice,
		&p.Stock, &p.SoldItems,
	)
	return p, err
}
