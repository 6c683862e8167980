package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. SalePrice is the
// price charged at checkout; OriginalPrice and DiscountPercentage describe
// how it was derived and are owned by catalog administration.
type Product struct {
	ID                 string
	Name               string
	OriginalPrice      decimal.Decimal
	DiscountPercentage decimal.Decimal
	SalePrice          decimal.Decimal
	Stock              int
	SoldItems          int
}

// NotFoundError indicates a cart line references a product that does not exist.
type NotFoundError struct {
	ProductID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError indicates a cart line requests more units than the
// product has in stock. Available and Requested name the exact amounts so the
// caller can surface a specific reason.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.Name, e.Available, e.Requested)
}

// Store defines the product operations used by the checkout workflow.
//
// DecrementStock must be a conditional atomic decrement: it subtracts qty
// from stock and adds qty to sold_items only when stock >= qty, reporting
// whether a row was actually modified. The reported result is the
// authoritative stock guard under concurrent checkouts.
type Store interface {
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
}
