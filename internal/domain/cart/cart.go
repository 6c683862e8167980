package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a user has no cart or the cart has no lines.
// Checkout treats both the same way: there is nothing to order.
var ErrNotFound = errors.New("cart is empty or not found")

// Line is a single product selection in a cart. Quantity is always positive;
// unit prices are not stored on the cart: they are snapshotted from the live
// product at checkout time.
type Line struct {
	ProductID string
	Quantity  int
}

// Cart is a user's pending set of product selections. A user has at most one
// cart; it is consumed (deleted) exactly once by a successful checkout.
type Cart struct {
	UserID string
	Lines  []Line
}

// Store defines the cart operations used by the checkout workflow.
type Store interface {
	// ByUser returns the user's cart. It returns ErrNotFound when the user
	// has no cart or the cart has zero lines.
	ByUser(ctx context.Context, userID string) (*Cart, error)
	// Delete removes the user's cart and its lines.
	Delete(ctx context.Context, userID string) error
}
