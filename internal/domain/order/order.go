package order

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketloop/checkout/internal/domain/cart"
	"github.com/marketloop/checkout/internal/domain/coupon"
	"github.com/marketloop/checkout/internal/domain/product"
)

// Status is the order lifecycle state. An order starts PENDING (cash) or
// PROCESSING (any deferred payment type); transitions to SHIPPED, DELIVERED
// (terminal) or CANCELLED (terminal) are driven by external fulfillment and
// payment processes, not by this service.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentType enumerates how an order is paid. Only CASH settles offline;
// every other type defers payment and starts in PROCESSING.
type PaymentType string

const (
	PaymentCash   PaymentType = "cash"
	PaymentCard   PaymentType = "card"
	PaymentPaypal PaymentType = "paypal"
	PaymentStripe PaymentType = "stripe"
	PaymentOther  PaymentType = "other"
)

// Valid reports whether pt is a known payment type.
func (pt PaymentType) Valid() bool {
	switch pt {
	case PaymentCash, PaymentCard, PaymentPaypal, PaymentStripe, PaymentOther:
		return true
	}
	return false
}

// InitialStatus returns the status a freshly created order gets for this
// payment type.
func (pt PaymentType) InitialStatus() Status {
	if pt == PaymentCash {
		return StatusPending
	}
	return StatusProcessing
}

// Line is a single order line. UnitPrice is the product's sale price as
// observed at checkout time; it is frozen on the order and never re-derived.
// Name is populated from the product catalog on reads that need it.
type Line struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Order is a confirmed customer order. Invariants: Total = SubTotal - Discount
// and 0 <= Discount <= SubTotal, both established at creation.
type Order struct {
	ID          string
	Number      string
	UserID      string
	Status      Status
	PaymentType PaymentType
	Address     string
	Phone       string
	Note        string
	CouponID    string
	Lines       []Line
	SubTotal    decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	CreatedAt   time.Time
}

// RefKind distinguishes the two forms an order reference can take.
type RefKind int

const (
	// ByNumber references an order by its external order number.
	ByNumber RefKind = iota
	// ByID references an order by its storage identifier.
	ByID
)

// Reference is an order reference resolved once at the boundary. Inputs in
// the storage identifier format (UUID) become ByID; everything else is
// treated as an order number.
type Reference struct {
	Kind  RefKind
	Value string
}

// ParseReference classifies a raw order reference.
func ParseReference(raw string) Reference {
	if _, err := uuid.Parse(raw); err == nil {
		return Reference{Kind: ByID, Value: raw}
	}
	return Reference{Kind: ByNumber, Value: raw}
}

func (r Reference) String() string { return r.Value }

// numberAlphabet is base32 without padding; uppercase keeps order numbers
// easy to read back over the phone.
const numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// NewNumber mints a collision-resistant external order number. 10 random
// base32 characters give 50 bits of entropy; the orders.number unique
// constraint backstops the remaining collision chance inside the creation
// transaction.
func NewNumber() string {
	var buf [10]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(fmt.Sprintf("order number entropy: %v", err))
	}
	for i, b := range buf {
		buf[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return "ORD-" + string(buf[:])
}

// Sentinel and typed errors for the checkout workflow.
var (
	// ErrNonPositiveSubtotal is returned when the priced cart sums to zero
	// or less.
	ErrNonPositiveSubtotal = errors.New("order total must be greater than zero")
	// ErrNoOrder is the sentinel stores return when a lookup matches no row.
	ErrNoOrder = errors.New("no matching order")
)

// NotFoundError indicates no order with the given reference exists for the
// requesting user.
type NotFoundError struct {
	Ref Reference
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %q not found for this user", e.Ref.Value)
}

// IneligiblePaymentError indicates the order exists but its payment type does
// not allow a checkout session.
type IneligiblePaymentError struct {
	Ref         Reference
	PaymentType PaymentType
}

func (e *IneligiblePaymentError) Error() string {
	return fmt.Sprintf("order %q payment type is %q; checkout sessions are only available for card payments",
		e.Ref.Value, e.PaymentType)
}

// IneligibleStatusError indicates the order exists but its status does not
// allow a checkout session.
type IneligibleStatusError struct {
	Ref    Reference
	Status Status
}

func (e *IneligibleStatusError) Error() string {
	return fmt.Sprintf("order %q status is %q; checkout sessions are only available for pending or processing orders",
		e.Ref.Value, e.Status)
}

// Store defines persistence operations for orders.
type Store interface {
	// Create persists the order and its lines.
	Create(ctx context.Context, o *Order) error
	// FindEligible looks up an order by reference restricted to the given
	// owner, card payment, and pending/processing status, with line product
	// names populated. Returns ErrNoOrder on a miss.
	FindEligible(ctx context.Context, ref Reference, userID string) (*Order, error)
	// Find looks up an order by reference restricted only to the owner.
	// Returns ErrNoOrder on a miss.
	Find(ctx context.Context, ref Reference, userID string) (*Order, error)
}

// Stores groups the per-transaction store set available inside a checkout
// unit of work. All four act on the same underlying transaction.
type Stores struct {
	Carts    cart.Store
	Products product.Store
	Coupons  coupon.Store
	Orders   Store
}

// UnitOfWork runs fn inside a single transactional scope covering the cart,
// the referenced products, the coupon, and the new order. Implementations
// must serialize concurrent runs for the same user and must commit all of
// fn's writes together or none of them.
type UnitOfWork interface {
	Run(ctx context.Context, userID string, fn func(ctx context.Context, s Stores) error) error
}
