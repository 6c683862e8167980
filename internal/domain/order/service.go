package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketloop/checkout/internal/domain/cart"
	"github.com/marketloop/checkout/internal/domain/coupon"
	"github.com/marketloop/checkout/internal/domain/payment"
	"github.com/marketloop/checkout/internal/domain/product"
)

// CreateOrderRequest holds the input for finalizing a cart into an order.
// CouponRef may be a coupon code, a storage identifier, or empty.
type CreateOrderRequest struct {
	Address     string
	Phone       string
	Note        string
	CouponRef   string
	PaymentType PaymentType
}

// Customer identifies the requesting user to the checkout-session builder.
type Customer struct {
	ID    string
	Email string
}

// Validation errors for CreateOrderRequest.
var (
	ErrAddressRequired    = errors.New("address is required")
	ErrPhoneRequired      = errors.New("phone is required")
	ErrInvalidPaymentType = errors.New("invalid payment type")
)

// Service implements the order-finalization workflow: it converts a user's
// cart into a confirmed order and builds checkout sessions for deferred
// payment.
type Service struct {
	uow      UnitOfWork
	orders   Store
	resolver *coupon.Resolver
	gateway  payment.Gateway
	currency string
	timeout  time.Duration
}

// NewService creates an order Service. orders is used for reads outside the
// checkout unit of work; currency is the minor-unit currency code passed to
// the payment provider; timeout bounds each CreateOrder run.
func NewService(
	uow UnitOfWork,
	orders Store,
	gateway payment.Gateway,
	currency string,
	timeout time.Duration,
) *Service {
	return &Service{
		uow:      uow,
		orders:   orders,
		resolver: coupon.NewResolver(),
		gateway:  gateway,
		currency: currency,
		timeout:  timeout,
	}
}

// CreateOrder validates the user's cart, resolves the coupon, snapshots
// prices, computes the discount, persists the order, and applies the side
// effects (coupon usage, stock decrement, cart clearing) inside one unit of
// work. A failure at any step, including hitting the deadline,
// aborts the whole transaction: there is no partially-committed state.
func (s *Service) CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*Order, error) {
	if req.Address == "" {
		return nil, ErrAddressRequired
	}
	if req.Phone == "" {
		return nil, ErrPhoneRequired
	}
	if !req.PaymentType.Valid() {
		return nil, ErrInvalidPaymentType
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var created *Order
	err := s.uow.Run(ctx, userID, func(ctx context.Context, st Stores) error {
		// Cart first: an empty cart means there is nothing to validate.
		c, err := st.Carts.ByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, cart.ErrNotFound) {
				return cart.ErrNotFound
			}
			return errors.Wrap(err, "get cart")
		}

		cpn, err := s.resolver.Resolve(ctx, st.Coupons, req.CouponRef, userID)
		if err != nil {
			return err
		}

		lines, subTotal, err := priceLines(ctx, st.Products, c.Lines)
		if err != nil {
			return err
		}

		discount, err := coupon.Apply(cpn, subTotal)
		if err != nil {
			return errors.Wrap(err, "apply coupon")
		}

		o := &Order{
			ID:          uuid.New().String(),
			Number:      NewNumber(),
			UserID:      userID,
			Status:      req.PaymentType.InitialStatus(),
			PaymentType: req.PaymentType,
			Address:     req.Address,
			Phone:       req.Phone,
			Note:        req.Note,
			Lines:       lines,
			SubTotal:    subTotal,
			Discount:    discount,
			Total:       subTotal.Sub(discount),
		}
		if cpn != nil {
			o.CouponID = cpn.ID
		}
		if err := st.Orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		if cpn != nil {
			if err := st.Coupons.RecordUsage(ctx, cpn.ID, userID, o.ID); err != nil {
				return errors.Wrap(err, "record coupon usage")
			}
		}

		// The conditional decrement is the authoritative stock guard; the
		// read-time check above only produced early diagnostics. A miss here
		// means a concurrent checkout won the race, and the rollback undoes
		// the order, the coupon usage, and any decrements already applied.
		for _, line := range lines {
			ok, err := st.Products.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return errors.Wrapf(err, "decrement stock for product %s", line.ProductID)
			}
			if !ok {
				return raceStockError(ctx, st.Products, line)
			}
		}

		if err := st.Carts.Delete(ctx, userID); err != nil {
			return errors.Wrap(err, "clear cart")
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Info("order created",
		zap.String("order_id", created.ID),
		zap.String("order_number", created.Number),
		zap.String("payment_type", string(created.PaymentType)),
		zap.String("total", created.Total.String()),
	)
	return created, nil
}

// priceLines validates stock per cart line, snapshots the live sale price as
// the frozen unit price, and accumulates the subtotal.
func priceLines(ctx context.Context, products product.Store, cartLines []cart.Line) ([]Line, decimal.Decimal, error) {
	ids := make([]string, len(cartLines))
	for i, l := range cartLines {
		ids[i] = l.ProductID
	}

	fetched, err := products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	lines := make([]Line, 0, len(cartLines))
	subTotal := decimal.Zero
	for _, l := range cartLines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, decimal.Zero, &product.NotFoundError{ProductID: l.ProductID}
		}
		if p.Stock < l.Quantity {
			return nil, decimal.Zero, &product.InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.Stock,
				Requested: l.Quantity,
			}
		}

		lines = append(lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  l.Quantity,
			UnitPrice: p.SalePrice,
		})
		subTotal = subTotal.Add(p.SalePrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	if !subTotal.IsPositive() {
		return nil, decimal.Zero, ErrNonPositiveSubtotal
	}
	return lines, subTotal, nil
}

// raceStockError re-reads the product that lost the decrement race so the
// reported available amount reflects what is actually left.
func raceStockError(ctx context.Context, products product.Store, line Line) error {
	available := 0
	name := line.Name
	if fetched, err := products.GetByIDs(ctx, []string{line.ProductID}); err == nil && len(fetched) == 1 {
		available = fetched[0].Stock
		name = fetched[0].Name
	}
	return &product.InsufficientStockError{
		ProductID: line.ProductID,
		Name:      name,
		Available: available,
		Requested: line.Quantity,
	}
}
