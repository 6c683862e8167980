package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketloop/checkout/internal/domain/payment"
)

var minorUnits = decimal.NewFromInt(100)

// CreateCheckoutSession builds a payment-provider checkout session for an
// existing card order owned by the customer. rawRef may be the order's
// number or its storage identifier.
//
// The primary lookup is restricted to eligible orders (card payment, status
// pending or processing). When it misses, an ownership-only re-query
// distinguishes "no such order for this user" from "order exists but is
// ineligible" and reports the specific reason.
func (s *Service) CreateCheckoutSession(ctx context.Context, rawRef string, cust Customer) (*payment.Session, error) {
	ref := ParseReference(rawRef)

	o, err := s.orders.FindEligible(ctx, ref, cust.ID)
	if err != nil {
		if !errors.Is(err, ErrNoOrder) {
			return nil, errors.Wrap(err, "find eligible order")
		}
		return nil, s.diagnoseIneligible(ctx, ref, cust.ID)
	}

	items := make([]payment.LineItem, len(o.Lines))
	for i, line := range o.Lines {
		items[i] = payment.LineItem{
			Name: line.Name,
			// Frozen unit price in minor currency units; never re-derived
			// from the live product price.
			UnitAmount: line.UnitPrice.Mul(minorUnits).IntPart(),
			Currency:   s.currency,
			Quantity:   line.Quantity,
		}
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.SessionRequest{
		CustomerEmail: cust.Email,
		Metadata:      map[string]string{"order_number": o.Number, "order_id": o.ID},
		LineItems:     items,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create checkout session")
	}

	zctx.From(ctx).Info("checkout session created",
		zap.String("order_number", o.Number),
		zap.String("session_id", session.ID),
	)
	return session, nil
}

// diagnoseIneligible re-queries with only the ownership filter to explain why
// the eligible lookup missed.
func (s *Service) diagnoseIneligible(ctx context.Context, ref Reference, userID string) error {
	o, err := s.orders.Find(ctx, ref, userID)
	if err != nil {
		if errors.Is(err, ErrNoOrder) {
			return &NotFoundError{Ref: ref}
		}
		return errors.Wrap(err, "find order")
	}

	if o.PaymentType != PaymentCard {
		return &IneligiblePaymentError{Ref: ref, PaymentType: o.PaymentType}
	}
	if o.Status != StatusPending && o.Status != StatusProcessing {
		return &IneligibleStatusError{Ref: ref, Status: o.Status}
	}
	return &NotFoundError{Ref: ref}
}
