// Package payment defines the narrow interface the checkout workflow uses to
// talk to the payment provider. Webhooks and reconciliation are owned by the
// provider integration outside this service.
package payment

import "context"

// LineItem is a single order line presented on the provider-hosted checkout
// page. UnitAmount is the frozen unit price in minor currency units.
type LineItem struct {
	Name       string
	UnitAmount int64
	Currency   string
	Quantity   int
}

// SessionRequest describes the checkout session to create. Metadata travels
// with the session and comes back on provider events, so the order reference
// placed there is what later reconciliation keys on.
type SessionRequest struct {
	CustomerEmail string
	Metadata      map[string]string
	LineItems     []LineItem
}

// Session is the provider-side handle for a created checkout session.
type Session struct {
	ID  string
	URL string
}

// Gateway creates provider checkout sessions for deferred payment.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
}
