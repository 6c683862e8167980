// Package handler exposes the checkout workflow over HTTP. The surface is
// deliberately small: order creation and checkout-session creation, both
// behind API-key authentication.
package handler

import (
	"net/http"

	"github.com/marketloop/checkout/internal/domain/auth"
	"github.com/marketloop/checkout/internal/domain/order"
)

// Handler wires the HTTP endpoints to the order service.
type Handler struct {
	orders   *order.Service
	security *Security
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(orders *order.Service, apikeys auth.Repository, pepper []byte) *Handler {
	return &Handler{
		orders:   orders,
		security: NewSecurity(apikeys, pepper),
	}
}

// Routes returns the API routes. Every route requires a valid API key; the
// authenticated user becomes the acting shopper.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("POST /api/orders/{ref}/checkout-session", h.createCheckoutSession)
	return h.security.Authenticate(mux)
}
