package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/marketloop/checkout/internal/domain/cart"
	"github.com/marketloop/checkout/internal/domain/coupon"
	"github.com/marketloop/checkout/internal/domain/order"
	"github.com/marketloop/checkout/internal/domain/product"
)

// writeJSON encodes the response with the given encoder callback.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		zctx.From(ctx).Debug("write response", zap.Error(err))
	}
}

// writeError writes the standard {code, message} error body.
func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// writeDomainError maps the checkout error taxonomy to HTTP statuses.
// Not-found conditions are 404; business-rule violations are 400 with the
// specific reason; everything else is a 500 with the detail kept in the log.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		productNotFound   *product.NotFoundError
		insufficientStock *product.InsufficientStockError
		couponNotFound    *coupon.NotFoundError
		couponExpired     *coupon.ExpiredError
		couponNotActive   *coupon.NotYetActiveError
		couponUsage       *coupon.UsageLimitError
		orderNotFound     *order.NotFoundError
		badPayment        *order.IneligiblePaymentError
		badStatus         *order.IneligibleStatusError
	)

	switch {
	case errors.Is(err, cart.ErrNotFound),
		errors.As(err, &productNotFound),
		errors.As(err, &orderNotFound):
		writeError(ctx, w, http.StatusNotFound, err.Error())

	case errors.As(err, &insufficientStock),
		errors.As(err, &couponNotFound),
		errors.As(err, &couponExpired),
		errors.As(err, &couponNotActive),
		errors.As(err, &couponUsage),
		errors.As(err, &badPayment),
		errors.As(err, &badStatus),
		errors.Is(err, order.ErrNonPositiveSubtotal),
		errors.Is(err, order.ErrAddressRequired),
		errors.Is(err, order.ErrPhoneRequired),
		errors.Is(err, order.ErrInvalidPaymentType):
		writeError(ctx, w, http.StatusBadRequest, err.Error())

	default:
		zctx.From(ctx).Error("checkout failed", zap.Error(err))
		writeError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}
