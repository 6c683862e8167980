package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/marketloop/checkout/internal/domain/order"
)

// createOrderRequest is the POST /api/orders body.
type createOrderRequest struct {
	Address     string
	Phone       string
	Note        string
	Coupon      string
	PaymentType string
}

func decodeCreateOrderRequest(r io.Reader) (createOrderRequest, error) {
	var req createOrderRequest
	d := jx.Decode(r, 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "address":
			req.Address, err = d.Str()
		case "phone":
			req.Phone, err = d.Str()
		case "note":
			req.Note, err = d.Str()
		case "coupon":
			req.Coupon, err = d.Str()
		case "paymentType":
			req.PaymentType, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := UserFromContext(ctx)
	if !ok {
		writeError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, err := decodeCreateOrderRequest(r.Body)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "malformed request body")
		return
	}

	o, err := h.orders.CreateOrder(ctx, user.ID, order.CreateOrderRequest{
		Address:     req.Address,
		Phone:       req.Phone,
		Note:        req.Note,
		CouponRef:   req.Coupon,
		PaymentType: order.PaymentType(req.PaymentType),
	})
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := UserFromContext(ctx)
	if !ok {
		writeError(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ref := r.PathValue("ref")
	if ref == "" {
		writeError(ctx, w, http.StatusBadRequest, "order reference is required")
		return
	}

	session, err := h.orders.CreateCheckoutSession(ctx, ref, order.Customer{
		ID:    user.ID,
		Email: user.Email,
	})
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("sessionId", func(e *jx.Encoder) { e.Str(session.ID) })
			e.Field("url", func(e *jx.Encoder) { e.Str(session.URL) })
		})
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("number", func(e *jx.Encoder) { e.Str(o.Number) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("paymentType", func(e *jx.Encoder) { e.Str(string(o.PaymentType)) })
		e.Field("subTotal", func(e *jx.Encoder) { e.Float64(o.SubTotal.InexactFloat64()) })
		e.Field("discount", func(e *jx.Encoder) { e.Float64(o.Discount.InexactFloat64()) })
		e.Field("total", func(e *jx.Encoder) { e.Float64(o.Total.InexactFloat64()) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, line := range o.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(line.ProductID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(line.Name) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(line.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { e.Float64(line.UnitPrice.InexactFloat64()) })
					})
				}
			})
		})
	})
}
