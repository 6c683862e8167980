//go:build integration

package integration

import (
	"math"
	"net/http"
	"regexp"
	"testing"
)

var (
	uuidPattern   = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	numberPattern = regexp.MustCompile(`^ORD-[A-Z2-7]{10}$`)
)

func validOrder() orderRequest {
	return orderRequest{
		Address:     "1 Integration Way",
		Phone:       "+1 555 0100",
		PaymentType: "card",
	}
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 0.001
}

// The tests below run in source order: the seeded cart is consumed exactly
// once, by TestCreateOrder_FromSeededCart, and every test before it only
// exercises paths that abort without side effects.

func TestCreateOrder_NoAuth(t *testing.T) {
	resp := doPost(t, "/api/orders", validOrder(), "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_InvalidKey(t *testing.T) {
	resp := doPost(t, "/api/orders", validOrder(), "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_MissingAddress(t *testing.T) {
	req := validOrder()
	req.Address = ""
	resp := doPost(t, "/api/orders", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_InvalidPaymentType(t *testing.T) {
	req := validOrder()
	req.PaymentType = "cheque"
	resp := doPost(t, "/api/orders", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_UnknownCoupon(t *testing.T) {
	req := validOrder()
	req.Coupon = "NONEXISTENT"
	resp := doPost(t, "/api/orders", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Message == "" {
		t.Error("error message is empty")
	}
}

var createdOrder orderResponse

func TestCreateOrder_FromSeededCart(t *testing.T) {
	// Seeded cart: 1x Waffle 6.50, 2x Vanilla Bean Creme Brulee at the 10%
	// sale price 6.30, 3x Macaron 8.00. Subtotal 43.10; HAPPYHOURS takes
	// 18% = 7.76 off.
	req := validOrder()
	req.Coupon = "HAPPYHOURS"
	resp := doPost(t, "/api/orders", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)

	if !uuidPattern.MatchString(order.ID) {
		t.Errorf("order ID %q is not a UUID", order.ID)
	}
	if !numberPattern.MatchString(order.Number) {
		t.Errorf("order number %q has unexpected format", order.Number)
	}
	if order.Status != "processing" {
		t.Errorf("status: got %q, want %q", order.Status, "processing")
	}
	if !approx(order.SubTotal, 43.10) {
		t.Errorf("subTotal: got %v, want 43.10", order.SubTotal)
	}
	if !approx(order.Discount, 7.76) {
		t.Errorf("discount: got %v, want 7.76", order.Discount)
	}
	if !approx(order.Total, 35.34) {
		t.Errorf("total: got %v, want 35.34", order.Total)
	}
	if len(order.Items) != 3 {
		t.Errorf("expected 3 items, got %d", len(order.Items))
	}
	for _, item := range order.Items {
		if item.Name == "" {
			t.Errorf("item %s has no name", item.ProductID)
		}
		if item.UnitPrice <= 0 {
			t.Errorf("item %s unit price: got %v, want > 0", item.ProductID, item.UnitPrice)
		}
	}

	createdOrder = order
}

func TestCreateOrder_CartConsumed(t *testing.T) {
	// The successful checkout deleted the cart; a second attempt has
	// nothing to order.
	resp := doPost(t, "/api/orders", validOrder(), testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCheckoutSession_UnknownOrder(t *testing.T) {
	resp := doPost(t, "/api/orders/ORD-NOSUCHNUM1/checkout-session", nil, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCheckoutSession_NoAuth(t *testing.T) {
	resp := doPost(t, "/api/orders/"+createdOrder.Number+"/checkout-session", nil, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
