// Package stripe implements payment.Gateway against a Stripe-compatible
// checkout-session API. Only session creation is needed here; webhook
// handling lives outside this service.
package stripe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/marketloop/checkout/internal/domain/payment"
)

var _ payment.Gateway = (*Client)(nil)

// Client talks to the provider's REST API with form-encoded requests, the
// encoding the checkout-session endpoint expects.
type Client struct {
	baseURL    string
	secretKey  string
	successURL string
	cancelURL  string
	httpClient *http.Client
}

// Config holds the provider connection settings.
type Config struct {
	// BaseURL is the API origin, e.g. https://api.stripe.com.
	BaseURL string
	// SecretKey is the bearer token for API authentication.
	SecretKey string
	// SuccessURL and CancelURL are where the hosted page redirects after
	// payment completes or is abandoned.
	SuccessURL string
	CancelURL  string
}

// NewClient creates a gateway client. A nil httpClient falls back to a
// client with a 30s timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		httpClient: httpClient,
	}
}

// CreateCheckoutSession creates a hosted checkout session and returns its
// handle and URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("customer_email", req.CustomerEmail)
	form.Set("success_url", c.successURL)
	form.Set("cancel_url", c.cancelURL)
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}
	for i, item := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		form.Set(prefix+"[price_data][currency]", item.Currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "checkout session request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("checkout session API returned %d: %s", resp.StatusCode, truncate(body, 256))
	}

	session, err := decodeSession(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	return session, nil
}

// decodeSession extracts the session id and hosted page URL from the
// provider response, skipping every other field.
func decodeSession(body []byte) (*payment.Session, error) {
	var s payment.Session
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			if err != nil {
				return err
			}
			s.ID = v
			return nil
		case "url":
			v, err := d.Str()
			if err != nil {
				return err
			}
			s.URL = v
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}
	if s.ID == "" {
		return nil, errors.New("response has no session id")
	}
	return &s, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
