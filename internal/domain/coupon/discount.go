package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount a coupon yields on the given subtotal.
// A nil coupon yields zero. The result is always within [0, subtotal], so
// subtotal - discount can never go negative.
func Apply(c *Coupon, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if c == nil {
		return decimal.Zero, nil
	}

	switch c.DiscountType {
	case DiscountPercentage:
		amount := subtotal.Mul(c.Discount).Div(hundred)
		return clamp(amount, subtotal), nil
	case DiscountFixed:
		return clamp(c.Discount, subtotal), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported discount type: %q", c.DiscountType)
	}
}

// clamp bounds amount to [0, max] and rounds to 2 decimal places.
func clamp(amount, max decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(amount, max).Round(2)
}
