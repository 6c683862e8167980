package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_NilCoupon(t *testing.T) {
	got, err := Apply(nil, decimal.RequireFromString("50.00"))
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestApply_Percentage(t *testing.T) {
	tests := []struct {
		name     string
		discount string
		subtotal string
		want     string
	}{
		{"ten percent", "10", "50.00", "5.00"},
		{"eighteen percent rounds", "18", "33.33", "6.00"},
		{"full discount", "100", "25.00", "25.00"},
		{"over hundred clamps to subtotal", "150", "100.00", "100.00"},
		{"zero percent", "0", "80.00", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Coupon{
				Code:         "TEST",
				Discount:     decimal.RequireFromString(tt.discount),
				DiscountType: DiscountPercentage,
			}
			got, err := Apply(c, decimal.RequireFromString(tt.subtotal))
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestApply_Fixed(t *testing.T) {
	tests := []struct {
		name     string
		discount string
		subtotal string
		want     string
	}{
		{"smaller than subtotal", "10.00", "50.00", "10.00"},
		{"equal to subtotal", "50.00", "50.00", "50.00"},
		{"larger clamps to subtotal", "30.00", "20.00", "20.00"},
		{"negative clamps to zero", "-5.00", "20.00", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Coupon{
				Code:         "TEST",
				Discount:     decimal.RequireFromString(tt.discount),
				DiscountType: DiscountFixed,
			}
			got, err := Apply(c, decimal.RequireFromString(tt.subtotal))
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestApply_NeverExceedsSubtotal(t *testing.T) {
	subtotal := decimal.RequireFromString("12.34")
	coupons := []*Coupon{
		{DiscountType: DiscountPercentage, Discount: decimal.NewFromInt(999)},
		{DiscountType: DiscountFixed, Discount: decimal.NewFromInt(10_000)},
	}
	for _, c := range coupons {
		got, err := Apply(c, subtotal)
		require.NoError(t, err)
		assert.True(t, got.LessThanOrEqual(subtotal))
		assert.False(t, got.IsNegative())
	}
}

func TestApply_UnknownType(t *testing.T) {
	c := &Coupon{Code: "BAD", DiscountType: "free_lowest"}
	_, err := Apply(c, decimal.NewFromInt(10))
	require.Error(t, err)
}
