package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock store ---

type mockStore struct {
	coupons []Coupon
	usage   map[string]int // keyed couponID + "/" + userID
}

func (m *mockStore) match(ref Reference, c Coupon) bool {
	if ref.Kind == ByID {
		return c.ID == ref.Value
	}
	return c.Code == ref.Value
}

func (m *mockStore) FindActive(_ context.Context, ref Reference, now time.Time) (*Coupon, error) {
	for _, c := range m.coupons {
		if m.match(ref, c) && !now.Before(c.StartDate) && !now.After(c.EndDate) {
			return &c, nil
		}
	}
	return nil, ErrNoCoupon
}

func (m *mockStore) Find(_ context.Context, ref Reference) (*Coupon, error) {
	for _, c := range m.coupons {
		if m.match(ref, c) {
			return &c, nil
		}
	}
	return nil, ErrNoCoupon
}

func (m *mockStore) CountUsage(_ context.Context, couponID, userID string) (int, error) {
	return m.usage[couponID+"/"+userID], nil
}

func (m *mockStore) RecordUsage(_ context.Context, couponID, userID, _ string) error {
	if m.usage == nil {
		m.usage = make(map[string]int)
	}
	m.usage[couponID+"/"+userID]++
	return nil
}

// --- Helpers ---

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestResolver() *Resolver {
	return &Resolver{now: func() time.Time { return testNow }}
}

func activeCoupon() Coupon {
	return Coupon{
		ID:           "a3bb189e-8bf9-3888-9912-ace4e6543002",
		Code:         "HAPPYHOURS",
		Discount:     decimal.NewFromInt(18),
		DiscountType: DiscountPercentage,
		StartDate:    testNow.Add(-24 * time.Hour),
		EndDate:      testNow.Add(24 * time.Hour),
		Duration:     2,
	}
}

// --- Tests ---

func TestResolve_EmptyReference(t *testing.T) {
	r := newTestResolver()

	c, err := r.Resolve(context.Background(), &mockStore{}, "", "user-1")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestResolve_ByCode(t *testing.T) {
	store := &mockStore{coupons: []Coupon{activeCoupon()}}
	r := newTestResolver()

	c, err := r.Resolve(context.Background(), store, "HAPPYHOURS", "user-1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "HAPPYHOURS", c.Code)
}

func TestResolve_ByIDAndByCodeAgree(t *testing.T) {
	cpn := activeCoupon()
	store := &mockStore{coupons: []Coupon{cpn}}
	r := newTestResolver()

	byCode, err := r.Resolve(context.Background(), store, cpn.Code, "user-1")
	require.NoError(t, err)
	byID, err := r.Resolve(context.Background(), store, cpn.ID, "user-1")
	require.NoError(t, err)

	assert.Equal(t, byCode.ID, byID.ID)
	assert.True(t, byCode.Discount.Equal(byID.Discount))
}

func TestResolve_NotFound(t *testing.T) {
	r := newTestResolver()

	_, err := r.Resolve(context.Background(), &mockStore{}, "NOSUCHCODE", "user-1")

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "NOSUCHCODE", nfErr.Ref.Value)
	assert.Equal(t, ByCode, nfErr.Ref.Kind)
}

func TestResolve_Expired(t *testing.T) {
	cpn := activeCoupon()
	cpn.StartDate = testNow.Add(-48 * time.Hour)
	cpn.EndDate = testNow.Add(-24 * time.Hour)
	store := &mockStore{coupons: []Coupon{cpn}}
	r := newTestResolver()

	_, err := r.Resolve(context.Background(), store, cpn.Code, "user-1")

	var expErr *ExpiredError
	require.ErrorAs(t, err, &expErr)
	assert.Equal(t, cpn.Code, expErr.Code)
	assert.True(t, cpn.EndDate.Equal(expErr.EndDate))
}

func TestResolve_NotYetActive(t *testing.T) {
	cpn := activeCoupon()
	cpn.StartDate = testNow.Add(24 * time.Hour)
	cpn.EndDate = testNow.Add(48 * time.Hour)
	store := &mockStore{coupons: []Coupon{cpn}}
	r := newTestResolver()

	_, err := r.Resolve(context.Background(), store, cpn.Code, "user-1")

	var naErr *NotYetActiveError
	require.ErrorAs(t, err, &naErr)
	assert.Equal(t, cpn.Code, naErr.Code)
}

func TestResolve_UsageLimit(t *testing.T) {
	cpn := activeCoupon() // Duration 2
	store := &mockStore{
		coupons: []Coupon{cpn},
		usage:   map[string]int{cpn.ID + "/user-1": 2},
	}
	r := newTestResolver()

	_, err := r.Resolve(context.Background(), store, cpn.Code, "user-1")

	var ulErr *UsageLimitError
	require.ErrorAs(t, err, &ulErr)
	assert.Equal(t, 2, ulErr.Used)
	assert.Equal(t, 2, ulErr.Limit)
}

func TestResolve_UsageLimitIsPerUser(t *testing.T) {
	cpn := activeCoupon()
	store := &mockStore{
		coupons: []Coupon{cpn},
		usage:   map[string]int{cpn.ID + "/user-1": 2},
	}
	r := newTestResolver()

	// Another user starts with a fresh count.
	c, err := r.Resolve(context.Background(), store, cpn.Code, "user-2")
	require.NoError(t, err)
	assert.Equal(t, cpn.ID, c.ID)
}

func TestParseReference(t *testing.T) {
	ref := ParseReference("a3bb189e-8bf9-3888-9912-ace4e6543002")
	assert.Equal(t, ByID, ref.Kind)

	ref = ParseReference("HAPPYHOURS")
	assert.Equal(t, ByCode, ref.Kind)
}
