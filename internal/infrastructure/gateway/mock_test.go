package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/domain/payment"
)

func newTestMock(declineRate float64) *Mock {
	return NewMock(WithLatency(0), WithDeclineRate(declineRate))
}

func TestCharge_ValidCard(t *testing.T) {
	m := newTestMock(0)

	result, err := m.Charge(context.Background(), 5000, payment.Card{
		Number: "4242424242424242",
		Expiry: "12/30",
		CVC:    "123",
	})
	require.NoError(t, err)
	assert.True(t, result.Authorized)
	assert.NotEmpty(t, result.TransactionID)
	assert.Empty(t, result.Reason)
}

func TestCharge_SpacesInCardNumberIgnored(t *testing.T) {
	m := newTestMock(0)

	result, err := m.Charge(context.Background(), 5000, payment.Card{
		Number: "4242 4242 4242 4242",
		Expiry: "01/27",
		CVC:    "1234",
	})
	require.NoError(t, err)
	assert.True(t, result.Authorized)
}

func TestCharge_ShapeValidation(t *testing.T) {
	cases := []struct {
		name   string
		card   payment.Card
		reason string
	}{
		{"short card number", payment.Card{Number: "123", Expiry: "12/30", CVC: "123"}, "invalid card number"},
		{"twelve digits", payment.Card{Number: "424242424242", Expiry: "12/30", CVC: "123"}, "invalid card number"},
		{"bad expiry", payment.Card{Number: "4242424242424242", Expiry: "2030-12", CVC: "123"}, "invalid expiry date"},
		{"missing expiry", payment.Card{Number: "4242424242424242", CVC: "123"}, "invalid expiry date"},
		{"short cvc", payment.Card{Number: "4242424242424242", Expiry: "12/30", CVC: "12"}, "invalid cvc"},
		{"long cvc", payment.Card{Number: "4242424242424242", Expiry: "12/30", CVC: "12345"}, "invalid cvc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestMock(0)
			result, err := m.Charge(context.Background(), 5000, tc.card)
			require.NoError(t, err)
			assert.False(t, result.Authorized)
			assert.Equal(t, tc.reason, result.Reason)
			// Declined attempts stay traceable.
			assert.NotEmpty(t, result.TransactionID)
		})
	}
}

func TestCharge_RandomDecline(t *testing.T) {
	m := newTestMock(1)

	result, err := m.Charge(context.Background(), 5000, payment.Card{
		Number: "4242424242424242",
		Expiry: "12/30",
		CVC:    "123",
	})
	require.NoError(t, err)
	assert.False(t, result.Authorized)
	assert.Equal(t, "payment declined by bank", result.Reason)
	assert.NotEmpty(t, result.TransactionID)
}

func TestCharge_TransactionIDsAreUnique(t *testing.T) {
	m := newTestMock(0)
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		result, err := m.Charge(context.Background(), 100, payment.Card{
			Number: "4242424242424242", Expiry: "12/30", CVC: "123",
		})
		require.NoError(t, err)
		assert.False(t, seen[result.TransactionID])
		seen[result.TransactionID] = true
	}
}

func TestCharge_CanceledContext(t *testing.T) {
	m := NewMock() // default latency

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Charge(ctx, 5000, payment.Card{
		Number: "4242424242424242", Expiry: "12/30", CVC: "123",
	})
	require.ErrorIs(t, err, context.Canceled)
}
