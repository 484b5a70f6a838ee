package gateway

import (
	"context"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"shopcore/internal/domain/payment"
)

var expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)

// Mock simulates an external card processor. It validates shape only,
// declines a small fraction of otherwise-valid charges, and issues a
// transaction id for every attempt so declined charges stay traceable.
type Mock struct {
	latency     time.Duration
	declineRate float64
}

type Option func(*Mock)

func WithLatency(d time.Duration) Option {
	return func(m *Mock) { m.latency = d }
}

func WithDeclineRate(rate float64) Option {
	return func(m *Mock) { m.declineRate = rate }
}

func NewMock(opts ...Option) *Mock {
	m := &Mock{
		latency:     time.Second,
		declineRate: 0.05,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mock) Charge(ctx context.Context, amount int64, card payment.Card) (payment.ChargeResult, error) {
	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-ctx.Done():
			return payment.ChargeResult{}, ctx.Err()
		}
	}

	result := payment.ChargeResult{TransactionID: uuid.NewString()}

	digits := strings.ReplaceAll(card.Number, " ", "")
	if len(digits) < 13 {
		result.Reason = "invalid card number"
		return result, nil
	}
	if !expiryPattern.MatchString(card.Expiry) {
		result.Reason = "invalid expiry date"
		return result, nil
	}
	if len(card.CVC) < 3 || len(card.CVC) > 4 {
		result.Reason = "invalid cvc"
		return result, nil
	}

	if rand.Float64() < m.declineRate {
		result.Reason = "payment declined by bank"
		return result, nil
	}

	result.Authorized = true
	return result, nil
}
