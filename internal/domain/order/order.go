package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrAlreadyPaid       = errors.New("order: already paid")
	ErrInvalidQuantity   = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount     = errors.New("order: total must be greater than zero")
	ErrNoLines           = errors.New("order: at least one line is required")
	ErrInvalidTransition = errors.New("order: invalid status transition")
)

// Line is one immutable position of an order. UnitPrice is the variant
// price in minor units captured at order time; it is never recomputed.
type Line struct {
	ProductID  string
	VariantSKU string
	Quantity   int
	UnitPrice  int64
}

type Order struct {
	ID            string
	UserID        string
	Lines         []Line
	TotalPrice    int64
	Status        Status
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func New(id, userID string, lines []Line, totalPrice int64) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	if totalPrice <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UTC()
	return &Order{
		ID:            id,
		UserID:        userID,
		Lines:         lines,
		TotalPrice:    totalPrice,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// MarkPaid transitions the settlement axis to paid. A paid order is
// terminal on that axis; a second settlement attempt must be rejected.
func (o *Order) MarkPaid() error {
	next, err := o.PaymentStatus.onGatewaySuccess()
	if err != nil {
		return err
	}
	o.PaymentStatus = next
	o.touch()
	return nil
}

// MarkPaymentFailed records a declined or aborted settlement attempt.
// A failed order stays eligible for retry.
func (o *Order) MarkPaymentFailed() error {
	next, err := o.PaymentStatus.onGatewayFailure()
	if err != nil {
		return err
	}
	o.PaymentStatus = next
	o.touch()
	return nil
}

// Fulfill moves the fulfillment axis, validating the transition.
func (o *Order) Fulfill(next Status) error {
	if !o.Status.canTransitionTo(next) {
		return ErrInvalidTransition
	}
	o.Status = next
	o.touch()
	return nil
}

func (o *Order) Clone() *Order {
	clone := *o
	clone.Lines = append([]Line(nil), o.Lines...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
