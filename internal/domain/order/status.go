package order

// Status is the fulfillment axis, driven by administrative action.
type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

func (s Status) canTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered
	case StatusDelivered, StatusCancelled:
		return false
	}
	return false
}

// PaymentStatus is the settlement axis, driven exclusively by the
// settlement engine.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// onGatewaySuccess returns the next settlement state after a successful
// charge plus stock decrement. paid is terminal; failed is re-enterable.
func (p PaymentStatus) onGatewaySuccess() (PaymentStatus, error) {
	switch p {
	case PaymentPending, PaymentFailed:
		return PaymentPaid, nil
	case PaymentPaid:
		return p, ErrAlreadyPaid
	}
	return p, ErrInvalidTransition
}

func (p PaymentStatus) onGatewayFailure() (PaymentStatus, error) {
	switch p {
	case PaymentPending, PaymentFailed:
		return PaymentFailed, nil
	case PaymentPaid:
		return p, ErrAlreadyPaid
	}
	return p, ErrInvalidTransition
}
