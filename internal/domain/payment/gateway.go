package payment

import (
	"context"
	"fmt"
)

// Card is the payment-method-specific data presented at charge time.
type Card struct {
	Number string
	Expiry string
	CVC    string
}

// ChargeResult always carries a transaction id, even for declined
// attempts, so every attempt is traceable at the processor.
type ChargeResult struct {
	Authorized    bool
	TransactionID string
	Reason        string
}

// Gateway is the external payment processor port.
type Gateway interface {
	Charge(ctx context.Context, amount int64, card Card) (ChargeResult, error)
}

// DeclinedError carries the gateway's decline reason. Validation
// failures and issuer-side declines are indistinguishable to callers.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment: declined: %s", e.Reason)
}
