package payment

import "time"

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Payment is one settlement attempt against an order. The ledger is
// append-only: a retried decline leaves multiple rows for one order.
type Payment struct {
	ID            string
	OrderID       string
	Method        string
	TransactionID string
	Status        Status
	CreatedAt     time.Time
}
