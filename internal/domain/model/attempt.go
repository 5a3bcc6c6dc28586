package model

import "time"

// AttemptStatus tracks a checkout submission in the audit ledger.
type AttemptStatus string

const (
	AttemptSubmitting      AttemptStatus = "SUBMITTING"
	AttemptRejected        AttemptStatus = "REJECTED"
	AttemptAwaitingGateway AttemptStatus = "AWAITING_GATEWAY"
	AttemptVerifying       AttemptStatus = "VERIFYING"
	AttemptSucceeded       AttemptStatus = "SUCCEEDED"
	AttemptFailed          AttemptStatus = "FAILED"
	AttemptAbandoned       AttemptStatus = "ABANDONED"
)

// NeedsReconciliation reports whether the attempt left an order of unknown payment state.
func (s AttemptStatus) NeedsReconciliation() bool {
	switch s {
	case AttemptAwaitingGateway, AttemptVerifying, AttemptFailed, AttemptAbandoned:
		return true
	}
	return false
}

// Attempt is one explicit order submission made from a checkout session.
type Attempt struct {
	ID             string
	SessionID      string
	Owner          string
	IdempotencyKey string
	PaymentMethod  PaymentMethod
	OrderID        string
	OrderNumber    string
	GatewayOrderID string
	Status         AttemptStatus
	PaymentStatus  PaymentStatus
	LastError      string
	Reconciled     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
