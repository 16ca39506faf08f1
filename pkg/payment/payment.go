// Package payment decides the outcome of a settlement. There is no real network behind it:
// the simulated provider draws the result from configured success rates.
package payment

import (
	"context"
	"time"
)

type SettlementRequest struct {
	PaymentID string
	Method    string // upi | card
	Amount    int64
	Currency  string
}

type Outcome struct {
	Success          bool
	ErrorCode        string
	ErrorDescription string
}

type Provider interface {
	// ProcessingDelay is how long the network takes to answer for this payment.
	ProcessingDelay() time.Duration
	Settle(ctx context.Context, req SettlementRequest) (*Outcome, error)
}
