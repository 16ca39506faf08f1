package payment

import (
	"context"
	"time"
)

// StubProvider answers immediately with a fixed outcome.
type StubProvider struct {
	Succeed bool
	Delay   time.Duration
}

func (s *StubProvider) ProcessingDelay() time.Duration {
	return s.Delay
}

func (s *StubProvider) Settle(ctx context.Context, req SettlementRequest) (*Outcome, error) {
	if s.Succeed {
		return &Outcome{Success: true}, nil
	}
	return failed(), nil
}
