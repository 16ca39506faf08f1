package payment

import (
	"context"
	"math/rand/v2"
	"strconv"
	"time"

	"payflow/config"
)

const (
	ErrorCodeFailed        = "PAYMENT_FAILED"
	ErrorDescriptionFailed = "Processing failed"
)

// SimulatedProvider settles by chance: UPI and card succeed at their configured rates. In test
// mode the delay is fixed and TEST_PAYMENT_SUCCESS can force the result.
type SimulatedProvider struct {
	cfg   config.SettlementConfig
	float func() float64
}

func NewSimulatedProvider(cfg config.SettlementConfig) *SimulatedProvider {
	return &SimulatedProvider{cfg: cfg, float: rand.Float64}
}

func (p *SimulatedProvider) ProcessingDelay() time.Duration {
	if p.cfg.TestMode {
		return p.cfg.ProcessingDelay
	}
	return 5*time.Second + time.Duration(p.float()*float64(5*time.Second))
}

func (p *SimulatedProvider) Settle(ctx context.Context, req SettlementRequest) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if forced, ok := p.forced(); ok {
		if forced {
			return &Outcome{Success: true}, nil
		}
		return failed(), nil
	}
	rate := p.cfg.CardSuccessRate
	if req.Method == "upi" {
		rate = p.cfg.UPISuccessRate
	}
	if p.float() < rate {
		return &Outcome{Success: true}, nil
	}
	return failed(), nil
}

func (p *SimulatedProvider) forced() (bool, bool) {
	if !p.cfg.TestMode || p.cfg.ForcedOutcome == "" {
		return false, false
	}
	v, err := strconv.ParseBool(p.cfg.ForcedOutcome)
	if err != nil {
		return false, false
	}
	return v, true
}

func failed() *Outcome {
	return &Outcome{ErrorCode: ErrorCodeFailed, ErrorDescription: ErrorDescriptionFailed}
}
