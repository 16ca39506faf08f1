// Package webhook holds the pure parts of merchant event delivery: payload signing and the
// retry schedule.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Webhook-Signature"

// MaxAttempts is the number of delivery attempts before a log is marked failed.
const MaxAttempts = 5

// Sign returns hex(HMAC_SHA256(secret, payload)) over the exact bytes that are sent.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature against payload in constant time.
func Verify(secret string, payload []byte, signature string) bool {
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(signature), []byte(expected))
}

var (
	productionSchedule = []time.Duration{0, time.Minute, 5 * time.Minute, 30 * time.Minute, 2 * time.Hour}
	testSchedule       = []time.Duration{0, 5 * time.Second, 10 * time.Second, 15 * time.Second, 20 * time.Second}
)

// Schedule maps the number of attempts already made to the wait before the next one.
type Schedule struct {
	delays []time.Duration
}

// NewSchedule returns the production schedule, or the short one used by test deployments.
func NewSchedule(test bool) Schedule {
	if test {
		return Schedule{delays: testSchedule}
	}
	return Schedule{delays: productionSchedule}
}

// Backoff returns the delay before the next attempt after attempts failed ones. Values past
// the end of the schedule clamp to its last entry.
func (s Schedule) Backoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts >= len(s.delays) {
		return s.delays[len(s.delays)-1]
	}
	return s.delays[attempts]
}

// Backoff is the production schedule.
func Backoff(attempts int) time.Duration {
	return NewSchedule(false).Backoff(attempts)
}
