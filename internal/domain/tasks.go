package domain

import "encoding/json"

// PaymentTask asks the payment worker to settle a pending payment.
type PaymentTask struct {
	PaymentID string `json:"payment_id"`
}

type RefundTask struct {
	RefundID string `json:"refund_id"`
}

// WebhookTask delivers one attempt of a webhook log. Attempt is the number of attempts the log
// had made when the task was enqueued.
type WebhookTask struct {
	LogID      string          `json:"log_id"`
	MerchantID string          `json:"merchant_id"`
	Attempt    int             `json:"attempt"`
	Payload    json.RawMessage `json:"payload"`
}

// Event is the body POSTed to merchants.
type Event struct {
	Event     string      `json:"event"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}
