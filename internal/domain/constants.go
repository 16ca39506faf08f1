package domain

const (
	OrderStatusCreated = "created"
	OrderStatusPaid    = "paid"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

const (
	MethodUPI  = "upi"
	MethodCard = "card"
)

const (
	RefundStatusPending   = "pending"
	RefundStatusProcessed = "processed"
)

const (
	WebhookStatusPending = "pending"
	WebhookStatusSuccess = "success"
	WebhookStatusFailed  = "failed"
)

// Queue topics.
const (
	TopicPayment = "payment"
	TopicRefund  = "refund"
	TopicWebhook = "webhook"
)

const (
	EventPaymentSuccess = "payment.success"
	EventPaymentFailed  = "payment.failed"
)

// Error codes surfaced on the synchronous API and on failed payments.
const (
	CodeBadRequest     = "BAD_REQUEST_ERROR"
	CodeNotFound       = "NOT_FOUND_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeInvalidVPA     = "INVALID_VPA"
	CodeInvalidCard    = "INVALID_CARD"
	CodeExpiredCard    = "EXPIRED_CARD"
	CodeInternal       = "INTERNAL_ERROR"
	CodeRateLimited    = "RATE_LIMIT_ERROR"
	CodePaymentFailed  = "PAYMENT_FAILED"
)

const (
	MinOrderAmount  = 100
	DefaultCurrency = "INR"
)

// Prefixes for generated entity ids.
const (
	PrefixOrder   = "order_"
	PrefixPayment = "pay_"
	PrefixRefund  = "rfnd_"
)
