package middleware

import (
	"payflow/internal/idempotency"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyKey    = "idempotency_key"
)

// Idempotency replays a stored response for a repeated Idempotency-Key. Requests without the
// header pass through. The handler stores its own response once its writes are committed.
func Idempotency(guard *idempotency.Guard, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		m := GetMerchant(c)
		if key == "" || m == nil {
			c.Next()
			return
		}
		stored, err := guard.Check(c.Request.Context(), m.ID, key)
		if err != nil {
			log.WithError(err).WithField("merchant_id", m.ID).Error("idempotency lookup failed")
			abortWith(c, err)
			return
		}
		if stored != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
			c.Abort()
			return
		}
		c.Set(idempotencyKey, key)
		c.Next()
	}
}

// GetIdempotencyKey returns the key a handler must store its response under, or "".
func GetIdempotencyKey(c *gin.Context) string {
	return c.GetString(idempotencyKey)
}
