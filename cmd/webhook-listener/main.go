// Command webhook-listener is a local merchant endpoint for trying out deliveries. It logs whether
// the signature of each POST /webhook verifies and always acknowledges with 200.
package main

import (
	"encoding/json"
	"io"
	"net/http"
	"os"

	"payflow/config"
	"payflow/internal/database"
	"payflow/internal/logger"
	"payflow/pkg/webhook"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)
	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		secret = database.TestMerchantWebhookSecret
	}
	port := os.Getenv("LISTENER_PORT")
	if port == "" {
		port = "4000"
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/webhook", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, "unreadable body")
			return
		}
		valid := webhook.Verify(secret, body, c.GetHeader(webhook.SignatureHeader))
		var event struct {
			Event string `json:"event"`
		}
		_ = json.Unmarshal(body, &event)
		entry := log.WithFields(logrus.Fields{"event": event.Event, "signature_valid": valid})
		if valid {
			entry.Info("webhook received")
		} else {
			entry.Warn("webhook received with a bad signature")
		}
		c.String(http.StatusOK, "OK")
	})

	log.Infof("webhook listener on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
