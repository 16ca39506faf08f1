package handler

import (
	"net/http"

	"payflow/internal/middleware"
	"payflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type WebhookHandler struct {
	svc *service.WebhookService
	log logrus.FieldLogger
}

func NewWebhookHandler(svc *service.WebhookService, log logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{svc: svc, log: log}
}

func (h *WebhookHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	logs, total, err := h.svc.List(c.Request.Context(), middleware.GetMerchant(c).ID, limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs, "total": total, "limit": limit, "offset": offset})
}

func (h *WebhookHandler) Retry(c *gin.Context) {
	l, err := h.svc.Retry(c.Request.Context(), middleware.GetMerchant(c).ID, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      l.ID,
		"status":  l.Status,
		"message": "Webhook retry scheduled",
	})
}
