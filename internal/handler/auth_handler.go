package handler

import (
	"net/http"

	"payflow/internal/middleware"
	"payflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	svc *service.AuthService
	log logrus.FieldLogger
}

func NewAuthHandler(svc *service.AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

type LoginRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Secret string `json:"secret" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and secret are required")
		return
	}
	m, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Secret)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"merchant": gin.H{
			"id":          m.ID,
			"name":        m.Name,
			"email":       m.Email,
			"api_key":     m.APIKey,
			"webhook_url": m.WebhookURL,
		},
		"token": token,
	})
}

// Me returns the authenticated merchant.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetMerchant(c))
}
