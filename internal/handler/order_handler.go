package handler

import (
	"encoding/json"
	"net/http"

	"payflow/internal/middleware"
	"payflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type OrderHandler struct {
	svc *service.OrderService
	log logrus.FieldLogger
}

func NewOrderHandler(svc *service.OrderService, log logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

type CreateOrderRequest struct {
	Amount   json.Number     `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  *string         `json:"receipt"`
	Notes    json.RawMessage `json:"notes"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	amount, err := req.Amount.Int64()
	if err != nil {
		badRequest(c, "amount must be an integer")
		return
	}
	o, err := h.svc.Create(c.Request.Context(), middleware.GetMerchant(c).ID, service.CreateOrderInput{
		Amount:   amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.svc.Get(c.Request.Context(), middleware.GetMerchant(c).ID, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	orders, err := h.svc.List(c.Request.Context(), middleware.GetMerchant(c).ID, limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "limit": limit, "offset": offset})
}

// GetPublic serves the hosted checkout and exposes only what the payer needs.
func (h *OrderHandler) GetPublic(c *gin.Context) {
	o, err := h.svc.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          o.ID,
		"amount":      o.Amount,
		"currency":    o.Currency,
		"status":      o.Status,
		"merchant_id": o.MerchantID,
	})
}
