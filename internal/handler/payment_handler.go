package handler

import (
	"encoding/json"
	"net/http"

	"payflow/internal/idempotency"
	"payflow/internal/middleware"
	"payflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type PaymentHandler struct {
	svc   *service.PaymentService
	guard *idempotency.Guard
	log   logrus.FieldLogger
}

func NewPaymentHandler(svc *service.PaymentService, guard *idempotency.Guard, log logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{svc: svc, guard: guard, log: log}
}

type CardRequest struct {
	Number      string     `json:"number"`
	ExpiryMonth flexString `json:"expiry_month"`
	ExpiryYear  flexString `json:"expiry_year"`
	CVV         string     `json:"cvv"`
	HolderName  string     `json:"holder_name"`
}

type CreatePaymentRequest struct {
	OrderID string       `json:"order_id"`
	Method  string       `json:"method"`
	VPA     string       `json:"vpa"`
	Card    *CardRequest `json:"card"`
}

func (r CreatePaymentRequest) input() service.CreatePaymentInput {
	in := service.CreatePaymentInput{OrderID: r.OrderID, Method: r.Method, VPA: r.VPA}
	if r.Card != nil {
		in.Card = &service.CardInput{
			Number:      r.Card.Number,
			ExpiryMonth: string(r.Card.ExpiryMonth),
			ExpiryYear:  string(r.Card.ExpiryYear),
			CVV:         r.Card.CVV,
			HolderName:  r.Card.HolderName,
		}
	}
	return in
}

// Create runs behind the idempotency middleware. The response is stored under the key only
// after the payment and its task have been committed.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	m := middleware.GetMerchant(c)
	p, err := h.svc.Create(c.Request.Context(), m.ID, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	body, err := json.Marshal(p)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if key := middleware.GetIdempotencyKey(c); key != "" {
		resp := idempotency.StoredResponse{Status: http.StatusCreated, Body: body}
		if err := h.guard.Store(c.Request.Context(), m.ID, key, resp, idempotency.DefaultTTL); err != nil {
			h.log.WithFields(logrus.Fields{"payment_id": p.ID, "merchant_id": m.ID}).WithError(err).Error("store idempotent response")
		}
	}
	c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
}

// CreatePublic is the hosted checkout path: no credentials, no idempotency guard.
func (h *PaymentHandler) CreatePublic(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.svc.Create(c.Request.Context(), "", req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PaymentHandler) Capture(c *gin.Context) {
	p, err := h.svc.Capture(c.Request.Context(), middleware.GetMerchant(c).ID, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
