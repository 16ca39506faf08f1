package handler

import (
	"encoding/json"
	"net/http"

	"payflow/internal/middleware"
	"payflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RefundHandler struct {
	svc *service.RefundService
	log logrus.FieldLogger
}

func NewRefundHandler(svc *service.RefundService, log logrus.FieldLogger) *RefundHandler {
	return &RefundHandler{svc: svc, log: log}
}

type CreateRefundRequest struct {
	Amount json.Number `json:"amount"`
	Reason *string     `json:"reason"`
}

func (h *RefundHandler) Create(c *gin.Context) {
	var req CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	amount, err := req.Amount.Int64()
	if err != nil {
		badRequest(c, "amount must be an integer")
		return
	}
	r, err := h.svc.Create(c.Request.Context(), middleware.GetMerchant(c).ID, c.Param("id"), amount, req.Reason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *RefundHandler) Get(c *gin.Context) {
	r, err := h.svc.Get(c.Request.Context(), middleware.GetMerchant(c).ID, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
