package handler

import (
	"net/http"

	"payflow/internal/domain"
	"payflow/internal/queue"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type JobsHandler struct {
	q   *queue.Queue
	log logrus.FieldLogger
}

func NewJobsHandler(q *queue.Queue, log logrus.FieldLogger) *JobsHandler {
	return &JobsHandler{q: q, log: log}
}

// Status reports the payment topic in the shape test harnesses poll for.
func (h *JobsHandler) Status(c *gin.Context) {
	counts, err := h.q.Counts(c.Request.Context(), domain.TopicPayment)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pending":       counts.Waiting + counts.Delayed,
		"processing":    counts.Active,
		"completed":     counts.Completed,
		"failed":        counts.Failed,
		"worker_status": "running",
	})
}

func (h *JobsHandler) Stats(c *gin.Context) {
	out := make(map[string]queue.Counts, 3)
	for _, topic := range []string{domain.TopicPayment, domain.TopicRefund, domain.TopicWebhook} {
		counts, err := h.q.Counts(c.Request.Context(), topic)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		out[topic] = counts
	}
	c.JSON(http.StatusOK, out)
}
