package handler

import (
	"net/http"
	"time"

	"payflow/internal/database"
	"payflow/internal/queue"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
	q  *queue.Queue
}

func NewHealthHandler(db *gorm.DB, q *queue.Queue) *HealthHandler {
	return &HealthHandler{db: db, q: q}
}

func (h *HealthHandler) Health(c *gin.Context) {
	dbStatus, queueStatus := "connected", "connected"
	if err := database.Ping(h.db); err != nil {
		dbStatus = "disconnected"
	}
	if err := h.q.Ping(c.Request.Context()); err != nil {
		queueStatus = "disconnected"
	}
	status, code := "healthy", http.StatusOK
	if dbStatus != "connected" || queueStatus != "connected" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"database":  dbStatus,
		"queue":     queueStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
