package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/ytgrab/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	queueMgr  *app.QueueManager
	preflight app.PreflightFunc
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(queueMgr *app.QueueManager, preflight app.PreflightFunc) *HealthHandler {
	return &HealthHandler{
		queueMgr:  queueMgr,
		preflight: preflight,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Queue   struct {
		Running bool `json:"running"`
	} `json:"queue"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}
	response.Queue.Running = h.queueMgr.IsRunning()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready. Readiness covers the queue processor and the
// external tooling downloads depend on.
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.queueMgr.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "queue manager not running",
		})
		return
	}

	if h.preflight != nil {
		if err := h.preflight(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
