package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/ytgrab/internal/app"
	"github.com/yourusername/ytgrab/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// ProgressWebSocketHandler streams typed progress events for one download
// over a WebSocket connection.
type ProgressWebSocketHandler struct {
	hub      *app.ProgressHub
	queueMgr *app.QueueManager
	logger   *zap.Logger
}

// NewProgressWebSocketHandler creates a new WebSocket handler
func NewProgressWebSocketHandler(hub *app.ProgressHub, queueMgr *app.QueueManager, logger *zap.Logger) *ProgressWebSocketHandler {
	return &ProgressWebSocketHandler{
		hub:      hub,
		queueMgr: queueMgr,
		logger:   logger,
	}
}

// HandleWebSocket handles GET /api/v1/downloads/:id/progress
func (h *ProgressWebSocketHandler) HandleWebSocket(c *gin.Context) {
	id := c.Param("id")

	download, err := h.queueMgr.GetDownload(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("Progress WebSocket client connected",
		zap.String("id", id),
		zap.String("remote_addr", c.Request.RemoteAddr))

	// A terminal job has no more events; send its final state and close.
	if download.IsTerminal() || download.Status == domain.StatusFailed {
		h.writeTerminalState(conn, download)
		return
	}

	events, cancel := h.hub.Subscribe(id)
	defer cancel()

	// The job may have reached a terminal state between the lookup and the
	// subscription; no further events will arrive for it.
	if current, err := h.queueMgr.GetDownload(id); err == nil &&
		(current.IsTerminal() || current.Status == domain.StatusFailed) {
		h.writeTerminalState(conn, current)
		return
	}

	// Read loop drains client messages so pongs are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event := <-events:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("Failed to marshal progress event", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			if event.Phase == domain.PhaseFinished {
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

func (h *ProgressWebSocketHandler) writeTerminalState(conn *websocket.Conn, download *domain.Download) {
	event := domain.ProgressEvent{
		Phase:         domain.PhaseFinished,
		Fraction:      1.0,
		FractionKnown: true,
		Label:         "Completed: " + download.FilePath,
	}
	if download.Status != domain.StatusCompleted {
		event.Fraction = 0
		event.FractionKnown = false
		event.Label = "Terminal: " + string(download.Status)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	conn.WriteMessage(websocket.TextMessage, data)
}
