package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/merchstack/merchstack-go/internal/infrastructure/messaging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/performance"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The CORS middleware already gates browser origins; the upgrade
	// itself accepts any origin so local tools can attach.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SetLogLevelRequest represents the body for changing a channel's log level
type SetLogLevelRequest struct {
	Channel string `json:"channel" binding:"required"`
	Level   string `json:"level" binding:"required"`
}

// SystemHandlers contains health, live feed, and operations handlers
type SystemHandlers struct {
	hub         *messaging.WSHub
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewSystemHandlers creates system handlers with injected dependencies
func NewSystemHandlers(hub *messaging.WSHub, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SystemHandlers {
	return &SystemHandlers{hub: hub, logger: logger, perfTracker: perfTracker}
}

// GetHealth reports process health and uptime
func (h *SystemHandlers) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    h.perfTracker.Uptime().String(),
		"wsClients": h.hub.ClientCount(),
	})
}

// GetLive upgrades the connection and streams tracked events over websocket
func (h *SystemHandlers) GetLive(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WS().Warn("Websocket upgrade failed", "error", err)
		return
	}
	h.hub.Serve(conn)
}

// GetPerformance returns per-operation timing summaries
func (h *SystemHandlers) GetPerformance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime":     h.perfTracker.Uptime().String(),
		"operations": h.perfTracker.Summaries(),
	})
}

// GetLogLevels returns the current per-channel log levels
func (h *SystemHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": h.logger.GetChannelLevels()})
}

// PostLogLevel changes one channel's log level at runtime
func (h *SystemHandlers) PostLogLevel(c *gin.Context) {
	var req SetLogLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var level slog.Level
	switch strings.ToLower(req.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown level: " + req.Level})
		return
	}

	if err := h.logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": req.Channel, "level": req.Level})
}
