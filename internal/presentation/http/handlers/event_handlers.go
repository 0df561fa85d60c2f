// Package handlers provides HTTP handlers for the personalization engine.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/merchstack/merchstack-go/internal/application/services"
	"github.com/merchstack/merchstack-go/internal/domain/entities/analytics"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/performance"
)

// TrackEventRequest represents the body for generic event tracking
type TrackEventRequest struct {
	Event      string         `json:"event" binding:"required"`
	Properties map[string]any `json:"properties"`
	Value      float64        `json:"value"`
}

// TrackBehaviorRequest represents the body for semantic behavior tracking
type TrackBehaviorRequest struct {
	Action  string         `json:"action" binding:"required"`
	Context map[string]any `json:"context"`
	UserID  string         `json:"userId"`
}

// IdentifyRequest represents the body for user identification
type IdentifyRequest struct {
	UserID     string         `json:"userId" binding:"required"`
	Properties map[string]any `json:"properties"`
}

// PurchaseRequest represents the body for purchase tracking
type PurchaseRequest struct {
	OrderID string                   `json:"orderId" binding:"required"`
	Items   []analytics.PurchaseItem `json:"items" binding:"required"`
	Total   float64                  `json:"total"`
}

// EventHandlers contains the analytics and behavior HTTP handlers
type EventHandlers struct {
	analyticsService *services.AnalyticsService
	behaviorService  *services.BehaviorService
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewEventHandlers creates event handlers with injected dependencies
func NewEventHandlers(analyticsService *services.AnalyticsService, behaviorService *services.BehaviorService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *EventHandlers {
	return &EventHandlers{
		analyticsService: analyticsService,
		behaviorService:  behaviorService,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

// PostEvent appends a generic analytics event
func (h *EventHandlers) PostEvent(c *gin.Context) {
	start := time.Now()

	var req TrackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.analyticsService.Track(req.Event, req.Properties, req.Value)

	h.logger.Analytics().Debug("Track event request completed", "event", req.Event, "duration", time.Since(start))
	c.JSON(http.StatusAccepted, gin.H{
		"tracked":   true,
		"sessionId": h.analyticsService.CurrentSessionID(),
	})
}

// PostPurchase records a completed order
func (h *EventHandlers) PostPurchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.analyticsService.TrackPurchase(req.OrderID, req.Items, req.Total)
	c.JSON(http.StatusAccepted, gin.H{"tracked": true})
}

// PostBehavior appends a semantic user behavior
func (h *EventHandlers) PostBehavior(c *gin.Context) {
	var req TrackBehaviorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = h.analyticsService.CurrentUserID()
	}
	h.behaviorService.TrackBehavior(req.Action, req.Context, userID)
	c.JSON(http.StatusAccepted, gin.H{"tracked": true})
}

// PostIdentify sets the active user identity
func (h *EventHandlers) PostIdentify(c *gin.Context) {
	var req IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.analyticsService.Identify(req.UserID, req.Properties)
	c.JSON(http.StatusOK, gin.H{"identified": true, "userId": req.UserID})
}

// PostSessionStart opens a fresh session and returns its id
func (h *EventHandlers) PostSessionStart(c *gin.Context) {
	sessionID := h.analyticsService.StartSession()
	c.Header("X-MerchStack-Session-ID", sessionID)
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID})
}

// PostSessionEnd closes the current session and forces a persist
func (h *EventHandlers) PostSessionEnd(c *gin.Context) {
	h.analyticsService.EndSession()
	c.JSON(http.StatusOK, gin.H{"ended": true})
}

// GetSession returns the current session and user identity
func (h *EventHandlers) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessionId": h.analyticsService.CurrentSessionID(),
		"userId":    h.analyticsService.CurrentUserID(),
	})
}

// GetEvents returns the event log filtered by the optional query parameters
// type, userId, sessionId, and start/end (epoch ms).
func (h *EventHandlers) GetEvents(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("get_events_request")
	defer marker.Complete()

	var events []*analytics.Event
	switch {
	case c.Query("type") != "":
		events = h.analyticsService.EventsByType(c.Query("type"))
	case c.Query("userId") != "":
		events = h.analyticsService.UserEvents(c.Query("userId"))
	case c.Query("sessionId") != "":
		events = h.analyticsService.SessionEvents(c.Query("sessionId"))
	case c.Query("start") != "" || c.Query("end") != "":
		from, _ := strconv.ParseInt(c.DefaultQuery("start", "0"), 10, 64)
		to, err := strconv.ParseInt(c.DefaultQuery("end", ""), 10, 64)
		if err != nil {
			to = time.Now().UnixMilli()
		}
		events = h.analyticsService.EventsByTimeRange(from, to)
	default:
		events = h.analyticsService.Events()
	}

	marker.SetSuccess(true)
	h.logger.Analytics().Debug("Get events request completed", "count", len(events), "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// GetDashboard returns the derived analytics summary
func (h *EventHandlers) GetDashboard(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("dashboard_request")
	defer marker.Complete()

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	dashboard := gin.H{
		"topProducts":       h.analyticsService.TopProducts(limit),
		"conversionRate":    h.analyticsService.ConversionRate(),
		"averageOrderValue": h.analyticsService.AverageOrderValue(),
		"eventCount":        len(h.analyticsService.Events()),
	}

	marker.SetSuccess(true)
	h.logger.Analytics().Info("Dashboard request completed", "duration", time.Since(start))
	c.JSON(http.StatusOK, dashboard)
}
