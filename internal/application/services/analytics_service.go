// Package services provides application-level orchestration services
package services

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/merchstack/merchstack-go/internal/domain/entities/analytics"
	"github.com/merchstack/merchstack-go/internal/infrastructure/messaging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/performance"
	"github.com/merchstack/merchstack-go/internal/infrastructure/persistence/kv"
	"github.com/merchstack/merchstack-go/pkg/config"
)

// AnalyticsService owns the append-only analytics event log, the current
// session id, and the current user identity. It is the only writer of both
// identity values; other services read them through CurrentSessionID and
// CurrentUserID instead of scraping the log.
type AnalyticsService struct {
	mu        sync.RWMutex
	events    []*analytics.Event
	sessionID string
	userID    string

	store       kv.Store
	feed        messaging.Feed
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	maxEvents   int
	now         func() time.Time
}

// NewAnalyticsService creates the analytics service, restores the persisted
// event log, and opens a fresh session.
func NewAnalyticsService(store kv.Store, feed messaging.Feed, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AnalyticsService {
	s := &AnalyticsService{
		store:       store,
		feed:        feed,
		logger:      logger,
		perfTracker: perfTracker,
		maxEvents:   config.EventLogCap,
		now:         time.Now,
	}
	s.restore()
	s.StartSession()
	return s
}

// restore loads the persisted event log. Corrupt JSON resets the log to
// empty rather than failing construction.
func (s *AnalyticsService) restore() {
	raw, ok, err := s.store.Get(kv.KeyEvents)
	if err != nil {
		s.logger.Analytics().Warn("Failed to read persisted event log, starting empty", "error", err)
		return
	}
	if !ok {
		return
	}

	var events []*analytics.Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		s.logger.Analytics().Warn("Persisted event log is corrupt, starting empty", "error", err)
		return
	}
	s.events = events
	s.logger.Analytics().Info("Restored event log", "count", len(events))
}

// persistLocked writes the event log. Callers must hold s.mu. Failures are
// logged and swallowed; the in-memory log stays authoritative.
func (s *AnalyticsService) persistLocked() {
	if len(s.events) > s.maxEvents {
		s.events = s.events[len(s.events)-s.maxEvents:]
	}

	payload, err := json.Marshal(s.events)
	if err != nil {
		s.logger.Analytics().Error("Failed to marshal event log", "error", err)
		return
	}
	if err := s.store.Set(kv.KeyEvents, string(payload)); err != nil {
		s.logger.Analytics().Warn("Failed to persist event log", "error", err, "count", len(s.events))
	}
}

// Track appends an event stamped with the current session and user, persists
// the log, and publishes the event to the live feed.
func (s *AnalyticsService) Track(event string, properties map[string]any, value float64) {
	marker := s.perfTracker.StartOperation("analytics_track")
	defer marker.Complete()
	marker.AddMetadata("event", event)

	s.mu.Lock()
	entry := &analytics.Event{
		Event:      event,
		Properties: properties,
		Value:      value,
		Timestamp:  s.now().UnixMilli(),
		UserID:     s.userID,
		SessionID:  s.sessionID,
	}
	s.events = append(s.events, entry)
	s.persistLocked()
	s.mu.Unlock()

	s.feed.Publish(entry)
	s.logger.Analytics().Debug("Tracked event", "event", event, "sessionId", entry.SessionID, "userId", entry.UserID)
	marker.SetSuccess(true)
}

// TrackPageView records a page navigation.
func (s *AnalyticsService) TrackPageView(path, title string) {
	s.Track(analytics.EventPageView, map[string]any{"path": path, "title": title}, 0)
}

// TrackProductView records a product detail view.
func (s *AnalyticsService) TrackProductView(productID, name, category string, price float64) {
	s.Track(analytics.EventProductView, map[string]any{
		"productId": productID,
		"name":      name,
		"category":  category,
		"price":     price,
	}, 0)
}

// TrackAddToCart records a cart addition.
func (s *AnalyticsService) TrackAddToCart(productID, name string, price float64, quantity int) {
	s.Track(analytics.EventAddToCart, map[string]any{
		"productId": productID,
		"name":      name,
		"price":     price,
		"quantity":  quantity,
	}, price*float64(quantity))
}

// TrackPurchase records a completed order with its line items.
func (s *AnalyticsService) TrackPurchase(orderID string, items []analytics.PurchaseItem, total float64) {
	s.Track(analytics.EventPurchase, map[string]any{
		"orderId":   orderID,
		"items":     items,
		"itemCount": len(items),
	}, total)
}

// TrackSearch records a search query and its result count.
func (s *AnalyticsService) TrackSearch(query string, resultCount int) {
	s.Track(analytics.EventSearch, map[string]any{"query": query, "resultCount": resultCount}, 0)
}

// TrackExperiment records an experiment exposure.
func (s *AnalyticsService) TrackExperiment(experimentID, variantID string) {
	s.Track(analytics.EventExperimentExposure, map[string]any{
		"experimentId": experimentID,
		"variantId":    variantID,
	}, 0)
}

// TrackExperimentConversion records a conversion against an experiment.
func (s *AnalyticsService) TrackExperimentConversion(experimentID, variantID string, value float64) {
	s.Track(analytics.EventExperimentConverted, map[string]any{
		"experimentId": experimentID,
		"variantId":    variantID,
	}, value)
}

// TrackError records a caller-reported error condition.
func (s *AnalyticsService) TrackError(message string, context map[string]any) {
	props := map[string]any{"message": message}
	for k, v := range context {
		props[k] = v
	}
	s.Track(analytics.EventError, props, 0)
}

// Identify sets the active user id and emits an identify event carrying the
// supplied traits.
func (s *AnalyticsService) Identify(userID string, properties map[string]any) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()

	props := map[string]any{"userId": userID}
	for k, v := range properties {
		props[k] = v
	}
	s.Track(analytics.EventIdentify, props, 0)
	s.logger.Session().Info("Identified user", "userId", userID)
}

// SetUserID sets the active user id without emitting an event. An empty id
// reverts the session to anonymous.
func (s *AnalyticsService) SetUserID(userID string) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
}

// CurrentSessionID returns the session id stamped onto new events.
func (s *AnalyticsService) CurrentSessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// CurrentUserID returns the active user id, empty when anonymous.
func (s *AnalyticsService) CurrentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// StartSession generates a fresh session id and emits a session_start event.
func (s *AnalyticsService) StartSession() string {
	s.mu.Lock()
	s.sessionID = ulid.Make().String()
	sessionID := s.sessionID
	s.mu.Unlock()

	s.Track(analytics.EventSessionStart, nil, 0)
	s.logger.Session().Info("Session started", "sessionId", sessionID)
	return sessionID
}

// EndSession emits a session_end event and forces a persist. The host is
// responsible for calling this on teardown.
func (s *AnalyticsService) EndSession() {
	s.mu.RLock()
	sessionID := s.sessionID
	s.mu.RUnlock()

	s.Track(analytics.EventSessionEnd, nil, 0)

	s.mu.Lock()
	s.persistLocked()
	s.mu.Unlock()
	s.logger.Session().Info("Session ended", "sessionId", sessionID)
}

// Events returns a copy of the full in-memory event log, oldest first.
func (s *AnalyticsService) Events() []*analytics.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*analytics.Event, len(s.events))
	copy(out, s.events)
	return out
}

// EventsByType returns events with the given name.
func (s *AnalyticsService) EventsByType(event string) []*analytics.Event {
	return s.filter(func(e *analytics.Event) bool { return e.Event == event })
}

// EventsByTimeRange returns events with start <= timestamp <= end, in epoch
// milliseconds.
func (s *AnalyticsService) EventsByTimeRange(start, end int64) []*analytics.Event {
	return s.filter(func(e *analytics.Event) bool { return e.Timestamp >= start && e.Timestamp <= end })
}

// UserEvents returns events stamped with the given user id.
func (s *AnalyticsService) UserEvents(userID string) []*analytics.Event {
	return s.filter(func(e *analytics.Event) bool { return e.UserID == userID })
}

// SessionEvents returns events stamped with the given session id.
func (s *AnalyticsService) SessionEvents(sessionID string) []*analytics.Event {
	return s.filter(func(e *analytics.Event) bool { return e.SessionID == sessionID })
}

func (s *AnalyticsService) filter(keep func(*analytics.Event) bool) []*analytics.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*analytics.Event
	for _, e := range s.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// TopProducts ranks products by view count over the event log, with ties
// broken by first appearance. Purchase counts are tallied separately from
// the item lists embedded in purchase events.
func (s *AnalyticsService) TopProducts(limit int) []*analytics.ProductStat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]*analytics.ProductStat)
	var order []string

	record := func(productID string) *analytics.ProductStat {
		stat, ok := stats[productID]
		if !ok {
			stat = &analytics.ProductStat{ProductID: productID}
			stats[productID] = stat
			order = append(order, productID)
		}
		return stat
	}

	for _, e := range s.events {
		switch e.Event {
		case analytics.EventProductView:
			if id, ok := e.Properties["productId"].(string); ok && id != "" {
				record(id).Views++
			}
		case analytics.EventPurchase:
			for _, id := range purchasedProductIDs(e.Properties["items"]) {
				record(id).Purchases++
			}
		}
	}

	ranked := make([]*analytics.ProductStat, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, stats[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Views > ranked[j].Views })

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// purchasedProductIDs extracts product ids from a purchase event's item
// list. Items arrive typed when tracked in-process and as generic JSON
// after a restore, so both shapes are handled.
func purchasedProductIDs(items any) []string {
	var ids []string
	switch typed := items.(type) {
	case []analytics.PurchaseItem:
		for _, item := range typed {
			ids = append(ids, item.ProductID)
		}
	case []any:
		for _, raw := range typed {
			if m, ok := raw.(map[string]any); ok {
				if id, ok := m["productId"].(string); ok && id != "" {
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}

// ConversionRate is the fraction of distinct sessions containing at least
// one purchase event over distinct sessions with any event.
func (s *AnalyticsService) ConversionRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make(map[string]struct{})
	purchased := make(map[string]struct{})
	for _, e := range s.events {
		sessions[e.SessionID] = struct{}{}
		if e.Event == analytics.EventPurchase {
			purchased[e.SessionID] = struct{}{}
		}
	}
	if len(sessions) == 0 {
		return 0
	}
	return float64(len(purchased)) / float64(len(sessions))
}

// AverageOrderValue is the mean value across purchase events, 0 if none.
func (s *AnalyticsService) AverageOrderValue() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	var count int
	for _, e := range s.events {
		if e.Event == analytics.EventPurchase {
			total += e.Value
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
