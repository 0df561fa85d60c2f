package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/merchstack/merchstack-go/internal/domain/entities/analytics"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/persistence/kv"
	"github.com/merchstack/merchstack-go/pkg/config"
)

// unknownSessionID is stamped onto behaviors recorded before any session
// has been opened.
const unknownSessionID = "unknown"

// BehaviorService owns the semantic user action log. Every append feeds the
// profile index and drops entries older than the retention window before
// persisting.
type BehaviorService struct {
	mu        sync.RWMutex
	behaviors []*analytics.Behavior

	analytics *AnalyticsService
	profiles  *ProfileService
	store     kv.Store
	logger    *logging.ChanneledLogger
	retention time.Duration
	now       func() time.Time
}

// NewBehaviorService creates the behavior service and restores the persisted
// behavior log.
func NewBehaviorService(store kv.Store, analyticsSvc *AnalyticsService, profiles *ProfileService, logger *logging.ChanneledLogger) *BehaviorService {
	s := &BehaviorService{
		analytics: analyticsSvc,
		profiles:  profiles,
		store:     store,
		logger:    logger,
		retention: config.BehaviorRetention,
		now:       time.Now,
	}
	s.restore()
	return s
}

func (s *BehaviorService) restore() {
	raw, ok, err := s.store.Get(kv.KeyBehaviors)
	if err != nil {
		s.logger.Behavior().Warn("Failed to read persisted behavior log, starting empty", "error", err)
		return
	}
	if !ok {
		return
	}

	var behaviors []*analytics.Behavior
	if err := json.Unmarshal([]byte(raw), &behaviors); err != nil {
		s.logger.Behavior().Warn("Persisted behavior log is corrupt, starting empty", "error", err)
		return
	}
	s.behaviors = behaviors
	s.logger.Behavior().Info("Restored behavior log", "count", len(behaviors))
}

// persistLocked purges expired entries and writes the log. Callers must hold
// s.mu. Failures are logged and swallowed.
func (s *BehaviorService) persistLocked() {
	cutoff := s.now().Add(-s.retention).UnixMilli()
	kept := s.behaviors[:0]
	for _, b := range s.behaviors {
		if b.Timestamp >= cutoff {
			kept = append(kept, b)
		}
	}
	s.behaviors = kept

	payload, err := json.Marshal(s.behaviors)
	if err != nil {
		s.logger.Behavior().Error("Failed to marshal behavior log", "error", err)
		return
	}
	if err := s.store.Set(kv.KeyBehaviors, string(payload)); err != nil {
		s.logger.Behavior().Warn("Failed to persist behavior log", "error", err, "count", len(s.behaviors))
	}
}

// TrackBehavior appends a user action and updates that user's profile. The
// session id comes from the analytics service; productId and category are
// lifted out of the context map when present.
func (s *BehaviorService) TrackBehavior(action string, context map[string]any, userID string) {
	sessionID := s.analytics.CurrentSessionID()
	if sessionID == "" {
		sessionID = unknownSessionID
	}

	behavior := &analytics.Behavior{
		UserID:    userID,
		SessionID: sessionID,
		Action:    action,
		Timestamp: s.now().UnixMilli(),
		Context:   context,
	}
	if id, ok := context["productId"].(string); ok {
		behavior.ProductID = id
	}
	if category, ok := context["category"].(string); ok {
		behavior.Category = category
	}

	s.mu.Lock()
	s.behaviors = append(s.behaviors, behavior)
	s.persistLocked()
	s.mu.Unlock()

	s.profiles.Update(behavior)
	s.logger.Behavior().Debug("Tracked behavior", "action", action, "productId", behavior.ProductID, "userId", userID)
}

// All returns a copy of the behavior log, oldest first.
func (s *BehaviorService) All() []*analytics.Behavior {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*analytics.Behavior, len(s.behaviors))
	copy(out, s.behaviors)
	return out
}

// Recent returns behaviors newer than the given window, oldest first.
func (s *BehaviorService) Recent(window time.Duration) []*analytics.Behavior {
	cutoff := s.now().Add(-window).UnixMilli()

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*analytics.Behavior
	for _, b := range s.behaviors {
		if b.Timestamp >= cutoff {
			out = append(out, b)
		}
	}
	return out
}

// UserBehaviors returns the behaviors recorded for one user, oldest first.
func (s *BehaviorService) UserBehaviors(userID string) []*analytics.Behavior {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*analytics.Behavior
	for _, b := range s.behaviors {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out
}
