package services

import (
	"encoding/json"
	"sync"

	"github.com/merchstack/merchstack-go/internal/domain/entities/analytics"
	"github.com/merchstack/merchstack-go/internal/domain/entities/profile"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/persistence/kv"
)

// ProfileService owns the derived per-user preference index. Profiles are
// created on first behavior, updated in place, and never removed.
type ProfileService struct {
	mu       sync.RWMutex
	profiles map[string]*profile.UserProfile

	store  kv.Store
	logger *logging.ChanneledLogger
}

// NewProfileService creates the profile service and restores persisted
// profiles.
func NewProfileService(store kv.Store, logger *logging.ChanneledLogger) *ProfileService {
	s := &ProfileService{
		profiles: make(map[string]*profile.UserProfile),
		store:    store,
		logger:   logger,
	}
	s.restore()
	return s
}

func (s *ProfileService) restore() {
	raw, ok, err := s.store.Get(kv.KeyProfiles)
	if err != nil {
		s.logger.Behavior().Warn("Failed to read persisted profiles, starting empty", "error", err)
		return
	}
	if !ok {
		return
	}

	profiles := make(map[string]*profile.UserProfile)
	if err := json.Unmarshal([]byte(raw), &profiles); err != nil {
		s.logger.Behavior().Warn("Persisted profiles are corrupt, starting empty", "error", err)
		return
	}
	for userID, p := range profiles {
		if p.Preferences.Categories == nil {
			p.Preferences.Categories = make(map[string]int)
		}
		s.profiles[userID] = p
	}
	s.logger.Behavior().Info("Restored user profiles", "count", len(s.profiles))
}

func (s *ProfileService) persistLocked() {
	payload, err := json.Marshal(s.profiles)
	if err != nil {
		s.logger.Behavior().Error("Failed to marshal profiles", "error", err)
		return
	}
	if err := s.store.Set(kv.KeyProfiles, string(payload)); err != nil {
		s.logger.Behavior().Warn("Failed to persist profiles", "error", err, "count", len(s.profiles))
	}
}

// Update folds one behavior into its user's profile. Anonymous behaviors
// are ignored.
func (s *ProfileService) Update(behavior *analytics.Behavior) {
	if behavior.UserID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[behavior.UserID]
	if !ok {
		p = profile.NewUserProfile(behavior.UserID)
		s.profiles[behavior.UserID] = p
	}

	switch behavior.Action {
	case analytics.ActionView:
		p.Behavior.TotalViews++
	case analytics.ActionPurchase:
		p.Behavior.TotalPurchases++
	}
	if behavior.Category != "" {
		p.Preferences.Categories[behavior.Category]++
	}
	p.Behavior.LastActivity = behavior.Timestamp

	s.persistLocked()
}

// Profile returns the profile for a user id.
func (s *ProfileService) Profile(userID string) (*profile.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	return p, ok
}

// Count returns the number of known profiles.
func (s *ProfileService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}
