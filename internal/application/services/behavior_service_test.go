package services

import (
	"testing"
	"time"

	"github.com/merchstack/merchstack-go/internal/domain/entities/analytics"
	"github.com/merchstack/merchstack-go/internal/infrastructure/persistence/kv"
)

func TestTrackBehaviorStampsSessionAndFields(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{
		"productId": "m-001",
		"category":  "men",
		"source":    "grid",
	}, "u1")

	all := e.behaviors.All()
	if len(all) != 1 {
		t.Fatalf("behavior log length = %d, want 1", len(all))
	}
	b := all[0]
	if b.ProductID != "m-001" || b.Category != "men" {
		t.Errorf("behavior product/category = %q/%q, want m-001/men", b.ProductID, b.Category)
	}
	if b.SessionID != e.analytics.CurrentSessionID() {
		t.Errorf("behavior sessionId = %q, want the analytics session id", b.SessionID)
	}
	if b.Context["source"] != "grid" {
		t.Errorf("behavior context = %v, want free-form fields preserved", b.Context)
	}
}

func TestBehaviorRetentionPurgesOldEntries(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	e.setClock(base)
	e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{"productId": "m-001"}, "u1")

	// 31 days later the first entry falls outside the retention window and
	// is dropped by the save triggered by the new entry.
	e.setClock(base.Add(31 * 24 * time.Hour))
	e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{"productId": "m-002"}, "u1")

	all := e.behaviors.All()
	if len(all) != 1 {
		t.Fatalf("behavior log length = %d, want 1 after purge", len(all))
	}
	if all[0].ProductID != "m-002" {
		t.Errorf("retained behavior = %s, want the recent m-002", all[0].ProductID)
	}
}

func TestBehaviorLogSurvivesRestart(t *testing.T) {
	store := kv.NewMemoryStore()

	e := newTestEngine(t, store)
	e.behaviors.TrackBehavior(analytics.ActionCart, map[string]any{"productId": "a-001"}, "u1")

	restarted := newTestEngine(t, store)
	if got := len(restarted.behaviors.UserBehaviors("u1")); got != 1 {
		t.Errorf("behaviors for u1 after restart = %d, want 1", got)
	}
}

func TestProfileUpdatedFromBehavior(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{"productId": "m-001", "category": "men"}, "u1")
	e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{"productId": "m-002", "category": "men"}, "u1")
	e.behaviors.TrackBehavior(analytics.ActionPurchase, map[string]any{"productId": "m-001", "category": "men"}, "u1")

	p, ok := e.profiles.Profile("u1")
	if !ok {
		t.Fatal("no profile created for u1")
	}
	if p.Behavior.TotalViews != 2 {
		t.Errorf("totalViews = %d, want 2", p.Behavior.TotalViews)
	}
	if p.Behavior.TotalPurchases != 1 {
		t.Errorf("totalPurchases = %d, want 1", p.Behavior.TotalPurchases)
	}
	if p.Preferences.Categories["men"] != 3 {
		t.Errorf("category interest for men = %d, want 3", p.Preferences.Categories["men"])
	}
	if p.Behavior.LastActivity == 0 {
		t.Error("lastActivity not stamped")
	}
}

func TestAnonymousBehaviorSkipsProfile(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{"productId": "m-001", "category": "men"}, "")

	if got := e.profiles.Count(); got != 0 {
		t.Errorf("profile count = %d, want 0 for anonymous behavior", got)
	}
}

func TestProfileDefaultPriceRange(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{"category": "men"}, "u1")

	p, _ := e.profiles.Profile("u1")
	if p.Preferences.PriceRange.Min != 0 || p.Preferences.PriceRange.Max != 1000 {
		t.Errorf("default price range = %v-%v, want 0-1000", p.Preferences.PriceRange.Min, p.Preferences.PriceRange.Max)
	}
}

func TestProfilesSurviveRestart(t *testing.T) {
	store := kv.NewMemoryStore()

	e := newTestEngine(t, store)
	e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{"category": "women"}, "u9")

	restarted := newTestEngine(t, store)
	p, ok := restarted.profiles.Profile("u9")
	if !ok {
		t.Fatal("profile for u9 missing after restart")
	}
	if p.Preferences.Categories["women"] != 1 {
		t.Errorf("restored category interest = %d, want 1", p.Preferences.Categories["women"])
	}
}
