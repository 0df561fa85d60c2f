package services

import (
	"fmt"
	"testing"

	"github.com/merchstack/merchstack-go/internal/domain/entities/analytics"
	"github.com/merchstack/merchstack-go/internal/infrastructure/persistence/kv"
)

func TestTrackStampsSessionAndUser(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	e.analytics.SetUserID("u1")
	e.analytics.Track("page_view", map[string]any{"path": "/"}, 0)

	events := e.analytics.Events()
	last := events[len(events)-1]
	if last.Event != "page_view" {
		t.Fatalf("last event = %q, want page_view", last.Event)
	}
	if last.UserID != "u1" {
		t.Errorf("event userId = %q, want u1", last.UserID)
	}
	if last.SessionID != e.analytics.CurrentSessionID() {
		t.Errorf("event sessionId = %q, want current session %q", last.SessionID, e.analytics.CurrentSessionID())
	}
}

func TestEventLogTrimsToNewest(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	for i := 0; i < 1500; i++ {
		e.analytics.Track("page_view", map[string]any{"seq": i}, 0)
	}

	events := e.analytics.Events()
	if len(events) != 1000 {
		t.Fatalf("event log length = %d, want 1000", len(events))
	}
	if got := events[len(events)-1].Properties["seq"]; got != 1499 {
		t.Errorf("newest event seq = %v, want 1499", got)
	}
	if got := events[0].Properties["seq"]; got != 500 {
		t.Errorf("oldest retained event seq = %v, want 500", got)
	}
}

func TestEventLogSurvivesRestart(t *testing.T) {
	store := kv.NewMemoryStore()

	e := newTestEngine(t, store)
	e.analytics.TrackPageView("/checkout", "Checkout")

	restarted := newTestEngine(t, store)
	found := false
	for _, event := range restarted.analytics.EventsByType(analytics.EventPageView) {
		if event.Properties["path"] == "/checkout" {
			found = true
		}
	}
	if !found {
		t.Error("page_view tracked before restart not found after restore")
	}
}

func TestStartSessionRotatesID(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	first := e.analytics.CurrentSessionID()
	if first == "" {
		t.Fatal("no session id after construction")
	}

	second := e.analytics.StartSession()
	if second == first {
		t.Error("StartSession() did not rotate the session id")
	}

	starts := e.analytics.EventsByType(analytics.EventSessionStart)
	if len(starts) != 2 {
		t.Errorf("session_start events = %d, want 2", len(starts))
	}
}

func TestEndSessionEmitsEvent(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	e.analytics.EndSession()
	if got := len(e.analytics.EventsByType(analytics.EventSessionEnd)); got != 1 {
		t.Errorf("session_end events = %d, want 1", got)
	}
}

func TestIdentifySetsUserAndEmitsEvent(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	e.analytics.Identify("u7", map[string]any{"plan": "gold"})

	if got := e.analytics.CurrentUserID(); got != "u7" {
		t.Errorf("CurrentUserID() = %q, want u7", got)
	}
	identifies := e.analytics.EventsByType(analytics.EventIdentify)
	if len(identifies) != 1 {
		t.Fatalf("identify events = %d, want 1", len(identifies))
	}
	if identifies[0].Properties["plan"] != "gold" {
		t.Errorf("identify properties = %v, want merged traits", identifies[0].Properties)
	}
}

func TestEventQueries(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())
	sessionID := e.analytics.CurrentSessionID()

	e.analytics.SetUserID("u1")
	e.analytics.TrackPageView("/", "Home")
	e.analytics.SetUserID("u2")
	e.analytics.TrackSearch("shirt", 3)

	if got := len(e.analytics.EventsByType(analytics.EventSearch)); got != 1 {
		t.Errorf("EventsByType(search) = %d events, want 1", got)
	}
	if got := len(e.analytics.UserEvents("u1")); got != 1 {
		t.Errorf("UserEvents(u1) = %d events, want 1", got)
	}
	// Session events include the constructor's session_start.
	if got := len(e.analytics.SessionEvents(sessionID)); got != 3 {
		t.Errorf("SessionEvents = %d events, want 3", got)
	}
}

func TestTopProducts(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	e.analytics.TrackProductView("m-002", "Slim Chinos", "men", 59.99)
	e.analytics.TrackProductView("m-001", "Oxford Shirt", "men", 49.99)
	e.analytics.TrackProductView("m-001", "Oxford Shirt", "men", 49.99)
	e.analytics.TrackProductView("a-001", "Leather Belt", "accessories", 34.99)
	e.analytics.TrackPurchase("order-1", []analytics.PurchaseItem{
		{ProductID: "m-001", Quantity: 1, Price: 49.99},
		{ProductID: "a-001", Quantity: 2, Price: 34.99},
	}, 119.97)

	top := e.analytics.TopProducts(2)
	if len(top) != 2 {
		t.Fatalf("TopProducts(2) = %d entries, want 2", len(top))
	}
	if top[0].ProductID != "m-001" || top[0].Views != 2 {
		t.Errorf("top product = %s with %d views, want m-001 with 2", top[0].ProductID, top[0].Views)
	}
	if top[0].Purchases != 1 {
		t.Errorf("m-001 purchases = %d, want 1", top[0].Purchases)
	}
	// m-002 and a-001 both have one view; m-002 was seen first.
	if top[1].ProductID != "m-002" {
		t.Errorf("second product = %s, want first-seen m-002 on the view tie", top[1].ProductID)
	}
}

func TestConversionRate(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	// Session 1: browse only. Session 2: purchase.
	e.analytics.TrackPageView("/", "Home")
	e.analytics.StartSession()
	e.analytics.TrackPurchase("order-1", []analytics.PurchaseItem{{ProductID: "m-001", Quantity: 1, Price: 49.99}}, 49.99)

	if got := e.analytics.ConversionRate(); got != 0.5 {
		t.Errorf("ConversionRate() = %v, want 0.5", got)
	}
}

func TestAverageOrderValue(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	if got := e.analytics.AverageOrderValue(); got != 0 {
		t.Fatalf("AverageOrderValue() with no purchases = %v, want 0", got)
	}

	e.analytics.TrackPurchase("order-1", nil, 40)
	e.analytics.TrackPurchase("order-2", nil, 60)
	if got := e.analytics.AverageOrderValue(); got != 50 {
		t.Errorf("AverageOrderValue() = %v, want 50", got)
	}
}

func TestPersistenceFailuresAreSwallowed(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())
	e.analytics.store = failingStore{}

	// Must not panic or surface an error; the in-memory log still grows.
	e.analytics.Track("page_view", nil, 0)
	if got := len(e.analytics.EventsByType("page_view")); got != 1 {
		t.Errorf("in-memory log has %d page_view events, want 1", got)
	}
}

func TestCorruptPersistedLogResetsEmpty(t *testing.T) {
	store := kv.NewMemoryStore()
	if err := store.Set(kv.KeyEvents, "{not json"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	e := newTestEngine(t, store)
	// Only the constructor's session_start should exist.
	if got := len(e.analytics.Events()); got != 1 {
		t.Errorf("event log after corrupt restore = %d entries, want 1", got)
	}
}

// failingStore rejects every operation.
type failingStore struct{}

func (failingStore) Get(string) (string, bool, error) { return "", false, fmt.Errorf("store offline") }
func (failingStore) Set(string, string) error         { return fmt.Errorf("store offline") }
