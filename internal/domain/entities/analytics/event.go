// Package analytics provides domain entities for the analytics event log and
// the semantic user behavior log. Both logs are append-only and persisted to
// the durable key-value store after every mutation.
package analytics

// Canonical event names. Callers outside the engine rely on these exact
// strings when querying the event log.
const (
	EventPageView            = "page_view"
	EventProductView         = "product_view"
	EventAddToCart           = "add_to_cart"
	EventPurchase            = "purchase"
	EventSearch              = "search"
	EventExperimentExposure  = "experiment_exposure"
	EventExperimentConverted = "experiment_conversion"
	EventError               = "error"
	EventIdentify            = "identify"
	EventSessionStart        = "session_start"
	EventSessionEnd          = "session_end"
)

// Behavior actions understood by the profile index and trending detector.
const (
	ActionView     = "view"
	ActionCart     = "cart"
	ActionPurchase = "purchase"
	ActionWishlist = "wishlist"
	ActionSearch   = "search"
)

// Event is a single analytics log entry. Immutable once appended. Timestamps
// are epoch milliseconds to match the persisted JSON shape.
type Event struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
	Value      float64        `json:"value,omitempty"`
	Timestamp  int64          `json:"timestamp"`
	UserID     string         `json:"userId,omitempty"`
	SessionID  string         `json:"sessionId"`
}

// Behavior is a semantic user action tied to a product or category. Entries
// older than the retention window are dropped at save time.
type Behavior struct {
	UserID    string         `json:"userId,omitempty"`
	SessionID string         `json:"sessionId"`
	Action    string         `json:"action"`
	ProductID string         `json:"productId,omitempty"`
	Category  string         `json:"category,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Context   map[string]any `json:"context,omitempty"`
}

// PurchaseItem is one line of a purchase event's embedded product list.
type PurchaseItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// ProductStat is a derived per-product tally over the event log.
type ProductStat struct {
	ProductID string `json:"productId"`
	Views     int    `json:"views"`
	Purchases int    `json:"purchases"`
}
