// Package messaging defines interfaces for real-time communication.
package messaging

// Feed is the outbound live event stream. The engine publishes every tracked
// analytics event to it; delivery is best-effort and never blocks tracking.
type Feed interface {
	Publish(v any)
}

// NopFeed discards everything. Used when no live feed is wired.
type NopFeed struct{}

// Publish drops the value.
func (NopFeed) Publish(any) {}
