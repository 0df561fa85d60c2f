// Package performance provides lightweight operation timing for the engine.
// Services start a marker per operation; the tracker retains recent markers
// for the admin dashboard.
package performance

import (
	"fmt"
	"sync"
	"time"
)

// Marker represents a single performance measurement for an operation
type Marker struct {
	Operation string         `json:"operation"` // e.g. "recommend:homepage", "experiment:get_variant"
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Duration  time.Duration  `json:"duration"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Completed bool           `json:"completed"`
}

// Complete marks the operation as finished and records the final duration.
func (m *Marker) Complete() {
	if m.Completed {
		return // Prevent double completion
	}
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true
}

// SetSuccess marks the operation as successful or failed
func (m *Marker) SetSuccess(success bool) {
	m.Success = success
}

// SetError sets an error message and marks the operation as failed
func (m *Marker) SetError(err error) {
	if err != nil {
		m.Error = err.Error()
		m.Success = false
	}
}

// AddMetadata adds key-value metadata to the marker
func (m *Marker) AddMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// Tracker manages performance markers with a bounded retention window.
type Tracker struct {
	markers    map[string]*Marker
	maxMarkers int
	mu         sync.RWMutex
	started    time.Time
}

// NewTracker creates a new performance tracker. maxMarkers caps retained
// markers; older markers are evicted opportunistically once the cap is hit.
func NewTracker(maxMarkers int) *Tracker {
	if maxMarkers <= 0 {
		maxMarkers = 10000
	}
	return &Tracker{
		markers:    make(map[string]*Marker),
		maxMarkers: maxMarkers,
		started:    time.Now(),
	}
}

// StartOperation creates and tracks a new performance marker for an operation
func (t *Tracker) StartOperation(operation string) *Marker {
	marker := &Marker{
		Operation: operation,
		StartTime: time.Now(),
		Success:   true, // Assume success until proven otherwise
	}

	markerID := fmt.Sprintf("%s_%d", operation, time.Now().UnixNano())

	t.mu.Lock()
	if len(t.markers) >= t.maxMarkers {
		t.evictCompletedLocked()
	}
	t.markers[markerID] = marker
	t.mu.Unlock()

	return marker
}

// evictCompletedLocked drops completed markers to make room. Callers must
// hold t.mu.
func (t *Tracker) evictCompletedLocked() {
	for id, m := range t.markers {
		if m.Completed {
			delete(t.markers, id)
		}
		if len(t.markers) < t.maxMarkers/2 {
			return
		}
	}
}

// Summary aggregates completed markers per operation for the dashboard.
type Summary struct {
	Operation     string        `json:"operation"`
	Count         int           `json:"count"`
	Failures      int           `json:"failures"`
	TotalDuration time.Duration `json:"totalDuration"`
	MaxDuration   time.Duration `json:"maxDuration"`
}

// Summaries returns per-operation aggregates over the retained markers.
func (t *Tracker) Summaries() map[string]*Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	summaries := make(map[string]*Summary)
	for _, m := range t.markers {
		if !m.Completed {
			continue
		}
		s, ok := summaries[m.Operation]
		if !ok {
			s = &Summary{Operation: m.Operation}
			summaries[m.Operation] = s
		}
		s.Count++
		if !m.Success {
			s.Failures++
		}
		s.TotalDuration += m.Duration
		if m.Duration > s.MaxDuration {
			s.MaxDuration = m.Duration
		}
	}
	return summaries
}

// Uptime reports how long the tracker (and therefore the process) has been up.
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}
