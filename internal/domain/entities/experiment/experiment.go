// Package experiment provides domain entities for A/B test definitions,
// sticky user assignments, and derived per-variant results.
package experiment

import "time"

// Status values for an experiment lifecycle. Variants are only served while
// the experiment is running.
const (
	StatusDraft     = "draft"
	StatusRunning   = "running"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

// AnonymousKey is the user key shared by all unidentified traffic on a
// device. Anonymous visitors therefore land in a single bucket.
const AnonymousKey = "anonymous"

// Variant is one arm of an experiment. Weight is a share of the 0-100
// weight space; weights across variants should sum to 100 for correct
// bucketing, which is a caller responsibility and is not enforced here.
type Variant struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Weight int            `json:"weight"`
	Config map[string]any `json:"config,omitempty"`
}

// TargetAudience restricts which users qualify for an experiment.
// Percentage is 0-100; conditions are opaque to the engine.
type TargetAudience struct {
	Percentage int            `json:"percentage"`
	Conditions map[string]any `json:"conditions,omitempty"`
}

// Metrics names the measures the experiment is evaluated against.
type Metrics struct {
	Primary   string   `json:"primary,omitempty"`
	Secondary []string `json:"secondary,omitempty"`
}

// Experiment is a stored test definition. Mutated only through explicit
// start/stop transitions; never deleted in-engine.
type Experiment struct {
	ID             string         `json:"id"`
	Name           string         `json:"name,omitempty"`
	Status         string         `json:"status"`
	StartDate      time.Time      `json:"startDate"`
	EndDate        *time.Time     `json:"endDate,omitempty"`
	TargetAudience TargetAudience `json:"targetAudience"`
	Variants       []Variant      `json:"variants"`
	Metrics        Metrics        `json:"metrics"`
	Results        *Results       `json:"results,omitempty"`
}

// Assignment is the per-(user key, experiment) record. At most one exists
// per pair, ever: once assigned, the variant never changes even if the
// experiment's weights change afterward.
type Assignment struct {
	VariantID       string    `json:"variantId"`
	AssignedAt      time.Time `json:"assignedAt"`
	Converted       bool      `json:"converted,omitempty"`
	ConversionValue float64   `json:"conversionValue,omitempty"`
}

// VariantResults are the derived per-variant aggregates.
type VariantResults struct {
	Participants      int     `json:"participants"`
	Conversions       int     `json:"conversions"`
	ConversionRate    float64 `json:"conversionRate"`
	Revenue           float64 `json:"revenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	Confidence        float64 `json:"confidence"`
}

// Results are recomputed on demand and are not authoritative until
// explicitly calculated, typically when the experiment is stopped.
type Results struct {
	Variants     map[string]*VariantResults `json:"variants"`
	Significant  bool                       `json:"significant"`
	Winner       string                     `json:"winner,omitempty"`
	CalculatedAt time.Time                  `json:"calculatedAt"`
}
