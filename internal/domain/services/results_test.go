package services_test

import (
	"fmt"
	"testing"

	"github.com/merchstack/merchstack-go/internal/domain/entities/experiment"
	"github.com/merchstack/merchstack-go/internal/domain/services"
)

func TestConfidenceFloor(t *testing.T) {
	// Under 30 participants the heuristic reports zero regardless of the
	// conversion rate.
	for participants := 0; participants < 30; participants++ {
		if got := services.Confidence(participants, participants); got != 0 {
			t.Errorf("Confidence(%d, %d) = %v, want 0", participants, participants, got)
		}
	}
}

func TestConfidencePerfectConversion(t *testing.T) {
	// p = 1 makes the standard error zero, so confidence saturates at 100.
	if got := services.Confidence(100, 100); got != 100 {
		t.Errorf("Confidence(100, 100) = %v, want 100", got)
	}
}

func TestConfidenceMidRange(t *testing.T) {
	got := services.Confidence(50, 100)
	if got <= 0 || got >= 100 {
		t.Errorf("Confidence(50, 100) = %v, want value strictly between 0 and 100", got)
	}
}

func assignmentsForVariant(variantID string, participants, conversions int, value float64) map[string]*experiment.Assignment {
	out := make(map[string]*experiment.Assignment)
	for i := 0; i < participants; i++ {
		a := &experiment.Assignment{VariantID: variantID}
		if i < conversions {
			a.Converted = true
			a.ConversionValue = value
		}
		out[fmt.Sprintf("%s-user-%d", variantID, i)] = a
	}
	return out
}

func merge(maps ...map[string]*experiment.Assignment) map[string]*experiment.Assignment {
	out := make(map[string]*experiment.Assignment)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func TestComputeResultsAggregates(t *testing.T) {
	exp := &experiment.Experiment{
		ID: "e1",
		Variants: []experiment.Variant{
			{ID: "control", Weight: 50},
			{ID: "variant_a", Weight: 50},
		},
	}
	assignments := merge(
		assignmentsForVariant("control", 10, 4, 25),
		assignmentsForVariant("variant_a", 5, 0, 0),
	)

	results := services.ComputeResults(exp, assignments)

	control := results.Variants["control"]
	if control.Participants != 10 || control.Conversions != 4 {
		t.Fatalf("control = %d participants / %d conversions, want 10 / 4", control.Participants, control.Conversions)
	}
	if control.ConversionRate != 0.4 {
		t.Errorf("control conversion rate = %v, want 0.4", control.ConversionRate)
	}
	if control.Revenue != 100 {
		t.Errorf("control revenue = %v, want 100", control.Revenue)
	}
	if control.AverageOrderValue != 25 {
		t.Errorf("control AOV = %v, want 25", control.AverageOrderValue)
	}
	if control.Confidence != 0 {
		t.Errorf("control confidence = %v, want 0 with only 10 participants", control.Confidence)
	}

	variantA := results.Variants["variant_a"]
	if variantA.ConversionRate != 0 || variantA.AverageOrderValue != 0 {
		t.Errorf("variant_a rate/AOV = %v/%v, want 0/0", variantA.ConversionRate, variantA.AverageOrderValue)
	}
	if results.Significant {
		t.Error("results marked significant without any qualifying variant")
	}
	if results.Winner != "" {
		t.Errorf("winner = %q, want none", results.Winner)
	}
}

func TestComputeResultsSignificanceGate(t *testing.T) {
	exp := &experiment.Experiment{
		ID:       "e1",
		Variants: []experiment.Variant{{ID: "control", Weight: 100}},
	}

	// 101 participants all converting: confidence 100, participants > 100.
	results := services.ComputeResults(exp, assignmentsForVariant("control", 101, 101, 1))
	if !results.Significant {
		t.Error("expected significance with confidence 100 and 101 participants")
	}
	if results.Winner != "control" {
		t.Errorf("winner = %q, want control", results.Winner)
	}

	// Exactly 100 participants misses the participant gate.
	results = services.ComputeResults(exp, assignmentsForVariant("control", 100, 100, 1))
	if results.Significant {
		t.Error("expected no significance at exactly 100 participants")
	}
}

func TestComputeResultsWinnerTieBreak(t *testing.T) {
	// Equal conversion rates resolve to the variant listed first.
	exp := &experiment.Experiment{
		ID: "e1",
		Variants: []experiment.Variant{
			{ID: "variant_b", Weight: 50},
			{ID: "variant_a", Weight: 50},
		},
	}
	assignments := merge(
		assignmentsForVariant("variant_b", 150, 150, 10),
		assignmentsForVariant("variant_a", 150, 150, 10),
	)

	results := services.ComputeResults(exp, assignments)
	if results.Winner != "variant_b" {
		t.Errorf("winner = %q, want first-listed variant_b on a tie", results.Winner)
	}
}
