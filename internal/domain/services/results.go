package services

import (
	"math"
	"time"

	"github.com/merchstack/merchstack-go/internal/domain/entities/experiment"
)

// Minimum participants before the confidence heuristic reports anything but
// zero, and the gates used for significance.
const (
	minParticipants         = 30
	significantConfidence   = 95
	significantParticipants = 100
)

// Confidence is a simplified certainty heuristic for a variant's conversion
// rate: max(0, min(100, (1 - 1.96*sqrt(p(1-p)/n)) * 100)). It is not a real
// hypothesis test; variants with fewer than 30 participants always report 0.
func Confidence(conversions, participants int) float64 {
	if participants < minParticipants {
		return 0
	}
	p := float64(conversions) / float64(participants)
	n := float64(participants)
	se := math.Sqrt(p * (1 - p) / n)
	return math.Max(0, math.Min(100, (1-1.96*se)*100))
}

// ComputeResults aggregates assignment records into per-variant results.
// assignmentsByUser maps user key to that user's assignment for the
// experiment; users without an assignment for this experiment must already
// be filtered out by the caller.
//
// The winner is chosen among variants with confidence above the significance
// gate by strictly highest conversion rate; ties resolve to the variant
// encountered first in the experiment's variant order. That tie-break is an
// artifact of iteration order, not a business rule.
func ComputeResults(exp *experiment.Experiment, assignmentsByUser map[string]*experiment.Assignment) *experiment.Results {
	results := &experiment.Results{
		Variants:     make(map[string]*experiment.VariantResults, len(exp.Variants)),
		CalculatedAt: time.Now().UTC(),
	}

	var winner string
	var winnerRate float64

	for _, variant := range exp.Variants {
		vr := &experiment.VariantResults{}
		for _, assignment := range assignmentsByUser {
			if assignment.VariantID != variant.ID {
				continue
			}
			vr.Participants++
			if assignment.Converted {
				vr.Conversions++
				vr.Revenue += assignment.ConversionValue
			}
		}

		if vr.Participants > 0 {
			vr.ConversionRate = float64(vr.Conversions) / float64(vr.Participants)
		}
		if vr.Conversions > 0 {
			vr.AverageOrderValue = vr.Revenue / float64(vr.Conversions)
		}
		vr.Confidence = Confidence(vr.Conversions, vr.Participants)

		if vr.Confidence > significantConfidence && vr.Participants > significantParticipants {
			results.Significant = true
		}
		if vr.Confidence > significantConfidence && vr.ConversionRate > winnerRate {
			winner = variant.ID
			winnerRate = vr.ConversionRate
		}

		results.Variants[variant.ID] = vr
	}

	results.Winner = winner
	return results
}
