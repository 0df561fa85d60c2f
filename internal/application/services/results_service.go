package services

import (
	"github.com/merchstack/merchstack-go/internal/domain/entities/experiment"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
)

// ResultsService is the public analyzer surface over experiment outcomes.
// Results are derived on demand; they are not authoritative until
// calculated, typically when an experiment stops.
type ResultsService struct {
	experiments *ExperimentService
	logger      *logging.ChanneledLogger
}

// NewResultsService wires the analyzer over the experiment service.
func NewResultsService(experiments *ExperimentService, logger *logging.ChanneledLogger) *ResultsService {
	return &ResultsService{experiments: experiments, logger: logger}
}

// CalculateResults recomputes per-variant aggregates for an experiment.
// Returns nil for an unknown id.
func (s *ResultsService) CalculateResults(experimentID string) *experiment.Results {
	results := s.experiments.CalculateResults(experimentID)
	if results == nil {
		s.logger.Experiment().Debug("Results requested for unknown experiment", "experimentId", experimentID)
		return nil
	}
	s.logger.Experiment().Debug("Calculated results", "experimentId", experimentID, "variants", len(results.Variants), "significant", results.Significant)
	return results
}

// ExperimentReport pairs an experiment definition with freshly calculated
// results for reporting surfaces.
type ExperimentReport struct {
	Experiment *experiment.Experiment `json:"experiment"`
	Results    *experiment.Results    `json:"results"`
}

// Report returns the experiment with recalculated results, false when the
// id is unknown.
func (s *ResultsService) Report(experimentID string) (*ExperimentReport, bool) {
	exp, ok := s.experiments.Experiment(experimentID)
	if !ok {
		return nil, false
	}
	return &ExperimentReport{
		Experiment: exp,
		Results:    s.experiments.CalculateResults(experimentID),
	}, true
}
