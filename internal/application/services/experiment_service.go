package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/merchstack/merchstack-go/internal/domain/entities/experiment"
	"github.com/merchstack/merchstack-go/internal/domain/services"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/performance"
	"github.com/merchstack/merchstack-go/internal/infrastructure/persistence/kv"
)

// ExperimentService owns the experiment registry and the sticky per-user
// variant assignments. Assignment is deterministic: the same user key always
// hashes to the same bucket, and once an assignment is persisted it is
// returned unconditionally regardless of later weight or targeting changes.
type ExperimentService struct {
	mu          sync.RWMutex
	experiments map[string]*experiment.Experiment
	assignments map[string]map[string]*experiment.Assignment

	analytics   *AnalyticsService
	store       kv.Store
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	now         func() time.Time
}

// NewExperimentService creates the experiment service and restores the
// persisted registry and assignment map.
func NewExperimentService(store kv.Store, analyticsSvc *AnalyticsService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ExperimentService {
	s := &ExperimentService{
		experiments: make(map[string]*experiment.Experiment),
		assignments: make(map[string]map[string]*experiment.Assignment),
		analytics:   analyticsSvc,
		store:       store,
		logger:      logger,
		perfTracker: perfTracker,
		now:         time.Now,
	}
	s.restore()
	return s
}

func (s *ExperimentService) restore() {
	if raw, ok, err := s.store.Get(kv.KeyExperiments); err != nil {
		s.logger.Experiment().Warn("Failed to read persisted experiments, starting empty", "error", err)
	} else if ok {
		experiments := make(map[string]*experiment.Experiment)
		if err := json.Unmarshal([]byte(raw), &experiments); err != nil {
			s.logger.Experiment().Warn("Persisted experiments are corrupt, starting empty", "error", err)
		} else {
			s.experiments = experiments
		}
	}

	if raw, ok, err := s.store.Get(kv.KeyAssignments); err != nil {
		s.logger.Experiment().Warn("Failed to read persisted assignments, starting empty", "error", err)
	} else if ok {
		assignments := make(map[string]map[string]*experiment.Assignment)
		if err := json.Unmarshal([]byte(raw), &assignments); err != nil {
			s.logger.Experiment().Warn("Persisted assignments are corrupt, starting empty", "error", err)
		} else {
			s.assignments = assignments
		}
	}

	s.logger.Experiment().Info("Restored experiment state", "experiments", len(s.experiments), "assignedUsers", len(s.assignments))
}

func (s *ExperimentService) persistExperimentsLocked() {
	payload, err := json.Marshal(s.experiments)
	if err != nil {
		s.logger.Experiment().Error("Failed to marshal experiments", "error", err)
		return
	}
	if err := s.store.Set(kv.KeyExperiments, string(payload)); err != nil {
		s.logger.Experiment().Warn("Failed to persist experiments", "error", err)
	}
}

func (s *ExperimentService) persistAssignmentsLocked() {
	payload, err := json.Marshal(s.assignments)
	if err != nil {
		s.logger.Experiment().Error("Failed to marshal assignments", "error", err)
		return
	}
	if err := s.store.Set(kv.KeyAssignments, string(payload)); err != nil {
		s.logger.Experiment().Warn("Failed to persist assignments", "error", err)
	}
}

// CreateExperiment stores an experiment definition. An existing id is fully
// overwritten, last write wins. Status defaults to draft.
func (s *ExperimentService) CreateExperiment(exp *experiment.Experiment) error {
	if exp.ID == "" {
		return fmt.Errorf("experiment id is required")
	}
	if exp.Status == "" {
		exp.Status = experiment.StatusDraft
	}

	s.mu.Lock()
	s.experiments[exp.ID] = exp
	s.persistExperimentsLocked()
	s.mu.Unlock()

	s.logger.Experiment().Info("Stored experiment", "experimentId", exp.ID, "status", exp.Status, "variants", len(exp.Variants))
	return nil
}

// Experiment returns a stored experiment by id.
func (s *ExperimentService) Experiment(id string) (*experiment.Experiment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.experiments[id]
	return exp, ok
}

// Experiments returns all stored experiments ordered by id.
func (s *ExperimentService) Experiments() []*experiment.Experiment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*experiment.Experiment, 0, len(s.experiments))
	for _, exp := range s.experiments {
		out = append(out, exp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StartExperiment transitions an experiment to running and stamps its start
// date.
func (s *ExperimentService) StartExperiment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.experiments[id]
	if !ok {
		return fmt.Errorf("experiment %s not found", id)
	}
	exp.Status = experiment.StatusRunning
	exp.StartDate = s.now().UTC()
	s.persistExperimentsLocked()

	s.logger.Experiment().Info("Started experiment", "experimentId", id)
	return nil
}

// StopExperiment transitions an experiment to completed, stamps its end
// date, and calculates and persists final results.
func (s *ExperimentService) StopExperiment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.experiments[id]
	if !ok {
		return fmt.Errorf("experiment %s not found", id)
	}
	endDate := s.now().UTC()
	exp.Status = experiment.StatusCompleted
	exp.EndDate = &endDate
	exp.Results = services.ComputeResults(exp, s.assignmentsForLocked(id))
	s.persistExperimentsLocked()

	s.logger.Experiment().Info("Stopped experiment", "experimentId", id, "winner", exp.Results.Winner, "significant", exp.Results.Significant)
	return nil
}

// userKey resolves the current assignment key. All anonymous traffic shares
// one key, so unidentified visitors land in a single bucket.
func (s *ExperimentService) userKey() string {
	if userID := s.analytics.CurrentUserID(); userID != "" {
		return userID
	}
	return experiment.AnonymousKey
}

// GetVariant resolves the current user's variant for an experiment. It
// returns empty when the experiment is missing or not running, or when the
// user falls outside the targeting percentage. Qualification failures are
// not recorded, so a user can re-qualify later, for example after
// identifying. A new qualifying assignment is persisted and an exposure
// event is emitted exactly once per (user key, experiment) pair.
func (s *ExperimentService) GetVariant(experimentID string) string {
	marker := s.perfTracker.StartOperation("experiment_get_variant")
	defer marker.Complete()
	marker.AddMetadata("experimentId", experimentID)

	userKey := s.userKey()

	s.mu.Lock()
	exp, ok := s.experiments[experimentID]
	if !ok || exp.Status != experiment.StatusRunning {
		s.mu.Unlock()
		marker.SetSuccess(true)
		return ""
	}

	if existing, ok := s.assignments[userKey][experimentID]; ok {
		s.mu.Unlock()
		marker.SetSuccess(true)
		return existing.VariantID
	}

	// One hash drives both qualification and the weight walk; it is not
	// re-rolled between the two.
	bucket := services.Bucket(userKey)
	if bucket >= exp.TargetAudience.Percentage {
		s.mu.Unlock()
		s.logger.Experiment().Debug("User outside target audience", "experimentId", experimentID, "bucket", bucket, "percentage", exp.TargetAudience.Percentage)
		marker.SetSuccess(true)
		return ""
	}
	if len(exp.Variants) == 0 {
		s.mu.Unlock()
		marker.SetSuccess(true)
		return ""
	}

	weights := make([]int, len(exp.Variants))
	for i, v := range exp.Variants {
		weights[i] = v.Weight
	}
	variant := exp.Variants[services.PickVariantIndex(bucket, weights)]

	if s.assignments[userKey] == nil {
		s.assignments[userKey] = make(map[string]*experiment.Assignment)
	}
	s.assignments[userKey][experimentID] = &experiment.Assignment{
		VariantID:  variant.ID,
		AssignedAt: s.now().UTC(),
	}
	s.persistAssignmentsLocked()
	s.mu.Unlock()

	s.analytics.TrackExperiment(experimentID, variant.ID)
	s.logger.Experiment().Info("Assigned variant", "experimentId", experimentID, "variantId", variant.ID, "bucket", bucket)
	marker.SetSuccess(true)
	return variant.ID
}

// GetVariantConfig resolves the current user's variant and returns its
// config map, nil when no variant applies.
func (s *ExperimentService) GetVariantConfig(experimentID string) map[string]any {
	variantID := s.GetVariant(experimentID)
	if variantID == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.experiments[experimentID]
	if !ok {
		return nil
	}
	for _, v := range exp.Variants {
		if v.ID == variantID {
			return v.Config
		}
	}
	return nil
}

// TrackConversion marks the current user's assignment converted with the
// given value. The first conversion wins; repeat calls are no-ops.
func (s *ExperimentService) TrackConversion(experimentID string, value float64) {
	userKey := s.userKey()

	s.mu.Lock()
	assignment, ok := s.assignments[userKey][experimentID]
	if !ok || assignment.Converted {
		s.mu.Unlock()
		return
	}
	assignment.Converted = true
	assignment.ConversionValue = value
	variantID := assignment.VariantID
	s.persistAssignmentsLocked()
	s.mu.Unlock()

	s.analytics.TrackExperimentConversion(experimentID, variantID, value)
	s.logger.Experiment().Info("Tracked conversion", "experimentId", experimentID, "variantId", variantID, "value", value)
}

// assignmentsForLocked collects each user's assignment for one experiment.
// Callers must hold s.mu.
func (s *ExperimentService) assignmentsForLocked(experimentID string) map[string]*experiment.Assignment {
	out := make(map[string]*experiment.Assignment)
	for userKey, byExperiment := range s.assignments {
		if assignment, ok := byExperiment[experimentID]; ok {
			out[userKey] = assignment
		}
	}
	return out
}

// CalculateResults recomputes, stores, and returns results for an
// experiment. Returns nil for an unknown id.
func (s *ExperimentService) CalculateResults(experimentID string) *experiment.Results {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.experiments[experimentID]
	if !ok {
		return nil
	}
	exp.Results = services.ComputeResults(exp, s.assignmentsForLocked(experimentID))
	s.persistExperimentsLocked()
	return exp.Results
}
