package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/merchstack/merchstack-go/internal/application/services"
	"github.com/merchstack/merchstack-go/internal/domain/entities/experiment"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/performance"
)

// ConversionRequest represents the body for conversion tracking
type ConversionRequest struct {
	Value float64 `json:"value"`
}

// ExperimentHandlers contains the experiment HTTP handlers
type ExperimentHandlers struct {
	experimentService *services.ExperimentService
	resultsService    *services.ResultsService
	logger            *logging.ChanneledLogger
	perfTracker       *performance.Tracker
}

// NewExperimentHandlers creates experiment handlers with injected dependencies
func NewExperimentHandlers(experimentService *services.ExperimentService, resultsService *services.ResultsService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ExperimentHandlers {
	return &ExperimentHandlers{
		experimentService: experimentService,
		resultsService:    resultsService,
		logger:            logger,
		perfTracker:       perfTracker,
	}
}

// GetVariant resolves the current user's variant for an experiment. A user
// with no applicable variant gets variantId null, which is a normal outcome
// rather than an error.
func (h *ExperimentHandlers) GetVariant(c *gin.Context) {
	experimentID := c.Param("id")
	variantID := h.experimentService.GetVariant(experimentID)
	if variantID == "" {
		c.JSON(http.StatusOK, gin.H{"experimentId": experimentID, "variantId": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"experimentId": experimentID, "variantId": variantID})
}

// GetVariantConfig resolves the current user's variant config
func (h *ExperimentHandlers) GetVariantConfig(c *gin.Context) {
	experimentID := c.Param("id")
	config := h.experimentService.GetVariantConfig(experimentID)
	c.JSON(http.StatusOK, gin.H{"experimentId": experimentID, "config": config})
}

// PostConversion marks the current user's assignment converted
func (h *ExperimentHandlers) PostConversion(c *gin.Context) {
	var req ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.experimentService.TrackConversion(c.Param("id"), req.Value)
	c.JSON(http.StatusAccepted, gin.H{"tracked": true})
}

// PostExperiment stores an experiment definition
func (h *ExperimentHandlers) PostExperiment(c *gin.Context) {
	start := time.Now()

	var exp experiment.Experiment
	if err := c.ShouldBindJSON(&exp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.experimentService.CreateExperiment(&exp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Experiment().Info("Create experiment request completed", "experimentId", exp.ID, "duration", time.Since(start))
	c.JSON(http.StatusCreated, &exp)
}

// GetExperiments returns all stored experiments
func (h *ExperimentHandlers) GetExperiments(c *gin.Context) {
	experiments := h.experimentService.Experiments()
	c.JSON(http.StatusOK, gin.H{"experiments": experiments, "count": len(experiments)})
}

// GetExperiment returns one experiment by id
func (h *ExperimentHandlers) GetExperiment(c *gin.Context) {
	exp, ok := h.experimentService.Experiment(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "experiment not found"})
		return
	}
	c.JSON(http.StatusOK, exp)
}

// PostStart transitions an experiment to running
func (h *ExperimentHandlers) PostStart(c *gin.Context) {
	if err := h.experimentService.StartExperiment(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"started": true})
}

// PostStop transitions an experiment to completed and finalizes results
func (h *ExperimentHandlers) PostStop(c *gin.Context) {
	if err := h.experimentService.StopExperiment(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stopped": true})
}

// GetResults recalculates and returns an experiment's results
func (h *ExperimentHandlers) GetResults(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("experiment_results_request")
	defer marker.Complete()

	report, ok := h.resultsService.Report(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "experiment not found"})
		return
	}

	marker.SetSuccess(true)
	h.logger.Experiment().Info("Results request completed", "experimentId", c.Param("id"), "duration", time.Since(start))
	c.JSON(http.StatusOK, report)
}
