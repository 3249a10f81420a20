// Package handlers implements the REST and websocket endpoints of the
// results server.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emilyhoughkovacs/blok-persona-clustering/communication"
	"github.com/emilyhoughkovacs/blok-persona-clustering/persona"
	"github.com/emilyhoughkovacs/blok-persona-clustering/provider"
	"github.com/emilyhoughkovacs/blok-persona-clustering/report"
	"github.com/emilyhoughkovacs/blok-persona-clustering/scenario"
	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
	"github.com/emilyhoughkovacs/blok-persona-clustering/storage"
)

// RunDefaults fills launch request fields the caller leaves out.
type RunDefaults struct {
	Model    string
	MockMode bool
	Workers  int
	RPS      float64
}

// Options wires a Handler to the rest of the pipeline. Personas, Scenarios,
// Store and Manager are required; Provider and Events are optional and
// gate live runs and event streaming respectively.
type Options struct {
	Personas  *persona.Store
	Scenarios []scenario.Scenario
	Store     *storage.Store
	Manager   *communication.Manager
	Provider  provider.Provider
	Events    simulator.Publisher
	Defaults  RunDefaults
}

// Handler answers API requests. All state it mutates lives in its run
// tracker; everything else is shared read-only.
type Handler struct {
	opts    Options
	tracker *runTracker
}

// New builds a Handler over the given collaborators.
func New(opts Options) *Handler {
	return &Handler{opts: opts, tracker: newRunTracker()}
}

// Health reports whether the server is up and what it is serving.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"personas":  h.opts.Personas.Len(),
		"scenarios": len(h.opts.Scenarios),
		"clients":   h.opts.Manager.ClientCount(),
	})
}

// GetPersonas returns the loaded persona profiles in stable order.
func (h *Handler) GetPersonas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"personas": h.opts.Personas.Profiles()})
}

// GetScenarios returns the scenario list in presentation order.
func (h *Handler) GetScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scenarios": h.opts.Scenarios})
}

// ListRuns returns stored run summaries plus any runs still in flight.
func (h *Handler) ListRuns(c *gin.Context) {
	runs, err := h.opts.Store.ListRuns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runs":   runs,
		"active": h.tracker.active(),
	})
}

// GetRun returns a stored run with its records, or the live tracker state
// for a batch that is still running.
func (h *Handler) GetRun(c *gin.Context) {
	runID := c.Param("runID")

	res, err := h.opts.Store.GetRun(runID)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"run": res})
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if state, ok := h.tracker.get(runID); ok {
		c.JSON(http.StatusOK, gin.H{"run": state})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
}

// GetRunRecords returns a run's records: the canonical table for finished
// runs, the incrementally flushed records for live ones.
func (h *Handler) GetRunRecords(c *gin.Context) {
	runID := c.Param("runID")

	res, err := h.opts.Store.GetRun(runID)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"records": res.Records})
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	records, err := h.opts.Store.GetRecords(runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(records) == 0 {
		if _, ok := h.tracker.get(runID); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetRunSummary computes the validation summary over whatever records the
// run has produced so far.
func (h *Handler) GetRunSummary(c *gin.Context) {
	runID := c.Param("runID")

	res, err := h.loadResult(runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": report.Summarize(res)})
}

// loadResult fetches a finished run, or reconstructs a partial one for a
// batch still in flight.
func (h *Handler) loadResult(runID string) (*simulator.Result, error) {
	res, err := h.opts.Store.GetRun(runID)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	state, ok := h.tracker.get(runID)
	if !ok {
		return nil, err
	}
	records, err := h.opts.Store.GetRecords(runID)
	if err != nil {
		return nil, err
	}
	return &simulator.Result{
		RunID:     runID,
		Model:     state.Model,
		MockMode:  state.MockMode,
		Personas:  state.Personas,
		Scenarios: state.Scenarios,
		StartedAt: state.StartedAt,
		Records:   records,
	}, nil
}

// DeleteRun removes a stored run and its records. Runs still in flight
// cannot be deleted.
func (h *Handler) DeleteRun(c *gin.Context) {
	runID := c.Param("runID")

	if state, ok := h.tracker.get(runID); ok && state.Status == StatusRunning {
		c.JSON(http.StatusConflict, gin.H{"error": "Run is still in progress"})
		return
	}

	if _, err := h.opts.Store.GetRun(runID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if err := h.opts.Store.DeleteRun(runID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.tracker.drop(runID)
	c.JSON(http.StatusOK, gin.H{"message": "Run deleted", "run_id": runID})
}

// launchRequest is the POST /runs body. Every field is optional; absent
// ones fall back to the server defaults.
type launchRequest struct {
	Mock    *bool   `json:"mock"`
	Model   string  `json:"model"`
	Workers int     `json:"workers"`
	RPS     float64 `json:"rps"`
}

// LaunchRun starts a batch asynchronously and returns its run id. Progress
// is observable over /ws and through the run endpoints.
func (h *Handler) LaunchRun(c *gin.Context) {
	var req launchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run request"})
			return
		}
	}

	mock := h.opts.Defaults.MockMode
	if req.Mock != nil {
		mock = *req.Mock
	}
	model := req.Model
	if model == "" {
		model = h.opts.Defaults.Model
	}
	workers := req.Workers
	if workers == 0 {
		workers = h.opts.Defaults.Workers
	}
	rps := req.RPS
	if rps == 0 {
		rps = h.opts.Defaults.RPS
	}

	if !mock && h.opts.Provider == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No provider configured; launch with mock=true or set OPENAI_API_KEY"})
		return
	}

	sim, err := simulator.New(h.opts.Personas.Profiles(), h.opts.Scenarios, simulator.Options{
		Model:    model,
		MockMode: mock,
		Provider: h.opts.Provider,
		Workers:  workers,
		RPS:      rps,
		Sink:     h.opts.Store,
		Events:   h.opts.Events,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID := uuid.New().String()
	h.tracker.start(RunState{
		RunID:     runID,
		Model:     model,
		MockMode:  mock,
		Personas:  h.opts.Personas.Len(),
		Scenarios: len(h.opts.Scenarios),
	})

	go func() {
		res, err := sim.RunWithID(context.Background(), runID)
		if err != nil {
			log.Printf("api: run %s failed: %v", runID, err)
		}
		if saveErr := h.opts.Store.SaveRun(res); saveErr != nil {
			log.Printf("api: save run %s: %v", runID, saveErr)
		}
		h.tracker.finish(runID, err)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"run_id":    runID,
		"status":    StatusRunning,
		"mock_mode": mock,
		"model":     model,
		"personas":  h.opts.Personas.Len(),
		"scenarios": len(h.opts.Scenarios),
	})
}
