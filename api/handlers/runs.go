package handlers

import (
	"sort"
	"sync"
	"time"
)

// Run lifecycle statuses reported by the tracker.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunState is the tracker's view of one launched batch. It covers the gap
// between accepting a launch and the finished run landing in storage.
type RunState struct {
	RunID     string    `json:"run_id"`
	Status    string    `json:"status"`
	Model     string    `json:"model"`
	MockMode  bool      `json:"mock_mode"`
	Personas  int       `json:"personas"`
	Scenarios int       `json:"scenarios"`
	StartedAt time.Time `json:"started_at"`
	Error     string    `json:"error,omitempty"`
}

// runTracker remembers every batch this server process launched. Storage is
// the system of record; the tracker only answers "what is in flight".
type runTracker struct {
	mu   sync.RWMutex
	runs map[string]RunState
}

func newRunTracker() *runTracker {
	return &runTracker{runs: make(map[string]RunState)}
}

func (t *runTracker) start(state RunState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state.Status = StatusRunning
	state.StartedAt = time.Now().UTC()
	t.runs[state.RunID] = state
}

func (t *runTracker) finish(runID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, exists := t.runs[runID]
	if !exists {
		return
	}
	if err != nil {
		state.Status = StatusFailed
		state.Error = err.Error()
	} else {
		state.Status = StatusCompleted
	}
	t.runs[runID] = state
}

func (t *runTracker) get(runID string) (RunState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	state, exists := t.runs[runID]
	return state, exists
}

func (t *runTracker) drop(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.runs, runID)
}

// active returns the in-flight runs, newest first.
func (t *runTracker) active() []RunState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var states []RunState
	for _, state := range t.runs {
		if state.Status == StatusRunning {
			states = append(states, state)
		}
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].StartedAt.After(states[j].StartedAt)
	})
	return states
}
