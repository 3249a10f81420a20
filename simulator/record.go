package simulator

import (
	"time"

	"github.com/emilyhoughkovacs/blok-persona-clustering/decision"
)

// NATS subjects for run lifecycle events.
const (
	SubjectRunStarted   = "blok.run.started"
	SubjectRunRecord    = "blok.run.record"
	SubjectRunCompleted = "blok.run.completed"
	SubjectRunFailed    = "blok.run.failed"
)

// Record is the outcome of one (persona, scenario) pair. Failed calls keep
// their row with Err set so the validation report's denominator stays
// accurate.
type Record struct {
	PersonaID    string            `json:"persona_id"`
	PersonaName  string            `json:"persona_name"`
	ScenarioID   string            `json:"scenario_id"`
	ScenarioName string            `json:"scenario_name"`
	Decision     decision.Decision `json:"decision"`
	Rationale    string            `json:"rationale,omitempty"`
	Response     string            `json:"response,omitempty"`
	Err          string            `json:"error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	Duration     time.Duration     `json:"duration"`
}

// Failed reports whether the record captures a provider failure instead of
// a parsed reply.
func (r Record) Failed() bool {
	return r.Err != ""
}

// Result is one completed (or interrupted) batch run.
type Result struct {
	RunID      string    `json:"run_id"`
	Model      string    `json:"model"`
	MockMode   bool      `json:"mock_mode"`
	Personas   int       `json:"personas"`
	Scenarios  int       `json:"scenarios"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Records    []Record  `json:"records"`
}

// RunEvent announces run lifecycle transitions on the event bus.
type RunEvent struct {
	RunID     string `json:"run_id"`
	Model     string `json:"model"`
	MockMode  bool   `json:"mock_mode"`
	Personas  int    `json:"personas"`
	Scenarios int    `json:"scenarios"`
	Records   int    `json:"records,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RecordEvent carries one finished record on the event bus.
type RecordEvent struct {
	RunID  string `json:"run_id"`
	Record Record `json:"record"`
}
