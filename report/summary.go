// Package report turns finished runs into artifacts: a CSV table, a decision
// heatmap, a validation summary and an optional model-written narrative.
package report

import (
	"fmt"
	"strings"

	"github.com/emilyhoughkovacs/blok-persona-clustering/decision"
	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
)

// Summary aggregates one run's decisions.
type Summary struct {
	RunID     string         `json:"run_id"`
	Model     string         `json:"model"`
	MockMode  bool           `json:"mock_mode"`
	Total     int            `json:"total"`
	Accepted  int            `json:"accepted"`
	Rejected  int            `json:"rejected"`
	Unclear   int            `json:"unclear"`
	Failed    int            `json:"failed"`
	Personas  []GroupSummary `json:"personas"`
	Scenarios []GroupSummary `json:"scenarios"`
}

// GroupSummary is the decision tally for one persona or one scenario.
type GroupSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Total    int    `json:"total"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
	Unclear  int    `json:"unclear"`
	Failed   int    `json:"failed"`
	// AcceptRate is accepted over total, in [0, 1].
	AcceptRate float64 `json:"accept_rate"`
}

func (g *GroupSummary) add(rec simulator.Record) {
	g.Total++
	switch rec.Decision {
	case decision.Accept:
		g.Accepted++
	case decision.Reject:
		g.Rejected++
	default:
		g.Unclear++
	}
	if rec.Failed() {
		g.Failed++
	}
	g.AcceptRate = float64(g.Accepted) / float64(g.Total)
}

// Summarize computes the validation summary for a run. Personas and
// scenarios keep their first-appearance order, which for a complete run is
// the deterministic traversal order.
func Summarize(res *simulator.Result) *Summary {
	s := &Summary{
		RunID:    res.RunID,
		Model:    res.Model,
		MockMode: res.MockMode,
	}

	personaIdx := make(map[string]int)
	scenarioIdx := make(map[string]int)

	for _, rec := range res.Records {
		s.Total++
		switch rec.Decision {
		case decision.Accept:
			s.Accepted++
		case decision.Reject:
			s.Rejected++
		default:
			s.Unclear++
		}
		if rec.Failed() {
			s.Failed++
		}

		pi, ok := personaIdx[rec.PersonaID]
		if !ok {
			pi = len(s.Personas)
			personaIdx[rec.PersonaID] = pi
			s.Personas = append(s.Personas, GroupSummary{ID: rec.PersonaID, Name: rec.PersonaName})
		}
		s.Personas[pi].add(rec)

		si, ok := scenarioIdx[rec.ScenarioID]
		if !ok {
			si = len(s.Scenarios)
			scenarioIdx[rec.ScenarioID] = si
			s.Scenarios = append(s.Scenarios, GroupSummary{ID: rec.ScenarioID, Name: rec.ScenarioName})
		}
		s.Scenarios[si].add(rec)
	}

	return s
}

// Text renders the summary as the printable validation report.
func (s *Summary) Text() string {
	var b strings.Builder

	mode := "live"
	if s.MockMode {
		mode = "mock"
	}
	fmt.Fprintf(&b, "Simulation run %s (model %s, %s mode)\n", s.RunID, s.Model, mode)
	fmt.Fprintf(&b, "%d records: %d accept / %d reject / %d unclear", s.Total, s.Accepted, s.Rejected, s.Unclear)
	if s.Failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", s.Failed)
	}
	b.WriteString("\n")

	writeGroup := func(title string, groups []GroupSummary) {
		fmt.Fprintf(&b, "\n%s:\n", title)
		width := 0
		for _, g := range groups {
			if len(g.Name) > width {
				width = len(g.Name)
			}
		}
		for _, g := range groups {
			fmt.Fprintf(&b, "  %-*s  accept %5.1f%%  (%d/%d/%d of %d",
				width, g.Name, g.AcceptRate*100, g.Accepted, g.Rejected, g.Unclear, g.Total)
			if g.Failed > 0 {
				fmt.Fprintf(&b, ", %d failed", g.Failed)
			}
			b.WriteString(")\n")
		}
	}

	writeGroup("Per persona", s.Personas)
	writeGroup("Per scenario", s.Scenarios)

	return b.String()
}
