package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emilyhoughkovacs/blok-persona-clustering/provider"
	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
)

// Analysis is a model-written narrative over a run's results.
type Analysis struct {
	RunID       string    `json:"run_id"`
	Narrative   string    `json:"narrative"`
	GeneratedAt time.Time `json:"generated_at"`
}

type narrativeJSON struct {
	Narrative string `json:"narrative"`
}

// Analyst asks the model to read a finished run and write up what the
// segments did and why.
type Analyst struct {
	provider provider.Provider
}

// NewAnalyst builds an analyst over the given provider.
func NewAnalyst(p provider.Provider) *Analyst {
	return &Analyst{provider: p}
}

// Analyze generates the narrative for a run.
func (a *Analyst) Analyze(ctx context.Context, res *simulator.Result) (*Analysis, error) {
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("run %s has no records to analyze", res.RunID)
	}

	var lines strings.Builder
	for _, rec := range res.Records {
		if rec.Failed() {
			fmt.Fprintf(&lines, "%s on %q: call failed (%s)\n", rec.PersonaName, rec.ScenarioName, rec.Err)
			continue
		}
		fmt.Fprintf(&lines, "%s on %q: %s", rec.PersonaName, rec.ScenarioName, rec.Decision)
		if rec.Rationale != "" {
			fmt.Fprintf(&lines, " (%s)", rec.Rationale)
		}
		lines.WriteString("\n")
	}

	prompt := fmt.Sprintf(`Analyze these customer persona purchase decisions and provide a JSON response with a markdown narrative:

%s

Your response must be a JSON object in this format:
{
  "narrative": "## Segment Patterns\n- (which personas accepted or rejected which kinds of offers)\n\n## Scenario Reception\n- (which scenarios landed well and which did not)\n\n## Behavioral Consistency\n- (whether each persona's decisions match its stated traits)\n\n## Recommendations\n- (which offers to target at which segments)"
}

The markdown content should be properly escaped as a string in the JSON.`, lines.String())

	raw, err := a.provider.Complete(ctx, provider.Request{User: prompt})
	if err != nil {
		return nil, fmt.Errorf("analysis generation failed: %w", err)
	}

	// Prefer the structured narrative; fall back to the raw reply when the
	// model ignored the JSON envelope.
	narrative := raw
	var parsed narrativeJSON
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil && parsed.Narrative != "" {
		narrative = parsed.Narrative
	}

	return &Analysis{
		RunID:       res.RunID,
		Narrative:   narrative,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
