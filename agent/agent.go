// Package agent binds a persona profile to a text-generation provider and
// answers purchase scenarios in character.
package agent

import (
	"context"
	"fmt"

	"github.com/emilyhoughkovacs/blok-persona-clustering/decision"
	"github.com/emilyhoughkovacs/blok-persona-clustering/persona"
	"github.com/emilyhoughkovacs/blok-persona-clustering/provider"
)

// decisionInstructions is appended to every scenario so replies carry an
// explicit decision marker the classifier can find.
const decisionInstructions = `

Please respond with:
1. DECISION: [Yes/No/Maybe] - Would you make this purchase?
2. REASONING: Brief explanation of your decision (2-3 sentences)
3. KEY FACTORS: What were the most important factors in your decision?`

// Agent answers scenarios as one persona. Stateless across calls: every
// scenario is an independent single-turn role-play with no conversation
// memory carried between them.
type Agent struct {
	profile    *persona.Profile
	model      string
	mockMode   bool
	provider   provider.Provider
	classifier decision.Classifier
	researcher *Researcher
}

// Options configures an Agent.
type Options struct {
	Model    string
	MockMode bool
	// Provider answers live calls. May be nil in mock mode.
	Provider provider.Provider
	// Classifier parses replies. Defaults to decision.KeywordClassifier.
	Classifier decision.Classifier
	// Researcher, when set, enriches scenarios with web findings before
	// the persona answers.
	Researcher *Researcher
}

// Reply is one structured scenario response.
type Reply struct {
	PersonaID   string
	PersonaName string
	Decision    decision.Decision
	Rationale   string
	Raw         string
}

// New builds an agent for the given profile.
func New(profile *persona.Profile, opts Options) *Agent {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = decision.KeywordClassifier{}
	}
	return &Agent{
		profile:    profile,
		model:      opts.Model,
		mockMode:   opts.MockMode,
		provider:   opts.Provider,
		classifier: classifier,
		researcher: opts.Researcher,
	}
}

// Profile returns the persona this agent speaks for.
func (a *Agent) Profile() *persona.Profile {
	return a.profile
}

// MockMode reports whether the agent answers from scripted templates.
func (a *Agent) MockMode() bool {
	return a.mockMode
}

// Respond generates a free-text reply to the scenario in this persona's
// voice. Mock mode answers from the scripted template without any network
// access.
func (a *Agent) Respond(ctx context.Context, scenario string) (string, error) {
	if scenario == "" {
		return "", fmt.Errorf("agent %s: scenario text is empty", a.profile.Name)
	}
	if a.mockMode {
		return a.mockReply(scenario), nil
	}
	if a.provider == nil {
		return "", fmt.Errorf("agent %s: no provider configured, pass one or enable mock mode", a.profile.Name)
	}

	user := scenario
	if a.researcher != nil {
		user = a.researcher.Enrich(ctx, scenario)
	}

	return a.provider.Complete(ctx, provider.Request{
		System: a.profile.SystemPrompt,
		User:   user,
		Model:  a.model,
	})
}

// RespondWithDecision asks for a structured reply and parses the decision
// and rationale out of it. Provider failures pass through untouched so the
// caller can record them without losing the classification.
func (a *Agent) RespondWithDecision(ctx context.Context, scenario string) (Reply, error) {
	raw, err := a.Respond(ctx, scenario+decisionInstructions)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		PersonaID:   a.profile.ID,
		PersonaName: a.profile.Name,
		Decision:    a.classifier.Classify(raw),
		Rationale:   decision.ExtractRationale(raw),
		Raw:         raw,
	}, nil
}
