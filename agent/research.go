package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ericgreene/go-serp"

	"github.com/emilyhoughkovacs/blok-persona-clustering/provider"
)

// SearchResult is one organic web result.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// ResearchDecision is the model's judgment on whether outside context would
// sharpen a persona's answer.
type ResearchDecision struct {
	NeedsResearch bool     `json:"needs_research"`
	SearchQueries []string `json:"search_queries"`
	Reasoning     string   `json:"reasoning"`
}

// SearchConfig bounds a web search.
type SearchConfig struct {
	MaxResults int
	SafeSearch bool
}

// DefaultSearchConfig returns the standard search bounds.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxResults: 5,
		SafeSearch: true,
	}
}

// Researcher enriches a scenario with live market context before a persona
// answers: it asks the model whether research would help, runs the suggested
// queries through a web search API and folds the findings into the prompt.
// Every failure falls back to the bare scenario, so research never blocks a
// run.
type Researcher struct {
	provider provider.Provider
	apiKey   string
	cfg      SearchConfig
	search   func(query string, cfg SearchConfig, apiKey string) ([]SearchResult, error)
}

// NewResearcher builds a researcher over the given provider and SERP API key.
func NewResearcher(p provider.Provider, apiKey string) *Researcher {
	return &Researcher{
		provider: p,
		apiKey:   apiKey,
		cfg:      DefaultSearchConfig(),
		search:   webSearch,
	}
}

// Enrich returns the scenario with research findings appended, or the
// scenario unchanged when research is unavailable, unneeded or failing.
func (r *Researcher) Enrich(ctx context.Context, scenario string) string {
	if r == nil || r.apiKey == "" {
		return scenario
	}

	dec, err := r.decide(ctx, scenario)
	if err != nil || !dec.NeedsResearch {
		return scenario
	}

	var findings strings.Builder
	for _, query := range dec.SearchQueries {
		results, err := r.search(query, r.cfg, r.apiKey)
		if err != nil {
			continue
		}
		for _, result := range results {
			fmt.Fprintf(&findings, "- %s\n  %s\n", result.Title, result.Snippet)
		}
	}
	if findings.Len() == 0 {
		return scenario
	}

	return scenario + "\n\nRelevant market context:\n" + findings.String()
}

// decide asks the model whether the scenario needs a web search and which
// queries to run.
func (r *Researcher) decide(ctx context.Context, scenario string) (*ResearchDecision, error) {
	prompt := fmt.Sprintf(`You are deciding whether a shopping scenario needs outside context.

Scenario: %q

Decide if a quick web search would materially improve a customer's answer.
Consider:
1. Does the scenario reference products, prices or market conditions worth verifying?
2. Would recent information change the answer?

Return a JSON object with:
{
	"needs_research": boolean,
	"search_queries": ["query1", "query2"],
	"reasoning": "why research is or is not needed"
}`, scenario)

	raw, err := r.provider.Complete(ctx, provider.Request{User: prompt})
	if err != nil {
		return nil, err
	}

	var dec ResearchDecision
	if err := json.Unmarshal([]byte(raw), &dec); err != nil {
		return nil, fmt.Errorf("research decision was not valid JSON: %w", err)
	}
	return &dec, nil
}

func webSearch(query string, cfg SearchConfig, apiKey string) ([]SearchResult, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("SERP_API_KEY not set")
	}

	parameter := map[string]string{
		"q":   query,
		"key": apiKey,
		"num": strconv.Itoa(cfg.MaxResults),
	}
	if cfg.SafeSearch {
		parameter["safe"] = "active"
	}

	search := serp.NewGoogleSearch(parameter)
	results, err := search.GetJSON()
	if err != nil {
		return nil, err
	}

	var out []SearchResult
	for _, result := range results.OrganicResults {
		out = append(out, SearchResult{
			Title:   result.Title,
			Snippet: result.Snippet,
			Link:    result.Link,
		})
	}
	return out, nil
}
