// Package scenario defines the product and pricing situations presented to
// every persona agent.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scenario is one fixed product/pricing situation. The list is static input
// data: ordered at load time, never mutated during a run.
type Scenario struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// Load reads a scenario override file: a JSON array of scenarios, kept in
// file order. Every entry needs an id, a name and a non-empty text.
func Load(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios file: %w", err)
	}

	var scenarios []Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("parse scenarios file %s: %w", path, err)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("scenarios file %s defines no scenarios", path)
	}

	seen := make(map[string]bool, len(scenarios))
	for i, sc := range scenarios {
		if sc.ID == "" || sc.Name == "" || sc.Text == "" {
			return nil, fmt.Errorf("scenario %d: id, name and text are all required", i)
		}
		if seen[sc.ID] {
			return nil, fmt.Errorf("scenario id %q appears twice", sc.ID)
		}
		seen[sc.ID] = true
	}
	return scenarios, nil
}

// ByID returns the scenario with the given id, or false when absent.
func ByID(scenarios []Scenario, id string) (Scenario, bool) {
	for _, sc := range scenarios {
		if sc.ID == id {
			return sc, true
		}
	}
	return Scenario{}, false
}
