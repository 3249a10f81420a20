// Package persona loads and serves the behavioral persona profiles derived
// from customer clustering.
package persona

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Profile is one behavioral archetype: identity, summary statistics and the
// precomputed system prompt that primes its agent. Immutable after load;
// agents share it read-only.
type Profile struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	SystemPrompt string               `json:"prompt"`
	Stats        map[string]StatValue `json:"stats,omitempty"`
	Size         int                  `json:"size,omitempty"`
	Share        float64              `json:"share,omitempty"`
	// MockResponse, when set, replaces the built-in mock template for this
	// persona. Lets a test or a demo pin a persona to a fixed scripted reply.
	MockResponse string `json:"mock_response,omitempty"`
}

// StatValue is one behavioral statistic. Cluster summaries mix numeric values
// (z-scores, averages) with categorical ones (dominant payment type), so the
// JSON value may be either a number or a string.
type StatValue struct {
	Number  float64
	Text    string
	Numeric bool
}

func (v *StatValue) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		v.Number = n
		v.Numeric = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("stat value must be a number or a string: %s", data)
	}
	v.Text = s
	return nil
}

func (v StatValue) MarshalJSON() ([]byte, error) {
	if v.Numeric {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.Text)
}

func (v StatValue) String() string {
	if v.Numeric {
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	}
	return v.Text
}

// Num builds a numeric StatValue.
func Num(n float64) StatValue { return StatValue{Number: n, Numeric: true} }

// Cat builds a categorical StatValue.
func Cat(s string) StatValue { return StatValue{Text: s} }
