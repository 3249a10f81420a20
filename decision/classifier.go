// Package decision turns free-text model output into purchase decisions.
package decision

import (
	"regexp"
	"strings"
)

// Decision is the parsed outcome of a persona's reply to a scenario.
type Decision string

const (
	Accept  Decision = "accept"
	Reject  Decision = "reject"
	Unclear Decision = "unclear"
)

// Classifier extracts a Decision from raw model output. The simulator treats
// this as a pluggable strategy so stricter parsers (structured output, JSON
// schemas) can be swapped in without touching the batch loop.
type Classifier interface {
	Classify(response string) Decision
}

// decisionPattern matches explicit decision markers, tolerating markdown bold
// and brackets: "DECISION: Yes", "**DECISION:** No", "decision: [Maybe]".
var decisionPattern = regexp.MustCompile(`\*{0,2}decision[:\s]*\*{0,2}[:\s]+\[?(\w+)\]?`)

// rationalePattern captures the REASONING section up to the next section
// header or a blank line.
var rationalePattern = regexp.MustCompile(`(?is)\*{0,2}reasoning[:\s]*\*{0,2}[:\s]+(.+?)(?:\n\s*\n|\n\s*(?:\d[.)]\s*)?\*{0,2}key factors|$)`)

// KeywordClassifier is the default heuristic parser: best effort over
// unconstrained natural language, not a grammar. Unmatched replies land on
// Unclear rather than erroring.
type KeywordClassifier struct{}

// Classify maps a reply to accept, reject or unclear. Already-normalized
// labels pass through unchanged, so Classify(Classify(x)) == Classify(x).
func (KeywordClassifier) Classify(response string) Decision {
	lower := strings.ToLower(strings.TrimSpace(response))

	switch Decision(lower) {
	case Accept, Reject, Unclear:
		return Decision(lower)
	}

	if m := decisionPattern.FindStringSubmatch(lower); m != nil {
		switch m[1] {
		case "yes", "y", "accept":
			return Accept
		case "no", "n", "reject":
			return Reject
		case "maybe", "uncertain", "unsure":
			return Unclear
		}
	}

	// Fallback: scan the opening of the reply for decisive phrasing.
	first := lower
	if len(first) > 200 {
		first = first[:200]
	}
	switch {
	case strings.Contains(first, "i would buy"),
		strings.Contains(first, "i'll take"),
		strings.Contains(first, "yes,"):
		return Accept
	case strings.Contains(first, "i would not"),
		strings.Contains(first, "i wouldn't"),
		strings.Contains(first, "no,"):
		return Reject
	}

	return Unclear
}

// ExtractRationale pulls the REASONING sentence(s) out of a structured reply.
// Returns "" when the reply carries no reasoning section.
func ExtractRationale(response string) string {
	m := rationalePattern.FindStringSubmatch(response)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
