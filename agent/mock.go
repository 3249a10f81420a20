package agent

import "fmt"

// mockTemplates keys scripted replies by persona name. Each template carries
// an explicit decision marker so mock runs exercise the same parsing path as
// live ones, with the decision itself reflecting the persona's dominant
// trait.
var mockTemplates = map[string]string{
	"Mainstream Shopper": "DECISION: Yes\n" +
		"REASONING: As a typical weekday shopper, I'd consider this purchase carefully. " +
		"I usually buy what I need and move on, so I'd proceed if it meets my specific need and the price is reasonable.\n" +
		"KEY FACTORS: Clear need, reasonable price, quick checkout.",
	"Weekend Buyer": "DECISION: Maybe\n" +
		"REASONING: I typically browse on weekends when I have time. This seems interesting, " +
		"but I'd want to think it over during my weekend shopping time.\n" +
		"KEY FACTORS: Timing, room to browse, no pressure to decide now.",
	"Cash Customer": "DECISION: No\n" +
		"REASONING: I prefer to pay upfront with boleto. If this requires installments or credit I'd hesitate; " +
		"I don't like carrying debt for purchases.\n" +
		"KEY FACTORS: Upfront payment, no debt, boleto support.",
	"High-Value Financing Shopper": "DECISION: Yes\n" +
		"REASONING: I'm comfortable with larger purchases when I can spread payments. " +
		"If 10x installments are available, the monthly cost matters more than the total price.\n" +
		"KEY FACTORS: Installment availability, monthly cost, purchase size.",
	"Bulk Buyer": "DECISION: Yes\n" +
		"REASONING: I prefer to bundle purchases together. If there's a deal for buying multiple I'm interested; " +
		"single items feel less efficient to me.\n" +
		"KEY FACTORS: Bundle deals, per-unit savings, shipping efficiency.",
	"Loyal Explorer Customer": "DECISION: Yes\n" +
		"REASONING: I'm always open to trying new categories. As a repeat customer I trust this marketplace " +
		"and would consider exploring this option.\n" +
		"KEY FACTORS: Marketplace trust, novelty, past experience.",
	"Critical Shopper": "DECISION: No\n" +
		"REASONING: I have high standards. Before deciding I'd want to read the reviews carefully, " +
		"and if there are quality concerns I'd pass regardless of the price.\n" +
		"KEY FACTORS: Review scores, quality signals, return policy.",
}

// mockReply builds the deterministic scripted reply for a scenario. A
// profile-level MockResponse overrides the built-in template, which lets a
// test pin a persona to a fixed decision.
func (a *Agent) mockReply(scenario string) string {
	base := a.profile.MockResponse
	if base == "" {
		base = mockTemplates[a.profile.Name]
	}
	if base == "" {
		base = fmt.Sprintf("[Mock response for %s] Considering the scenario...", a.profile.Name)
	}

	echo := scenario
	if len(echo) > 100 {
		echo = echo[:100]
	}
	return fmt.Sprintf("[MOCK MODE] %s\n\nScenario received: %s...", base, echo)
}
