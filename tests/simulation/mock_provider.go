package simulation

import (
	"context"
	"strings"

	"github.com/emilyhoughkovacs/blok-persona-clustering/provider"
)

// scriptedProvider stands in for the live model. Replies are keyed on the
// scenario and on distinctive phrases in the persona prompt, and the format
// varies on purpose: explicit markers, markdown bold and loose first-person
// phrasing, the shapes real models actually produce.
func scriptedProvider() provider.Provider {
	return provider.Func(func(_ context.Context, req provider.Request) (string, error) {
		return scriptedReply(strings.ToLower(req.System), strings.ToLower(req.User)), nil
	})
}

func scriptedReply(personaPrompt, scenario string) string {
	switch {
	case strings.Contains(scenario, "bulk order"):
		if strings.Contains(personaPrompt, "several units") {
			return "DECISION: Yes\nREASONING: Three units with 10% off and free shipping is exactly how I like to order.\nKEY FACTORS: Quantity discount, free shipping threshold."
		}
		return "DECISION: No\nREASONING: I do not need three units of anything right now.\nKEY FACTORS: Quantity requirement."

	case strings.Contains(scenario, "installments"):
		if strings.Contains(personaPrompt, "boleto") {
			return "No, I don't buy on credit. I pay upfront or not at all."
		}
		if strings.Contains(personaPrompt, "spread the payments") {
			return "**DECISION:** Yes\n**REASONING:** R$90 a month fits my budget easily, and interest-free means no downside.\n**KEY FACTORS:** Monthly amount, zero interest."
		}
		return "DECISION: Maybe\nREASONING: I was not planning a R$900 purchase, so I would sleep on it.\nKEY FACTORS: Total price."

	case strings.Contains(scenario, "flash sale"):
		if strings.Contains(personaPrompt, "weekends") {
			return "DECISION: No\nREASONING: The sale ends before my weekend shopping session, so it does not work for me.\nKEY FACTORS: Timing."
		}
		return "I would buy the headphones at that price, a 30% cut is real value."

	case strings.Contains(scenario, "3.8 stars"):
		if strings.Contains(personaPrompt, "high standards") {
			return "DECISION: No\nREASONING: Mixed recent reviews on a premium price is exactly the trap I avoid.\nKEY FACTORS: Review trend, price premium."
		}
		return "DECISION: Maybe\nREASONING: The build quality sounds good but the recent complaints give me pause.\nKEY FACTORS: Reviews, price difference."

	case strings.Contains(scenario, "grocery"):
		if strings.Contains(personaPrompt, "discovering new categories") {
			return "DECISION: Yes\nREASONING: I like trying new categories here and 15% off makes the first order easy.\nKEY FACTORS: Platform trust, launch discount."
		}
		return "DECISION: No\nREASONING: I buy groceries locally and see no reason to change that.\nKEY FACTORS: Habit."

	case strings.Contains(scenario, "cashback"):
		return "DECISION: Yes\nREASONING: Signing up is free and 5% back on orders I would place anyway is a clear win.\nKEY FACTORS: No cost to join."
	}

	return "DECISION: Maybe\nREASONING: I do not have enough information to decide.\nKEY FACTORS: Unfamiliar offer."
}
