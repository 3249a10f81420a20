package scenario

// Defaults returns the six built-in simulation scenarios, in presentation
// order. Each one probes a different behavioral lever surfaced by the
// clustering: quantity, financing, urgency, quality signals, category
// exploration and loyalty.
func Defaults() []Scenario {
	return []Scenario{
		{
			ID:   "bulk_discount",
			Name: "Bulk order discount",
			Text: "The marketplace offers you a 10% discount on a bulk order: buy 3 or more units " +
				"of a home goods product you were already considering, and the discount applies to the " +
				"whole order. Shipping is free above R$150. Would you make this purchase?",
		},
		{
			ID:   "installment_plan",
			Name: "Interest-free installments",
			Text: "A R$900 smartphone you have been eyeing can now be paid in 10 interest-free monthly " +
				"installments of R$90 on your credit card. The total price is unchanged; paying upfront " +
				"earns no extra discount. Would you make this purchase?",
		},
		{
			ID:   "flash_sale",
			Name: "24-hour flash sale",
			Text: "A 24-hour flash sale knocks 30% off a mid-range pair of wireless headphones, bringing " +
				"them from R$250 to R$175. The deal expires tomorrow morning and stock is limited. " +
				"Would you make this purchase?",
		},
		{
			ID:   "premium_reviews",
			Name: "Premium product, mixed reviews",
			Text: "A premium kitchen appliance costs 40% more than the ordinary model. Its rating is 3.8 " +
				"stars: most reviews praise the build quality, but several recent ones complain about slow " +
				"delivery and a confusing manual. Would you make this purchase?",
		},
		{
			ID:   "new_category",
			Name: "New category launch",
			Text: "The marketplace just launched a grocery essentials category and offers existing " +
				"customers 15% off their first grocery order. You have never bought food items online " +
				"before. Would you try it with your next routine purchase?",
		},
		{
			ID:   "loyalty_program",
			Name: "Loyalty cashback program",
			Text: "A new loyalty program gives 5% cashback credit on every order, redeemable after 60 " +
				"days, in exchange for creating an account profile and receiving a weekly offers email. " +
				"Signing up is free. Would you join and factor it into your next purchase?",
		},
	}
}
