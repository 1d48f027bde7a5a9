package plans

// Pricing holds the Stripe price ids and amounts for one paid plan.
// STARTER is free and has no pricing entry.
type Pricing struct {
	MonthlyPriceID string
	AnnualPriceID  string
	MonthlyEUR     float64
	AnnualEUR      float64
}

// Catalog maps Stripe price ids to local plan tiers and back.
type Catalog struct {
	pricing       map[string]Pricing
	planByPriceID map[string]string
}

func NewCatalog(pricing map[string]Pricing) *Catalog {
	c := &Catalog{
		pricing:       pricing,
		planByPriceID: make(map[string]string, len(pricing)*2),
	}
	for plan, p := range pricing {
		if p.MonthlyPriceID != "" {
			c.planByPriceID[p.MonthlyPriceID] = plan
		}
		if p.AnnualPriceID != "" {
			c.planByPriceID[p.AnnualPriceID] = plan
		}
	}
	return c
}

// PlanForPrice resolves a Stripe price id to a plan tier.
func (c *Catalog) PlanForPrice(priceID string) (string, bool) {
	plan, ok := c.planByPriceID[priceID]
	return plan, ok
}

// Interval reports the billing interval for a price id: "annual" when the id
// matches a plan's annual price, "monthly" otherwise.
func (c *Catalog) Interval(priceID string) string {
	for _, p := range c.pricing {
		if priceID != "" && priceID == p.AnnualPriceID {
			return "annual"
		}
	}
	return "monthly"
}

// AmountFor returns the amount charged for a price id, zero when unknown.
func (c *Catalog) AmountFor(priceID string) float64 {
	for _, p := range c.pricing {
		switch priceID {
		case p.MonthlyPriceID:
			return p.MonthlyEUR
		case p.AnnualPriceID:
			return p.AnnualEUR
		}
	}
	return 0
}
