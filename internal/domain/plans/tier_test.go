package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelOrdering(t *testing.T) {
	assert.Less(t, Level(PlanStarter), Level(PlanPro))
	assert.Less(t, Level(PlanPro), Level(PlanBusiness))
	assert.Zero(t, Level("ENTERPRISE"))
}

func TestChangeType(t *testing.T) {
	cases := []struct {
		oldPlan, newPlan, want string
	}{
		{PlanStarter, PlanBusiness, "upgraded"},
		{PlanStarter, PlanPro, "upgraded"},
		{PlanBusiness, PlanStarter, "downgraded"},
		{PlanBusiness, PlanPro, "downgraded"},
		{PlanPro, PlanPro, ""},
		{PlanStarter, PlanStarter, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ChangeType(tc.oldPlan, tc.newPlan), "%s -> %s", tc.oldPlan, tc.newPlan)
	}
}

func TestCatalogLookups(t *testing.T) {
	c := NewCatalog(map[string]Pricing{
		PlanPro:      {MonthlyPriceID: "price_pm", AnnualPriceID: "price_py", MonthlyEUR: 19, AnnualEUR: 190},
		PlanBusiness: {MonthlyPriceID: "price_bm", AnnualPriceID: "price_by", MonthlyEUR: 49, AnnualEUR: 490},
	})

	plan, ok := c.PlanForPrice("price_pm")
	assert.True(t, ok)
	assert.Equal(t, PlanPro, plan)

	plan, ok = c.PlanForPrice("price_by")
	assert.True(t, ok)
	assert.Equal(t, PlanBusiness, plan)

	_, ok = c.PlanForPrice("price_from_another_product")
	assert.False(t, ok)

	assert.Equal(t, "annual", c.Interval("price_py"))
	assert.Equal(t, "monthly", c.Interval("price_pm"))
	assert.Equal(t, "monthly", c.Interval(""))

	assert.Equal(t, 190.0, c.AmountFor("price_py"))
	assert.Equal(t, 49.0, c.AmountFor("price_bm"))
	assert.Zero(t, c.AmountFor("price_unknown"))
}
