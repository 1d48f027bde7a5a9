package plans

// Plan tier constants (single source of truth)
const (
	PlanStarter  = "STARTER"
	PlanPro      = "PRO"
	PlanBusiness = "BUSINESS"
)

// Level returns the position of a plan in the upgrade hierarchy.
// Unknown plans sit below STARTER so they never classify as an upgrade.
func Level(plan string) int {
	switch plan {
	case PlanStarter:
		return 1
	case PlanPro:
		return 2
	case PlanBusiness:
		return 3
	}
	return 0
}

// ChangeType classifies a plan move by hierarchy level:
// "upgraded" when the new plan is strictly higher, "downgraded" when strictly
// lower, empty string when the level did not change.
func ChangeType(oldPlan, newPlan string) string {
	oldLevel := Level(oldPlan)
	newLevel := Level(newPlan)
	switch {
	case newLevel > oldLevel:
		return "upgraded"
	case newLevel < oldLevel:
		return "downgraded"
	}
	return ""
}
