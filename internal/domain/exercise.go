package domain

// Exercise is a single content catalog entry as seen by the composition
// engine. Immutable within a composition run.
type Exercise struct {
	ID           string   `json:"id"`
	InternalName string   `json:"internalName"`
	Category     string   `json:"category"`
	ImpactAreas  []string `json:"impactAreas"`
	PriorityTier SlotType `json:"priorityTier"`
	Difficulty   int      `json:"difficulty"` // 1..3
	EnergyCost   string   `json:"energyCost"`
	CooldownDays int      `json:"cooldownDays"`
	IsActive     bool     `json:"isActive"`
	BaseWeight   float64  `json:"baseWeight"`
}

// HasAnyImpactArea reports whether the exercise shares at least one impact
// area tag with the given set.
func (e Exercise) HasAnyImpactArea(areas map[string]struct{}) bool {
	for _, area := range e.ImpactAreas {
		if _, ok := areas[area]; ok {
			return true
		}
	}
	return false
}
