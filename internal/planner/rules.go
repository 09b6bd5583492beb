// Package planner implements the deterministic plan composition engine:
// category/slot/difficulty allocation, cooldown-based exercise rotation and
// post-hoc draft validation. Everything here is a pure function over its
// inputs.
package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"balans/wellbeing-app/internal/domain"
)

// CategoryDistribution computes how many of the plan's total slots each
// category receives, applying the focus's 80/20-style split. Integer
// truncation remainders go to the dominant category; when rounding starves
// every complement on a multi-slot plan, one slot is moved from the dominant
// category to the first complement so the plan never degenerates to a single
// category.
func CategoryDistribution(focus domain.Focus, totalSlots int) map[string]int {
	dist := focus.Distribution()
	result := map[string]int{}

	dominant := int(float64(totalSlots) * dist.Dominant)
	result[string(focus)] = dominant

	remaining := totalSlots - dominant
	for _, share := range dist.Complementary {
		count := int(float64(remaining) * share.Ratio)
		result[string(share.Category)] += count
	}

	assigned := 0
	for _, count := range result {
		assigned += count
	}
	if assigned < totalSlots {
		result[string(focus)] += totalSlots - assigned
	}

	if totalSlots > 1 && result[string(focus)] == totalSlots {
		for _, share := range dist.Complementary {
			if result[string(share.Category)] == 0 {
				result[string(share.Category)] = 1
				result[string(focus)]--
				break
			}
		}
	}

	return result
}

// PickCategory selects the category for the next slot from the remaining
// distribution. The dominant focus category wins whenever it has quota left;
// otherwise the category with the highest remaining quota (name as
// tie-break). With no quota anywhere the dominant category is the fallback.
func PickCategory(distribution map[string]int, focus domain.Focus) string {
	if distribution[string(focus)] > 0 {
		return string(focus)
	}

	keys := make([]string, 0, len(distribution))
	for category := range distribution {
		keys = append(keys, category)
	}
	sort.Strings(keys)

	best := ""
	bestCount := 0
	for _, category := range keys {
		if count := distribution[category]; count > bestCount {
			best = category
			bestCount = count
		}
	}
	if best == "" {
		return string(focus)
	}
	return best
}

// DifficultyForWeek maps a 1-based week number to the difficulty ceiling of
// the duration's intensity curve.
func DifficultyForWeek(week int, duration domain.Duration) int {
	switch duration.Curve() {
	case domain.CurveFlat:
		if week == 1 {
			return 1
		}
		return 2
	case domain.CurveProgressive:
		switch week {
		case 1:
			return 1
		case 2:
			return 2
		default:
			return 3
		}
	case domain.CurveWave:
		// 5-week cycle: build up for four weeks, recover on the fifth.
		switch ((week - 1) % 5) + 1 {
		case 1:
			return 1
		case 2:
			return 2
		case 3:
			return 2
		case 4:
			return 3
		default:
			return 1
		}
	}
	return 2
}

// TimeSlotFor assigns the concrete time-of-day slot for a slot type,
// honouring the user's preferred slots and never reusing a time slot already
// taken that day. Resolution order: user preference intersected with the
// slot type's own preference table, then the slot type's table, then any
// unused user preference, then any unused slot at all.
func TimeSlotFor(slotType domain.SlotType, preferred []domain.TimeSlot, used []domain.TimeSlot) domain.TimeSlot {
	inUse := func(t domain.TimeSlot) bool {
		for _, u := range used {
			if u == t {
				return true
			}
		}
		return false
	}
	contains := func(slots []domain.TimeSlot, t domain.TimeSlot) bool {
		for _, s := range slots {
			if s == t {
				return true
			}
		}
		return false
	}

	prefs := slotType.TimePreferences()
	for _, p := range preferred {
		if p.Valid() && contains(prefs, p) && !inUse(p) {
			return p
		}
	}
	for _, t := range prefs {
		if !inUse(t) {
			return t
		}
	}
	for _, p := range preferred {
		if p.Valid() && !inUse(p) {
			return p
		}
	}
	for _, t := range domain.AllTimeSlots() {
		if !inUse(t) {
			return t
		}
	}
	return prefs[0]
}

// ShouldUse reports whether an exercise may appear in a plan at all: it must
// be active and allowed by the user policy.
func ShouldUse(exercise domain.Exercise, params domain.PlanParameters) bool {
	if !exercise.IsActive {
		return false
	}
	if !params.Policy.AllowsCategory(exercise.Category) {
		return false
	}
	if !params.Policy.AllowsImpactAreas(exercise.ImpactAreas) {
		return false
	}
	return true
}

// Criteria narrows a candidate list. Zero values mean "no constraint".
type Criteria struct {
	Category      string
	PriorityTier  domain.SlotType
	MaxDifficulty int
	ImpactAreas   map[string]struct{}
}

// Filter returns the exercises matching every set criterion.
func Filter(exercises []domain.Exercise, c Criteria) []domain.Exercise {
	var out []domain.Exercise
	for _, e := range exercises {
		if c.Category != "" && e.Category != c.Category {
			continue
		}
		if c.PriorityTier != "" && e.PriorityTier != c.PriorityTier {
			continue
		}
		if c.MaxDifficulty != 0 && e.Difficulty > c.MaxDifficulty {
			continue
		}
		if c.ImpactAreas != nil && !e.HasAnyImpactArea(c.ImpactAreas) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SelectWithFallback picks an exercise for a slot using the smart fallback
// chain: preferred category + tier + difficulty; then any category sharing
// an impact area with up to five exercises of the preferred category; then
// tier + difficulty alone. Returns nil when every stage is empty.
//
// candidates must already be cooldown-filtered; allExercises is the full
// catalog view used only to derive the preferred category's impact areas.
func SelectWithFallback(
	candidates []domain.Exercise,
	allExercises []domain.Exercise,
	preferredCategory string,
	slotType domain.SlotType,
	maxDifficulty int,
	params domain.PlanParameters,
	seed string,
) *domain.Exercise {
	available := make([]domain.Exercise, 0, len(candidates))
	for _, e := range candidates {
		if ShouldUse(e, params) {
			available = append(available, e)
		}
	}
	if len(available) == 0 {
		return nil
	}

	preferred := Filter(available, Criteria{
		Category:      preferredCategory,
		PriorityTier:  slotType,
		MaxDifficulty: maxDifficulty,
	})
	if len(preferred) > 0 {
		return DeterministicChoice(preferred, seed)
	}

	categoryExercises := Filter(allExercises, Criteria{Category: preferredCategory})
	if len(categoryExercises) > 0 {
		commonImpacts := map[string]struct{}{}
		for i, e := range categoryExercises {
			if i >= 5 {
				break
			}
			for _, area := range e.ImpactAreas {
				commonImpacts[area] = struct{}{}
			}
		}
		fallback := Filter(available, Criteria{
			PriorityTier:  slotType,
			MaxDifficulty: maxDifficulty,
			ImpactAreas:   commonImpacts,
		})
		if len(fallback) > 0 {
			return DeterministicChoice(fallback, seed)
		}
	}

	lastResort := Filter(available, Criteria{
		PriorityTier:  slotType,
		MaxDifficulty: maxDifficulty,
	})
	if len(lastResort) > 0 {
		return DeterministicChoice(lastResort, seed)
	}
	return nil
}

// seededHash gives each (seed, exercise) pair a stable pseudo-random rank so
// different users rotate through equally-weighted exercises differently
// while staying fully reproducible.
func seededHash(seed, exerciseID string) string {
	sum := sha256.Sum256([]byte(seed + ":" + exerciseID))
	return hex.EncodeToString(sum[:])
}

// Less is the single comparator defining candidate order. Tie-break order:
// base weight descending, seeded hash (only when a seed is supplied),
// internal name, id. Never random: identical inputs always produce the same
// winner.
func Less(a, b domain.Exercise, seed string) bool {
	if a.BaseWeight != b.BaseWeight {
		return a.BaseWeight > b.BaseWeight
	}
	if seed != "" {
		ha, hb := seededHash(seed, a.ID), seededHash(seed, b.ID)
		if ha != hb {
			return ha < hb
		}
	}
	if a.InternalName != b.InternalName {
		return a.InternalName < b.InternalName
	}
	return a.ID < b.ID
}

// DeterministicChoice returns the first candidate under the Less order.
func DeterministicChoice(exercises []domain.Exercise, seed string) *domain.Exercise {
	if len(exercises) == 0 {
		return nil
	}
	best := exercises[0]
	for _, e := range exercises[1:] {
		if Less(e, best, seed) {
			best = e
		}
	}
	return &best
}
