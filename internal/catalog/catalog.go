// Package catalog loads the wellbeing content library from its JSON
// inventory format and exposes a read-only view for plan composition.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"balans/wellbeing-app/internal/domain"
)

// inventoryItem mirrors one entry of the content library JSON. Composition
// only reads logic_tags and balancing; content_payload is the user-facing
// material and is carried through untouched.
type inventoryItem struct {
	ID             string          `json:"id"`
	ContentVersion int             `json:"content_version"`
	InternalName   string          `json:"internal_name"`
	LogicTags      logicTags       `json:"logic_tags"`
	Balancing      balancing       `json:"balancing"`
	ContentPayload json.RawMessage `json:"content_payload"`
}

type logicTags struct {
	Category     string   `json:"category"`
	ImpactAreas  []string `json:"impact_areas"`
	PriorityTier string   `json:"priority_tier"`
	Difficulty   int      `json:"difficulty"`
	EnergyCost   string   `json:"energy_cost"`
}

type balancing struct {
	CooldownDays int     `json:"cooldown_days"`
	IsActive     bool    `json:"is_active"`
	BaseWeight   float64 `json:"base_weight"`
}

type inventoryFile struct {
	Inventory []inventoryItem `json:"inventory"`
}

// Library is an immutable, indexed snapshot of the content catalog. It
// satisfies the planner's catalog interface.
type Library struct {
	exercises []domain.Exercise
	payloads  map[string]json.RawMessage
	byID      map[string]int
}

// Parse decodes a content library JSON document into a Library. Entries with
// a missing id or internal name are rejected outright; a broken catalog is a
// deployment error, not something to compose around.
func Parse(data []byte) (*Library, error) {
	var file inventoryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse content library: %w", err)
	}

	lib := &Library{
		exercises: make([]domain.Exercise, 0, len(file.Inventory)),
		payloads:  make(map[string]json.RawMessage, len(file.Inventory)),
		byID:      make(map[string]int, len(file.Inventory)),
	}
	for _, item := range file.Inventory {
		if item.ID == "" || item.InternalName == "" {
			return nil, fmt.Errorf("content library entry missing id or internal_name (id=%q)", item.ID)
		}
		if _, dup := lib.byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate content library id %q", item.ID)
		}
		e := domain.Exercise{
			ID:           item.ID,
			InternalName: item.InternalName,
			Category:     item.LogicTags.Category,
			ImpactAreas:  item.LogicTags.ImpactAreas,
			PriorityTier: domain.SlotType(item.LogicTags.PriorityTier),
			Difficulty:   item.LogicTags.Difficulty,
			EnergyCost:   item.LogicTags.EnergyCost,
			CooldownDays: item.Balancing.CooldownDays,
			IsActive:     item.Balancing.IsActive,
			BaseWeight:   item.Balancing.BaseWeight,
		}
		if e.Difficulty == 0 {
			e.Difficulty = 1
		}
		lib.byID[e.ID] = len(lib.exercises)
		lib.exercises = append(lib.exercises, e)
		lib.payloads[e.ID] = item.ContentPayload
	}

	// Stable id order so every consumer sees the same sequence regardless of
	// JSON map iteration quirks upstream.
	sort.Slice(lib.exercises, func(i, j int) bool {
		return lib.exercises[i].ID < lib.exercises[j].ID
	})
	for i, e := range lib.exercises {
		lib.byID[e.ID] = i
	}

	return lib, nil
}

// LoadFile reads and parses a content library JSON file from disk.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content library %s: %w", path, err)
	}
	return Parse(data)
}

// ActiveExercises returns the exercises eligible for composition.
func (l *Library) ActiveExercises() []domain.Exercise {
	out := make([]domain.Exercise, 0, len(l.exercises))
	for _, e := range l.exercises {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out
}

// All returns every exercise, active or not.
func (l *Library) All() []domain.Exercise {
	out := make([]domain.Exercise, len(l.exercises))
	copy(out, l.exercises)
	return out
}

// ByID looks up one exercise.
func (l *Library) ByID(id string) (domain.Exercise, bool) {
	i, ok := l.byID[id]
	if !ok {
		return domain.Exercise{}, false
	}
	return l.exercises[i], true
}

// Payload returns the raw content payload of an exercise, for delivery.
func (l *Library) Payload(id string) (json.RawMessage, bool) {
	p, ok := l.payloads[id]
	return p, ok
}

// Len returns the total number of catalog entries.
func (l *Library) Len() int {
	return len(l.exercises)
}
