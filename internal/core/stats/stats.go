// Package stats is the numeric stat system entities carry. Values are never
// cached: CalculatedValue folds the current modifiers on every read so
// callers always see live buffs and debuffs.
package stats

import (
	"errors"
	"fmt"
	"sync"
)

var ErrNotInitialized = errors.New("stats: container not initialized")

// Type identifies what a stat or modifier affects, e.g. "damage".
type Type string

const (
	Damage      Type = "damage"
	AttackSpeed Type = "attack_speed"
	Magazine    Type = "magazine"
	ReloadSpeed Type = "reload_speed"
	MaxHealth   Type = "max_health"
)

// Stat is a base value tagged with the type modifiers match against.
type Stat struct {
	Type Type    `yaml:"type"`
	Base float64 `yaml:"base"`
}

func New(t Type, base float64) Stat { return Stat{Type: t, Base: base} }

type Stacking uint8

const (
	// Additive values are summed onto the base.
	Additive Stacking = iota
	// Percent values are summed and applied as (1 + sum).
	Percent
	// Multiplier values are multiplied together.
	Multiplier
)

type Modifier struct {
	Type     Type
	Stacking Stacking
	Value    float64
	// Source groups modifiers so they can be removed together.
	Source string
}

// Stats holds the modifiers applied to one entity.
type Stats struct {
	mu          sync.RWMutex
	initialized bool
	modifiers   []Modifier
}

func NewStats() *Stats {
	return &Stats{}
}

// Init marks the container ready. Repeat calls are no-ops.
func (s *Stats) Init() {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
}

func (s *Stats) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Stats) AddModifier(m Modifier) {
	s.mu.Lock()
	s.modifiers = append(s.modifiers, m)
	s.mu.Unlock()
}

// RemoveModifier removes the first modifier equal to m.
func (s *Stats) RemoveModifier(m Modifier) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.modifiers {
		if existing == m {
			s.modifiers = append(s.modifiers[:i], s.modifiers[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveModifiersFrom drops every modifier with the given source and
// returns how many were removed.
func (s *Stats) RemoveModifiersFrom(source string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.modifiers[:0]
	for _, m := range s.modifiers {
		if m.Source != source {
			kept = append(kept, m)
		}
	}
	removed := len(s.modifiers) - len(kept)
	s.modifiers = kept
	return removed
}

func (s *Stats) Modifiers() []Modifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Modifier, len(s.modifiers))
	copy(out, s.modifiers)
	return out
}

// CalculatedValue resolves stat against the current modifiers:
// (base + Σadditive) × (1 + Σpercent) × Πmultiplier.
// It panics when the container has not been initialized.
func (s *Stats) CalculatedValue(stat Stat) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		panic(fmt.Errorf("calculate %s: %w", stat.Type, ErrNotInitialized))
	}

	add, pct, mul := 0.0, 0.0, 1.0
	for _, m := range s.modifiers {
		if m.Type != stat.Type {
			continue
		}
		switch m.Stacking {
		case Additive:
			add += m.Value
		case Percent:
			pct += m.Value
		case Multiplier:
			mul *= m.Value
		}
	}
	return (stat.Base + add) * (1 + pct) * mul
}

// Clone copies the modifiers into a fresh, uninitialized container.
func (s *Stats) Clone() *Stats {
	return &Stats{modifiers: s.Modifiers()}
}
