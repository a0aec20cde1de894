package attack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/warwolfworks/wolfcore/internal/core/entity"
	"github.com/warwolfworks/wolfcore/internal/core/spatial"
)

// Condition decides each tick whether a slot should try to fire.
// Conditions may carry state; Clone returns an independent copy.
type Condition interface {
	Met(a *Attack) (bool, error)
	Clone() Condition
}

// FireObserver is implemented by conditions that need to know when a shot
// they allowed was actually fired.
type FireObserver interface {
	Fired(a *Attack)
}

type Always struct{}

func (Always) Met(*Attack) (bool, error) { return true, nil }
func (Always) Clone() Condition          { return Always{} }

type Never struct{}

func (Never) Met(*Attack) (bool, error) { return false, nil }
func (Never) Clone() Condition          { return Never{} }

// Ready is met whenever the attack itself could fire.
type Ready struct{}

func (Ready) Met(a *Attack) (bool, error) { return a.CanTrigger(), nil }
func (Ready) Clone() Condition            { return Ready{} }

// Func adapts a plain function. Clones share the function.
type Func func(a *Attack) (bool, error)

func (f Func) Met(a *Attack) (bool, error) { return f(a) }
func (f Func) Clone() Condition            { return f }

// Limited passes through Inner until Max shots have been fired through it.
// Only shots reported to Fired count, so ticks spent on cooldown or
// reloading do not use up the quota.
type Limited struct {
	Inner Condition
	Max   int
	used  int
}

func (l *Limited) Met(a *Attack) (bool, error) {
	if l.used >= l.Max {
		return false, nil
	}
	return l.Inner.Met(a)
}

func (l *Limited) Fired(a *Attack) {
	l.used++
	if fo, ok := l.Inner.(FireObserver); ok {
		fo.Fired(a)
	}
}

func (l *Limited) Used() int { return l.used }

func (l *Limited) Clone() Condition {
	return &Limited{Inner: l.Inner.Clone(), Max: l.Max}
}

// TargetFinder is satisfied by *manager.Manager.
type TargetFinder interface {
	ClosestMatching(position spatial.Vec3, radius float64, filter func(*entity.Entity) bool) (*entity.Entity, bool)
}

// TargetInRange is met when an entity outside the owner's hierarchy is
// within Radius of the owner. The last match is kept in Target.
type TargetInRange struct {
	Finder TargetFinder
	Radius float64
	Kinds  []entity.Kind
	target *entity.Entity
}

func (t *TargetInRange) Met(a *Attack) (bool, error) {
	owner := a.Owner()
	if owner == nil {
		return false, ErrNotInitiated
	}
	if t.Finder == nil {
		return false, ErrNoTargetFinder
	}
	root := owner.Root()
	found, ok := t.Finder.ClosestMatching(owner.Position(), t.Radius, func(e *entity.Entity) bool {
		return e.Root() != root && e.IsKind(t.Kinds...)
	})
	if !ok {
		t.target = nil
		return false, nil
	}
	t.target = found
	return true, nil
}

func (t *TargetInRange) Target() *entity.Entity { return t.target }

func (t *TargetInRange) Clone() Condition {
	return &TargetInRange{Finder: t.Finder, Radius: t.Radius, Kinds: append([]entity.Kind(nil), t.Kinds...)}
}

// ParseCondition builds a condition from its config form:
//
//	always | never | ready | in_range:<radius>[:<kind>...] | limit:<n>:<inner>
//
// An empty string yields nil, meaning the attack's default condition.
func ParseCondition(spec string, finder TargetFinder) (Condition, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	name, rest, _ := strings.Cut(spec, ":")
	switch strings.ToLower(name) {
	case "always":
		return Always{}, nil
	case "never":
		return Never{}, nil
	case "ready":
		return Ready{}, nil
	case "in_range":
		parts := strings.Split(rest, ":")
		radius, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q radius: %w", spec, err)
		}
		c := &TargetInRange{Finder: finder, Radius: radius}
		for _, k := range parts[1:] {
			if k != "" {
				c.Kinds = append(c.Kinds, entity.KindOf(k))
			}
		}
		return c, nil
	case "limit":
		countText, innerSpec, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("parse %q: missing inner condition: %w", spec, ErrUnknownCondition)
		}
		n, err := strconv.Atoi(countText)
		if err != nil {
			return nil, fmt.Errorf("parse %q count: %w", spec, err)
		}
		inner, err := ParseCondition(innerSpec, finder)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			inner = Always{}
		}
		return &Limited{Inner: inner, Max: n}, nil
	default:
		return nil, fmt.Errorf("parse %q: %w", spec, ErrUnknownCondition)
	}
}
