package config

import (
	"fmt"

	"github.com/warwolfworks/wolfcore/internal/core/attack"
	"github.com/warwolfworks/wolfcore/internal/core/entity"
	"github.com/warwolfworks/wolfcore/internal/core/health"
	"github.com/warwolfworks/wolfcore/internal/core/observability/log"
	"github.com/warwolfworks/wolfcore/internal/core/spatial"
)

// Spawn is a template plus where to place its copies.
type Spawn struct {
	Template  *entity.Entity
	Positions []spatial.Vec3
	Rotation  spatial.Quat
}

func flag(v *bool) bool { return v == nil || *v }

// Spawns builds an entity template for every entry in Entities. finder
// serves range conditions; logger is handed to the attack components.
func (c *Config) Spawns(finder attack.TargetFinder, logger log.Log) ([]Spawn, error) {
	weapons := make(map[string]*attack.Attack, len(c.Weapons))
	for _, def := range c.Weapons {
		a, err := def.Build(finder)
		if err != nil {
			return nil, err
		}
		weapons[def.Name] = a
	}

	spawns := make([]Spawn, 0, len(c.Entities))
	for _, ec := range c.Entities {
		template, err := ec.template(weapons, finder, logger)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", ec.Name, err)
		}
		count := max(ec.Count, 1)
		positions := make([]spatial.Vec3, count)
		for i := range positions {
			positions[i] = ec.Position.Add(ec.Spacing.Scale(float64(i)))
		}
		spawns = append(spawns, Spawn{
			Template:  template,
			Positions: positions,
			Rotation:  spatial.FromEuler(ec.Euler),
		})
	}
	return spawns, nil
}

func (ec EntityConfig) template(weapons map[string]*attack.Attack, finder attack.TargetFinder, logger log.Log) (*entity.Entity, error) {
	e := entity.New(entity.WithName(ec.Name), entity.WithKind(ec.Kind))

	if h := ec.Health; h != nil {
		comp := health.New(h.Max,
			health.WithImmunityOnHit(h.ImmunityOnHit),
			health.WithRedirectToParent(h.RedirectToParent),
			health.WithDestroyOnDeath(h.DestroyOnDeath))
		if _, err := e.Attach(comp); err != nil {
			return nil, err
		}
	}

	if len(ec.Slots) == 0 {
		return e, nil
	}
	slots := make([]*attack.Slot, 0, len(ec.Slots))
	for _, sc := range ec.Slots {
		weapon, ok := weapons[sc.Weapon]
		if !ok {
			return nil, fmt.Errorf("unknown weapon %q", sc.Weapon)
		}
		cond, err := attack.ParseCondition(sc.Condition, finder)
		if err != nil {
			return nil, err
		}
		slots = append(slots, &attack.Slot{
			Attack:         weapon,
			Condition:      cond,
			Enabled:        flag(sc.Enabled),
			CloneAttack:    flag(sc.CloneAttack),
			CloneCondition: flag(sc.CloneCondition),
		})
	}
	if _, err := e.Attach(attack.NewEntityAttack(logger, slots...)); err != nil {
		return nil, err
	}
	return e, nil
}
