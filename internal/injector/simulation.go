package injector

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/warwolfworks/wolfcore/internal/config"
	"github.com/warwolfworks/wolfcore/internal/core/attack"
	"github.com/warwolfworks/wolfcore/internal/core/entity"
	"github.com/warwolfworks/wolfcore/internal/core/events/bus"
	"github.com/warwolfworks/wolfcore/internal/core/health"
	"github.com/warwolfworks/wolfcore/internal/core/manager"
	"github.com/warwolfworks/wolfcore/internal/core/observability/log"
	"github.com/warwolfworks/wolfcore/internal/core/scheduler"
	"github.com/warwolfworks/wolfcore/internal/server"
)

// Simulation is the assembled process: entities, their loop and the
// optional event feed.
type Simulation struct {
	Config  *config.Config
	Logger  log.Log
	Events  bus.EventBus
	Manager *manager.Manager
	Loop    *scheduler.Loop
	// Feed is nil when disabled in config.
	Feed *server.FeedServer

	combat bus.Subscription `wire:"-"`
}

// Spawn instantiates every configured entity and starts resolving hits.
func (s *Simulation) Spawn() ([]*entity.Entity, error) {
	if err := s.EnableCombat(); err != nil {
		return nil, err
	}
	spawns, err := s.Config.Spawns(s.Manager, s.Logger.Named("attack"))
	if err != nil {
		return nil, err
	}
	var out []*entity.Entity
	for _, sp := range spawns {
		for _, pos := range sp.Positions {
			e, err := s.Manager.Instantiate(sp.Template, pos, sp.Rotation)
			if err != nil {
				return out, fmt.Errorf("spawn %s: %w", sp.Template.Name(), err)
			}
			out = append(out, e)
		}
	}
	s.Logger.Info("Entities spawned", log.Int("count", len(out)))
	return out, nil
}

// EnableCombat applies the damage of every triggered attack to its target,
// or to the closest living entity outside the shooter's hierarchy.
func (s *Simulation) EnableCombat() error {
	if s.combat != nil {
		return nil
	}
	sub, err := s.Events.Subscribe(bus.AttackTriggered, s.resolveHit)
	if err != nil {
		return err
	}
	s.combat = sub
	return nil
}

func (s *Simulation) resolveHit(ev bus.Event) error {
	hit, ok := ev.Data().(attack.SlotEvent)
	if !ok || hit.Entity == nil || hit.Attack == nil {
		return nil
	}
	root := hit.Entity.Root()

	target := hit.Target
	if target == nil || !s.Manager.Contains(target) {
		target, ok = s.Manager.ClosestMatching(hit.Origin, 0, func(e *entity.Entity) bool {
			if e.Root() == root {
				return false
			}
			h, has := entity.TryGetComponent[*health.Health](e)
			return has && !h.IsDead()
		})
		if !ok {
			return nil
		}
	}

	h, ok := entity.TryGetComponent[*health.Health](target)
	if !ok {
		return nil
	}
	dealt := h.Damage(hit.Attack.Damage())
	s.Logger.Debug("Hit resolved",
		log.Stringer("shooter", hit.Entity),
		log.Stringer("target", target),
		log.String("attack", hit.Attack.Name()),
		log.Float64("damage", dealt),
		log.Float64("remaining", h.Current()))
	return nil
}

// Run drives the loop and the feed until ctx is done or one of them fails.
func (s *Simulation) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Loop.Run(ctx) })
	if s.Feed != nil {
		g.Go(func() error { return s.Feed.Run(ctx) })
	}
	return g.Wait()
}

func (s *Simulation) Close() error {
	if s.combat != nil {
		_ = s.Events.Unsubscribe(s.combat)
		s.combat = nil
	}
	if s.Feed != nil {
		_ = s.Feed.Close()
	}
	_ = s.Logger.Sync()
	return nil
}
