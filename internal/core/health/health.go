// Package health provides the hit point component: damage, healing,
// post-hit immunity and death.
package health

import (
	"github.com/warwolfworks/wolfcore/internal/core/entity"
	"github.com/warwolfworks/wolfcore/internal/core/events/bus"
	"github.com/warwolfworks/wolfcore/internal/core/stats"
)

// Event is the payload of the health.* events.
type Event struct {
	Entity  *entity.Entity `json:"entity"`
	Amount  float64        `json:"amount"`
	Current float64        `json:"current"`
	Max     float64        `json:"max"`
}

// Health tracks an entity's hit points. The maximum is the owner's
// max_health stat, so modifiers apply immediately.
type Health struct {
	entity.BaseComponent

	maxHealth        stats.Stat
	immunityOnHit    float64
	redirectToParent bool
	destroyOnDeath   bool

	initialized bool
	current     float64
	immunity    float64
	dead        bool
}

type Option func(*Health)

// WithImmunityOnHit grants d time units of immunity after every hit.
func WithImmunityOnHit(d float64) Option { return func(h *Health) { h.immunityOnHit = max(0, d) } }

// WithRedirectToParent forwards damage to the parent's Health when the
// parent has one. The parent's immunity applies, not the child's.
func WithRedirectToParent(v bool) Option { return func(h *Health) { h.redirectToParent = v } }

// WithDestroyOnDeath destroys the owner when it dies.
func WithDestroyOnDeath(v bool) Option { return func(h *Health) { h.destroyOnDeath = v } }

func New(maxHealth float64, opts ...Option) *Health {
	h := &Health{maxHealth: stats.New(stats.MaxHealth, maxHealth)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Health) OnAwake() {
	if !h.initialized {
		h.initialized = true
		h.current = h.Max()
	}
}

// OnUpdate counts the immunity window down.
func (h *Health) OnUpdate(dt float64) {
	if h.immunity > 0 {
		h.immunity = max(0, h.immunity-dt)
	}
}

// Max is the calculated maximum, or the base value while detached.
func (h *Health) Max() float64 {
	owner := h.Entity()
	if owner == nil || !owner.Stats().Initialized() {
		return h.maxHealth.Base
	}
	return owner.Stats().CalculatedValue(h.maxHealth)
}

func (h *Health) Current() float64      { return h.current }
func (h *Health) IsDead() bool          { return h.dead }
func (h *Health) IsImmune() bool        { return h.immunity > 0 }
func (h *Health) Immunity() float64     { return h.immunity }
func (h *Health) SetImmunity(d float64) { h.immunity = max(0, d) }

func (h *Health) redirectTarget() *Health {
	if !h.redirectToParent || h.Entity() == nil {
		return nil
	}
	parent := h.Entity().Parent()
	if parent == nil {
		return nil
	}
	target, ok := entity.TryGetComponent[*Health](parent)
	if !ok || target == h {
		return nil
	}
	return target
}

// Damage removes up to amount hit points and returns what was removed.
// Dead or immune targets take nothing.
func (h *Health) Damage(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if target := h.redirectTarget(); target != nil {
		return target.Damage(amount)
	}
	if h.dead || h.IsImmune() {
		return 0
	}
	applied := min(amount, h.current)
	h.current -= applied
	h.immunity = h.immunityOnHit
	if h.current > 0 {
		h.publish(h.event(bus.HealthDamaged, applied))
		return applied
	}
	// a lethal hit reaches subscribers as one damaged+died batch
	h.dead = true
	h.publish(h.event(bus.HealthDamaged, applied), h.event(bus.HealthDied, 0))
	h.finishDeath()
	return applied
}

// Heal restores up to amount hit points, capped at Max.
func (h *Health) Heal(amount float64) float64 {
	if h.dead || amount <= 0 {
		return 0
	}
	applied := max(0, min(amount, h.Max()-h.current))
	if applied == 0 {
		return 0
	}
	h.current += applied
	h.publish(h.event(bus.HealthHealed, applied))
	return applied
}

// Kill drops the health to zero regardless of immunity.
func (h *Health) Kill() {
	if h.dead {
		return
	}
	h.current = 0
	h.die()
}

// Revive restores a dead entity to full health.
func (h *Health) Revive() {
	h.dead = false
	h.immunity = 0
	h.current = h.Max()
}

func (h *Health) die() {
	h.dead = true
	h.publish(h.event(bus.HealthDied, 0))
	h.finishDeath()
}

func (h *Health) finishDeath() {
	if h.destroyOnDeath && h.Entity() != nil {
		h.Entity().Destroy()
	}
}

// event returns nil while detached.
func (h *Health) event(eventType string, amount float64) bus.Event {
	owner := h.Entity()
	if owner == nil {
		return nil
	}
	return owner.NewEvent(eventType, Event{
		Entity:  owner,
		Amount:  amount,
		Current: h.current,
		Max:     h.Max(),
	})
}

func (h *Health) publish(events ...bus.Event) {
	owner := h.Entity()
	if owner == nil {
		return
	}
	// handler errors are the subscribers' concern
	_ = owner.PublishEvents(events...)
}

func (h *Health) CloneComponent() (entity.Component, error) {
	return &Health{
		maxHealth:        h.maxHealth,
		immunityOnHit:    h.immunityOnHit,
		redirectToParent: h.redirectToParent,
		destroyOnDeath:   h.destroyOnDeath,
	}, nil
}
