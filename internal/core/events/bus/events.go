package bus

// Domain event types published by the simulation core.
const (
	EntityInstantiated = "entity.instantiated"
	EntityDestroyed    = "entity.destroyed"

	AttackBefore        = "attack.before"
	AttackTriggered     = "attack.triggered"
	AttackReloadStarted = "attack.reload_started"
	AttackReloaded      = "attack.reloaded"

	Locked   = "lock.locked"
	Unlocked = "lock.unlocked"

	HealthDamaged = "health.damaged"
	HealthHealed  = "health.healed"
	HealthDied    = "health.died"
)

// DomainEventTypes lists every type above, in declaration order.
func DomainEventTypes() []string {
	return []string{
		EntityInstantiated, EntityDestroyed,
		AttackBefore, AttackTriggered, AttackReloadStarted, AttackReloaded,
		Locked, Unlocked,
		HealthDamaged, HealthHealed, HealthDied,
	}
}

// MuteTypes returns a filter rejecting the listed event types.
func MuteTypes(types ...string) EventFilter {
	muted := make(map[string]struct{}, len(types))
	for _, t := range types {
		muted[t] = struct{}{}
	}
	return func(event Event) bool {
		_, drop := muted[event.Type()]
		return !drop
	}
}
