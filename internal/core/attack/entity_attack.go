package attack

import (
	"fmt"
	"sync"

	"github.com/warwolfworks/wolfcore/internal/core/entity"
	"github.com/warwolfworks/wolfcore/internal/core/events/bus"
	"github.com/warwolfworks/wolfcore/internal/core/observability/log"
	"github.com/warwolfworks/wolfcore/internal/core/spatial"
)

// Slot pairs an attack with the condition that fires it. Attack and
// Condition hold the templates; the bound copies are created when the slot
// is bound to an entity.
type Slot struct {
	Attack    *Attack
	Condition Condition
	// Origin is where shots leave from. Nil means the position of the
	// entity the router is attached to.
	Origin  spatial.Transform
	Enabled bool
	// CloneAttack and CloneCondition make each bound entity own a copy of the
	// template instead of sharing it.
	CloneAttack    bool
	CloneCondition bool

	attack    *Attack
	condition Condition
	// shared is set when the slot initiated its template in place
	shared    bool
}

// NewSlot returns an enabled slot that clones both templates.
func NewSlot(a *Attack, c Condition) *Slot {
	return &Slot{Attack: a, Condition: c, Enabled: true, CloneAttack: true, CloneCondition: true}
}

// Bound returns the attack instance used by the slot, nil until bound.
func (s *Slot) Bound() *Attack { return s.attack }

// BoundCondition returns the slot's own condition instance. Nil means the
// attack's default condition applies.
func (s *Slot) BoundCondition() Condition { return s.condition }

func (s *Slot) origin(attached *entity.Entity) spatial.Vec3 {
	if s.Origin != nil {
		return s.Origin.Position()
	}
	if attached == nil {
		return spatial.Zero
	}
	return attached.Position()
}

func (s *Slot) activeCondition() Condition {
	if s.condition != nil {
		return s.condition
	}
	if c := s.attack.DefaultCondition(); c != nil {
		return c
	}
	return Always{}
}

// SlotEvent is the payload of the attack.* events.
type SlotEvent struct {
	Entity *entity.Entity `json:"entity"`
	Slot   int            `json:"slot"`
	Attack *Attack        `json:"attack"`
	Origin spatial.Vec3   `json:"origin"`
	Target *entity.Entity `json:"target,omitempty"`
}

// LockEvent is the payload of lock.locked and lock.unlocked.
type LockEvent struct {
	Entity *entity.Entity `json:"entity"`
	Source string         `json:"source"`
}

// Targeter is implemented by conditions that select a target.
type Targeter interface {
	Target() *entity.Entity
}

// EntityAttack drives a list of attack slots on its entity. A failure in
// one slot is logged and does not stop the others. On a proxy entity the
// attacks bind to, and report, the proxy's owner.
type EntityAttack struct {
	entity.BaseComponent

	logger   log.Log
	slots    []*Slot
	bound    bool
	locks    map[any]struct{}
	failures uint64
	mu       sync.Mutex
}

func NewEntityAttack(logger log.Log, slots ...*Slot) *EntityAttack {
	return &EntityAttack{logger: logger, slots: slots}
}

func (ea *EntityAttack) SetLogger(l log.Log) { ea.logger = l }

func (ea *EntityAttack) lg() log.Log {
	if ea.logger == nil {
		ea.logger = log.NewNop()
	}
	return ea.logger
}

func (ea *EntityAttack) Len() int { return len(ea.slots) }

// Slots returns a copy of the slot list.
func (ea *EntityAttack) Slots() []*Slot {
	return append([]*Slot(nil), ea.slots...)
}

func (ea *EntityAttack) Slot(i int) (*Slot, error) {
	if i < 0 || i >= len(ea.slots) {
		return nil, fmt.Errorf("slot %d of %d: %w", i, len(ea.slots), ErrSlotOutOfRange)
	}
	return ea.slots[i], nil
}

// Attack returns the bound attack of slot i, nil if out of range or unbound.
func (ea *EntityAttack) Attack(i int) *Attack {
	s, err := ea.Slot(i)
	if err != nil {
		return nil
	}
	return s.attack
}

func (ea *EntityAttack) SetSlotEnabled(i int, enabled bool) error {
	s, err := ea.Slot(i)
	if err != nil {
		return err
	}
	s.Enabled = enabled
	return nil
}

// AddSlot appends s. Once the component is bound the slot is bound at once.
func (ea *EntityAttack) AddSlot(s *Slot) error {
	if s == nil || s.Attack == nil {
		return ErrNilAttack
	}
	if ea.bound {
		if err := ea.bindSlot(s); err != nil {
			return err
		}
	}
	ea.slots = append(ea.slots, s)
	return nil
}

func (ea *EntityAttack) RemoveSlot(i int) error {
	s, err := ea.Slot(i)
	if err != nil {
		return err
	}
	if s.shared && s.attack != nil {
		s.attack.Release()
	}
	s.attack, s.condition, s.shared = nil, nil, false
	ea.slots = append(ea.slots[:i:i], ea.slots[i+1:]...)
	return nil
}

// Failures counts slot ticks that returned an error or panicked.
func (ea *EntityAttack) Failures() uint64 { return ea.failures }

// IsBound reports whether the slots have been bound to the owner.
func (ea *EntityAttack) IsBound() bool { return ea.bound }

// OnAwake binds every slot to the owner. Slots that fail are logged and
// left unbound.
func (ea *EntityAttack) OnAwake() {
	ea.bindSlots()
}

func (ea *EntityAttack) bindSlots() {
	if ea.bound || ea.Entity() == nil {
		return
	}
	ea.bound = true
	for i, s := range ea.slots {
		if err := ea.bindSlot(s); err != nil {
			ea.lg().Error("Failed to bind attack slot",
				log.String("entity", ea.Entity().String()),
				log.Int("slot", i),
				log.Error(err))
		}
	}
}

func (ea *EntityAttack) bindSlot(s *Slot) error {
	if s.attack != nil {
		return nil
	}
	if s.Attack == nil {
		return ErrNilAttack
	}
	owner := ea.Owner()

	inst := s.Attack
	if s.CloneAttack {
		inst = s.Attack.Clone()
	}
	cond := s.Condition
	if cond != nil && s.CloneCondition {
		cond = cond.Clone()
	}

	if inst.Owner() != owner {
		if err := inst.Initiate(owner); err != nil {
			return err
		}
		inst.OnReloadStarted(func(a *Attack) { ea.publishSlot(bus.AttackReloadStarted, s, a, nil) })
		inst.OnReloaded(func(a *Attack) { ea.publishSlot(bus.AttackReloaded, s, a, nil) })
		s.shared = inst == s.Attack
	}
	s.attack = inst
	s.condition = cond
	return nil
}

// Unbind detaches the component and drops the bound slot instances.
// Shared templates this component initiated are released, so they can be
// bound again once the entity is gone or its instantiation rolled back.
func (ea *EntityAttack) Unbind() {
	for _, s := range ea.slots {
		if s.shared && s.attack != nil {
			s.attack.Release()
		}
		s.attack = nil
		s.condition = nil
		s.shared = false
	}
	ea.bound = false
	ea.BaseComponent.Unbind()
}

// OnUpdate advances and fires every slot in order.
func (ea *EntityAttack) OnUpdate(dt float64) {
	for i, s := range ea.Slots() {
		if err := ea.tickSlot(s, dt); err != nil {
			ea.failures++
			ea.lg().Error("Attack slot failed",
				log.String("entity", ea.Entity().String()),
				log.Int("slot", i),
				log.Error(err))
		}
	}
}

func (ea *EntityAttack) tickSlot(s *Slot, dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	inst := s.attack
	if inst == nil {
		return nil
	}
	if ea.IsLocked() {
		inst.SetTimeScale(0)
	} else {
		inst.SetTimeScale(1)
	}
	inst.Advance(dt)

	if !s.Enabled {
		return nil
	}
	cond := s.activeCondition()
	ok, err := cond.Met(inst)
	if err != nil {
		return fmt.Errorf("condition %T: %w", cond, err)
	}
	if !ok || !inst.CanTrigger() {
		return nil
	}

	var target *entity.Entity
	if t, isTargeter := cond.(Targeter); isTargeter {
		target = t.Target()
	}
	ea.publishSlot(bus.AttackBefore, s, inst, target)
	if inst.Trigger() {
		if fo, isObserver := cond.(FireObserver); isObserver {
			fo.Fired(inst)
		}
		ea.publishSlot(bus.AttackTriggered, s, inst, target)
	}
	return nil
}

func (ea *EntityAttack) indexOf(s *Slot) int {
	for i, candidate := range ea.slots {
		if candidate == s {
			return i
		}
	}
	return -1
}

func (ea *EntityAttack) publishSlot(eventType string, s *Slot, a *Attack, target *entity.Entity) {
	attached := ea.Entity()
	if attached == nil {
		return
	}
	ea.publish(eventType, SlotEvent{
		Entity: ea.Owner(),
		Slot:   ea.indexOf(s),
		Attack: a,
		Origin: s.origin(attached),
		Target: target,
	})
}

func (ea *EntityAttack) publish(eventType string, data any) {
	owner := ea.Entity()
	if owner == nil {
		return
	}
	if err := owner.Publish(eventType, data); err != nil {
		ea.lg().Warn("Event handler failed",
			log.String("event", eventType),
			log.String("entity", owner.String()),
			log.Error(err))
	}
}

// Lock freezes every slot until all lock sources are released. Sources
// must be comparable. It returns false if source already holds a lock.
func (ea *EntityAttack) Lock(source any) bool {
	ea.mu.Lock()
	if ea.locks == nil {
		ea.locks = make(map[any]struct{})
	}
	if _, held := ea.locks[source]; held {
		ea.mu.Unlock()
		return false
	}
	ea.locks[source] = struct{}{}
	first := len(ea.locks) == 1
	ea.mu.Unlock()

	if first {
		ea.publish(bus.Locked, LockEvent{Entity: ea.Owner(), Source: fmt.Sprint(source)})
	}
	return true
}

// Unlock releases source's lock and reports whether it held one.
func (ea *EntityAttack) Unlock(source any) bool {
	ea.mu.Lock()
	if _, held := ea.locks[source]; !held {
		ea.mu.Unlock()
		return false
	}
	delete(ea.locks, source)
	last := len(ea.locks) == 0
	ea.mu.Unlock()

	if last {
		ea.publish(bus.Unlocked, LockEvent{Entity: ea.Owner(), Source: fmt.Sprint(source)})
	}
	return true
}

func (ea *EntityAttack) IsLocked() bool {
	ea.mu.Lock()
	defer ea.mu.Unlock()
	return len(ea.locks) > 0
}

// CloneComponent copies the slot templates into a detached component. Slots
// that do not clone their attack keep sharing the same instance.
func (ea *EntityAttack) CloneComponent() (entity.Component, error) {
	c := &EntityAttack{logger: ea.logger, slots: make([]*Slot, 0, len(ea.slots))}
	for _, s := range ea.slots {
		c.slots = append(c.slots, &Slot{
			Attack:         s.Attack,
			Condition:      s.Condition,
			Origin:         s.Origin,
			Enabled:        s.Enabled,
			CloneAttack:    s.CloneAttack,
			CloneCondition: s.CloneCondition,
		})
	}
	return c, nil
}
