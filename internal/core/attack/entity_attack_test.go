package attack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warwolfworks/wolfcore/internal/core/entity"
	"github.com/warwolfworks/wolfcore/internal/core/events/bus"
	"github.com/warwolfworks/wolfcore/internal/core/manager"
	"github.com/warwolfworks/wolfcore/internal/core/observability/log"
	"github.com/warwolfworks/wolfcore/internal/core/spatial"
	"github.com/warwolfworks/wolfcore/internal/core/stats"
)

type world struct {
	m      *manager.Manager
	events []bus.Event
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{}
	b := bus.New()
	_, err := b.Subscribe(bus.Wildcard, func(e bus.Event) error {
		w.events = append(w.events, e)
		return nil
	})
	require.NoError(t, err)
	w.m = manager.New(log.NewNop(), b)
	return w
}

func (w *world) ofType(types ...string) []bus.Event {
	var out []bus.Event
	for _, e := range w.events {
		for _, typ := range types {
			if e.Type() == typ {
				out = append(out, e)
			}
		}
	}
	return out
}

func (w *world) shooter(t *testing.T, pos spatial.Vec3, slots ...*Slot) (*entity.Entity, *EntityAttack) {
	t.Helper()
	template := entity.New(entity.WithName("shooter"), entity.WithKind("turret"))
	_, err := template.Attach(NewEntityAttack(log.NewNop(), slots...))
	require.NoError(t, err)
	e, err := w.m.Instantiate(template, pos, spatial.Identity)
	require.NoError(t, err)
	ea, ok := entity.TryGetComponent[*EntityAttack](e)
	require.True(t, ok)
	return e, ea
}

func slotIndexes(events []bus.Event) []int {
	out := make([]int, 0, len(events))
	for _, e := range events {
		out = append(out, e.Data().(SlotEvent).Slot)
	}
	return out
}

func TestSlotsAreClonedPerEntity(t *testing.T) {
	w := newWorld(t)
	template := New("gun", 1, 60, 5, 1)

	_, first := w.shooter(t, spatial.Zero, NewSlot(template, Always{}))
	_, second := w.shooter(t, spatial.Zero, NewSlot(template, Always{}))

	assert.False(t, template.IsInitiated())
	require.True(t, first.IsBound())
	a, b := first.Attack(0), second.Attack(0)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotSame(t, a, b)
	assert.NotSame(t, template, a)
	assert.Same(t, first.Entity(), a.Owner())
}

func TestSharedAttackBindsOnlyOnce(t *testing.T) {
	w := newWorld(t)
	shared := New("gun", 1, 60, 5, 1)
	slot := &Slot{Attack: shared, Enabled: true}

	_, first := w.shooter(t, spatial.Zero, slot)
	_, second := w.shooter(t, spatial.Zero, slot)

	assert.Same(t, shared, first.Attack(0))
	assert.Nil(t, second.Attack(0), "second binding of a shared attack is rejected")

	w.m.Tick(1)
	assert.Len(t, w.ofType(bus.AttackTriggered), 1)

	require.True(t, w.m.Destroy(first.Entity()))
	assert.False(t, shared.IsInitiated(), "released with its owner")
	_, third := w.shooter(t, spatial.Zero, slot)
	assert.Same(t, shared, third.Attack(0))
}

func TestRolledBackInstantiateReleasesSharedAttack(t *testing.T) {
	w := newWorld(t)
	shared := New("gun", 1, 60, 5, 1)

	template := entity.New(entity.WithName("faulty"), entity.WithHooks(entity.Hooks{
		OnAwake: func(*entity.Entity) { panic("bad asset") },
	}))
	_, err := template.Attach(NewEntityAttack(log.NewNop(), &Slot{Attack: shared, Enabled: true}))
	require.NoError(t, err)

	_, err = w.m.Instantiate(template, spatial.Zero, spatial.Identity)
	require.ErrorIs(t, err, manager.ErrActivationFailed)
	assert.False(t, shared.IsInitiated())

	_, ea := w.shooter(t, spatial.Zero, &Slot{Attack: shared, Enabled: true})
	assert.Same(t, shared, ea.Attack(0))
	w.m.Tick(0.1)
	assert.Len(t, w.ofType(bus.AttackTriggered), 1)
}

func TestTickPublishesBeforeAndTriggered(t *testing.T) {
	w := newWorld(t)
	e, _ := w.shooter(t, spatial.V3(1, 2, 3), NewSlot(New("gun", 1, 60, 1, 2), Always{}))

	w.m.Tick(0.1)

	got := w.ofType(bus.AttackBefore, bus.AttackTriggered, bus.AttackReloadStarted)
	require.Len(t, got, 3)
	assert.Equal(t, bus.AttackBefore, got[0].Type())
	assert.Equal(t, bus.AttackReloadStarted, got[1].Type(), "the last round starts the reload")
	assert.Equal(t, bus.AttackTriggered, got[2].Type())

	ev := got[2].Data().(SlotEvent)
	assert.Same(t, e, ev.Entity)
	assert.Equal(t, spatial.V3(1, 2, 3), ev.Origin)

	w.m.Tick(2)
	assert.Len(t, w.ofType(bus.AttackReloaded), 1)
}

func TestSlotFailuresAreIsolated(t *testing.T) {
	w := newWorld(t)
	failing := Func(func(*Attack) (bool, error) { return false, errors.New("boom") })
	panicking := Func(func(*Attack) (bool, error) { panic("kaboom") })

	_, ea := w.shooter(t, spatial.Zero,
		NewSlot(New("a", 1, 60, 5, 1), failing),
		NewSlot(New("b", 1, 60, 5, 1), panicking),
		NewSlot(New("c", 1, 60, 5, 1), Always{}),
	)

	w.m.Tick(0.1)

	assert.Equal(t, uint64(2), ea.Failures())
	assert.Equal(t, []int{2}, slotIndexes(w.ofType(bus.AttackTriggered)))
}

func TestDisabledSlotAdvancesButDoesNotFire(t *testing.T) {
	w := newWorld(t)
	_, ea := w.shooter(t, spatial.Zero, NewSlot(New("gun", 1, 60, 5, 1), Always{}))

	w.m.Tick(0.5)
	require.Len(t, w.ofType(bus.AttackTriggered), 1)

	require.NoError(t, ea.SetSlotEnabled(0, false))
	w.m.Tick(0.5)
	assert.Len(t, w.ofType(bus.AttackTriggered), 1)
	assert.InDelta(t, 0.5, ea.Attack(0).SinceLastAttack(), 1e-9)

	require.NoError(t, ea.SetSlotEnabled(0, true))
	w.m.Tick(0.5)
	assert.Len(t, w.ofType(bus.AttackTriggered), 2)

	assert.ErrorIs(t, ea.SetSlotEnabled(3, true), ErrSlotOutOfRange)
}

func TestLockFreezesSlots(t *testing.T) {
	w := newWorld(t)
	_, ea := w.shooter(t, spatial.Zero, NewSlot(New("gun", 1, 60, 5, 1), Always{}))

	require.True(t, ea.Lock("stun"))
	assert.False(t, ea.Lock("stun"))
	require.True(t, ea.Lock("root"))
	assert.True(t, ea.IsLocked())
	assert.Len(t, w.ofType(bus.Locked), 1)

	w.m.Tick(1)
	assert.Empty(t, w.ofType(bus.AttackTriggered))
	assert.Zero(t, ea.Attack(0).TimeScale())

	require.True(t, ea.Unlock("stun"))
	assert.True(t, ea.IsLocked())
	assert.Empty(t, w.ofType(bus.Unlocked))
	require.True(t, ea.Unlock("root"))
	assert.False(t, ea.Unlock("root"))
	assert.Len(t, w.ofType(bus.Unlocked), 1)

	w.m.Tick(1)
	assert.Len(t, w.ofType(bus.AttackTriggered), 1)
	assert.Equal(t, float64(1), ea.Attack(0).TimeScale())
}

func TestTargetInRangeSlot(t *testing.T) {
	w := newWorld(t)
	finder := w.m
	_, ea := w.shooter(t, spatial.Zero, NewSlot(New("gun", 1, 60, 5, 1), &TargetInRange{Finder: finder, Radius: 5}))

	w.m.Tick(0.1)
	assert.Empty(t, w.ofType(bus.AttackTriggered), "no target yet")

	target := entity.New(entity.WithName("dummy"))
	_, err := w.m.Instantiate(target, spatial.V3(3, 0, 0), spatial.Identity)
	require.NoError(t, err)

	w.m.Tick(0.1)
	fired := w.ofType(bus.AttackTriggered)
	require.Len(t, fired, 1)
	ev := fired[0].Data().(SlotEvent)
	require.NotNil(t, ev.Target)
	assert.Equal(t, "dummy", ev.Target.Name())

	cond := ea.Slots()[0].BoundCondition().(*TargetInRange)
	assert.Same(t, ev.Target, cond.Target())
}

func TestLateAttachBindsImmediately(t *testing.T) {
	w := newWorld(t)
	e, err := w.m.Instantiate(entity.New(entity.WithName("late")), spatial.Zero, spatial.Identity)
	require.NoError(t, err)

	ea := NewEntityAttack(nil, NewSlot(New("gun", 1, 60, 5, 1), nil))
	_, err = e.Attach(ea)
	require.NoError(t, err)
	require.True(t, ea.IsBound())
	require.NotNil(t, ea.Attack(0))

	require.NoError(t, ea.AddSlot(NewSlot(New("pistol", 1, 60, 5, 1), Never{})))
	require.NotNil(t, ea.Attack(1), "slots added after binding are bound at once")

	w.m.Tick(0.1)
	assert.Equal(t, []int{0}, slotIndexes(w.ofType(bus.AttackTriggered)))

	require.NoError(t, ea.RemoveSlot(0))
	assert.Equal(t, 1, ea.Len())
	assert.ErrorIs(t, ea.RemoveSlot(5), ErrSlotOutOfRange)
	assert.ErrorIs(t, ea.AddSlot(&Slot{}), ErrNilAttack)
}

func TestRemovingComponentUnbindsSlots(t *testing.T) {
	w := newWorld(t)
	e, ea := w.shooter(t, spatial.Zero, NewSlot(New("gun", 1, 60, 5, 1), Always{}))

	require.True(t, entity.RemoveComponent[*EntityAttack](e))
	assert.False(t, ea.IsBound())
	assert.Nil(t, ea.Attack(0))

	w.m.Tick(1)
	assert.Empty(t, w.ofType(bus.AttackTriggered))
}

func TestLimitedSlotCountsShotsNotTicks(t *testing.T) {
	w := newWorld(t)
	limit, err := ParseCondition("limit:2:always", nil)
	require.NoError(t, err)
	_, ea := w.shooter(t, spatial.Zero, NewSlot(New("gun", 1, 60, 10, 1), limit))

	for i := 0; i < 40; i++ {
		w.m.Tick(0.1)
	}

	assert.Len(t, w.ofType(bus.AttackTriggered), 2)
	bound, ok := ea.Slots()[0].BoundCondition().(*Limited)
	require.True(t, ok)
	assert.Equal(t, 2, bound.Used())
	assert.Zero(t, limit.(*Limited).Used(), "template quota untouched")
}

func TestProxyRouterBindsToOwner(t *testing.T) {
	w := newWorld(t)
	tank, err := w.m.Instantiate(entity.New(entity.WithName("tank")), spatial.Zero, spatial.Identity)
	require.NoError(t, err)
	tank.Stats().AddModifier(stats.Modifier{Type: stats.Damage, Stacking: stats.Additive, Value: 4, Source: "armor"})

	template := entity.New(entity.WithName("barrel"), entity.WithParent(tank), entity.WithProxy())
	_, err = template.Attach(NewEntityAttack(log.NewNop(), NewSlot(New("cannon", 10, 60, 5, 1), Always{})))
	require.NoError(t, err)
	barrel, err := w.m.Instantiate(template, spatial.V3(0, 1, 2), spatial.Identity)
	require.NoError(t, err)

	ea := entity.GetComponent[*EntityAttack](barrel)
	require.NotNil(t, ea.Attack(0))
	assert.Same(t, tank, ea.Attack(0).Owner())
	assert.Equal(t, 14.0, ea.Attack(0).Damage())

	w.m.Tick(0.1)
	fired := w.ofType(bus.AttackTriggered)
	require.Len(t, fired, 1)
	hit := fired[0].Data().(SlotEvent)
	assert.Same(t, tank, hit.Entity)
	assert.Equal(t, spatial.V3(0, 1, 2), hit.Origin)
}
