// Package manager owns the live entity list and drives the per-frame and
// fixed-step sweeps over it.
//
// A Manager is explicitly constructed and passed to whatever runs the game
// loop; there is no process-wide instance. Sweeps are single-threaded: Tick
// and FixedTick are serialised, and structural changes requested while a
// sweep is running are queued and applied once it completes.
package manager

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warwolfworks/wolfcore/internal/core/entity"
	"github.com/warwolfworks/wolfcore/internal/core/events/bus"
	"github.com/warwolfworks/wolfcore/internal/core/observability/log"
	"github.com/warwolfworks/wolfcore/internal/core/spatial"
)

var _ entity.Host = (*Manager)(nil)

type Manager struct {
	logger  log.Log
	events  bus.EventBus
	filters []bus.EventFilter

	// tickMu serialises sweeps
	tickMu sync.Mutex

	mu            sync.RWMutex
	live          []*entity.Entity
	members       map[*entity.Entity]struct{}
	sweeping      bool
	pendingAdd    []*entity.Entity
	pendingRemove map[*entity.Entity]struct{}

	frames      uint64
	fixedFrames uint64
}

func New(logger log.Log, events bus.EventBus) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	if events == nil {
		events = bus.New()
	}
	return &Manager{
		logger:        logger.Named("manager"),
		events:        events,
		members:       make(map[*entity.Entity]struct{}),
		pendingRemove: make(map[*entity.Entity]struct{}),
	}
}

func (m *Manager) Events() bus.EventBus { return m.events }

// SetEventFilters replaces the filters applied to every event the manager
// and its entities publish. Call it before the first sweep.
func (m *Manager) SetEventFilters(filters ...bus.EventFilter) {
	m.mu.Lock()
	m.filters = append([]bus.EventFilter(nil), filters...)
	m.mu.Unlock()
}

// Publish delivers events in order through the bus. Events rejected by a
// filter are dropped; handler errors are joined.
func (m *Manager) Publish(events ...bus.Event) error {
	m.mu.RLock()
	filters := m.filters
	m.mu.RUnlock()

	if len(filters) == 0 {
		return m.events.PublishBatch(events...)
	}
	var all error
	for _, ev := range events {
		if err := m.events.PublishWithFilters(ev, filters...); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

// Register adds e to the live list. It reports false for nil or already
// registered entities. Entities that were not produced by Instantiate are
// accepted with a warning and get their stats initialised.
func (m *Manager) Register(e *entity.Entity) bool {
	if e == nil || e.IsDisposed() {
		return false
	}

	m.mu.Lock()
	if _, ok := m.members[e]; ok {
		m.mu.Unlock()
		return false
	}
	m.members[e] = struct{}{}
	if m.sweeping {
		if _, removing := m.pendingRemove[e]; removing {
			delete(m.pendingRemove, e)
		} else {
			m.pendingAdd = append(m.pendingAdd, e)
		}
	} else {
		m.live = append(m.live, e)
	}
	m.mu.Unlock()

	e.SetHost(m)
	if !e.InitiatedViaManager() {
		m.logger.Warn("Entity registered outside of Instantiate", log.Stringer("entity", e))
	}
	if !e.Stats().Initialized() {
		e.Stats().Init()
	}
	return true
}

// Unregister removes e from the live list. e stops receiving dispatch
// immediately, even when called from inside a sweep.
func (m *Manager) Unregister(e *entity.Entity) bool {
	if e == nil {
		return false
	}

	m.mu.Lock()
	if _, ok := m.members[e]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.members, e)
	if m.sweeping {
		if !removeFrom(&m.pendingAdd, e) {
			m.pendingRemove[e] = struct{}{}
		}
	} else {
		removeFrom(&m.live, e)
	}
	m.mu.Unlock()

	// destroy paths still need the host to finish teardown
	if !e.IsDestroyed() {
		e.SetHost(nil)
	}
	return true
}

func (m *Manager) Contains(e *entity.Entity) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.members[e]
	return ok
}

// Entities returns the live entities in registration order. Entities
// registered during the current sweep are not included until it ends.
func (m *Manager) Entities() []*entity.Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*entity.Entity, 0, len(m.live))
	for _, e := range m.live {
		if m.isLiveLocked(e) {
			out = append(out, e)
		}
	}
	return out
}

func (m *Manager) Len() int {
	return len(m.Entities())
}

// Frames returns how many Tick and FixedTick sweeps have completed.
func (m *Manager) Frames() (frames, fixed uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frames, m.fixedFrames
}

// Instantiate clones template off-registry, positions it, marks it manager
// owned, registers and activates it. Nothing becomes visible unless every
// step succeeds.
func (m *Manager) Instantiate(template *entity.Entity, position spatial.Vec3, rotation spatial.Quat) (*entity.Entity, error) {
	if template == nil {
		return nil, ErrNilTemplate
	}

	e, err := template.Clone()
	if err != nil {
		m.logger.Warn("Instantiate failed", log.Stringer("template", template), log.Error(err))
		return nil, fmt.Errorf("instantiate %s: %w", template, err)
	}
	e.SetPosition(position)
	e.SetRotation(rotation)
	e.SetInitiatedViaManager(true)
	e.SetCallsEventDestroy(true)
	e.Stats().Init()

	m.Register(e)
	if err = m.activate(e); err != nil {
		m.Unregister(e)
		e.Dispose()
		m.logger.Error("Instantiate failed during activation", log.Stringer("entity", e), log.Error(err))
		return nil, fmt.Errorf("instantiate %s: %w", template, err)
	}

	m.publish(bus.EntityInstantiated, InstantiatedEvent{Entity: e})
	m.logger.Debug("Entity instantiated", log.Stringer("entity", e))
	return e, nil
}

func (m *Manager) activate(e *entity.Entity) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrActivationFailed, r)
		}
	}()
	e.Activate()
	return nil
}

// Destroy is the graceful destruction entry point. It returns false when e
// is not registered.
func (m *Manager) Destroy(e *entity.Entity) bool {
	if !m.Contains(e) {
		return false
	}
	e.SetCallsEventDestroy(true)
	e.SetHost(m)
	e.Destroy()
	return true
}

// DestroyUnofficially removes and disposes e without running any hook.
func (m *Manager) DestroyUnofficially(e *entity.Entity) bool {
	if !m.Contains(e) {
		return false
	}
	e.DestroyUnofficially()
	m.publish(bus.EntityDestroyed, DestroyedEvent{Entity: e, Official: false})
	m.logger.Debug("Entity destroyed unofficially", log.Stringer("entity", e))
	return true
}

// FinishDestroy completes a graceful destruction started by Entity.Destroy.
func (m *Manager) FinishDestroy(e *entity.Entity) {
	m.publish(bus.EntityDestroyed, DestroyedEvent{Entity: e, Official: true})
	e.Dispose()
	m.logger.Debug("Entity destroyed", log.Stringer("entity", e))
}

func (m *Manager) publish(eventType string, data any) {
	if err := m.Publish(bus.NewEvent(eventType, "manager", data)); err != nil {
		m.logger.Warn("Event handler failed", log.String("event", eventType), log.Error(err))
	}
}

func (m *Manager) isLiveLocked(e *entity.Entity) bool {
	if _, ok := m.members[e]; !ok {
		return false
	}
	return !e.IsDestroyed()
}

func removeFrom(list *[]*entity.Entity, e *entity.Entity) bool {
	for i, candidate := range *list {
		if candidate == e {
			*list = append((*list)[:i:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}
