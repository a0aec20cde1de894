package manager

import (
	"fmt"

	"github.com/warwolfworks/wolfcore/internal/core/entity"
	"github.com/warwolfworks/wolfcore/internal/core/observability/log"
)

// Tick runs one frame: every live entity's Update, in registration order.
// It must not be called from inside a sweep.
func (m *Manager) Tick(dt float64) {
	m.sweep(entity.CallUpdate, dt)
}

// FixedTick runs one fixed step: every live entity's FixedUpdate.
func (m *Manager) FixedTick(dt float64) {
	m.sweep(entity.CallFixedUpdate, dt)
}

func (m *Manager) sweep(call entity.CallType, dt float64) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	m.mu.Lock()
	m.sweeping = true
	snapshot := m.live
	m.mu.Unlock()

	defer m.endSweep(call)

	for _, e := range snapshot {
		if !m.isLive(e) {
			continue
		}
		if err := m.step(e, call, dt); err != nil {
			m.logger.Error("Entity step failed",
				log.Stringer("entity", e),
				log.Stringer("call", call),
				log.Error(err),
			)
		}
	}
}

func (m *Manager) step(e *entity.Entity, call entity.CallType, dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if call == entity.CallFixedUpdate {
		e.FixedUpdate(dt)
	} else {
		e.Update(dt)
	}
	return nil
}

// endSweep applies the structural changes queued during the sweep.
func (m *Manager) endSweep(call entity.CallType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pendingRemove) > 0 {
		kept := make([]*entity.Entity, 0, len(m.live))
		for _, e := range m.live {
			if _, gone := m.pendingRemove[e]; !gone {
				kept = append(kept, e)
			}
		}
		m.live = kept
		clear(m.pendingRemove)
	}
	if len(m.pendingAdd) > 0 {
		m.live = append(m.live, m.pendingAdd...)
		m.pendingAdd = nil
	}
	m.sweeping = false

	if call == entity.CallFixedUpdate {
		m.fixedFrames++
	} else {
		m.frames++
	}
}

func (m *Manager) isLive(e *entity.Entity) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isLiveLocked(e)
}
