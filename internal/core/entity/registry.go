package entity

import (
	"fmt"
	"reflect"
	"sync"
)

type registryEntry struct {
	id   ComponentID
	comp Component
}

// ComponentRegistry is the ordered set of components attached to one entity.
// The entry slice is the only source of truth; every Add and Remove goes
// through it. The by-type index is derived from the slice and dropped inside
// the same critical section as any mutation, so it can never go stale.
type ComponentRegistry struct {
	mu      sync.RWMutex
	owner   *Entity
	entries []registryEntry
	index   map[ComponentID][]int
}

func newRegistry(owner *Entity) *ComponentRegistry {
	return &ComponentRegistry{owner: owner}
}

func (r *ComponentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Components returns a snapshot of the attached components in attach order.
func (r *ComponentRegistry) Components() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Component, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.comp
	}
	return out
}

func (r *ComponentRegistry) Contains(c Component) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOfLocked(c) >= 0
}

// Add binds c to the owner and appends it.
func (r *ComponentRegistry) Add(c Component) error {
	if c == nil {
		return ErrInvalidComponentType
	}
	if r.Contains(c) {
		return ErrDuplicateComponent
	}
	if err := c.Bind(r.owner); err != nil {
		return fmt.Errorf("bind %T: %w", c, err)
	}

	r.mu.Lock()
	r.entries = append(r.entries, registryEntry{id: componentIDFor(reflect.TypeOf(c)), comp: c})
	r.index = nil
	r.mu.Unlock()
	return nil
}

// Remove runs c's OnDestroyed hook, then detaches it. It reports whether c
// was attached.
func (r *ComponentRegistry) Remove(c Component) bool {
	if !r.Contains(c) {
		return false
	}
	c.OnDestroyed()

	// the hook may have restructured the registry, look c up again
	r.mu.Lock()
	i := r.indexOfLocked(c)
	if i >= 0 {
		r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
		r.index = nil
	}
	r.mu.Unlock()

	if i < 0 {
		return false
	}
	c.Unbind()
	return true
}

// RemoveByID removes the first component whose concrete type has id.
func (r *ComponentRegistry) RemoveByID(id ComponentID) (Component, bool) {
	r.mu.Lock()
	positions := r.lookupLocked(id)
	var c Component
	if len(positions) > 0 {
		c = r.entries[positions[0]].comp
	}
	r.mu.Unlock()

	if c == nil {
		return nil, false
	}
	return c, r.Remove(c)
}

// Get returns the first component whose concrete type has id.
func (r *ComponentRegistry) Get(id ComponentID) (Component, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	positions := r.lookupLocked(id)
	if len(positions) == 0 {
		return nil, false
	}
	return r.entries[positions[0]].comp, true
}

// Invalidate drops the by-type index. The next typed lookup rebuilds it.
func (r *ComponentRegistry) Invalidate() {
	r.mu.Lock()
	r.index = nil
	r.mu.Unlock()
}

// Refresh rebuilds the by-type index immediately.
func (r *ComponentRegistry) Refresh() {
	r.mu.Lock()
	r.index = nil
	r.buildIndexLocked()
	r.mu.Unlock()
}

// clear detaches everything without running hooks.
func (r *ComponentRegistry) clear() []Component {
	r.mu.Lock()
	removed := make([]Component, len(r.entries))
	for i, e := range r.entries {
		removed[i] = e.comp
	}
	r.entries = nil
	r.index = nil
	r.mu.Unlock()

	for _, c := range removed {
		c.Unbind()
	}
	return removed
}

func (r *ComponentRegistry) indexOfLocked(c Component) int {
	for i, e := range r.entries {
		if e.comp == c {
			return i
		}
	}
	return -1
}

func (r *ComponentRegistry) lookupLocked(id ComponentID) []int {
	if r.index == nil {
		r.buildIndexLocked()
	}
	return r.index[id]
}

func (r *ComponentRegistry) buildIndexLocked() {
	r.index = make(map[ComponentID][]int, len(r.entries))
	for i, e := range r.entries {
		r.index[e.id] = append(r.index[e.id], i)
	}
}

// Find returns the first component of type T. Concrete types resolve
// through the by-type index; interface types scan in attach order.
func Find[T any](r *ComponentRegistry) (T, bool) {
	var zero T
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Interface {
		c, ok := r.Get(componentIDFor(t))
		if !ok {
			return zero, false
		}
		v, ok := c.(T)
		return v, ok
	}
	for _, c := range r.Components() {
		if v, ok := c.(T); ok {
			return v, true
		}
	}
	return zero, false
}

// FindAll returns every component of type T in attach order.
func FindAll[T any](r *ComponentRegistry) []T {
	var out []T
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Interface {
		r.mu.Lock()
		positions := r.lookupLocked(componentIDFor(t))
		for _, p := range positions {
			if v, ok := r.entries[p].comp.(T); ok {
				out = append(out, v)
			}
		}
		r.mu.Unlock()
		return out
	}
	for _, c := range r.Components() {
		if v, ok := c.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
