package manager

import (
	"math"

	"github.com/warwolfworks/wolfcore/internal/core/entity"
	"github.com/warwolfworks/wolfcore/internal/core/spatial"
)

// The queries below are linear scans over the live list. They are fine for
// occasional lookups but cost O(n) per call; avoid running them per entity
// per tick on large worlds.

// Closest returns the live entity nearest to position. A radius <= 0 means
// unbounded. Kinds, when given, restrict the candidates.
func (m *Manager) Closest(position spatial.Vec3, radius float64, kinds ...entity.Kind) (*entity.Entity, bool) {
	return m.ClosestMatching(position, radius, func(e *entity.Entity) bool { return e.IsKind(kinds...) })
}

// ClosestMatching is Closest with an arbitrary filter. A nil filter accepts everything.
func (m *Manager) ClosestMatching(position spatial.Vec3, radius float64, filter func(*entity.Entity) bool) (*entity.Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := math.Inf(1)
	if radius > 0 {
		limit = radius * radius
	}
	var best *entity.Entity
	bestDist := math.Inf(1)
	for _, e := range m.live {
		if !m.isLiveLocked(e) || (filter != nil && !filter(e)) {
			continue
		}
		d := spatial.SqrDistance(position, e.Position())
		if d <= limit && d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, best != nil
}

// AllWithin returns every live entity within radius of position.
func (m *Manager) AllWithin(radius float64, position spatial.Vec3, kinds ...entity.Kind) []*entity.Entity {
	r2 := radius * radius
	return m.collect(func(e *entity.Entity) bool {
		return e.IsKind(kinds...) && spatial.SqrDistance(position, e.Position()) <= r2
	})
}

// AllWithinView returns every live entity the viewer can see. This is the
// most expensive query here: every candidate is tested against the view.
func (m *Manager) AllWithinView(view spatial.Viewer, kinds ...entity.Kind) []*entity.Entity {
	return m.collect(func(e *entity.Entity) bool {
		return e.IsKind(kinds...) && view.Contains(e.Position())
	})
}

// AllWithinBounds returns every live entity inside the box centred on center.
func (m *Manager) AllWithinBounds(center, size spatial.Vec3, kinds ...entity.Kind) []*entity.Entity {
	b := spatial.Bounds{Center: center, Size: size}
	return m.collect(func(e *entity.Entity) bool {
		return e.IsKind(kinds...) && b.Contains(e.Position())
	})
}

// FindByName returns the first live entity with the given name.
func (m *Manager) FindByName(name string) (*entity.Entity, bool) {
	found := m.collect(func(e *entity.Entity) bool { return e.Name() == name })
	if len(found) == 0 {
		return nil, false
	}
	return found[0], true
}

func (m *Manager) collect(keep func(*entity.Entity) bool) []*entity.Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*entity.Entity
	for _, e := range m.live {
		if m.isLiveLocked(e) && keep(e) {
			out = append(out, e)
		}
	}
	return out
}
