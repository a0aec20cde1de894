package entity

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/warwolfworks/wolfcore/internal/core/events/bus"
	"github.com/warwolfworks/wolfcore/internal/core/spatial"
	"github.com/warwolfworks/wolfcore/internal/core/stats"
)

// Host is the manager an entity is registered with.
type Host interface {
	// Unregister removes e from the live list. Absent entities yield false.
	Unregister(e *Entity) bool
	// FinishDestroy completes an officially tracked destruction: it
	// publishes the destroyed event and disposes e.
	FinishDestroy(e *Entity)
	// Publish delivers events in order. Events the host filters out are
	// dropped silently.
	Publish(events ...bus.Event) error
}

// Hooks are the entity's own lifecycle callbacks. They run after the
// matching call has been dispatched to every component.
type Hooks struct {
	OnAwake         func(e *Entity)
	OnStart         func(e *Entity)
	OnEnabled       func(e *Entity)
	OnUpdate        func(e *Entity, dt float64)
	OnFixed         func(e *Entity, dt float64)
	OnDisabled      func(e *Entity)
	OnDestroyed     func(e *Entity)
	OnBeforeDestroy func(e *Entity)
}

// Entity is the aggregate root: identity, transform proxy, stats and the
// component registry.
type Entity struct {
	id         uuid.UUID
	name       string
	kindName   string
	kind       Kind
	transform  spatial.Transform
	stats      *stats.Stats
	components *ComponentRegistry
	parent     *Entity
	proxy      bool
	hooks      Hooks
	host       Host

	initiatedViaManager bool
	callsEventDestroy   bool

	awake     bool
	started   bool
	enabled   bool
	destroyed bool
	disposed  bool

	destroyListeners []func(*Entity)
}

type Option func(*Entity)

func WithName(name string) Option { return func(e *Entity) { e.name = name } }

func WithKind(name string) Option {
	return func(e *Entity) {
		e.kindName = name
		e.kind = KindOf(name)
	}
}

func WithTransform(t spatial.Transform) Option { return func(e *Entity) { e.transform = t } }

func WithStats(s *stats.Stats) Option { return func(e *Entity) { e.stats = s } }

func WithHooks(h Hooks) Option { return func(e *Entity) { e.hooks = h } }

func WithParent(p *Entity) Option { return func(e *Entity) { e.parent = p } }

// WithProxy marks the entity as a proxy: its components belong to the
// nearest ancestor that is not a proxy.
func WithProxy() Option { return func(e *Entity) { e.proxy = true } }

func New(opts ...Option) *Entity {
	e := &Entity{id: uuid.New()}
	for _, opt := range opts {
		opt(e)
	}
	if e.transform == nil {
		e.transform = spatial.NewTransform(spatial.Zero, spatial.Identity)
	}
	if e.stats == nil {
		e.stats = stats.NewStats()
	}
	e.components = newRegistry(e)
	return e
}

func (e *Entity) ID() uuid.UUID { return e.id }

// Name falls back to a generated label when none was given.
func (e *Entity) Name() string {
	if e.name == "" {
		return "Entity " + e.id.String()[:8]
	}
	return e.name
}

func (e *Entity) SetName(name string) { e.name = name }

func (e *Entity) String() string {
	return fmt.Sprintf("%s#%s", e.Name(), e.id.String()[:8])
}

func (e *Entity) Kind() Kind       { return e.kind }
func (e *Entity) KindName() string { return e.kindName }

// IsKind reports whether e matches any of kinds. No kinds matches everything.
func (e *Entity) IsKind(kinds ...Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if e.kind == k {
			return true
		}
	}
	return false
}

func (e *Entity) Transform() spatial.Transform { return e.transform }
func (e *Entity) Position() spatial.Vec3       { return e.transform.Position() }
func (e *Entity) SetPosition(p spatial.Vec3)   { e.transform.SetPosition(p) }
func (e *Entity) Rotation() spatial.Quat       { return e.transform.Rotation() }
func (e *Entity) SetRotation(q spatial.Quat)   { e.transform.SetRotation(q) }
func (e *Entity) Euler() spatial.Vec3          { return e.transform.Euler() }
func (e *Entity) SetEuler(v spatial.Vec3)      { e.transform.SetEuler(v) }

func (e *Entity) Stats() *stats.Stats { return e.stats }

func (e *Entity) Components() *ComponentRegistry { return e.components }

func (e *Entity) Parent() *Entity { return e.parent }

func (e *Entity) SetParent(p *Entity) error {
	for cur := p; cur != nil; cur = cur.parent {
		if cur == e {
			return fmt.Errorf("entity: parenting %s under %s creates a cycle", e, p)
		}
	}
	e.parent = p
	return nil
}

func (e *Entity) IsProxy() bool        { return e.proxy }
func (e *Entity) SetProxy(proxy bool) { e.proxy = proxy }

// Owner is the entity that logically owns e's components: e itself, or for
// a proxy the nearest ancestor that is not one. A chain of proxies resolves
// to its root.
func (e *Entity) Owner() *Entity {
	cur := e
	for cur.proxy && cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Root walks the parent chain to the topmost entity.
func (e *Entity) Root() *Entity {
	cur := e
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (e *Entity) Hooks() Hooks     { return e.hooks }
func (e *Entity) SetHooks(h Hooks) { e.hooks = h }

func (e *Entity) Host() Host { return e.host }

// SetHost is called by the manager on registration.
func (e *Entity) SetHost(h Host) { e.host = h }

func (e *Entity) InitiatedViaManager() bool { return e.initiatedViaManager }

func (e *Entity) SetInitiatedViaManager(v bool) { e.initiatedViaManager = v }

func (e *Entity) CallsEventDestroy() bool { return e.callsEventDestroy }

// SetCallsEventDestroy selects the teardown path of Destroy: true hands the
// final step to the host, false disposes immediately.
func (e *Entity) SetCallsEventDestroy(v bool) { e.callsEventDestroy = v }

func (e *Entity) IsAwake() bool     { return e.awake }
func (e *Entity) IsStarted() bool   { return e.started }
func (e *Entity) IsEnabled() bool   { return e.enabled }
func (e *Entity) IsDestroyed() bool { return e.destroyed }
func (e *Entity) IsDisposed() bool  { return e.disposed }

// OnDestroy registers a listener fired once by Destroy.
func (e *Entity) OnDestroy(fn func(*Entity)) {
	if fn != nil {
		e.destroyListeners = append(e.destroyListeners, fn)
	}
}

// NewEvent builds an event sourced from e.
func (e *Entity) NewEvent(eventType string, data any) bus.Event {
	return bus.NewEvent(eventType, e.String(), data)
}

// Publish sends an event through the host. Without a host it is a no-op.
func (e *Entity) Publish(eventType string, data any) error {
	return e.PublishEvents(e.NewEvent(eventType, data))
}

// PublishEvents sends events through the host as one batch, in order.
func (e *Entity) PublishEvents(events ...bus.Event) error {
	if e.host == nil || len(events) == 0 {
		return nil
	}
	return e.host.Publish(events...)
}

// Summary is the JSON view of an entity used by event payloads.
type Summary struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Kind     string       `json:"kind,omitempty"`
	Position spatial.Vec3 `json:"position"`
}

func (e *Entity) Summary() Summary {
	return Summary{
		ID:       e.id.String(),
		Name:     e.Name(),
		Kind:     e.kindName,
		Position: e.Position(),
	}
}

func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Summary())
}
