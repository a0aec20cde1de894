package entity

import "github.com/warwolfworks/wolfcore/internal/core/spatial"

// Component is a capability unit attached to exactly one Entity. Concrete
// components embed BaseComponent and override the hooks they need.
type Component interface {
	// Entity returns the owning entity, nil while detached.
	Entity() *Entity
	// Bind attaches the component to owner. Called by the registry on Add.
	Bind(owner *Entity) error
	// Unbind detaches the component. Called by the registry on Remove.
	Unbind()

	OnAwake()
	OnStart()
	OnEnabled()
	OnUpdate(dt float64)
	OnFixed(dt float64)
	OnDisabled()
	OnDestroyed()
}

// Cloneable components can be deep-copied when their entity is instantiated
// from a template. The copy must be detached.
type Cloneable interface {
	CloneComponent() (Component, error)
}

// BaseComponent provides owner binding and no-op hooks.
type BaseComponent struct {
	owner *Entity
}

func (c *BaseComponent) Entity() *Entity { return c.owner }

func (c *BaseComponent) Bind(owner *Entity) error {
	if c.owner != nil && c.owner != owner {
		return ErrComponentBound
	}
	c.owner = owner
	return nil
}

func (c *BaseComponent) Unbind() { c.owner = nil }

// Owner resolves the logical owner through proxy entities. It is walked on
// every call, so reparenting takes effect at once. Nil while detached.
func (c *BaseComponent) Owner() *Entity {
	if c.owner == nil {
		return nil
	}
	return c.owner.Owner()
}

func (c *BaseComponent) OnAwake()         {}
func (c *BaseComponent) OnStart()         {}
func (c *BaseComponent) OnEnabled()       {}
func (c *BaseComponent) OnUpdate(float64) {}
func (c *BaseComponent) OnFixed(float64)  {}
func (c *BaseComponent) OnDisabled()      {}
func (c *BaseComponent) OnDestroyed()     {}

// Position proxies to the owner's transform.
func (c *BaseComponent) Position() spatial.Vec3 {
	if c.owner == nil {
		return spatial.Zero
	}
	return c.owner.Position()
}

func (c *BaseComponent) Rotation() spatial.Quat {
	if c.owner == nil {
		return spatial.Identity
	}
	return c.owner.Rotation()
}
