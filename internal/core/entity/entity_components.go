package entity

import (
	"fmt"
	"reflect"
)

// Attach adds an existing value as a component. Values that do not
// implement Component are rejected with ErrInvalidComponentType.
func (e *Entity) Attach(v any) (Component, error) {
	c, ok := v.(Component)
	if !ok || c == nil {
		return nil, fmt.Errorf("attach %T: %w", v, ErrInvalidComponentType)
	}
	if err := e.attach(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Entity) attach(c Component) error {
	if e.disposed {
		return ErrEntityDisposed
	}
	if err := e.components.Add(c); err != nil {
		return err
	}
	// bring a late component up to the entity's current lifecycle stage
	if e.awake {
		c.OnAwake()
	}
	if e.started {
		c.OnStart()
	}
	if e.enabled {
		c.OnEnabled()
	}
	return nil
}

// RemoveComponentInstance detaches c, running its OnDestroyed hook.
func (e *Entity) RemoveComponentInstance(c Component) bool {
	return e.components.Remove(c)
}

// AddComponent constructs a zero T and attaches it. T must be a pointer to
// a struct implementing Component, e.g. AddComponent[*health.Health](e).
func AddComponent[T any](e *Entity) (T, error) {
	var zero T
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return zero, fmt.Errorf("add %s: %w", t, ErrInvalidComponentType)
	}
	v := reflect.New(t.Elem()).Interface()
	c, ok := v.(Component)
	if !ok {
		return zero, fmt.Errorf("add %s: %w", t, ErrInvalidComponentType)
	}
	if err := e.attach(c); err != nil {
		return zero, err
	}
	return v.(T), nil
}

// RemoveComponent detaches the first component of type T.
func RemoveComponent[T any](e *Entity) bool {
	c, ok := Find[T](e.components)
	if !ok {
		return false
	}
	comp, ok := any(c).(Component)
	if !ok {
		return false
	}
	return e.components.Remove(comp)
}

// GetComponent returns the first component of type T or the zero value.
func GetComponent[T any](e *Entity) T {
	c, _ := Find[T](e.components)
	return c
}

func TryGetComponent[T any](e *Entity) (T, bool) {
	return Find[T](e.components)
}

func GetComponents[T any](e *Entity) []T {
	return FindAll[T](e.components)
}

// Clone deep-copies e into a new, unregistered and inactive entity. Every
// component must implement Cloneable; the first failure aborts the clone.
func (e *Entity) Clone() (*Entity, error) {
	if e.disposed {
		return nil, ErrEntityDisposed
	}
	c := New(
		WithName(e.name),
		WithKind(e.kindName),
		WithHooks(e.hooks),
		WithStats(e.stats.Clone()),
	)
	c.transform.SetPosition(e.Position())
	c.transform.SetRotation(e.Rotation())
	c.callsEventDestroy = e.callsEventDestroy
	// clones stay under the template's parent so proxies resolve on Awake
	c.parent = e.parent
	c.proxy = e.proxy

	for _, comp := range e.components.Components() {
		cl, ok := comp.(Cloneable)
		if !ok {
			return nil, fmt.Errorf("clone %s: %T: %w", e, comp, ErrNotCloneable)
		}
		dup, err := cl.CloneComponent()
		if err != nil {
			return nil, fmt.Errorf("clone %s: %T: %w", e, comp, err)
		}
		if err = c.components.Add(dup); err != nil {
			return nil, fmt.Errorf("clone %s: %w", e, err)
		}
	}
	return c, nil
}
