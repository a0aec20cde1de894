package entity

// Awake, Start, Enable, Update, FixedUpdate and Disable are the entry points
// the scheduling side calls. Each dispatches to the components before
// running the entity's own hook.

func (e *Entity) Awake() {
	if e.awake || e.destroyed {
		return
	}
	e.awake = true
	Dispatch(CallAwake, e, 0)
	if e.hooks.OnAwake != nil {
		e.hooks.OnAwake(e)
	}
}

func (e *Entity) Start() {
	if e.started || e.destroyed {
		return
	}
	e.started = true
	Dispatch(CallStart, e, 0)
	if e.hooks.OnStart != nil {
		e.hooks.OnStart(e)
	}
}

func (e *Entity) Enable() {
	if e.enabled || e.destroyed {
		return
	}
	e.enabled = true
	Dispatch(CallEnable, e, 0)
	if e.hooks.OnEnabled != nil {
		e.hooks.OnEnabled(e)
	}
}

func (e *Entity) Disable() {
	if !e.enabled {
		return
	}
	e.enabled = false
	Dispatch(CallDisable, e, 0)
	if e.hooks.OnDisabled != nil {
		e.hooks.OnDisabled(e)
	}
}

// Activate runs Awake, Start and Enable in order.
func (e *Entity) Activate() {
	e.Awake()
	e.Start()
	e.Enable()
}

func (e *Entity) Update(dt float64) {
	if !e.enabled || e.destroyed {
		return
	}
	Dispatch(CallUpdate, e, dt)
	if e.hooks.OnUpdate != nil && !e.destroyed {
		e.hooks.OnUpdate(e, dt)
	}
}

func (e *Entity) FixedUpdate(dt float64) {
	if !e.enabled || e.destroyed {
		return
	}
	Dispatch(CallFixedUpdate, e, dt)
	if e.hooks.OnFixed != nil && !e.destroyed {
		e.hooks.OnFixed(e, dt)
	}
}

// Destroy tears the entity down: OnBeforeDestroy, deregistration, Disable
// when enabled, Destroy dispatch, OnDestroyed and the destroy listeners.
// With CallsEventDestroy set and a host present the host finishes the
// teardown; otherwise the entity disposes itself.
func (e *Entity) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	if e.hooks.OnBeforeDestroy != nil {
		e.hooks.OnBeforeDestroy(e)
	}

	host := e.host
	if host != nil {
		host.Unregister(e)
	}

	if e.enabled {
		e.enabled = false
		Dispatch(CallDisable, e, 0)
		if e.hooks.OnDisabled != nil {
			e.hooks.OnDisabled(e)
		}
	}

	Dispatch(CallDestroy, e, 0)
	if e.hooks.OnDestroyed != nil {
		e.hooks.OnDestroyed(e)
	}

	listeners := e.destroyListeners
	e.destroyListeners = nil
	for _, fn := range listeners {
		fn(e)
	}

	if e.callsEventDestroy && host != nil {
		host.FinishDestroy(e)
		return
	}
	e.Dispose()
}

// DestroyUnofficially deregisters and disposes without running any hook,
// listener or component teardown. Anything relying on destroy hooks to
// release resources will not get the chance to.
func (e *Entity) DestroyUnofficially() {
	if e.disposed {
		return
	}
	e.destroyed = true
	if e.host != nil {
		e.host.Unregister(e)
	}
	e.Dispose()
}

// Dispose releases the entity: components are unbound without hooks and the
// host link is cut. Disposed entities reject new components.
func (e *Entity) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.destroyed = true
	e.enabled = false
	e.components.clear()
	e.destroyListeners = nil
	e.host = nil
}
