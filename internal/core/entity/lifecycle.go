package entity

// CallType selects which hook Dispatch fans out.
type CallType uint8

const (
	CallAwake CallType = iota
	CallStart
	CallEnable
	CallUpdate
	CallFixedUpdate
	CallDisable
	CallDestroy
)

func (c CallType) String() string {
	switch c {
	case CallAwake:
		return "awake"
	case CallStart:
		return "start"
	case CallEnable:
		return "enable"
	case CallUpdate:
		return "update"
	case CallFixedUpdate:
		return "fixed_update"
	case CallDisable:
		return "disable"
	case CallDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// Dispatch invokes the hook matching call on every component of e, in
// registry order. dt is only used by the update call types.
//
// The component list is snapshotted first. Components added by a hook are
// reached on the next dispatch; components removed by a hook are skipped.
func Dispatch(call CallType, e *Entity, dt float64) {
	for _, c := range e.components.Components() {
		if c.Entity() != e {
			continue
		}
		invoke(call, c, dt)
	}
}

func invoke(call CallType, c Component, dt float64) {
	switch call {
	case CallAwake:
		c.OnAwake()
	case CallStart:
		c.OnStart()
	case CallEnable:
		c.OnEnabled()
	case CallUpdate:
		c.OnUpdate(dt)
	case CallFixedUpdate:
		c.OnFixed(dt)
	case CallDisable:
		c.OnDisabled()
	case CallDestroy:
		c.OnDestroyed()
	}
}
