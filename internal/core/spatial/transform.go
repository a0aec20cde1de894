package spatial

import "sync"

// Transform is the position/rotation provider entities and components proxy to.
type Transform interface {
	Position() Vec3
	SetPosition(Vec3)
	Rotation() Quat
	SetRotation(Quat)
	Euler() Vec3
	SetEuler(Vec3)
}

// Basic is an in-memory Transform.
type Basic struct {
	mu       sync.RWMutex
	position Vec3
	rotation Quat
}

func NewTransform(position Vec3, rotation Quat) *Basic {
	if rotation == (Quat{}) {
		rotation = Identity
	}
	return &Basic{position: position, rotation: rotation}
}

func (t *Basic) Position() Vec3 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.position
}

func (t *Basic) SetPosition(p Vec3) {
	t.mu.Lock()
	t.position = p
	t.mu.Unlock()
}

func (t *Basic) Rotation() Quat {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rotation
}

func (t *Basic) SetRotation(q Quat) {
	t.mu.Lock()
	t.rotation = q
	t.mu.Unlock()
}

func (t *Basic) Euler() Vec3 { return t.Rotation().Euler() }

func (t *Basic) SetEuler(e Vec3) { t.SetRotation(FromEuler(e)) }

// ForwardOf returns the transform's local +Z axis in world space.
func ForwardOf(t Transform) Vec3 {
	return t.Rotation().Rotate(Forward)
}

// Offset is a Transform pinned to a parent with a local offset, used for
// firing origins that move with their owner.
type Offset struct {
	Parent Transform
	Local  Vec3
}

func (o *Offset) Position() Vec3 {
	return o.Parent.Position().Add(o.Parent.Rotation().Rotate(o.Local))
}

func (o *Offset) SetPosition(p Vec3) {
	inv := o.Parent.Rotation()
	inv.X, inv.Y, inv.Z = -inv.X, -inv.Y, -inv.Z
	o.Local = inv.Rotate(p.Sub(o.Parent.Position()))
}

func (o *Offset) Rotation() Quat     { return o.Parent.Rotation() }
func (o *Offset) SetRotation(q Quat) { o.Parent.SetRotation(q) }
func (o *Offset) Euler() Vec3        { return o.Parent.Euler() }
func (o *Offset) SetEuler(e Vec3)    { o.Parent.SetEuler(e) }
