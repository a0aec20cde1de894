package spatial

import "math"

// Bounds is an axis-aligned box given by centre and full size.
type Bounds struct {
	Center Vec3
	Size   Vec3
}

func (b Bounds) Min() Vec3 { return b.Center.Sub(b.Size.Scale(0.5)) }
func (b Bounds) Max() Vec3 { return b.Center.Add(b.Size.Scale(0.5)) }

func (b Bounds) Contains(p Vec3) bool {
	lo, hi := b.Min(), b.Max()
	return p.X >= lo.X && p.X <= hi.X &&
		p.Y >= lo.Y && p.Y <= hi.Y &&
		p.Z >= lo.Z && p.Z <= hi.Z
}

// Viewer decides whether a world point is visible.
type Viewer interface {
	Contains(p Vec3) bool
}

// Camera approximates a perspective frustum with a view cone clipped by
// the near and far planes. FOV is the full vertical angle in degrees.
type Camera struct {
	Transform Transform
	FOV       float64
	Near      float64
	Far       float64
}

func (c Camera) Contains(p Vec3) bool {
	origin := c.Transform.Position()
	forward := ForwardOf(c.Transform).Normalized()
	offset := p.Sub(origin)
	depth := offset.Dot(forward)
	if depth < c.Near || depth > c.Far {
		return false
	}
	dist := offset.Length()
	if dist == 0 {
		return true
	}
	half := c.FOV / 2 * math.Pi / 180
	return depth/dist >= math.Cos(half)
}
