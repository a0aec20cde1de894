// Package spatial holds the small amount of 3D math the entity core needs:
// positions, rotations, a transform provider and the shapes used by the
// manager's spatial queries.
package spatial

import "math"

type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

var (
	Zero    = Vec3{}
	Forward = Vec3{Z: 1}
	Up      = Vec3{Y: 1}
)

func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) SqrLength() float64 { return v.Dot(v) }
func (v Vec3) Length() float64    { return math.Sqrt(v.SqrLength()) }

// Normalized returns the zero vector unchanged.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

func SqrDistance(a, b Vec3) float64 { return a.Sub(b).SqrLength() }
func Distance(a, b Vec3) float64    { return a.Sub(b).Length() }

// Quat is a unit quaternion rotation.
type Quat struct {
	X, Y, Z, W float64
}

var Identity = Quat{W: 1}

// FromEuler builds a rotation from degrees, applied Z, then X, then Y.
func FromEuler(e Vec3) Quat {
	const deg2rad = math.Pi / 180
	hx, hy, hz := e.X*deg2rad/2, e.Y*deg2rad/2, e.Z*deg2rad/2
	sx, cx := math.Sincos(hx)
	sy, cy := math.Sincos(hy)
	sz, cz := math.Sincos(hz)
	return Quat{
		X: cy*sx*cz + sy*cx*sz,
		Y: sy*cx*cz - cy*sx*sz,
		Z: cy*cx*sz - sy*sx*cz,
		W: cy*cx*cz + sy*sx*sz,
	}
}

// Euler returns the rotation in degrees, inverse of FromEuler.
func (q Quat) Euler() Vec3 {
	const rad2deg = 180 / math.Pi
	sinX := 2 * (q.W*q.X - q.Y*q.Z)
	var x float64
	if math.Abs(sinX) >= 1 {
		x = math.Copysign(math.Pi/2, sinX)
	} else {
		x = math.Asin(sinX)
	}
	y := math.Atan2(2*(q.W*q.Y+q.X*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))
	z := math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.X*q.X+q.Z*q.Z))
	return Vec3{x * rad2deg, y * rad2deg, z * rad2deg}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}
