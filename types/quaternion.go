package types

import "github.com/chewxy/math32"

// A rotation quaternion with vector part V and scalar part W.
type Quat struct {
	V Vec3
	W float32
}

// Create identity quaternion.
func QuatIdent() Quat {
	return Quat{W: 1.0}
}

// Create a quaternion that rotates by angle radians around the given axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	sin, cos := math32.Sincos(angle * 0.5)
	return Quat{
		V: axis.Normalize().Mul(sin),
		W: cos,
	}
}

// Rotate a vector by this quaternion.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v + 2w(q_v x v) + 2q_v x (q_v x v)
	cross := q.V.Cross(v)
	return v.Add(cross.Mul(2 * q.W)).Add(q.V.Mul(2).Cross(cross))
}

// Compose two rotations; the result applies q2 first and then q.
func (q Quat) Mul(q2 Quat) Quat {
	return Quat{
		V: q.V.Cross(q2.V).Add(q2.V.Mul(q.W)).Add(q.V.Mul(q2.W)),
		W: q.W*q2.W - q.V.Dot(q2.V),
	}
}

// Get quaternion norm.
func (q Quat) Len() float32 {
	return math32.Sqrt(q.W*q.W + q.V.Dot(q.V))
}

// Normalize to a unit quaternion. A zero quaternion normalizes to identity.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l < floatCmpEpsilon {
		return QuatIdent()
	}
	if math32.Abs(1-l) < floatCmpEpsilon {
		return q
	}
	return Quat{q.V.Mul(1 / l), q.W / l}
}

// Get the inverse rotation.
func (q Quat) Inverse() Quat {
	scaler := 1.0 / (q.V.Dot(q.V) + q.W*q.W)
	return Quat{q.V.Mul(-scaler), q.W * scaler}
}

// Get the 3x3 rotation matrix for this quaternion.
func (q Quat) Mat3() Mat3 {
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]
	return Mat3{
		1 - 2*y*y - 2*z*z, 2*x*y + 2*w*z, 2*x*z - 2*w*y,
		2*x*y - 2*w*z, 1 - 2*x*x - 2*z*z, 2*y*z + 2*w*x,
		2*x*z + 2*w*y, 2*y*z - 2*w*x, 1 - 2*x*x - 2*y*y,
	}
}
