package types

import "github.com/chewxy/math32"

const floatCmpEpsilon float32 = 1e-5

// A 3x3 matrix stored in column-major order.
type Mat3 [9]float32

// Create a 3x3 matrix from its rows. Rows are easier to transcribe from
// published color transforms.
func Mat3FromRows(r0, r1, r2 Vec3) Mat3 {
	return Mat3{
		r0[0], r1[0], r2[0],
		r0[1], r1[1], r2[1],
		r0[2], r1[2], r2[2],
	}
}

// Create a 3x3 identity matrix.
func Ident3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Multiply matrix with a column vector.
func (m Mat3) Mul3x1(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[3]*v[1] + m[6]*v[2],
		m[1]*v[0] + m[4]*v[1] + m[7]*v[2],
		m[2]*v[0] + m[5]*v[1] + m[8]*v[2],
	}
}

// Multiply two 3x3 matrices.
func (m Mat3) Mul3(m2 Mat3) Mat3 {
	var out Mat3
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			out[col*3+row] = m[row]*m2[col*3] + m[3+row]*m2[col*3+1] + m[6+row]*m2[col*3+2]
		}
	}
	return out
}

// Create a rotation matrix around the Y axis.
func RotateY3(angle float32) Mat3 {
	sin, cos := math32.Sincos(angle)
	return Mat3{
		cos, 0, -sin,
		0, 1, 0,
		sin, 0, cos,
	}
}

// Check whether two scalars are equal within floatCmpEpsilon.
func ApproxEqual(a, b float32) bool {
	return math32.Abs(a-b) <= floatCmpEpsilon*math32.Max(1, math32.Max(math32.Abs(a), math32.Abs(b)))
}
