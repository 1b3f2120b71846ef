package common

import (
	"math"
)

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// IdentityMatrix returns a Matrix4 set to the identity.
//
// Returns:
//   - Matrix4: the identity matrix
func IdentityMatrix() Matrix4 {
	var m Matrix4
	Identity(m[:])
	return m
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order.
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			buf[col*4+row] = sum
		}
	}
	copy(out, buf[:])
}

// Invert4 computes the inverse of a 4x4 column-major matrix using the cofactor method.
// If the matrix is singular the output is left unchanged and the function returns false.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - m: source matrix (16 elements, column-major)
//
// Returns:
//   - bool: true if the matrix was inverted, false if singular
func Invert4(out, m []float32) bool {
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return false
	}
	inv := 1.0 / det

	var r [16]float32
	r[0] = (m[5]*c5 - m[6]*c4 + m[7]*c3) * inv
	r[1] = (-m[1]*c5 + m[2]*c4 - m[3]*c3) * inv
	r[2] = (m[13]*s5 - m[14]*s4 + m[15]*s3) * inv
	r[3] = (-m[9]*s5 + m[10]*s4 - m[11]*s3) * inv

	r[4] = (-m[4]*c5 + m[6]*c2 - m[7]*c1) * inv
	r[5] = (m[0]*c5 - m[2]*c2 + m[3]*c1) * inv
	r[6] = (-m[12]*s5 + m[14]*s2 - m[15]*s1) * inv
	r[7] = (m[8]*s5 - m[10]*s2 + m[11]*s1) * inv

	r[8] = (m[4]*c4 - m[5]*c2 + m[7]*c0) * inv
	r[9] = (-m[0]*c4 + m[1]*c2 - m[3]*c0) * inv
	r[10] = (m[12]*s4 - m[13]*s2 + m[15]*s0) * inv
	r[11] = (-m[8]*s4 + m[9]*s2 - m[11]*s0) * inv

	r[12] = (-m[4]*c3 + m[5]*c1 - m[6]*c0) * inv
	r[13] = (m[0]*c3 - m[1]*c1 + m[2]*c0) * inv
	r[14] = (-m[12]*s3 + m[13]*s1 - m[14]*s0) * inv
	r[15] = (m[8]*s3 - m[9]*s1 + m[10]*s0) * inv

	copy(out, r[:])
	return true
}

// ComposeMatrix builds a column-major local-to-parent matrix from a decomposed transform.
// The result is T * R * S, with R derived from the (normalized) rotation quaternion.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - t: the translation, rotation and scale to compose
func ComposeMatrix(out []float32, t Transform) {
	q := QuatNormalize(t.Rotation)
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	sx, sy, sz := t.Scale[0], t.Scale[1], t.Scale[2]

	out[0] = (1 - 2*(yy+zz)) * sx
	out[1] = (2 * (xy + wz)) * sx
	out[2] = (2 * (xz - wy)) * sx
	out[3] = 0

	out[4] = (2 * (xy - wz)) * sy
	out[5] = (1 - 2*(xx+zz)) * sy
	out[6] = (2 * (yz + wx)) * sy
	out[7] = 0

	out[8] = (2 * (xz + wy)) * sz
	out[9] = (2 * (yz - wx)) * sz
	out[10] = (1 - 2*(xx+yy)) * sz
	out[11] = 0

	out[12] = t.Translation[0]
	out[13] = t.Translation[1]
	out[14] = t.Translation[2]
	out[15] = 1
}

// DecomposeMatrix splits an affine column-major matrix into translation, rotation and scale.
// Shear is discarded. A negative determinant is folded into the X scale.
//
// Parameters:
//   - m: source matrix (16 elements, column-major)
//
// Returns:
//   - Transform: the decomposed parts
func DecomposeMatrix(m []float32) Transform {
	var t Transform
	t.Translation = Point3{m[12], m[13], m[14]}

	sx := length3(m[0], m[1], m[2])
	sy := length3(m[4], m[5], m[6])
	sz := length3(m[8], m[9], m[10])

	det := m[0]*(m[5]*m[10]-m[9]*m[6]) - m[4]*(m[1]*m[10]-m[9]*m[2]) + m[8]*(m[1]*m[6]-m[5]*m[2])
	if det < 0 {
		sx = -sx
	}
	t.Scale = Point3{sx, sy, sz}

	var r [9]float32
	if sx != 0 {
		r[0], r[1], r[2] = m[0]/sx, m[1]/sx, m[2]/sx
	}
	if sy != 0 {
		r[3], r[4], r[5] = m[4]/sy, m[5]/sy, m[6]/sy
	}
	if sz != 0 {
		r[6], r[7], r[8] = m[8]/sz, m[9]/sz, m[10]/sz
	}
	t.Rotation = quatFromRotation(r)
	return t
}

// quatFromRotation converts a column-major 3x3 rotation matrix to a quaternion (x, y, z, w).
func quatFromRotation(r [9]float32) Quat {
	m00, m11, m22 := r[0], r[4], r[8]
	trace := m00 + m11 + m22
	var q Quat
	switch {
	case trace > 0:
		s := float32(math.Sqrt(float64(trace+1))) * 2
		q[3] = 0.25 * s
		q[0] = (r[5] - r[7]) / s
		q[1] = (r[6] - r[2]) / s
		q[2] = (r[1] - r[3]) / s
	case m00 > m11 && m00 > m22:
		s := float32(math.Sqrt(float64(1+m00-m11-m22))) * 2
		q[3] = (r[5] - r[7]) / s
		q[0] = 0.25 * s
		q[1] = (r[3] + r[1]) / s
		q[2] = (r[6] + r[2]) / s
	case m11 > m22:
		s := float32(math.Sqrt(float64(1+m11-m00-m22))) * 2
		q[3] = (r[6] - r[2]) / s
		q[0] = (r[3] + r[1]) / s
		q[1] = 0.25 * s
		q[2] = (r[7] + r[5]) / s
	default:
		s := float32(math.Sqrt(float64(1+m22-m00-m11))) * 2
		q[3] = (r[1] - r[3]) / s
		q[0] = (r[6] + r[2]) / s
		q[1] = (r[7] + r[5]) / s
		q[2] = 0.25 * s
	}
	return QuatNormalize(q)
}

func length3(x, y, z float32) float32 {
	return float32(math.Sqrt(float64(x*x + y*y + z*z)))
}

// QuatNormalize returns q scaled to unit length. A zero quaternion yields the identity rotation.
//
// Parameters:
//   - q: the quaternion to normalize (x, y, z, w)
//
// Returns:
//   - Quat: the unit quaternion
func QuatNormalize(q Quat) Quat {
	l := float32(math.Sqrt(float64(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])))
	if l == 0 {
		return IdentityQuat()
	}
	return Quat{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
}

// QuatFromAxisAngle builds a unit quaternion rotating angle radians around axis.
//
// Parameters:
//   - axis: rotation axis (need not be normalized)
//   - angle: rotation angle in radians
//
// Returns:
//   - Quat: the rotation (x, y, z, w)
func QuatFromAxisAngle(axis Point3, angle float32) Quat {
	l := length3(axis[0], axis[1], axis[2])
	if l == 0 {
		return IdentityQuat()
	}
	s := float32(math.Sin(float64(angle)/2)) / l
	c := float32(math.Cos(float64(angle) / 2))
	return Quat{axis[0] * s, axis[1] * s, axis[2] * s, c}
}

// QuatSlerp spherically interpolates between two rotations along the shortest arc.
// Nearly parallel inputs fall back to a normalized linear blend.
//
// Parameters:
//   - a: rotation at w = 0
//   - b: rotation at w = 1
//   - w: interpolation factor in [0, 1]
//
// Returns:
//   - Quat: the interpolated unit rotation
func QuatSlerp(a, b Quat, w float64) Quat {
	dot := float64(a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3])
	if dot < 0 {
		b = Quat{-b[0], -b[1], -b[2], -b[3]}
		dot = -dot
	}

	var ka, kb float64
	if dot > 0.9995 {
		ka, kb = 1-w, w
	} else {
		theta := math.Acos(dot)
		sin := math.Sin(theta)
		ka = math.Sin((1-w)*theta) / sin
		kb = math.Sin(w*theta) / sin
	}

	fa, fb := float32(ka), float32(kb)
	return QuatNormalize(Quat{
		a[0]*fa + b[0]*fb,
		a[1]*fa + b[1]*fb,
		a[2]*fa + b[2]*fb,
		a[3]*fa + b[3]*fb,
	})
}

// LerpPoint linearly interpolates two points.
//
// Parameters:
//   - a: value at w = 0
//   - b: value at w = 1
//   - w: interpolation factor
//
// Returns:
//   - Point3: the interpolated point
func LerpPoint(a, b Point3, w float64) Point3 {
	f := float32(w)
	return Point3{
		a[0] + (b[0]-a[0])*f,
		a[1] + (b[1]-a[1])*f,
		a[2] + (b[2]-a[2])*f,
	}
}

// LerpTransform blends two decomposed transforms: translation and scale linearly, rotation by slerp.
//
// Parameters:
//   - a: transform at w = 0
//   - b: transform at w = 1
//   - w: interpolation factor in [0, 1]
//
// Returns:
//   - Transform: the blended transform
func LerpTransform(a, b Transform, w float64) Transform {
	return Transform{
		Translation: LerpPoint(a.Translation, b.Translation, w),
		Rotation:    QuatSlerp(a.Rotation, b.Rotation, w),
		Scale:       LerpPoint(a.Scale, b.Scale, w),
	}
}

// LerpMatrix blends the affine parts of two matrices by decomposing, interpolating and recomposing.
//
// Parameters:
//   - a: matrix at w = 0
//   - b: matrix at w = 1
//   - w: interpolation factor in [0, 1]
//
// Returns:
//   - Matrix4: the blended matrix
func LerpMatrix(a, b Matrix4, w float64) Matrix4 {
	t := LerpTransform(DecomposeMatrix(a[:]), DecomposeMatrix(b[:]), w)
	var out Matrix4
	ComposeMatrix(out[:], t)
	return out
}

// Clamp01 restricts v to [0, 1].
//
// Parameters:
//   - v: the value to clamp
//
// Returns:
//   - float64: v clamped to the unit interval
func Clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
