// package common contains the plain value types and math shared by every animation package. They are not interface-wrapped
// structs, just plain values that channels produce and applicators consume.
package common

// Point3 is a 3D point or vector.
type Point3 [3]float32

// Quat is a rotation quaternion stored as (x, y, z, w).
type Quat [4]float32

// Matrix4 is a 4x4 matrix stored in column-major order.
type Matrix4 [16]float32

// Transform represents a decomposed affine transform used for matrix interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation Point3

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation Quat

	// Scale is the scale factor along each axis.
	Scale Point3
}

// IdentityQuat returns the rotation that leaves vectors unchanged.
//
// Returns:
//   - Quat: (0, 0, 0, 1)
func IdentityQuat() Quat {
	return Quat{0, 0, 0, 1}
}

// IdentityTransform returns a transform with no translation, no rotation and unit scale.
//
// Returns:
//   - Transform: the identity transform
func IdentityTransform() Transform {
	return Transform{
		Rotation: IdentityQuat(),
		Scale:    Point3{1, 1, 1},
	}
}

// Matrix composes the transform into a column-major matrix.
//
// Returns:
//   - Matrix4: T * R * S
func (t Transform) Matrix() Matrix4 {
	var m Matrix4
	ComposeMatrix(m[:], t)
	return m
}
