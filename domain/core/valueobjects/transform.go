package valueobjects

import "math"

// Vector3 is a three-component vector
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns the component-wise sum
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Length returns the Euclidean norm
func (v Vector3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Equals compares two vectors exactly
func (v Vector3) Equals(other Vector3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Transform holds the placement of a scene object.
// Rotation components are Euler angles in radians, applied X then Y then Z.
type Transform struct {
	Position Vector3 `json:"position"`
	Rotation Vector3 `json:"rotation"`
	Scale    Vector3 `json:"scale"`
}

// IdentityTransform returns a transform that leaves geometry unchanged
func IdentityTransform() Transform {
	return Transform{Scale: Vector3{X: 1, Y: 1, Z: 1}}
}

// Equals compares two transforms exactly
func (t Transform) Equals(other Transform) bool {
	return t.Position.Equals(other.Position) &&
		t.Rotation.Equals(other.Rotation) &&
		t.Scale.Equals(other.Scale)
}

// UniformScale collapses the scale vector to a single factor. The geometry
// kernel only supports uniform scaling, so non-uniform scale is approximated
// by the average of the three components.
func (t Transform) UniformScale() float64 {
	return (t.Scale.X + t.Scale.Y + t.Scale.Z) / 3.0
}

// IsIdentity reports whether applying the transform would be a no-op
// within the given tolerance.
func (t Transform) IsIdentity(epsilon float64) bool {
	return t.Position.Length() < epsilon &&
		t.Rotation.Length() < epsilon &&
		math.Abs(t.UniformScale()-1.0) < epsilon
}
