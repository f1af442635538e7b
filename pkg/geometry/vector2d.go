package geometry

import (
	"fmt"
	"math"
)

const (
	// Epsilon is the tolerance used by Eq.
	Epsilon = 1e-9
	// MinDistance is the smallest denominator used when a direction is derived
	// from a distance; it keeps coincident points from producing NaN.
	MinDistance = 1e-4
)

// Vector2D is a point or a displacement in viewport pixels.
// Fields are public so particles can be mutated in place by the motion model.
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// String implements fmt.Stringer.
func (v Vector2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// Add returns v + other.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{v.X - other.X, v.Y - other.Y}
}

// Mul scales the vector by a scalar value.
func (v Vector2D) Mul(scalar float64) Vector2D {
	return Vector2D{v.X * scalar, v.Y * scalar}
}

// LenSqr is the squared magnitude. Use it for comparisons, it avoids the sqrt.
func (v Vector2D) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Len is the magnitude of the vector.
func (v Vector2D) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// DistanceTo returns the Euclidean distance between two points.
func (v Vector2D) DistanceTo(other Vector2D) float64 {
	return v.Sub(other).Len()
}

// DistanceSquaredTo returns the squared Euclidean distance between two points.
func (v Vector2D) DistanceSquaredTo(other Vector2D) float64 {
	return v.Sub(other).LenSqr()
}

// Away returns the displacement from origin to v divided by
// max(dist, MinDistance), together with dist itself.
// For coincident points the direction is the zero vector, never NaN.
func (v Vector2D) Away(origin Vector2D) (dir Vector2D, dist float64) {
	d := v.Sub(origin)
	dist = d.Len()
	return d.Mul(1 / math.Max(MinDistance, dist)), dist
}

// Eq reports whether two vectors are equal within Epsilon.
func (v Vector2D) Eq(other Vector2D) bool {
	return math.Abs(v.X-other.X) <= Epsilon && math.Abs(v.Y-other.Y) <= Epsilon
}

// WrapAxis applies toroidal wraparound on one axis: a coordinate past
// size+margin re-enters at -margin and a coordinate below -margin re-enters at
// size+margin. Values inside the band are returned unchanged.
func WrapAxis(value, size, margin float64) float64 {
	switch {
	case value < -margin:
		return size + margin
	case value > size+margin:
		return -margin
	}
	return value
}

// Clamp bounds value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}
