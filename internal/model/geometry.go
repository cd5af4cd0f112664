package model

import "math"

// Vec2 is a 2D vector, used for movement input and wind direction.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Length returns the vector's magnitude
func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns a unit-length vector in the same direction,
// or the zero vector if the input has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// ClampLength returns the vector shortened to at most max length
func (v Vec2) ClampLength(max float64) Vec2 {
	l := v.Length()
	if l <= max || l == 0 {
		return v
	}
	scale := max / l
	return Vec2{X: v.X * scale, Y: v.Y * scale}
}

// Vec3 is a 3D position or direction in course space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns the vector multiplied by s
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Length returns the vector's magnitude
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns a unit-length vector in the same direction,
// or the zero vector if the input has no length.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

// Box is an axis-aligned bounding box
type Box struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// Contains reports whether p is inside the box (inclusive)
func (b Box) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Clamp returns p moved to the nearest point inside the box
func (b Box) Clamp(p Vec3) Vec3 {
	return Vec3{
		X: math.Min(math.Max(p.X, b.Min.X), b.Max.X),
		Y: math.Min(math.Max(p.Y, b.Min.Y), b.Max.Y),
		Z: math.Min(math.Max(p.Z, b.Min.Z), b.Max.Z),
	}
}
