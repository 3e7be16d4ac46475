// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Vec4 is a four component float vector, the unit of every vector global handed to shaders.
type Vec4 [4]float32

// Vec2Int is an integer pair used for buffer sizes and tile offsets.
type Vec2Int struct {
	X, Y int
}

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float32
}

// Vec4 returns the color as a vector global.
func (c Color) Vec4() Vec4 {
	return Vec4{c.R, c.G, c.B, c.A}
}

// WithAlpha returns a copy of c with the alpha channel replaced.
func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

// ClearColor is fully transparent black.
var ClearColor = Color{}

// Rect is a pixel-space rectangle, used for viewports.
type Rect struct {
	X, Y, Width, Height float32
}

// Bounds is an axis-aligned bounding box stored as center and half extents.
type Bounds struct {
	Center  [3]float32
	Extents [3]float32
}

// IsEmpty reports whether the box has no volume on any axis.
func (b Bounds) IsEmpty() bool {
	return b.Extents[0] <= 0 && b.Extents[1] <= 0 && b.Extents[2] <= 0
}

// Encapsulate grows b to contain o. An empty b becomes o.
func (b Bounds) Encapsulate(o Bounds) Bounds {
	if b.IsEmpty() {
		return o
	}
	var out Bounds
	for i := 0; i < 3; i++ {
		lo := min(b.Center[i]-b.Extents[i], o.Center[i]-o.Extents[i])
		hi := max(b.Center[i]+b.Extents[i], o.Center[i]+o.Extents[i])
		out.Center[i] = (lo + hi) * 0.5
		out.Extents[i] = (hi - lo) * 0.5
	}
	return out
}
