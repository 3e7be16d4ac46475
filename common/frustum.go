package common

import (
	"math"
)

// Plane is the set of points p with Dot3(Normal, p) + Distance = 0. Points on the
// positive side are inside the frustum.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// Frustum holds the six clip planes of a camera, ordered as the FrustumX indices.
type Frustum struct {
	Planes [6]Plane
}

const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// ExtractFrustumFromMatrix derives normalized clip planes from a column-major
// view-projection matrix. Each plane is the fourth row plus or minus one of the
// first three rows (Gribb/Hartmann).
//
// Parameters:
//   - viewProj: projection * view, 16 column-major floats
//
// Returns:
//   - Frustum: the six planes, normals pointing inward
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	row := func(i int) [4]float32 {
		return [4]float32{viewProj[i], viewProj[4+i], viewProj[8+i], viewProj[12+i]}
	}
	w := row(3)

	var f Frustum
	for i := range f.Planes {
		r := row(i / 2)
		sign := float32(1)
		if i%2 == 1 {
			sign = -1
		}
		p := Plane{
			Normal:   [3]float32{w[0] + sign*r[0], w[1] + sign*r[1], w[2] + sign*r[2]},
			Distance: w[3] + sign*r[3],
		}
		if l := float32(math.Sqrt(float64(Dot3(p.Normal, p.Normal)))); l > 0 {
			p.Normal = [3]float32{p.Normal[0] / l, p.Normal[1] / l, p.Normal[2] / l}
			p.Distance /= l
		}
		f.Planes[i] = p
	}
	return f
}

// ContainsSphere reports whether a sphere intersects or lies inside the frustum.
//
// Parameters:
//   - center: sphere center in world space
//   - radius: sphere radius
//
// Returns:
//   - bool: false only if the sphere is fully outside at least one plane
func (f *Frustum) ContainsSphere(center [3]float32, radius float32) bool {
	for i := range f.Planes {
		p := &f.Planes[i]
		if Dot3(p.Normal, center)+p.Distance < -radius {
			return false
		}
	}
	return true
}

// IntersectsBounds reports whether an axis-aligned box intersects or lies inside the frustum.
// Uses the projected-radius test against each plane.
//
// Parameters:
//   - b: the box to test
//
// Returns:
//   - bool: false only if the box is fully outside at least one plane
func (f *Frustum) IntersectsBounds(b Bounds) bool {
	for i := range f.Planes {
		p := &f.Planes[i]
		r := b.Extents[0]*abs32(p.Normal[0]) + b.Extents[1]*abs32(p.Normal[1]) + b.Extents[2]*abs32(p.Normal[2])
		if Dot3(p.Normal, b.Center)+p.Distance < -r {
			return false
		}
	}
	return true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
