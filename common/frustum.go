package common

import (
	"math"
)

// Plane is ax + by + cz + d = 0 with (a, b, c) the unit normal and d the
// signed distance from the origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// DistanceTo returns the signed distance from a point to the plane. Positive
// values lie on the normal's side.
//
// Parameters:
//   - x, y, z: the point to test
//
// Returns:
//   - float32: the signed distance
func (p Plane) DistanceTo(x, y, z float32) float32 {
	return p.Normal[0]*x + p.Normal[1]*y + p.Normal[2]*z + p.Distance
}

// Frustum holds the six planes of a view frustum, oriented so the positive
// half-space of every plane is inside.
type Frustum struct {
	Planes [6]Plane
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// ContainsSphere reports whether a sphere intersects the frustum. Spheres
// touching or crossing any plane count as inside.
//
// Parameters:
//   - x, y, z: the sphere center
//   - radius: the sphere radius
//
// Returns:
//   - bool: true if any part of the sphere is inside the frustum
func (f Frustum) ContainsSphere(x, y, z, radius float32) bool {
	for _, p := range f.Planes {
		if p.DistanceTo(x, y, z) < -radius {
			return false
		}
	}
	return true
}

// ExtractFrustumFromMatrix derives the six frustum planes from a combined
// view-projection matrix (column-major, 16 elements) using the
// Gribb/Hartmann row combinations, and normalizes them.
//
// Parameters:
//   - viewProj: the view-projection matrix
//
// Returns:
//   - Frustum: the extracted frustum with unit-length plane normals
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	// Rows of the column-major matrix: row r element c sits at c*4 + r.
	row := func(r int) [4]float32 {
		return [4]float32{viewProj[r], viewProj[4+r], viewProj[8+r], viewProj[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	combine := func(a [4]float32, sign float32) Plane {
		return Plane{
			Normal:   [3]float32{r3[0] + sign*a[0], r3[1] + sign*a[1], r3[2] + sign*a[2]},
			Distance: r3[3] + sign*a[3],
		}
	}

	var f Frustum
	f.Planes[FrustumLeft] = combine(r0, 1)
	f.Planes[FrustumRight] = combine(r0, -1)
	f.Planes[FrustumBottom] = combine(r1, 1)
	f.Planes[FrustumTop] = combine(r1, -1)
	f.Planes[FrustumNear] = combine(r2, 1)
	f.Planes[FrustumFar] = combine(r2, -1)

	for i := range f.Planes {
		f.Planes[i] = normalize(f.Planes[i])
	}
	return f
}

func normalize(p Plane) Plane {
	length := float32(math.Sqrt(float64(
		p.Normal[0]*p.Normal[0] + p.Normal[1]*p.Normal[1] + p.Normal[2]*p.Normal[2])))
	if length <= 0 {
		return p
	}
	inv := 1 / length
	p.Normal[0] *= inv
	p.Normal[1] *= inv
	p.Normal[2] *= inv
	p.Distance *= inv
	return p
}
