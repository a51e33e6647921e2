package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Plane in the form ax + by + cz + d = 0 with (a, b, c) pointing inside the volume
type Plane struct {
	Normal r3.Vector
	D      float64
}

// Signed distance of the point from the plane, positive on the inner side
func (p Plane) Distance(v r3.Vector) float64 {
	return p.Normal.Dot(v) + p.D
}

// View frustum as six inward facing planes: left, right, bottom, top, near, far
type Frustum struct {
	Planes [6]Plane
}

// Extracts the frustum planes from a combined projection * view matrix
// (OpenGL clip space, z in [-1, 1]).
func NewFrustum(viewProjection mgl64.Mat4) Frustum {
	r0 := viewProjection.Row(0)
	r1 := viewProjection.Row(1)
	r2 := viewProjection.Row(2)
	r3v := viewProjection.Row(3)

	raw := [6]mgl64.Vec4{
		r3v.Add(r0), // left
		r3v.Sub(r0), // right
		r3v.Add(r1), // bottom
		r3v.Sub(r1), // top
		r3v.Add(r2), // near
		r3v.Sub(r2), // far
	}

	var f Frustum
	for i, p := range raw {
		n := r3.Vector{X: p[0], Y: p[1], Z: p[2]}
		l := n.Norm()
		if l == 0 {
			l = 1
		}
		f.Planes[i] = Plane{Normal: n.Mul(1 / l), D: p[3] / l}
	}
	return f
}

// Returns true if the box is at least partially inside the frustum.
// For every plane only the corner furthest along the plane normal is tested.
func (f Frustum) IntersectsBox(b *BoundingBox) bool {
	for _, p := range f.Planes {
		corner := r3.Vector{X: b.Xmin, Y: b.Ymin, Z: b.Zmin}
		if p.Normal.X >= 0 {
			corner.X = b.Xmax
		}
		if p.Normal.Y >= 0 {
			corner.Y = b.Ymax
		}
		if p.Normal.Z >= 0 {
			corner.Z = b.Zmax
		}
		if p.Distance(corner) < 0 {
			return false
		}
	}
	return true
}

// Returns true if the sphere is at least partially inside the frustum
func (f Frustum) IntersectsSphere(center r3.Vector, radius float64) bool {
	for _, p := range f.Planes {
		if p.Distance(center) < -radius {
			return false
		}
	}
	return true
}

// Radius of the sphere enclosing a cube of the given edge length
func CubeBoundingRadius(size float64) float64 {
	return size * math.Sqrt(3) / 2
}

// Computes the screen space size, in pixels, of a bounding sphere seen by a
// perspective camera. A camera inside the sphere sees it as infinitely large.
func ProjectedSize(eye r3.Vector, fovy float64, viewportHeight float64, center r3.Vector, radius float64) float64 {
	distance := eye.Distance(center)
	if distance <= radius {
		return math.Inf(1)
	}
	slope := math.Tan(fovy / 2)
	return (viewportHeight / 2) * radius / (slope * math.Sqrt(distance*distance-radius*radius))
}
