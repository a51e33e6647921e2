package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"github.com/ecopia-map/pcstreamer/internal/geometry"
)

// Per frame camera state handed to the loader by the render loop
type Camera struct {
	Position       r3.Vector
	View           mgl64.Mat4
	Projection     mgl64.Mat4
	Fovy           float64 // vertical field of view in radians
	Near           float64
	Far            float64
	ViewportWidth  int
	ViewportHeight int
}

// Builds a perspective camera at eye looking at target with +z up, or +y up
// when looking straight along the z axis
func NewLookAtCamera(eye, target r3.Vector, fovy, near, far float64, width, height int) Camera {
	aspect := 1.0
	if height > 0 {
		aspect = float64(width) / float64(height)
	}
	up := mgl64.Vec3{0, 0, 1}
	if dir := target.Sub(eye).Normalize(); math.Abs(dir.Z) > 0.999 {
		up = mgl64.Vec3{0, 1, 0}
	}
	return Camera{
		Position:       eye,
		View:           mgl64.LookAtV(toVec3(eye), toVec3(target), up),
		Projection:     mgl64.Perspective(fovy, aspect, near, far),
		Fovy:           fovy,
		Near:           near,
		Far:            far,
		ViewportWidth:  width,
		ViewportHeight: height,
	}
}

func toVec3(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func (c Camera) ViewProjection() mgl64.Mat4 {
	return c.Projection.Mul4(c.View)
}

func (c Camera) Frustum() geometry.Frustum {
	return geometry.NewFrustum(c.ViewProjection())
}

// Screen size in pixels of the sphere seen by this camera
func (c Camera) ProjectedSize(center r3.Vector, radius float64) float64 {
	return geometry.ProjectedSize(c.Position, c.Fovy, float64(c.ViewportHeight), center, radius)
}
