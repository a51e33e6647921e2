package render

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/ecopia-map/pcstreamer/internal/geometry"
)

func TestHeadlessGPUBuffers(t *testing.T) {
	gpu := NewHeadlessGPU()
	h, err := gpu.CreateBuffer(make([]byte, 48), 24)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gpu.HasBuffer(h), test.ShouldBeTrue)
	test.That(t, gpu.BufferBytes(), test.ShouldEqual, 48)

	_, err = gpu.CreateBuffer(make([]byte, 50), 24)
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, gpu.UpdateBuffer(h, make([]byte, 24)), test.ShouldBeNil)
	test.That(t, gpu.BufferBytes(), test.ShouldEqual, 24)

	test.That(t, gpu.DestroyBuffer(h), test.ShouldBeNil)
	test.That(t, gpu.LiveBuffers(), test.ShouldEqual, 0)
	test.That(t, errors.Cause(gpu.DestroyBuffer(h)), test.ShouldEqual, ErrUnknownBuffer)
	test.That(t, gpu.Uploads(), test.ShouldEqual, 1)

	gpu.FailUploads = errors.New("device lost")
	_, err = gpu.CreateBuffer(make([]byte, 24), 24)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestHeadlessGPUTextures(t *testing.T) {
	gpu := NewHeadlessGPU()
	_, err := gpu.CreateTexture(3, 1, PixelFormatRGBA32UI, make([]byte, 47))
	test.That(t, errors.Cause(err), test.ShouldEqual, ErrTextureSize)

	h, err := gpu.CreateTexture(3, 1, PixelFormatRGBA32UI, make([]byte, 48))
	test.That(t, err, test.ShouldBeNil)

	update := make([]byte, 48)
	update[0] = 7
	test.That(t, gpu.UpdateTexture(h, update), test.ShouldBeNil)
	content, ok := gpu.TextureData(h)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, content[0], test.ShouldEqual, byte(7))

	test.That(t, gpu.UpdateTexture(h, make([]byte, 16)), test.ShouldNotBeNil)
	test.That(t, gpu.DestroyTexture(h), test.ShouldBeNil)
	_, ok = gpu.TextureData(h)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestSceneGraph(t *testing.T) {
	scene := NewScene()
	cloud := NewSceneNode("PointCloud")
	octant := NewSceneNode("r0", PointMesh{Buffer: 3, Points: 10})
	cloud.AddChild(octant)
	scene.Attach(cloud)

	test.That(t, scene.FindByName("r0"), test.ShouldEqual, octant)
	mesh, ok := ComponentOf[PointMesh](octant)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, mesh.Points, test.ShouldEqual, 10)
	_, ok = ComponentOf[Wireframe](octant)
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, scene.Detach(cloud), test.ShouldBeTrue)
	test.That(t, scene.Detach(cloud), test.ShouldBeFalse)
	test.That(t, scene.FindByName("r0"), test.ShouldBeNil)
	test.That(t, cloud.Parent, test.ShouldBeNil)
}

func TestParamSet(t *testing.T) {
	params := NewParamSet()
	var sink EffectParams = params
	sink.SetEffectParam(ParamOctreeRootLength, 100.0)
	v, ok := params.Get(ParamOctreeRootLength)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 100.0)
	_, ok = params.Get(ParamOctreeTex)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestCamera(t *testing.T) {
	cam := NewLookAtCamera(r3.Vector{Z: 100}, r3.Vector{}, math.Pi/3, 1, 1000, 800, 600)
	frustum := cam.Frustum()
	test.That(t, frustum.IntersectsBox(geometry.NewBoundingBoxFromCube(r3.Vector{}, 10)), test.ShouldBeTrue)
	test.That(t, frustum.IntersectsBox(geometry.NewBoundingBoxFromCube(r3.Vector{Z: 200}, 10)), test.ShouldBeFalse)

	near := cam.ProjectedSize(r3.Vector{}, 10)
	far := cam.ProjectedSize(r3.Vector{Z: -400}, 10)
	test.That(t, near, test.ShouldBeGreaterThan, far)
	test.That(t, math.IsInf(cam.ProjectedSize(r3.Vector{Z: 100}, 1), 1), test.ShouldBeTrue)
}
