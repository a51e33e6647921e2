package lodtex

import (
	"encoding/binary"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/octree"
	"github.com/ecopia-map/pcstreamer/internal/ooc"
	"github.com/ecopia-map/pcstreamer/internal/render"
)

// r, r0, r03, r7 in pre-order
func smallScene(t *testing.T) *ooc.Scene {
	t.Helper()
	format, _ := data.FormatOf(data.Pos64, data.LittleEndian)
	b := ooc.NewManifestBuilder(format, r3.Vector{}, 16, 1)
	for _, id := range []string{"r", "r0", "r03", "r7"} {
		test.That(t, b.Add(octree.OctantID(id), id+".node", 10), test.ShouldBeNil)
	}
	scene, err := ooc.SceneFromManifest(b.Manifest())
	test.That(t, err, test.ShouldBeNil)
	return scene
}

func TestBuildTexels(t *testing.T) {
	scene := smallScene(t)
	builder := NewBuilder(scene)
	test.That(t, builder.Width(), test.ShouldEqual, 4)

	states := []State{
		{Visible: true, Resident: true, Budget: 10},
		{Visible: true, Resident: false, Budget: 10},
		{Visible: false},
		{Visible: true, Resident: true, Budget: 1 << 40},
	}
	test.That(t, builder.Build(states), test.ShouldBeNil)
	test.That(t, len(builder.Texels()), test.ShouldEqual, 4*TexelSize)

	root := builder.Texel(0)
	test.That(t, root.Visible, test.ShouldBeTrue)
	test.That(t, root.Resident, test.ShouldBeTrue)
	test.That(t, root.Leaf, test.ShouldBeFalse)
	test.That(t, root.ChildMask, test.ShouldEqual, uint8(1|1<<7))
	test.That(t, root.Level, test.ShouldEqual, 0)
	test.That(t, root.Parent, test.ShouldEqual, uint32(NoIndex))
	test.That(t, root.FirstChild, test.ShouldEqual, uint32(1))
	test.That(t, root.Budget, test.ShouldEqual, uint32(10))

	r0 := builder.Texel(1)
	test.That(t, r0.ChildMask, test.ShouldEqual, uint8(0))
	test.That(t, r0.Parent, test.ShouldEqual, uint32(0))
	test.That(t, r0.FirstChild, test.ShouldEqual, uint32(2))

	r03 := builder.Texel(2)
	test.That(t, r03.Visible, test.ShouldBeFalse)
	test.That(t, r03.Leaf, test.ShouldBeTrue)
	test.That(t, r03.Level, test.ShouldEqual, 2)
	test.That(t, r03.FirstChild, test.ShouldEqual, uint32(NoIndex))

	test.That(t, builder.Texel(3).Budget, test.ShouldEqual, uint32(MaxTexelBudget))

	raw := binary.LittleEndian.Uint32(builder.Texels()[2*TexelSize:])
	test.That(t, raw, test.ShouldEqual, uint32(FlagLeaf|2<<16))

	test.That(t, builder.Build(states[:2]), test.ShouldNotBeNil)
}

func TestBuildIsWholesale(t *testing.T) {
	builder := NewBuilder(smallScene(t))
	test.That(t, builder.Build([]State{{Visible: true}, {Visible: true}, {Visible: true}, {Visible: true}}), test.ShouldBeNil)
	test.That(t, builder.Build(make([]State, 4)), test.ShouldBeNil)
	for i := 0; i < 4; i++ {
		test.That(t, builder.Texel(i).Visible, test.ShouldBeFalse)
		test.That(t, builder.Texel(i).ChildMask, test.ShouldEqual, uint8(0))
	}
}

func TestUpload(t *testing.T) {
	gpu := render.NewHeadlessGPU()
	builder := NewBuilder(smallScene(t))
	test.That(t, builder.Build(make([]State, 4)), test.ShouldBeNil)

	h, err := builder.Upload(gpu)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, builder.Build([]State{{Visible: true}, {}, {}, {}}), test.ShouldBeNil)
	again, err := builder.Upload(gpu)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again, test.ShouldEqual, h)

	content, ok := gpu.TextureData(h)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, content, test.ShouldResemble, builder.Texels())

	test.That(t, builder.Release(gpu), test.ShouldBeNil)
	_, ok = gpu.TextureData(h)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, builder.Release(gpu), test.ShouldBeNil)
}
