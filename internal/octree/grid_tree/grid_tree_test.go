package grid_tree

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/ecopia-map/pcstreamer/internal/converters"
	"github.com/ecopia-map/pcstreamer/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/octree"
)

func latticeTree(t *testing.T, side int, opts Options) *GridTree {
	t.Helper()
	tree := NewGridTree(nil, nil, opts)
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			for z := 0; z < side; z++ {
				p := data.NewPoint(float64(x), float64(y), float64(z), uint8(x), uint8(y), uint8(z), 0)
				test.That(t, tree.AddPoint(p, 0), test.ShouldBeNil)
			}
		}
	}
	test.That(t, tree.Build(), test.ShouldBeNil)
	return tree
}

func TestSmallCloudIsASingleLeaf(t *testing.T) {
	tree := latticeTree(t, 2, Options{MaxPointsPerNode: 100})
	root := tree.GetRootNode()
	test.That(t, root.IsLeaf, test.ShouldBeTrue)
	test.That(t, root.HasChildren(), test.ShouldBeFalse)
	test.That(t, tree.Points(root), test.ShouldHaveLength, 8)
	test.That(t, tree.NumberOfPoints(), test.ShouldEqual, 8)

	center, size, err := tree.RootCube()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, center, test.ShouldResemble, r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})
	test.That(t, size, test.ShouldEqual, 1.0)
}

func TestGridSampling(t *testing.T) {
	opts := Options{MaxPointsPerNode: 16, GridResolution: 2, MaxLevel: 10}
	tree := latticeTree(t, 8, opts)
	test.That(t, tree.IsBuilt(), test.ShouldBeTrue)
	test.That(t, tree.NumberOfPoints(), test.ShouldEqual, 512)

	root := tree.GetRootNode()
	test.That(t, root.HasChildren(), test.ShouldBeTrue)
	// one sample per grid cell of the root
	test.That(t, tree.Points(root), test.ShouldHaveLength, 8)
	test.That(t, tree.Spacing(), test.ShouldEqual, 3.5)

	err := tree.Traverse(func(o *octree.Octant[data.Point]) {
		points := tree.Points(o)
		box := o.BoundingBox()
		for _, p := range points {
			test.That(t, box.Contains(p.Position), test.ShouldBeTrue)
		}
		if o.HasChildren() {
			test.That(t, len(points), test.ShouldBeLessThanOrEqualTo, 8)
		} else {
			test.That(t, o.IsLeaf, test.ShouldBeTrue)
			test.That(t, len(points) <= opts.MaxPointsPerNode || o.Level == opts.MaxLevel, test.ShouldBeTrue)
		}
		if o.Parent != nil {
			test.That(t, len(points), test.ShouldBeGreaterThan, 0)
		}
	})
	test.That(t, err, test.ShouldBeNil)
}

func TestDuplicatePointsStopAtMaxLevel(t *testing.T) {
	tree := NewGridTree(nil, nil, Options{MaxPointsPerNode: 10, GridResolution: 4, MaxLevel: 4})
	for i := 0; i < 100; i++ {
		test.That(t, tree.AddPoint(data.NewPoint(5, 5, 5, 0, 0, 0, 0), 0), test.ShouldBeNil)
	}
	test.That(t, tree.Build(), test.ShouldBeNil)

	var levels []int
	var counts []int
	test.That(t, tree.Traverse(func(o *octree.Octant[data.Point]) {
		levels = append(levels, o.Level)
		counts = append(counts, len(tree.Points(o)))
	}), test.ShouldBeNil)
	test.That(t, levels, test.ShouldResemble, []int{0, 1, 2, 3, 4})
	test.That(t, counts, test.ShouldResemble, []int{1, 1, 1, 1, 96})
}

func TestBuildErrors(t *testing.T) {
	tree := NewGridTree(nil, nil, Options{})
	test.That(t, tree.Build(), test.ShouldEqual, ErrEmpty)
	test.That(t, tree.Traverse(func(*octree.Octant[data.Point]) {}), test.ShouldEqual, ErrNotBuilt)
	_, _, err := tree.RootCube()
	test.That(t, err, test.ShouldEqual, ErrNotBuilt)

	test.That(t, tree.AddPoint(data.NewPoint(0, 0, 0, 0, 0, 0, 0), 0), test.ShouldBeNil)
	test.That(t, tree.Build(), test.ShouldBeNil)
	test.That(t, tree.Build(), test.ShouldEqual, ErrAlreadyBuilt)
	test.That(t, tree.AddPoint(data.NewPoint(1, 1, 1, 0, 0, 0, 0), 0), test.ShouldEqual, ErrAlreadyBuilt)
}

type shiftConverter struct {
	calls []int
}

func (c *shiftConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord r3.Vector) (r3.Vector, error) {
	c.calls = append(c.calls, targetSrid)
	if targetSrid == converters.WGS84Srid {
		return r3.Vector{X: 9, Y: 45, Z: coord.Z}, nil
	}
	return coord.Add(r3.Vector{X: 1000}), nil
}

func (c *shiftConverter) Cleanup() {}

func TestAddPointReprojects(t *testing.T) {
	conv := &shiftConverter{}
	tree := NewGridTree(conv, offset_elevation_corrector.NewOffsetElevationCorrector(5), Options{TargetSrid: converters.WorldMercatorSrid})
	test.That(t, tree.AddPoint(data.NewPoint(1, 2, 3, 0, 0, 0, 0), 32632), test.ShouldBeNil)
	test.That(t, conv.calls, test.ShouldResemble, []int{converters.WGS84Srid, converters.WorldMercatorSrid})

	// points already in the target system are only corrected
	test.That(t, tree.AddPoint(data.NewPoint(1001, 2, 0, 0, 0, 0, 0), converters.WorldMercatorSrid), test.ShouldBeNil)
	test.That(t, conv.calls, test.ShouldHaveLength, 2)

	test.That(t, tree.Build(), test.ShouldBeNil)
	points := tree.Points(tree.GetRootNode())
	test.That(t, points, test.ShouldHaveLength, 2)
	test.That(t, points[0].Position, test.ShouldResemble, r3.Vector{X: 1001, Y: 2, Z: 8})
	test.That(t, points[1].Position, test.ShouldResemble, r3.Vector{X: 1001, Y: 2, Z: 5})
}
