package pkg

import (
	"path/filepath"
	"testing"

	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/octree"
	"github.com/ecopia-map/pcstreamer/internal/octree/grid_tree"
)

// Writes a side^3 lattice starting at origin, colored by position when
// withColor is set
func writeLatticeLas(t *testing.T, fn string, origin r3.Vector, side int, withColor bool) {
	t.Helper()
	test.That(t, writeLas(fn, origin, side, withColor), test.ShouldBeNil)
}

func writeLas(fn string, origin r3.Vector, side int, withColor bool) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, lf.Close())
	}()

	pointFormatID := byte(0)
	if withColor {
		pointFormatID = 2
	}
	if err = lf.AddHeader(lidario.LasHeader{PointFormatID: pointFormatID}); err != nil {
		return err
	}
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			for z := 0; z < side; z++ {
				pr0 := &lidario.PointRecord0{
					X:             origin.X + float64(x),
					Y:             origin.Y + float64(y),
					Z:             origin.Z + float64(z),
					Intensity:     uint16(x + y + z),
					BitField:      lidario.PointBitField{Value: (1) | (1 << 3)},
					PointSourceID: 1,
				}
				var lp lidario.LasPointer = pr0
				if withColor {
					lp = &lidario.PointRecord2{
						PointRecord0: pr0,
						RGB: &lidario.RgbData{
							Red:   uint16(10 * x * 256),
							Green: uint16(10 * y * 256),
							Blue:  uint16(10 * z * 256),
						},
					}
				}
				if err = lf.AddLasPoint(lp); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func TestReadLasWithColors(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "colored.las")
	writeLatticeLas(t, fn, r3.Vector{X: 100, Y: 200, Z: 10}, 4, true)

	tree := grid_tree.NewGridTree(nil, nil, grid_tree.Options{MaxPointsPerNode: 1000})
	n, err := readLas(fn, 0, false, tree)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 64)
	test.That(t, tree.Build(), test.ShouldBeNil)

	points := tree.Points(tree.GetRootNode())
	test.That(t, points, test.ShouldHaveLength, 64)
	for _, p := range points {
		test.That(t, p.HasColor, test.ShouldBeTrue)
		dx := p.Position.X - 100
		test.That(t, float64(p.Color.R), test.ShouldAlmostEqual, 10*dx, 1e-2)
		test.That(t, p.Position.Z, test.ShouldBeBetweenOrEqual, 9.99, 13.01)
	}
}

func TestReadLasWithoutColors(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "plain.las")
	writeLatticeLas(t, fn, r3.Vector{}, 3, false)

	tree := grid_tree.NewGridTree(nil, nil, grid_tree.Options{MaxPointsPerNode: 4, GridResolution: 2})
	n, err := readLas(fn, 0, false, tree)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 27)
	test.That(t, tree.Build(), test.ShouldBeNil)

	test.That(t, tree.Traverse(func(o *octree.Octant[data.Point]) {
		for _, p := range tree.Points(o) {
			test.That(t, p.HasColor, test.ShouldBeFalse)
		}
	}), test.ShouldBeNil)
	test.That(t, tree.NumberOfPoints(), test.ShouldEqual, 27)
}

func TestReadLasMissingFile(t *testing.T) {
	tree := grid_tree.NewGridTree(nil, nil, grid_tree.Options{})
	_, err := readLas(filepath.Join(t.TempDir(), "missing.las"), 0, false, tree)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestColorComponent(t *testing.T) {
	test.That(t, colorComponent(200, true), test.ShouldEqual, uint8(200))
	test.That(t, colorComponent(200*256, false), test.ShouldEqual, uint8(200))
}
