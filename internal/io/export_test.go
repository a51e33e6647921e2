package io

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/octree"
	"github.com/ecopia-map/pcstreamer/internal/octree/grid_tree"
	"github.com/ecopia-map/pcstreamer/internal/ooc"
	"github.com/ecopia-map/pcstreamer/internal/storage"
)

func builtTree(t *testing.T) *grid_tree.GridTree {
	t.Helper()
	tree := grid_tree.NewGridTree(nil, nil, grid_tree.Options{MaxPointsPerNode: 16, GridResolution: 2})
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			for z := 0; z < 8; z++ {
				p := data.NewPoint(float64(x), float64(y), float64(z), uint8(10*x), uint8(10*y), uint8(10*z), 0)
				test.That(t, tree.AddPoint(p, 0), test.ShouldBeNil)
			}
		}
	}
	test.That(t, tree.Build(), test.ShouldBeNil)
	return tree
}

func testFormat(t *testing.T) data.PointFormat {
	t.Helper()
	format, err := data.FormatOf(data.Pos64Col32, data.LittleEndian)
	test.That(t, err, test.ShouldBeNil)
	return format
}

func TestWriteTreeIsReadable(t *testing.T) {
	tree := builtTree(t)
	s := storage.NewMemStorage()
	format := testFormat(t)

	manifest, err := WriteTree(tree, s, format, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, manifest.TotalPoints, test.ShouldEqual, 512)

	var ids []octree.OctantID
	test.That(t, tree.Traverse(func(o *octree.Octant[data.Point]) {
		ids = append(ids, o.ID())
	}), test.ShouldBeNil)
	test.That(t, manifest.OctantCount, test.ShouldEqual, len(ids))

	reader := ooc.NewReader(s)
	scene, err := reader.GetScene()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scene.NumberOfOctants(), test.ShouldEqual, len(ids))
	test.That(t, scene.Format, test.ShouldResemble, format)
	test.That(t, scene.Spacing, test.ShouldEqual, 3.5)

	total := 0
	for i, o := range scene.Octants {
		test.That(t, o.ID, test.ShouldEqual, ids[i])
		payload, err := reader.LoadOctant(o)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, payload.Count, test.ShouldEqual, o.NumberOfPoints)

		acc := payload.Accessor()
		box := o.BoundingBox()
		for j := 0; j < payload.Count; j++ {
			p := acc.Decode(acc.Record(payload.Records, j))
			test.That(t, box.Contains(p.Position), test.ShouldBeTrue)
			test.That(t, p.Color.R, test.ShouldEqual, uint8(10*p.Position.X))
		}
		total += payload.Count
	}
	test.That(t, total, test.ShouldEqual, 512)
}

func TestWriteTreeNotBuilt(t *testing.T) {
	tree := grid_tree.NewGridTree(nil, nil, grid_tree.Options{})
	_, err := WriteTree(tree, storage.NewMemStorage(), testFormat(t), 1)
	test.That(t, err, test.ShouldEqual, grid_tree.ErrNotBuilt)
}

type failingStorage struct {
	storage.Storage
}

func (s failingStorage) Create(name string) (io.WriteCloser, error) {
	return nil, errors.Errorf("disk full while creating %s", name)
}

func TestWriteTreeReportsConsumerErrors(t *testing.T) {
	tree := builtTree(t)
	s := failingStorage{Storage: storage.NewMemStorage()}

	_, err := WriteTree(tree, s, testFormat(t), 2)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "disk full")

	// no manifest, the partial octree is not readable
	exists, err := s.Exists(ooc.ManifestFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, exists, test.ShouldBeFalse)
}
