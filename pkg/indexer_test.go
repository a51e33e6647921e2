package pkg

import (
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/ecopia-map/pcstreamer/internal/config"
	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/ooc"
	"github.com/ecopia-map/pcstreamer/internal/storage"
	"github.com/ecopia-map/pcstreamer/pkg/algorithm_manager"
	"github.com/ecopia-map/pcstreamer/tools"
)

func indexOptions(input, output string) *config.IndexOptions {
	return &config.IndexOptions{
		Input:            input,
		Output:           output,
		FolderProcessing: true,
		MaxPointsPerNode: 20,
		GridResolution:   2,
		MaxLevel:         8,
		PointType:        data.Pos64Col32IShort,
		ByteOrder:        data.LittleEndian,
		Consumers:        2,
	}
}

func runIndexer(t *testing.T, opts *config.IndexOptions) []*ooc.Manifest {
	t.Helper()
	tools.DisableLogger()
	defer tools.EnableLogger()
	indexer := NewIndexer(tools.NewStandardFileFinder(), algorithm_manager.NewAlgorithmManager(opts))
	manifests, err := indexer.RunIndexer(opts)
	test.That(t, err, test.ShouldBeNil)
	return manifests
}

func sumLoadedPoints(t *testing.T, dir string) int {
	t.Helper()
	reader := ooc.NewReader(storage.NewOSStorage(dir))
	scene, err := reader.GetScene()
	test.That(t, err, test.ShouldBeNil)
	total := 0
	for _, o := range scene.Octants {
		payload, err := reader.LoadOctant(o)
		test.That(t, err, test.ShouldBeNil)
		total += payload.Count
	}
	return total
}

func TestIndexOneOctreePerFile(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeLatticeLas(t, filepath.Join(in, "first.las"), r3.Vector{}, 6, true)
	writeLatticeLas(t, filepath.Join(in, "second.las"), r3.Vector{X: 50}, 4, false)

	manifests := runIndexer(t, indexOptions(in, out))
	test.That(t, manifests, test.ShouldHaveLength, 2)
	test.That(t, manifests[0].TotalPoints, test.ShouldEqual, 216)
	test.That(t, manifests[1].TotalPoints, test.ShouldEqual, 64)
	test.That(t, manifests[0].PointType, test.ShouldEqual, data.Pos64Col32IShort.String())

	test.That(t, sumLoadedPoints(t, filepath.Join(out, "octree-first")), test.ShouldEqual, 216)
	test.That(t, sumLoadedPoints(t, filepath.Join(out, "octree-second")), test.ShouldEqual, 64)
}

func TestIndexMerge(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeLatticeLas(t, filepath.Join(in, "a.las"), r3.Vector{}, 4, true)
	writeLatticeLas(t, filepath.Join(in, "b.las"), r3.Vector{Z: 10}, 4, true)

	opts := indexOptions(in, out)
	opts.Merge = true
	manifests := runIndexer(t, opts)
	test.That(t, manifests, test.ShouldHaveLength, 1)
	test.That(t, manifests[0].TotalPoints, test.ShouldEqual, 128)
	test.That(t, sumLoadedPoints(t, filepath.Join(out, MergedOctreeFolder)), test.ShouldEqual, 128)
}

func TestIndexElevationOffset(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeLatticeLas(t, filepath.Join(in, "a.las"), r3.Vector{}, 2, true)

	opts := indexOptions(in, out)
	opts.ZOffset = 100
	manifests := runIndexer(t, opts)
	test.That(t, manifests, test.ShouldHaveLength, 1)

	reader := ooc.NewReader(storage.NewOSStorage(filepath.Join(out, "octree-a")))
	scene, err := reader.GetScene()
	test.That(t, err, test.ShouldBeNil)
	box := scene.BoundingBox()
	test.That(t, box.Zmin, test.ShouldBeGreaterThanOrEqualTo, 99.0)
}

func TestIndexErrors(t *testing.T) {
	tools.DisableLogger()
	defer tools.EnableLogger()

	empty := t.TempDir()
	opts := indexOptions(empty, t.TempDir())
	indexer := NewIndexer(tools.NewStandardFileFinder(), algorithm_manager.NewAlgorithmManager(opts))
	_, err := indexer.RunIndexer(opts)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no las files")

	_, err = indexer.RunIndexer(&config.IndexOptions{Input: empty})
	test.That(t, err, test.ShouldNotBeNil)
}
