package grid_tree

import (
	"sync"

	"github.com/golang/geo/r3"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ecopia-map/pcstreamer/internal/converters"
	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/geometry"
	"github.com/ecopia-map/pcstreamer/internal/octree"
)

const (
	DefaultMaxPointsPerNode = 50000
	DefaultGridResolution   = 128
	DefaultMaxLevel         = 16
)

var (
	ErrAlreadyBuilt = errors.New("grid tree: already built")
	ErrNotBuilt     = errors.New("grid tree: not built")
	ErrEmpty        = errors.New("grid tree: no points were added")
)

type Options struct {
	// Points are reprojected from their srid to this one before indexing
	TargetSrid int
	// Octants holding at most this many points are not subdivided
	MaxPointsPerNode int
	// Number of grid cells per edge of every inner octant
	GridResolution int
	MaxLevel       int
}

func (o Options) withDefaults() Options {
	if o.MaxPointsPerNode <= 0 {
		o.MaxPointsPerNode = DefaultMaxPointsPerNode
	}
	if o.GridResolution <= 0 {
		o.GridResolution = DefaultGridResolution
	}
	if o.MaxLevel <= 0 {
		o.MaxLevel = DefaultMaxLevel
	}
	return o
}

// GridTree collects the points of a cloud and organizes them in an octree
// where every inner octant holds a grid sampled level of detail of its
// subtree and the leaves hold the remaining points.
type GridTree struct {
	opts                Options
	coordinateConverter converters.CoordinateConverter
	elevationCorrector  converters.ElevationCorrector

	mu     sync.Mutex
	points []data.Point
	bounds *geometry.BoundingBox

	tree  *octree.Tree[data.Point]
	nodes map[*octree.Octant[data.Point]]*GridNode
	built bool
}

func NewGridTree(
	coordinateConverter converters.CoordinateConverter,
	elevationCorrector converters.ElevationCorrector,
	opts Options,
) *GridTree {
	return &GridTree{
		opts:                opts.withDefaults(),
		coordinateConverter: coordinateConverter,
		elevationCorrector:  elevationCorrector,
		nodes:               map[*octree.Octant[data.Point]]*GridNode{},
	}
}

// Reprojects the point to the target srid, corrects its elevation and stores
// it. Safe for concurrent use until Build is called.
func (t *GridTree) AddPoint(p data.Point, srid int) error {
	if t.coordinateConverter != nil && t.opts.TargetSrid != 0 && srid != t.opts.TargetSrid {
		wgs84, err := t.coordinateConverter.ConvertCoordinateSrid(srid, converters.WGS84Srid, p.Position)
		if err != nil {
			return err
		}
		if t.elevationCorrector != nil {
			p.Position.Z = t.elevationCorrector.CorrectElevation(wgs84.X, wgs84.Y, wgs84.Z)
		}
		converted, err := t.coordinateConverter.ConvertCoordinateSrid(srid, t.opts.TargetSrid, p.Position)
		if err != nil {
			return err
		}
		p.Position = converted
	} else if t.elevationCorrector != nil {
		p.Position.Z = t.elevationCorrector.CorrectElevation(p.Position.X, p.Position.Y, p.Position.Z)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.built {
		return ErrAlreadyBuilt
	}
	if t.bounds == nil {
		t.bounds = geometry.NewBoundingBox(
			p.Position.X, p.Position.X,
			p.Position.Y, p.Position.Y,
			p.Position.Z, p.Position.Z,
		)
	} else {
		t.bounds = t.bounds.Extend(p.Position)
	}
	t.points = append(t.points, p)
	return nil
}

// Builds the hierarchical structure. The root cube encloses the bounding box
// of all the points added so far.
func (t *GridTree) Build() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.built {
		return ErrAlreadyBuilt
	}
	if len(t.points) == 0 {
		return ErrEmpty
	}

	center, size := t.bounds.EnclosingCube()
	if size <= 0 {
		size = 1
	}
	glog.Infof("grid tree root cube center %v size %f, %d points", center, size, len(t.points))

	root := octree.NewRoot[data.Point](center, size)
	root.Payload = t.points
	t.points = nil
	t.tree = &octree.Tree[data.Point]{
		Root:     root,
		MaxLevel: t.opts.MaxLevel,
		ChildPosition: func(o *octree.Octant[data.Point], p data.Point) int {
			return octree.ChildIndex(o.Center, p.Position)
		},
		Terminate: func(o *octree.Octant[data.Point]) bool {
			return len(o.Payload) <= t.opts.MaxPointsPerNode
		},
		HandlePayload: t.handlePayload,
	}

	if len(root.Payload) <= t.opts.MaxPointsPerNode {
		root.IsLeaf = true
	} else if err := t.tree.Subdivide(root); err != nil {
		return err
	}
	t.prune(root)
	t.built = true
	return nil
}

// Keeps the point in the grid of the parent when its cell is free, otherwise
// hands it to the child
func (t *GridTree) handlePayload(parent, child *octree.Octant[data.Point], p data.Point) {
	node := t.nodes[parent]
	if node == nil {
		node = newGridNode(parent, t.opts.GridResolution)
		t.nodes[parent] = node
	}
	if !node.pushPoint(p) {
		child.Payload = append(child.Payload, p)
	}
}

// Removes the children that ended up without points nor descendants
func (t *GridTree) prune(o *octree.Octant[data.Point]) bool {
	for i, child := range o.Children {
		if child != nil && t.prune(child) {
			o.Children[i] = nil
		}
	}
	if !o.HasChildren() {
		o.IsLeaf = true
	}
	return o.Parent != nil && o.IsLeaf && len(t.Points(o)) == 0
}

func (t *GridTree) GetRootNode() *octree.Octant[data.Point] {
	if t.tree == nil {
		return nil
	}
	return t.tree.Root
}

func (t *GridTree) IsBuilt() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.built
}

// Points stored by the octant: the grid sample of inner octants, the payload
// left in leaves
func (t *GridTree) Points(o *octree.Octant[data.Point]) []data.Point {
	if node := t.nodes[o]; node != nil {
		return append(node.Points()[:node.NumberOfPoints():node.NumberOfPoints()], o.Payload...)
	}
	return o.Payload
}

// Grid cell size of the root, which is the spacing of the coarsest level
func (t *GridTree) Spacing() float64 {
	if t.tree == nil {
		return 0
	}
	return t.tree.Root.Size / float64(t.opts.GridResolution)
}

// Visits every octant in pre-order
func (t *GridTree) Traverse(callback func(*octree.Octant[data.Point])) error {
	if t.tree == nil {
		return ErrNotBuilt
	}
	return t.tree.Traverse(callback)
}

// Total number of points stored in the tree
func (t *GridTree) NumberOfPoints() int {
	total := 0
	_ = t.Traverse(func(o *octree.Octant[data.Point]) {
		total += len(t.Points(o))
	})
	return total
}

// Returns the cube of the root octant
func (t *GridTree) RootCube() (r3.Vector, float64, error) {
	if t.tree == nil {
		return r3.Vector{}, 0, ErrNotBuilt
	}
	return t.tree.Root.Center, t.tree.Root.Size, nil
}
