package ooc

import (
	"github.com/golang/geo/r3"

	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/geometry"
	"github.com/ecopia-map/pcstreamer/internal/octree"
	"github.com/ecopia-map/pcstreamer/internal/render"
)

// Skeleton node of a persisted octree. The shape is immutable once the scene
// is built, the runtime state of the octant is owned by the loader.
type Octant struct {
	ID             octree.OctantID
	Center         r3.Vector
	Size           float64 // edge length
	Level          int
	PosInParent    int
	Parent         *Octant
	Children       [octree.ChildCount]*Octant
	File           string
	NumberOfPoints int
	IsLeaf         bool

	// Position in the fixed pre-order, also the texel of the octant
	TexIndex int
}

func (o *Octant) Child(pos int) *Octant {
	return o.Children[pos]
}

func (o *Octant) BoundingBox() *geometry.BoundingBox {
	return geometry.NewBoundingBoxFromCube(o.Center, o.Size)
}

// Radius of the sphere enclosing the octant cube
func (o *Octant) BoundingRadius() float64 {
	return geometry.CubeBoundingRadius(o.Size)
}

// Index of the first existing child in the fixed pre-order, -1 if none
func (o *Octant) FirstChildIndex() int {
	for _, c := range o.Children {
		if c != nil {
			return c.TexIndex
		}
	}
	return -1
}

// In memory skeleton of a persisted octree
type Scene struct {
	Root        *Octant
	Octants     []*Octant // fixed pre-order, Octants[i].TexIndex == i
	Format      data.PointFormat
	Spacing     float64
	TotalPoints int64
	RootNode    *render.SceneNode

	byID map[octree.OctantID]*Octant
}

func (s *Scene) Octant(id octree.OctantID) (*Octant, bool) {
	o, ok := s.byID[id]
	return o, ok
}

func (s *Scene) NumberOfOctants() int {
	return len(s.Octants)
}

func (s *Scene) BoundingBox() *geometry.BoundingBox {
	return s.Root.BoundingBox()
}
