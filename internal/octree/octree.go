package octree

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ecopia-map/pcstreamer/internal/geometry"
)

var (
	ErrNilCallback          = errors.New("octree: traversal callback cannot be nil")
	ErrNoChildPosition      = errors.New("octree: subdivision needs a child position function")
	ErrNoTermination        = errors.New("octree: subdivision needs a termination condition or a max level")
	ErrInvalidChildPosition = errors.New("octree: child position out of range")
)

// Models a cubic region of space. Octants form the tree: each one owns up to
// eight children placed by ChildIndex and a payload of items of type P.
type Octant[P any] struct {
	Center      r3.Vector
	Size        float64 // edge length
	Level       int
	PosInParent int
	Parent      *Octant[P]
	Children    [ChildCount]*Octant[P]
	Payload     []P
	IsLeaf      bool
}

// Instantiates a root octant
func NewRoot[P any](center r3.Vector, size float64) *Octant[P] {
	return &Octant[P]{
		Center:      center,
		Size:        size,
		PosInParent: -1,
	}
}

func (o *Octant[P]) Child(pos int) *Octant[P] {
	return o.Children[pos]
}

func (o *Octant[P]) IsRoot() bool {
	return o.Parent == nil
}

func (o *Octant[P]) HasChildren() bool {
	for _, c := range o.Children {
		if c != nil {
			return true
		}
	}
	return false
}

// Returns the path id of the octant
func (o *Octant[P]) ID() OctantID {
	if o.Parent == nil {
		return RootID
	}
	return o.Parent.ID().Child(o.PosInParent)
}

func (o *Octant[P]) BoundingBox() *geometry.BoundingBox {
	return geometry.NewBoundingBoxFromCube(o.Center, o.Size)
}

// Creates the child at the given position, the child covers exactly that
// octant of this cube. An existing child is returned unchanged.
func (o *Octant[P]) CreateChild(pos int) *Octant[P] {
	if o.Children[pos] != nil {
		return o.Children[pos]
	}
	child := &Octant[P]{
		Center:      ChildCenter(o.Center, o.Size, pos),
		Size:        o.Size / 2,
		Level:       o.Level + 1,
		PosInParent: pos,
		Parent:      o,
	}
	o.Children[pos] = child
	return child
}

// Returns the index of the child octant containing p.
// bit0 is set for the upper x half, bit1 for y, bit2 for z.
func ChildIndex(center r3.Vector, p r3.Vector) int {
	index := 0
	if p.X > center.X {
		index |= 1
	}
	if p.Y > center.Y {
		index |= 2
	}
	if p.Z > center.Z {
		index |= 4
	}
	return index
}

// Returns the center of the child at pos for a parent cube of the given edge
func ChildCenter(center r3.Vector, size float64, pos int) r3.Vector {
	offset := size / 4
	c := center
	c.X += axisSign(pos&1 != 0) * offset
	c.Y += axisSign(pos&2 != 0) * offset
	c.Z += axisSign(pos&4 != 0) * offset
	return c
}

func axisSign(upper bool) float64 {
	if upper {
		return 1
	}
	return -1
}

// Tree subdivides octants on demand. The functions customise how items are
// classified, what happens to them once classified and when to stop.
type Tree[P any] struct {
	Root *Octant[P]

	// Maximum level of subdivision, 0 means unbounded
	MaxLevel int

	// Returns the index of the child the item falls into
	ChildPosition func(octant *Octant[P], item P) int

	// Returns true when the octant must not be subdivided further
	Terminate func(octant *Octant[P]) bool

	// Receives every item after classification. When nil the item is appended
	// to the child payload.
	HandlePayload func(parent *Octant[P], child *Octant[P], item P)
}

func (t *Tree[P]) stop(o *Octant[P]) bool {
	if t.MaxLevel > 0 && o.Level >= t.MaxLevel {
		return true
	}
	return t.Terminate != nil && t.Terminate(o)
}

// Redistributes the payload of the octant into its children, creating them
// lazily, then recursively subdivides every child unless the termination
// condition holds for it, in which case the child is marked as a leaf.
func (t *Tree[P]) Subdivide(octant *Octant[P]) error {
	if t.ChildPosition == nil {
		return ErrNoChildPosition
	}
	if t.Terminate == nil && t.MaxLevel <= 0 {
		return ErrNoTermination
	}
	return t.subdivide(octant)
}

func (t *Tree[P]) subdivide(octant *Octant[P]) error {
	for _, item := range octant.Payload {
		pos := t.ChildPosition(octant, item)
		if pos < 0 || pos >= ChildCount {
			return errors.Wrapf(ErrInvalidChildPosition, "position %d in octant %s", pos, octant.ID())
		}
		child := octant.CreateChild(pos)
		if t.HandlePayload != nil {
			t.HandlePayload(octant, child, item)
		} else {
			child.Payload = append(child.Payload, item)
		}
	}
	octant.Payload = nil

	for _, child := range octant.Children {
		if child == nil {
			continue
		}
		if t.stop(child) {
			child.IsLeaf = true
			continue
		}
		if err := t.subdivide(child); err != nil {
			return err
		}
	}
	if !octant.HasChildren() {
		octant.IsLeaf = true
	}
	return nil
}

// Visits every node of the tree starting at the root
func (t *Tree[P]) Traverse(callback func(*Octant[P])) error {
	return Traverse(t.Root, callback)
}

// Returns the number of octants reachable from the root
func (t *Tree[P]) Count() int {
	count := 0
	_ = t.Traverse(func(*Octant[P]) { count++ })
	return count
}
