package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// Axis aligned bounding box. The mid values are cached because they are read
// for every point pushed down the tree.
type BoundingBox struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
	Zmin, Zmax float64
	Xmid, Ymid, Zmid float64
}

// Builds a new bounding box from its extents
func NewBoundingBox(minX, maxX, minY, maxY, minZ, maxZ float64) *BoundingBox {
	return &BoundingBox{
		Xmin: minX,
		Xmax: maxX,
		Ymin: minY,
		Ymax: maxY,
		Zmin: minZ,
		Zmax: maxZ,
		Xmid: (minX + maxX) / 2,
		Ymid: (minY + maxY) / 2,
		Zmid: (minZ + maxZ) / 2,
	}
}

// Builds the bounding box of a cube given its center and edge length
func NewBoundingBoxFromCube(center r3.Vector, size float64) *BoundingBox {
	half := size / 2
	return NewBoundingBox(
		center.X-half, center.X+half,
		center.Y-half, center.Y+half,
		center.Z-half, center.Z+half,
	)
}

// Returns the bounding box of the given octant of the parent box.
// bit0 selects the upper x half, bit1 the upper y half, bit2 the upper z half.
func NewBoundingBoxFromParent(parent *BoundingBox, octant *uint8) *BoundingBox {
	xmin, xmax := parent.Xmin, parent.Xmid
	ymin, ymax := parent.Ymin, parent.Ymid
	zmin, zmax := parent.Zmin, parent.Zmid
	if *octant&1 != 0 {
		xmin, xmax = parent.Xmid, parent.Xmax
	}
	if *octant&2 != 0 {
		ymin, ymax = parent.Ymid, parent.Ymax
	}
	if *octant&4 != 0 {
		zmin, zmax = parent.Zmid, parent.Zmax
	}
	return NewBoundingBox(xmin, xmax, ymin, ymax, zmin, zmax)
}

func (b *BoundingBox) Center() r3.Vector {
	return r3.Vector{X: b.Xmid, Y: b.Ymid, Z: b.Zmid}
}

// Returns the length of the longest edge
func (b *BoundingBox) MaxEdge() float64 {
	return math.Max(b.Xmax-b.Xmin, math.Max(b.Ymax-b.Ymin, b.Zmax-b.Zmin))
}

// Returns true if the point lies inside the box, borders included
func (b *BoundingBox) Contains(p r3.Vector) bool {
	return p.X >= b.Xmin && p.X <= b.Xmax &&
		p.Y >= b.Ymin && p.Y <= b.Ymax &&
		p.Z >= b.Zmin && p.Z <= b.Zmax
}

// Returns a new box grown to include the given point
func (b *BoundingBox) Extend(p r3.Vector) *BoundingBox {
	return NewBoundingBox(
		math.Min(b.Xmin, p.X), math.Max(b.Xmax, p.X),
		math.Min(b.Ymin, p.Y), math.Max(b.Ymax, p.Y),
		math.Min(b.Zmin, p.Z), math.Max(b.Zmax, p.Z),
	)
}

// Returns the smallest cube sharing the box center that encloses the box.
// Octrees are built on cubes so that every octant keeps the same aspect.
func (b *BoundingBox) EnclosingCube() (r3.Vector, float64) {
	return b.Center(), b.MaxEdge()
}
