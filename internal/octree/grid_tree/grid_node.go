package grid_tree

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/octree"
)

type gridIndex struct {
	x, y, z int
}

// Points retained by an inner octant. The octant cube is divided in
// resolution^3 cells and each cell keeps the first point falling in it, the
// other points are pushed to the children which have smaller cells.
type GridNode struct {
	min        r3.Vector
	cellSize   float64
	resolution int
	cells      map[gridIndex]struct{}
	points     []data.Point
}

func newGridNode(octant *octree.Octant[data.Point], resolution int) *GridNode {
	half := octant.Size / 2
	return &GridNode{
		min:        octant.Center.Sub(r3.Vector{X: half, Y: half, Z: half}),
		cellSize:   octant.Size / float64(resolution),
		resolution: resolution,
		cells:      map[gridIndex]struct{}{},
	}
}

func (n *GridNode) cellIndex(p r3.Vector) gridIndex {
	return gridIndex{
		x: n.dimensionIndex(p.X - n.min.X),
		y: n.dimensionIndex(p.Y - n.min.Y),
		z: n.dimensionIndex(p.Z - n.min.Z),
	}
}

// points on the upper faces of the cube belong to the last cell
func (n *GridNode) dimensionIndex(offset float64) int {
	i := int(math.Floor(offset / n.cellSize))
	if i < 0 {
		return 0
	}
	if i >= n.resolution {
		return n.resolution - 1
	}
	return i
}

// Keeps the point if its cell is still free, returns false otherwise
func (n *GridNode) pushPoint(p data.Point) bool {
	index := n.cellIndex(p.Position)
	if _, taken := n.cells[index]; taken {
		return false
	}
	n.cells[index] = struct{}{}
	n.points = append(n.points, p)
	return true
}

func (n *GridNode) Points() []data.Point {
	return n.points
}

func (n *GridNode) NumberOfPoints() int {
	return len(n.points)
}
