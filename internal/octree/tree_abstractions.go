package octree

// Node is any tree node exposing its eight child slots. Empty slots return the
// zero value of N (nil for pointer nodes).
type Node[N any] interface {
	comparable
	Child(pos int) N
}

// Child slots per octant
const ChildCount = 8
