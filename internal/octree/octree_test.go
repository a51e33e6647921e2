package octree

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func newPointTree(maxItems int) *Tree[r3.Vector] {
	return &Tree[r3.Vector]{
		Root:     NewRoot[r3.Vector](r3.Vector{}, 100),
		MaxLevel: 10,
		ChildPosition: func(o *Octant[r3.Vector], p r3.Vector) int {
			return ChildIndex(o.Center, p)
		},
		Terminate: func(o *Octant[r3.Vector]) bool {
			return len(o.Payload) <= maxItems
		},
	}
}

func TestChildGeometry(t *testing.T) {
	root := NewRoot[int](r3.Vector{}, 100)
	for i := 0; i < ChildCount; i++ {
		root.CreateChild(i)
	}

	for i, child := range root.Children {
		test.That(t, child.Size, test.ShouldEqual, root.Size/2)
		test.That(t, child.Level, test.ShouldEqual, root.Level+1)
		test.That(t, child.Parent, test.ShouldEqual, root)

		// the child center sits one child half-size away from the parent
		// center along every axis
		offset := child.Size / 2
		expected := r3.Vector{X: -offset, Y: -offset, Z: -offset}
		if i&1 != 0 {
			expected.X = offset
		}
		if i&2 != 0 {
			expected.Y = offset
		}
		if i&4 != 0 {
			expected.Z = offset
		}
		test.That(t, child.Center, test.ShouldResemble, expected)
		test.That(t, ChildIndex(root.Center, child.Center), test.ShouldEqual, i)
	}

	test.That(t, root.Children[0].Center, test.ShouldResemble, r3.Vector{X: -25, Y: -25, Z: -25})
	test.That(t, root.Children[7].Center, test.ShouldResemble, r3.Vector{X: 25, Y: 25, Z: 25})

	// creating an existing child is a no-op
	test.That(t, root.CreateChild(3), test.ShouldEqual, root.Children[3])
}

func TestOctantIDs(t *testing.T) {
	root := NewRoot[int](r3.Vector{}, 8)
	grandChild := root.CreateChild(0).CreateChild(7)
	test.That(t, root.ID(), test.ShouldEqual, RootID)
	test.That(t, grandChild.ID(), test.ShouldEqual, OctantID("r07"))
	test.That(t, grandChild.ID().Level(), test.ShouldEqual, 2)
	test.That(t, grandChild.ID().PosInParent(), test.ShouldEqual, 7)

	parent, ok := grandChild.ID().Parent()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, parent, test.ShouldEqual, OctantID("r0"))
	_, ok = RootID.Parent()
	test.That(t, ok, test.ShouldBeFalse)

	id, err := ParseOctantID("r1234567")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, id.Child(0), test.ShouldEqual, OctantID("r12345670"))

	_, err = ParseOctantID("x0")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = ParseOctantID("r08")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSubdivideKeepsEveryItem(t *testing.T) {
	tree := newPointTree(2)
	points := []r3.Vector{
		{X: -40, Y: -40, Z: -40},
		{X: -30, Y: -30, Z: -30},
		{X: -10, Y: -10, Z: -10},
		{X: 40, Y: 40, Z: 40},
		{X: 10, Y: -10, Z: 10},
		{X: 45, Y: 45, Z: 45},
		{X: 46, Y: 46, Z: 46},
	}
	tree.Root.Payload = append(tree.Root.Payload, points...)

	test.That(t, tree.Subdivide(tree.Root), test.ShouldBeNil)
	test.That(t, tree.Root.Payload, test.ShouldBeEmpty)

	seen := map[r3.Vector]int{}
	err := tree.Traverse(func(o *Octant[r3.Vector]) {
		for _, p := range o.Payload {
			seen[p]++
			test.That(t, o.BoundingBox().Contains(p), test.ShouldBeTrue)
		}
		if len(o.Payload) > 0 {
			test.That(t, o.IsLeaf, test.ShouldBeTrue)
		}
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(seen), test.ShouldEqual, len(points))
	for _, p := range points {
		test.That(t, seen[p], test.ShouldEqual, 1)
	}
}

func TestSubdivideHandlePayload(t *testing.T) {
	retained := map[OctantID][]int{}
	tree := &Tree[int]{
		Root:     NewRoot[int](r3.Vector{}, 8),
		MaxLevel: 1,
		ChildPosition: func(o *Octant[int], item int) int {
			return item % ChildCount
		},
		HandlePayload: func(parent, child *Octant[int], item int) {
			if item >= ChildCount {
				retained[parent.ID()] = append(retained[parent.ID()], item)
				return
			}
			child.Payload = append(child.Payload, item)
		},
	}
	tree.Root.Payload = []int{0, 1, 9, 7}

	test.That(t, tree.Subdivide(tree.Root), test.ShouldBeNil)
	test.That(t, retained[RootID], test.ShouldResemble, []int{9})
	test.That(t, tree.Root.Children[1].Payload, test.ShouldResemble, []int{1})
	test.That(t, tree.Root.Children[1].IsLeaf, test.ShouldBeTrue)
	test.That(t, tree.Count(), test.ShouldEqual, 4)
}

func TestSubdividePreconditions(t *testing.T) {
	tree := &Tree[int]{Root: NewRoot[int](r3.Vector{}, 1)}
	test.That(t, tree.Subdivide(tree.Root), test.ShouldEqual, ErrNoChildPosition)

	tree.ChildPosition = func(*Octant[int], int) int { return 9 }
	test.That(t, tree.Subdivide(tree.Root), test.ShouldEqual, ErrNoTermination)

	tree.MaxLevel = 2
	tree.Root.Payload = []int{1}
	test.That(t, tree.Subdivide(tree.Root), test.ShouldNotBeNil)
}

func TestTraverseOrderAndIdempotence(t *testing.T) {
	root := NewRoot[int](r3.Vector{}, 8)
	c0 := root.CreateChild(0)
	root.CreateChild(5)
	c0.CreateChild(2)
	c0.CreateChild(1)

	visit := func() []OctantID {
		var ids []OctantID
		test.That(t, Traverse(root, func(o *Octant[int]) { ids = append(ids, o.ID()) }), test.ShouldBeNil)
		return ids
	}
	first := visit()
	test.That(t, first, test.ShouldResemble, []OctantID{"r", "r0", "r01", "r02", "r5"})
	test.That(t, visit(), test.ShouldResemble, first)

	test.That(t, Traverse[*Octant[int]](root, nil), test.ShouldEqual, ErrNilCallback)
	test.That(t, TraverseWhile[*Octant[int]](root, nil), test.ShouldEqual, ErrNilCallback)
}

func TestTraverseWhilePrunes(t *testing.T) {
	root := NewRoot[int](r3.Vector{}, 8)
	root.CreateChild(0).CreateChild(0)
	root.CreateChild(1).CreateChild(1)

	var ids []OctantID
	err := TraverseWhile(root, func(o *Octant[int]) bool {
		ids = append(ids, o.ID())
		return o.ID() != "r0"
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ids, test.ShouldResemble, []OctantID{"r", "r0", "r1", "r11"})

	var empty *Octant[int]
	test.That(t, Traverse(empty, func(*Octant[int]) { t.Fatal("unexpected visit") }), test.ShouldBeNil)
}
