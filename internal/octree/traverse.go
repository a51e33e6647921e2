package octree

// Visits every node reachable from start depth first, parents before their
// children and children in ascending position order. The callback is called
// exactly once per node.
func Traverse[N Node[N]](start N, callback func(N)) error {
	if callback == nil {
		return ErrNilCallback
	}
	return TraverseWhile(start, func(n N) bool {
		callback(n)
		return true
	})
}

// Same visiting order as Traverse, but the children of a node are skipped
// when visit returns false.
func TraverseWhile[N Node[N]](start N, visit func(N) bool) error {
	if visit == nil {
		return ErrNilCallback
	}
	var none N
	if start == none {
		return nil
	}

	candidates := []N{start}
	for len(candidates) > 0 {
		node := candidates[len(candidates)-1]
		candidates = candidates[:len(candidates)-1]

		if !visit(node) {
			continue
		}

		// pushed in reverse so that child 0 is popped first
		for i := ChildCount - 1; i >= 0; i-- {
			if child := node.Child(i); child != none {
				candidates = append(candidates, child)
			}
		}
	}
	return nil
}
