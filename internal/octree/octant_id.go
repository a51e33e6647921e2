package octree

import (
	"strings"

	"github.com/pkg/errors"
)

// Identifies an octant by its path from the root: the root is "r" and every
// child appends its position (0-7) in the parent, e.g. "r07".
type OctantID string

const RootID OctantID = "r"

// Returns the id of the child at the given position
func (id OctantID) Child(pos int) OctantID {
	return id + OctantID(rune('0'+pos))
}

// Returns the id of the parent octant, the root has no parent
func (id OctantID) Parent() (OctantID, bool) {
	if len(id) <= 1 {
		return "", false
	}
	return id[:len(id)-1], true
}

// Number of steps from the root
func (id OctantID) Level() int {
	return len(id) - 1
}

// Position of the octant inside its parent, -1 for the root
func (id OctantID) PosInParent() int {
	if len(id) <= 1 {
		return -1
	}
	return int(id[len(id)-1] - '0')
}

func (id OctantID) String() string {
	return string(id)
}

// Validates an octant id read from an external source
func ParseOctantID(value string) (OctantID, error) {
	if !strings.HasPrefix(value, string(RootID)) {
		return "", errors.Errorf("octant id %q must start with %q", value, RootID)
	}
	for i, c := range value[1:] {
		if c < '0' || c > '7' {
			return "", errors.Errorf("octant id %q has invalid child position %q at %d", value, c, i+1)
		}
	}
	return OctantID(value), nil
}
