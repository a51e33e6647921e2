package ooc

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/octree"
)

var (
	half    = decimal.RequireFromString("0.5")
	quarter = decimal.RequireFromString("0.25")
)

// Accumulates the octants of a manifest. Centers and sizes are derived from
// the root cube with exact decimal arithmetic so the result always nests.
type ManifestBuilder struct {
	manifest *Manifest
	index    map[octree.OctantID]int
}

func NewManifestBuilder(format data.PointFormat, center r3.Vector, size float64, spacing float64) *ManifestBuilder {
	return &ManifestBuilder{
		manifest: &Manifest{
			Version:   ManifestVersion,
			PointType: format.Type.String(),
			ByteOrder: format.ByteOrder.String(),
			Spacing:   decimal.NewFromFloat(spacing),
			Root: ManifestCube{
				Center: DecimalVector(center),
				Size:   decimal.NewFromFloat(size),
			},
		},
		index: map[octree.OctantID]int{},
	}
}

// Adds an octant, its parent must have been added before
func (b *ManifestBuilder) Add(id octree.OctantID, file string, points int) error {
	if _, ok := b.index[id]; ok {
		return errors.Errorf("octant %s added twice", id)
	}
	entry := ManifestOctant{
		ID:     string(id),
		Level:  id.Level(),
		File:   file,
		Points: points,
	}
	if parentID, ok := id.Parent(); ok {
		pi, found := b.index[parentID]
		if !found {
			return errors.Errorf("parent of octant %s has not been added", id)
		}
		parent := &b.manifest.Octants[pi]
		entry.Parent = string(parentID)
		entry.Size = parent.Size.Mul(half)
		offset := parent.Size.Mul(quarter)
		pos := id.PosInParent()
		for axis := 0; axis < 3; axis++ {
			if pos&(1<<axis) != 0 {
				entry.Center[axis] = parent.Center[axis].Add(offset)
			} else {
				entry.Center[axis] = parent.Center[axis].Sub(offset)
			}
		}
		parent.Children = append(parent.Children, string(id))
	} else {
		entry.Center = b.manifest.Root.Center
		entry.Size = b.manifest.Root.Size
	}

	b.index[id] = len(b.manifest.Octants)
	b.manifest.Octants = append(b.manifest.Octants, entry)
	b.manifest.TotalPoints += int64(points)
	return nil
}

func (b *ManifestBuilder) Manifest() *Manifest {
	b.manifest.OctantCount = len(b.manifest.Octants)
	return b.manifest
}
