package io

import (
	"path"
	"sync"

	"github.com/google/uuid"

	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/octree"
	"github.com/ecopia-map/pcstreamer/internal/octree/grid_tree"
	"github.com/ecopia-map/pcstreamer/internal/ooc"
)

// Payload file extension
const PayloadExt = ".node"

// Walks a built tree in pre-order, registers every octant in the manifest and
// submits a WorkUnit for each octant holding points
type StandardProducer struct {
	manifest *ooc.ManifestBuilder
	newName  func() string
}

func NewStandardProducer(manifest *ooc.ManifestBuilder) *StandardProducer {
	return &StandardProducer{
		manifest: manifest,
		newName: func() string {
			return uuid.NewString() + PayloadExt
		},
	}
}

// Parses the tree and submits WorkUnits to the provided work channel.
// Closes the channel when all work is submitted. Stops at the first manifest
// error, which is sent to the error channel.
func (p *StandardProducer) Produce(work chan *WorkUnit, errchan chan error, wg *sync.WaitGroup, tree *grid_tree.GridTree) {
	defer wg.Done()
	defer close(work)

	var failed error
	err := tree.Traverse(func(o *octree.Octant[data.Point]) {
		if failed != nil {
			return
		}
		points := tree.Points(o)
		file := ""
		if len(points) > 0 {
			file = p.newName()
		}
		id := o.ID()
		if failed = p.manifest.Add(id, file, len(points)); failed != nil {
			return
		}
		if file != "" {
			work <- &WorkUnit{
				OctantID: id,
				Points:   points,
				FilePath: path.Join(ooc.PayloadDir, file),
			}
		}
	})
	if err == nil {
		err = failed
	}
	if err != nil {
		errchan <- err
	}
}
