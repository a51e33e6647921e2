package io

import (
	"sync"

	"github.com/ecopia-map/pcstreamer/internal/octree/grid_tree"
)

type Producer interface {
	Produce(work chan *WorkUnit, errchan chan error, wg *sync.WaitGroup, tree *grid_tree.GridTree)
}

type Consumer interface {
	Consume(work chan *WorkUnit, errchan chan error, wg *sync.WaitGroup)
}
