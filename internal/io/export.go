package io

import (
	"runtime"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/octree/grid_tree"
	"github.com/ecopia-map/pcstreamer/internal/ooc"
	"github.com/ecopia-map/pcstreamer/internal/storage"
)

// Exports a built tree to the storage: one payload file per octant holding
// points, written concurrently, and the manifest written last so that a
// partially written octree is never readable.
func WriteTree(tree *grid_tree.GridTree, s storage.Storage, format data.PointFormat, numConsumers int) (*ooc.Manifest, error) {
	if !tree.IsBuilt() {
		return nil, grid_tree.ErrNotBuilt
	}
	if numConsumers <= 0 {
		numConsumers = runtime.NumCPU()
	}
	center, size, err := tree.RootCube()
	if err != nil {
		return nil, err
	}
	builder := ooc.NewManifestBuilder(format, center, size, tree.Spacing())

	// a buffer 5 times greater than the number of consumers
	workChannel := make(chan *WorkUnit, numConsumers*5)
	// every goroutine submits at most one error
	errorChannel := make(chan error, numConsumers+1)

	var waitGroup sync.WaitGroup
	waitGroup.Add(1)
	producer := NewStandardProducer(builder)
	go producer.Produce(workChannel, errorChannel, &waitGroup, tree)

	for i := 0; i < numConsumers; i++ {
		waitGroup.Add(1)
		consumer := NewStandardConsumer(s, format)
		go consumer.Consume(workChannel, errorChannel, &waitGroup)
	}

	waitGroup.Wait()
	close(errorChannel)

	var errs error
	for err := range errorChannel {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return nil, errors.Wrap(errs, "errors raised while writing payloads")
	}

	manifest := builder.Manifest()
	if err := ooc.WriteManifest(s, manifest); err != nil {
		return nil, err
	}
	glog.Infof("wrote %d octants, %d points", manifest.OctantCount, manifest.TotalPoints)
	return manifest, nil
}
