package io

import (
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/ooc"
	"github.com/ecopia-map/pcstreamer/internal/storage"
)

type StandardConsumer struct {
	storage  storage.Storage
	accessor *data.Accessor
}

func NewStandardConsumer(s storage.Storage, format data.PointFormat) *StandardConsumer {
	return &StandardConsumer{
		storage:  s,
		accessor: data.NewAccessor(format),
	}
}

// Continually consumes WorkUnits submitted to a work channel producing the
// corresponding payload files. After an error, which is submitted to the
// error channel, the remaining units are drained without being written so
// that the producer never blocks.
func (c *StandardConsumer) Consume(workchan chan *WorkUnit, errchan chan error, waitGroup *sync.WaitGroup) {
	defer waitGroup.Done()

	var failed bool
	for work := range workchan {
		if failed {
			continue
		}
		if err := c.doWork(work); err != nil {
			glog.Errorf("cannot write octant %s: %v", work.OctantID, err)
			errchan <- err
			failed = true
		}
	}
}

// Encodes the points of the work unit and writes its payload file
func (c *StandardConsumer) doWork(workUnit *WorkUnit) (err error) {
	records := c.encodeRecords(workUnit.Points)

	w, err := c.storage.Create(workUnit.FilePath)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, errors.Wrapf(w.Close(), "cannot close %s", workUnit.FilePath))
	}()

	if err := ooc.EncodePayload(w, c.accessor.Format(), records); err != nil {
		return errors.Wrapf(err, "octant %s", workUnit.OctantID)
	}
	glog.V(2).Infof("wrote %d points of octant %s to %s", len(workUnit.Points), workUnit.OctantID, workUnit.FilePath)
	return nil
}

func (c *StandardConsumer) encodeRecords(points []data.Point) []byte {
	stride := c.accessor.Stride()
	records := make([]byte, len(points)*stride)
	for i, p := range points {
		c.accessor.Encode(c.accessor.Record(records, i), p)
	}
	return records
}
