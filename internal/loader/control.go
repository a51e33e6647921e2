package loader

import (
	"github.com/golang/glog"
	"go.uber.org/multierr"

	"github.com/ecopia-map/pcstreamer/internal/octree"
	"github.com/ecopia-map/pcstreamer/internal/render"
)

// Prefix of the names of the debug wireframe nodes
const WireframePrefix = "octant-wireframe-"

// Scene graph node of the root octant, nil when no point cloud is loaded
func (l *Loader) GetRootNode() *render.SceneNode {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.scene == nil {
		return nil
	}
	return l.scene.RootNode
}

// Returns true once the traversal of the last frame completed
func (l *Loader) WasSceneUpdated() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wasSceneUpdated
}

func (l *Loader) PointThreshold() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pointThreshold
}

// Changes the point threshold, the next frame evicts down to the new value
func (l *Loader) SetPointThreshold(threshold int) {
	if threshold < 0 {
		threshold = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pointThreshold = threshold
}

func (l *Loader) MinProjSizeModifier() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.minProjSizeModifier
}

func (l *Loader) SetMinProjSizeModifier(modifier float64) {
	if modifier < 0 {
		modifier = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minProjSizeModifier = modifier
}

// Status of the octant, Unloaded for unknown ids
func (l *Loader) Status(id octree.OctantID) Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.scene == nil {
		return Unloaded
	}
	o, ok := l.scene.Octant(id)
	if !ok {
		return Unloaded
	}
	return l.entries[o.TexIndex].status
}

// Buffer of a resident octant
func (l *Loader) Buffer(id octree.OctantID) (render.BufferHandle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.scene == nil {
		return 0, false
	}
	o, ok := l.scene.Octant(id)
	if !ok {
		return 0, false
	}
	e := l.entries[o.TexIndex]
	return e.buffer, e.status.Resident()
}

// Ids of the visible set of the last frame in traversal order
func (l *Loader) VisibleOctants() []octree.OctantID {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]octree.OctantID, 0, len(l.visible))
	for _, e := range l.visible {
		ids = append(ids, e.octant.ID)
	}
	return ids
}

func (l *Loader) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.stats
	s.VisibleOctants = len(l.visible)
	s.ResidentPoints = l.resident
	s.InFlightPoints = l.inFlight
	s.PendingRequests = l.queue.Len()
	for _, e := range l.entries {
		if e.status.Resident() {
			s.ResidentOctants++
		}
	}
	return s
}

// Adds a wireframe node to the target scene for every octant of the last
// visible set, replacing the ones added before
func (l *Loader) ShowOctants(target *render.Scene) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waitIdle()
	l.removeWireframes(target)
	for _, e := range l.visible {
		node := render.NewSceneNode(WireframePrefix+string(e.octant.ID), render.Wireframe{
			Center: e.octant.Center,
			Size:   e.octant.Size,
		})
		target.Attach(node)
		l.wireframes = append(l.wireframes, node)
	}
}

// Removes the wireframe nodes added by ShowOctants
func (l *Loader) DeleteOctants(target *render.Scene) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waitIdle()
	l.removeWireframes(target)
}

func (l *Loader) removeWireframes(target *render.Scene) {
	if target != nil {
		for _, node := range l.wireframes {
			target.Detach(node)
		}
	}
	l.wireframes = nil
}

// Waits for the running frame update, then detaches the point cloud from the
// target scene, drops pending requests and releases every GPU resource. Loads
// already started complete but their results are discarded.
func (l *Loader) DeletePointCloud(target *render.Scene) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waitIdle()
	if l.scene == nil {
		return nil
	}

	if target != nil {
		target.Detach(l.scene.RootNode)
	}
	l.removeWireframes(target)
	cancelled := l.queue.Clear()
	l.stats.Cancelled += len(cancelled)

	var err error
	for _, e := range l.entries {
		if e.status.Resident() {
			err = multierr.Append(err, l.release(e))
		}
	}
	err = multierr.Append(err, l.builder.Release(l.gpu))
	_ = l.takeCompletions()

	l.generation++
	l.scene = nil
	l.source = nil
	l.entries = nil
	l.visible = nil
	l.builder = nil
	l.resident = 0
	l.inFlight = 0
	l.wasSceneUpdated = false
	glog.Infof("point cloud deleted, %d pending requests dropped", len(cancelled))
	return err
}
