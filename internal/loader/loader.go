package loader

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/ecopia-map/pcstreamer/internal/lodtex"
	"github.com/ecopia-map/pcstreamer/internal/octree"
	"github.com/ecopia-map/pcstreamer/internal/ooc"
	"github.com/ecopia-map/pcstreamer/internal/render"
)

var (
	ErrClosed        = errors.New("loader: closed")
	ErrAlreadyLoaded = errors.New("loader: a point cloud is already loaded")
)

// PayloadSource reads the payload of an octant. It is called concurrently by
// the workers.
type PayloadSource interface {
	LoadOctant(o *ooc.Octant) (*ooc.Payload, error)
}

// Runtime state of one octant
type entry struct {
	octant         *ooc.Octant
	status         Status
	buffer         render.BufferHandle
	node           *render.SceneNode
	request        *LoadRequest
	priority       float64
	lastVisible    time.Time
	invisibleSince time.Time

	// member of the visible set of the last traversal
	visible bool
	// merged during the current frame
	merged bool
}

type completion struct {
	request *LoadRequest
	payload *ooc.Payload
	err     error
}

type upload struct {
	request *LoadRequest
	buffer  render.BufferHandle
	points  int
	err     error
}

// Loader streams the octants of a point cloud in and out of the GPU. The
// render thread calls UpdateScene once per frame and never blocks on disk:
// payloads are read by a pool of workers and merged on the next frames.
type Loader struct {
	opts    Options
	gpu     render.GPU
	params  render.EffectParams
	clock   clock.Clock
	queue   *requestQueue
	workers errgroup.Group

	doneMu sync.Mutex
	done   []completion

	mu       sync.Mutex
	idle     *sync.Cond
	updating bool
	closed   bool

	pointThreshold      int
	minProjSizeModifier float64
	wasSceneUpdated     bool

	scene      *ooc.Scene
	source     PayloadSource
	entries    []*entry
	visible    []*entry
	builder    *lodtex.Builder
	generation uint64
	wireframes []*render.SceneNode

	// points of resident octants and of octants being loaded
	resident int
	inFlight int
	stats    Stats
}

// Creates the loader and starts its workers. params may be nil.
func New(gpu render.GPU, params render.EffectParams, opts Options) (*Loader, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	l := &Loader{
		opts:                opts,
		gpu:                 gpu,
		params:              params,
		clock:               opts.Clock,
		queue:               newRequestQueue(),
		pointThreshold:      opts.PointThreshold,
		minProjSizeModifier: opts.MinProjSizeModifier,
	}
	l.idle = sync.NewCond(&l.mu)
	for i := 0; i < opts.Workers; i++ {
		l.workers.Go(l.work)
	}
	glog.V(1).Infof("loader started with %d workers, point threshold %d", opts.Workers, opts.PointThreshold)
	return l, nil
}

func (l *Loader) work() error {
	for {
		req, ok := l.queue.Pop()
		if !ok {
			return nil
		}
		payload, err := req.source.LoadOctant(req.octant)
		l.doneMu.Lock()
		l.done = append(l.done, completion{request: req, payload: payload, err: err})
		l.doneMu.Unlock()
	}
}

func (l *Loader) takeCompletions() []completion {
	l.doneMu.Lock()
	defer l.doneMu.Unlock()
	done := l.done
	l.done = nil
	return done
}

// Waits until no frame update is running. Requires l.mu.
func (l *Loader) waitIdle() {
	for l.updating {
		l.idle.Wait()
	}
}

// Makes the scene the streamed point cloud and attaches its root node to the
// target scene graph
func (l *Loader) LoadPointCloud(target *render.Scene, scene *ooc.Scene, source PayloadSource) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waitIdle()
	if l.closed {
		return ErrClosed
	}
	if l.scene != nil {
		return ErrAlreadyLoaded
	}

	l.entries = make([]*entry, len(scene.Octants))
	for i, o := range scene.Octants {
		l.entries[i] = &entry{octant: o}
	}
	l.scene = scene
	l.source = source
	l.builder = lodtex.NewBuilder(scene)
	l.visible = nil
	l.wasSceneUpdated = false
	if target != nil {
		target.Attach(scene.RootNode)
	}
	glog.Infof("streaming point cloud of %d octants", scene.NumberOfOctants())
	return nil
}

// Runs one frame of the streaming algorithm for the given camera: traversal,
// admission of load requests, merge of finished loads, eviction and rebuild
// of the octree texture.
func (l *Loader) UpdateScene(cam render.Camera) error {
	l.mu.Lock()
	// frames do not overlap, the lock is dropped during the upload
	l.waitIdle()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if l.scene == nil {
		l.mu.Unlock()
		return nil
	}
	l.updating = true
	l.wasSceneUpdated = false
	generation := l.generation
	now := l.clock.Now()

	l.traverse(cam)
	l.updateVisibility(now)
	l.admit(now, generation)
	l.mu.Unlock()

	uploads := l.upload(l.takeCompletions(), generation)

	l.mu.Lock()
	defer func() {
		l.updating = false
		l.idle.Broadcast()
		l.mu.Unlock()
	}()
	l.merge(uploads, now)
	l.evict()
	if err := l.publish(cam); err != nil {
		return err
	}
	l.stats.Frames++
	l.wasSceneUpdated = true
	glog.V(2).Infof("frame %d: %d visible, %d resident points, %d in flight", l.stats.Frames, len(l.visible), l.resident, l.inFlight)
	return nil
}

// Collects the visible set top down. Subtrees outside the frustum or too
// small on screen are pruned.
func (l *Loader) traverse(cam render.Camera) {
	frustum := cam.Frustum()
	minSize := l.minProjSizeModifier * float64(cam.ViewportHeight)
	for _, e := range l.entries {
		e.visible = false
		e.merged = false
	}
	l.visible = l.visible[:0]
	_ = octree.TraverseWhile(l.scene.Root, func(o *ooc.Octant) bool {
		if !frustum.IntersectsBox(o.BoundingBox()) {
			return false
		}
		size := cam.ProjectedSize(o.Center, o.BoundingRadius())
		if size < minSize {
			return false
		}
		e := l.entries[o.TexIndex]
		e.visible = true
		e.priority = size / (1 + cam.Position.Distance(o.Center))
		l.visible = append(l.visible, e)
		return true
	})
}

// Moves octants between Visible and Invisible and releases the cached ones
// whose grace period is over
func (l *Loader) updateVisibility(now time.Time) {
	for _, e := range l.entries {
		switch {
		case e.visible && (e.status == Invisible || e.status == Loaded):
			e.status = Visible
		case !e.visible && e.status == Visible:
			e.status = Invisible
			e.invisibleSince = now
		}
		if e.visible {
			e.lastVisible = now
			continue
		}
		if (e.status == Invisible || e.status == Loaded) && now.Sub(e.invisibleSince) >= l.opts.GracePeriod {
			_ = l.release(e)
		}
	}
}

// Cancels the requests of octants that left the visible set, then submits
// requests for visible unloaded octants by decreasing priority as long as
// they fit the point threshold and the pending queue has room
func (l *Loader) admit(now time.Time, generation uint64) {
	residentVisible := 0
	for _, e := range l.entries {
		if e.status == Visible {
			residentVisible += e.octant.NumberOfPoints
		}
		if e.request == nil {
			continue
		}
		if e.visible {
			l.queue.Update(e.request, e.priority)
			continue
		}
		if l.queue.Remove(e.request) {
			glog.V(2).Infof("cancelled load of octant %s", e.octant.ID)
			e.request = nil
			e.status = Unloaded
			l.inFlight -= e.octant.NumberOfPoints
			l.stats.Cancelled++
		}
	}

	candidates := lo.Filter(l.visible, func(e *entry, _ int) bool {
		return e.status == Unloaded
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority > candidates[j].priority
	})

	used := residentVisible + l.inFlight
	for _, e := range candidates {
		points := e.octant.NumberOfPoints
		if l.queue.Len() >= l.opts.MaxPendingRequests || used+points > l.pointThreshold {
			// deferred to the next frames
			break
		}
		req := &LoadRequest{
			OctantID:   e.octant.ID,
			File:       e.octant.File,
			Priority:   e.priority,
			Submitted:  now,
			octant:     e.octant,
			source:     l.source,
			generation: generation,
		}
		e.request = req
		e.status = Loading
		l.inFlight += points
		used += points
		l.queue.Push(req)
	}
}

// Uploads finished payloads to the GPU. Runs on the render thread without
// holding the loader lock.
func (l *Loader) upload(finished []completion, generation uint64) []upload {
	uploads := make([]upload, 0, len(finished))
	for _, c := range finished {
		if c.request.generation != generation {
			// the point cloud was deleted while the load was running
			continue
		}
		if c.err != nil {
			uploads = append(uploads, upload{request: c.request, err: c.err})
			continue
		}
		h, err := l.gpu.CreateBuffer(c.payload.Records, c.payload.Format.Stride())
		uploads = append(uploads, upload{
			request: c.request,
			buffer:  h,
			points:  c.payload.Count,
			err:     errors.Wrap(err, "cannot upload point buffer"),
		})
	}
	return uploads
}

func (l *Loader) merge(uploads []upload, now time.Time) {
	for _, u := range uploads {
		e := l.entries[u.request.octant.TexIndex]
		if e.request != u.request {
			if u.err == nil {
				_ = l.gpu.DestroyBuffer(u.buffer)
			}
			continue
		}
		e.request = nil
		l.inFlight -= e.octant.NumberOfPoints
		if u.err != nil {
			glog.Warningf("cannot load octant %s: %v", e.octant.ID, u.err)
			e.status = Unloaded
			l.stats.Failed++
			continue
		}

		e.buffer = u.buffer
		e.merged = true
		l.resident += e.octant.NumberOfPoints
		if e.visible {
			e.status = Visible
		} else {
			e.status = Loaded
			e.invisibleSince = now
		}
		e.node = render.NewSceneNode(string(e.octant.ID), render.PointMesh{Buffer: u.buffer, Points: u.points})
		l.scene.RootNode.AddChild(e.node)
		l.stats.Merged++
	}
}

// Lower classes are evicted first
func evictionClass(e *entry) int {
	switch {
	case e.merged:
		return 2
	case e.status == Visible:
		return 1
	}
	return 0
}

// Releases resident octants while the resident total exceeds the threshold:
// cached ones first, then visible ones, by increasing priority. Octants
// merged in this frame go last, their points were reserved at admission.
func (l *Loader) evict() {
	if l.resident <= l.pointThreshold {
		return
	}
	victims := lo.Filter(l.entries, func(e *entry, _ int) bool {
		return e.status.Resident()
	})
	sort.SliceStable(victims, func(i, j int) bool {
		a, b := victims[i], victims[j]
		if ca, cb := evictionClass(a), evictionClass(b); ca != cb {
			return ca < cb
		}
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.lastVisible.Before(b.lastVisible)
	})
	for _, e := range victims {
		if l.resident <= l.pointThreshold {
			break
		}
		glog.V(2).Infof("evicting octant %s (%s)", e.octant.ID, e.status)
		_ = l.release(e)
	}
}

// Destroys the buffer of a resident octant and resets it to Unloaded
func (l *Loader) release(e *entry) error {
	err := l.gpu.DestroyBuffer(e.buffer)
	if err != nil {
		glog.Warningf("cannot release buffer of octant %s: %v", e.octant.ID, err)
	}
	if e.node != nil {
		l.scene.RootNode.RemoveChild(e.node)
		e.node = nil
	}
	l.resident -= e.octant.NumberOfPoints
	e.status = Unloaded
	e.buffer = 0
	l.stats.Evicted++
	return err
}

// Rebuilds the octree texture and publishes the effect parameters
func (l *Loader) publish(cam render.Camera) error {
	states := make([]lodtex.State, len(l.entries))
	for i, e := range l.entries {
		states[i] = lodtex.State{
			Visible:  e.visible && e.status == Visible,
			Resident: e.status.Resident(),
		}
		if states[i].Visible {
			states[i].Budget = e.octant.NumberOfPoints
		}
	}
	if err := l.builder.Build(states); err != nil {
		return err
	}
	tex, err := l.builder.Upload(l.gpu)
	if err != nil {
		return err
	}
	if l.params == nil {
		return nil
	}
	root := l.scene.Root
	l.params.SetEffectParam(render.ParamOctreeTex, tex)
	l.params.SetEffectParam(render.ParamOctreeRootCenter, mgl64.Vec3{root.Center.X, root.Center.Y, root.Center.Z})
	l.params.SetEffectParam(render.ParamOctreeRootLength, root.Size)
	l.params.SetEffectParam(render.ParamClipPlaneDist, mgl64.Vec2{cam.Near, cam.Far})
	return nil
}

// Stops the workers after releasing the loaded point cloud. Loads already
// started are waited for.
func (l *Loader) Close() error {
	err := l.DeletePointCloud(nil)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return err
	}
	l.closed = true
	l.mu.Unlock()

	l.queue.Close()
	if werr := l.workers.Wait(); werr != nil {
		return werr
	}
	return err
}
