package pkg

import (
	"math"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ecopia-map/pcstreamer/internal/config"
	"github.com/ecopia-map/pcstreamer/internal/loader"
	"github.com/ecopia-map/pcstreamer/internal/ooc"
	"github.com/ecopia-map/pcstreamer/internal/render"
	"github.com/ecopia-map/pcstreamer/internal/storage"
	"github.com/ecopia-map/pcstreamer/tools"
)

// Streamer flies a camera around a persisted octree and drives the loader
// against a headless GPU, one update per frame
type Streamer struct {
	storage storage.Storage
	clock   clock.Clock
}

func NewStreamer(s storage.Storage, c clock.Clock) *Streamer {
	if c == nil {
		c = clock.New()
	}
	return &Streamer{storage: s, clock: c}
}

// Camera of the given frame on a circular orbit around the root octant
func orbitCamera(scene *ooc.Scene, frame int, opts *config.StreamOptions) render.Camera {
	center := scene.Root.Center
	size := scene.Root.Size
	angle := 2 * math.Pi * float64(frame) / float64(opts.Frames)
	distance := opts.OrbitDistance * size
	height := opts.OrbitHeight * size
	eye := center.Add(r3.Vector{
		X: distance * math.Cos(angle),
		Y: distance * math.Sin(angle),
		Z: height,
	})
	return render.NewLookAtCamera(
		eye,
		center,
		mgl64.DegToRad(opts.Fovy),
		size*0.01,
		math.Hypot(distance, height)+2*size,
		opts.ViewportWidth,
		opts.ViewportHeight,
	)
}

func (s *Streamer) Run(opts *config.StreamOptions) (report *StreamReport, err error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	reader := ooc.NewReader(s.storage)
	scene, err := reader.GetScene()
	if err != nil {
		return nil, err
	}
	tools.LogOutput("Streaming", scene.NumberOfOctants(), "octants,", scene.TotalPoints, "points")

	gpu := render.NewHeadlessGPU()
	params := render.NewParamSet()
	target := render.NewScene()
	l, err := loader.New(gpu, params, loader.Options{
		PointThreshold:      opts.PointThreshold,
		MinProjSizeModifier: opts.MinProjSizeModifier,
		Workers:             opts.Workers,
		MaxPendingRequests:  opts.MaxPendingRequests,
		GracePeriod:         opts.GracePeriod,
		Clock:               s.clock,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, errors.Wrap(l.Close(), "cannot close the loader"))
	}()
	if err := l.LoadPointCloud(target, scene, reader); err != nil {
		return nil, err
	}

	report = &StreamReport{PointThreshold: opts.PointThreshold, Frames: make([]FrameStats, 0, opts.Frames)}
	for i := 0; i < opts.Frames; i++ {
		cam := orbitCamera(scene, i, opts)
		start := s.clock.Now()
		if err := l.UpdateScene(cam); err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}
		latency := s.clock.Since(start)

		st := l.Stats()
		report.Frames = append(report.Frames, FrameStats{
			Frame:           i,
			Latency:         latency,
			VisibleOctants:  st.VisibleOctants,
			ResidentOctants: st.ResidentOctants,
			ResidentPoints:  st.ResidentPoints,
			InFlightPoints:  st.InFlightPoints,
			PendingRequests: st.PendingRequests,
			GPUBytes:        gpu.BufferBytes(),
		})
		glog.V(1).Infof("frame %d: %d visible octants, %d resident points, update %s", i, st.VisibleOctants, st.ResidentPoints, latency)

		if opts.FrameInterval > 0 {
			s.clock.Sleep(opts.FrameInterval)
		}
	}

	if opts.ShowOctants {
		l.ShowOctants(target)
		report.Wireframes = len(l.VisibleOctants())
	}

	st := l.Stats()
	report.Merged = st.Merged
	report.Evicted = st.Evicted
	report.Failed = st.Failed
	if err := l.DeletePointCloud(target); err != nil {
		return nil, err
	}
	report.Cancelled = l.Stats().Cancelled
	report.LiveBuffersAfterDelete = gpu.LiveBuffers()
	tools.LogOutput("Streamed", len(report.Frames), "frames")
	return report, nil
}
