package pkg

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Loader state sampled right after one frame update
type FrameStats struct {
	Frame           int
	Latency         time.Duration
	VisibleOctants  int
	ResidentOctants int
	ResidentPoints  int
	InFlightPoints  int
	PendingRequests int
	GPUBytes        int
}

// Outcome of a streaming session
type StreamReport struct {
	PointThreshold int
	Frames         []FrameStats
	Merged         int
	Evicted        int
	Cancelled      int
	Failed         int
	// Octants outlined when the session ended with ShowOctants
	Wireframes int
	// GPU buffers still alive after the point cloud was deleted
	LiveBuffersAfterDelete int
}

type LatencySummary struct {
	Mean, P50, P95, P99, Max time.Duration
}

func (r *StreamReport) Latency() (LatencySummary, error) {
	if len(r.Frames) == 0 {
		return LatencySummary{}, errors.New("no frames were rendered")
	}
	samples := stats.Float64Data(lo.Map(r.Frames, func(f FrameStats, _ int) float64 {
		return float64(f.Latency)
	}))

	var summary LatencySummary
	var err error
	var v float64
	if v, err = samples.Mean(); err != nil {
		return summary, errors.Wrap(err, "mean latency")
	}
	summary.Mean = time.Duration(v)
	for _, p := range []struct {
		percent float64
		out     *time.Duration
	}{{50, &summary.P50}, {95, &summary.P95}, {99, &summary.P99}} {
		if v, err = samples.Percentile(p.percent); err != nil {
			return summary, errors.Wrapf(err, "latency percentile %v", p.percent)
		}
		*p.out = time.Duration(v)
	}
	if v, err = samples.Max(); err != nil {
		return summary, errors.Wrap(err, "max latency")
	}
	summary.Max = time.Duration(v)
	return summary, nil
}

// Highest resident point count over all frames
func (r *StreamReport) PeakResidentPoints() int {
	return lo.MaxBy(r.Frames, func(a, b FrameStats) bool {
		return a.ResidentPoints > b.ResidentPoints
	}).ResidentPoints
}

func (r *StreamReport) PeakGPUBytes() int {
	return lo.MaxBy(r.Frames, func(a, b FrameStats) bool {
		return a.GPUBytes > b.GPUBytes
	}).GPUBytes
}

// Renders the per frame statistics followed by the session summary
func (r *StreamReport) Table() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Frame", "Update", "Visible", "Resident", "Points", "In flight", "Pending", "GPU"})
	for _, f := range r.Frames {
		t.AppendRow(table.Row{
			f.Frame,
			f.Latency.String(),
			f.VisibleOctants,
			f.ResidentOctants,
			f.ResidentPoints,
			f.InFlightPoints,
			f.PendingRequests,
			units.BytesSize(float64(f.GPUBytes)),
		})
	}
	rendered := t.Render()

	s := table.NewWriter()
	s.AppendRow(table.Row{"Point threshold", r.PointThreshold})
	if len(r.Frames) > 0 {
		s.AppendRow(table.Row{"Peak resident points", r.PeakResidentPoints()})
		s.AppendRow(table.Row{"Peak GPU memory", units.BytesSize(float64(r.PeakGPUBytes()))})
	}
	if latency, err := r.Latency(); err == nil {
		s.AppendRow(table.Row{"Update mean / p50 / p95 / p99", latency.Mean.String() + " / " +
			latency.P50.String() + " / " + latency.P95.String() + " / " + latency.P99.String()})
	}
	s.AppendRow(table.Row{"Merged / evicted / cancelled / failed",
		fmt.Sprintf("%d / %d / %d / %d", r.Merged, r.Evicted, r.Cancelled, r.Failed)})
	s.AppendRow(table.Row{"Live buffers after delete", r.LiveBuffersAfterDelete})
	return rendered + "\n" + s.Render()
}
