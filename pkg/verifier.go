package pkg

import (
	"math"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/docker/go-units"
	"github.com/golang/glog"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/ecopia-map/pcstreamer/internal/config"
	"github.com/ecopia-map/pcstreamer/internal/ooc"
	"github.com/ecopia-map/pcstreamer/internal/storage"
	"github.com/ecopia-map/pcstreamer/tools"
)

// Octree content of one level
type LevelStats struct {
	Level   int
	Octants int
	Points  int
	Bytes   int
}

// Outcome of the verification of a persisted octree
type VerifyReport struct {
	Octants     int
	TotalPoints int64
	Levels      []LevelStats
	// Payloads that could not be read or that do not match the manifest
	Problems []error
}

func (r *VerifyReport) OK() bool {
	return len(r.Problems) == 0
}

// Number of problems caused by malformed files, the others are I/O failures
func (r *VerifyReport) FormatProblems() int {
	return lo.CountBy(r.Problems, func(err error) bool {
		var formatErr *ooc.FormatError
		return errors.As(err, &formatErr)
	})
}

// Renders the per level statistics as a table
func (r *VerifyReport) Table() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Level", "Octants", "Points", "Size"})
	for _, l := range r.Levels {
		t.AppendRow(table.Row{l.Level, l.Octants, l.Points, units.HumanSize(float64(l.Bytes))})
	}
	t.AppendFooter(table.Row{
		"Total",
		r.Octants,
		r.TotalPoints,
		units.HumanSize(float64(lo.SumBy(r.Levels, func(l LevelStats) int { return l.Bytes }))),
	})
	return t.Render()
}

// Verifier reads back every payload of an octree and checks it against the
// manifest
type Verifier struct {
	storage storage.Storage
}

func NewVerifier(s storage.Storage) *Verifier {
	return &Verifier{storage: s}
}

// A malformed manifest is returned as error, broken payloads are collected in
// the report
func (v *Verifier) Run(opts *config.VerifyOptions) (*VerifyReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	reader := ooc.NewReader(v.storage)
	scene, err := reader.GetScene()
	if err != nil {
		return nil, err
	}
	tools.LogOutput("Verifying", scene.NumberOfOctants(), "octants")

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var mu sync.Mutex
	report := &VerifyReport{Octants: scene.NumberOfOctants(), TotalPoints: scene.TotalPoints}
	levels := map[int]*LevelStats{}
	stride := scene.Format.Stride()

	var g errgroup.Group
	g.SetLimit(workers)
	for _, o := range scene.Octants {
		o := o
		g.Go(func() error {
			problem := v.verifyOctant(reader, o)

			mu.Lock()
			defer mu.Unlock()
			l, ok := levels[o.Level]
			if !ok {
				l = &LevelStats{Level: o.Level}
				levels[o.Level] = l
			}
			l.Octants++
			l.Points += o.NumberOfPoints
			l.Bytes += o.NumberOfPoints * stride
			if problem != nil {
				glog.Warningf("octant %s: %v", o.ID, problem)
				report.Problems = append(report.Problems, problem)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Levels = lo.Map(lo.Values(levels), func(l *LevelStats, _ int) LevelStats { return *l })
	sort.Slice(report.Levels, func(i, j int) bool { return report.Levels[i].Level < report.Levels[j].Level })
	tools.LogOutput("Verified", report.Octants, "octants,", strconv.Itoa(len(report.Problems)), "problems")
	return report, nil
}

// Loads the payload of the octant and checks that every point lies in its cube
func (v *Verifier) verifyOctant(reader *ooc.Reader, o *ooc.Octant) error {
	payload, err := reader.LoadOctant(o)
	if err != nil {
		return errors.Wrapf(err, "octant %s", o.ID)
	}
	acc := payload.Accessor()
	if !acc.HasPosition() {
		return nil
	}

	// single precision positions lose digits far from the origin
	tolerance := 1e-6 * (o.Size + math.Max(math.Abs(o.Center.X), math.Max(math.Abs(o.Center.Y), math.Abs(o.Center.Z))))
	half := o.Size/2 + tolerance
	for i := 0; i < payload.Count; i++ {
		p := acc.Position(acc.Record(payload.Records, i))
		d := p.Sub(o.Center)
		if math.Abs(d.X) > half || math.Abs(d.Y) > half || math.Abs(d.Z) > half {
			return errors.Errorf("octant %s: point %d at %v lies outside of the octant cube", o.ID, i, p)
		}
	}
	return nil
}
