package config

import (
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/ecopia-map/pcstreamer/internal/data"
)

func TestParseCommand(t *testing.T) {
	c, err := ParseCommand(" Index ")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldEqual, CommandIndex)

	c, err = ParseCommand("stream")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldEqual, CommandStream)

	c, err = ParseCommand("VERIFY")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldEqual, CommandVerify)

	_, err = ParseCommand("merge")
	test.That(t, err, test.ShouldNotBeNil)
}

func validIndexOptions() IndexOptions {
	return IndexOptions{
		Input:     "in.las",
		Output:    "out",
		PointType: data.Pos64Col32IShort,
		ByteOrder: data.LittleEndian,
	}
}

func TestIndexOptionsValidate(t *testing.T) {
	opts := validIndexOptions()
	test.That(t, opts.Validate(), test.ShouldBeNil)
	format, err := opts.Format()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, format.Type, test.ShouldEqual, data.Pos64Col32IShort)

	opts.Input = ""
	test.That(t, opts.Validate(), test.ShouldNotBeNil)

	opts = validIndexOptions()
	opts.Output = ""
	test.That(t, opts.Validate(), test.ShouldNotBeNil)

	opts = validIndexOptions()
	opts.MaxLevel = -1
	test.That(t, opts.Validate(), test.ShouldNotBeNil)

	opts = validIndexOptions()
	opts.PointType = data.PointType(200)
	test.That(t, opts.Validate(), test.ShouldNotBeNil)
}

func validStreamOptions() StreamOptions {
	return StreamOptions{
		Input:          "octree",
		Frames:         10,
		PointThreshold: 1000,
		ViewportWidth:  640,
		ViewportHeight: 480,
		Fovy:           60,
		OrbitDistance:  2,
	}
}

func TestStreamOptionsValidate(t *testing.T) {
	opts := validStreamOptions()
	test.That(t, opts.Validate(), test.ShouldBeNil)

	for name, mutate := range map[string]func(*StreamOptions){
		"no input":        func(o *StreamOptions) { o.Input = "" },
		"no frames":       func(o *StreamOptions) { o.Frames = 0 },
		"no threshold":    func(o *StreamOptions) { o.PointThreshold = 0 },
		"empty viewport":  func(o *StreamOptions) { o.ViewportHeight = 0 },
		"flat fov":        func(o *StreamOptions) { o.Fovy = 180 },
		"no distance":     func(o *StreamOptions) { o.OrbitDistance = 0 },
		"negative grace":  func(o *StreamOptions) { o.GracePeriod = -time.Second },
		"negative period": func(o *StreamOptions) { o.FrameInterval = -time.Second },
	} {
		t.Run(name, func(t *testing.T) {
			opts := validStreamOptions()
			mutate(&opts)
			test.That(t, opts.Validate(), test.ShouldNotBeNil)
		})
	}
}

func TestVerifyOptionsValidate(t *testing.T) {
	opts := VerifyOptions{Input: "octree"}
	test.That(t, opts.Validate(), test.ShouldBeNil)
	opts.Workers = -1
	test.That(t, opts.Validate(), test.ShouldNotBeNil)
	opts = VerifyOptions{}
	test.That(t, opts.Validate(), test.ShouldNotBeNil)
}
