package tools

import (
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/ecopia-map/pcstreamer/internal/config"
	"github.com/ecopia-map/pcstreamer/internal/converters"
	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/loader"
	"github.com/ecopia-map/pcstreamer/internal/octree/grid_tree"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type FlagsForCommandIndex struct {
	Input            *string `json:"input"`
	Output           *string `json:"output"`
	Srid             *int    `json:"srid"`
	TargetSrid       *int    `json:"target_srid"`
	EightBitColors   *bool
	ZOffset          *float64
	ZScale           *float64
	FolderProcessing *bool
	Recursive        *bool
	Merge            *bool
	MaxNumPoints     *int    `json:"max_points"`
	GridResolution   *int    `json:"grid_resolution"`
	MaxLevel         *int    `json:"max_level"`
	PointType        *string `json:"point_type"`
	ByteOrder        *string `json:"byte_order"`
	Consumers        *int
	Silent           *bool
	LogTimestamp     *bool
}

type FlagsForCommandStream struct {
	Input               *string `json:"input"`
	Frames              *int    `json:"frames"`
	FrameInterval       *time.Duration
	PointThreshold      *int     `json:"point_threshold"`
	MinProjSizeModifier *float64 `json:"min_proj_size_modifier"`
	Workers             *int
	MaxPendingRequests  *int
	GracePeriod         *time.Duration
	Width               *int
	Height              *int
	Fovy                *float64
	OrbitDistance       *float64
	OrbitHeight         *float64
	ShowOctants         *bool
	Silent              *bool
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "v", false, "Displays the version of pcstreamer.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandIndex(args []string) FlagsForCommandIndex {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-index", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input las file/folder.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output folder where to write the octrees, one subfolder per input file.")
	srid := defineIntFlagCommand(flagCommand, "srid", "e", converters.WGS84Srid, "EPSG srid code of input points.")
	targetSrid := defineIntFlagCommand(flagCommand, "target-srid", "", 0, "EPSG srid code of the octree coordinates. 0 keeps the input coordinates.")
	eightBit := defineBoolFlagCommand(flagCommand, "8bit", "b", false, "Assumes the input LAS has colors encoded in eight bit format. Default is false (LAS has 16 bit color depth)")
	zOffset := defineFloat64FlagCommand(flagCommand, "zoffset", "z", 0, "Vertical offset to apply to points, in meters.")
	zScale := defineFloat64FlagCommand(flagCommand, "zscale", "", 1, "Vertical scale applied to points before the offset.")
	folderProcessing := defineBoolFlagCommand(flagCommand, "folder", "f", false, "Enables processing of all las files from input folder. Input must be a folder if specified")
	recursive := defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for all .las files inside the subfolders")
	merge := defineBoolFlagCommand(flagCommand, "merge", "", false, "Indexes all the input files into a single octree instead of one octree per file.")
	maxNumPoints := defineIntFlagCommand(flagCommand, "points-max-num", "m", grid_tree.DefaultMaxPointsPerNode, "Octants holding more points than this are subdivided.")
	gridResolution := defineIntFlagCommand(flagCommand, "grid-resolution", "x", grid_tree.DefaultGridResolution, "Number of grid cells per octant edge used to sample the level of detail of inner octants.")
	maxLevel := defineIntFlagCommand(flagCommand, "max-level", "l", grid_tree.DefaultMaxLevel, "Maximum depth of the octree.")
	pointType := defineStringFlagCommand(flagCommand, "point-type", "p", data.Pos64Col32IShort.String(), "Layout of the point records, e.g. Pos64Col32IShort or Pos32Col32.")
	byteOrder := defineStringFlagCommand(flagCommand, "byte-order", "", data.LittleEndian.String(), "Byte order of the point records, 'little' or 'big'.")
	consumers := defineIntFlagCommand(flagCommand, "writers", "w", 0, "Number of goroutines writing payload files, 0 means one per CPU.")
	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages.")

	flagCommand.Parse(args)

	return FlagsForCommandIndex{
		Input:            input,
		Output:           output,
		Srid:             srid,
		TargetSrid:       targetSrid,
		EightBitColors:   eightBit,
		ZOffset:          zOffset,
		ZScale:           zScale,
		FolderProcessing: folderProcessing,
		Recursive:        recursive,
		Merge:            merge,
		MaxNumPoints:     maxNumPoints,
		GridResolution:   gridResolution,
		MaxLevel:         maxLevel,
		PointType:        pointType,
		ByteOrder:        byteOrder,
		Consumers:        consumers,
		Silent:           silent,
		LogTimestamp:     logTimestamp,
	}
}

// Copies the flags into the options of the indexer
func (f FlagsForCommandIndex) IndexOptions() (config.IndexOptions, error) {
	pointType, err := data.ParsePointType(*f.PointType)
	if err != nil {
		return config.IndexOptions{}, err
	}
	byteOrder, err := data.ParseByteOrder(*f.ByteOrder)
	if err != nil {
		return config.IndexOptions{}, err
	}
	input, err := ResolvePath(*f.Input)
	if err != nil {
		return config.IndexOptions{}, err
	}
	output, err := ResolvePath(*f.Output)
	if err != nil {
		return config.IndexOptions{}, err
	}
	return config.IndexOptions{
		Input:            input,
		Output:           output,
		Srid:             *f.Srid,
		TargetSrid:       *f.TargetSrid,
		EightBitColors:   *f.EightBitColors,
		ZOffset:          *f.ZOffset,
		ZScale:           *f.ZScale,
		FolderProcessing: *f.FolderProcessing,
		Recursive:        *f.Recursive,
		Merge:            *f.Merge,
		MaxPointsPerNode: *f.MaxNumPoints,
		GridResolution:   *f.GridResolution,
		MaxLevel:         *f.MaxLevel,
		PointType:        pointType,
		ByteOrder:        byteOrder,
		Consumers:        *f.Consumers,
	}, nil
}

func ParseFlagsForCommandStream(args []string) FlagsForCommandStream {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-stream", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the folder holding the octree to stream.")
	frames := defineIntFlagCommand(flagCommand, "frames", "n", 360, "Number of frames of the camera flight.")
	frameInterval := defineDurationFlagCommand(flagCommand, "frame-interval", "", 16*time.Millisecond, "Wait between two frames.")
	pointThreshold := defineIntFlagCommand(flagCommand, "point-threshold", "p", loader.DefaultPointThreshold, "Maximum number of points resident on the GPU.")
	minProjSize := defineFloat64FlagCommand(flagCommand, "min-proj-size", "m", loader.DefaultMinProjSizeModifier, "Octants smaller than this fraction of the viewport height are not rendered.")
	workers := defineIntFlagCommand(flagCommand, "workers", "w", loader.DefaultWorkers, "Number of goroutines reading octant payloads.")
	maxPending := defineIntFlagCommand(flagCommand, "max-pending", "", 0, "Maximum number of load requests waiting for a worker, 0 means 4 per worker.")
	gracePeriod := defineDurationFlagCommand(flagCommand, "grace-period", "g", 0, "How long an octant that left the view keeps its GPU buffer.")
	width := defineIntFlagCommand(flagCommand, "width", "", 1280, "Viewport width in pixels.")
	height := defineIntFlagCommand(flagCommand, "height", "", 720, "Viewport height in pixels.")
	fovy := defineFloat64FlagCommand(flagCommand, "fov", "", 60, "Vertical field of view in degrees.")
	orbitDistance := defineFloat64FlagCommand(flagCommand, "orbit-distance", "d", 1.5, "Distance of the camera from the cloud center, in root octant sizes.")
	orbitHeight := defineFloat64FlagCommand(flagCommand, "orbit-height", "", 0.5, "Elevation of the camera above the cloud center, in root octant sizes.")
	showOctants := defineBoolFlagCommand(flagCommand, "show-octants", "", false, "Attaches the wireframes of the visible octants of the last frame.")
	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")

	flagCommand.Parse(args)

	return FlagsForCommandStream{
		Input:               input,
		Frames:              frames,
		FrameInterval:       frameInterval,
		PointThreshold:      pointThreshold,
		MinProjSizeModifier: minProjSize,
		Workers:             workers,
		MaxPendingRequests:  maxPending,
		GracePeriod:         gracePeriod,
		Width:               width,
		Height:              height,
		Fovy:                fovy,
		OrbitDistance:       orbitDistance,
		OrbitHeight:         orbitHeight,
		ShowOctants:         showOctants,
		Silent:              silent,
	}
}

func (f FlagsForCommandStream) StreamOptions() (config.StreamOptions, error) {
	input, err := ResolvePath(*f.Input)
	if err != nil {
		return config.StreamOptions{}, err
	}
	return config.StreamOptions{
		Input:               input,
		Frames:              *f.Frames,
		FrameInterval:       *f.FrameInterval,
		PointThreshold:      *f.PointThreshold,
		MinProjSizeModifier: *f.MinProjSizeModifier,
		Workers:             *f.Workers,
		MaxPendingRequests:  *f.MaxPendingRequests,
		GracePeriod:         *f.GracePeriod,
		ViewportWidth:       *f.Width,
		ViewportHeight:      *f.Height,
		Fovy:                *f.Fovy,
		OrbitDistance:       *f.OrbitDistance,
		OrbitHeight:         *f.OrbitHeight,
		ShowOctants:         *f.ShowOctants,
	}, nil
}

type FlagsForCommandVerify struct {
	Input   *string `json:"input"`
	Workers *int
	Silent  *bool
}

func ParseFlagsForCommandVerify(args []string) FlagsForCommandVerify {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-verify", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the folder holding the octree to verify.")
	workers := defineIntFlagCommand(flagCommand, "workers", "w", 0, "Number of goroutines reading octant payloads, 0 means one per CPU.")
	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")

	flagCommand.Parse(args)

	return FlagsForCommandVerify{
		Input:   input,
		Workers: workers,
		Silent:  silent,
	}
}

func (f FlagsForCommandVerify) VerifyOptions() (config.VerifyOptions, error) {
	input, err := ResolvePath(*f.Input)
	if err != nil {
		return config.VerifyOptions{}, err
	}
	return config.VerifyOptions{
		Input:   input,
		Workers: *f.Workers,
	}, nil
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineDurationFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue time.Duration, usage string) *time.Duration {
	var output time.Duration
	flagCommand.DurationVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.DurationVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
