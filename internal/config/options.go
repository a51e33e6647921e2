package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ecopia-map/pcstreamer/internal/data"
)

type Command string

const (
	CommandIndex  Command = "index"
	CommandStream Command = "stream"
	CommandVerify Command = "verify"
)

func ParseCommand(value string) (Command, error) {
	switch c := Command(strings.ToLower(strings.TrimSpace(value))); c {
	case CommandIndex, CommandStream, CommandVerify:
		return c, nil
	}
	return "", errors.Errorf("unrecognized command %q, must be one of [index|stream|verify]", value)
}

// Contains the options needed to index LAS files into out of core octrees
type IndexOptions struct {
	Input            string  // Input LAS file/folder
	Output           string  // Output folder, one octree per input file
	Srid             int     // EPSG code for SRID of input LAS points
	TargetSrid       int     // EPSG code of the octree coordinates, 0 keeps the input srid
	EightBitColors   bool    // if true assume that LAS uses 8bit color depth
	ZOffset          float64 // Z Offset in meters to apply to points during conversion
	ZScale           float64 // Z scale applied before the offset, 0 means 1
	FolderProcessing bool    // Enables the processing of all LAS files in folder
	Recursive        bool    // Recursive lookup of LAS files in subfolders
	Merge            bool    // Index all the input files into a single octree
	MaxPointsPerNode int     // Octants holding more points are subdivided
	GridResolution   int     // Grid cells per octant edge of the LOD sampling
	MaxLevel         int     // Maximum depth of the octree
	PointType        data.PointType
	ByteOrder        data.ByteOrder
	Consumers        int // Goroutines writing payload files, 0 means one per CPU
}

// Checks the values that do not depend on the file system
func (o *IndexOptions) Validate() error {
	if o.Input == "" {
		return errors.New("input file/folder is required")
	}
	if o.Output == "" {
		return errors.New("output folder is required")
	}
	if o.MaxPointsPerNode < 0 || o.GridResolution < 0 || o.MaxLevel < 0 {
		return errors.New("points-max-num, grid-resolution and max-level cannot be negative")
	}
	_, err := o.Format()
	return err
}

func (o *IndexOptions) Format() (data.PointFormat, error) {
	return data.FormatOf(o.PointType, o.ByteOrder)
}

// Contains the options of a headless streaming session
type StreamOptions struct {
	Input               string        // Folder holding the octree manifest
	Frames              int           // Number of frames to render
	FrameInterval       time.Duration // Wait between two frames, 0 renders back to back
	PointThreshold      int
	MinProjSizeModifier float64
	Workers             int
	MaxPendingRequests  int
	GracePeriod         time.Duration
	ViewportWidth       int
	ViewportHeight      int
	Fovy                float64 // degrees
	OrbitDistance       float64 // camera distance in root octant sizes
	OrbitHeight         float64 // camera elevation in root octant sizes
	ShowOctants         bool    // attach the wireframes of the last visible set
}

func (o *StreamOptions) Validate() error {
	if o.Input == "" {
		return errors.New("input folder is required")
	}
	if o.Frames <= 0 {
		return errors.Errorf("frames must be positive, got %d", o.Frames)
	}
	if o.PointThreshold <= 0 {
		return errors.Errorf("point threshold must be positive, got %d", o.PointThreshold)
	}
	if o.ViewportWidth <= 0 || o.ViewportHeight <= 0 {
		return errors.Errorf("invalid viewport %dx%d", o.ViewportWidth, o.ViewportHeight)
	}
	if o.Fovy <= 0 || o.Fovy >= 180 {
		return errors.Errorf("field of view must be in (0, 180) degrees, got %f", o.Fovy)
	}
	if o.OrbitDistance <= 0 {
		return errors.Errorf("orbit distance must be positive, got %f", o.OrbitDistance)
	}
	if o.FrameInterval < 0 || o.GracePeriod < 0 {
		return errors.New("durations cannot be negative")
	}
	return nil
}

// Contains the options of the octree verification
type VerifyOptions struct {
	Input   string // Folder holding the octree manifest
	Workers int    // Goroutines reading payloads, 0 means one per CPU
}

func (o *VerifyOptions) Validate() error {
	if o.Input == "" {
		return errors.New("input folder is required")
	}
	if o.Workers < 0 {
		return errors.Errorf("workers cannot be negative, got %d", o.Workers)
	}
	return nil
}
