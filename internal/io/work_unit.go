package io

import (
	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/octree"
)

// Contains the minimal data needed to write the payload file of one octant
type WorkUnit struct {
	OctantID octree.OctantID
	Points   []data.Point
	// Path of the payload file relative to the storage root
	FilePath string
}
