package algorithm_manager

import (
	"github.com/ecopia-map/pcstreamer/internal/config"
	"github.com/ecopia-map/pcstreamer/internal/converters"
	"github.com/ecopia-map/pcstreamer/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/pcstreamer/internal/converters/identity_coordinate_converter"
	"github.com/ecopia-map/pcstreamer/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/pcstreamer/internal/octree/grid_tree"
)

// Provides the algorithms used to index one LAS file
type AlgorithmManager interface {
	GetElevationCorrectionAlgorithm() converters.ElevationCorrector
	GetTreeAlgorithm() *grid_tree.GridTree
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter
}

type StandardAlgorithmManager struct {
	options             *config.IndexOptions
	coordinateConverter converters.CoordinateConverter
	elevationCorrector  converters.ElevationCorrector
}

// Reprojection goes through proj4 only when the octree srid differs from the
// input one
func NewAlgorithmManager(opts *config.IndexOptions) AlgorithmManager {
	var converter converters.CoordinateConverter
	if opts.TargetSrid != 0 && opts.TargetSrid != opts.Srid {
		converter = proj4_coordinate_converter.NewProj4CoordinateConverter()
	} else {
		converter = identity_coordinate_converter.NewIdentityCoordinateConverter()
	}
	return &StandardAlgorithmManager{
		options:             opts,
		coordinateConverter: converter,
		elevationCorrector:  offset_elevation_corrector.NewScaledElevationCorrector(opts.ZScale, opts.ZOffset),
	}
}

func (m *StandardAlgorithmManager) GetElevationCorrectionAlgorithm() converters.ElevationCorrector {
	return m.elevationCorrector
}

// Returns a new empty tree, one per indexed file
func (m *StandardAlgorithmManager) GetTreeAlgorithm() *grid_tree.GridTree {
	return grid_tree.NewGridTree(m.coordinateConverter, m.elevationCorrector, grid_tree.Options{
		TargetSrid:       m.options.TargetSrid,
		MaxPointsPerNode: m.options.MaxPointsPerNode,
		GridResolution:   m.options.GridResolution,
		MaxLevel:         m.options.MaxLevel,
	})
}

func (m *StandardAlgorithmManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return m.coordinateConverter
}
