package identity_coordinate_converter

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ecopia-map/pcstreamer/internal/converters"
)

// Converter for clouds that are already in the target reference system. Any
// actual reprojection request is an error.
type IdentityCoordinateConverter struct{}

func NewIdentityCoordinateConverter() converters.CoordinateConverter {
	return &IdentityCoordinateConverter{}
}

func (c *IdentityCoordinateConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord r3.Vector) (r3.Vector, error) {
	if sourceSrid != targetSrid {
		return coord, errors.Errorf("cannot convert from EPSG:%d to EPSG:%d without a projection library", sourceSrid, targetSrid)
	}
	return coord, nil
}

func (c *IdentityCoordinateConverter) Cleanup() {}
