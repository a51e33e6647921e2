package converters

import (
	"github.com/golang/geo/r3"
)

// Well known EPSG codes used by the writer
const (
	WGS84Srid          = 4326
	WorldMercatorSrid  = 3395
	WebMercatorSrid    = 3857
	WGS84CartesianSrid = 4978
)

// Converts coordinates between spatial reference systems identified by their
// EPSG code. Lat/long systems take and return degrees.
type CoordinateConverter interface {
	ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord r3.Vector) (r3.Vector, error)
	Cleanup()
}

type ElevationCorrector interface {
	CorrectElevation(lon, lat, z float64) float64
}
