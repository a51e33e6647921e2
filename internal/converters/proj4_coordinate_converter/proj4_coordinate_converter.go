package proj4_coordinate_converter

import (
	"fmt"
	"math"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	proj "github.com/xeonx/proj4"

	"github.com/ecopia-map/pcstreamer/internal/converters"
)

// proj4 definitions of the systems used most often, other codes are resolved
// through the epsg init file of the proj installation
var definitions = map[int]string{
	converters.WGS84Srid:          "+proj=longlat +datum=WGS84 +no_defs",
	converters.WorldMercatorSrid:  "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
	converters.WebMercatorSrid:    "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs",
	converters.WGS84CartesianSrid: "+proj=geocent +datum=WGS84 +units=m +no_defs",
}

type Proj4CoordinateConverter struct {
	mu          sync.Mutex
	projections map[int]*proj.Proj
}

func NewProj4CoordinateConverter() converters.CoordinateConverter {
	return &Proj4CoordinateConverter{
		projections: map[int]*proj.Proj{},
	}
}

func definitionOf(srid int) string {
	if def, ok := definitions[srid]; ok {
		return def
	}
	if srid >= 32601 && srid <= 32660 {
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", srid-32600)
	}
	if srid >= 32701 && srid <= 32760 {
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", srid-32700)
	}
	return fmt.Sprintf("+init=epsg:%d", srid)
}

// Returns the cached projection of the given EPSG code, initializing it once
func (c *Proj4CoordinateConverter) projection(srid int) (*proj.Proj, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.projections[srid]; ok {
		return p, nil
	}
	p, err := proj.InitPlus(definitionOf(srid))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot initialize projection EPSG:%d", srid)
	}
	c.projections[srid] = p
	return p, nil
}

func (c *Proj4CoordinateConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord r3.Vector) (r3.Vector, error) {
	if sourceSrid == targetSrid {
		return coord, nil
	}
	src, err := c.projection(sourceSrid)
	if err != nil {
		return coord, err
	}
	dst, err := c.projection(targetSrid)
	if err != nil {
		return coord, err
	}

	x, y, z := []float64{coord.X}, []float64{coord.Y}, []float64{coord.Z}
	if src.IsLatLong() {
		x[0], y[0] = toRadians(x[0]), toRadians(y[0])
	}

	// proj4 contexts are not safe for concurrent use
	c.mu.Lock()
	err = proj.TransformRaw(src, dst, x, y, z)
	c.mu.Unlock()
	if err != nil {
		return coord, errors.Wrapf(err, "cannot convert %v from EPSG:%d to EPSG:%d", coord, sourceSrid, targetSrid)
	}

	if dst.IsLatLong() {
		x[0], y[0] = toDegrees(x[0]), toDegrees(y[0])
	}
	return r3.Vector{X: x[0], Y: y[0], Z: z[0]}, nil
}

// Releases every projection initialized so far
func (c *Proj4CoordinateConverter) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for srid, p := range c.projections {
		p.Close()
		delete(c.projections, srid)
	}
	glog.V(1).Infoln("proj4 projections released")
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
