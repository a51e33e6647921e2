package offset_elevation_corrector

import "github.com/ecopia-map/pcstreamer/internal/converters"

// Rescales the elevation of every point then shifts it by a constant offset.
// Scale converts vertical units, e.g. 0.3048 for LAS files in feet.
type OffsetElevationCorrector struct {
	Scale  float64
	Offset float64
}

func NewOffsetElevationCorrector(offset float64) converters.ElevationCorrector {
	return NewScaledElevationCorrector(1, offset)
}

func NewScaledElevationCorrector(scale float64, offset float64) converters.ElevationCorrector {
	if scale == 0 {
		scale = 1
	}
	return &OffsetElevationCorrector{
		Scale:  scale,
		Offset: offset,
	}
}

func (c *OffsetElevationCorrector) CorrectElevation(lon, lat, z float64) float64 {
	return z*c.Scale + c.Offset
}
