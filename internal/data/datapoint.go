package data

import (
	"image/color"

	"github.com/golang/geo/r3"
)

// Contains data of a Point Cloud Point, namely the position and the optional
// color, normal and intensity attributes
type Point struct {
	Position  r3.Vector
	Color     color.NRGBA
	HasColor  bool
	Normal    [3]float32
	HasNormal bool
	Intensity float32
}

// Builds a new Point from the given coordinates, color and intensity values
func NewPoint(x, y, z float64, r, g, b uint8, intensity float32) Point {
	return Point{
		Position:  r3.Vector{X: x, Y: y, Z: z},
		Color:     color.NRGBA{R: r, G: g, B: b, A: 255},
		HasColor:  true,
		Intensity: intensity,
	}
}
