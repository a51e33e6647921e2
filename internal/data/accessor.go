package data

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"math"

	"github.com/golang/geo/r3"
)

// Raised when a record is asked for a field its format does not declare.
// This is a programming error: callers check Has or Require first.
type CapabilityError struct {
	Type  PointType
	Field Field
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("point type %s has no %s field", e.Type, e.Field)
}

// Reads and writes the fields of raw records of a single format. Offsets are
// resolved once when the accessor is built.
type Accessor struct {
	format  PointFormat
	order   binary.ByteOrder
	stride  int
	offsets [4]int
}

// Builds the accessor of the given format
func NewAccessor(format PointFormat) *Accessor {
	a := &Accessor{
		format: format,
		order:  format.ByteOrder.binary(),
	}
	offset := 0
	for _, field := range layoutOrder {
		a.offsets[field] = offset
		offset += componentsOf(field) * format.encoding(field).size()
	}
	a.stride = offset
	return a
}

func (a *Accessor) Format() PointFormat {
	return a.format
}

// Size in bytes of one record
func (a *Accessor) Stride() int {
	return a.stride
}

func (a *Accessor) HasPosition() bool  { return a.format.Has(FieldPosition) }
func (a *Accessor) HasColor() bool     { return a.format.Has(FieldColor) }
func (a *Accessor) HasNormal() bool    { return a.format.Has(FieldNormal) }
func (a *Accessor) HasIntensity() bool { return a.format.Has(FieldIntensity) }

// Returns a CapabilityError for the first field missing from the format
func (a *Accessor) Require(fields ...Field) error {
	for _, field := range fields {
		if !a.format.Has(field) {
			return &CapabilityError{Type: a.format.Type, Field: field}
		}
	}
	return nil
}

func (a *Accessor) must(field Field) {
	if !a.format.Has(field) {
		panic(&CapabilityError{Type: a.format.Type, Field: field})
	}
}

// Returns the i-th record of a buffer of consecutive records
func (a *Accessor) Record(buf []byte, i int) []byte {
	return buf[i*a.stride : (i+1)*a.stride]
}

func (a *Accessor) readFloat(rec []byte, enc Encoding, offset int) float64 {
	switch enc {
	case EncodingFloat64:
		return math.Float64frombits(a.order.Uint64(rec[offset:]))
	case EncodingFloat32:
		return float64(math.Float32frombits(a.order.Uint32(rec[offset:])))
	case EncodingUint16:
		return float64(a.order.Uint16(rec[offset:]))
	case EncodingUint8:
		return float64(rec[offset])
	}
	return 0
}

func (a *Accessor) writeFloat(rec []byte, enc Encoding, offset int, v float64) {
	switch enc {
	case EncodingFloat64:
		a.order.PutUint64(rec[offset:], math.Float64bits(v))
	case EncodingFloat32:
		a.order.PutUint32(rec[offset:], math.Float32bits(float32(v)))
	case EncodingUint16:
		a.order.PutUint16(rec[offset:], uint16(clamp(v, 0, math.MaxUint16)))
	case EncodingUint8:
		rec[offset] = uint8(clamp(v, 0, math.MaxUint8))
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, math.Round(v)))
}

func (a *Accessor) Position(rec []byte) r3.Vector {
	a.must(FieldPosition)
	enc, off, size := a.format.Position, a.offsets[FieldPosition], a.format.Position.size()
	return r3.Vector{
		X: a.readFloat(rec, enc, off),
		Y: a.readFloat(rec, enc, off+size),
		Z: a.readFloat(rec, enc, off+2*size),
	}
}

func (a *Accessor) SetPosition(rec []byte, p r3.Vector) {
	a.must(FieldPosition)
	enc, off, size := a.format.Position, a.offsets[FieldPosition], a.format.Position.size()
	a.writeFloat(rec, enc, off, p.X)
	a.writeFloat(rec, enc, off+size, p.Y)
	a.writeFloat(rec, enc, off+2*size, p.Z)
}

func (a *Accessor) Normal(rec []byte) [3]float32 {
	a.must(FieldNormal)
	enc, off, size := a.format.Normal, a.offsets[FieldNormal], a.format.Normal.size()
	return [3]float32{
		float32(a.readFloat(rec, enc, off)),
		float32(a.readFloat(rec, enc, off+size)),
		float32(a.readFloat(rec, enc, off+2*size)),
	}
}

func (a *Accessor) SetNormal(rec []byte, n [3]float32) {
	a.must(FieldNormal)
	enc, off, size := a.format.Normal, a.offsets[FieldNormal], a.format.Normal.size()
	for i := 0; i < 3; i++ {
		a.writeFloat(rec, enc, off+i*size, float64(n[i]))
	}
}

func (a *Accessor) Color(rec []byte) color.NRGBA {
	a.must(FieldColor)
	off := a.offsets[FieldColor]
	return color.NRGBA{R: rec[off], G: rec[off+1], B: rec[off+2], A: rec[off+3]}
}

func (a *Accessor) SetColor(rec []byte, c color.NRGBA) {
	a.must(FieldColor)
	off := a.offsets[FieldColor]
	rec[off], rec[off+1], rec[off+2], rec[off+3] = c.R, c.G, c.B, c.A
}

func (a *Accessor) Intensity(rec []byte) float32 {
	a.must(FieldIntensity)
	return float32(a.readFloat(rec, a.format.Intensity, a.offsets[FieldIntensity]))
}

func (a *Accessor) SetIntensity(rec []byte, v float32) {
	a.must(FieldIntensity)
	a.writeFloat(rec, a.format.Intensity, a.offsets[FieldIntensity], float64(v))
}

// Decodes a record into a Point, absent fields are left at their zero value
func (a *Accessor) Decode(rec []byte) Point {
	p := Point{Position: a.Position(rec)}
	if a.HasColor() {
		p.Color = a.Color(rec)
		p.HasColor = true
	}
	if a.HasNormal() {
		p.Normal = a.Normal(rec)
		p.HasNormal = true
	}
	if a.HasIntensity() {
		p.Intensity = a.Intensity(rec)
	}
	return p
}

// Encodes the point into rec, fields the format does not declare are dropped
func (a *Accessor) Encode(rec []byte, p Point) {
	a.SetPosition(rec, p.Position)
	if a.HasColor() {
		c := p.Color
		if !p.HasColor {
			c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		}
		a.SetColor(rec, c)
	}
	if a.HasNormal() {
		a.SetNormal(rec, p.Normal)
	}
	if a.HasIntensity() {
		a.SetIntensity(rec, p.Intensity)
	}
}
