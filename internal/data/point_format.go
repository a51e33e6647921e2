package data

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

// Attribute of a point record
type Field uint8

const (
	FieldPosition Field = iota
	FieldColor
	FieldNormal
	FieldIntensity
)

func (f Field) String() string {
	switch f {
	case FieldPosition:
		return "position"
	case FieldColor:
		return "color"
	case FieldNormal:
		return "normal"
	case FieldIntensity:
		return "intensity"
	}
	return "unknown"
}

// Storage of a numeric component inside a record
type Encoding uint8

const (
	EncodingNone Encoding = iota
	EncodingFloat64
	EncodingFloat32
	EncodingUint8
	EncodingUint16
)

func (e Encoding) size() int {
	switch e {
	case EncodingFloat64:
		return 8
	case EncodingFloat32:
		return 4
	case EncodingUint8:
		return 1
	case EncodingUint16:
		return 2
	}
	return 0
}

// Closed set of record layouts a point cloud file can declare
type PointType uint8

const (
	Pos64 PointType = iota + 1
	Pos64Col32
	Pos64IShort
	Pos64Col32IShort
	Pos64Nor32Col32IShort
	Pos64Nor32Col32
	Pos32Col32
	Pos32Col32IFloat
)

var pointTypeNames = map[PointType]string{
	Pos64:                 "Pos64",
	Pos64Col32:            "Pos64Col32",
	Pos64IShort:           "Pos64IShort",
	Pos64Col32IShort:      "Pos64Col32IShort",
	Pos64Nor32Col32IShort: "Pos64Nor32Col32IShort",
	Pos64Nor32Col32:       "Pos64Nor32Col32",
	Pos32Col32:            "Pos32Col32",
	Pos32Col32IFloat:      "Pos32Col32IFloat",
}

func (t PointType) String() string {
	if name, ok := pointTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Parses a point type name, case insensitive
func ParsePointType(value string) (PointType, error) {
	normalizedValue := strings.Trim(strings.ToLower(value), " ")
	for t, name := range pointTypeNames {
		if strings.ToLower(name) == normalizedValue {
			return t, nil
		}
	}
	return 0, errors.Errorf("unknown point type %q", value)
}

// Byte order of the numeric components of a record
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big"
	}
	return "little"
}

func ParseByteOrder(value string) (ByteOrder, error) {
	switch strings.Trim(strings.ToLower(value), " ") {
	case "", "little":
		return LittleEndian, nil
	case "big":
		return BigEndian, nil
	}
	return 0, errors.Errorf("unknown byte order %q", value)
}

// Describes which fields a record carries and how each one is stored.
// Fields are laid out in the order position, normal, color, intensity.
type PointFormat struct {
	Type      PointType
	ByteOrder ByteOrder
	Position  Encoding // three components
	Normal    Encoding // three components
	Color     Encoding // four components
	Intensity Encoding // one component
}

// Returns the format descriptor of a point type
func FormatOf(t PointType, order ByteOrder) (PointFormat, error) {
	f := PointFormat{Type: t, ByteOrder: order}
	switch t {
	case Pos64:
		f.Position = EncodingFloat64
	case Pos64Col32:
		f.Position, f.Color = EncodingFloat64, EncodingUint8
	case Pos64IShort:
		f.Position, f.Intensity = EncodingFloat64, EncodingUint16
	case Pos64Col32IShort:
		f.Position, f.Color, f.Intensity = EncodingFloat64, EncodingUint8, EncodingUint16
	case Pos64Nor32Col32IShort:
		f.Position, f.Normal, f.Color, f.Intensity = EncodingFloat64, EncodingFloat32, EncodingUint8, EncodingUint16
	case Pos64Nor32Col32:
		f.Position, f.Normal, f.Color = EncodingFloat64, EncodingFloat32, EncodingUint8
	case Pos32Col32:
		f.Position, f.Color = EncodingFloat32, EncodingUint8
	case Pos32Col32IFloat:
		f.Position, f.Color, f.Intensity = EncodingFloat32, EncodingUint8, EncodingFloat32
	default:
		return PointFormat{}, errors.Errorf("unknown point type %d", t)
	}
	return f, nil
}

// Returns true if records of this format carry the field
func (f PointFormat) Has(field Field) bool {
	return f.encoding(field) != EncodingNone
}

func (f PointFormat) encoding(field Field) Encoding {
	switch field {
	case FieldPosition:
		return f.Position
	case FieldNormal:
		return f.Normal
	case FieldColor:
		return f.Color
	case FieldIntensity:
		return f.Intensity
	}
	return EncodingNone
}

func componentsOf(field Field) int {
	switch field {
	case FieldPosition, FieldNormal:
		return 3
	case FieldColor:
		return 4
	}
	return 1
}

// Size in bytes of one record
func (f PointFormat) Stride() int {
	stride := 0
	for _, field := range layoutOrder {
		stride += componentsOf(field) * f.encoding(field).size()
	}
	return stride
}

var layoutOrder = []Field{FieldPosition, FieldNormal, FieldColor, FieldIntensity}
