package ooc

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/ecopia-map/pcstreamer/internal/data"
)

const (
	payloadMagic      = "PCOC"
	PayloadVersion    = 1
	payloadHeaderSize = 12
)

// Decoded point records of one octant
type Payload struct {
	Format  data.PointFormat
	Count   int
	Records []byte
}

func (p *Payload) Accessor() *data.Accessor {
	return data.NewAccessor(p.Format)
}

// Writes the header followed by the raw records. The header is always little
// endian, the records use the byte order of the format.
func EncodePayload(w io.Writer, format data.PointFormat, records []byte) error {
	stride := format.Stride()
	if stride == 0 || len(records)%stride != 0 {
		return errors.Errorf("payload of %d bytes is not a multiple of stride %d", len(records), stride)
	}
	header := make([]byte, payloadHeaderSize)
	copy(header, payloadMagic)
	binary.LittleEndian.PutUint16(header[4:], PayloadVersion)
	header[6] = uint8(format.Type)
	header[7] = uint8(format.ByteOrder)
	binary.LittleEndian.PutUint32(header[8:], uint32(len(records)/stride))
	if _, err := w.Write(header); err != nil {
		return errors.Wrap(err, "cannot write payload header")
	}
	if _, err := w.Write(records); err != nil {
		return errors.Wrap(err, "cannot write payload records")
	}
	return nil
}

// Parses a payload file whose records must match the expected format
func DecodePayload(source string, content []byte, expected data.PointFormat) (*Payload, error) {
	if len(content) < payloadHeaderSize {
		return nil, formatErrorf(source, "truncated header, %d bytes", len(content))
	}
	if !bytes.Equal(content[:4], []byte(payloadMagic)) {
		return nil, formatErrorf(source, "bad magic %q", content[:4])
	}
	if v := binary.LittleEndian.Uint16(content[4:]); v != PayloadVersion {
		return nil, formatErrorf(source, "unsupported version %d", v)
	}
	if t := data.PointType(content[6]); t != expected.Type {
		return nil, formatErrorf(source, "point type %s does not match the manifest type %s", t, expected.Type)
	}
	if o := data.ByteOrder(content[7]); o != expected.ByteOrder {
		return nil, formatErrorf(source, "byte order %s does not match the manifest order %s", o, expected.ByteOrder)
	}
	count := int(binary.LittleEndian.Uint32(content[8:]))
	records := content[payloadHeaderSize:]
	if len(records) != count*expected.Stride() {
		return nil, formatErrorf(source, "expected %d records of %d bytes, found %d bytes", count, expected.Stride(), len(records))
	}
	return &Payload{Format: expected, Count: count, Records: records}, nil
}
