package render

import (
	"sync"

	"github.com/pkg/errors"
)

type BufferHandle uint64
type TextureHandle uint64

type PixelFormat uint8

const (
	// Four unsigned 32 bit integer channels, 16 bytes per texel
	PixelFormatRGBA32UI PixelFormat = iota + 1
	// Three unsigned 8 bit channels
	PixelFormatRGB8
)

func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGBA32UI:
		return 16
	case PixelFormatRGB8:
		return 3
	}
	return 0
}

var (
	ErrUnknownBuffer  = errors.New("render: unknown buffer handle")
	ErrUnknownTexture = errors.New("render: unknown texture handle")
	ErrTextureSize    = errors.New("render: texture data does not match its dimensions")
)

// Handle based upload API of the graphics backend. Buffers hold raw point
// records of the given stride, textures hold width*height pixels.
type GPU interface {
	CreateBuffer(data []byte, stride int) (BufferHandle, error)
	UpdateBuffer(h BufferHandle, data []byte) error
	DestroyBuffer(h BufferHandle) error
	CreateTexture(width, height int, format PixelFormat, data []byte) (TextureHandle, error)
	UpdateTexture(h TextureHandle, data []byte) error
	DestroyTexture(h TextureHandle) error
}

type headlessTexture struct {
	width, height int
	format        PixelFormat
	data          []byte
}

// HeadlessGPU keeps buffers and textures in memory. It is used by the
// streaming simulator and by tests to check what the loader keeps resident.
type HeadlessGPU struct {
	sync.Mutex
	next     uint64
	buffers  map[BufferHandle][]byte
	textures map[TextureHandle]*headlessTexture
	uploads  int

	// When set, CreateBuffer fails with this error
	FailUploads error
}

func NewHeadlessGPU() *HeadlessGPU {
	return &HeadlessGPU{
		buffers:  map[BufferHandle][]byte{},
		textures: map[TextureHandle]*headlessTexture{},
	}
}

func (g *HeadlessGPU) CreateBuffer(data []byte, stride int) (BufferHandle, error) {
	g.Lock()
	defer g.Unlock()
	if g.FailUploads != nil {
		return 0, g.FailUploads
	}
	if stride <= 0 || len(data)%stride != 0 {
		return 0, errors.Errorf("render: buffer of %d bytes is not a multiple of stride %d", len(data), stride)
	}
	g.next++
	h := BufferHandle(g.next)
	g.buffers[h] = append([]byte(nil), data...)
	g.uploads++
	return h, nil
}

func (g *HeadlessGPU) UpdateBuffer(h BufferHandle, data []byte) error {
	g.Lock()
	defer g.Unlock()
	if _, ok := g.buffers[h]; !ok {
		return errors.Wrapf(ErrUnknownBuffer, "handle %d", h)
	}
	g.buffers[h] = append([]byte(nil), data...)
	return nil
}

func (g *HeadlessGPU) DestroyBuffer(h BufferHandle) error {
	g.Lock()
	defer g.Unlock()
	if _, ok := g.buffers[h]; !ok {
		return errors.Wrapf(ErrUnknownBuffer, "handle %d", h)
	}
	delete(g.buffers, h)
	return nil
}

func (g *HeadlessGPU) CreateTexture(width, height int, format PixelFormat, data []byte) (TextureHandle, error) {
	g.Lock()
	defer g.Unlock()
	if len(data) != width*height*format.BytesPerPixel() {
		return 0, errors.Wrapf(ErrTextureSize, "%dx%d", width, height)
	}
	g.next++
	h := TextureHandle(g.next)
	g.textures[h] = &headlessTexture{
		width:  width,
		height: height,
		format: format,
		data:   append([]byte(nil), data...),
	}
	return h, nil
}

func (g *HeadlessGPU) UpdateTexture(h TextureHandle, data []byte) error {
	g.Lock()
	defer g.Unlock()
	tex, ok := g.textures[h]
	if !ok {
		return errors.Wrapf(ErrUnknownTexture, "handle %d", h)
	}
	if len(data) != len(tex.data) {
		return errors.Wrapf(ErrTextureSize, "%dx%d", tex.width, tex.height)
	}
	copy(tex.data, data)
	return nil
}

func (g *HeadlessGPU) DestroyTexture(h TextureHandle) error {
	g.Lock()
	defer g.Unlock()
	if _, ok := g.textures[h]; !ok {
		return errors.Wrapf(ErrUnknownTexture, "handle %d", h)
	}
	delete(g.textures, h)
	return nil
}

// Returns true if the buffer has been created and not destroyed yet
func (g *HeadlessGPU) HasBuffer(h BufferHandle) bool {
	g.Lock()
	defer g.Unlock()
	_, ok := g.buffers[h]
	return ok
}

func (g *HeadlessGPU) LiveBuffers() int {
	g.Lock()
	defer g.Unlock()
	return len(g.buffers)
}

// Total number of bytes held by live buffers
func (g *HeadlessGPU) BufferBytes() int {
	g.Lock()
	defer g.Unlock()
	total := 0
	for _, b := range g.buffers {
		total += len(b)
	}
	return total
}

// Number of successful buffer creations since start
func (g *HeadlessGPU) Uploads() int {
	g.Lock()
	defer g.Unlock()
	return g.uploads
}

// Returns a copy of the texture content
func (g *HeadlessGPU) TextureData(h TextureHandle) ([]byte, bool) {
	g.Lock()
	defer g.Unlock()
	tex, ok := g.textures[h]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), tex.data...), true
}
