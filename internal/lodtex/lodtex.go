package lodtex

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ecopia-map/pcstreamer/internal/ooc"
	"github.com/ecopia-map/pcstreamer/internal/render"
)

const (
	TexelSize = 16

	FlagVisible  = 1 << 0
	FlagResident = 1 << 1
	FlagLeaf     = 1 << 2

	// Sentinel stored in the parent and child channels
	NoIndex = 0xFFFFFFFF

	// Largest budget a single texel can carry
	MaxTexelBudget = 1<<32 - 2
)

// Runtime state of one octant for the current frame
type State struct {
	Visible  bool
	Resident bool
	Budget   int
}

// Decoded texel, mostly useful for inspection
type Texel struct {
	Visible    bool
	Resident   bool
	Leaf       bool
	ChildMask  uint8 // visible children
	Level      int
	Parent     uint32
	FirstChild uint32
	Budget     uint32
}

// Builder owns the texel array of a scene and its texture on the GPU. The
// array is rebuilt wholesale on every Build call.
type Builder struct {
	scene   *ooc.Scene
	texels  []byte
	texture render.TextureHandle
	created bool
}

func NewBuilder(scene *ooc.Scene) *Builder {
	return &Builder{
		scene:  scene,
		texels: make([]byte, scene.NumberOfOctants()*TexelSize),
	}
}

// Number of texels, one per octant
func (b *Builder) Width() int {
	return b.scene.NumberOfOctants()
}

// Encodes the state of every octant, states are indexed like scene.Octants
func (b *Builder) Build(states []State) error {
	if len(states) != len(b.scene.Octants) {
		return errors.Errorf("lodtex: %d states for %d octants", len(states), len(b.scene.Octants))
	}
	for i, o := range b.scene.Octants {
		s := states[i]
		flags := uint32(0)
		if s.Visible {
			flags |= FlagVisible
		}
		if s.Resident {
			flags |= FlagResident
		}
		if o.IsLeaf {
			flags |= FlagLeaf
		}
		childMask := uint32(0)
		for pos, c := range o.Children {
			if c != nil && states[c.TexIndex].Visible {
				childMask |= 1 << pos
			}
		}
		parent := uint32(NoIndex)
		if o.Parent != nil {
			parent = uint32(o.Parent.TexIndex)
		}
		firstChild := uint32(NoIndex)
		if idx := o.FirstChildIndex(); idx >= 0 {
			firstChild = uint32(idx)
		}
		budget := uint32(0)
		if s.Budget > 0 {
			budget = uint32(min(int64(s.Budget), MaxTexelBudget))
		}

		texel := b.texels[i*TexelSize : (i+1)*TexelSize]
		binary.LittleEndian.PutUint32(texel[0:], flags|childMask<<8|uint32(o.Level)<<16)
		binary.LittleEndian.PutUint32(texel[4:], parent)
		binary.LittleEndian.PutUint32(texel[8:], firstChild)
		binary.LittleEndian.PutUint32(texel[12:], budget)
	}
	return nil
}

// Raw texel array of the last build
func (b *Builder) Texels() []byte {
	return b.texels
}

func (b *Builder) Texel(i int) Texel {
	texel := b.texels[i*TexelSize : (i+1)*TexelSize]
	r := binary.LittleEndian.Uint32(texel[0:])
	return Texel{
		Visible:    r&FlagVisible != 0,
		Resident:   r&FlagResident != 0,
		Leaf:       r&FlagLeaf != 0,
		ChildMask:  uint8(r >> 8),
		Level:      int(r >> 16),
		Parent:     binary.LittleEndian.Uint32(texel[4:]),
		FirstChild: binary.LittleEndian.Uint32(texel[8:]),
		Budget:     binary.LittleEndian.Uint32(texel[12:]),
	}
}

// Creates the texture on first use, updates it afterwards
func (b *Builder) Upload(gpu render.GPU) (render.TextureHandle, error) {
	if !b.created {
		h, err := gpu.CreateTexture(b.Width(), 1, render.PixelFormatRGBA32UI, b.texels)
		if err != nil {
			return 0, errors.Wrap(err, "cannot create octree texture")
		}
		b.texture = h
		b.created = true
		return h, nil
	}
	if err := gpu.UpdateTexture(b.texture, b.texels); err != nil {
		return 0, errors.Wrap(err, "cannot update octree texture")
	}
	return b.texture, nil
}

// Destroys the texture if it was created
func (b *Builder) Release(gpu render.GPU) error {
	if !b.created {
		return nil
	}
	b.created = false
	return gpu.DestroyTexture(b.texture)
}
