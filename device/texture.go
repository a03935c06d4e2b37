package device

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

// Host-side texture array data. All layers share the same dimensions and
// are stored one after the other as RGBA float32 texels.
type TextureData struct {
	Width, Height, Layers int
	Pix                   []float32
}

// Create a zeroed texture array.
func NewTextureData(width, height, layers int) *TextureData {
	return &TextureData{
		Width:  width,
		Height: height,
		Layers: layers,
		Pix:    make([]float32, width*height*layers*4),
	}
}

// Validate the texture dimensions against the pixel data.
func (td *TextureData) Validate() error {
	if td.Width <= 0 || td.Height <= 0 || td.Layers <= 0 {
		return fmt.Errorf("invalid texture dimensions %dx%dx%d", td.Width, td.Height, td.Layers)
	}
	if exp := td.Width * td.Height * td.Layers * 4; len(td.Pix) != exp {
		return fmt.Errorf("expected %d texture components; got %d", exp, len(td.Pix))
	}
	return nil
}

// Set a texel.
func (td *TextureData) Set(layer, x, y int, c types.Vec4) {
	offset := ((layer*td.Height+y)*td.Width + x) * 4
	copy(td.Pix[offset:offset+4], c[:])
}

// Fetch a texel without filtering.
func (td *TextureData) Texel(layer, x, y int) types.Vec4 {
	offset := ((layer*td.Height+y)*td.Width + x) * 4
	return types.Vec4{td.Pix[offset], td.Pix[offset+1], td.Pix[offset+2], td.Pix[offset+3]}
}

// A texture array resource allocated from an arena.
type Texture struct {
	arena  *Arena
	handle Handle
	name   string

	mu       sync.RWMutex
	data     *TextureData
	bytes    atomic.Int64
	released bool
}

// Create an empty texture.
func NewTexture(arena *Arena, name string) *Texture {
	t := &Texture{
		arena: arena,
		name:  name,
	}
	t.handle = arena.register(t)
	return t
}

// Get the arena handle for this texture.
func (t *Texture) Handle() Handle {
	return t.handle
}

// Replace the texture contents with a copy of data. Passing nil clears the
// texture.
func (t *Texture) Upload(data *TextureData) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return fmt.Errorf("device: could not upload texture %s: %w", t.name, ErrReleasedResource)
	}

	var copied *TextureData
	var size int64
	if data != nil {
		if err := data.Validate(); err != nil {
			return fmt.Errorf("device: could not upload texture %s: %w", t.name, err)
		}
		copied = &TextureData{
			Width:  data.Width,
			Height: data.Height,
			Layers: data.Layers,
			Pix:    append([]float32(nil), data.Pix...),
		}
		size = int64(len(copied.Pix)) * 4
	}

	if err := t.arena.resize(t.name, t.bytes.Load(), size); err != nil {
		return err
	}
	t.bytes.Store(size)
	t.data = copied
	return nil
}

// Get the current texture data or nil if the texture is empty.
func (t *Texture) Data() *TextureData {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.data
}

// Release the texture and return its handle to the arena.
func (t *Texture) Destroy() {
	t.arena.Destroy(t.handle)
}

func (t *Texture) resourceName() string {
	return "texture " + t.name
}

func (t *Texture) sizeInBytes() int64 {
	return t.bytes.Load()
}

func (t *Texture) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = nil
	t.bytes.Store(0)
	t.released = true
}

// Texture coordinate addressing mode.
type AddressMode uint8

const (
	AddressRepeat AddressMode = iota
	AddressClampToEdge
)

// Bilinear texture sampler.
type Sampler struct {
	AddressU, AddressV AddressMode
}

// Sample a texture layer at the given normalized coordinates using
// bilinear filtering. Texel centers are located at half-texel offsets.
func (s Sampler) Sample(td *TextureData, layer int, u, v float32) types.Vec4 {
	if td == nil || layer < 0 || layer >= td.Layers {
		return types.Vec4{}
	}

	fx := u*float32(td.Width) - 0.5
	fy := v*float32(td.Height) - 0.5
	x0f, y0f := math32.Floor(fx), math32.Floor(fy)
	tx, ty := fx-x0f, fy-y0f
	x0, y0 := int(x0f), int(y0f)

	x0, x1 := address(s.AddressU, x0, td.Width), address(s.AddressU, x0+1, td.Width)
	y0, y1 := address(s.AddressV, y0, td.Height), address(s.AddressV, y0+1, td.Height)

	top := td.Texel(layer, x0, y0).Mul(1 - tx).Add(td.Texel(layer, x1, y0).Mul(tx))
	bottom := td.Texel(layer, x0, y1).Mul(1 - tx).Add(td.Texel(layer, x1, y1).Mul(tx))
	return top.Mul(1 - ty).Add(bottom.Mul(ty))
}

func address(mode AddressMode, coord, size int) int {
	switch mode {
	case AddressClampToEdge:
		if coord < 0 {
			return 0
		}
		if coord >= size {
			return size - 1
		}
		return coord
	default:
		coord %= size
		if coord < 0 {
			coord += size
		}
		return coord
	}
}
