package asset

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// Decode an image resource. PNG, JPEG, GIF, BMP and TIFF images are
// supported.
func DecodeImage(res *Resource) (image.Image, error) {
	img, format, err := image.Decode(res)
	if err != nil {
		return nil, fmt.Errorf("texture: could not decode %s: %w", res.Path(), err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("texture: image %s (%s) has no pixels", res.Path(), format)
	}
	return img, nil
}

// A TextureArray collects images that are packed as the layers of a device
// texture array. Layers are resampled to a common size when the array is
// built.
type TextureArray struct {
	logger log.Logger
	name   string

	layers []image.Image

	// Maps a resource path to its layer.
	layerIndex map[string]int
}

// Create an empty texture array.
func NewTextureArray(name string) *TextureArray {
	return &TextureArray{
		logger:     log.New("texture"),
		name:       name,
		layerIndex: make(map[string]int),
	}
}

// Get the number of layers.
func (ta *TextureArray) Len() int {
	return len(ta.layers)
}

// Add an image as a new layer and return the layer index. Images added
// more than once under the same key share a layer.
func (ta *TextureArray) Add(key string, img image.Image) int {
	if layer, exists := ta.layerIndex[key]; exists {
		return layer
	}
	ta.layers = append(ta.layers, img)
	layer := len(ta.layers) - 1
	ta.layerIndex[key] = layer
	return layer
}

// Decode the image referenced by res and add it as a layer.
func (ta *TextureArray) Load(res *Resource) (int, error) {
	if layer, exists := ta.layerIndex[res.Path()]; exists {
		return layer, nil
	}
	img, err := DecodeImage(res)
	if err != nil {
		return -1, err
	}
	return ta.Add(res.Path(), img), nil
}

// Pack all layers into texture data. Every layer is bilinearly resampled to
// the largest width and height among the layers. Returns nil if the array
// has no layers.
func (ta *TextureArray) Build() *device.TextureData {
	if len(ta.layers) == 0 {
		return nil
	}

	var width, height int
	for _, img := range ta.layers {
		b := img.Bounds()
		width = max(width, b.Dx())
		height = max(height, b.Dy())
	}

	data := device.NewTextureData(width, height, len(ta.layers))
	bounds := image.Rect(0, 0, width, height)
	for layer, img := range ta.layers {
		if img.Bounds().Size() != bounds.Size() {
			ta.logger.Debugf("%s: resampling layer %d from %v to %dx%d", ta.name, layer, img.Bounds().Size(), width, height)
		}
		scaled := image.NewNRGBA64(bounds)
		draw.BiLinear.Scale(scaled, bounds, img, img.Bounds(), draw.Src, nil)
		copyLayer(data, layer, scaled)
	}
	return data
}

// Convert an image into a layer of normalized RGBA texels.
func copyLayer(data *device.TextureData, layer int, img *image.NRGBA64) {
	const scale = 1.0 / 0xffff
	for y := 0; y < data.Height; y++ {
		for x := 0; x < data.Width; x++ {
			c := img.NRGBA64At(x, y)
			data.Set(layer, x, y, types.XYZW(
				float32(c.R)*scale,
				float32(c.G)*scale,
				float32(c.B)*scale,
				float32(c.A)*scale,
			))
		}
	}
}

// Convert an image into a single layer texture of normalized RGBA texels.
func imageToTexture(img image.Image) *device.TextureData {
	b := img.Bounds()
	data := device.NewTextureData(b.Dx(), b.Dy(), 1)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			data.Set(0, x, y, types.XYZW(
				float32(c.R)/0xffff,
				float32(c.G)/0xffff,
				float32(c.B)/0xffff,
				float32(c.A)/0xffff,
			))
		}
	}
	return data
}
