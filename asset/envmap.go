package asset

import (
	"fmt"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/chewxy/math32"
	"github.com/mrjoshuak/go-openexr/exr"
)

// Display gamma assumed for low dynamic range environment maps.
const ldrGamma = 2.2

// Load an equirectangular environment map. OpenEXR images are loaded as
// linear HDR radiance; any other supported image format is treated as gamma
// encoded and converted to linear values.
func LoadEnvironmentMap(location string) (*device.TextureData, error) {
	res, err := NewResource(location, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return ReadEnvironmentMap(res)
}

// Read an equirectangular environment map from a resource.
func ReadEnvironmentMap(res *Resource) (*device.TextureData, error) {
	if res.Ext() == ".exr" {
		return readEXR(res)
	}

	img, err := DecodeImage(res)
	if err != nil {
		return nil, err
	}
	data := imageToTexture(img)
	for i := range data.Pix {
		// Alpha stays linear
		if i%4 != 3 {
			data.Pix[i] = math32.Pow(data.Pix[i], ldrGamma)
		}
	}
	return data, nil
}

func readEXR(res *Resource) (*device.TextureData, error) {
	ra, size, err := res.ReaderAt()
	if err != nil {
		return nil, err
	}
	img, err := exr.Decode(ra, size)
	if err != nil {
		return nil, fmt.Errorf("envmap: could not decode %s: %w", res.Path(), err)
	}

	width, height := img.Rect.Dx(), img.Rect.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("envmap: image %s has no pixels", res.Path())
	}

	data := device.NewTextureData(width, height, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := img.RGBA(img.Rect.Min.X+x, img.Rect.Min.Y+y)
			offset := (y*width + x) * 4
			data.Pix[offset], data.Pix[offset+1], data.Pix[offset+2], data.Pix[offset+3] = r, g, b, a
		}
	}
	return data, nil
}
