package asset

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/mrjoshuak/go-openexr/exr"
)

// Convert the display pixels of a render target into an 8-bit image.
// Target values are clamped to [0, 1].
func TargetImage(target *device.Target) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, target.Width, target.Height))
	pixels := target.Data()
	for y := 0; y < target.Height; y++ {
		for x := 0; x < target.Width; x++ {
			px := pixels[y*target.Width+x]
			img.SetNRGBA(x, y, color.NRGBA{
				R: toByte(px[0]),
				G: toByte(px[1]),
				B: toByte(px[2]),
				A: toByte(px[3]),
			})
		}
	}
	return img
}

func toByte(v float32) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Encode the display pixels of a render target as a PNG image.
func WritePNG(w io.Writer, target *device.Target) error {
	return png.Encode(w, TargetImage(target))
}

// Encode linear radiance values as an OpenEXR image. The radiance slice
// holds width*height row-major pixels.
func WriteEXR(w io.WriteSeeker, width, height int, radiance []types.Vec3) error {
	if len(radiance) < width*height {
		return fmt.Errorf("image writer: expected %d radiance values; got %d", width*height, len(radiance))
	}

	img := exr.NewRGBAImage(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := radiance[y*width+x]
			img.SetRGBA(x, y, c[0], c[1], c[2], 1)
		}
	}
	return exr.Encode(w, img)
}

// Save a rendered frame to disk. The output format is selected by the file
// extension: ".png" stores the display target and ".exr" stores the linear
// radiance.
func SaveFrame(path string, target *device.Target, radiance []types.Vec3) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".exr" {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if ext == ".exr" {
		err = WriteEXR(f, target.Width, target.Height, radiance)
	} else {
		err = WritePNG(f, target)
	}
	if err != nil {
		return fmt.Errorf("image writer: could not write %s: %w", path, err)
	}
	return f.Close()
}
