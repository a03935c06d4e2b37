package asset

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestTextureArrayDeduplicatesLayers(t *testing.T) {
	ta := NewTextureArray("test")
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))

	if layer := ta.Add("a.png", img); layer != 0 {
		t.Fatalf("expected first layer to be 0; got %d", layer)
	}
	if layer := ta.Add("b.png", img); layer != 1 {
		t.Fatalf("expected second layer to be 1; got %d", layer)
	}
	if layer := ta.Add("a.png", img); layer != 0 {
		t.Fatalf("expected duplicate key to reuse layer 0; got %d", layer)
	}
	if ta.Len() != 2 {
		t.Fatalf("expected 2 layers; got %d", ta.Len())
	}
}

func TestTextureArrayBuild(t *testing.T) {
	ta := NewTextureArray("test")
	if ta.Build() != nil {
		t.Fatal("expected an empty texture array to build nil data")
	}

	small := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	small.SetNRGBA(0, 0, color.NRGBA{G: 255, A: 255})
	big := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		big.SetNRGBA(x, 0, color.NRGBA{R: 255, A: 255})
		big.SetNRGBA(x, 1, color.NRGBA{B: 255, A: 255})
	}
	ta.Add("small", small)
	ta.Add("big", big)

	data := ta.Build()
	if data.Width != 4 || data.Height != 2 || data.Layers != 2 {
		t.Fatalf("expected a 4x2x2 texture array; got %dx%dx%d", data.Width, data.Height, data.Layers)
	}
	if len(data.Pix) != 4*2*2*4 {
		t.Fatalf("expected %d texel components; got %d", 4*2*2*4, len(data.Pix))
	}

	// A single texel image is stretched over the whole layer
	for y := 0; y < data.Height; y++ {
		for x := 0; x < data.Width; x++ {
			if texel := data.Texel(0, x, y); texel[1] < 0.99 || texel[0] > 0.01 {
				t.Fatalf("expected resampled layer 0 texel (%d, %d) to be green; got %v", x, y, texel)
			}
		}
	}

	if texel := data.Texel(1, 0, 0); texel[0] < 0.99 || texel[2] > 0.01 {
		t.Fatalf("expected layer 1 top row to be red; got %v", texel)
	}
	if texel := data.Texel(1, 3, 1); texel[2] < 0.99 || texel[0] > 0.01 {
		t.Fatalf("expected layer 1 bottom row to be blue; got %v", texel)
	}
}

func TestTextureArrayLoad(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatal(err)
	}

	ta := NewTextureArray("test")
	layer, err := ta.Load(NewResourceFromStream("textures/gray.png", bytes.NewReader(buf.Bytes())))
	if err != nil {
		t.Fatal(err)
	}
	if layer != 0 {
		t.Fatalf("expected layer 0; got %d", layer)
	}

	layer, err = ta.Load(NewResourceFromStream("textures/gray.png", bytes.NewReader(nil)))
	if err != nil || layer != 0 {
		t.Fatalf("expected a previously loaded path to reuse layer 0 without decoding; got %d, %v", layer, err)
	}

	if _, err = ta.Load(NewResourceFromStream("textures/bad.png", bytes.NewReader([]byte("not an image")))); err == nil {
		t.Fatal("expected a decode error")
	}
}
