package device

import (
	"errors"
	"testing"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

func TestEnsureCapacityNeverShrinks(t *testing.T) {
	dev, err := createCpuTestDevice()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	buf := NewBuffer[types.Vec4](dev.Arena(), "scratch")

	specs := []struct {
		count     int
		expGrow   bool
		expLen    int
		expAllocd int64
	}{
		{100, true, 100, 1600},
		{50, false, 100, 1600},
		{100, false, 100, 1600},
		{101, true, 101, 1616},
		{0, false, 101, 1616},
	}

	for specIndex, spec := range specs {
		grown, err := buf.EnsureCapacity(spec.count)
		if err != nil {
			t.Fatalf("[spec %d] %v", specIndex, err)
		}
		if grown != spec.expGrow {
			t.Errorf("[spec %d] expected grown to be %t; got %t", specIndex, spec.expGrow, grown)
		}
		if buf.Len() != spec.expLen {
			t.Errorf("[spec %d] expected len %d; got %d", specIndex, spec.expLen, buf.Len())
		}
		if got := dev.Arena().Allocated(); got != spec.expAllocd {
			t.Errorf("[spec %d] expected arena to track %d bytes; got %d", specIndex, spec.expAllocd, got)
		}
	}
}

func TestEnsureCapacityRespectsMemoryLimit(t *testing.T) {
	dev, err := createCpuTestDevice()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()
	dev.MemoryLimit = 1024

	buf := NewBuffer[float32](dev.Arena(), "scratch")
	if _, err = buf.EnsureCapacity(128); err != nil {
		t.Fatal(err)
	}

	if _, err = buf.EnsureCapacity(1024); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory; got %v", err)
	}

	// Failed allocations leave the existing storage untouched
	if buf.Len() != 128 || dev.Arena().Allocated() != 512 {
		t.Fatalf("expected failed resize to keep 128 items / 512 bytes; got %d items / %d bytes", buf.Len(), dev.Arena().Allocated())
	}
}

func TestArenaHandles(t *testing.T) {
	dev, err := createCpuTestDevice()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()
	arena := dev.Arena()

	a := NewBuffer[int32](arena, "a")
	b := NewBuffer[int32](arena, "b")
	tex := NewTexture(arena, "tex")
	if a.Handle() == InvalidHandle || a.Handle() == b.Handle() || b.Handle() == tex.Handle() {
		t.Fatalf("expected unique valid handles; got %d, %d, %d", a.Handle(), b.Handle(), tex.Handle())
	}
	if arena.Live() != 3 {
		t.Fatalf("expected 3 live resources; got %d", arena.Live())
	}

	if err = a.Upload([]int32{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err = tex.Upload(NewTextureData(2, 2, 1)); err != nil {
		t.Fatal(err)
	}
	if got := arena.Allocated(); got != 12+64 {
		t.Fatalf("expected 76 allocated bytes; got %d", got)
	}

	// Destroying twice is a no-op and the handle is recycled
	freed := a.Handle()
	a.Destroy()
	a.Destroy()
	if arena.Live() != 2 || arena.Allocated() != 64 {
		t.Fatalf("expected 2 live resources with 64 bytes; got %d with %d bytes", arena.Live(), arena.Allocated())
	}
	if err = a.Upload([]int32{1}); !errors.Is(err, ErrReleasedResource) {
		t.Fatalf("expected ErrReleasedResource; got %v", err)
	}

	c := NewBuffer[int32](arena, "c")
	if c.Handle() != freed {
		t.Fatalf("expected handle %d to be recycled; got %d", freed, c.Handle())
	}

	arena.ReleaseAll()
	if arena.Live() != 0 || arena.Allocated() != 0 {
		t.Fatalf("expected empty arena; got %d resources with %d bytes", arena.Live(), arena.Allocated())
	}
}

func TestUploadReplacesWholesale(t *testing.T) {
	dev, err := createCpuTestDevice()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	buf := NewBuffer[int32](dev.Arena(), "data")
	src := []int32{1, 2, 3, 4}
	if err = buf.Upload(src); err != nil {
		t.Fatal(err)
	}
	src[0] = 42
	if buf.Data()[0] != 1 {
		t.Fatal("expected upload to copy the source data")
	}

	if err = buf.Upload([]int32{7}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 1 || buf.Data()[0] != 7 {
		t.Fatalf("expected buffer to contain [7]; got %v", buf.Data())
	}
}

func TestSamplerBilinear(t *testing.T) {
	td := NewTextureData(2, 1, 1)
	td.Set(0, 0, 0, types.XYZW(0, 0, 0, 1))
	td.Set(0, 1, 0, types.XYZW(1, 1, 1, 1))

	clamp := Sampler{AddressU: AddressClampToEdge, AddressV: AddressClampToEdge}
	specs := []struct {
		u, v float32
		exp  float32
	}{
		{0.25, 0.5, 0},
		{0.75, 0.5, 1},
		{0.5, 0.5, 0.5},
		{0, 0.5, 0},
		{1, 0.5, 1},
	}
	for specIndex, spec := range specs {
		got := clamp.Sample(td, 0, spec.u, spec.v)
		if !types.ApproxEqual(got[0], spec.exp) {
			t.Errorf("[spec %d] expected sample at (%f, %f) to be %f; got %f", specIndex, spec.u, spec.v, spec.exp, got[0])
		}
	}

	// Repeat addressing wraps around the left edge
	repeat := Sampler{}
	if got := repeat.Sample(td, 0, 0, 0.5); !types.ApproxEqual(got[0], 0.5) {
		t.Errorf("expected wrapped sample to be 0.5; got %f", got[0])
	}

	if got := repeat.Sample(td, 3, 0.5, 0.5); got != (types.Vec4{}) {
		t.Errorf("expected out of range layer to sample black; got %v", got)
	}
}
