package kernels

import (
	"testing"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

func TestToneMapClamp(t *testing.T) {
	tp := ToneMapParams{Method: ToneMapClamp, Gamma: 1}
	if got := toneMapColor(types.XYZ(2, 0.5, -1), &tp); !types.ApproxEqualVec3(got, types.XYZ(1, 0.5, 0)) {
		t.Fatalf("expected clamped color (1, 0.5, 0); got %v", got)
	}

	// +1 stop doubles the input
	tp.Exposure = 1
	if got := toneMapColor(types.XYZ(0.25, 0.25, 0.25), &tp); !types.ApproxEqualVec3(got, types.XYZ(0.5, 0.5, 0.5)) {
		t.Fatalf("expected exposed color 0.5; got %v", got)
	}
}

func TestToneMapReinhardWhitePoint(t *testing.T) {
	tp := ToneMapParams{Method: ToneMapReinhard, Gamma: 1, WhitePoint: 4}
	if got := toneMapColor(types.XYZ(4, 4, 4), &tp); !types.ApproxEqualVec3(got, types.XYZ(1, 1, 1)) {
		t.Fatalf("expected white point to map to 1; got %v", got)
	}
}

func TestToneMapOperatorsAreMonotonic(t *testing.T) {
	for _, method := range []ToneMapMethod{ToneMapReinhard, ToneMapACES, ToneMapUncharted2} {
		tp := ToneMapParams{Method: method, Gamma: 2.2, WhitePoint: 4}
		prev := float32(-1)
		for _, in := range []float32{0, 0.01, 0.1, 0.5, 1, 2, 8, 64} {
			out := toneMapColor(types.XYZ(in, in, in), &tp)
			if out[0] < 0 || out[0] > 1 {
				t.Fatalf("[%s] expected output in [0, 1] for %f; got %f", method, in, out[0])
			}
			if out[0] < prev {
				t.Fatalf("[%s] expected monotonic response; %f mapped to %f after %f", method, in, out[0], prev)
			}
			prev = out[0]
		}
	}
}

func TestParseToneMapMethod(t *testing.T) {
	for m := ToneMapClamp; m <= ToneMapUncharted2; m++ {
		got, err := ParseToneMapMethod(m.String())
		if err != nil || got != m {
			t.Fatalf("expected to parse %q as %d; got %d (%v)", m.String(), m, got, err)
		}
	}
	if _, err := ParseToneMapMethod("filmic"); err == nil {
		t.Fatal("expected an error for an unknown method")
	}
}

func TestGammaCorrect(t *testing.T) {
	c := types.XYZ(0.25, 0.5, 1)
	if got := gammaCorrect(c, 0); got != c {
		t.Fatalf("expected gamma 0 to leave the color unchanged; got %v", got)
	}
	if got := gammaCorrect(c, 2); !types.ApproxEqualVec3(got, types.XYZ(0.5, 0.7071068, 1)) {
		t.Fatalf("expected square root encoding; got %v", got)
	}
}
