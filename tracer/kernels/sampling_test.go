package kernels

import (
	"testing"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

func TestHaltonSequence(t *testing.T) {
	specs := []struct {
		dim   int
		index uint32
		exp   float32
	}{
		{0, 0, 0},
		{0, 1, 0.5},
		{0, 2, 0.25},
		{0, 3, 0.75},
		{1, 1, 1.0 / 3},
		{1, 2, 2.0 / 3},
		{1, 3, 1.0 / 9},
		// Faure permutation of base 5 is (0 3 2 1 4)
		{2, 1, 0.6},
		{2, 2, 0.4},
		{2, 5, 0.12},
	}

	for specIndex, spec := range specs {
		if got := haltonSample(spec.dim, spec.index); !types.ApproxEqual(got, spec.exp) {
			t.Errorf("[spec %d] expected halton(%d, %d) = %f; got %f", specIndex, spec.dim, spec.index, spec.exp, got)
		}
	}
}

func TestFaurePermutations(t *testing.T) {
	exp := map[int][]uint32{
		2: {0, 1},
		3: {0, 1, 2},
		4: {0, 2, 1, 3},
		5: {0, 3, 2, 1, 4},
	}
	for base, perm := range exp {
		for i, v := range perm {
			if faurePerms[base][i] != v {
				t.Fatalf("expected base %d permutation %v; got %v", base, perm, faurePerms[base])
			}
		}
	}
}

func TestRNG(t *testing.T) {
	a, b := seedRNG(3, 7), seedRNG(3, 7)
	if a != b {
		t.Fatal("expected seeding to be deterministic")
	}
	if seedRNG(7, 3) == a {
		t.Fatal("expected different pixels to get different seeds")
	}

	for i := 0; i < 1000; i++ {
		if v := nextFloat(&a); v < 0 || v >= 1 {
			t.Fatalf("expected uniform sample in [0, 1); got %f", v)
		}
	}
}

func TestConcentricSampleDisk(t *testing.T) {
	if got := concentricSampleDisk(0.5, 0.5); got != (types.Vec2{}) {
		t.Fatalf("expected center of the square to map to the origin; got %v", got)
	}

	for _, u := range []float32{0, 0.1, 0.5, 0.9, 0.999} {
		for _, v := range []float32{0, 0.3, 0.7, 0.999} {
			d := concentricSampleDisk(u, v)
			if d.Dot(d) > 1+1e-5 {
				t.Fatalf("expected point inside the unit disk for (%f, %f); got %v", u, v, d)
			}
		}
	}
}

func TestCosineSampleHemisphere(t *testing.T) {
	n := types.XYZ(0, 1, 0)
	for _, u := range []float32{0.01, 0.25, 0.5, 0.75, 0.99} {
		local := cosineSampleHemisphere(u, 1-u)
		if local[2] < 0 || !types.ApproxEqual(local.Len(), 1) {
			t.Fatalf("expected unit vector in the +Z hemisphere; got %v", local)
		}
		if world := toWorld(local, n); world.Dot(n) < 0 {
			t.Fatalf("expected world direction in the hemisphere of %v; got %v", n, world)
		}
	}
}
