package cmd

import (
	"flag"
	"testing"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/tracer/kernels"
	"github.com/urfave/cli"
)

func flagContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("render", flag.ContinueOnError)
	for _, f := range RenderFlags {
		f.Apply(set)
	}
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli.NewContext(nil, set, nil)
}

func TestTracerOptionsDefaults(t *testing.T) {
	opts, err := tracerOptions(flagContext(t))
	if err != nil {
		t.Fatal(err)
	}

	if !opts.Shadows || opts.PathTracing || opts.ToneMapping || opts.Bloom {
		t.Fatalf("expected direct rendering with shadows by default; got %+v", opts)
	}
	if opts.MaxBounces != 3 || opts.Gamma != 2.2 {
		t.Fatalf("expected default bounces and gamma; got %d and %f", opts.MaxBounces, opts.Gamma)
	}
}

func TestTracerOptionsFromFlags(t *testing.T) {
	opts, err := tracerOptions(flagContext(t,
		"-no-shadows",
		"-aperture", "0.5",
		"-tonemap", "reinhard",
		"-bloom",
		"-bounces", "5",
	))
	if err != nil {
		t.Fatal(err)
	}

	if opts.Shadows {
		t.Fatal("expected shadows to be disabled")
	}
	if !opts.DepthOfField || !opts.PathTracing {
		t.Fatal("expected a non-zero aperture to enable depth of field path tracing")
	}
	if !opts.ToneMapping || opts.ToneMapMethod != kernels.ToneMapReinhard {
		t.Fatalf("expected reinhard tone mapping; got %t %s", opts.ToneMapping, opts.ToneMapMethod)
	}
	if !opts.Bloom || opts.MaxBounces != 5 {
		t.Fatalf("expected bloom and 5 bounces; got %t and %d", opts.Bloom, opts.MaxBounces)
	}
}

func TestTracerOptionsErrors(t *testing.T) {
	specs := [][]string{
		{"-tonemap", "filmic"},
		{"-bounces", "0"},
		{"-gamma", "0"},
	}

	for idx, args := range specs {
		if _, err := tracerOptions(flagContext(t, args...)); err == nil {
			t.Fatalf("[spec %d] expected an error for args %v", idx, args)
		}
	}
}
