package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/asset"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/renderer"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/tracer"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/tracer/kernels"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Flags accepted by the render command.
var RenderFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Value: 512,
		Usage: "frame width",
	},
	cli.IntFlag{
		Name:  "height",
		Value: 512,
		Usage: "frame height",
	},
	cli.IntFlag{
		Name:  "frames, f",
		Value: 16,
		Usage: "number of frames to accumulate when path tracing",
	},
	cli.Float64Flag{
		Name:  "fov",
		Usage: "override the scene camera vertical field of view in degrees",
	},
	cli.Float64Flag{
		Name:  "orbit-yaw",
		Usage: "orbit the camera around its look-at point by this many degrees",
	},
	cli.Float64Flag{
		Name:  "orbit-pitch",
		Usage: "orbit the camera above or below its look-at point by this many degrees",
	},
	cli.Float64Flag{
		Name:  "yaw",
		Usage: "turn the camera view direction left or right by this many degrees",
	},
	cli.Float64Flag{
		Name:  "pitch",
		Usage: "tilt the camera view direction by this many degrees",
	},
	cli.StringFlag{
		Name:  "out, o",
		Value: "frame.png",
		Usage: "image filename for the rendered frame; .exr files store linear radiance",
	},
	cli.StringFlag{
		Name:  "device, d",
		Usage: "only use devices whose names contain this value",
	},
	cli.BoolFlag{
		Name:  "no-shadows",
		Usage: "disable shadow rays",
	},
	cli.BoolFlag{
		Name:  "reflections",
		Usage: "enable mirror reflections in direct mode",
	},
	cli.BoolFlag{
		Name:  "refractions",
		Usage: "enable refractions in direct mode",
	},
	cli.BoolFlag{
		Name:  "textures",
		Usage: "enable diffuse and normal map texturing",
	},
	cli.BoolFlag{
		Name:  "path-tracing, pt",
		Usage: "enable progressive path tracing",
	},
	cli.BoolFlag{
		Name:  "bsdf",
		Usage: "sample a physically based BSDF over multiple bounces",
	},
	cli.IntFlag{
		Name:  "bounces",
		Value: 3,
		Usage: "max path bounces when BSDF sampling is enabled",
	},
	cli.BoolFlag{
		Name:  "adaptive",
		Usage: "stop sampling pixels once their variance drops below the threshold",
	},
	cli.Float64Flag{
		Name:  "variance",
		Value: 0.01,
		Usage: "adaptive sampling variance threshold",
	},
	cli.StringFlag{
		Name:  "envmap",
		Usage: "equirectangular environment map; .exr images are loaded as linear HDR radiance",
	},
	cli.Float64Flag{
		Name:  "env-intensity",
		Value: 1,
		Usage: "environment map intensity",
	},
	cli.Float64Flag{
		Name:  "env-rotation",
		Usage: "environment map rotation around the Y axis in degrees",
	},
	cli.Float64Flag{
		Name:  "aperture",
		Usage: "thin lens aperture radius; enables depth of field when > 0",
	},
	cli.Float64Flag{
		Name:  "focal-distance",
		Value: 5,
		Usage: "distance to the focal plane",
	},
	cli.BoolFlag{
		Name:  "halton",
		Usage: "jitter camera rays using a Halton sequence",
	},
	cli.StringFlag{
		Name:  "tonemap",
		Usage: "tone mapping operator: clamp, reinhard, aces or uncharted2",
	},
	cli.Float64Flag{
		Name:  "exposure",
		Usage: "camera exposure in stops for tone-mapping",
	},
	cli.Float64Flag{
		Name:  "gamma",
		Value: 2.2,
		Usage: "display gamma",
	},
	cli.Float64Flag{
		Name:  "white-point",
		Value: 4,
		Usage: "radiance that maps to white",
	},
	cli.BoolFlag{
		Name:  "bloom",
		Usage: "enable bloom",
	},
	cli.Float64Flag{
		Name:  "bloom-threshold",
		Value: 1,
		Usage: "luminance above which pixels contribute to bloom",
	},
	cli.Float64Flag{
		Name:  "bloom-intensity",
		Value: 0.3,
		Usage: "bloom blend factor",
	},
}

// Build tracer options from the command line flags.
func tracerOptions(ctx *cli.Context) (tracer.Options, error) {
	opts := tracer.DefaultOptions()
	opts.Shadows = !ctx.Bool("no-shadows")
	opts.Reflections = ctx.Bool("reflections")
	opts.Refractions = ctx.Bool("refractions")
	opts.Texturing = ctx.Bool("textures")
	opts.PathTracing = ctx.Bool("path-tracing")
	opts.BSDFSampling = ctx.Bool("bsdf")
	opts.MaxBounces = ctx.Int("bounces")
	opts.AdaptiveSampling = ctx.Bool("adaptive")
	opts.VarianceThreshold = float32(ctx.Float64("variance"))
	opts.EnvironmentLighting = ctx.String("envmap") != ""
	opts.EnvIntensity = float32(ctx.Float64("env-intensity"))
	opts.EnvRotation = float32(ctx.Float64("env-rotation"))
	opts.Aperture = float32(ctx.Float64("aperture"))
	opts.DepthOfField = opts.Aperture > 0
	opts.FocalDistance = float32(ctx.Float64("focal-distance"))
	opts.HaltonJitter = ctx.Bool("halton")
	opts.Exposure = float32(ctx.Float64("exposure"))
	opts.Gamma = float32(ctx.Float64("gamma"))
	opts.WhitePoint = float32(ctx.Float64("white-point"))
	opts.Bloom = ctx.Bool("bloom")
	opts.BloomThreshold = float32(ctx.Float64("bloom-threshold"))
	opts.BloomIntensity = float32(ctx.Float64("bloom-intensity"))

	if name := ctx.String("tonemap"); name != "" {
		method, err := kernels.ParseToneMapMethod(name)
		if err != nil {
			return opts, err
		}
		opts.ToneMapping = true
		opts.ToneMapMethod = method
	}

	if opts.DepthOfField || opts.AdaptiveSampling || opts.EnvironmentLighting || opts.BSDFSampling {
		if !opts.PathTracing {
			logger.Notice("enabling path tracing for the requested progressive features")
			opts.PathTracing = true
		}
	}

	return opts, opts.Validate()
}

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	tracerOpts, err := tracerOptions(ctx)
	if err != nil {
		return err
	}

	opts := renderer.Options{
		FrameW:         uint32(ctx.Int("width")),
		FrameH:         uint32(ctx.Int("height")),
		Frames:         uint32(ctx.Int("frames")),
		FOV:            float32(ctx.Float64("fov")),
		OrbitYaw:       float32(ctx.Float64("orbit-yaw")),
		OrbitPitch:     float32(ctx.Float64("orbit-pitch")),
		Yaw:            float32(ctx.Float64("yaw")),
		Pitch:          float32(ctx.Float64("pitch")),
		DeviceName:     ctx.String("device"),
		EnvironmentMap: ctx.String("envmap"),
		Tracer:         tracerOpts,
	}
	if !tracerOpts.PathTracing {
		opts.Frames = 1
	}

	// Load scene
	sc, err := asset.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	// Create renderer
	r, err := renderer.New(sc, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	renderCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = r.Render(renderCtx)
	if errors.Is(err, renderer.ErrInterrupted) {
		logger.Warning("rendering interrupted; saving partial frame")
	} else if err != nil {
		return err
	}

	if err = r.Save(ctx.String("out")); err != nil {
		return err
	}

	// Display stats
	displayFrameStats(r.Stats())

	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Kernel", "Calls", "Total time", "% of frame"})
	for _, stat := range stats.Kernels {
		var percent float64
		if stats.RenderTime > 0 {
			percent = 100 * float64(stat.Time) / float64(stats.RenderTime)
		}
		table.Append([]string{
			stat.Label,
			fmt.Sprintf("%d", stat.Calls),
			stat.Time.String(),
			fmt.Sprintf("%02.1f %%", percent),
		})
	}
	table.SetFooter([]string{
		stats.Last.Mode.String(),
		fmt.Sprintf("%d frames", stats.Frames),
		"TOTAL",
		stats.RenderTime.String(),
	})

	table.Render()
	logger.Noticef("frame statistics (%s, %dx%d)\n%s", stats.Device, stats.Last.Width, stats.Last.Height, buf.String())
	if stats.Last.Mode == tracer.AdaptiveMode {
		logger.Noticef("%.1f%% of pixels converged", stats.Last.ConvergedFraction*100)
	}
}
