package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/asset"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/scene"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/tracer"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

// A still frame renderer that drives a tracer on a single compute device
// and accumulates a fixed number of frames.
type Renderer struct {
	logger log.Logger

	opts   Options
	scene  *asset.Scene
	camera scene.Camera

	device *device.Device
	queue  *device.Queue
	tracer *tracer.Tracer
	target *device.Target

	stats FrameStats
}

// Select a device, initialize a tracer on it and upload the scene.
func New(sc *asset.Scene, opts Options) (*Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if opts.Frames == 0 {
		opts.Frames = 1
	}

	devices, err := device.SelectDevices(device.AllDevices, opts.DeviceName)
	if err != nil {
		return nil, err
	}
	var dev *device.Device
	for _, d := range devices {
		if tracer.IsSupported(d) {
			dev = d
			break
		}
	}
	if dev == nil {
		return nil, ErrNoDevice
	}

	return NewWithDevice(dev, sc, opts)
}

// Create a renderer on a specific device.
func NewWithDevice(dev *device.Device, sc *asset.Scene, opts Options) (*Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if opts.Frames == 0 {
		opts.Frames = 1
	}

	r := &Renderer{
		logger: log.New("renderer"),
		opts:   opts,
		scene:  sc,
		camera: *asset.DefaultCamera(),
		device: dev,
		tracer: tracer.New(),
	}
	if sc.Camera != nil {
		r.camera = *sc.Camera
	}
	if opts.FOV > 0 {
		r.camera.FOV = opts.FOV
	}
	r.setupCamera()

	r.logger.Noticef("initializing tracer on %s", dev.Name)
	start := time.Now()
	err := r.tracer.Init(dev)
	if err == nil {
		err = r.tracer.SetOptions(opts.Tracer)
	}
	if err == nil {
		err = r.upload()
	}
	if err != nil {
		r.Close()
		return nil, err
	}

	if r.target, err = device.NewTarget(dev.Arena(), "frame", int(opts.FrameW), int(opts.FrameH)); err != nil {
		r.Close()
		return nil, err
	}
	r.queue = dev.NewQueue("render")
	r.stats.Device = dev.Name

	r.logger.Infof("renderer ready in %d ms", time.Since(start).Nanoseconds()/1e6)
	return r, nil
}

// Apply the orbit and view rotations requested in the options.
func (r *Renderer) setupCamera() {
	const degToRad = math32.Pi / 180

	if r.opts.OrbitYaw != 0 || r.opts.OrbitPitch != 0 {
		r.camera.Orbit(r.opts.OrbitYaw*degToRad, r.opts.OrbitPitch*degToRad)
	}
	if r.opts.Yaw != 0 || r.opts.Pitch != 0 {
		r.camera.Yaw, r.camera.Pitch = r.opts.Yaw*degToRad, r.opts.Pitch*degToRad
		r.camera.Update()
	}
	r.logger.Infof("camera %s", &r.camera)
}

// Get the camera used for rendering.
func (r *Renderer) Camera() scene.Camera {
	return r.camera
}

// Upload scene data to the tracer.
func (r *Renderer) upload() error {
	sc := r.scene
	if err := r.tracer.BuildAccelerationStructure(sc.Vertices, sc.VertexCount(), sc.Indices, sc.TriangleCount()); err != nil {
		return err
	}

	steps := []struct {
		what string
		fn   func() error
	}{
		{"materials", func() error { return r.tracer.SetMaterials(sc.Materials) }},
		{"material indices", func() error { return r.tracer.SetMaterialIndices(sc.MaterialIndices) }},
		{"texture coordinates", func() error { return r.tracer.SetTexCoords(sc.TexCoords) }},
		{"lights", func() error { return r.tracer.SetLights(sc.Lights) }},
		{"diffuse textures", func() error { return r.tracer.SetDiffuseTextures(sc.DiffuseTextures) }},
		{"normal textures", func() error { return r.tracer.SetNormalTextures(sc.NormalTextures) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("renderer: could not upload %s: %w", step.what, err)
		}
	}

	if r.opts.EnvironmentMap != "" {
		envMap, err := asset.LoadEnvironmentMap(r.opts.EnvironmentMap)
		if err != nil {
			return err
		}
		if err = r.tracer.SetEnvironmentMap(envMap); err != nil {
			return err
		}
		r.logger.Infof("loaded %dx%d environment map from %s", envMap.Width, envMap.Height, r.opts.EnvironmentMap)
	}
	return nil
}

// Render and accumulate the configured number of frames. Rendering stops
// with ErrInterrupted if ctx is cancelled between frames.
func (r *Renderer) Render(ctx context.Context) error {
	cam := r.camera
	start := time.Now()
	for frame := uint32(0); frame < r.opts.Frames; frame++ {
		select {
		case <-ctx.Done():
			if err := r.queue.Wait(); err != nil {
				r.logger.Errorf("queued work failed before the interruption: %s", err)
				return fmt.Errorf("%w: %v", ErrInterrupted, err)
			}
			return ErrInterrupted
		default:
		}

		if err := r.tracer.Trace(r.queue, r.target, cam.Position, cam.LookAt, cam.Up, cam.FOV); err != nil {
			return err
		}
		if err := r.queue.Wait(); err != nil {
			return fmt.Errorf("renderer: frame %d failed: %w", frame, err)
		}

		r.stats.Frames++
		r.stats.Last = r.tracer.Stats()
		r.stats.addTimings(r.queue.Timings())

		if r.stats.Last.Mode == tracer.AdaptiveMode && r.stats.Last.ConvergedFraction >= 1 {
			r.logger.Infof("all pixels converged after %d frames", frame+1)
			break
		}
	}
	r.stats.RenderTime += time.Since(start)

	r.logger.Noticef("rendered %d frame(s) in %d ms", r.stats.Frames, r.stats.RenderTime.Nanoseconds()/1e6)
	return nil
}

// Get the render target holding the display pixels of the last frame.
func (r *Renderer) Target() *device.Target {
	return r.target
}

// Get the linear radiance of the last frame.
func (r *Renderer) Radiance() []types.Vec3 {
	out := make([]types.Vec3, r.target.PixelCount())
	out = out[:r.tracer.ReadRadiance(out)]
	return out
}

// Write the last frame to a .png or .exr image.
func (r *Renderer) Save(path string) error {
	if err := asset.SaveFrame(path, r.target, r.Radiance()); err != nil {
		return err
	}
	r.logger.Noticef("wrote frame to %s", path)
	return nil
}

// Get render statistics.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// Shutdown the renderer and release all device resources.
func (r *Renderer) Close() {
	if r.queue != nil {
		r.queue.Wait()
	}
	if r.target != nil {
		r.target.Destroy()
		r.target = nil
	}
	r.tracer.Release()
	r.device.Close()
}
