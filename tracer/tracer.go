package tracer

import (
	"fmt"
	"sync"
	"time"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/accel"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/scene"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/tracer/kernels"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

// The minimum device API level required by the tracer kernels.
const MinAPIVersion = 3

// Check whether a device can run the tracer.
func IsSupported(dev *device.Device) bool {
	return dev != nil && dev.Features.RayIntersection && dev.Features.APIVersion >= MinAPIVersion
}

// The camera and target configuration of the last traced frame. A change
// invalidates the accumulated samples.
type frameKey struct {
	origin, lookAt, up types.Vec3
	fov                float32
	width, height      int
}

// A ray tracer that renders a triangle scene into a device target. All
// methods are safe for concurrent use but frames are encoded one at a time.
type Tracer struct {
	logger log.Logger

	mu sync.Mutex

	// Builds the kernel program loaded into the device by Init.
	program func() *device.Program

	device    *device.Device
	resources *deviceResources

	// Scene resources bound to the shading kernels.
	scene *kernels.Scene

	options Options

	strategy renderStrategy
	post     *postStage

	frameIndex uint32
	lastFrame  frameKey
	haveFrame  bool

	// Linear radiance of the last traced frame before post-processing.
	radiance *device.Buffer[types.Vec3]

	statsMu sync.Mutex
	stats   FrameStats
}

// Create a new tracer with the default options.
func New() *Tracer {
	return &Tracer{
		logger:  log.New("tracer"),
		program: kernels.NewProgram,
		options: DefaultOptions(),
	}
}

// Initialize the tracer on a device. The device is loaded with the tracer
// kernel program and the scene resources are allocated from its arena.
// Calling Init on an initialized tracer releases its previous resources.
func (t *Tracer) Init(dev *device.Device) error {
	if dev == nil {
		return fmt.Errorf("%w: nil device", ErrInvalidArgument)
	}
	if !IsSupported(dev) {
		return fmt.Errorf("%w: %s (API level %d, required %d)", ErrUnsupportedDevice, dev.Name, dev.Features.APIVersion, MinAPIVersion)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.cleanup()

	if err := dev.Init(t.program()); err != nil {
		return err
	}

	resources, err := newDeviceResources(dev)
	if err != nil {
		t.logger.Errorf("could not load kernels on %s: %s", dev.Name, err)
		return err
	}

	arena := dev.Arena()
	t.device = dev
	t.resources = resources
	t.scene = &kernels.Scene{
		Structure:       accel.NewStructure(),
		Materials:       device.NewBuffer[scene.Material](arena, "materials"),
		MaterialIndices: device.NewBuffer[int32](arena, "material indices"),
		Lights:          device.NewBuffer[scene.Light](arena, "lights"),
		TexCoords:       device.NewBuffer[types.Vec2](arena, "texture coordinates"),
		DiffuseTextures: device.NewTexture(arena, "diffuse textures"),
		NormalTextures:  device.NewTexture(arena, "normal textures"),
		EnvironmentMap:  device.NewTexture(arena, "environment map"),
	}
	t.post = newPostStage(arena, t.logger)
	t.resetAccumulation("tracer initialized")

	t.logger.Noticef("initialized tracer on %s", dev.Name)
	return nil
}

// Release all resources allocated by the tracer. The device itself is not
// closed. Calling Release more than once is a no-op.
func (t *Tracer) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanup()
}

func (t *Tracer) cleanup() {
	if t.resources == nil {
		return
	}

	if t.strategy != nil {
		t.strategy.release()
		t.strategy = nil
	}
	if t.post != nil {
		t.post.release()
		t.post = nil
	}
	if scn := t.scene; scn != nil {
		scn.Materials.Destroy()
		scn.MaterialIndices.Destroy()
		scn.Lights.Destroy()
		scn.TexCoords.Destroy()
		scn.DiffuseTextures.Destroy()
		scn.NormalTextures.Destroy()
		scn.EnvironmentMap.Destroy()
		t.scene = nil
	}
	t.resources.Close()
	t.resources = nil
	t.device = nil
	t.haveFrame = false
	t.frameIndex = 0
	t.radiance = nil

	t.logger.Debug("released tracer resources")
}

// Build the acceleration structure for a triangle soup. Vertices hold
// vertexCount packed xyz triplets and indices hold triangleCount index
// triplets.
func (t *Tracer) BuildAccelerationStructure(vertices []float32, vertexCount int, indices []uint32, triangleCount int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.resources == nil {
		return ErrNotInitialized
	}

	start := time.Now()
	if err := t.scene.Structure.Build(vertices, vertexCount, indices, triangleCount); err != nil {
		return fmt.Errorf("tracer: could not build acceleration structure: %w", err)
	}
	t.logger.Infof("built acceleration structure for %d triangles (%d nodes) in %d ms", triangleCount, t.scene.Structure.NodeCount(), time.Since(start).Nanoseconds()/1e6)
	t.resetAccumulation("geometry changed")
	return nil
}

// Upload data into a scene buffer.
func uploadSceneData[T any](t *Tracer, buf func(*kernels.Scene) *device.Buffer[T], data []T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.resources == nil {
		return ErrNotInitialized
	}

	target := buf(t.scene)
	if err := target.Upload(data); err != nil {
		return fmt.Errorf("tracer: could not upload %s: %w", target.Name(), err)
	}
	t.resetAccumulation(target.Name() + " changed")
	return nil
}

// Upload the scene material list.
func (t *Tracer) SetMaterials(materials []scene.Material) error {
	return uploadSceneData(t, func(s *kernels.Scene) *device.Buffer[scene.Material] { return s.Materials }, materials)
}

// Upload the per triangle material indices.
func (t *Tracer) SetMaterialIndices(indices []int32) error {
	return uploadSceneData(t, func(s *kernels.Scene) *device.Buffer[int32] { return s.MaterialIndices }, indices)
}

// Upload the scene lights.
func (t *Tracer) SetLights(lights []scene.Light) error {
	return uploadSceneData(t, func(s *kernels.Scene) *device.Buffer[scene.Light] { return s.Lights }, lights)
}

// Upload the per vertex texture coordinates.
func (t *Tracer) SetTexCoords(uvs []types.Vec2) error {
	return uploadSceneData(t, func(s *kernels.Scene) *device.Buffer[types.Vec2] { return s.TexCoords }, uvs)
}

// Upload a texture array. Passing nil clears the texture.
func (t *Tracer) setTexture(tex func(*kernels.Scene) *device.Texture, data *device.TextureData, what string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.resources == nil {
		return ErrNotInitialized
	}
	if err := tex(t.scene).Upload(data); err != nil {
		return fmt.Errorf("tracer: could not upload %s: %w", what, err)
	}
	t.resetAccumulation(what + " changed")
	return nil
}

// Upload the diffuse texture array.
func (t *Tracer) SetDiffuseTextures(data *device.TextureData) error {
	return t.setTexture(func(s *kernels.Scene) *device.Texture { return s.DiffuseTextures }, data, "diffuse textures")
}

// Upload the tangent space normal map array.
func (t *Tracer) SetNormalTextures(data *device.TextureData) error {
	return t.setTexture(func(s *kernels.Scene) *device.Texture { return s.NormalTextures }, data, "normal textures")
}

// Upload the equirectangular environment map.
func (t *Tracer) SetEnvironmentMap(data *device.TextureData) error {
	return t.setTexture(func(s *kernels.Scene) *device.Texture { return s.EnvironmentMap }, data, "environment map")
}

// Get a copy of the current options.
func (t *Tracer) Options() Options {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.options
}

// Replace the tracer options.
func (t *Tracer) SetOptions(opts Options) error {
	return t.updateOptions(func(o *Options) { *o = opts })
}

// Apply a change to a copy of the options and keep it if it validates.
// Any effective change restarts accumulation.
func (t *Tracer) updateOptions(fn func(o *Options)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.options
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	if next != t.options {
		t.options = next
		t.resetAccumulation("options changed")
	}
	return nil
}

func (t *Tracer) setFlag(fn func(o *Options)) {
	// Flags never fail validation
	_ = t.updateOptions(fn)
}

func (t *Tracer) SetShadowsEnabled(on bool) { t.setFlag(func(o *Options) { o.Shadows = on }) }

func (t *Tracer) SetReflectionsEnabled(on bool) { t.setFlag(func(o *Options) { o.Reflections = on }) }

func (t *Tracer) SetRefractionsEnabled(on bool) { t.setFlag(func(o *Options) { o.Refractions = on }) }

func (t *Tracer) SetTexturingEnabled(on bool) { t.setFlag(func(o *Options) { o.Texturing = on }) }

func (t *Tracer) SetPathTracingEnabled(on bool) { t.setFlag(func(o *Options) { o.PathTracing = on }) }

func (t *Tracer) SetBSDFSamplingEnabled(on bool) { t.setFlag(func(o *Options) { o.BSDFSampling = on }) }

func (t *Tracer) SetAdaptiveSamplingEnabled(on bool) {
	t.setFlag(func(o *Options) { o.AdaptiveSampling = on })
}

func (t *Tracer) SetEnvironmentLightingEnabled(on bool) {
	t.setFlag(func(o *Options) { o.EnvironmentLighting = on })
}

func (t *Tracer) SetDepthOfFieldEnabled(on bool) { t.setFlag(func(o *Options) { o.DepthOfField = on }) }

func (t *Tracer) SetHaltonJitterEnabled(on bool) { t.setFlag(func(o *Options) { o.HaltonJitter = on }) }

func (t *Tracer) SetToneMappingEnabled(on bool) { t.setFlag(func(o *Options) { o.ToneMapping = on }) }

func (t *Tracer) SetBloomEnabled(on bool) { t.setFlag(func(o *Options) { o.Bloom = on }) }

// Set the number of path segments traced per sample in BSDF mode.
func (t *Tracer) SetMaxBounces(bounces int) error {
	return t.updateOptions(func(o *Options) { o.MaxBounces = bounces })
}

// Set the relative variance below which adaptive sampling stops sampling a
// pixel.
func (t *Tracer) SetVarianceThreshold(threshold float32) error {
	return t.updateOptions(func(o *Options) { o.VarianceThreshold = threshold })
}

// Set the minimum and maximum number of samples per pixel for adaptive
// sampling.
func (t *Tracer) SetSampleRange(min, max uint32) error {
	return t.updateOptions(func(o *Options) { o.MinSamples, o.MaxSamples = min, max })
}

// Set the environment map intensity and its rotation around the Y axis in
// degrees.
func (t *Tracer) SetEnvironment(intensity, rotation float32) error {
	return t.updateOptions(func(o *Options) { o.EnvIntensity, o.EnvRotation = intensity, rotation })
}

// Set the thin lens parameters.
func (t *Tracer) SetLens(aperture, focalDistance float32) error {
	return t.updateOptions(func(o *Options) { o.Aperture, o.FocalDistance = aperture, focalDistance })
}

// Set the tone mapping operator and its parameters.
func (t *Tracer) SetToneMap(method kernels.ToneMapMethod, exposure, gamma, whitePoint float32) error {
	return t.updateOptions(func(o *Options) {
		o.ToneMapMethod, o.Exposure, o.Gamma, o.WhitePoint = method, exposure, gamma, whitePoint
	})
}

// Set the bloom threshold and intensity.
func (t *Tracer) SetBloom(threshold, intensity float32) error {
	return t.updateOptions(func(o *Options) { o.BloomThreshold, o.BloomIntensity = threshold, intensity })
}

// Discard the accumulated samples. The next frame starts a new estimate.
func (t *Tracer) ResetAccumulation() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetAccumulation("reset requested")
}

func (t *Tracer) resetAccumulation(reason string) {
	if t.frameIndex != 0 {
		t.logger.Infof("resetting accumulation: %s", reason)
	}
	t.frameIndex = 0
}

// Get the number of frames accumulated since the last reset.
func (t *Tracer) FrameIndex() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frameIndex
}

// Get the render mode selected by the current options.
func (t *Tracer) Mode() RenderMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return selectMode(&t.options)
}

// Get the statistics for the last traced frame.
func (t *Tracer) Stats() FrameStats {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	return t.stats
}

// Encode and commit the commands that render a frame into target using a
// camera at origin looking at lookAt with a vertical field of view of fov
// degrees. Trace does not wait for the frame; callers must Wait on the
// queue before reading the target.
//
// A *SkipError is returned when a scene prerequisite is missing; in that
// case nothing is recorded and the target is left untouched. If encoding
// fails, every uncommitted command in q is discarded.
func (t *Tracer) Trace(q *device.Queue, target *device.Target, origin, lookAt, up types.Vec3, fov float32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkPrerequisites(q, target, fov); err != nil {
		return err
	}

	mode := selectMode(&t.options)
	if t.strategy == nil || t.strategy.Mode() != mode {
		if old := t.strategy; old != nil {
			// Frames already queued may still use the old buffers
			q.Do("release "+old.Mode().String()+" buffers", func() error {
				old.release()
				return nil
			})
			q.Commit()
			t.radiance = nil
		}
		t.strategy = newStrategy(mode, t.device.Arena(), t.logger)
		t.resetAccumulation("render mode changed to " + mode.String())
		t.logger.Debugf("using %s mode", mode)
	}

	key := frameKey{origin: origin, lookAt: lookAt, up: up, fov: fov, width: target.Width, height: target.Height}
	if t.haveFrame && key != t.lastFrame {
		t.resetAccumulation("camera or target changed")
	}
	t.lastFrame, t.haveFrame = key, true

	dims := frameDims{width: target.Width, height: target.Height, lights: t.scene.Lights.Len()}
	if err := t.strategy.ensureBuffers(dims); err != nil {
		t.logger.Errorf("could not allocate %s buffers for a %dx%d frame: %s", mode, dims.width, dims.height, err)
		return fmt.Errorf("tracer: could not allocate scratch buffers: %w", err)
	}
	if t.options.Bloom {
		if err := t.post.ensureBuffers(dims); err != nil {
			t.logger.Errorf("could not allocate bloom buffers for a %dx%d frame: %s", dims.width, dims.height, err)
			return fmt.Errorf("tracer: could not allocate bloom buffers: %w", err)
		}
	}

	fr := &frame{
		q:      q,
		res:    t.resources,
		scene:  t.scene,
		params: t.frameParams(mode, target, origin, lookAt, up, fov),
		dims:   dims,
	}
	if mode == AdaptiveMode {
		frameIndex := t.frameIndex
		fr.reportConverged = func(fraction float32) {
			t.statsMu.Lock()
			if t.stats.FrameIndex == frameIndex {
				t.stats.ConvergedFraction = fraction
			}
			t.statsMu.Unlock()
		}
	}

	start := time.Now()
	pending := q.Pending()
	colors, err := t.strategy.encode(fr)
	if err == nil {
		err = t.post.encode(fr, colors, target, t.options.ToneMapping, t.options.Bloom)
	}
	if err != nil {
		q.Discard()
		t.logger.Errorf("could not encode %s frame: %s", mode, err)
		return err
	}
	// Stats must be in place before the queue can report convergence
	t.statsMu.Lock()
	t.stats = FrameStats{
		Mode:       mode,
		FrameIndex: t.frameIndex,
		Width:      target.Width,
		Height:     target.Height,
		Commands:   q.Pending() - pending,
		EncodeTime: time.Since(start),
	}
	t.statsMu.Unlock()

	t.radiance = colors
	q.Commit()
	t.frameIndex++
	return nil
}

// Copy the linear radiance of the last traced frame into dst and return the
// number of copied pixels. Path tracing modes report the accumulated mean.
// Callers must wait for the queue the frame was committed to before reading.
func (t *Tracer) ReadRadiance(dst []types.Vec3) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.radiance == nil || !t.haveFrame {
		return 0
	}
	return t.radiance.Read(dst)
}

// Validate the arguments and scene state required to trace a frame.
func (t *Tracer) checkPrerequisites(q *device.Queue, target *device.Target, fov float32) error {
	switch {
	case t.resources == nil:
		return skip("tracer not initialized")
	case q == nil:
		return fmt.Errorf("%w: nil command queue", ErrInvalidArgument)
	case !(fov > 0 && fov < 180):
		return fmt.Errorf("%w: field of view must be in (0, 180) degrees; got %f", ErrInvalidArgument, fov)
	case !t.scene.Structure.Valid() || t.scene.Structure.TriangleCount() == 0:
		return skip("no acceleration structure")
	case target == nil || !target.Valid():
		return skip("invalid render target")
	case t.scene.Materials.Len() == 0:
		return skip("no materials")
	}
	return nil
}

// Build the kernel parameters for a frame.
func (t *Tracer) frameParams(mode RenderMode, target *device.Target, origin, lookAt, up types.Vec3, fov float32) kernels.Params {
	o := &t.options

	maxBounces := 1
	if o.BSDFSampling {
		maxBounces = o.MaxBounces
	}

	// Direct shading writes display values; the progressive modes produce
	// linear radiance.
	gamma := o.Gamma
	if mode == DirectMode && !o.ToneMapping {
		gamma = 1
	}

	return kernels.Params{
		Width:             target.Width,
		Height:            target.Height,
		FrameIndex:        t.frameIndex,
		Camera:            scene.NewCameraBasis(origin, lookAt, up, fov, target.Width, target.Height),
		Shadows:           o.Shadows,
		Texturing:         o.Texturing,
		Reflections:       o.Reflections,
		Refractions:       o.Refractions,
		BSDF:              o.BSDFSampling,
		HaltonJitter:      o.HaltonJitter,
		MaxBounces:        maxBounces,
		EnvLighting:       o.PathTracing && o.EnvironmentLighting,
		EnvIntensity:      o.EnvIntensity,
		EnvRotation:       o.EnvRotation * math32.Pi / 180,
		Aperture:          o.Aperture,
		FocalDistance:     o.FocalDistance,
		VarianceThreshold: o.VarianceThreshold,
		MinSamples:        o.MinSamples,
		MaxSamples:        o.MaxSamples,
		ToneMap: kernels.ToneMapParams{
			Method:     o.ToneMapMethod,
			Exposure:   o.Exposure,
			Gamma:      gamma,
			WhitePoint: o.WhitePoint,
		},
		BloomThreshold: o.BloomThreshold,
		BloomIntensity: o.BloomIntensity,
	}
}
