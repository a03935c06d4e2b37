package tracer

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/accel"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/tracer/kernels"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

// The bounce loop shared by all progressive modes. Each mode supplies the
// kernel that generates primary rays and the kernel that folds the traced
// radiance into the accumulation buffer.
type pathTracer struct {
	buffers *bufferSet

	rng        *device.Buffer[uint32]
	rays       *device.Buffer[accel.Ray]
	nextRays   *device.Buffer[accel.Ray]
	hits       *device.Buffer[accel.Intersection]
	shadowRays *device.Buffer[accel.Ray]
	shadowHits *device.Buffer[accel.Intersection]
	paths      *device.Buffer[kernels.PathState]
	accum      *device.Buffer[types.Vec3]
}

func newPathTracer(arena *device.Arena, logger log.Logger) *pathTracer {
	set := newBufferSet(arena, logger)
	return &pathTracer{
		buffers:    set,
		rng:        newScratch[uint32](set, "rng state", perPixel),
		rays:       newScratch[accel.Ray](set, "path rays", perPixel),
		nextRays:   newScratch[accel.Ray](set, "path next rays", perPixel),
		hits:       newScratch[accel.Intersection](set, "path hits", perPixel),
		shadowRays: newScratch[accel.Ray](set, "path shadow rays", perLightPixel),
		shadowHits: newScratch[accel.Intersection](set, "path shadow hits", perLightPixel),
		paths:      newScratch[kernels.PathState](set, "path states", perPixel),
		accum:      newScratch[types.Vec3](set, "accumulation", perPixel),
	}
}

func (pt *pathTracer) ensureBuffers(d frameDims) error {
	return pt.buffers.ensure(d)
}

func (pt *pathTracer) release() {
	pt.buffers.release()
}

// Encode the bounce loop for rays that have already been generated into
// pt.rays. Rays and nextRays are swapped after every bounce; kernel args
// are captured when a command is queued so the swap does not affect
// commands already in the queue.
func (pt *pathTracer) traceBounces(fr *frame) error {
	pixels := fr.dims.pixels()
	shadows := fr.params.BSDF && fr.params.Shadows && fr.dims.lights > 0

	rays, nextRays := pt.rays, pt.nextRays
	for bounce := 0; bounce < fr.params.MaxBounces; bounce++ {
		params := fr.params
		params.Bounce = bounce

		if err := fr.intersect(accel.NearestHit, rays, pt.hits, pixels); err != nil {
			return err
		}
		if shadows {
			if err := fr.dispatchWith(params, shadowRayGen, fr.scene, rays, pt.hits, pt.shadowRays); err != nil {
				return err
			}
			if err := fr.intersect(accel.AnyHit, pt.shadowRays, pt.shadowHits, perLightPixel(fr.dims)); err != nil {
				return err
			}
		}
		if err := fr.dispatchWith(params, pathTrace, fr.scene, rays, pt.hits, pt.shadowHits, pt.rng, pt.paths, nextRays); err != nil {
			return err
		}
		rays, nextRays = nextRays, rays
	}
	return nil
}

// Progressive path tracing through a pinhole camera.
type pathTraceMode struct {
	*pathTracer
}

func newPathTraceMode(arena *device.Arena, logger log.Logger) *pathTraceMode {
	return &pathTraceMode{pathTracer: newPathTracer(arena, logger)}
}

func (m *pathTraceMode) Mode() RenderMode {
	return PathTraceMode
}

func (m *pathTraceMode) encode(fr *frame) (*device.Buffer[types.Vec3], error) {
	return encodePath(m.pathTracer, fr, pathTraceRayGen)
}

// Encode a complete progressive frame using the supplied ray generator and
// the plain accumulator.
func encodePath(pt *pathTracer, fr *frame, gen kernelType) (*device.Buffer[types.Vec3], error) {
	if err := fr.dispatch(gen, pt.rng, pt.rays, pt.paths); err != nil {
		return nil, err
	}
	if err := pt.traceBounces(fr); err != nil {
		return nil, err
	}
	if err := fr.dispatch(accumulate, pt.paths, pt.accum); err != nil {
		return nil, err
	}
	return pt.accum, nil
}

// Path tracing where escaped rays sample the environment map.
type envLitMode struct {
	*pathTracer
	logger log.Logger
	warned bool
}

func newEnvLitMode(arena *device.Arena, logger log.Logger) *envLitMode {
	return &envLitMode{
		pathTracer: newPathTracer(arena, logger),
		logger:     logger,
	}
}

func (m *envLitMode) Mode() RenderMode {
	return EnvironmentLitMode
}

func (m *envLitMode) encode(fr *frame) (*device.Buffer[types.Vec3], error) {
	if env := fr.scene.EnvironmentMap; (env == nil || env.Data() == nil) && !m.warned {
		m.logger.Warning("environment lighting is enabled but no environment map is bound; falling back to the sky gradient")
		m.warned = true
	}
	return encodePath(m.pathTracer, fr, pathTraceRayGen)
}

// Path tracing through a thin lens camera.
type dofMode struct {
	*pathTracer
}

func newDOFMode(arena *device.Arena, logger log.Logger) *dofMode {
	return &dofMode{pathTracer: newPathTracer(arena, logger)}
}

func (m *dofMode) Mode() RenderMode {
	return DepthOfFieldMode
}

func (m *dofMode) encode(fr *frame) (*device.Buffer[types.Vec3], error) {
	return encodePath(m.pathTracer, fr, dofRayGen)
}

// Path tracing that tracks per pixel variance and stops sampling converged
// pixels.
type adaptiveMode struct {
	*pathTracer
	stats *device.Buffer[kernels.PixelStats]
}

func newAdaptiveMode(arena *device.Arena, logger log.Logger) *adaptiveMode {
	pt := newPathTracer(arena, logger)
	return &adaptiveMode{
		pathTracer: pt,
		stats:      newScratch[kernels.PixelStats](pt.buffers, "pixel stats", perPixel),
	}
}

func (m *adaptiveMode) Mode() RenderMode {
	return AdaptiveMode
}

func (m *adaptiveMode) encode(fr *frame) (*device.Buffer[types.Vec3], error) {
	pixels := fr.dims.pixels()
	if fr.params.FrameIndex == 0 {
		if err := fr.dispatch1D(resetAdaptiveStats, pixels, m.stats); err != nil {
			return nil, err
		}
	}
	if err := fr.dispatch(adaptiveRayGen, m.rng, m.rays, m.paths, m.stats); err != nil {
		return nil, err
	}
	if err := m.traceBounces(fr); err != nil {
		return nil, err
	}
	if err := fr.dispatch(adaptiveAccumulate, m.paths, m.stats, m.accum); err != nil {
		return nil, err
	}

	if fr.reportConverged != nil {
		stats, report := m.stats.Data()[:pixels], fr.reportConverged
		fr.q.Do("count converged pixels", func() error {
			report(convergedFraction(stats))
			return nil
		})
	}
	return m.accum, nil
}

// Compute the fraction of pixels whose estimate has converged.
func convergedFraction(stats []kernels.PixelStats) float32 {
	if len(stats) == 0 {
		return 0
	}
	var converged int
	for i := range stats {
		if stats[i].Converged {
			converged++
		}
	}
	return float32(converged) / float32(len(stats))
}
