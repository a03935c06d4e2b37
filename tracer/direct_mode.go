package tracer

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/accel"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

// Whitted style direct shading.
type directMode struct {
	buffers *bufferSet

	rays   *device.Buffer[accel.Ray]
	hits   *device.Buffer[accel.Intersection]
	colors *device.Buffer[types.Vec3]

	shadowRays *device.Buffer[accel.Ray]
	shadowHits *device.Buffer[accel.Intersection]

	// Reflection bounce.
	reflRays   *device.Buffer[accel.Ray]
	reflHits   *device.Buffer[accel.Intersection]
	reflColors *device.Buffer[types.Vec3]

	// Refraction entry and exit rays.
	entryRays  *device.Buffer[accel.Ray]
	entryHits  *device.Buffer[accel.Intersection]
	exitRays   *device.Buffer[accel.Ray]
	exitHits   *device.Buffer[accel.Intersection]
	refrColors *device.Buffer[types.Vec3]
}

func newDirectMode(arena *device.Arena, logger log.Logger) *directMode {
	set := newBufferSet(arena, logger)
	return &directMode{
		buffers:    set,
		rays:       newScratch[accel.Ray](set, "direct rays", perPixel),
		hits:       newScratch[accel.Intersection](set, "direct hits", perPixel),
		colors:     newScratch[types.Vec3](set, "direct colors", perPixel),
		shadowRays: newScratch[accel.Ray](set, "shadow rays", perLightPixel),
		shadowHits: newScratch[accel.Intersection](set, "shadow hits", perLightPixel),
		reflRays:   newScratch[accel.Ray](set, "reflection rays", perPixel),
		reflHits:   newScratch[accel.Intersection](set, "reflection hits", perPixel),
		reflColors: newScratch[types.Vec3](set, "reflection colors", perPixel),
		entryRays:  newScratch[accel.Ray](set, "refraction entry rays", perPixel),
		entryHits:  newScratch[accel.Intersection](set, "refraction entry hits", perPixel),
		exitRays:   newScratch[accel.Ray](set, "refraction exit rays", perPixel),
		exitHits:   newScratch[accel.Intersection](set, "refraction exit hits", perPixel),
		refrColors: newScratch[types.Vec3](set, "refraction colors", perPixel),
	}
}

func (m *directMode) Mode() RenderMode {
	return DirectMode
}

func (m *directMode) ensureBuffers(d frameDims) error {
	return m.buffers.ensure(d)
}

func (m *directMode) release() {
	m.buffers.release()
}

func (m *directMode) encode(fr *frame) (*device.Buffer[types.Vec3], error) {
	pixels := fr.dims.pixels()
	p := &fr.params
	steps := []func() error{
		func() error { return fr.dispatch(rayGen, m.rays) },
		func() error { return fr.intersect(accel.NearestHit, m.rays, m.hits, pixels) },
	}

	if p.Shadows && fr.dims.lights > 0 {
		steps = append(steps,
			func() error { return fr.dispatch(shadowRayGen, fr.scene, m.rays, m.hits, m.shadowRays) },
			func() error {
				return fr.intersect(accel.AnyHit, m.shadowRays, m.shadowHits, perLightPixel(fr.dims))
			},
		)
	}
	steps = append(steps, func() error {
		return fr.dispatch(shade, fr.scene, m.rays, m.hits, m.shadowHits, m.colors)
	})

	// Transmissive surfaces need the reflected color for the Fresnel blend
	if p.Reflections || p.Refractions {
		steps = append(steps,
			func() error { return fr.dispatch(reflectionRayGen, fr.scene, m.rays, m.hits, m.reflRays) },
			func() error { return fr.intersect(accel.NearestHit, m.reflRays, m.reflHits, pixels) },
			func() error { return fr.dispatch(bounceColor, fr.scene, m.reflRays, m.reflHits, m.reflColors) },
		)
	}
	if p.Reflections {
		steps = append(steps, func() error {
			return fr.dispatch(blendReflection, fr.scene, m.rays, m.hits, m.colors, m.reflColors)
		})
	}

	if p.Refractions {
		steps = append(steps,
			func() error { return fr.dispatch(refractionRayGen, fr.scene, m.rays, m.hits, m.entryRays) },
			func() error { return fr.intersect(accel.NearestHit, m.entryRays, m.entryHits, pixels) },
			func() error {
				return fr.dispatch(refractionExitRayGen, fr.scene, m.entryRays, m.entryHits, m.exitRays)
			},
			func() error { return fr.intersect(accel.NearestHit, m.exitRays, m.exitHits, pixels) },
			func() error { return fr.dispatch(bounceColor, fr.scene, m.exitRays, m.exitHits, m.refrColors) },
			func() error {
				return fr.dispatch(blendRefraction, fr.scene, m.rays, m.hits, m.colors, m.reflColors, m.refrColors)
			},
		)
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return m.colors, nil
}
