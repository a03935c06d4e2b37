package kernels

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/accel"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

const (
	// First bounce that is subject to russian roulette termination.
	rouletteMinBounce = 2

	minSurvivalProbability = 0.05
)

// Sum the direct light contribution at a path vertex. The basic model
// uses a Lambert term without visibility; the BSDF model evaluates the
// Cook-Torrance BRDF and honors the visibility callback when it is set.
func (v *sceneView) directLight(p *Params, s *surface, b *bsdfParams, toEye types.Vec3, visible func(int) bool) types.Vec3 {
	var direct types.Vec3
	for lightIndex := range v.lights {
		light := &v.lights[lightIndex]
		toLight, _, falloff := light.Illuminate(s.position)
		nDotL := s.normal.Dot(toLight)
		if falloff == 0 || nDotL <= 0 {
			continue
		}

		radiance := light.Radiance().Mul(falloff * nDotL)
		if !p.BSDF {
			direct = direct.Add(s.albedo.MulVec(radiance))
			continue
		}

		if visible != nil && !visible(lightIndex) {
			continue
		}
		// Light intensities are expressed in the same units as the direct
		// shading model so the BRDF is scaled by pi.
		direct = direct.Add(cookTorrance(b, s.normal, toEye, toLight).MulVec(radiance).Mul(math32.Pi))
	}
	return direct
}

// Kernel args: params, scene, rays, hits, shadow hits, rng states, path
// states, next rays. Processes one bounce for every active path and writes
// the continuation rays. Shadow hits are consulted in BSDF mode when
// shadows are enabled.
func pathTraceKernel(args device.Args) (device.WorkItem, error) {
	var (
		shadowHits *device.Buffer[accel.Intersection]
		rng        *device.Buffer[uint32]
		paths      *device.Buffer[PathState]
		nextRays   *device.Buffer[accel.Ray]
	)
	a, err := bindHits(args, &shadowHits, &rng, &paths, &nextRays)
	if err != nil {
		return nil, err
	}

	pixels := a.p.PixelCount()
	shadowData, rngData, pathData, nextData := shadowHits.Data(), rng.Data(), paths.Data(), nextRays.Data()
	for _, check := range []struct {
		name string
		have int
	}{{"rng", len(rngData)}, {"paths", len(pathData)}, {"next rays", len(nextData)}} {
		if err := requireLen(check.name, check.have, pixels); err != nil {
			return nil, err
		}
	}
	checkShadows := a.p.BSDF && a.p.Shadows
	if checkShadows {
		if err := requireLen("shadow hits", len(shadowData), len(a.view.lights)*pixels); err != nil {
			return nil, err
		}
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		nextData[idx] = accel.InvalidRay()

		path := &pathData[idx]
		ray := a.rayData[idx]
		if !path.Active || !ray.Valid() {
			path.Active = false
			return
		}

		if !a.hitData[idx].Hit() {
			path.Radiance = path.Radiance.Add(path.Throughput.MulVec(a.view.background(&a.p, ray.Direction)))
			path.Active = false
			return
		}

		s := a.surface(idx)
		toEye := ray.Direction.Neg()
		b := bsdfFromSurface(&s)

		var visible func(int) bool
		if checkShadows {
			visible = func(lightIndex int) bool {
				return !shadowData[lightIndex*pixels+idx].Hit()
			}
		}

		emitted := s.material.Emission.Vec3().Add(a.view.directLight(&a.p, &s, &b, toEye, visible))
		path.Radiance = path.Radiance.Add(path.Throughput.MulVec(emitted))

		if !a.p.BSDF || a.p.Bounce+1 >= a.p.MaxBounces {
			path.Active = false
			return
		}

		state := &rngData[idx]
		dir, weight, ok := sampleBSDF(&b, s.normal, toEye, nextFloat(state), nextFloat(state), nextFloat(state))
		if !ok {
			path.Active = false
			return
		}
		path.Throughput = path.Throughput.MulVec(weight)

		if a.p.Bounce >= rouletteMinBounce {
			survival := math32.Min(math32.Max(path.Throughput.MaxComponent(), minSurvivalProbability), 1)
			if nextFloat(state) >= survival {
				path.Active = false
				return
			}
			path.Throughput = path.Throughput.Mul(1 / survival)
		}

		if path.Throughput.MaxComponent() <= 0 {
			path.Active = false
			return
		}

		side := float32(1)
		if dir.Dot(s.geometricNormal) < 0 {
			side = -1
		}
		nextData[idx] = cameraRay(offsetPoint(s.position, s.geometricNormal, side), dir)
	}, nil
}

// Replace non-finite color components with zero.
func finite(c types.Vec3) types.Vec3 {
	for i, v := range c {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			c[i] = 0
		}
	}
	return c
}

// Blend a new sample into the running average of n previous samples.
func accumulateSample(old, sample types.Vec3, n uint32) types.Vec3 {
	if n == 0 {
		return sample
	}
	return old.Add(sample.Sub(old).Mul(1 / float32(n+1)))
}

// Kernel args: params, path states, accumulation buffer.
func accumulateKernel(args device.Args) (device.WorkItem, error) {
	var (
		p     Params
		paths *device.Buffer[PathState]
		accum *device.Buffer[types.Vec3]
	)
	if err := args.Bind(&p, &paths, &accum); err != nil {
		return nil, err
	}

	pathData, accumData := paths.Data(), accum.Data()
	if err := requireLen("paths", len(pathData), p.PixelCount()); err != nil {
		return nil, err
	}
	if err := requireLen("accumulation", len(accumData), p.PixelCount()); err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*p.Width + x
		accumData[idx] = accumulateSample(accumData[idx], finite(pathData[idx].Radiance), p.FrameIndex)
	}, nil
}

// Kernel args: params, path states, pixel stats, accumulation buffer.
// Converged pixels keep their accumulated value.
func adaptiveAccumulateKernel(args device.Args) (device.WorkItem, error) {
	var (
		p     Params
		paths *device.Buffer[PathState]
		stats *device.Buffer[PixelStats]
		accum *device.Buffer[types.Vec3]
	)
	if err := args.Bind(&p, &paths, &stats, &accum); err != nil {
		return nil, err
	}

	pathData, statData, accumData := paths.Data(), stats.Data(), accum.Data()
	for _, check := range []struct {
		name string
		have int
	}{{"paths", len(pathData)}, {"stats", len(statData)}, {"accumulation", len(accumData)}} {
		if err := requireLen(check.name, check.have, p.PixelCount()); err != nil {
			return nil, err
		}
	}

	return func(x, y int) {
		idx := y*p.Width + x
		st := &statData[idx]
		if st.Converged {
			return
		}
		st.Add(finite(pathData[idx].Radiance))
		st.UpdateConvergence(p.VarianceThreshold, p.MinSamples, p.MaxSamples)
		accumData[idx] = st.Mean
	}, nil
}
