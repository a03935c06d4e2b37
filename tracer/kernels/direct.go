package kernels

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/accel"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

// Arguments shared by kernels that read a ray batch and its hits.
type hitArgs struct {
	p       Params
	view    *sceneView
	rayData []accel.Ray
	hitData []accel.Intersection
}

// Bind params, scene, rays and hits followed by any extra arguments.
func bindHits(args device.Args, extra ...interface{}) (*hitArgs, error) {
	var (
		a    hitArgs
		scn  *Scene
		rays *device.Buffer[accel.Ray]
		hits *device.Buffer[accel.Intersection]
	)
	if err := args.Bind(append([]interface{}{&a.p, &scn, &rays, &hits}, extra...)...); err != nil {
		return nil, err
	}

	a.view = scn.view()
	a.rayData, a.hitData = rays.Data(), hits.Data()
	pixels := a.p.PixelCount()
	if err := requireLen("rays", len(a.rayData), pixels); err != nil {
		return nil, err
	}
	if err := requireLen("hits", len(a.hitData), pixels); err != nil {
		return nil, err
	}
	return &a, nil
}

// Check whether the ray hit anything. Invalid rays never hit.
func (a *hitArgs) hit(idx int) bool {
	return a.rayData[idx].Valid() && a.hitData[idx].Hit()
}

func (a *hitArgs) surface(idx int) surface {
	return a.view.surfaceAt(&a.p, a.rayData[idx], a.hitData[idx])
}

// Kernel args: params, scene, rays, hits, shadow rays. For every pixel one
// shadow ray is generated per light and stored at lightIndex * pixelCount
// + pixelIndex. Pixels without a hit get invalid shadow rays.
func shadowRayGenKernel(args device.Args) (device.WorkItem, error) {
	var shadowRays *device.Buffer[accel.Ray]
	a, err := bindHits(args, &shadowRays)
	if err != nil {
		return nil, err
	}

	pixels := a.p.PixelCount()
	lights := a.view.lights
	shadowData := shadowRays.Data()
	if err := requireLen("shadow rays", len(shadowData), len(lights)*pixels); err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		if !a.hit(idx) {
			for lightIndex := range lights {
				shadowData[lightIndex*pixels+idx] = accel.InvalidRay()
			}
			return
		}

		s := a.surface(idx)
		origin := offsetPoint(s.position, s.geometricNormal, 1)
		for lightIndex := range lights {
			toLight, dist, falloff := lights[lightIndex].Illuminate(s.position)
			if falloff == 0 || s.geometricNormal.Dot(toLight) <= 0 {
				shadowData[lightIndex*pixels+idx] = accel.InvalidRay()
				continue
			}

			maxDist := float32(math32.MaxFloat32)
			if !math32.IsInf(dist, 1) {
				maxDist = dist - rayEpsilon
			}
			shadowData[lightIndex*pixels+idx] = accel.Ray{
				Origin:      origin,
				Direction:   toLight,
				MaxDistance: maxDist,
			}
		}
	}, nil
}

// Kernel args: params, scene, rays, hits, shadow hits, colors. Shadow hits
// are only consulted when shadows are enabled.
func shadeKernel(args device.Args) (device.WorkItem, error) {
	var (
		shadowHits *device.Buffer[accel.Intersection]
		colors     *device.Buffer[types.Vec3]
	)
	a, err := bindHits(args, &shadowHits, &colors)
	if err != nil {
		return nil, err
	}

	pixels := a.p.PixelCount()
	shadowData, colorData := shadowHits.Data(), colors.Data()
	if err := requireLen("colors", len(colorData), pixels); err != nil {
		return nil, err
	}
	if a.p.Shadows {
		if err := requireLen("shadow hits", len(shadowData), len(a.view.lights)*pixels); err != nil {
			return nil, err
		}
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		ray := a.rayData[idx]
		switch {
		case !ray.Valid():
			colorData[idx] = types.Vec3{}
		case !a.hitData[idx].Hit():
			colorData[idx] = skyColor(ray.Direction)
		default:
			var visible func(int) bool
			if a.p.Shadows {
				visible = func(lightIndex int) bool {
					return !shadowData[lightIndex*pixels+idx].Hit()
				}
			}
			s := a.surface(idx)
			colorData[idx] = shadeSurface(&s, ray.Direction.Neg(), a.view.lights, visible)
		}
	}, nil
}

// Check whether a surface needs a reflection ray. Transmissive surfaces
// always get one when refractions are enabled so the Fresnel blend has a
// reflected color to work with.
func needsReflection(p *Params, s *surface) bool {
	if p.Reflections && s.material.Reflectivity() > 0 {
		return true
	}
	return p.Refractions && s.material.Transmission() > 0
}

// Kernel args: params, scene, rays, hits, reflection rays.
func reflectionRayGenKernel(args device.Args) (device.WorkItem, error) {
	var bounceRays *device.Buffer[accel.Ray]
	a, err := bindHits(args, &bounceRays)
	if err != nil {
		return nil, err
	}

	bounceData := bounceRays.Data()
	if err := requireLen("reflection rays", len(bounceData), a.p.PixelCount()); err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		bounceData[idx] = accel.InvalidRay()
		if !a.hit(idx) {
			return
		}

		s := a.surface(idx)
		if !needsReflection(&a.p, &s) {
			return
		}

		dir := a.rayData[idx].Direction.Reflect(s.normal).Normalize()
		bounceData[idx] = cameraRay(offsetPoint(s.position, s.geometricNormal, 1), dir)
	}, nil
}

// Kernel args: params, scene, rays, hits, colors. Shades secondary rays
// without shadows; misses return the sky and invalid rays black.
func bounceColorKernel(args device.Args) (device.WorkItem, error) {
	var colors *device.Buffer[types.Vec3]
	a, err := bindHits(args, &colors)
	if err != nil {
		return nil, err
	}

	colorData := colors.Data()
	if err := requireLen("colors", len(colorData), a.p.PixelCount()); err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		ray := a.rayData[idx]
		switch {
		case !ray.Valid():
			colorData[idx] = types.Vec3{}
		case !a.hitData[idx].Hit():
			colorData[idx] = skyColor(ray.Direction)
		default:
			s := a.surface(idx)
			colorData[idx] = shadeSurface(&s, ray.Direction.Neg(), a.view.lights, nil)
		}
	}, nil
}

// Kernel args: params, scene, rays, hits, colors, bounce colors.
func blendReflectionKernel(args device.Args) (device.WorkItem, error) {
	var colors, bounceColors *device.Buffer[types.Vec3]
	a, err := bindHits(args, &colors, &bounceColors)
	if err != nil {
		return nil, err
	}

	colorData, bounceData := colors.Data(), bounceColors.Data()
	pixels := a.p.PixelCount()
	if err := requireLen("colors", len(colorData), pixels); err != nil {
		return nil, err
	}
	if err := requireLen("bounce colors", len(bounceData), pixels); err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		if !a.hit(idx) {
			return
		}

		mat := a.view.material(a.hitData[idx].PrimitiveIndex)
		r := mat.Reflectivity()
		if r <= 0 {
			return
		}
		colorData[idx] = blendReflectionColor(colorData[idx], bounceData[idx], mat.Reflection.Vec3(), r)
	}, nil
}

// Refract a ray at a surface. n faces the incoming ray. On total internal
// reflection the ray is reflected instead and stays on the incoming side.
func refractRay(s *surface, dir types.Vec3, eta float32) accel.Ray {
	n := s.geometricNormal
	if refracted, ok := dir.Refract(n, eta); ok {
		return cameraRay(offsetPoint(s.position, n, -1), refracted.Normalize())
	}
	return cameraRay(offsetPoint(s.position, n, 1), dir.Reflect(n).Normalize())
}

// Kernel args: params, scene, rays, hits, refraction rays. Generates the
// rays that enter transmissive surfaces.
func refractionRayGenKernel(args device.Args) (device.WorkItem, error) {
	var refrRays *device.Buffer[accel.Ray]
	a, err := bindHits(args, &refrRays)
	if err != nil {
		return nil, err
	}

	refrData := refrRays.Data()
	if err := requireLen("refraction rays", len(refrData), a.p.PixelCount()); err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		refrData[idx] = accel.InvalidRay()
		if !a.hit(idx) {
			return
		}

		mat := a.view.material(a.hitData[idx].PrimitiveIndex)
		if mat.Transmission() <= 0 {
			return
		}

		s := a.surface(idx)
		eta := 1 / mat.IOR()
		if !s.frontFace {
			eta = mat.IOR()
		}
		refrData[idx] = refractRay(&s, a.rayData[idx].Direction, eta)
	}, nil
}

// Kernel args: params, scene, entry rays, entry hits, exit rays. Continues
// refraction rays through the far side of the transmissive object. Rays
// that leave the scene without hitting the far side are continued unchanged
// so they pick up the background.
func refractionExitRayGenKernel(args device.Args) (device.WorkItem, error) {
	var exitRays *device.Buffer[accel.Ray]
	a, err := bindHits(args, &exitRays)
	if err != nil {
		return nil, err
	}

	exitData := exitRays.Data()
	if err := requireLen("exit rays", len(exitData), a.p.PixelCount()); err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		ray := a.rayData[idx]
		switch {
		case !ray.Valid():
			exitData[idx] = accel.InvalidRay()
		case !a.hitData[idx].Hit():
			exitData[idx] = ray
		default:
			s := a.surface(idx)
			eta := s.material.IOR()
			if s.frontFace {
				eta = 1 / eta
			}
			exitData[idx] = refractRay(&s, ray.Direction, eta)
		}
	}, nil
}

// Kernel args: params, scene, rays, hits, colors, reflection colors,
// refraction colors.
func blendRefractionKernel(args device.Args) (device.WorkItem, error) {
	var colors, reflColors, refrColors *device.Buffer[types.Vec3]
	a, err := bindHits(args, &colors, &reflColors, &refrColors)
	if err != nil {
		return nil, err
	}

	colorData, reflData, refrData := colors.Data(), reflColors.Data(), refrColors.Data()
	pixels := a.p.PixelCount()
	for _, check := range []struct {
		name string
		have int
	}{{"colors", len(colorData)}, {"reflection colors", len(reflData)}, {"refraction colors", len(refrData)}} {
		if err := requireLen(check.name, check.have, pixels); err != nil {
			return nil, err
		}
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		if !a.hit(idx) {
			return
		}

		mat := a.view.material(a.hitData[idx].PrimitiveIndex)
		transmission := mat.Transmission()
		if transmission <= 0 {
			return
		}

		s := a.surface(idx)
		cosTheta := math32.Abs(a.rayData[idx].Direction.Dot(s.geometricNormal))
		fresnel := fresnelSchlick(cosTheta, mat.IOR())
		refracted := refrData[idx].MulVec(mat.Refraction.Vec3())
		colorData[idx] = blendTransmission(colorData[idx], reflData[idx], refracted, fresnel, transmission)
	}, nil
}
