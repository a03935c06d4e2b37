package kernels

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/accel"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

// The state of a path traced through the scene.
type PathState struct {
	Throughput types.Vec3
	Radiance   types.Vec3
	Active     bool
}

func cameraRay(origin, dir types.Vec3) accel.Ray {
	return accel.Ray{
		Origin:      origin,
		Direction:   dir,
		MaxDistance: math32.MaxFloat32,
	}
}

// Get the primary ray through the center of pixel (x, y).
func pixelCenterRay(p *Params, x, y int) accel.Ray {
	return cameraRay(p.Camera.Origin, p.Camera.Direction(float32(x)+0.5, float32(y)+0.5))
}

// Get a primary ray through a jittered position inside pixel (x, y). The
// pixel RNG is seeded from the pixel coordinates on the first frame of an
// accumulation session.
func jitteredRay(p *Params, rng *uint32, x, y int) accel.Ray {
	if p.FrameIndex == 0 {
		*rng = seedRNG(x, y)
	}

	var jx, jy float32
	if p.HaltonJitter {
		// Cranley-Patterson rotation decorrelates the sequence across pixels
		rot := pcgHash(seedRNG(x, y))
		jx = fract(haltonSample(0, p.FrameIndex+1) + float32(rot&0xffff)/(1<<16))
		jy = fract(haltonSample(1, p.FrameIndex+1) + float32(rot>>16)/(1<<16))
	} else {
		jx = nextFloat(rng)
		jy = nextFloat(rng)
	}

	return cameraRay(p.Camera.Origin, p.Camera.Direction(float32(x)+jx, float32(y)+jy))
}

// Apply a thin lens to a pinhole ray. The ray is unchanged for apertures
// <= 0 and no random numbers are consumed.
func thinLensRay(p *Params, rng *uint32, ray accel.Ray) accel.Ray {
	if p.Aperture <= 0 {
		return ray
	}

	cosTheta := ray.Direction.Dot(p.Camera.Forward)
	if cosTheta <= 0 {
		return ray
	}
	focus := ray.At(p.FocalDistance / cosTheta)

	lens := concentricSampleDisk(nextFloat(rng), nextFloat(rng)).Mul(p.Aperture)
	origin := p.Camera.Origin.
		Add(p.Camera.Right.Mul(lens[0])).
		Add(p.Camera.Up.Mul(lens[1]))

	return cameraRay(origin, focus.Sub(origin).Normalize())
}

func beginPath(path *PathState) {
	*path = PathState{
		Throughput: types.XYZ(1, 1, 1),
		Active:     true,
	}
}

// Kernel args: params, rays.
func rayGenKernel(args device.Args) (device.WorkItem, error) {
	var (
		p    Params
		rays *device.Buffer[accel.Ray]
	)
	if err := args.Bind(&p, &rays); err != nil {
		return nil, err
	}

	rayData := rays.Data()
	if err := requireLen("rays", len(rayData), p.PixelCount()); err != nil {
		return nil, err
	}

	return func(x, y int) {
		rayData[y*p.Width+x] = pixelCenterRay(&p, x, y)
	}, nil
}

type pathRayGenArgs struct {
	p        Params
	rngData  []uint32
	rayData  []accel.Ray
	pathData []PathState
}

func bindPathRayGen(args device.Args, extra ...interface{}) (*pathRayGenArgs, error) {
	var (
		a     pathRayGenArgs
		rng   *device.Buffer[uint32]
		rays  *device.Buffer[accel.Ray]
		paths *device.Buffer[PathState]
	)
	if err := args.Bind(append([]interface{}{&a.p, &rng, &rays, &paths}, extra...)...); err != nil {
		return nil, err
	}

	a.rngData, a.rayData, a.pathData = rng.Data(), rays.Data(), paths.Data()
	pixels := a.p.PixelCount()
	for _, check := range []struct {
		name string
		have int
	}{{"rng", len(a.rngData)}, {"rays", len(a.rayData)}, {"paths", len(a.pathData)}} {
		if err := requireLen(check.name, check.have, pixels); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

// Kernel args: params, rng states, rays, path states.
func pathTraceRayGenKernel(args device.Args) (device.WorkItem, error) {
	a, err := bindPathRayGen(args)
	if err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		a.rayData[idx] = jitteredRay(&a.p, &a.rngData[idx], x, y)
		beginPath(&a.pathData[idx])
	}, nil
}

// Kernel args: params, rng states, rays, path states.
func dofRayGenKernel(args device.Args) (device.WorkItem, error) {
	a, err := bindPathRayGen(args)
	if err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		ray := jitteredRay(&a.p, &a.rngData[idx], x, y)
		a.rayData[idx] = thinLensRay(&a.p, &a.rngData[idx], ray)
		beginPath(&a.pathData[idx])
	}, nil
}

// Kernel args: params, rng states, rays, path states, pixel stats.
// Converged pixels receive an invalid ray and an inactive path.
func adaptiveRayGenKernel(args device.Args) (device.WorkItem, error) {
	var stats *device.Buffer[PixelStats]
	a, err := bindPathRayGen(args, &stats)
	if err != nil {
		return nil, err
	}

	statData := stats.Data()
	if err := requireLen("stats", len(statData), a.p.PixelCount()); err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		if statData[idx].Converged {
			a.rayData[idx] = accel.InvalidRay()
			a.pathData[idx] = PathState{}
			return
		}
		a.rayData[idx] = jitteredRay(&a.p, &a.rngData[idx], x, y)
		beginPath(&a.pathData[idx])
	}, nil
}

// Kernel args: params, pixel stats.
func resetAdaptiveStatsKernel(args device.Args) (device.WorkItem, error) {
	var (
		p     Params
		stats *device.Buffer[PixelStats]
	)
	if err := args.Bind(&p, &stats); err != nil {
		return nil, err
	}

	statData := stats.Data()
	if err := requireLen("stats", len(statData), p.PixelCount()); err != nil {
		return nil, err
	}

	return func(x, _ int) {
		statData[x] = PixelStats{}
	}, nil
}
