package accel

import (
	"fmt"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
)

// Names of the intersection kernels registered by RegisterKernels.
const (
	NearestHitKernel = "intersectNearest"
	AnyHitKernel     = "intersectAny"
)

// The type of intersection query to run.
type QueryKind uint8

const (
	// Report the closest intersection along each ray.
	NearestHit QueryKind = iota

	// Report any intersection along each ray; used for visibility tests.
	AnyHit
)

// Implements Stringer.
func (k QueryKind) String() string {
	switch k {
	case NearestHit:
		return "nearest-hit"
	case AnyHit:
		return "any-hit"
	}
	panic(fmt.Sprintf("accel: unsupported query kind %d", k))
}

// Register the intersection kernels with a device program.
func RegisterKernels(program *device.Program) *device.Program {
	return program.
		Register(NearestHitKernel, intersectKernel(false)).
		Register(AnyHitKernel, intersectKernel(true))
}

// Kernel args: structure, rays, intersections, ray count.
func intersectKernel(anyHit bool) device.KernelFunc {
	return func(args device.Args) (device.WorkItem, error) {
		var (
			structure *Structure
			rays      *device.Buffer[Ray]
			hits      *device.Buffer[Intersection]
			count     int32
		)
		if err := args.Bind(&structure, &rays, &hits, &count); err != nil {
			return nil, err
		}

		rayData, hitData := rays.Data(), hits.Data()
		if int(count) > len(rayData) || int(count) > len(hitData) {
			return nil, fmt.Errorf("%w: %d rays, %d ray slots, %d intersection slots", ErrRayBufferSize, count, len(rayData), len(hitData))
		}

		bvh := structure.snapshot()
		return func(x, _ int) {
			hitData[x] = bvh.intersect(rayData[x], anyHit)
		}, nil
	}
}

// Drives the intersection kernels of a device.
type Intersector struct {
	kernels [2]*device.Kernel
}

// Load the intersection kernels from an initialized device.
func NewIntersector(dev *device.Device) (*Intersector, error) {
	nearest, err := dev.Kernel(NearestHitKernel)
	if err != nil {
		return nil, err
	}
	anyHit, err := dev.Kernel(AnyHitKernel)
	if err != nil {
		return nil, err
	}
	return &Intersector{kernels: [2]*device.Kernel{nearest, anyHit}}, nil
}

// Encode an intersection query for the first count rays onto the queue.
// The query runs after every previously encoded command.
func (in *Intersector) Encode(q *device.Queue, kind QueryKind, structure *Structure, rays *device.Buffer[Ray], hits *device.Buffer[Intersection], count int) error {
	kernel := in.kernels[kind]
	if err := kernel.SetArgs(structure, rays, hits, int32(count)); err != nil {
		return err
	}
	return q.Dispatch1D(kernel, 0, count)
}
