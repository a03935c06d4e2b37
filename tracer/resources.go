package tracer

import (
	"fmt"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/accel"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/tracer/kernels"
)

// A container that stores handles to the loaded kernels and the
// intersector.
type deviceResources struct {
	// The set of kernels indexed by kernelType.
	kernels []*device.Kernel

	intersector *accel.Intersector
}

// Using the supplied initialized device as a target, load all defined
// kernels. Loading fails if any kernel is missing from the device program.
func newDeviceResources(dev *device.Device) (*deviceResources, error) {
	var err error

	if dev == nil {
		return nil, fmt.Errorf("device_resources: invalid device handle")
	}

	dr := &deviceResources{
		kernels: make([]*device.Kernel, numKernels),
	}

	var kType kernelType
	for kType = 0; kType < numKernels; kType++ {
		dr.kernels[kType], err = dev.Kernel(kType.String())
		if err != nil {
			dr.Close()
			return nil, err
		}
	}

	dr.intersector, err = accel.NewIntersector(dev)
	if err != nil {
		dr.Close()
		return nil, err
	}

	return dr, nil
}

// Release all loaded kernels.
func (dr *deviceResources) Close() {
	for _, kernel := range dr.kernels {
		if kernel != nil {
			kernel.Release()
		}
	}
	dr.kernels = nil
	dr.intersector = nil
}

// The state shared by all commands encoded for a single frame.
type frame struct {
	q      *device.Queue
	res    *deviceResources
	scene  *kernels.Scene
	params kernels.Params
	dims   frameDims

	// Invoked from the queue with the fraction of converged pixels once
	// the adaptive sampler has processed the frame.
	reportConverged func(float32)
}

// Encode a kernel dispatch over the output image using the frame params
// followed by args.
func (fr *frame) dispatch(kt kernelType, args ...interface{}) error {
	return fr.dispatchWith(fr.params, kt, args...)
}

// Encode a kernel dispatch over the output image using custom params.
func (fr *frame) dispatchWith(params kernels.Params, kt kernelType, args ...interface{}) error {
	return fr.dispatchGrid(params, kt, params.Width, params.Height, args...)
}

// Encode a kernel dispatch over an arbitrary grid.
func (fr *frame) dispatchGrid(params kernels.Params, kt kernelType, width, height int, args ...interface{}) error {
	kernel := fr.res.kernels[kt]
	if err := kernel.SetArgs(append([]interface{}{params}, args...)...); err != nil {
		return err
	}
	return fr.q.Dispatch2D(kernel, 0, 0, width, height)
}

// Encode a 1D kernel dispatch over count items.
func (fr *frame) dispatch1D(kt kernelType, count int, args ...interface{}) error {
	kernel := fr.res.kernels[kt]
	if err := kernel.SetArgs(append([]interface{}{fr.params}, args...)...); err != nil {
		return err
	}
	return fr.q.Dispatch1D(kernel, 0, count)
}

// Encode an intersection query for the first count rays.
func (fr *frame) intersect(kind accel.QueryKind, rays *device.Buffer[accel.Ray], hits *device.Buffer[accel.Intersection], count int) error {
	if count == 0 {
		return nil
	}
	return fr.res.intersector.Encode(fr.q, kind, fr.scene.Structure, rays, hits, count)
}
