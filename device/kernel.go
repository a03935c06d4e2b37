package device

import (
	"fmt"
	"time"
)

// A kernel loaded from a device program.
type Kernel struct {
	device *Device
	fn     KernelFunc
	name   string

	// Arguments bound via SetArgs.
	args Args
}

// Get kernel name.
func (k *Kernel) Name() string {
	return k.name
}

// Free any resources used by this kernel.
func (k *Kernel) Release() {
	k.args = nil
}

// Bind arguments to the kernel. The arguments are validated against the
// kernel signature immediately and are resolved again by every dispatch.
func (k *Kernel) SetArgs(args ...interface{}) error {
	if _, err := k.fn(Args(args)); err != nil {
		return fmt.Errorf("device (%s): could not set args for kernel %s: %w", k.device.Name, k.name, err)
	}

	k.args = append(Args(nil), args...)
	return nil
}

// Resolve the current args into a work item and return a function that
// executes it over the given grid. Buffer storage is captured here so a
// recorded dispatch is not affected by buffers that are resized or released
// before it runs.
func (k *Kernel) launcher(offsetX, offsetY, sizeX, sizeY int) (func() error, error) {
	if k.args == nil {
		return nil, fmt.Errorf("device (%s): unable to execute kernel %s: %w", k.device.Name, k.name, ErrArgsNotSet)
	}

	work, err := k.fn(k.args)
	if err != nil {
		return nil, fmt.Errorf("device (%s): unable to execute kernel %s: %w", k.device.Name, k.name, err)
	}
	return func() error {
		return k.device.run(k.name, work, offsetX, offsetY, sizeX, sizeY)
	}, nil
}

// Execute 1D kernel and wait for it to complete.
func (k *Kernel) Exec1D(offset, globalWorkSize int) (time.Duration, error) {
	launch, err := k.launcher(offset, 0, globalWorkSize, 1)
	if err != nil {
		return 0, err
	}

	tick := time.Now()
	if err = launch(); err != nil {
		return 0, err
	}
	return time.Since(tick), nil
}

// Execute 2D kernel and wait for it to complete.
func (k *Kernel) Exec2D(offsetX, offsetY, globalWorkSizeX, globalWorkSizeY int) (time.Duration, error) {
	launch, err := k.launcher(offsetX, offsetY, globalWorkSizeX, globalWorkSizeY)
	if err != nil {
		return 0, err
	}

	tick := time.Now()
	if err = launch(); err != nil {
		return 0, err
	}
	return time.Since(tick), nil
}
