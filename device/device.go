package device

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
)

type DeviceType uint8

// Supported device types.
const (
	CpuDevice   DeviceType = 1 << iota
	GpuDevice              = 1 << iota
	OtherDevice            = 1 << iota
	AllDevices             = 0xFF
)

// The API level implemented by this package. Devices report the level they
// support through Features.APIVersion.
const APIVersion = 3

// Number of work items that a worker claims at a time while executing a
// dispatch.
const workChunkSize = 256

var (
	indentRegex = regexp.MustCompile("(?m)^")
)

func (dt DeviceType) String() string {
	switch dt {
	case CpuDevice:
		return "CPU"
	case GpuDevice:
		return "GPU"
	case OtherDevice:
		return "Other"
	}
	panic("device: unsupported device type")
}

// Optional capabilities exposed by a device.
type Features struct {
	// Device can run BVH intersection queries.
	RayIntersection bool

	// API level supported by the device.
	APIVersion int
}

// A compute device that executes kernels over 1D or 2D grids of work items.
type Device struct {
	Name string
	Type DeviceType

	// Number of goroutines used to execute a dispatch.
	Workers int

	Features Features

	// Memory budget in bytes for arena allocations; 0 means unlimited.
	MemoryLimit int64

	logger log.Logger

	mu      sync.Mutex
	program *Program
	arena   *Arena
}

// A list of devices.
type DeviceList []*Device

// Create a new device with the given name, type and worker count. A worker
// count <= 0 selects runtime.NumCPU().
func NewDevice(name string, devType DeviceType, workers int, features Features) *Device {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Device{
		Name:     name,
		Type:     devType,
		Workers:  workers,
		Features: features,
		logger:   log.New("device"),
	}
}

// Implements Stringer.
func (d *Device) String() string {
	return fmt.Sprintf(
		"Name: %s\nType: %s\nSpecs: %d workers, API level %d, ray intersection: %t",
		d.Name,
		d.Type.String(),
		d.Workers,
		d.Features.APIVersion,
		d.Features.RayIntersection,
	)
}

// Initialize device and load the given kernel program. Calling Init on an
// already initialized device replaces its program.
func (d *Device) Init(program *Program) error {
	if program == nil || len(program.kernels) == 0 {
		return fmt.Errorf("device (%s): %w", d.Name, ErrEmptyProgram)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.program = program
	if d.arena == nil {
		d.arena = newArena(d)
	}
	d.logger.Debugf("device (%s): loaded program %q with %d kernels", d.Name, program.Name(), len(program.kernels))
	return nil
}

// Shut down the device and release any resources allocated from its arena.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.arena != nil {
		d.arena.ReleaseAll()
		d.arena = nil
	}
	d.program = nil
}

// Get the resource arena for this device. Returns nil if the device has not
// been initialized.
func (d *Device) Arena() *Arena {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.arena
}

// Load kernel by name.
func (d *Device) Kernel(name string) (*Kernel, error) {
	d.mu.Lock()
	program := d.program
	d.mu.Unlock()

	if program == nil {
		return nil, fmt.Errorf("device (%s): could not load kernel %s: %w", d.Name, name, ErrNotInitialized)
	}

	fn, exists := program.kernels[name]
	if !exists {
		return nil, fmt.Errorf("device (%s): could not load kernel %s: %w", d.Name, name, ErrUnknownKernel)
	}

	return &Kernel{
		device: d,
		fn:     fn,
		name:   name,
	}, nil
}

// Execute a work item over the grid [offsetX, offsetX+sizeX) x
// [offsetY, offsetY+sizeY) using all device workers. Kernel panics are
// recovered and reported as errors.
func (d *Device) run(kernelName string, work WorkItem, offsetX, offsetY, sizeX, sizeY int) error {
	total := sizeX * sizeY
	if total <= 0 {
		return nil
	}

	workers := d.Workers
	if maxWorkers := (total + workChunkSize - 1) / workChunkSize; workers > maxWorkers {
		workers = maxWorkers
	}

	var (
		next     int64
		wg       sync.WaitGroup
		errOnce  sync.Once
		panicErr error
	)

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errOnce.Do(func() {
						panicErr = fmt.Errorf("device (%s): kernel %s failed: %v", d.Name, kernelName, r)
					})
				}
			}()

			for {
				start := int(atomic.AddInt64(&next, workChunkSize)) - workChunkSize
				if start >= total {
					return
				}
				end := start + workChunkSize
				if end > total {
					end = total
				}
				for index := start; index < end; index++ {
					work(offsetX+index%sizeX, offsetY+index/sizeX)
				}
			}
		}()
	}
	wg.Wait()

	return panicErr
}

// Scan the host for compute devices that match the given query. The Go
// runtime exposes a single CPU device that uses every available core.
func SelectDevices(typeMask DeviceType, matchName string) (DeviceList, error) {
	candidates := DeviceList{
		NewDevice(
			fmt.Sprintf("Go compute device (%s/%s)", runtime.GOOS, runtime.GOARCH),
			CpuDevice,
			runtime.NumCPU(),
			Features{RayIntersection: true, APIVersion: APIVersion},
		),
	}

	list := make(DeviceList, 0)
	for _, d := range candidates {
		// Match type
		if d.Type&typeMask != d.Type {
			continue
		}

		// Match name
		if matchName != "" && !strings.Contains(d.Name, matchName) {
			continue
		}

		list = append(list, d)
	}
	return list, nil
}

// Implements Stringer.
func (dl DeviceList) String() string {
	var buf strings.Builder
	for dIdx, d := range dl {
		buf.WriteString(fmt.Sprintf("Device %02d:\n", dIdx))
		buf.WriteString(indentRegex.ReplaceAllString(d.String(), "  "))
		buf.WriteString("\n")
	}
	return buf.String()
}
