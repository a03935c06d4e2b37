package device

import (
	"fmt"
	"reflect"
	"sort"
)

// A function executed once for every work item of a dispatch. For 1D
// dispatches y is always 0.
type WorkItem func(x, y int)

// A kernel entrypoint. It binds the supplied arguments and returns the
// per-item function that the device executes. Binding happens when the
// dispatch starts executing so kernels always observe the latest buffer
// allocations.
type KernelFunc func(args Args) (WorkItem, error)

// The argument list passed to a kernel.
type Args []interface{}

// Bind the argument list to the given pointers. Each target must be a
// pointer to a value whose type matches the argument at the same position.
func (a Args) Bind(targets ...interface{}) error {
	if len(a) != len(targets) {
		return fmt.Errorf("expected %d args; got %d", len(targets), len(a))
	}

	for argIndex, target := range targets {
		dst := reflect.ValueOf(target)
		if dst.Kind() != reflect.Ptr || dst.IsNil() {
			return fmt.Errorf("bind target %d is not a pointer", argIndex)
		}
		dst = dst.Elem()

		if a[argIndex] == nil {
			return fmt.Errorf("arg %d is nil; expected %s", argIndex, dst.Type())
		}

		src := reflect.ValueOf(a[argIndex])
		if !src.Type().AssignableTo(dst.Type()) {
			return fmt.Errorf("unsupported arg type for arg %d: expected %s; got %s", argIndex, dst.Type(), src.Type())
		}

		// Typed nil pointers are rejected so kernels never dereference them
		if src.Kind() == reflect.Ptr && src.IsNil() {
			return fmt.Errorf("arg %d is a nil %s", argIndex, src.Type())
		}
		dst.Set(src)
	}

	return nil
}

// A named collection of kernels that can be loaded onto a device.
type Program struct {
	name    string
	kernels map[string]KernelFunc
}

// Create an empty program.
func NewProgram(name string) *Program {
	return &Program{
		name:    name,
		kernels: make(map[string]KernelFunc),
	}
}

// Get program name.
func (p *Program) Name() string {
	return p.name
}

// Register a kernel under the given name, replacing any existing kernel
// with the same name.
func (p *Program) Register(name string, fn KernelFunc) *Program {
	p.kernels[name] = fn
	return p
}

// Create a copy of the program without the named kernel.
func (p *Program) Without(name string) *Program {
	out := NewProgram(p.name)
	for kName, fn := range p.kernels {
		if kName != name {
			out.kernels[kName] = fn
		}
	}
	return out
}

// Get the sorted list of kernel names.
func (p *Program) Names() []string {
	names := make([]string, 0, len(p.kernels))
	for name := range p.kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
