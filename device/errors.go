package device

import "errors"

var (
	ErrNotInitialized   = errors.New("device: not initialized")
	ErrEmptyProgram     = errors.New("device: program does not define any kernels")
	ErrUnknownKernel    = errors.New("device: kernel not defined by program")
	ErrArgsNotSet       = errors.New("device: kernel arguments not set")
	ErrOutOfMemory      = errors.New("device: allocation exceeds device memory budget")
	ErrReleasedResource = errors.New("device: resource has been released")
)
