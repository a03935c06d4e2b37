package tracer

import "errors"

var (
	ErrNotInitialized    = errors.New("tracer: not initialized")
	ErrUnsupportedDevice = errors.New("tracer: device does not support ray intersection")
	ErrInvalidArgument   = errors.New("tracer: invalid argument")
	ErrRenderSkipped     = errors.New("tracer: render skipped")
)

// SkipError is returned by Trace when a frame cannot be rendered because a
// prerequisite is missing. Nothing is enqueued and the target is left
// untouched.
type SkipError struct {
	Reason string
}

// Implements error.
func (e *SkipError) Error() string {
	return "tracer: render skipped: " + e.Reason
}

// Allow errors.Is(err, ErrRenderSkipped) checks.
func (e *SkipError) Is(target error) bool {
	return target == ErrRenderSkipped
}

func skip(reason string) error {
	return &SkipError{Reason: reason}
}
