package accel

import "errors"

var (
	ErrInvalidGeometry = errors.New("accel: invalid geometry")
	ErrRayBufferSize   = errors.New("accel: ray or intersection buffer smaller than the requested ray count")
)
