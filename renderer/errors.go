package renderer

import "errors"

var (
	ErrNoDevice        = errors.New("renderer: no matching compute device")
	ErrSceneNotDefined = errors.New("renderer: no scene defined")
	ErrInterrupted     = errors.New("renderer: interrupted while rendering")
)
