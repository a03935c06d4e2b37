package asset

import "errors"

var (
	ErrUnsupportedFormat = errors.New("asset: unsupported file format")
	ErrNoGeometry        = errors.New("asset: scene does not define any triangles")
)
