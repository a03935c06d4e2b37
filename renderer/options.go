package renderer

import "github.com/FyrbyAdditive/OCCT-Metal-sub000/tracer"

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Number of frames to accumulate. Direct rendering only needs one.
	Frames uint32

	// Camera field of view in degrees; 0 keeps the scene camera.
	FOV float32

	// Orbit the camera around its look-at point; angles in degrees.
	OrbitYaw   float32
	OrbitPitch float32

	// Rotate the camera view direction; angles in degrees.
	Yaw   float32
	Pitch float32

	// Device selection. Only devices whose name contains DeviceName are
	// considered.
	DeviceName string

	// Optional environment map location.
	EnvironmentMap string

	Tracer tracer.Options
}
