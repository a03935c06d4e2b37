package scene

import (
	"fmt"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

// The camera type controls the scene camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Rotation angles in radians applied by Update.
	Pitch float32
	Yaw   float32

	// Vertical field of view in degrees.
	FOV float32
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
	}
}

// Implements Stringer.
func (c *Camera) String() string {
	return fmt.Sprintf(
		"eye: (%3.3f, %3.3f, %3.3f), look: (%3.3f, %3.3f, %3.3f), up: (%3.3f, %3.3f, %3.3f), fov: %3.1f",
		c.Position[0], c.Position[1], c.Position[2],
		c.LookAt[0], c.LookAt[1], c.LookAt[2],
		c.Up[0], c.Up[1], c.Up[2],
		c.FOV,
	)
}

// Apply the pending pitch and yaw rotations to the view direction while
// keeping the distance to the look-at point. Pitch and yaw are reset
// afterwards.
func (c *Camera) Update() {
	toTarget := c.LookAt.Sub(c.Position)
	dist := toTarget.Len()
	if dist == 0 {
		return
	}
	dir := toTarget.Mul(1 / dist)

	pitchAxis := dir.Cross(c.Up).Normalize()
	pitchQuat := types.QuatFromAxisAngle(pitchAxis, c.Pitch)
	yawQuat := types.QuatFromAxisAngle(c.Up, c.Yaw)

	orientQuat := pitchQuat.Mul(yawQuat).Normalize()
	c.LookAt = c.Position.Add(orientQuat.Rotate(dir).Mul(dist))
	c.Pitch, c.Yaw = 0, 0
}

// Orbit the camera position around the look-at point.
func (c *Camera) Orbit(yaw, pitch float32) {
	fromTarget := c.Position.Sub(c.LookAt)
	if fromTarget.Len() == 0 {
		return
	}

	pitchAxis := fromTarget.Cross(c.Up).Normalize()
	orientQuat := types.QuatFromAxisAngle(pitchAxis, pitch).Mul(types.QuatFromAxisAngle(c.Up, yaw)).Normalize()
	c.Position = c.LookAt.Add(orientQuat.Rotate(fromTarget))
}

// An orthonormal camera frame used by the ray generators to map pixels to
// primary ray directions.
type CameraBasis struct {
	Origin  types.Vec3
	Forward types.Vec3
	Right   types.Vec3
	Up      types.Vec3

	// tan(fov / 2)
	Scale float32

	// Image width / height
	Aspect float32

	Width, Height int
}

// Build a camera frame from the camera origin, look-at point, world up
// vector and vertical field of view in degrees.
func NewCameraBasis(origin, lookAt, worldUp types.Vec3, fov float32, width, height int) CameraBasis {
	forward := lookAt.Sub(origin).Normalize()
	if forward == (types.Vec3{}) {
		forward = types.XYZ(0, 0, -1)
	}

	right := forward.Cross(worldUp).Normalize()
	if right == (types.Vec3{}) {
		// Looking along the up vector; pick any perpendicular axis
		right = forward.Cross(types.XYZ(0, 0, 1)).Normalize()
		if right == (types.Vec3{}) {
			right = forward.Cross(types.XYZ(1, 0, 0)).Normalize()
		}
	}

	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}

	return CameraBasis{
		Origin:  origin,
		Forward: forward,
		Right:   right,
		Up:      right.Cross(forward),
		Scale:   math32.Tan(fov * math32.Pi / 360),
		Aspect:  aspect,
		Width:   width,
		Height:  height,
	}
}

// Map continuous pixel coordinates to the [-1, 1] x [-1, 1] image plane.
// The pixel center of (x, y) is located at (x + 0.5, y + 0.5); y grows
// downwards.
func (b *CameraBasis) ImagePlane(px, py float32) (x, y float32) {
	return 2*px/float32(b.Width) - 1, 1 - 2*py/float32(b.Height)
}

// Get the normalized primary ray direction through continuous pixel
// coordinates (px, py).
func (b *CameraBasis) Direction(px, py float32) types.Vec3 {
	x, y := b.ImagePlane(px, py)
	return b.Forward.
		Add(b.Right.Mul(x * b.Scale * b.Aspect)).
		Add(b.Up.Mul(y * b.Scale)).
		Normalize()
}
