package scene

import (
	"testing"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

func TestCameraBasis(t *testing.T) {
	b := NewCameraBasis(types.XYZ(0, 0, 5), types.XYZ(0, 0, 0), types.XYZ(0, 1, 0), 90, 200, 100)

	if !types.ApproxEqualVec3(b.Forward, types.XYZ(0, 0, -1)) {
		t.Fatalf("expected forward (0, 0, -1); got %v", b.Forward)
	}
	if !types.ApproxEqualVec3(b.Right, types.XYZ(1, 0, 0)) {
		t.Fatalf("expected right (1, 0, 0); got %v", b.Right)
	}
	if !types.ApproxEqualVec3(b.Up, types.XYZ(0, 1, 0)) {
		t.Fatalf("expected up (0, 1, 0); got %v", b.Up)
	}
	if !types.ApproxEqual(b.Scale, 1) || !types.ApproxEqual(b.Aspect, 2) {
		t.Fatalf("expected scale 1 and aspect 2; got %f, %f", b.Scale, b.Aspect)
	}

	// Image plane center maps to the forward axis
	if dir := b.Direction(100, 50); !types.ApproxEqualVec3(dir, b.Forward) {
		t.Fatalf("expected center direction to equal forward; got %v", dir)
	}

	// Top-left corner: x = -1 scaled by aspect, y = +1
	exp := types.XYZ(-2, 1, -1).Normalize()
	if dir := b.Direction(0, 0); !types.ApproxEqualVec3(dir, exp) {
		t.Fatalf("expected top-left direction %v; got %v", exp, dir)
	}

	x, y := b.ImagePlane(0.5, 0.5)
	if !types.ApproxEqual(x, -0.995) || !types.ApproxEqual(y, 0.99) {
		t.Fatalf("expected first pixel center at (-0.995, 0.99); got (%f, %f)", x, y)
	}
}

func TestCameraBasisLookingAlongUp(t *testing.T) {
	b := NewCameraBasis(types.XYZ(0, 0, 0), types.XYZ(0, 10, 0), types.XYZ(0, 1, 0), 60, 10, 10)
	if b.Right == (types.Vec3{}) || !types.ApproxEqual(b.Right.Dot(b.Forward), 0) || !types.ApproxEqual(b.Up.Dot(b.Forward), 0) {
		t.Fatalf("expected an orthonormal basis; got %+v", b)
	}
}

func TestCameraOrbit(t *testing.T) {
	c := NewCamera(45)
	c.Position = types.XYZ(0, 0, 5)
	c.LookAt = types.XYZ(0, 0, 0)
	c.Orbit(math32.Pi/2, 0)

	if !types.ApproxEqualVec3(c.Position, types.XYZ(5, 0, 0)) {
		t.Fatalf("expected camera at (5, 0, 0); got %v", c.Position)
	}

	c.Yaw = math32.Pi
	c.Update()
	if !types.ApproxEqualVec3(c.LookAt, types.XYZ(10, 0, 0)) {
		t.Fatalf("expected camera to look at (10, 0, 0); got %v", c.LookAt)
	}
}

func TestLightIlluminate(t *testing.T) {
	dirLight := NewDirectionalLight(types.XYZ(0, 2, 0), types.XYZ(1, 1, 1), 1)
	dir, dist, falloff := dirLight.Illuminate(types.XYZ(3, 4, 5))
	if dirLight.Type() != DirectionalLight || !types.ApproxEqualVec3(dir, types.XYZ(0, 1, 0)) || !math32.IsInf(dist, 1) || falloff != 1 {
		t.Fatalf("unexpected directional light sample: %v, %f, %f", dir, dist, falloff)
	}

	pointLight := NewPointLight(types.XYZ(0, 3, 0), types.XYZ(1, 0.5, 0.25), 4)
	dir, dist, falloff = pointLight.Illuminate(types.XYZ(0, 1, 0))
	if pointLight.Type() != PointLight || !types.ApproxEqualVec3(dir, types.XYZ(0, 1, 0)) || !types.ApproxEqual(dist, 2) || !types.ApproxEqual(falloff, 0.2) {
		t.Fatalf("unexpected point light sample: %v, %f, %f", dir, dist, falloff)
	}
	if rad := pointLight.Radiance(); !types.ApproxEqualVec3(rad, types.XYZ(4, 2, 1)) {
		t.Fatalf("expected radiance (4, 2, 1); got %v", rad)
	}
}

func TestMaterialTextures(t *testing.T) {
	m := DefaultMaterial()
	if m.DiffuseTexture() != NoTexture || m.NormalTexture() != NoTexture {
		t.Fatal("expected default material to have no textures")
	}

	m.SetTextures(2, 0)
	if m.DiffuseTexture() != 2 || m.NormalTexture() != 0 {
		t.Fatalf("expected texture ids (2, 0); got (%d, %d)", m.DiffuseTexture(), m.NormalTexture())
	}

	m.SetTransmission(1, 1.5)
	if m.IOR() != 1.5 || !types.ApproxEqual(m.Transparency[3], 1/1.5) {
		t.Fatalf("expected IOR 1.5 and reciprocal 0.6667; got %v", m.Transparency)
	}
}
