package types

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestNormalizeZeroVector(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Fatalf("expected zero vector; got %v", got)
	}

	got := XYZ(3, 0, 4).Normalize()
	if !ApproxEqualVec3(got, XYZ(0.6, 0, 0.8)) {
		t.Fatalf("expected (0.6, 0, 0.8); got %v", got)
	}
}

func TestRefract(t *testing.T) {
	n := XYZ(0, 1, 0)

	// Normal incidence passes straight through
	dir, ok := XYZ(0, -1, 0).Refract(n, 1/1.5)
	if !ok {
		t.Fatal("expected refraction at normal incidence")
	}
	if !ApproxEqualVec3(dir, XYZ(0, -1, 0)) {
		t.Fatalf("expected (0, -1, 0); got %v", dir)
	}

	// Grazing ray leaving a dense medium is totally internally reflected
	grazing := XYZ(1, -0.1, 0).Normalize()
	if _, ok = grazing.Refract(n, 1.5); ok {
		t.Fatal("expected total internal reflection")
	}
}

func TestReflect(t *testing.T) {
	got := XYZ(1, -1, 0).Reflect(XYZ(0, 1, 0))
	if !ApproxEqualVec3(got, XYZ(1, 1, 0)) {
		t.Fatalf("expected (1, 1, 0); got %v", got)
	}
}

func TestQuatRotate(t *testing.T) {
	q := QuatFromAxisAngle(XYZ(0, 1, 0), math32.Pi/2)
	got := q.Rotate(XYZ(1, 0, 0))
	if !ApproxEqualVec3(got, XYZ(0, 0, -1)) {
		t.Fatalf("expected (0, 0, -1); got %v", got)
	}

	back := q.Inverse().Rotate(got)
	if !ApproxEqualVec3(back, XYZ(1, 0, 0)) {
		t.Fatalf("expected inverse rotation to restore (1, 0, 0); got %v", back)
	}

	viaMat := q.Mat3().Mul3x1(XYZ(1, 0, 0))
	if !ApproxEqualVec3(viaMat, got) {
		t.Fatalf("expected matrix rotation %v to match quaternion rotation %v", viaMat, got)
	}
}

func TestMat3FromRows(t *testing.T) {
	m := Mat3FromRows(XYZ(1, 2, 3), XYZ(4, 5, 6), XYZ(7, 8, 9))
	got := m.Mul3x1(XYZ(1, 0, 0))
	if got != XYZ(1, 4, 7) {
		t.Fatalf("expected first column (1, 4, 7); got %v", got)
	}

	if prod := m.Mul3(Ident3()); prod != m {
		t.Fatalf("expected identity product to equal the matrix; got %v", prod)
	}

	rot := RotateY3(math32.Pi / 2).Mul3x1(XYZ(1, 0, 0))
	if !ApproxEqualVec3(rot, XYZ(0, 0, -1)) {
		t.Fatalf("expected (0, 0, -1); got %v", rot)
	}
}
