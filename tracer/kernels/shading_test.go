package kernels

import (
	"math/rand"
	"testing"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/scene"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

func randomUnitVector(rng *rand.Rand) types.Vec3 {
	for {
		v := types.XYZ(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32()*2-1)
		if l := v.Len(); l > 0.01 && l <= 1 {
			return v.Mul(1 / l)
		}
	}
}

func TestCookTorranceBelowHorizonIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := types.XYZ(0, 0, 1)
	b := bsdfParams{albedo: types.XYZ(1, 1, 1), roughness: 0.3, metallic: 0.5}

	for i := 0; i < 1000; i++ {
		v, l := randomUnitVector(rng), randomUnitVector(rng)
		f := cookTorrance(&b, n, v, l)
		if n.Dot(v) <= 0 || n.Dot(l) <= 0 {
			if f != (types.Vec3{}) {
				t.Fatalf("[iter %d] expected zero BRDF for v=%v l=%v; got %v", i, v, l, f)
			}
			continue
		}
		if f[0] < 0 || f[1] < 0 || f[2] < 0 {
			t.Fatalf("[iter %d] expected non-negative BRDF; got %v", i, f)
		}
	}
}

func TestCookTorranceEnergyBound(t *testing.T) {
	n := types.XYZ(0, 0, 1)
	specs := []bsdfParams{
		{albedo: types.XYZ(1, 1, 1), roughness: 1, metallic: 0},
		{albedo: types.XYZ(1, 1, 1), roughness: 0.5, metallic: 0},
		{albedo: types.XYZ(1, 1, 1), roughness: 0.5, metallic: 1},
		{albedo: types.XYZ(1, 1, 1), roughness: 1, metallic: 1},
	}

	rng := rand.New(rand.NewSource(7))
	for specIndex, b := range specs {
		for _, v := range []types.Vec3{types.XYZ(0, 0, 1), types.XYZ(0.6, 0, 0.8)} {
			// Cosine sampling: f * cos / pdf = f * pi
			const samples = 20000
			var sum float32
			for i := 0; i < samples; i++ {
				l := cosineSampleHemisphere(rng.Float32(), rng.Float32())
				sum += cookTorrance(&b, n, v, l).MaxComponent() * math32.Pi
			}
			if albedo := sum / samples; albedo > 1.05 {
				t.Fatalf("[spec %d] expected directional albedo <= 1 for v=%v; got %f", specIndex, v, albedo)
			}
		}
	}
}

func TestRoughnessFromSpecular(t *testing.T) {
	specs := []struct {
		in, exp float32
	}{
		{0, minRoughness},
		{0.5, 0.5},
		{1, 1},
		{2, 0.7071068},
		{198, 0.1},
		{1e6, minRoughness},
	}

	for specIndex, spec := range specs {
		if got := roughnessFromSpecular(spec.in); !types.ApproxEqual(got, spec.exp) {
			t.Errorf("[spec %d] expected roughness %f for %f; got %f", specIndex, spec.exp, spec.in, got)
		}
	}
}

func TestSampleBSDFStaysAboveSurface(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := types.XYZ(0, 1, 0)
	v := types.XYZ(0.3, 0.9, 0).Normalize()

	for _, metallic := range []float32{0, 0.5, 1} {
		b := bsdfParams{albedo: types.XYZ(0.8, 0.6, 0.4), roughness: 0.4, metallic: metallic}
		for i := 0; i < 500; i++ {
			dir, weight, ok := sampleBSDF(&b, n, v, rng.Float32(), rng.Float32(), rng.Float32())
			if !ok {
				continue
			}
			if dir.Dot(n) < -1e-5 {
				t.Fatalf("expected sampled direction above the surface; got %v", dir)
			}
			if weight[0] < 0 || weight[1] < 0 || weight[2] < 0 || math32.IsInf(weight.MaxComponent(), 1) {
				t.Fatalf("expected a finite non-negative throughput weight; got %v", weight)
			}
		}
	}
}

func TestFresnelAndTransmissionBlend(t *testing.T) {
	// Glass at normal incidence reflects ~4%
	f := fresnelSchlick(1, 1.5)
	if !types.ApproxEqual(f, 0.04) {
		t.Fatalf("expected Fresnel reflectance 0.04; got %f", f)
	}
	if got := fresnelSchlick(0, 1.5); !types.ApproxEqual(got, 1) {
		t.Fatalf("expected grazing reflectance 1; got %f", got)
	}

	opaque := types.XYZ(0.2, 0.2, 0.2)
	refl := types.XYZ(1, 0, 0)
	refr := types.XYZ(0, 0, 1)

	got := blendTransmission(opaque, refl, refr, f, 1)
	if exp := types.XYZ(0.04, 0, 0.96); !types.ApproxEqualVec3(got, exp) {
		t.Fatalf("expected fully transparent blend %v; got %v", exp, got)
	}
	if got = blendTransmission(opaque, refl, refr, f, 0); !types.ApproxEqualVec3(got, opaque) {
		t.Fatalf("expected opaque color for zero transmission; got %v", got)
	}
}

func TestRefractRayTotalInternalReflection(t *testing.T) {
	mat := scene.DefaultMaterial()
	s := surface{
		position:        types.XYZ(0, 0, 0),
		geometricNormal: types.XYZ(0, 1, 0),
		material:        &mat,
	}

	// Grazing ray leaving a dense medium
	dir := types.XYZ(0.9, -0.2, 0).Normalize()
	ray := refractRay(&s, dir, 1.5)
	if exp := dir.Reflect(s.geometricNormal).Normalize(); !types.ApproxEqualVec3(ray.Direction, exp) {
		t.Fatalf("expected reflected direction %v; got %v", exp, ray.Direction)
	}
	if ray.Origin[1] <= 0 {
		t.Fatalf("expected reflected ray origin on the incoming side; got %v", ray.Origin)
	}

	// Normal incidence passes straight through
	ray = refractRay(&s, types.XYZ(0, -1, 0), 1/1.5)
	if !types.ApproxEqualVec3(ray.Direction, types.XYZ(0, -1, 0)) || ray.Origin[1] >= 0 {
		t.Fatalf("expected straight refracted ray below the surface; got %+v", ray)
	}
}

func TestBlinnPhong(t *testing.T) {
	mat := scene.DefaultMaterial()
	mat.Diffuse = types.XYZW(1, 0.5, 0.25, scene.NoTexture)
	mat.Specular = types.XYZW(1, 1, 1, 16)
	s := surface{normal: types.XYZ(0, 0, 1), material: &mat, albedo: mat.Diffuse.Vec3()}

	n := types.XYZ(0, 0, 1)
	got := blinnPhong(&s, n, n, types.XYZ(1, 1, 1))
	if exp := types.XYZ(2, 1.5, 1.25); !types.ApproxEqualVec3(got, exp) {
		t.Fatalf("expected diffuse plus full specular %v; got %v", exp, got)
	}

	if got = blinnPhong(&s, types.XYZ(0, 0, -1), n, types.XYZ(1, 1, 1)); got != (types.Vec3{}) {
		t.Fatalf("expected no contribution from lights behind the surface; got %v", got)
	}
}

func TestTangentFrame(t *testing.T) {
	n := types.XYZ(0, 0, 1)
	e1, e2 := types.XYZ(1, 0, 0), types.XYZ(0, 1, 0)

	tangent, bitangent, ok := tangentFrame(n, e1, e2, types.XY(1, 0), types.XY(0, 1))
	if !ok || !types.ApproxEqualVec3(tangent, e1) || !types.ApproxEqualVec3(bitangent, e2) {
		t.Fatalf("expected tangent %v and bitangent %v; got %v, %v (ok: %t)", e1, e2, tangent, bitangent, ok)
	}

	// A flat normal map texel leaves the normal untouched
	if got := perturbNormal(n, tangent, bitangent, types.XYZ(0.5, 0.5, 1)); !types.ApproxEqualVec3(got, n) {
		t.Fatalf("expected unperturbed normal; got %v", got)
	}

	if _, _, ok = tangentFrame(n, e1, e2, types.XY(1, 1), types.XY(1, 1)); ok {
		t.Fatal("expected degenerate texture coordinates to be rejected")
	}
}

func TestEnvMapUV(t *testing.T) {
	specs := []struct {
		dir   types.Vec3
		angle float32
		u, v  float32
	}{
		{types.XYZ(1, 0, 0), 0, 0.5, 0.5},
		{types.XYZ(0, 1, 0), 0, 0.5, 0},
		{types.XYZ(0, -1, 0), 0, 0.5, 1},
		{types.XYZ(0, 0, 1), 0, 0.75, 0.5},
		{types.XYZ(1, 0, 0), math32.Pi / 2, 0.25, 0.5},
	}

	for specIndex, spec := range specs {
		u, v := envMapUV(spec.dir, spec.angle)
		if !types.ApproxEqual(u, spec.u) || !types.ApproxEqual(v, spec.v) {
			t.Errorf("[spec %d] expected uv (%f, %f); got (%f, %f)", specIndex, spec.u, spec.v, u, v)
		}
	}
}

func TestSkyColor(t *testing.T) {
	if got := skyColor(types.XYZ(0, 1, 0)); !types.ApproxEqualVec3(got, skyZenith) {
		t.Fatalf("expected zenith color %v; got %v", skyZenith, got)
	}
	if got := skyColor(types.XYZ(0, -1, 0)); !types.ApproxEqualVec3(got, skyHorizon) {
		t.Fatalf("expected horizon color %v; got %v", skyHorizon, got)
	}
}
