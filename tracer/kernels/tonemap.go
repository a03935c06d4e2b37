package kernels

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
	"github.com/chewxy/math32"
)

var (
	// sRGB => ACES AP1 input transform with the RRT saturation folded in.
	acesInput = types.Mat3FromRows(
		types.XYZ(0.59719, 0.35458, 0.04823),
		types.XYZ(0.07600, 0.90834, 0.01566),
		types.XYZ(0.02840, 0.13383, 0.83777),
	)

	// ODT saturation and AP1 => sRGB output transform.
	acesOutput = types.Mat3FromRows(
		types.XYZ(1.60475, -0.53108, -0.07367),
		types.XYZ(-0.10208, 1.10813, -0.00605),
		types.XYZ(-0.00327, -0.07276, 1.07602),
	)
)

// Uncharted 2 filmic curve constants.
const (
	u2ShoulderStrength = 0.15
	u2LinearStrength   = 0.50
	u2LinearAngle      = 0.10
	u2ToeStrength      = 0.20
	u2ToeNumerator     = 0.02
	u2ToeDenominator   = 0.30
	u2LinearWhite      = 11.2
	u2ExposureBias     = 2.0
)

// Get the exposure scale factor for an exposure value in stops.
func exposureScale(exposure float32) float32 {
	return math32.Pow(2, exposure)
}

// Extended Reinhard operator; inputs equal to the white point map to 1.
func reinhard(c types.Vec3, white float32) types.Vec3 {
	if white <= 0 {
		white = 1
	}
	w2 := white * white
	var out types.Vec3
	for i := range c {
		out[i] = c[i] * (1 + c[i]/w2) / (1 + c[i])
	}
	return out
}

func rrtAndODTFit(v float32) float32 {
	a := v*(v+0.0245786) - 0.000090537
	b := v*(0.983729*v+0.4329510) + 0.238081
	return a / b
}

// Fitted ACES filmic curve.
func aces(c types.Vec3) types.Vec3 {
	c = acesInput.Mul3x1(c)
	c = types.XYZ(rrtAndODTFit(c[0]), rrtAndODTFit(c[1]), rrtAndODTFit(c[2]))
	return acesOutput.Mul3x1(c).Clamp(0, 1)
}

func uncharted2Curve(x float32) float32 {
	const (
		a = u2ShoulderStrength
		b = u2LinearStrength
		c = u2LinearAngle
		d = u2ToeStrength
		e = u2ToeNumerator
		f = u2ToeDenominator
	)
	return (x*(a*x+c*b)+d*e)/(x*(a*x+b)+d*f) - e/f
}

// Uncharted 2 filmic operator.
func uncharted2(c types.Vec3) types.Vec3 {
	whiteScale := 1 / uncharted2Curve(u2LinearWhite)
	var out types.Vec3
	for i := range c {
		out[i] = uncharted2Curve(c[i]*u2ExposureBias) * whiteScale
	}
	return out
}

// Apply exposure, the selected tone mapping operator and gamma correction
// to a linear HDR color. The result lies in [0, 1].
func toneMapColor(c types.Vec3, tp *ToneMapParams) types.Vec3 {
	c = types.MaxVec3(c.Mul(exposureScale(tp.Exposure)), types.Vec3{})

	switch tp.Method {
	case ToneMapReinhard:
		c = reinhard(c, tp.WhitePoint)
	case ToneMapACES:
		c = aces(c)
	case ToneMapUncharted2:
		c = uncharted2(c)
	}

	return gammaCorrect(c.Clamp(0, 1), tp.Gamma)
}

// Encode a linear color with the given display gamma. Gamma values <= 0
// leave the color unchanged.
func gammaCorrect(c types.Vec3, gamma float32) types.Vec3 {
	if gamma <= 0 || gamma == 1 {
		return c
	}
	return c.Pow(1 / gamma)
}
