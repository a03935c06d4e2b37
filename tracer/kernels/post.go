package kernels

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

// Radius of the bloom box filter in half resolution pixels.
const bloomBlurRadius = 4

type resolveArgs struct {
	p          Params
	srcData    []types.Vec3
	targetData []types.Vec4
}

func bindResolve(args device.Args) (*resolveArgs, error) {
	var (
		a      resolveArgs
		src    *device.Buffer[types.Vec3]
		target *device.Buffer[types.Vec4]
	)
	if err := args.Bind(&a.p, &src, &target); err != nil {
		return nil, err
	}

	a.srcData, a.targetData = src.Data(), target.Data()
	if err := requireLen("source", len(a.srcData), a.p.PixelCount()); err != nil {
		return nil, err
	}
	if err := requireLen("target", len(a.targetData), a.p.PixelCount()); err != nil {
		return nil, err
	}
	return &a, nil
}

// Kernel args: params, linear colors, target. Clamps the colors to [0, 1]
// and applies the display gamma.
func resolveKernel(args device.Args) (device.WorkItem, error) {
	a, err := bindResolve(args)
	if err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		a.targetData[idx] = gammaCorrect(finite(a.srcData[idx]).Clamp(0, 1), a.p.ToneMap.Gamma).Vec4(1)
	}, nil
}

// Kernel args: params, linear colors, target.
func toneMapKernel(args device.Args) (device.WorkItem, error) {
	a, err := bindResolve(args)
	if err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*a.p.Width + x
		a.targetData[idx] = toneMapColor(finite(a.srcData[idx]), &a.p.ToneMap).Vec4(1)
	}, nil
}

// Kernel args: params, linear colors, half resolution bright pass. Runs
// over the half resolution grid; each item averages a 2x2 block of
// exposed source pixels and keeps it if its luminance exceeds the bloom
// threshold.
func extractBrightKernel(args device.Args) (device.WorkItem, error) {
	var (
		p      Params
		src    *device.Buffer[types.Vec3]
		bright *device.Buffer[types.Vec3]
	)
	if err := args.Bind(&p, &src, &bright); err != nil {
		return nil, err
	}

	hw, hh := p.BloomSize()
	srcData, brightData := src.Data(), bright.Data()
	if err := requireLen("source", len(srcData), p.PixelCount()); err != nil {
		return nil, err
	}
	if err := requireLen("bright pass", len(brightData), hw*hh); err != nil {
		return nil, err
	}

	scale := exposureScale(p.ToneMap.Exposure)
	return func(x, y int) {
		var sum types.Vec3
		var count int
		for sy := 2 * y; sy < 2*y+2 && sy < p.Height; sy++ {
			for sx := 2 * x; sx < 2*x+2 && sx < p.Width; sx++ {
				sum = sum.Add(finite(srcData[sy*p.Width+sx]))
				count++
			}
		}

		c := sum.Mul(scale / float32(count))
		if c.Luminance() <= p.BloomThreshold {
			c = types.Vec3{}
		}
		brightData[y*hw+x] = c
	}, nil
}

// Create a separable box blur kernel over the half resolution grid.
// Kernel args: params, source, destination.
func blurKernel(horizontal bool) device.KernelFunc {
	return func(args device.Args) (device.WorkItem, error) {
		var (
			p        Params
			src, dst *device.Buffer[types.Vec3]
		)
		if err := args.Bind(&p, &src, &dst); err != nil {
			return nil, err
		}

		hw, hh := p.BloomSize()
		srcData, dstData := src.Data(), dst.Data()
		if err := requireLen("blur source", len(srcData), hw*hh); err != nil {
			return nil, err
		}
		if err := requireLen("blur destination", len(dstData), hw*hh); err != nil {
			return nil, err
		}

		return func(x, y int) {
			var sum types.Vec3
			for tap := -bloomBlurRadius; tap <= bloomBlurRadius; tap++ {
				sx, sy := x, y
				if horizontal {
					sx = clampInt(x+tap, 0, hw-1)
				} else {
					sy = clampInt(y+tap, 0, hh-1)
				}
				sum = sum.Add(srcData[sy*hw+sx])
			}
			dstData[y*hw+x] = sum.Mul(1 / float32(2*bloomBlurRadius+1))
		}, nil
	}
}

// Kernel args: params, blurred bloom buffer, target. Adds the upsampled
// bloom to the tone mapped target.
func applyBloomKernel(args device.Args) (device.WorkItem, error) {
	var (
		p      Params
		bloom  *device.Buffer[types.Vec3]
		target *device.Buffer[types.Vec4]
	)
	if err := args.Bind(&p, &bloom, &target); err != nil {
		return nil, err
	}

	hw, hh := p.BloomSize()
	bloomData, targetData := bloom.Data(), target.Data()
	if err := requireLen("bloom", len(bloomData), hw*hh); err != nil {
		return nil, err
	}
	if err := requireLen("target", len(targetData), p.PixelCount()); err != nil {
		return nil, err
	}

	return func(x, y int) {
		idx := y*p.Width + x
		glow := bloomData[(y/2)*hw+x/2].Mul(p.BloomIntensity)
		targetData[idx] = targetData[idx].Vec3().Add(glow).Clamp(0, 1).Vec4(1)
	}, nil
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
