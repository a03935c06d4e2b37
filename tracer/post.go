package tracer

import (
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

// Number of horizontal/vertical blur pass pairs applied to the bright pass.
const bloomBlurIterations = 2

// The post processing stage that converts linear colors into display
// pixels.
type postStage struct {
	buffers *bufferSet

	// Half resolution bright pass and a blur ping-pong buffer.
	bright *device.Buffer[types.Vec3]
	blur   *device.Buffer[types.Vec3]
}

func newPostStage(arena *device.Arena, logger log.Logger) *postStage {
	set := newBufferSet(arena, logger)
	return &postStage{
		buffers: set,
		bright:  newScratch[types.Vec3](set, "bloom bright pass", perBloomTexel),
		blur:    newScratch[types.Vec3](set, "bloom blur", perBloomTexel),
	}
}

func (ps *postStage) ensureBuffers(d frameDims) error {
	return ps.buffers.ensure(d)
}

func (ps *postStage) release() {
	ps.buffers.release()
}

// Encode the commands that write the display target from the linear
// colors in src.
func (ps *postStage) encode(fr *frame, src *device.Buffer[types.Vec3], target *device.Target, toneMapping, bloom bool) error {
	output := resolve
	if toneMapping {
		output = toneMap
	}
	if err := fr.dispatch(output, src, target.Buffer); err != nil {
		return err
	}

	if !bloom {
		return nil
	}

	hw, hh := fr.params.BloomSize()
	if err := fr.dispatchGrid(fr.params, extractBright, hw, hh, src, ps.bright); err != nil {
		return err
	}
	for i := 0; i < bloomBlurIterations; i++ {
		if err := fr.dispatchGrid(fr.params, blurHorizontal, hw, hh, ps.bright, ps.blur); err != nil {
			return err
		}
		if err := fr.dispatchGrid(fr.params, blurVertical, hw, hh, ps.blur, ps.bright); err != nil {
			return err
		}
	}
	return fr.dispatch(applyBloom, ps.bright, target.Buffer)
}
