package tracer

import "time"

// Statistics for the last traced frame.
type FrameStats struct {
	// The mode used to render the frame.
	Mode RenderMode

	// The accumulation index of the frame; 0 for the first frame after a
	// reset.
	FrameIndex uint32

	Width, Height int

	// Number of commands recorded for the frame.
	Commands int

	// Fraction of pixels that stopped sampling. Only updated in adaptive
	// mode once the queue has processed the frame.
	ConvergedFraction float32

	// Time spent recording commands.
	EncodeTime time.Duration
}
