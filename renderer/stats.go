package renderer

import (
	"time"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/tracer"
)

// Accumulated execution time for a kernel across all rendered frames.
type KernelStat struct {
	Label string
	Calls int
	Time  time.Duration
}

type FrameStats struct {
	// The device used for rendering.
	Device string

	// Stats for the last rendered frame.
	Last tracer.FrameStats

	// Number of frames rendered.
	Frames int

	// Per kernel timings in first-use order.
	Kernels []KernelStat

	// Total render time for all frames.
	RenderTime time.Duration
}

// Merge a batch of queue timings into the per kernel stats.
func (s *FrameStats) addTimings(timings []device.CommandTiming) {
	for _, timing := range timings {
		found := false
		for i := range s.Kernels {
			if s.Kernels[i].Label == timing.Label {
				s.Kernels[i].Calls++
				s.Kernels[i].Time += timing.Elapsed
				found = true
				break
			}
		}
		if !found {
			s.Kernels = append(s.Kernels, KernelStat{Label: timing.Label, Calls: 1, Time: timing.Elapsed})
		}
	}
}
