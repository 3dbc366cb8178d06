package sim

import (
	"github.com/san-kum/lorenzsim/internal/dynamo"
	"github.com/san-kum/lorenzsim/internal/ring"
)

// TrajectoryDelta describes what changed for one trajectory in a frame.
type TrajectoryDelta struct {
	Index  int
	Head   dynamo.State
	Filled int
	// Ranges are element index spans into the trajectory's history, and
	// into its TailBuffer slot, written this frame.
	Ranges []ring.Range
	// Offset is the scalar offset of the trajectory's slot in the TailBuffer.
	Offset int
}

// FrameDelta is the result of one Ensemble.Step.
type FrameDelta struct {
	Frame    uint64
	Paused   bool
	Full     bool
	Capacity int

	Trajectories []TrajectoryDelta
}

// Union merges the dirty index ranges of all trajectories.
func (d FrameDelta) Union() []ring.Range {
	var all []ring.Range
	for _, t := range d.Trajectories {
		all = append(all, t.Ranges...)
	}
	return ring.Merge(all)
}

// RangeCount is the total number of per-trajectory dirty ranges.
func (d FrameDelta) RangeCount() int {
	n := 0
	for _, t := range d.Trajectories {
		n += len(t.Ranges)
	}
	return n
}

// Dirty reports whether the renderer has anything to upload.
func (d FrameDelta) Dirty() bool {
	return d.Full || d.RangeCount() > 0
}
