package sim

import (
	"context"
	"errors"
	"time"

	"github.com/san-kum/lorenzsim/internal/metrics"
)

// Scheduler drives an Ensemble one frame per tick and keeps frame counters.
type Scheduler struct {
	ens *Ensemble
	rec metrics.Recorder

	frames uint64
	fps    int
	accum  int
	second int64
}

func NewScheduler(e *Ensemble, rec metrics.Recorder) *Scheduler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Scheduler{ens: e, rec: rec}
}

func (s *Scheduler) Ensemble() *Ensemble { return s.ens }

// FPS is the number of frames ticked during the previous wall-clock second.
func (s *Scheduler) FPS() int { return s.fps }

func (s *Scheduler) Frames() uint64 { return s.frames }

// Tick steps the ensemble once. now is the frame's wall-clock time and only
// feeds the fps counter.
func (s *Scheduler) Tick(now time.Time) FrameDelta {
	start := time.Now()
	d := s.ens.Step()
	elapsed := time.Since(start)

	s.frames++
	second := now.Unix()
	if second != s.second {
		s.fps = s.accum
		s.accum = 1
		s.second = second
	} else {
		s.accum++
	}

	steps := 0
	if !d.Paused {
		steps = len(d.Trajectories) * s.ens.Params().StepsPerFrame
	}
	s.rec.ObserveFrame(metrics.Frame{
		Trajectories: len(d.Trajectories),
		TailCapacity: d.Capacity,
		Steps:        steps,
		DirtyRanges:  d.RangeCount(),
		Full:         d.Full,
		Paused:       d.Paused,
		FPS:          s.fps,
		Duration:     elapsed,
	})
	return d
}

// Run ticks frames times, or until ctx is done when frames <= 0. With a
// positive interval ticks are paced by a ticker; otherwise they run back to
// back. sink, if set, receives every delta.
func (s *Scheduler) Run(ctx context.Context, frames int, interval time.Duration, sink func(FrameDelta)) error {
	if frames <= 0 && interval <= 0 {
		return errors.New("sim: unbounded run needs a positive interval")
	}

	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	for n := 0; frames <= 0 || n < frames; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := time.Now()
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now = <-tick:
			}
		}

		d := s.Tick(now)
		if sink != nil {
			sink(d)
		}
	}
	return nil
}
