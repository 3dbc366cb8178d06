package metrics

import "time"

// Frame summarises one scheduler tick.
type Frame struct {
	Trajectories int
	TailCapacity int
	Steps        int
	DirtyRanges  int
	Full         bool
	Paused       bool
	FPS          int
	Duration     time.Duration
}

// Recorder receives one observation per frame.
type Recorder interface {
	ObserveFrame(f Frame)
}

// Nop discards observations.
type Nop struct{}

func (Nop) ObserveFrame(Frame) {}

// Summary accumulates totals in memory. It backs the headless run report.
type Summary struct {
	Frames      int
	Steps       int
	DirtyRanges int
	FullUploads int
	Busy        time.Duration
	Last        Frame
}

func (s *Summary) ObserveFrame(f Frame) {
	s.Frames++
	s.Steps += f.Steps
	s.DirtyRanges += f.DirtyRanges
	if f.Full {
		s.FullUploads++
	}
	s.Busy += f.Duration
	s.Last = f
}

// StepsPerSecond is integration throughput over busy time.
func (s *Summary) StepsPerSecond() float64 {
	if s.Busy <= 0 {
		return 0
	}
	return float64(s.Steps) / s.Busy.Seconds()
}

// Multi fans an observation out to several recorders.
type Multi []Recorder

func (m Multi) ObserveFrame(f Frame) {
	for _, r := range m {
		r.ObserveFrame(f)
	}
}
