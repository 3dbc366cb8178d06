package sim_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lorenzsim/internal/dynamo"
	"github.com/san-kum/lorenzsim/internal/metrics"
	"github.com/san-kum/lorenzsim/internal/sim"
)

var _ = Describe("Scheduler", func() {
	var (
		e       *sim.Ensemble
		summary *metrics.Summary
		s       *sim.Scheduler
	)

	BeforeEach(func() {
		e = newEnsemble(32)
		add(e, dynamo.State{1, 1, 1})
		add(e, dynamo.State{-1, 2, 20})
		summary = &metrics.Summary{}
		s = sim.NewScheduler(e, summary)
	})

	It("counts frames per wall-clock second", func() {
		base := time.Unix(1000, 0)
		for i := 0; i < 5; i++ {
			s.Tick(base.Add(time.Duration(i) * 100 * time.Millisecond))
		}
		Expect(s.FPS()).To(BeZero())

		s.Tick(base.Add(time.Second))
		Expect(s.FPS()).To(Equal(5))
		Expect(s.Frames()).To(Equal(uint64(6)))
	})

	It("reports every frame to the recorder", func() {
		now := time.Unix(1000, 0)
		s.Tick(now)
		s.Tick(now)
		e.SetPaused(true)
		s.Tick(now)

		Expect(summary.Frames).To(Equal(3))
		Expect(summary.Steps).To(Equal(2 * 2 * e.Params().StepsPerFrame))
		Expect(summary.FullUploads).To(Equal(1))
		Expect(summary.DirtyRanges).To(Equal(4))
		Expect(summary.Last.Paused).To(BeTrue())
		Expect(summary.Last.Trajectories).To(Equal(2))
		Expect(summary.Last.TailCapacity).To(Equal(32))
	})

	It("accepts a nil recorder", func() {
		s = sim.NewScheduler(e, nil)
		Expect(func() { s.Tick(time.Now()) }).NotTo(Panic())
	})

	Describe("Run", func() {
		It("runs a fixed number of frames back to back", func() {
			var deltas []sim.FrameDelta
			err := s.Run(context.Background(), 10, 0, func(d sim.FrameDelta) {
				deltas = append(deltas, d)
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(deltas).To(HaveLen(10))
			Expect(deltas[9].Frame).To(Equal(uint64(10)))
			Expect(summary.Frames).To(Equal(10))
		})

		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			frames := 0
			err := s.Run(ctx, 0, time.Millisecond, func(sim.FrameDelta) {
				frames++
				if frames == 3 {
					cancel()
				}
			})
			Expect(err).To(MatchError(context.Canceled))
			Expect(frames).To(Equal(3))
		})

		It("refuses an unbounded run without pacing", func() {
			Expect(s.Run(context.Background(), 0, 0, nil)).NotTo(Succeed())
			Expect(s.Frames()).To(BeZero())
		})
	})
})
