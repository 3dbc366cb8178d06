package sim_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lorenzsim/internal/dynamo"
	"github.com/san-kum/lorenzsim/internal/integrators"
	"github.com/san-kum/lorenzsim/internal/ring"
	"github.com/san-kum/lorenzsim/internal/sim"
)

func newEnsemble(capacity int, opts ...sim.Option) *sim.Ensemble {
	opts = append([]sim.Option{sim.WithSeed(1)}, opts...)
	e, err := sim.NewEnsemble(capacity, dynamo.DefaultParams(), opts...)
	Expect(err).NotTo(HaveOccurred())
	return e
}

func add(e *sim.Ensemble, s dynamo.State) int {
	i, err := e.Add(s)
	Expect(err).NotTo(HaveOccurred())
	return i
}

var _ = Describe("Ensemble", func() {
	var e *sim.Ensemble

	BeforeEach(func() {
		e = newEnsemble(8)
	})

	Describe("NewEnsemble", func() {
		It("rejects a capacity below one", func() {
			_, err := sim.NewEnsemble(0, dynamo.DefaultParams())
			Expect(err).To(MatchError(dynamo.ErrInvalidCapacity))
		})

		It("rejects invalid parameters", func() {
			p := dynamo.DefaultParams()
			p.StepsPerFrame = 0
			_, err := sim.NewEnsemble(8, p)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})

		It("starts empty with the requested capacity", func() {
			Expect(e.TrajectoryCount()).To(Equal(0))
			Expect(e.TailCapacity()).To(Equal(8))
		})
	})

	Describe("Add", func() {
		It("appends trajectories in order with empty histories", func() {
			Expect(add(e, dynamo.State{1, 1, 1})).To(Equal(0))
			Expect(add(e, dynamo.State{2, 2, 2})).To(Equal(1))
			Expect(e.TrajectoryCount()).To(Equal(2))

			h, err := e.History(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Capacity()).To(Equal(8))
			Expect(h.Len()).To(Equal(0))

			tr, err := e.Trajectory(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.State()).To(Equal(dynamo.State{2, 2, 2}))
			Expect(tr.Tick()).To(BeZero())
		})

		It("grows the tail buffer in powers of two without losing tails", func() {
			add(e, dynamo.State{1, 1, 1})
			e.Step()
			before, _ := e.Snapshot(0)

			slots := []int{}
			for i := 0; i < 4; i++ {
				add(e, dynamo.State{float64(i), 1, 1})
				slots = append(slots, e.Buffer().Slots())
			}
			Expect(slots).To(Equal([]int{2, 4, 4, 8}))

			after, _ := e.Snapshot(0)
			Expect(after).To(Equal(before))
			buf := e.Buffer()
			h, _ := e.History(0)
			for i := 0; i < h.Len(); i++ {
				Expect(buf.Point(0, i)).To(Equal(float32State(h.At(i))))
			}
		})
	})

	Describe("Step", func() {
		It("advances each trajectory StepsPerFrame times", func() {
			add(e, dynamo.State{1, 1, 1})
			p := e.Params()

			d := e.Step()
			Expect(d.Frame).To(Equal(uint64(1)))
			Expect(d.Paused).To(BeFalse())
			Expect(d.Trajectories).To(HaveLen(1))

			want := dynamo.State{1, 1, 1}
			var states []dynamo.State
			for i := 0; i < p.StepsPerFrame; i++ {
				integrators.Advance(&want, p.StepSize, p.Sigma, p.Beta, p.Rho)
				states = append(states, want)
			}
			tr, _ := e.Trajectory(0)
			Expect(tr.State()).To(Equal(want))
			Expect(tr.Tick()).To(Equal(uint64(p.StepsPerFrame)))
			Expect(d.Trajectories[0].Head).To(Equal(want))
			Expect(d.Trajectories[0].Filled).To(Equal(p.StepsPerFrame))

			snap, _ := e.Snapshot(0)
			Expect(snap).To(Equal(states))
		})

		It("reports one range per frame until the batch wraps", func() {
			e = newEnsemble(6)
			Expect(e.SetParam(dynamo.ParamStepsPerFrame, 4)).To(Succeed())
			add(e, dynamo.State{1, 1, 1})

			d := e.Step()
			Expect(d.Trajectories[0].Ranges).To(Equal([]ring.Range{{Start: 0, End: 3}}))

			d = e.Step()
			Expect(d.Trajectories[0].Ranges).To(Equal([]ring.Range{{Start: 4, End: 5}, {Start: 0, End: 1}}))
			Expect(d.Trajectories[0].Filled).To(Equal(6))
			Expect(d.Union()).To(Equal([]ring.Range{{Start: 0, End: 1}, {Start: 4, End: 5}}))
		})

		It("keeps the tail buffer in sync with every history", func() {
			for i := 0; i < 5; i++ {
				add(e, dynamo.State{float64(i + 1), 1, 1})
			}
			for f := 0; f < 7; f++ {
				e.Step()
			}
			buf := e.Buffer()
			for t := 0; t < 5; t++ {
				h, _ := e.History(t)
				for i := 0; i < h.Capacity(); i++ {
					Expect(buf.Point(t, i)).To(Equal(float32State(h.At(i))))
				}
			}
		})

		It("only reports heads while paused", func() {
			add(e, dynamo.State{1, 1, 1})
			e.Step()
			e.SetPaused(true)
			before, _ := e.Snapshot(0)
			tr0, _ := e.Trajectory(0)

			d := e.Step()
			Expect(d.Paused).To(BeTrue())
			Expect(d.Dirty()).To(BeFalse())
			Expect(d.Trajectories[0].Head).To(Equal(tr0.State()))

			after, _ := e.Snapshot(0)
			Expect(after).To(Equal(before))
			tr1, _ := e.Trajectory(0)
			Expect(tr1.Tick()).To(Equal(tr0.Tick()))

			Expect(e.TogglePaused()).To(BeFalse())
			Expect(e.Step().Dirty()).To(BeTrue())
		})

		It("gives identical results with parallel workers", func() {
			serial := newEnsemble(16)
			parallel := newEnsemble(16, sim.WithWorkers(4))
			r := rand.New(rand.NewSource(7))
			for i := 0; i < 64; i++ {
				s := sim.Generate(r)
				add(serial, s)
				add(parallel, s)
			}
			for f := 0; f < 20; f++ {
				ds, dp := serial.Step(), parallel.Step()
				Expect(dp.Trajectories).To(Equal(ds.Trajectories))
			}
			Expect(parallel.Buffer().Data()).To(Equal(serial.Buffer().Data()))
		})
	})

	Describe("Clone", func() {
		It("fails on an empty ensemble and leaves it usable", func() {
			_, err := e.Clone(nil)
			Expect(err).To(MatchError(dynamo.ErrEmptyEnsemble))
			Expect(add(e, dynamo.State{1, 2, 3})).To(Equal(0))
		})

		It("offsets the source by at most epsilon per axis", func() {
			src := dynamo.State{3, -4, 20}
			add(e, src)
			for n := 0; n < 200; n++ {
				i, err := e.Clone(func(int) int { return 0 })
				Expect(err).NotTo(HaveOccurred())
				tr, _ := e.Trajectory(i)
				got := tr.State()
				Expect(got).NotTo(Equal(src))
				for axis := range got {
					Expect(math.Abs(got[axis] - src[axis])).To(BeNumerically("<=", sim.DefaultCloneEpsilon))
				}
			}
		})

		It("honours a configured epsilon", func() {
			e = newEnsemble(8, sim.WithCloneEpsilon(0.5))
			add(e, dynamo.State{})
			i, err := e.Clone(nil)
			Expect(err).NotTo(HaveOccurred())
			tr, _ := e.Trajectory(i)
			for _, v := range tr.State() {
				Expect(math.Abs(v)).To(BeNumerically("<=", 0.5))
			}
		})

		It("copies the current state, not the initial one", func() {
			add(e, dynamo.State{1, 1, 1})
			e.Step()
			src, _ := e.Trajectory(0)
			i, _ := e.Clone(nil)
			tr, _ := e.Trajectory(i)
			Expect(tr.State().Sub(src.State()).Norm()).To(BeNumerically("<", 1e-3))
			Expect(tr.Tick()).To(BeZero())
		})

		It("rejects a pick outside the ensemble", func() {
			add(e, dynamo.State{1, 1, 1})
			_, err := e.Clone(func(n int) int { return n })
			Expect(err).To(MatchError(dynamo.ErrIndexOutOfRange))
			Expect(e.TrajectoryCount()).To(Equal(1))
		})
	})

	Describe("SetTailCapacity", func() {
		BeforeEach(func() {
			for i := 0; i < 3; i++ {
				add(e, dynamo.State{float64(i + 1), 1, 1})
			}
			for f := 0; f < 5; f++ {
				e.Step()
			}
		})

		It("resizes every history", func() {
			for _, k := range []int{4, 32, 1, 7} {
				Expect(e.SetTailCapacity(k)).To(Succeed())
				Expect(e.TailCapacity()).To(Equal(k))
				for i := 0; i < e.TrajectoryCount(); i++ {
					h, _ := e.History(i)
					Expect(h.Capacity()).To(Equal(k))
				}
			}
		})

		It("keeps the newest states and flags a full upload", func() {
			before, _ := e.Snapshot(2)
			Expect(e.SetTailCapacity(5)).To(Succeed())
			after, _ := e.Snapshot(2)
			Expect(after).To(Equal(before[len(before)-5:]))

			d := e.Step()
			Expect(d.Full).To(BeTrue())
			Expect(d.Capacity).To(Equal(5))
			Expect(e.Step().Full).To(BeFalse())
		})

		It("rejects invalid capacities without mutating", func() {
			before, _ := e.Snapshot(0)
			Expect(e.SetTailCapacity(0)).To(MatchError(dynamo.ErrInvalidCapacity))
			Expect(e.SetTailCapacity(-3)).To(MatchError(dynamo.ErrInvalidCapacity))
			Expect(e.TailCapacity()).To(Equal(8))
			after, _ := e.Snapshot(0)
			Expect(after).To(Equal(before))
		})

		It("applies the new capacity to trajectories added later", func() {
			Expect(e.SetTailCapacity(16)).To(Succeed())
			i := add(e, dynamo.State{9, 9, 9})
			h, _ := e.History(i)
			Expect(h.Capacity()).To(Equal(16))
		})
	})

	Describe("SetParam", func() {
		It("changes exactly the named parameter", func() {
			before := e.Params()
			Expect(e.SetParam(dynamo.ParamRho, 99)).To(Succeed())
			after := e.Params()
			Expect(after.Rho).To(Equal(99.0))
			Expect(after.Sigma).To(Equal(before.Sigma))
			Expect(after.Beta).To(Equal(before.Beta))
			Expect(after.StepSize).To(Equal(before.StepSize))
		})

		It("rejects unknown names and bad values", func() {
			before := e.Params()
			Expect(e.SetParam("omega", 1)).To(MatchError(dynamo.ErrUnknownParam))
			Expect(e.SetParam(dynamo.ParamStepSize, 0)).To(MatchError(dynamo.ErrParameterBounds))
			Expect(e.Params()).To(Equal(before))
		})
	})

	Describe("Remove and Clear", func() {
		It("moves the last trajectory into the removed slot", func() {
			for i := 0; i < 3; i++ {
				add(e, dynamo.State{float64(i + 1), 1, 1})
			}
			e.Step()
			last, _ := e.Snapshot(2)
			Expect(e.Remove(0)).To(Succeed())
			Expect(e.TrajectoryCount()).To(Equal(2))
			moved, _ := e.Snapshot(0)
			Expect(moved).To(Equal(last))
			Expect(e.Buffer().Point(0, 0)).To(Equal(float32State(last[0])))
			Expect(e.Step().Full).To(BeTrue())
		})

		It("rejects out of range indices", func() {
			Expect(e.Remove(0)).To(MatchError(dynamo.ErrIndexOutOfRange))
			_, err := e.History(3)
			Expect(err).To(MatchError(dynamo.ErrIndexOutOfRange))
		})

		It("clears every trajectory and stays usable", func() {
			add(e, dynamo.State{1, 1, 1})
			add(e, dynamo.State{2, 2, 2})
			e.Clear()
			Expect(e.TrajectoryCount()).To(Equal(0))
			Expect(e.Buffer().Slots()).To(Equal(0))
			Expect(e.Step().Trajectories).To(BeEmpty())

			add(e, dynamo.State{3, 3, 3})
			d := e.Step()
			Expect(d.Trajectories).To(HaveLen(1))
			Expect(d.Trajectories[0].Filled).To(Equal(e.Params().StepsPerFrame))
		})
	})

	Describe("Populate", func() {
		It("adds random trajectories then clones", func() {
			Expect(sim.Populate(e, 1, 31)).To(Succeed())
			Expect(e.TrajectoryCount()).To(Equal(32))
			first, _ := e.Trajectory(0)
			last, _ := e.Trajectory(31)
			Expect(last.State().Sub(first.State()).Norm()).To(BeNumerically("<", 1e-3))
		})

		It("fails to clone into an empty ensemble", func() {
			Expect(sim.Populate(e, 0, 1)).To(MatchError(dynamo.ErrEmptyEnsemble))
		})
	})
})

var _ = Describe("Generate", func() {
	It("stays inside the spawn cube", func() {
		r := rand.New(rand.NewSource(3))
		for i := 0; i < 1000; i++ {
			for _, v := range sim.Generate(r) {
				Expect(v).To(BeNumerically(">=", -25))
				Expect(v).To(BeNumerically("<", 25))
			}
		}
	})
})

func float32State(s dynamo.State) dynamo.State {
	return dynamo.State{float64(float32(s[0])), float64(float32(s[1])), float64(float32(s[2]))}
}
