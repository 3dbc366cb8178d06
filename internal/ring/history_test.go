package ring_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lorenzsim/internal/dynamo"
	"github.com/san-kum/lorenzsim/internal/ring"
)

// seq returns states (i, 10i, 100i) for i in [from, to].
func seq(from, to int) []dynamo.State {
	out := make([]dynamo.State, 0, to-from+1)
	for i := from; i <= to; i++ {
		f := float64(i)
		out = append(out, dynamo.State{f, 10 * f, 100 * f})
	}
	return out
}

func mustNew(capacity int) *ring.History {
	h, err := ring.New(capacity)
	Expect(err).NotTo(HaveOccurred())
	return h
}

var _ = Describe("History", func() {
	Describe("New", func() {
		It("rejects capacities below one", func() {
			for _, k := range []int{0, -1, -64} {
				h, err := ring.New(k)
				Expect(err).To(MatchError(dynamo.ErrInvalidCapacity))
				Expect(h).To(BeNil())
			}
		})

		It("starts empty", func() {
			h := mustNew(4)
			Expect(h.Len()).To(Equal(0))
			Expect(h.WriteIndex()).To(Equal(0))
			Expect(h.Snapshot()).To(BeEmpty())
			_, ok := h.Head()
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Push", func() {
		It("returns the index written and wraps the cursor", func() {
			h := mustNew(3)
			var written []int
			for _, s := range seq(1, 5) {
				written = append(written, h.Push(s))
			}
			Expect(written).To(Equal([]int{0, 1, 2, 0, 1}))
			Expect(h.WriteIndex()).To(Equal(2))
			Expect(h.Len()).To(Equal(3))
		})

		It("keeps the newest state at write-1", func() {
			h := mustNew(4)
			h.PushBatch(seq(1, 6))
			head, ok := h.Head()
			Expect(ok).To(BeTrue())
			Expect(head).To(Equal(seq(6, 6)[0]))
			Expect(h.At((h.WriteIndex() + 3) % 4)).To(Equal(head))
		})

		It("works with capacity one", func() {
			h := mustNew(1)
			for _, s := range seq(1, 3) {
				Expect(h.Push(s)).To(Equal(0))
			}
			Expect(h.Snapshot()).To(Equal(seq(3, 3)))
		})
	})

	DescribeTable("Snapshot keeps min(N, K) states in push order",
		func(capacity, pushes int) {
			h := mustNew(capacity)
			h.PushBatch(seq(1, pushes))
			kept := pushes
			if kept > capacity {
				kept = capacity
			}
			Expect(h.Snapshot()).To(Equal(seq(pushes-kept+1, pushes)))
			Expect(h.Len()).To(Equal(kept))
		},
		Entry("underfilled", 8, 3),
		Entry("exactly full", 8, 8),
		Entry("one past full", 8, 9),
		Entry("many laps", 5, 23),
		Entry("capacity one", 1, 7),
	)

	Describe("dirty ranges", func() {
		It("splits a batch that wraps past the end", func() {
			h := mustNew(6)
			h.PushBatch(seq(1, 4))
			Expect(h.WriteIndex()).To(Equal(4))

			span := h.PushBatch(seq(5, 8))
			Expect(span.First).To(Equal(4))
			Expect(span.Last).To(Equal(1))
			Expect(h.DirtyRanges(span.First, span.Last)).To(Equal([]ring.Range{{4, 5}, {0, 1}}))
			Expect(span.Ranges(h.Capacity())).To(Equal([]ring.Range{{4, 5}, {0, 1}}))
		})

		It("reports one range when the batch does not wrap", func() {
			h := mustNew(6)
			span := h.PushBatch(seq(1, 3))
			Expect(h.DirtyRanges(span.First, span.Last)).To(Equal([]ring.Range{{0, 2}}))
		})

		It("ends exactly at the last slot without wrapping", func() {
			h := mustNew(6)
			h.PushBatch(seq(1, 3))
			span := h.PushBatch(seq(4, 6))
			Expect(span.Ranges(6)).To(Equal([]ring.Range{{3, 5}}))
			Expect(h.WriteIndex()).To(Equal(0))
		})

		It("covers the whole ring once for batches of capacity or more", func() {
			h := mustNew(4)
			h.Push(seq(0, 0)[0])
			span := h.PushBatch(seq(1, 9))
			Expect(span.Count).To(Equal(9))
			Expect(span.Ranges(4)).To(Equal([]ring.Range{{0, 3}}))
		})

		It("reports nothing for an empty batch", func() {
			h := mustNew(4)
			span := h.PushBatch(nil)
			Expect(span.Count).To(Equal(0))
			Expect(span.Ranges(4)).To(BeEmpty())
		})

		It("exposes the scalars behind a range", func() {
			h := mustNew(4)
			h.PushBatch(seq(1, 2))
			Expect(h.Scalars(ring.Range{Start: 1, End: 1})).To(Equal([]float64{2, 20, 200}))
			Expect(h.Scalars(ring.Range{Start: 0, End: 1})).To(HaveLen(6))
		})
	})

	Describe("Resize", func() {
		It("keeps the most recent states when shrinking", func() {
			h := mustNew(8)
			h.PushBatch(seq(1, 10))
			Expect(h.Snapshot()).To(Equal(seq(3, 10)))

			Expect(h.Resize(5)).To(Succeed())
			Expect(h.Capacity()).To(Equal(5))
			Expect(h.Snapshot()).To(Equal(seq(6, 10)))
			Expect(h.WriteIndex()).To(Equal(0))
		})

		It("round-trips through grow then shrink", func() {
			h := mustNew(8)
			h.PushBatch(seq(1, 10))
			Expect(h.Resize(4)).To(Succeed())
			known := h.Snapshot()
			Expect(known).To(Equal(seq(7, 10)))

			Expect(h.Resize(16)).To(Succeed())
			Expect(h.Snapshot()).To(Equal(known))
			Expect(h.Len()).To(Equal(4))
			Expect(h.WriteIndex()).To(Equal(4))

			Expect(h.Resize(4)).To(Succeed())
			Expect(h.Snapshot()).To(Equal(known))
		})

		It("leaves grown slots empty and keeps pushing in order", func() {
			h := mustNew(3)
			h.PushBatch(seq(1, 2))
			Expect(h.Resize(6)).To(Succeed())
			Expect(h.Len()).To(Equal(2))
			h.PushBatch(seq(3, 9))
			Expect(h.Snapshot()).To(Equal(seq(4, 9)))
		})

		It("handles an empty history", func() {
			h := mustNew(4)
			Expect(h.Resize(2)).To(Succeed())
			Expect(h.Len()).To(Equal(0))
			Expect(h.WriteIndex()).To(Equal(0))
		})

		It("shrinks to one", func() {
			h := mustNew(4)
			h.PushBatch(seq(1, 3))
			Expect(h.Resize(1)).To(Succeed())
			Expect(h.Snapshot()).To(Equal(seq(3, 3)))
			Expect(h.WriteIndex()).To(Equal(0))
		})

		It("rejects invalid capacities without mutating", func() {
			h := mustNew(4)
			h.PushBatch(seq(1, 6))
			before := h.Snapshot()
			Expect(h.Resize(0)).To(MatchError(dynamo.ErrInvalidCapacity))
			Expect(h.Capacity()).To(Equal(4))
			Expect(h.Snapshot()).To(Equal(before))
			Expect(h.WriteIndex()).To(Equal(2))
		})
	})

	Describe("Clear", func() {
		It("empties logically and restarts at index zero", func() {
			h := mustNew(4)
			h.PushBatch(seq(1, 3))
			h.Clear()
			Expect(h.Len()).To(Equal(0))
			Expect(h.WriteIndex()).To(Equal(0))
			Expect(h.Snapshot()).To(BeEmpty())
			Expect(h.Push(seq(9, 9)[0])).To(Equal(0))
			Expect(h.Snapshot()).To(Equal(seq(9, 9)))
		})
	})
})

var _ = Describe("Merge", func() {
	It("joins overlapping and adjacent ranges", func() {
		in := []ring.Range{{6, 7}, {0, 1}, {4, 5}, {1, 2}}
		Expect(ring.Merge(in)).To(Equal([]ring.Range{{0, 2}, {4, 7}}))
	})

	It("does not modify its input", func() {
		in := []ring.Range{{3, 4}, {0, 1}}
		ring.Merge(in)
		Expect(in).To(Equal([]ring.Range{{3, 4}, {0, 1}}))
	})

	It("returns nil for no ranges", func() {
		Expect(ring.Merge(nil)).To(BeNil())
	})
})
