package sim

import (
	"github.com/san-kum/lorenzsim/internal/dynamo"
	"github.com/san-kum/lorenzsim/internal/ring"
)

// TailBuffer is the flat float32 copy of every tail that a renderer uploads.
// Slot s starts at scalar offset s*3*K. The slot count is the next power of
// two of the trajectory count so adding trajectories rarely reallocates.
type TailBuffer struct {
	data     []float32
	capacity int
	slots    int
}

func nextPow2(n int) int {
	if n <= 0 {
		return 0
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Ensure makes room for count slots of the given capacity. It reports true
// when the layout changed and every slot has to be re-uploaded.
func (b *TailBuffer) Ensure(count, capacity int) bool {
	need := nextPow2(count)
	if capacity != b.capacity {
		b.capacity = capacity
		b.slots = need
		b.data = make([]float32, need*3*capacity)
		return true
	}
	if need <= b.slots {
		return false
	}
	data := make([]float32, need*3*capacity)
	copy(data, b.data)
	b.data = data
	b.slots = need
	return true
}

// Reset drops all slots.
func (b *TailBuffer) Reset() {
	b.data = nil
	b.slots = 0
}

// SyncRange copies the states of r from h into slot.
func (b *TailBuffer) SyncRange(slot int, h *ring.History, r ring.Range) {
	src := h.Scalars(r)
	dst := b.data[b.Offset(slot, r.Start):]
	for i, v := range src {
		dst[i] = float32(v)
	}
}

// SyncSlot copies all of h into slot.
func (b *TailBuffer) SyncSlot(slot int, h *ring.History) {
	b.SyncRange(slot, h, ring.Range{Start: 0, End: h.Capacity() - 1})
}

// Offset returns the scalar offset of element index in slot.
func (b *TailBuffer) Offset(slot, index int) int {
	return slot*3*b.capacity + 3*index
}

// Point reads element index of slot back as a state.
func (b *TailBuffer) Point(slot, index int) dynamo.State {
	o := b.Offset(slot, index)
	return dynamo.State{float64(b.data[o]), float64(b.data[o+1]), float64(b.data[o+2])}
}

func (b *TailBuffer) Data() []float32 { return b.data }
func (b *TailBuffer) Slots() int      { return b.slots }
func (b *TailBuffer) Capacity() int   { return b.capacity }
