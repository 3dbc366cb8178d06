package ring

import (
	"fmt"

	"github.com/san-kum/lorenzsim/internal/dynamo"
)

// History is a circular store of the most recent states of one trajectory.
// It is not safe for concurrent use.
type History struct {
	capacity int
	data     []float64
	write    int
	filled   int
}

func New(capacity int) (*History, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new history with capacity %d: %w", capacity, dynamo.ErrInvalidCapacity)
	}
	return &History{
		capacity: capacity,
		data:     make([]float64, 3*capacity),
	}, nil
}

func (h *History) Capacity() int   { return h.capacity }
func (h *History) Len() int        { return h.filled }
func (h *History) WriteIndex() int { return h.write }
func (h *History) Full() bool      { return h.filled == h.capacity }

// Push stores s at the write cursor and returns the index written.
func (h *History) Push(s dynamo.State) int {
	i := h.write
	base := 3 * i
	h.data[base+0] = s[0]
	h.data[base+1] = s[1]
	h.data[base+2] = s[2]
	h.write = (h.write + 1) % h.capacity
	if h.filled < h.capacity {
		h.filled++
	}
	return i
}

// PushBatch pushes states in order and reports the span they covered.
func (h *History) PushBatch(states []dynamo.State) Span {
	span := Span{First: -1, Last: -1}
	for _, s := range states {
		i := h.Push(s)
		if span.Count == 0 {
			span.First = i
		}
		span.Last = i
		span.Count++
	}
	return span
}

// DirtyRanges reports the spans written by a batch that started at first and
// ended at last.
func (h *History) DirtyRanges(first, last int) []Range {
	return DirtyRanges(first, last, h.capacity)
}

// Resize changes the capacity to n, keeping the newest min(n, Len) states in
// order. On error h is unchanged.
func (h *History) Resize(n int) error {
	if n < 1 {
		return fmt.Errorf("resize history to %d: %w", n, dynamo.ErrInvalidCapacity)
	}

	actual := n
	if h.filled < actual {
		actual = h.filled
	}

	data := make([]float64, 3*n)
	for k := 0; k < actual; k++ {
		i := mod(h.write-k-1, h.capacity)
		o := actual - k - 1
		copy(data[3*o:3*o+3], h.data[3*i:3*i+3])
	}

	h.capacity = n
	h.data = data
	h.write = actual % n
	h.filled = actual
	return nil
}

// Clear forgets all states. Storage is left as is.
func (h *History) Clear() {
	h.write = 0
	h.filled = 0
}

// At returns the state stored at physical index i.
func (h *History) At(i int) dynamo.State {
	base := 3 * i
	return dynamo.State{h.data[base], h.data[base+1], h.data[base+2]}
}

// Head returns the most recently pushed state.
func (h *History) Head() (dynamo.State, bool) {
	if h.filled == 0 {
		return dynamo.State{}, false
	}
	return h.At(h.newest()), true
}

// Snapshot returns the retained states oldest first.
func (h *History) Snapshot() []dynamo.State {
	out := make([]dynamo.State, h.filled)
	start := mod(h.write-h.filled, h.capacity)
	for n := range out {
		out[n] = h.At((start + n) % h.capacity)
	}
	return out
}

// Scalars returns the flattened x,y,z scalars backing r. The slice aliases
// the history storage and is only valid until the next mutation.
func (h *History) Scalars(r Range) []float64 {
	return h.data[3*r.Start : 3*(r.End+1)]
}

func (h *History) newest() int { return mod(h.write-1, h.capacity) }

// mod handles negative x.
func mod(x, y int) int {
	m := x % y
	if m < 0 {
		m += y
	}
	return m
}
