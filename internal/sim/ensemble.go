package sim

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/san-kum/lorenzsim/internal/dynamo"
	"github.com/san-kum/lorenzsim/internal/ring"
)

const (
	// DefaultCloneEpsilon bounds the per-axis jitter applied by Clone.
	DefaultCloneEpsilon = 0.00005

	// parallelMinChunk is the smallest number of trajectories handed to one
	// worker when stepping in parallel.
	parallelMinChunk = 16
)

type member struct {
	traj Trajectory
	hist *ring.History
}

// Ensemble owns a set of trajectories, their tail histories and the
// simulation parameters they share. All histories have the same capacity.
//
// Every method is safe for concurrent use; mutators and Step are mutually
// exclusive.
type Ensemble struct {
	mu sync.Mutex

	members  []member
	params   dynamo.Params
	capacity int
	buffer   TailBuffer

	rng     *rand.Rand
	epsilon float64
	workers int
	logger  *slog.Logger

	frame   uint64
	full    bool
	scratch []dynamo.State
	spans   []ring.Span
}

type Option func(*Ensemble)

func WithSeed(seed int64) Option {
	return func(e *Ensemble) { e.rng = rand.New(rand.NewSource(seed)) }
}

func WithRand(r *rand.Rand) Option {
	return func(e *Ensemble) { e.rng = r }
}

// WithCloneEpsilon sets the maximum per-axis offset of a clone from its source.
func WithCloneEpsilon(eps float64) Option {
	return func(e *Ensemble) { e.epsilon = eps }
}

// WithWorkers integrates trajectories on up to n goroutines per frame.
func WithWorkers(n int) Option {
	return func(e *Ensemble) { e.workers = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Ensemble) { e.logger = l }
}

func NewEnsemble(capacity int, params dynamo.Params, opts ...Option) (*Ensemble, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new ensemble with tail capacity %d: %w", capacity, dynamo.ErrInvalidCapacity)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	e := &Ensemble{
		params:   params,
		capacity: capacity,
		epsilon:  DefaultCloneEpsilon,
		workers:  1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With(slog.String("component", "ensemble"))
	e.buffer.Ensure(0, capacity)
	return e, nil
}

// Add appends a trajectory starting at s and returns its index.
func (e *Ensemble) Add(s dynamo.State) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.add(s)
}

func (e *Ensemble) add(s dynamo.State) (int, error) {
	h, err := ring.New(e.capacity)
	if err != nil {
		return 0, err
	}
	e.members = append(e.members, member{traj: NewTrajectory(s), hist: h})
	if e.buffer.Ensure(len(e.members), e.capacity) {
		e.resyncLocked()
	}
	return len(e.members) - 1, nil
}

// AddRandom appends a trajectory at a random state drawn by Generate.
func (e *Ensemble) AddRandom() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.add(Generate(e.rng))
}

// Clone copies the current state of the trajectory chosen by pick, offsets
// each axis by at most the clone epsilon and appends the result. A nil pick
// chooses uniformly at random.
func (e *Ensemble) Clone(pick func(n int) int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.members)
	if n == 0 {
		e.logger.Debug("clone rejected", slog.String("reason", "empty"))
		return 0, fmt.Errorf("clone: %w", dynamo.ErrEmptyEnsemble)
	}
	if pick == nil {
		pick = e.rng.Intn
	}
	src := pick(n)
	if src < 0 || src >= n {
		return 0, fmt.Errorf("clone source %d of %d: %w", src, n, dynamo.ErrIndexOutOfRange)
	}
	return e.add(e.jitter(e.members[src].traj.State()))
}

func (e *Ensemble) jitter(s dynamo.State) dynamo.State {
	if e.epsilon == 0 {
		return s
	}
	var out dynamo.State
	// A draw can round away entirely against a large coordinate; retry a
	// few times, then give up for states that absorb any offset (Inf).
	for attempt := 0; attempt < 16; attempt++ {
		out = s
		for i := range out {
			out[i] += (e.rng.Float64() - 0.5) * 2 * e.epsilon
		}
		if out != s {
			break
		}
	}
	return out
}

// Remove deletes trajectory i. The last trajectory takes its place, so
// indices are not stable across removals.
func (e *Ensemble) Remove(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.members)
	if i < 0 || i >= n {
		return fmt.Errorf("remove %d of %d: %w", i, n, dynamo.ErrIndexOutOfRange)
	}
	last := n - 1
	e.members[i] = e.members[last]
	e.members[last] = member{}
	e.members = e.members[:last]
	if i < last {
		e.buffer.SyncSlot(i, e.members[i].hist)
		e.full = true
	}
	return nil
}

// Clear removes every trajectory.
func (e *Ensemble) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.members = nil
	e.scratch = nil
	e.spans = nil
	e.buffer.Reset()
	e.full = true
}

// SetTailCapacity resizes every history to k. On error nothing changes.
func (e *Ensemble) SetTailCapacity(k int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if k < 1 {
		e.logger.Debug("tail capacity rejected", slog.Int("capacity", k))
		return fmt.Errorf("set tail capacity %d: %w", k, dynamo.ErrInvalidCapacity)
	}
	if k == e.capacity {
		return nil
	}
	for _, m := range e.members {
		if err := m.hist.Resize(k); err != nil {
			return err
		}
	}
	e.capacity = k
	e.buffer.Ensure(len(e.members), k)
	e.resyncLocked()
	return nil
}

// SetParam sets one named parameter. Unknown names and out of range values
// are rejected without changing anything.
func (e *Ensemble) SetParam(name string, v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.params.With(name, v)
	if err != nil {
		e.logger.Debug("parameter rejected", slog.String("name", name), slog.Float64("value", v))
		return fmt.Errorf("set %s: %w", name, err)
	}
	e.params = p
	return nil
}

// SetParams replaces all parameters at once.
func (e *Ensemble) SetParams(p dynamo.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.params = p
	e.mu.Unlock()
	return nil
}

func (e *Ensemble) SetPaused(paused bool) {
	e.mu.Lock()
	e.params.Paused = paused
	e.mu.Unlock()
}

// TogglePaused flips the paused flag and returns the new value.
func (e *Ensemble) TogglePaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.Paused = !e.params.Paused
	return e.params.Paused
}

func (e *Ensemble) Params() dynamo.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

func (e *Ensemble) TrajectoryCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.members)
}

func (e *Ensemble) TailCapacity() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capacity
}

// Trajectory returns a copy of trajectory i.
func (e *Ensemble) Trajectory(i int) (Trajectory, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.members) {
		return Trajectory{}, fmt.Errorf("trajectory %d of %d: %w", i, len(e.members), dynamo.ErrIndexOutOfRange)
	}
	return e.members[i].traj, nil
}

// History returns the history of trajectory i. The history is owned by the
// ensemble; callers must only read it between calls to Step.
func (e *Ensemble) History(i int) (*ring.History, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.members) {
		return nil, fmt.Errorf("history %d of %d: %w", i, len(e.members), dynamo.ErrIndexOutOfRange)
	}
	return e.members[i].hist, nil
}

// Snapshot returns trajectory i's retained states oldest first.
func (e *Ensemble) Snapshot(i int) ([]dynamo.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.members) {
		return nil, fmt.Errorf("snapshot %d of %d: %w", i, len(e.members), dynamo.ErrIndexOutOfRange)
	}
	return e.members[i].hist.Snapshot(), nil
}

// Buffer returns the shared tail buffer. It is only valid until the next
// mutating call.
func (e *Ensemble) Buffer() *TailBuffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &e.buffer
}

// Step advances every trajectory by StepsPerFrame RK4 steps, pushes the
// batch into its history and reports what changed. A paused ensemble only
// reports heads.
func (e *Ensemble) Step() FrameDelta {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.frame++
	d := FrameDelta{
		Frame:        e.frame,
		Paused:       e.params.Paused,
		Full:         e.full,
		Capacity:     e.capacity,
		Trajectories: make([]TrajectoryDelta, len(e.members)),
	}
	e.full = false

	if !e.params.Paused && len(e.members) > 0 {
		e.advance()
	}

	for i, m := range e.members {
		td := TrajectoryDelta{
			Index:  i,
			Head:   m.traj.State(),
			Filled: m.hist.Len(),
			Offset: e.buffer.Offset(i, 0),
		}
		if !d.Paused {
			td.Ranges = e.spans[i].Ranges(e.capacity)
		}
		d.Trajectories[i] = td
	}
	return d
}

// advance runs the integration and history pushes, fanning out over
// workers when there are enough trajectories.
func (e *Ensemble) advance() {
	n := len(e.members)
	spf := e.params.StepsPerFrame
	if cap(e.scratch) < n*spf {
		e.scratch = make([]dynamo.State, n*spf)
	}
	e.scratch = e.scratch[:n*spf]
	if cap(e.spans) < n {
		e.spans = make([]ring.Span, n)
	}
	e.spans = e.spans[:n]

	p := e.params
	dynamo.ParallelFor(n, e.workers, parallelMinChunk, func(start, end int) {
		for i := start; i < end; i++ {
			m := &e.members[i]
			batch := e.scratch[i*spf : (i+1)*spf]
			for s := range batch {
				m.traj.Step(p)
				batch[s] = m.traj.State()
			}
			span := m.hist.PushBatch(batch)
			for _, r := range span.Ranges(e.capacity) {
				e.buffer.SyncRange(i, m.hist, r)
			}
			e.spans[i] = span
		}
	})
}

func (e *Ensemble) resyncLocked() {
	for i, m := range e.members {
		e.buffer.SyncSlot(i, m.hist)
	}
	e.full = true
}
