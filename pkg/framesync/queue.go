package framesync

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-naneye/pkg/naneye"
)

// Mode selects how the queue delivers frames.
type Mode int

const (
	// ModeSingle buffers one channel and delivers frames FIFO.
	ModeSingle Mode = iota
	// ModeStereo buffers both channels and delivers timestamp-matched pairs.
	ModeStereo
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeStereo {
		return "stereo"
	}
	return "single"
}

// Defaults. Single mode keeps only the latest undelivered frame; stereo mode
// keeps a little slack per channel to ride out arrival-order jitter between
// the two sensors while still bounding memory and staleness.
const (
	DefaultToleranceUS    = 20000
	DefaultSingleCapacity = 1
	DefaultStereoCapacity = 3
)

var (
	// ErrNoFrame is returned by Next and NextPair when nothing deliverable
	// appeared within the timeout. It is ordinary flow control, not a
	// failure: consumers retry or exit their loop.
	ErrNoFrame = errors.New("framesync: no frame available within timeout")

	// ErrWrongMode is returned when Next is called on a stereo queue or
	// NextPair on a single-channel queue.
	ErrWrongMode = errors.New("framesync: accessor does not match queue mode")
)

// Config configures a Queue. The zero value is a usable single-channel
// queue with default capacity and tolerance.
type Config struct {
	// Mode fixes single-frame vs stereo-pair delivery for the queue's
	// lifetime.
	Mode Mode

	// Capacity is the per-channel buffer size. 0 selects the mode default
	// (1 single, 3 stereo); negative values are a construction error.
	Capacity int

	// ToleranceUS is the maximum timestamp difference in microseconds for
	// two frames to count as a synchronized pair. 0 selects the default
	// (20000 µs).
	ToleranceUS int64

	// Logger receives diagnostics for dropped frames. nil uses slog.Default.
	Logger *slog.Logger
}

// Queue is the concurrency-safe buffer between driver callbacks and a
// consumer. Producers call Submit from arbitrary goroutines; the consumer
// blocks in Next or NextPair until something deliverable exists.
//
// The queue is deliberately lossy: each channel keeps only its newest
// `capacity` frames, so a slow consumer sees fresh data instead of a
// growing backlog.
type Queue struct {
	mode        Mode
	toleranceUS int64
	logger      *slog.Logger

	mu   sync.Mutex
	cond *sync.Cond

	// Single mode uses only left; stereo routes by channel.
	left  *ring
	right *ring

	seq uint64 // last submission sequence number, guarded by mu

	// Operational counters, read without the lock by Stats.
	submitted  uint64
	delivered  uint64
	evicted    uint64
	unroutable uint64
}

// New creates a Queue for one capture session.
func New(cfg Config) (*Queue, error) {
	capacity := cfg.Capacity
	if capacity == 0 {
		if cfg.Mode == ModeStereo {
			capacity = DefaultStereoCapacity
		} else {
			capacity = DefaultSingleCapacity
		}
	}
	if capacity < 1 {
		return nil, fmt.Errorf("framesync: capacity must be at least 1, got %d", cfg.Capacity)
	}

	tolerance := cfg.ToleranceUS
	if tolerance == 0 {
		tolerance = DefaultToleranceUS
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	q := &Queue{
		mode:        cfg.Mode,
		toleranceUS: tolerance,
		logger:      logger,
		left:        newRing(capacity),
	}
	if cfg.Mode == ModeStereo {
		q.right = newRing(capacity)
	}
	q.cond = sync.NewCond(&q.mu)
	return q, nil
}

// Mode returns the delivery mode fixed at construction.
func (q *Queue) Mode() Mode { return q.mode }

// Submit ingests one frame. It never blocks and never fails the caller:
// driver callbacks are fire-and-forget. In stereo mode a frame whose
// channel is neither left nor right is dropped with a warning.
func (q *Queue) Submit(f naneye.Frame) {
	q.mu.Lock()

	var target *ring
	if q.mode == ModeSingle {
		target = q.left
	} else {
		switch f.Channel {
		case naneye.ChannelLeft:
			target = q.left
		case naneye.ChannelRight:
			target = q.right
		default:
			q.mu.Unlock()
			atomic.AddUint64(&q.unroutable, 1)
			q.logger.Warn("dropping frame with unknown sensor channel",
				"channel", int(f.Channel), "timestamp_us", f.Timestamp)
			return
		}
	}

	q.seq++
	evicted := target.push(slot{frame: f, seq: q.seq})

	// Broadcast, not Signal: a waiter woken only to discover its deadline
	// passed must not swallow the wakeup another consumer needed.
	q.cond.Broadcast()
	q.mu.Unlock()

	atomic.AddUint64(&q.submitted, 1)
	if evicted {
		atomic.AddUint64(&q.evicted, 1)
	}
}

// Next returns the oldest buffered frame (FIFO). It blocks until a frame is
// available or timeout elapses, then returns ErrNoFrame. A negative timeout
// blocks indefinitely; zero polls once without blocking.
//
// Only valid in single mode; stereo queues return ErrWrongMode.
func (q *Queue) Next(timeout time.Duration) (naneye.Frame, error) {
	if q.mode != ModeSingle {
		return naneye.Frame{}, ErrWrongMode
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.wait(timeout, func() bool { return q.left.len() > 0 }) {
		return naneye.Frame{}, ErrNoFrame
	}
	s, _ := q.left.popFront()
	atomic.AddUint64(&q.delivered, 1)
	return s.frame, nil
}

// NextPair returns the left/right pair with the closest timestamps within
// tolerance, blocking like Next. Both frames are consumed: no frame is ever
// delivered twice.
//
// Only valid in stereo mode; single queues return ErrWrongMode.
func (q *Queue) NextPair(timeout time.Duration) (left, right naneye.Frame, err error) {
	if q.mode != ModeStereo {
		return naneye.Frame{}, naneye.Frame{}, ErrWrongMode
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	ready := func() bool {
		return hasPair(q.left.snapshot(), q.right.snapshot(), q.toleranceUS)
	}

	// Retries share one deadline so the total block never exceeds the
	// caller's timeout, however many wake cycles it takes.
	remaining := timeout
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if !q.wait(remaining, ready) {
			return naneye.Frame{}, naneye.Frame{}, ErrNoFrame
		}

		l, r, ok := bestPair(q.left.snapshot(), q.right.snapshot(), q.toleranceUS)
		if !ok {
			// The predicate saw a pair under this same lock, so normally
			// ok holds. Guarded anyway: a selection miss yields nothing
			// this cycle rather than an out-of-tolerance pair.
			if timeout == 0 {
				return naneye.Frame{}, naneye.Frame{}, ErrNoFrame
			}
			if timeout > 0 {
				remaining = time.Until(deadline)
				if remaining <= 0 {
					return naneye.Frame{}, naneye.Frame{}, ErrNoFrame
				}
			}
			continue
		}

		// Best-effort removal: a frame already evicted is simply gone.
		q.left.remove(l.seq)
		q.right.remove(r.seq)
		atomic.AddUint64(&q.delivered, 2)
		return l.frame, r.frame, nil
	}
}

// wait blocks on the condition variable until ready() holds or the timeout
// budget is exhausted, re-checking after every wakeup. Must be called with
// q.mu held; returns with it held.
func (q *Queue) wait(timeout time.Duration, ready func() bool) bool {
	if timeout == 0 {
		return ready()
	}
	if timeout < 0 {
		for !ready() {
			q.cond.Wait()
		}
		return true
	}

	deadline := time.Now().Add(timeout)
	// sync.Cond has no timed wait; a timer broadcast bounds the block.
	// Taking the lock before broadcasting ensures the waiter is parked in
	// Wait, not between its deadline check and the park.
	timer := time.AfterFunc(timeout, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer timer.Stop()

	for !ready() {
		if !time.Now().Before(deadline) {
			return false
		}
		q.cond.Wait()
	}
	return true
}

// Stats reports operational counters. Drops (evictions, unroutable frames)
// are expected under normal operation and are visibility, not errors.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	buffered := q.left.len()
	if q.right != nil {
		buffered += q.right.len()
	}
	q.mu.Unlock()

	return Stats{
		Submitted:  atomic.LoadUint64(&q.submitted),
		Delivered:  atomic.LoadUint64(&q.delivered),
		Evicted:    atomic.LoadUint64(&q.evicted),
		Unroutable: atomic.LoadUint64(&q.unroutable),
		Buffered:   buffered,
	}
}
