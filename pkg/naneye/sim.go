package naneye

import (
	"math/rand"
	"sync"
	"time"
)

// Simulator is a synthetic Driver for testing and non-Windows development.
// It generates moving-gradient RGB frames at a configurable rate on the
// channels implied by the capture mode, with optional timestamp jitter to
// exercise stereo pairing the way unsynchronized real sensors would.
type Simulator struct {
	width    int
	height   int
	interval time.Duration
	jitterUS int64

	mu      sync.Mutex
	mode    Mode
	running bool
	stopCh  chan struct{}
	done    sync.WaitGroup

	start time.Time
	tick  uint64
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithResolution sets the synthetic frame size. Default 100x100,
// the native NanEyeM resolution.
func WithResolution(width, height int) SimulatorOption {
	return func(s *Simulator) {
		s.width = width
		s.height = height
	}
}

// WithFrameRate sets the per-channel frame rate. Default 40 fps.
func WithFrameRate(fps int) SimulatorOption {
	return func(s *Simulator) {
		if fps > 0 {
			s.interval = time.Second / time.Duration(fps)
		}
	}
}

// WithTimestampJitter adds up to ±jitterUS microseconds of random skew
// between the two channels' timestamps in stereo mode.
func WithTimestampJitter(jitterUS int64) SimulatorOption {
	return func(s *Simulator) {
		s.jitterUS = jitterUS
	}
}

// NewSimulator creates a synthetic capture driver.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		width:    100,
		height:   100,
		interval: 25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open records the capture mode. The sensor family has no effect on the
// synthetic output.
func (s *Simulator) Open(_ SensorType, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	return nil
}

// Start launches the generation loop.
func (s *Simulator) Start(fn FrameFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.start = time.Now()

	s.done.Add(1)
	go s.run(fn, s.stopCh)
	return nil
}

// Stop halts generation and waits for the loop to exit.
func (s *Simulator) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.done.Wait()
	return nil
}

// Close is equivalent to Stop for the simulator.
func (s *Simulator) Close() error {
	return s.Stop()
}

func (s *Simulator) run(fn FrameFunc, stopCh chan struct{}) {
	defer s.done.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick++
			ts := time.Since(s.start).Microseconds()
			switch s.mode {
			case ModeCh1:
				fn(s.frame(ChannelLeft, ts))
			case ModeCh2:
				fn(s.frame(ChannelRight, ts))
			case ModeStereo:
				fn(s.frame(ChannelLeft, ts+s.jitter()))
				fn(s.frame(ChannelRight, ts+s.jitter()))
			}
		}
	}
}

func (s *Simulator) jitter() int64 {
	if s.jitterUS == 0 {
		return 0
	}
	return rand.Int63n(2*s.jitterUS+1) - s.jitterUS
}

// frame renders a diagonal gradient that drifts with the tick counter, so
// consecutive frames are visibly distinct in a viewer.
func (s *Simulator) frame(ch Channel, ts int64) Frame {
	data := make([]byte, s.width*s.height*3)
	shift := int(s.tick % 256)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			i := (y*s.width + x) * 3
			data[i] = byte((x + shift) % 256)
			data[i+1] = byte((y + shift) % 256)
			data[i+2] = byte(int(ch) * 128)
		}
	}
	return Frame{
		Data:      data,
		Width:     s.width,
		Height:    s.height,
		Timestamp: ts,
		Channel:   ch,
	}
}
