package framesync

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-naneye/pkg/naneye"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustQueue(t *testing.T, cfg Config) *Queue {
	t.Helper()
	cfg.Logger = quietLogger()
	q, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return q
}

func submitAt(q *Queue, ch naneye.Channel, ts int64) {
	q.Submit(naneye.Frame{Timestamp: ts, Channel: ch, Width: 1, Height: 1, Data: []byte{1, 2, 3}})
}

func TestNew_Defaults(t *testing.T) {
	single := mustQueue(t, Config{Mode: ModeSingle})
	if got := len(single.left.slots); got != DefaultSingleCapacity {
		t.Errorf("single capacity=%d, want %d", got, DefaultSingleCapacity)
	}

	stereo := mustQueue(t, Config{Mode: ModeStereo})
	if got := len(stereo.left.slots); got != DefaultStereoCapacity {
		t.Errorf("stereo capacity=%d, want %d", got, DefaultStereoCapacity)
	}
	if stereo.toleranceUS != DefaultToleranceUS {
		t.Errorf("tolerance=%d, want %d", stereo.toleranceUS, DefaultToleranceUS)
	}
}

func TestNew_RejectsNegativeCapacity(t *testing.T) {
	if _, err := New(Config{Capacity: -1}); err == nil {
		t.Fatal("expected error for capacity -1")
	}
}

func TestNext_WrongMode(t *testing.T) {
	stereo := mustQueue(t, Config{Mode: ModeStereo})
	if _, err := stereo.Next(0); !errors.Is(err, ErrWrongMode) {
		t.Errorf("Next on stereo queue: err=%v, want ErrWrongMode", err)
	}
	single := mustQueue(t, Config{Mode: ModeSingle})
	if _, _, err := single.NextPair(0); !errors.Is(err, ErrWrongMode) {
		t.Errorf("NextPair on single queue: err=%v, want ErrWrongMode", err)
	}
}

func TestSingle_FIFO(t *testing.T) {
	q := mustQueue(t, Config{Mode: ModeSingle, Capacity: 4})
	for i := int64(1); i <= 3; i++ {
		submitAt(q, naneye.ChannelLeft, i*100)
	}

	for i := int64(1); i <= 3; i++ {
		f, err := q.Next(0)
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if f.Timestamp != i*100 {
			t.Errorf("Next %d: timestamp=%d, want %d", i, f.Timestamp, i*100)
		}
	}
	if _, err := q.Next(0); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Next on drained queue: err=%v, want ErrNoFrame", err)
	}
}

func TestSingle_CapacityInvariant(t *testing.T) {
	q := mustQueue(t, Config{Mode: ModeSingle, Capacity: 3})
	for i := int64(1); i <= 10; i++ {
		submitAt(q, naneye.ChannelLeft, i)
		if got := q.Stats().Buffered; got > 3 {
			t.Fatalf("after submit %d: buffered=%d exceeds capacity 3", i, got)
		}
	}

	// Only the most recent 3 submissions are retrievable, oldest first
	for _, want := range []int64{8, 9, 10} {
		f, err := q.Next(0)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if f.Timestamp != want {
			t.Errorf("timestamp=%d, want %d", f.Timestamp, want)
		}
	}

	stats := q.Stats()
	if stats.Submitted != 10 || stats.Delivered != 3 || stats.Evicted != 7 {
		t.Errorf("stats=%+v, want submitted=10 delivered=3 evicted=7", stats)
	}
}

func TestSingle_DefaultCapacityKeepsLatest(t *testing.T) {
	q := mustQueue(t, Config{Mode: ModeSingle})
	for i := int64(1); i <= 5; i++ {
		submitAt(q, naneye.ChannelLeft, i)
	}
	f, err := q.Next(0)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.Timestamp != 5 {
		t.Errorf("timestamp=%d, want latest (5)", f.Timestamp)
	}
}

func TestStereo_BestPair(t *testing.T) {
	q := mustQueue(t, Config{Mode: ModeStereo})
	for _, ts := range []int64{100, 200, 300} {
		submitAt(q, naneye.ChannelLeft, ts)
	}
	submitAt(q, naneye.ChannelRight, 140)

	l, r, err := q.NextPair(0)
	if err != nil {
		t.Fatalf("NextPair: %v", err)
	}
	// diff(100,140)=40 is strictly the smallest; 200 and 300 must lose
	if l.Timestamp != 100 || r.Timestamp != 140 {
		t.Errorf("pair=(%d,%d), want (100,140)", l.Timestamp, r.Timestamp)
	}

	// The chosen frames are consumed; the remaining left frames alone
	// cannot form another pair
	if _, _, err := q.NextPair(0); !errors.Is(err, ErrNoFrame) {
		t.Errorf("second NextPair: err=%v, want ErrNoFrame", err)
	}
}

func TestStereo_ToleranceExclusion(t *testing.T) {
	q := mustQueue(t, Config{Mode: ModeStereo})
	submitAt(q, naneye.ChannelLeft, 100)
	submitAt(q, naneye.ChannelRight, 100000)

	start := time.Now()
	_, _, err := q.NextPair(50 * time.Millisecond)
	if !errors.Is(err, ErrNoFrame) {
		t.Fatalf("err=%v, want ErrNoFrame", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("returned after %v, before the timeout", elapsed)
	}
}

func TestStereo_UnroutableChannel(t *testing.T) {
	q := mustQueue(t, Config{Mode: ModeStereo})

	// Must not panic, must not fail, must not disturb later pairing
	submitAt(q, naneye.Channel(2), 50)
	submitAt(q, naneye.ChannelLeft, 100)
	submitAt(q, naneye.ChannelRight, 110)

	l, r, err := q.NextPair(0)
	if err != nil {
		t.Fatalf("NextPair after unroutable frame: %v", err)
	}
	if l.Timestamp != 100 || r.Timestamp != 110 {
		t.Errorf("pair=(%d,%d), want (100,110)", l.Timestamp, r.Timestamp)
	}
	if got := q.Stats().Unroutable; got != 1 {
		t.Errorf("unroutable=%d, want 1", got)
	}
}

func TestNext_TimeoutBound(t *testing.T) {
	q := mustQueue(t, Config{Mode: ModeSingle})

	start := time.Now()
	_, err := q.Next(100 * time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrNoFrame) {
		t.Fatalf("err=%v, want ErrNoFrame", err)
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("returned after %v, before the timeout", elapsed)
	}
	if elapsed > 2*time.Second {
		t.Errorf("blocked %v, far past the 100ms timeout", elapsed)
	}
}

func TestNext_BlocksUntilSubmit(t *testing.T) {
	q := mustQueue(t, Config{Mode: ModeSingle})

	go func() {
		time.Sleep(20 * time.Millisecond)
		submitAt(q, naneye.ChannelLeft, 42)
	}()

	// Negative timeout blocks until data arrives
	f, err := q.Next(-1)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.Timestamp != 42 {
		t.Errorf("timestamp=%d, want 42", f.Timestamp)
	}
}

func TestStereo_WakesWaitingConsumer(t *testing.T) {
	q := mustQueue(t, Config{Mode: ModeStereo})

	done := make(chan struct{})
	go func() {
		defer close(done)
		l, r, err := q.NextPair(2 * time.Second)
		if err != nil {
			t.Errorf("NextPair: %v", err)
			return
		}
		if l.Timestamp != 1000 || r.Timestamp != 1005 {
			t.Errorf("pair=(%d,%d), want (1000,1005)", l.Timestamp, r.Timestamp)
		}
	}()

	time.Sleep(20 * time.Millisecond) // let the consumer park
	submitAt(q, naneye.ChannelLeft, 1000)
	time.Sleep(10 * time.Millisecond) // one frame alone must not wake a delivery
	submitAt(q, naneye.ChannelRight, 1005)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("consumer never woke up")
	}
}

func TestStereo_NoDuplicateDeliveryUnderContention(t *testing.T) {
	q := mustQueue(t, Config{Mode: ModeStereo, ToleranceUS: 1_000_000})

	const frames = 200
	var wg sync.WaitGroup
	wg.Add(2)
	for _, ch := range []naneye.Channel{naneye.ChannelLeft, naneye.ChannelRight} {
		go func(ch naneye.Channel) {
			defer wg.Done()
			for i := int64(0); i < frames; i++ {
				submitAt(q, ch, i*1000+int64(ch))
			}
		}(ch)
	}

	seenLeft := make(map[int64]bool)
	seenRight := make(map[int64]bool)
	for {
		l, r, err := q.NextPair(100 * time.Millisecond)
		if errors.Is(err, ErrNoFrame) {
			break
		}
		if err != nil {
			t.Fatalf("NextPair: %v", err)
		}
		if seenLeft[l.Timestamp] {
			t.Fatalf("left frame %d delivered twice", l.Timestamp)
		}
		if seenRight[r.Timestamp] {
			t.Fatalf("right frame %d delivered twice", r.Timestamp)
		}
		seenLeft[l.Timestamp] = true
		seenRight[r.Timestamp] = true
	}
	wg.Wait()

	stats := q.Stats()
	if stats.Submitted != 2*frames {
		t.Errorf("submitted=%d, want %d", stats.Submitted, 2*frames)
	}
	// Everything submitted was either delivered, evicted, or still buffered
	accounted := stats.Delivered + stats.Evicted + uint64(stats.Buffered)
	if accounted != stats.Submitted {
		t.Errorf("accounting mismatch: delivered=%d evicted=%d buffered=%d submitted=%d",
			stats.Delivered, stats.Evicted, stats.Buffered, stats.Submitted)
	}
}

func TestSubmit_ConcurrentProducersRespectCapacity(t *testing.T) {
	q := mustQueue(t, Config{Mode: ModeStereo, Capacity: 3})

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			ch := naneye.Channel(p % 2)
			for i := int64(0); i < 500; i++ {
				submitAt(q, ch, i)
			}
		}(p)
	}
	wg.Wait()

	if got := q.Stats().Buffered; got > 6 {
		t.Errorf("buffered=%d across two channels, want ≤ 6", got)
	}
}
