// Package framesync buffers timestamped camera frames between asynchronous
// driver callbacks and a consumer.
//
// A Queue holds one bounded buffer per sensor channel. Producers call
// Submit from any goroutine; Submit never blocks and never fails. The
// consumer calls Next (single-channel FIFO) or NextPair (stereo), which
// block until a frame or a timestamp-matched left/right pair is available,
// or the timeout elapses with ErrNoFrame.
//
// The queue favors freshness over completeness: each channel retains only
// its newest frames, evicting the oldest when a buffer is full. In stereo
// mode the delivered pair is always the one with the closest timestamps
// within the configured tolerance.
//
// Typical wiring:
//
//	q, err := framesync.New(framesync.Config{Mode: framesync.ModeStereo})
//	if err != nil {
//		return err
//	}
//	cam.OnFrame(q.Submit)
//
//	for {
//		left, right, err := q.NextPair(time.Second)
//		if errors.Is(err, framesync.ErrNoFrame) {
//			continue // or give up after enough misses
//		}
//		render(left, right)
//	}
package framesync
