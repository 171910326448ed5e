// Package viewer renders synchronized camera frames in an OpenCV window.
package viewer

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-naneye/pkg/framesync"
	"github.com/teslashibe/go-naneye/pkg/naneye"
)

const escapeKey = 27

// Options tunes the display loop. Zero values select sensible defaults.
type Options struct {
	// Title is the window title. Default "NanEye Viewer".
	Title string

	// Timeout is the per-retrieval wait. Default 1s.
	Timeout time.Duration

	// Patience is how many consecutive empty retrievals end the loop.
	// A dead sensor should close the window, not spin it. Default 5.
	Patience int
}

// Viewer consumes a queue and shows frames until the user quits ('q' or
// ESC) or the stream goes quiet for longer than the patience allows.
// Stereo queues are rendered as a left/right side-by-side composite.
type Viewer struct {
	queue  *framesync.Queue
	opts   Options
	window *gocv.Window
}

// New creates a viewer for the given queue.
func New(q *framesync.Queue, opts Options) *Viewer {
	if opts.Title == "" {
		opts.Title = "NanEye Viewer"
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second
	}
	if opts.Patience == 0 {
		opts.Patience = 5
	}
	return &Viewer{queue: q, opts: opts}
}

// Run drives the display loop on the calling goroutine. It returns nil on
// user quit or stream silence, and an error only for rendering failures.
func (v *Viewer) Run() error {
	v.window = gocv.NewWindow(v.opts.Title)
	defer v.window.Close()

	misses := 0
	for {
		img, err := v.nextImage()
		if errors.Is(err, framesync.ErrNoFrame) {
			misses++
			if misses >= v.opts.Patience {
				return nil
			}
			continue
		}
		if err != nil {
			return err
		}
		misses = 0

		v.window.IMShow(img)
		img.Close()

		key := v.window.WaitKey(1)
		if key == 'q' || key == escapeKey {
			return nil
		}
	}
}

func (v *Viewer) nextImage() (gocv.Mat, error) {
	if v.queue.Mode() == framesync.ModeStereo {
		left, right, err := v.queue.NextPair(v.opts.Timeout)
		if err != nil {
			return gocv.Mat{}, err
		}
		return SideBySide(left, right)
	}

	f, err := v.queue.Next(v.opts.Timeout)
	if err != nil {
		return gocv.Mat{}, err
	}
	return f.Mat()
}

// SideBySide composites a stereo pair into one image, left then right.
func SideBySide(left, right naneye.Frame) (gocv.Mat, error) {
	lm, err := left.Mat()
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("left frame: %w", err)
	}
	defer lm.Close()

	rm, err := right.Mat()
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("right frame: %w", err)
	}
	defer rm.Close()

	out := gocv.NewMat()
	gocv.Hconcat(lm, rm, &out)
	return out, nil
}
