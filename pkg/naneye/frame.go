package naneye

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Frame is one captured image from a single sensor channel.
//
// Frames are immutable once constructed: the driver fills one in, hands it
// to the frame callback and never touches it again. Data holds raw
// interleaved RGB bytes (Height rows of Width pixels), exactly as delivered
// by the sensor pipeline.
type Frame struct {
	// Data is the raw RGB pixel payload, len = Width*Height*3.
	// Must not be modified after the frame leaves the driver.
	Data []byte

	// Width and Height are the frame dimensions in pixels.
	Width  int
	Height int

	// Timestamp is the capture time in microseconds on the driver's
	// monotonic clock. Only differences between timestamps are meaningful.
	Timestamp int64

	// Channel is the sensor that produced this frame.
	Channel Channel
}

// Mat converts the raw RGB payload into a BGR gocv.Mat ready for display
// or encoding. The caller owns the returned Mat and must Close it.
func (f Frame) Mat() (gocv.Mat, error) {
	want := f.Width * f.Height * 3
	if len(f.Data) != want {
		return gocv.Mat{}, fmt.Errorf("frame payload is %d bytes, want %d for %dx%d RGB",
			len(f.Data), want, f.Width, f.Height)
	}

	rgb, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("wrap frame bytes: %w", err)
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	return bgr, nil
}
