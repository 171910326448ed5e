package naneye

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnsupportedPlatform is returned when the vendor driver is requested on
// a platform other than Windows. The NanEye SDK only ships Windows DLLs;
// use the Simulator for development elsewhere.
var ErrUnsupportedPlatform = errors.New("naneye hardware driver is only available on Windows")

// FrameFunc receives every captured frame. It is invoked from a driver
// goroutine, potentially at full sensor rate, so it must not block: hand the
// frame to a framesync.Queue and return.
type FrameFunc func(Frame)

// Driver is the backend that actually talks to the sensors. The vendor DLL
// binding and the Simulator both implement it.
type Driver interface {
	// Open prepares the backend for the given sensor family and channel mode.
	Open(sensor SensorType, mode Mode) error

	// Start begins capture, invoking fn for every frame until Stop.
	Start(fn FrameFunc) error

	// Stop halts capture. Safe to call when not capturing.
	Stop() error

	// Close releases backend resources. The driver cannot be reused after.
	Close() error
}

// Camera is the capture session facade. It owns a Driver, tracks session
// state and fans captured frames out to the registered callback.
type Camera struct {
	drv    Driver
	sensor SensorType
	mode   Mode

	mu      sync.Mutex
	onFrame FrameFunc
	running bool
	closed  bool
}

// NewCamera opens a capture session on the platform hardware driver.
// On non-Windows platforms this fails with ErrUnsupportedPlatform.
func NewCamera(sensor SensorType, mode Mode) (*Camera, error) {
	drv, err := newPlatformDriver()
	if err != nil {
		return nil, err
	}
	return NewCameraWithDriver(drv, sensor, mode)
}

// NewCameraWithDriver opens a capture session on an explicit backend,
// typically a *Simulator in tests and non-Windows development.
func NewCameraWithDriver(drv Driver, sensor SensorType, mode Mode) (*Camera, error) {
	if drv == nil {
		return nil, errors.New("nil driver")
	}
	if err := drv.Open(sensor, mode); err != nil {
		return nil, fmt.Errorf("open %s driver: %w", sensor, err)
	}
	return &Camera{drv: drv, sensor: sensor, mode: mode}, nil
}

// Mode returns the channel mode fixed at construction.
func (c *Camera) Mode() Mode { return c.mode }

// Sensor returns the sensor family fixed at construction.
func (c *Camera) Sensor() SensorType { return c.sensor }

// OnFrame registers the frame callback. Must be called before Start.
func (c *Camera) OnFrame(fn FrameFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFrame = fn
}

// Start begins capture. Frames flow to the OnFrame callback until Stop.
func (c *Camera) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("camera is closed")
	}
	if c.running {
		return errors.New("capture already running")
	}
	if c.onFrame == nil {
		return errors.New("no frame callback registered")
	}
	if err := c.drv.Start(c.onFrame); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	c.running = true
	return nil
}

// Stop halts capture. The frame callback receives no frames after Stop
// returns. Safe to call repeatedly.
func (c *Camera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false
	return c.drv.Stop()
}

// Close stops capture and releases the driver.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.running {
		c.running = false
		if err := c.drv.Stop(); err != nil {
			c.drv.Close()
			return err
		}
	}
	return c.drv.Close()
}
