//go:build windows

package naneye

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/teslashibe/go-naneye/internal/log"
)

// Vendor DLL layout. The installer (cmd/naneye-install) populates LibDir
// from the NanEye C# SDK; a local SDK build, when present, takes precedence
// and is copied over the installed DLL on first use.
const (
	driverDLLName = "NanEyeApi.dll"

	// LibDir is where the installer places the vendor DLLs, relative to
	// the working directory of the capture binary.
	LibDir = "lib/naneye"

	// buildDir is the vendor SDK build output checked for a fresher DLL.
	buildDir = "sdk/bin/Release"
)

// dllDriver binds the vendor capture API out of NanEyeApi.dll.
// All CGo-free: procedures are resolved lazily with golang.org/x/sys.
type dllDriver struct {
	dll *windows.LazyDLL

	procOpen     *windows.LazyProc
	procStart    *windows.LazyProc
	procStop     *windows.LazyProc
	procClose    *windows.LazyProc
	procRegister *windows.LazyProc

	mu        sync.Mutex
	fn        FrameFunc
	capturing bool
	cbHandle  uintptr
}

// newPlatformDriver returns the Windows vendor DLL binding.
func newPlatformDriver() (Driver, error) {
	refreshDriverDLL()

	path := filepath.Join(LibDir, driverDLLName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("vendor DLL not found at %s (run naneye-install first): %w", path, err)
	}

	dll := windows.NewLazyDLL(path)
	d := &dllDriver{
		dll:          dll,
		procOpen:     dll.NewProc("NanEye_Open"),
		procStart:    dll.NewProc("NanEye_StartCapture"),
		procStop:     dll.NewProc("NanEye_StopCapture"),
		procClose:    dll.NewProc("NanEye_Close"),
		procRegister: dll.NewProc("NanEye_RegisterFrameCallback"),
	}
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return d, nil
}

// refreshDriverDLL copies a locally built SDK DLL over the installed one,
// so developers iterating on the vendor side pick up their build. Missing
// build output is not an error.
func refreshDriverDLL() {
	src := filepath.Join(buildDir, driverDLLName)
	dst := filepath.Join(LibDir, driverDLLName)

	in, err := os.Open(src)
	if err != nil {
		return
	}
	defer in.Close()

	if err := os.MkdirAll(LibDir, 0o755); err != nil {
		log.Warn("could not create DLL lib dir", "dir", LibDir, "error", err)
		return
	}
	out, err := os.Create(dst)
	if err != nil {
		log.Warn("could not refresh vendor DLL, using installed copy", "error", err)
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		log.Warn("vendor DLL refresh failed", "error", err)
		return
	}
	log.Info("refreshed vendor DLL from SDK build", "src", src, "dst", dst)
}

// rawFrame mirrors the C ABI frame record passed to the registered callback.
type rawFrame struct {
	data      *byte
	dataLen   uint32
	width     uint32
	height    uint32
	timestamp int64
	sensorID  int32
}

func (d *dllDriver) Open(sensor SensorType, mode Mode) error {
	ret, _, _ := d.procOpen.Call(uintptr(sensor), uintptr(mode))
	if ret != 0 {
		return fmt.Errorf("NanEye_Open(%s, %s) failed with code %d", sensor, mode, ret)
	}
	return nil
}

func (d *dllDriver) Start(fn FrameFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capturing {
		return fmt.Errorf("capture already running")
	}
	d.fn = fn

	cb := windows.NewCallback(func(rf *rawFrame) uintptr {
		if rf == nil || rf.data == nil {
			return 0
		}
		// Copy out of the vendor buffer: it is recycled after the
		// callback returns, while Frames outlive it in the queue.
		payload := make([]byte, rf.dataLen)
		copy(payload, unsafe.Slice(rf.data, rf.dataLen))

		d.fn(Frame{
			Data:      payload,
			Width:     int(rf.width),
			Height:    int(rf.height),
			Timestamp: rf.timestamp,
			Channel:   Channel(rf.sensorID),
		})
		return 0
	})
	d.cbHandle = cb

	if ret, _, _ := d.procRegister.Call(cb); ret != 0 {
		return fmt.Errorf("NanEye_RegisterFrameCallback failed with code %d", ret)
	}
	if ret, _, _ := d.procStart.Call(); ret != 0 {
		return fmt.Errorf("NanEye_StartCapture failed with code %d", ret)
	}
	d.capturing = true
	return nil
}

func (d *dllDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.capturing {
		return nil
	}
	d.capturing = false
	if ret, _, _ := d.procStop.Call(); ret != 0 {
		return fmt.Errorf("NanEye_StopCapture failed with code %d", ret)
	}
	return nil
}

func (d *dllDriver) Close() error {
	if ret, _, _ := d.procClose.Call(); ret != 0 {
		return fmt.Errorf("NanEye_Close failed with code %d", ret)
	}
	return nil
}
