//go:build !windows

package naneye

// newPlatformDriver returns an error on non-Windows platforms.
// The NanEye eval hardware only ships a Windows driver; use NewSimulator
// with NewCameraWithDriver for development and tests.
func newPlatformDriver() (Driver, error) {
	return nil, ErrUnsupportedPlatform
}
