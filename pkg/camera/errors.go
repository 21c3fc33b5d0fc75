package camera

import (
	"errors"

	"github.com/teslashibe/go-posture/pkg/vision"
)

// Sentinel errors for common error conditions.
var (
	// ErrUnavailable is returned when the device cannot be opened. It is fatal.
	ErrUnavailable = vision.ErrDeviceUnavailable

	// ErrEmptyFrame is returned when the device is open but yields no image.
	ErrEmptyFrame = errors.New("camera: empty frame")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("camera: device closed")
)
