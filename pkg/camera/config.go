// Package camera owns the webcam and hands out JPEG frames.
//
// A single goroutine holds the gocv capture handle. It opens the device
// lazily on the first request, or again when the device is found closed.
package camera

import "time"

// Config holds camera settings
type Config struct {
	Device  int `json:"device" toml:"device"`   // Video device index
	Width   int `json:"width" toml:"width"`     // Requested frame width in pixels
	Height  int `json:"height" toml:"height"`   // Requested frame height in pixels
	Quality int `json:"quality" toml:"quality"` // JPEG quality 1-100

	// WarmupFrames are read and discarded after opening, while the
	// sensor settles its exposure
	WarmupFrames int `json:"warmup_frames" toml:"warmup_frames"`

	// WarmupDelay is slept once after opening
	WarmupDelay time.Duration `json:"warmup_delay" toml:"-"`
}

// Frame size limits accepted by Validate
const (
	MinWidth   = 160
	MinHeight  = 120
	MaxWidth   = 3840
	MaxHeight  = 2160
	MaxDevices = 64
)

// DefaultConfig returns 640x480 capture on the first device.
// Face widths are measured in pixels, so changing the resolution after
// calibrating invalidates the baseline.
func DefaultConfig() Config {
	return Config{
		Device:       0,
		Width:        640,
		Height:       480,
		Quality:      85,
		WarmupFrames: 2,
		WarmupDelay:  5 * time.Millisecond,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 || c.Device >= MaxDevices {
		errors = append(errors, "device must be between 0 and 63")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.WarmupFrames < 0 || c.WarmupFrames > 30 {
		errors = append(errors, "warmup_frames must be between 0 and 30")
	}
	if c.WarmupDelay < 0 {
		errors = append(errors, "warmup_delay must not be negative")
	}

	return errors
}
