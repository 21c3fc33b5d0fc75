// Package vision holds the frame and face types shared by the camera,
// detection and posture packages. It has no cgo dependencies.
package vision

import (
	"context"
	"errors"
	"image"
)

// Frame is a single captured image, JPEG encoded.
type Frame []byte

// Face is a detected face bounding box in pixels.
type Face struct {
	X, Y          int
	Width, Height int
}

// FromRect converts an image rectangle to a Face.
func FromRect(r image.Rectangle) Face {
	return Face{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the face box as an image rectangle.
func (f Face) Rect() image.Rectangle {
	return image.Rect(f.X, f.Y, f.X+f.Width, f.Y+f.Height)
}

// Primary returns the first face reported by the detector.
// The detector's own ordering decides which face is primary.
func Primary(faces []Face) (Face, bool) {
	if len(faces) == 0 {
		return Face{}, false
	}
	return faces[0], true
}

// Source provides camera frames
type Source interface {
	Frame(ctx context.Context) (Frame, error)
}

// Locator finds faces in a frame
type Locator interface {
	// Locate returns face boxes in detector order, possibly empty
	Locate(frame Frame) ([]Face, error)

	// Close releases resources
	Close() error
}

// ErrDeviceUnavailable is returned by a Source whose camera cannot be opened.
// It is fatal for the caller; retrying will not help.
var ErrDeviceUnavailable = errors.New("vision: camera device unavailable")
