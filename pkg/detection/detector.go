// Package detection finds faces in camera frames with OpenCV
package detection

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/teslashibe/go-posture/pkg/vision"
)

// Backend selects the face detection model
type Backend string

const (
	// BackendHaar uses a Haar cascade classifier
	BackendHaar Backend = "haar"
	// BackendYuNet uses OpenCV's FaceDetectorYN with an ONNX model
	BackendYuNet Backend = "yunet"
)

// Haar cascade parameters. These are fixed, not runtime-tunable.
const (
	ScaleFactor  = 1.1
	MinNeighbors = 2
	MinFaceSize  = 100 // Pixels, both width and height
)

// Sentinel errors for common error conditions.
var (
	// ErrModelNotFound is returned when the cascade or ONNX file is missing.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrModelLoad is returned when OpenCV rejects the model file.
	ErrModelLoad = errors.New("detection: failed to load model")

	// ErrUnknownBackend is returned for an unsupported Backend.
	ErrUnknownBackend = errors.New("detection: unknown backend")

	// ErrEmptyImage is returned when a frame decodes to nothing.
	ErrEmptyImage = errors.New("detection: empty image")
)

// Config holds detector configuration
type Config struct {
	Backend     Backend
	CascadePath string // Haar cascade XML

	ModelPath        string  // YuNet ONNX model
	ConfidenceThresh float64 // YuNet minimum score (0-1)
	InputWidth       int     // YuNet initial input width
	InputHeight      int     // YuNet initial input height

	Logger *slog.Logger
}

// DefaultConfig returns the Haar cascade setup
func DefaultConfig() Config {
	return Config{
		Backend:          BackendHaar,
		CascadePath:      "models/haarcascade_frontalface_default.xml",
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// New creates the locator for cfg.Backend
func New(cfg Config) (vision.Locator, error) {
	switch cfg.Backend {
	case BackendHaar, "":
		d, err := NewHaar(cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case BackendYuNet:
		d, err := NewYuNet(cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func checkModel(path string) error {
	if path == "" {
		return fmt.Errorf("%w: no path configured", ErrModelNotFound)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	return nil
}

func logger(cfg Config) *slog.Logger {
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", "detection", "backend", string(cfg.Backend))
}

// dropSmall removes faces below the minimum size, keeping detector order
func dropSmall(faces []vision.Face, min int) []vision.Face {
	kept := faces[:0]
	for _, f := range faces {
		if f.Width >= min && f.Height >= min {
			kept = append(kept, f)
		}
	}
	return kept
}
