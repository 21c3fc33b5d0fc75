package detection

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-posture/pkg/vision"
)

// YuNetDetector uses OpenCV's FaceDetectorYN for face detection
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   Config
	logger   *slog.Logger
	mu       sync.Mutex // Protects inference
}

// NewYuNet creates a YuNet face detector from cfg.ModelPath
func NewYuNet(cfg Config) (*YuNetDetector, error) {
	if err := checkModel(cfg.ModelPath); err != nil {
		return nil, err
	}

	// Input size is updated per frame
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"", // No config file needed for ONNX
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
		logger:   logger(cfg),
	}, nil
}

// Locate finds faces in the JPEG frame. Boxes are in pixels, highest score
// first, and faces under MinFaceSize are dropped to match the Haar backend.
func (d *YuNetDetector) Locate(frame vision.Frame) ([]vision.Face, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("detection: decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, ErrEmptyImage
	}

	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	out := gocv.NewMat()
	defer out.Close()
	d.detector.Detect(img, &out)

	// Row layout: x, y, w, h, 5 landmark pairs, score
	faces := make([]vision.Face, 0, out.Rows())
	for r := 0; r < out.Rows(); r++ {
		faces = append(faces, vision.Face{
			X:      int(out.GetFloatAt(r, 0)),
			Y:      int(out.GetFloatAt(r, 1)),
			Width:  int(out.GetFloatAt(r, 2)),
			Height: int(out.GetFloatAt(r, 3)),
		})
	}
	faces = dropSmall(faces, MinFaceSize)

	if len(faces) > 0 {
		d.logger.Debug("face found", "count", len(faces), "primary", faces[0])
	}
	return faces, nil
}

// Close releases the detector resources
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}

// Verify YuNetDetector implements vision.Locator at compile time.
var _ vision.Locator = (*YuNetDetector)(nil)
