package detection

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-posture/pkg/vision"
)

// HaarDetector uses an OpenCV Haar cascade for face detection
type HaarDetector struct {
	classifier gocv.CascadeClassifier
	logger     *slog.Logger
	mu         sync.Mutex // Protects the classifier
}

// NewHaar loads the cascade from cfg.CascadePath
func NewHaar(cfg Config) (*HaarDetector, error) {
	if err := checkModel(cfg.CascadePath); err != nil {
		return nil, err
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.CascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, cfg.CascadePath)
	}

	return &HaarDetector{
		classifier: classifier,
		logger:     logger(cfg),
	}, nil
}

// Locate finds faces in the JPEG frame
func (d *HaarDetector) Locate(frame vision.Frame) ([]vision.Face, error) {
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

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	rects := d.classifier.DetectMultiScaleWithParams(
		gray,
		ScaleFactor,
		MinNeighbors,
		0,
		image.Pt(MinFaceSize, MinFaceSize),
		image.Pt(0, 0), // No maximum
	)

	faces := make([]vision.Face, 0, len(rects))
	for _, r := range rects {
		faces = append(faces, vision.FromRect(r))
	}

	if len(faces) > 0 {
		d.logger.Debug("face found", "count", len(faces), "primary", faces[0])
	}
	return faces, nil
}

// Close releases the classifier
func (d *HaarDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}

// Verify HaarDetector implements vision.Locator at compile time.
var _ vision.Locator = (*HaarDetector)(nil)
