package camera

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-posture/pkg/vision"
)

type frameRequest struct {
	reply chan frameReply
}

type frameReply struct {
	frame vision.Frame
	err   error
}

// Device is the single owner of the webcam handle. Callers request frames
// over a channel; only the owner goroutine touches gocv.
type Device struct {
	cfg    Config
	logger *slog.Logger

	requests chan frameRequest
	quit     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

// NewDevice starts the owner goroutine. The camera itself is not opened
// until the first Frame call.
func NewDevice(cfg Config, logger *slog.Logger) (*Device, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %s", strings.Join(errs, "; "))
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Device{
		cfg:      cfg,
		logger:   logger.With("component", "camera", "device", cfg.Device),
		requests: make(chan frameRequest),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go d.loop()
	return d, nil
}

// Frame returns the current camera frame as JPEG
func (d *Device) Frame(ctx context.Context) (vision.Frame, error) {
	req := frameRequest{reply: make(chan frameReply, 1)}

	select {
	case d.requests <- req:
	case <-d.stopped:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case rep := <-req.reply:
		return rep.frame, rep.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the owner goroutine and releases the camera
func (d *Device) Close() error {
	d.once.Do(func() {
		close(d.quit)
	})
	<-d.stopped
	return nil
}

// owner holds the gocv state; it is only used from the loop goroutine
type owner struct {
	cfg     Config
	logger  *slog.Logger
	capture *gocv.VideoCapture
	img     gocv.Mat
}

func (d *Device) loop() {
	// OpenCV capture backends expect a stable thread
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(d.stopped)

	o := &owner{
		cfg:    d.cfg,
		logger: d.logger,
		img:    gocv.NewMat(),
	}
	defer o.release()

	for {
		select {
		case <-d.quit:
			return
		case req := <-d.requests:
			frame, err := o.read()
			req.reply <- frameReply{frame: frame, err: err}
		}
	}
}

func (o *owner) open() error {
	if o.capture != nil && o.capture.IsOpened() {
		return nil
	}
	o.closeCapture()

	capture, err := gocv.OpenVideoCapture(o.cfg.Device)
	if err != nil {
		if capture != nil {
			capture.Close()
		}
		return fmt.Errorf("%w: open device %d: %v", ErrUnavailable, o.cfg.Device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("%w: device %d did not open", ErrUnavailable, o.cfg.Device)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(o.cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(o.cfg.Height))

	if o.cfg.WarmupDelay > 0 {
		time.Sleep(o.cfg.WarmupDelay)
	}
	for i := 0; i < o.cfg.WarmupFrames; i++ {
		capture.Read(&o.img)
	}

	o.capture = capture
	o.logger.Info("camera opened", "width", o.cfg.Width, "height", o.cfg.Height)
	return nil
}

func (o *owner) read() (vision.Frame, error) {
	if err := o.open(); err != nil {
		o.logger.Error("camera unavailable", "error", err)
		return nil, err
	}

	if ok := o.capture.Read(&o.img); !ok || o.img.Empty() {
		// Reopen on the next request
		o.closeCapture()
		return nil, ErrEmptyFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, o.img, []int{gocv.IMWriteJpegQuality, o.cfg.Quality})
	if err != nil {
		return nil, fmt.Errorf("camera: encode frame: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close, keep a Go copy
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return vision.Frame(data), nil
}

func (o *owner) closeCapture() {
	if o.capture != nil {
		o.capture.Close()
		o.capture = nil
	}
}

func (o *owner) release() {
	o.closeCapture()
	o.img.Close()
}

// Verify Device implements vision.Source at compile time.
var _ vision.Source = (*Device)(nil)
