// Package posture decides when the user is leaning too close to the screen.
//
// A Machine holds the three modes (idle, calibrating, monitoring) and the
// baseline face width. A Monitor drives the Machine from a single goroutine:
// it runs the mode's sampler, searches for a face without blocking callers,
// and calls the Notifier when a monitoring sample exceeds the threshold.
package posture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/teslashibe/go-posture/pkg/vision"
)

type commandKind int

const (
	cmdCalibrate commandKind = iota
	cmdRecalibrate
	cmdStop
	cmdDone
	cmdShow
	cmdSetPollInterval
)

type command struct {
	kind     commandKind
	interval time.Duration
	reply    chan error
}

// Option configures a Monitor
type Option func(*Monitor)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithStatusSink sets the receiver for status updates
func WithStatusSink(sink StatusSink) Option {
	return func(m *Monitor) {
		m.sink = sink
	}
}

// WithFrameSink sets the receiver for preview frames
func WithFrameSink(sink FrameSink) Option {
	return func(m *Monitor) {
		m.frames = sink
	}
}

// Monitor runs the posture state machine against a camera and a face locator
type Monitor struct {
	cfg      Config
	source   vision.Source
	locator  vision.Locator
	notifier Notifier
	sink     StatusSink
	frames   FrameSink
	logger   *slog.Logger

	cmds    chan command
	events  chan searchEvent
	started atomic.Bool
	done    chan struct{}

	// Owned by the Run goroutine
	machine       *Machine
	limiter       *rate.Limiter
	ticker        *time.Ticker
	pollInterval  time.Duration
	generation    uint64
	cancelSearch  context.CancelFunc
	searchActive  bool
	searching     bool
	attempts      int
	captureErrors int
	lastWidth     int
	progress      int
	windowVisible bool
	alerts        int
	lastAlert     time.Time

	mu     sync.RWMutex
	status Status
}

// New creates a Monitor in ModeIdle
func New(cfg Config, source vision.Source, locator vision.Locator, notifier Notifier, opts ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil || locator == nil || notifier == nil {
		return nil, fmt.Errorf("%w: source, locator and notifier are required", ErrInvalidConfig)
	}

	m := &Monitor{
		cfg:           cfg,
		source:        source,
		locator:       locator,
		notifier:      notifier,
		logger:        slog.Default(),
		cmds:          make(chan command),
		events:        make(chan searchEvent, 8),
		done:          make(chan struct{}),
		machine:       NewMachine(cfg.Sensitivity),
		pollInterval:  cfg.PollInterval,
		windowVisible: true,
	}
	for _, opt := range opts {
		opt(m)
	}

	if cfg.NotifyCooldown > 0 {
		m.limiter = rate.NewLimiter(rate.Every(cfg.NotifyCooldown), 1)
	}

	m.storeStatus()
	return m, nil
}

// Status returns the latest published status
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Calibrate starts calibrating from idle or monitoring
func (m *Monitor) Calibrate() error {
	return m.send(command{kind: cmdCalibrate})
}

// Recalibrate starts a new calibration from monitoring
func (m *Monitor) Recalibrate() error {
	return m.send(command{kind: cmdRecalibrate})
}

// Stop ends calibration and starts monitoring
func (m *Monitor) Stop() error {
	return m.send(command{kind: cmdStop})
}

// Done hides the window; monitoring continues in the background
func (m *Monitor) Done() error {
	return m.send(command{kind: cmdDone})
}

// Show makes the window visible again
func (m *Monitor) Show() error {
	return m.send(command{kind: cmdShow})
}

// SetPollInterval changes the monitoring cadence. An active monitoring
// sampler is restarted with the new interval.
func (m *Monitor) SetPollInterval(d time.Duration) error {
	if d < MinPollInterval {
		d = MinPollInterval
	}
	return m.send(command{kind: cmdSetPollInterval, interval: d})
}

func (m *Monitor) send(cmd command) error {
	if !m.started.Load() {
		return ErrNotRunning
	}
	cmd.reply = make(chan error, 1)

	select {
	case m.cmds <- cmd:
	case <-m.done:
		return ErrNotRunning
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-m.done:
		return ErrNotRunning
	}
}

// Run drives the state machine until ctx is cancelled. It returns a non-nil
// error only when the camera is unusable.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(m.done)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer m.stopTicker()
	defer m.cancelActiveSearch()

	m.logger.Info("posture monitor started",
		"poll_interval", m.pollInterval,
		"calibration_interval", m.cfg.CalibrationInterval,
		"sensitivity", m.cfg.Sensitivity)
	m.publish()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("posture monitor stopped")
			return nil

		case cmd := <-m.cmds:
			err := m.apply(runCtx, cmd)
			// Publish first so the caller's next Status() sees the change
			m.publish()
			cmd.reply <- err

		case <-m.tick():
			if m.searchActive {
				m.logger.Debug("tick skipped, face search still running", "mode", m.machine.Mode())
				continue
			}
			m.startSearch(runCtx)

		case ev := <-m.events:
			if err := m.handle(ev); err != nil {
				m.logger.Error("posture monitor failed", "error", err)
				return err
			}
		}
	}
}

func (m *Monitor) apply(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case cmdCalibrate, cmdRecalibrate:
		var err error
		if cmd.kind == cmdRecalibrate {
			err = m.machine.Recalibrate()
		} else {
			err = m.machine.Calibrate()
		}
		if err != nil {
			return err
		}
		m.cancelActiveSearch()
		m.progress = 0
		m.windowVisible = true
		m.resetTicker(m.cfg.CalibrationInterval)
		m.logger.Info("calibration started")
		// The first sample is taken right away, the sampler continues from there
		m.startSearch(ctx)
		return nil

	case cmdStop:
		baseline, err := m.machine.Stop()
		if err != nil {
			return err
		}
		m.cancelActiveSearch()
		m.resetTicker(m.pollInterval)
		threshold, _ := m.machine.Threshold()
		m.logger.Info("calibration finished, monitoring",
			"baseline", baseline,
			"threshold", threshold,
			"poll_interval", m.pollInterval)
		return nil

	case cmdDone:
		m.windowVisible = false
		return nil

	case cmdShow:
		m.windowVisible = true
		return nil

	case cmdSetPollInterval:
		m.pollInterval = cmd.interval
		if m.machine.Mode() == ModeMonitoring {
			m.resetTicker(m.pollInterval)
		}
		m.logger.Info("poll interval changed", "poll_interval", m.pollInterval)
		return nil

	default:
		return fmt.Errorf("posture: unknown command %d", cmd.kind)
	}
}

func (m *Monitor) handle(ev searchEvent) error {
	if ev.generation != m.generation {
		// Result of a search cancelled by a mode change
		return nil
	}

	if ev.err != nil {
		if errors.Is(ev.err, vision.ErrDeviceUnavailable) {
			m.searchActive = false
			return ev.err
		}
		m.captureErrors++
		m.logger.Warn("capture failed", "error", ev.err, "consecutive", m.captureErrors)
		if m.captureErrors >= m.cfg.MaxCaptureErrors {
			m.searchActive = false
			return fmt.Errorf("%w after %d attempts: %v", ErrCaptureFailed, m.captureErrors, ev.err)
		}
		return nil
	}
	m.captureErrors = 0

	if !ev.found {
		m.logger.Debug("no faces detected", "attempt", ev.attempt)
		m.searching = true
		m.attempts = ev.attempt
		m.publish()
		return nil
	}

	m.searchActive = false
	m.searching = false
	m.attempts = ev.attempt
	m.lastWidth = ev.face.Width

	obs := m.machine.Observe(ev.face.Width)
	m.logger.Debug("face found", "mode", obs.Mode, "width", obs.Width, "attempt", ev.attempt)

	switch obs.Mode {
	case ModeCalibrating:
		m.progress = obs.Progress
	case ModeMonitoring:
		if obs.Alert {
			m.alert(obs)
		}
	case ModeIdle:
	}

	m.publish()
	return nil
}

func (m *Monitor) alert(obs Observation) {
	if m.limiter != nil && !m.limiter.Allow() {
		m.logger.Debug("alert suppressed by cooldown", "width", obs.Width, "threshold", obs.Threshold)
		return
	}
	m.alerts++
	m.lastAlert = time.Now()
	m.logger.Info("posture alert", "width", obs.Width, "threshold", obs.Threshold)
	m.notifier.Notify(AlertTitle, AlertMessage)
}

// tick returns the active sampler channel, or nil when idle
func (m *Monitor) tick() <-chan time.Time {
	if m.ticker == nil {
		return nil
	}
	return m.ticker.C
}

func (m *Monitor) resetTicker(interval time.Duration) {
	m.stopTicker()
	m.ticker = time.NewTicker(interval)
}

func (m *Monitor) stopTicker() {
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
}

func (m *Monitor) publish() {
	st := m.storeStatus()
	if m.sink != nil {
		m.sink.UpdateStatus(st)
	}
}

func (m *Monitor) storeStatus() Status {
	mode := m.machine.Mode()
	st := Status{
		Mode:           mode,
		Controls:       mode.Controls(),
		Instructions:   mode.Instructions(),
		LastWidth:      m.lastWidth,
		Progress:       m.progress,
		Searching:      m.searching,
		Attempts:       m.attempts,
		PollIntervalMs: m.pollInterval.Milliseconds(),
		WindowVisible:  m.windowVisible,
		Alerts:         m.alerts,
		UpdatedAt:      time.Now(),
	}
	if baseline, ok := m.machine.Baseline(); ok {
		st.Baseline = baseline
		st.HasBaseline = true
		st.Threshold, _ = m.machine.Threshold()
	}
	if !m.lastAlert.IsZero() {
		last := m.lastAlert
		st.LastAlert = &last
	}

	m.mu.Lock()
	m.status = st
	m.mu.Unlock()
	return st
}
