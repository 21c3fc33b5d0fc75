// Package web serves the posture dashboard
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-posture/pkg/hub"
	"github.com/teslashibe/go-posture/pkg/posture"
)

//go:embed static
var staticFS embed.FS

// ErrNoController is returned by command endpoints before Attach is called.
var ErrNoController = errors.New("web: no monitor attached")

// Controller is the monitor surface the dashboard drives
type Controller interface {
	Calibrate() error
	Recalibrate() error
	Stop() error
	Done() error
	Show() error
	SetPollInterval(d time.Duration) error
	Status() posture.Status
}

// Config holds dashboard settings
type Config struct {
	Host      string
	Port      int
	Version   string
	Link      string // Shown in the about dialog
	SessionID string

	// NotificationsSupported is false when desktop notifications are off;
	// the page then shows notify.UnsupportedMessage.
	NotificationsSupported bool
	NotifyError            string

	MaxAlerts int // Alert history kept for /api/alerts
	Logger    *slog.Logger
}

// DefaultConfig listens on localhost:8765
func DefaultConfig() Config {
	return Config{
		Host:                   "127.0.0.1",
		Port:                   8765,
		Version:                "dev",
		Link:                   "https://github.com/teslashibe/go-posture",
		NotificationsSupported: true,
		MaxAlerts:              100,
	}
}

// Alert is a notification shown on the dashboard
type Alert struct {
	Time    time.Time `json:"time"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
}

// Server is the dashboard server
type Server struct {
	cfg    Config
	app    *fiber.App
	logger *slog.Logger

	ctrlMu     sync.RWMutex
	controller Controller

	// Last status pushed by the monitor
	status   posture.Status
	statusMu sync.RWMutex

	alerts   []Alert
	alertsMu sync.RWMutex

	statusHub *hub.Hub
	alertHub  *hub.Hub
	cameraHub *hub.Hub

	hubOnce    sync.Once
	cancelHubs context.CancelFunc
}

// NewServer creates the dashboard. Attach a Controller before serving.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "web")
	if cfg.MaxAlerts <= 0 {
		cfg.MaxAlerts = DefaultConfig().MaxAlerts
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		alerts:    make([]Alert, 0, cfg.MaxAlerts),
		statusHub: hub.New("status", hub.WithLogger(logger), hub.WithReplay()),
		alertHub:  hub.New("alerts", hub.WithLogger(logger)),
		cameraHub: hub.New("camera", hub.WithLogger(logger)),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Posture Monitor",
		DisableStartupMessage: true,
	})

	// Local dashboard only
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://127.0.0.1:" + strconv.Itoa(cfg.Port) + ",http://localhost:" + strconv.Itoa(cfg.Port),
	}))

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/calibrate", s.handleCalibrate)
	api.Post("/stop", s.handleStop)
	api.Post("/recalibrate", s.handleRecalibrate)
	api.Post("/done", s.handleDone)
	api.Post("/show", s.handleShow)
	api.Get("/settings", s.handleGetSettings)
	api.Post("/settings", s.handleSetSettings)
	api.Get("/about", s.handleAbout)
	api.Get("/alerts", s.handleAlerts)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.serveHub(s.statusHub)))
	app.Get("/ws/alerts", websocket.New(s.serveHub(s.alertHub)))
	app.Get("/ws/camera", websocket.New(s.serveHub(s.cameraHub)))

	app.Use("/", filesystem.New(filesystem.Config{
		Root:       http.FS(staticFS),
		PathPrefix: "static",
	}))

	s.app = app
	return s
}

// Attach sets the monitor driven by the command endpoints
func (s *Server) Attach(c Controller) {
	s.ctrlMu.Lock()
	s.controller = c
	s.ctrlMu.Unlock()
}

func (s *Server) ctrl() Controller {
	s.ctrlMu.RLock()
	defer s.ctrlMu.RUnlock()
	return s.controller
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start listens on Addr and serves until Shutdown
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("web: listen %s: %w", s.Addr(), err)
	}
	s.logger.Info("dashboard listening", "url", "http://"+s.Addr())
	return s.Serve(ctx, ln)
}

// Serve serves on an existing listener until Shutdown
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.startHubs(ctx)
	return s.app.Listener(ln)
}

// StartAsync starts the server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("web server error", "error", err)
		}
	}()
}

// Shutdown stops the hubs and the HTTP server
func (s *Server) Shutdown() error {
	if s.cancelHubs != nil {
		s.cancelHubs()
	}
	return s.app.Shutdown()
}

func (s *Server) startHubs(ctx context.Context) {
	s.hubOnce.Do(func() {
		hubCtx, cancel := context.WithCancel(ctx)
		s.cancelHubs = cancel
		go s.statusHub.Run(hubCtx)
		go s.alertHub.Run(hubCtx)
		go s.cameraHub.Run(hubCtx)
	})
}

// UpdateStatus stores and broadcasts a monitor status
func (s *Server) UpdateStatus(st posture.Status) {
	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()

	if err := s.statusHub.BroadcastJSON(st); err != nil {
		s.logger.Warn("status encode failed", "error", err)
	}
}

// SendCameraFrame sends a preview frame to connected clients
func (s *Server) SendCameraFrame(jpeg []byte) {
	if s.cameraHub.ClientCount() == 0 {
		return
	}
	s.cameraHub.BroadcastBinary(jpeg)
}

// Notify adds an alert to the dashboard feed
func (s *Server) Notify(title, message string) {
	alert := Alert{Time: time.Now(), Title: title, Message: message}

	s.alertsMu.Lock()
	s.alerts = append(s.alerts, alert)
	if len(s.alerts) > s.cfg.MaxAlerts {
		s.alerts = s.alerts[1:]
	}
	s.alertsMu.Unlock()

	if err := s.alertHub.BroadcastJSON(alert); err != nil {
		s.logger.Warn("alert encode failed", "error", err)
	}
}

// Alerts returns the recent alert history, oldest first
func (s *Server) Alerts() []Alert {
	s.alertsMu.RLock()
	defer s.alertsMu.RUnlock()
	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Verify Server implements the monitor sinks at compile time.
var (
	_ posture.StatusSink = (*Server)(nil)
	_ posture.FrameSink  = (*Server)(nil)
	_ posture.Notifier   = (*Server)(nil)
)
