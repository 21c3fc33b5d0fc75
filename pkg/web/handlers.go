package web

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-posture/pkg/hub"
	"github.com/teslashibe/go-posture/pkg/notify"
	"github.com/teslashibe/go-posture/pkg/posture"
)

var validate = validator.New()

// SettingsRequest is the body of POST /api/settings
type SettingsRequest struct {
	// Seconds between checks; values below 1 mean half a second
	Seconds *int `json:"seconds" validate:"required,lte=86400"`
}

// SettingsResponse describes the current monitoring cadence
type SettingsResponse struct {
	Seconds        float64 `json:"seconds"`
	PollIntervalMs int64   `json:"poll_interval_ms"`
}

// AboutResponse is shown in the about dialog
type AboutResponse struct {
	Name                   string `json:"name"`
	Version                string `json:"version"`
	Description            string `json:"description"`
	Link                   string `json:"link"`
	SessionID              string `json:"session_id,omitempty"`
	NotificationsSupported bool   `json:"notifications_supported"`
	NotifyError            string `json:"notify_error,omitempty"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	if ctrl := s.ctrl(); ctrl != nil {
		return c.JSON(ctrl.Status())
	}
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return c.JSON(s.status)
}

func (s *Server) handleCalibrate(c *fiber.Ctx) error {
	return s.command(c, "calibrate", Controller.Calibrate)
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	return s.command(c, "stop", Controller.Stop)
}

func (s *Server) handleRecalibrate(c *fiber.Ctx) error {
	return s.command(c, "recalibrate", Controller.Recalibrate)
}

func (s *Server) handleDone(c *fiber.Ctx) error {
	return s.command(c, "done", Controller.Done)
}

func (s *Server) handleShow(c *fiber.Ctx) error {
	return s.command(c, "show", Controller.Show)
}

// command runs a monitor action and replies with the resulting status
func (s *Server) command(c *fiber.Ctx, name string, action func(Controller) error) error {
	ctrl := s.ctrl()
	if ctrl == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, ErrNoController)
	}

	if err := action(ctrl); err != nil {
		s.logger.Debug("command rejected", "command", name, "error", err)
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(ctrl.Status())
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	ctrl := s.ctrl()
	if ctrl == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, ErrNoController)
	}
	return c.JSON(settingsFor(ctrl.Status()))
}

func (s *Server) handleSetSettings(c *fiber.Ctx) error {
	ctrl := s.ctrl()
	if ctrl == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, ErrNoController)
	}

	var req SettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if err := validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	interval := posture.IntervalFromSeconds(*req.Seconds)
	if err := ctrl.SetPollInterval(interval); err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(settingsFor(ctrl.Status()))
}

func settingsFor(st posture.Status) SettingsResponse {
	d := time.Duration(st.PollIntervalMs) * time.Millisecond
	return SettingsResponse{
		Seconds:        d.Seconds(),
		PollIntervalMs: st.PollIntervalMs,
	}
}

func (s *Server) handleAbout(c *fiber.Ctx) error {
	about := AboutResponse{
		Name:                   "Posture Monitor",
		Version:                s.cfg.Version,
		Description:            "Warns you when you lean too close to the screen.",
		Link:                   s.cfg.Link,
		SessionID:              s.cfg.SessionID,
		NotificationsSupported: s.cfg.NotificationsSupported,
	}
	if !s.cfg.NotificationsSupported {
		about.NotifyError = s.cfg.NotifyError
		if about.NotifyError == "" {
			about.NotifyError = notify.UnsupportedMessage
		}
	}
	return c.JSON(about)
}

func (s *Server) handleAlerts(c *fiber.Ctx) error {
	return c.JSON(s.Alerts())
}

// serveHub attaches a websocket connection to h until it closes
func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		hub.NewClient(h, conn).Run()
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, posture.ErrInvalidTransition), errors.Is(err, posture.ErrNoSample):
		return fiber.StatusConflict
	case errors.Is(err, posture.ErrNotRunning):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
