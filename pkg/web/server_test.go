package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-posture/pkg/notify"
	"github.com/teslashibe/go-posture/pkg/posture"
)

// fakeController drives a real Machine without timers or a camera
type fakeController struct {
	mu       sync.Mutex
	machine  *posture.Machine
	interval time.Duration
	hidden   bool
}

func newFakeController() *fakeController {
	return &fakeController{
		machine:  posture.NewMachine(posture.DefaultSensitivity),
		interval: posture.DefaultPollInterval,
	}
}

func (f *fakeController) Calibrate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.machine.Calibrate()
}

func (f *fakeController) Recalibrate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.machine.Recalibrate()
}

func (f *fakeController) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.machine.Stop()
	return err
}

func (f *fakeController) Done() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hidden = true
	return nil
}

func (f *fakeController) Show() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hidden = false
	return nil
}

func (f *fakeController) SetPollInterval(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d < posture.MinPollInterval {
		d = posture.MinPollInterval
	}
	f.interval = d
	return nil
}

func (f *fakeController) observe(width int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.machine.Observe(width)
}

func (f *fakeController) Status() posture.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	mode := f.machine.Mode()
	st := posture.Status{
		Mode:           mode,
		Controls:       mode.Controls(),
		Instructions:   mode.Instructions(),
		PollIntervalMs: f.interval.Milliseconds(),
		WindowVisible:  !f.hidden,
	}
	if b, ok := f.machine.Baseline(); ok {
		st.Baseline = b
		st.HasBaseline = true
		st.Threshold, _ = f.machine.Threshold()
	}
	return st
}

func newTestServer(t *testing.T) (*Server, *fakeController) {
	t.Helper()
	s := NewServer(DefaultConfig())
	ctrl := newFakeController()
	s.Attach(ctrl)
	return s, ctrl
}

func do(t *testing.T, s *Server, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func decodeStatus(t *testing.T, data []byte) posture.Status {
	t.Helper()
	var st posture.Status
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("decode status %s: %v", data, err)
	}
	return st
}

func TestCommands(t *testing.T) {
	s, ctrl := newTestServer(t)

	steps := []struct {
		name     string
		path     string
		observe  int
		wantCode int
		wantMode posture.Mode
	}{
		{name: "stop while idle", path: "/api/stop", wantCode: 409, wantMode: posture.ModeIdle},
		{name: "recalibrate while idle", path: "/api/recalibrate", wantCode: 409, wantMode: posture.ModeIdle},
		{name: "calibrate", path: "/api/calibrate", wantCode: 200, wantMode: posture.ModeCalibrating},
		{name: "calibrate twice", path: "/api/calibrate", wantCode: 409, wantMode: posture.ModeCalibrating},
		{name: "stop without sample", path: "/api/stop", wantCode: 409, wantMode: posture.ModeCalibrating},
		{name: "stop after sample", path: "/api/stop", observe: 100, wantCode: 200, wantMode: posture.ModeMonitoring},
		{name: "recalibrate", path: "/api/recalibrate", wantCode: 200, wantMode: posture.ModeCalibrating},
	}

	for _, tc := range steps {
		t.Run(tc.name, func(t *testing.T) {
			if tc.observe > 0 {
				ctrl.observe(tc.observe)
			}
			code, body := do(t, s, http.MethodPost, tc.path, "")
			if code != tc.wantCode {
				t.Fatalf("status code: got %d, want %d (%s)", code, tc.wantCode, body)
			}
			if code != 200 {
				var e map[string]string
				if err := json.Unmarshal(body, &e); err != nil || e["error"] == "" {
					t.Errorf("expected error body, got %s", body)
				}
			}
			if got := ctrl.Status().Mode; got != tc.wantMode {
				t.Errorf("mode: got %s, want %s", got, tc.wantMode)
			}
		})
	}
}

func TestCommandReturnsStatus(t *testing.T) {
	s, _ := newTestServer(t)

	code, body := do(t, s, http.MethodPost, "/api/calibrate", "")
	if code != 200 {
		t.Fatalf("calibrate: got %d", code)
	}
	st := decodeStatus(t, body)
	if st.Mode != posture.ModeCalibrating {
		t.Errorf("mode: got %s, want calibrating", st.Mode)
	}
	if !st.Controls.Stop || st.Controls.Calibrate {
		t.Errorf("controls not updated: %+v", st.Controls)
	}
}

func TestDoneAndShow(t *testing.T) {
	s, ctrl := newTestServer(t)

	if code, _ := do(t, s, http.MethodPost, "/api/done", ""); code != 200 {
		t.Fatalf("done: got %d", code)
	}
	if ctrl.Status().WindowVisible {
		t.Error("window should be hidden after done")
	}
	if code, _ := do(t, s, http.MethodPost, "/api/show", ""); code != 200 {
		t.Fatalf("show: got %d", code)
	}
	if !ctrl.Status().WindowVisible {
		t.Error("window should be visible after show")
	}
}

func TestSettings(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMs   int64
	}{
		{name: "five seconds", body: `{"seconds":5}`, wantCode: 200, wantMs: 5000},
		{name: "zero is half a second", body: `{"seconds":0}`, wantCode: 200, wantMs: 500},
		{name: "negative is half a second", body: `{"seconds":-3}`, wantCode: 200, wantMs: 500},
		{name: "missing seconds", body: `{}`, wantCode: 400},
		{name: "not json", body: `seconds=5`, wantCode: 400},
		{name: "too large", body: `{"seconds":100000}`, wantCode: 400},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, ctrl := newTestServer(t)
			code, body := do(t, s, http.MethodPost, "/api/settings", tc.body)
			if code != tc.wantCode {
				t.Fatalf("status code: got %d, want %d (%s)", code, tc.wantCode, body)
			}
			if tc.wantCode != 200 {
				if got := ctrl.Status().PollIntervalMs; got != posture.DefaultPollInterval.Milliseconds() {
					t.Errorf("interval changed on bad request: %d", got)
				}
				return
			}

			var resp SettingsResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.PollIntervalMs != tc.wantMs {
				t.Errorf("poll_interval_ms: got %d, want %d", resp.PollIntervalMs, tc.wantMs)
			}

			_, body = do(t, s, http.MethodGet, "/api/settings", "")
			if err := json.Unmarshal(body, &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.PollIntervalMs != tc.wantMs {
				t.Errorf("GET after POST: got %d, want %d", resp.PollIntervalMs, tc.wantMs)
			}
		})
	}
}

func TestAbout(t *testing.T) {
	tests := []struct {
		name      string
		supported bool
		wantError string
	}{
		{name: "notifications available", supported: true},
		{name: "notifications unavailable", supported: false, wantError: notify.UnsupportedMessage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.NotificationsSupported = tc.supported
			cfg.SessionID = "session-1"
			s := NewServer(cfg)

			code, body := do(t, s, http.MethodGet, "/api/about", "")
			if code != 200 {
				t.Fatalf("about: got %d", code)
			}
			var about AboutResponse
			if err := json.Unmarshal(body, &about); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if about.NotifyError != tc.wantError {
				t.Errorf("notify_error: got %q, want %q", about.NotifyError, tc.wantError)
			}
			if about.Link == "" || about.SessionID != "session-1" {
				t.Errorf("unexpected about: %+v", about)
			}
		})
	}
}

func TestNoController(t *testing.T) {
	s := NewServer(DefaultConfig())

	if code, _ := do(t, s, http.MethodPost, "/api/calibrate", ""); code != 503 {
		t.Errorf("calibrate without controller: got %d, want 503", code)
	}

	s.UpdateStatus(posture.Status{Mode: posture.ModeMonitoring, Baseline: 90})
	code, body := do(t, s, http.MethodGet, "/api/status", "")
	if code != 200 {
		t.Fatalf("status: got %d", code)
	}
	if st := decodeStatus(t, body); st.Mode != posture.ModeMonitoring || st.Baseline != 90 {
		t.Errorf("status should fall back to the last update, got %+v", st)
	}
}

func TestAlertsHistory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAlerts = 2
	s := NewServer(cfg)

	s.Notify(posture.AlertTitle, "one")
	s.Notify(posture.AlertTitle, "two")
	s.Notify(posture.AlertTitle, "three")

	_, body := do(t, s, http.MethodGet, "/api/alerts", "")
	var alerts []Alert
	if err := json.Unmarshal(body, &alerts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alerts: got %d, want 2", len(alerts))
	}
	if alerts[0].Message != "two" || alerts[1].Message != "three" {
		t.Errorf("alerts out of order: %+v", alerts)
	}
}

func TestIndexPage(t *testing.T) {
	s := NewServer(DefaultConfig())
	code, body := do(t, s, http.MethodGet, "/", "")
	if code != 200 {
		t.Fatalf("index: got %d", code)
	}
	if !strings.Contains(string(body), "Posture Monitor") {
		t.Error("index page missing title")
	}
}

func TestWebSocketUpgradeRequired(t *testing.T) {
	s := NewServer(DefaultConfig())
	if code, _ := do(t, s, http.MethodGet, "/ws/status", ""); code != http.StatusUpgradeRequired {
		t.Errorf("plain GET on websocket route: got %d, want 426", code)
	}
}

func serve(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go s.Serve(ctx, ln)
	t.Cleanup(func() {
		cancel()
		s.Shutdown()
	})
	return ln.Addr().String()
}

func dial(t *testing.T, addr, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+path, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStatusPush(t *testing.T) {
	s := NewServer(DefaultConfig())
	addr := serve(t, s)

	conn := dial(t, addr, "/ws/status")
	waitFor(t, "status client", func() bool { return s.statusHub.ClientCount() == 1 })

	s.UpdateStatus(posture.Status{Mode: posture.ModeCalibrating, Progress: 25})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Errorf("message type: got %d, want text", kind)
	}
	st := decodeStatus(t, data)
	if st.Mode != posture.ModeCalibrating || st.Progress != 25 {
		t.Errorf("pushed status: got %+v", st)
	}
}

func TestAlertAndFramePush(t *testing.T) {
	s := NewServer(DefaultConfig())
	addr := serve(t, s)

	alerts := dial(t, addr, "/ws/alerts")
	camera := dial(t, addr, "/ws/camera")
	waitFor(t, "clients", func() bool {
		return s.alertHub.ClientCount() == 1 && s.cameraHub.ClientCount() == 1
	})

	s.Notify(posture.AlertTitle, posture.AlertMessage)
	s.SendCameraFrame([]byte{0xff, 0xd8, 0xff})

	alerts.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := alerts.ReadMessage()
	if err != nil {
		t.Fatalf("read alert: %v", err)
	}
	var a Alert
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatalf("decode alert: %v", err)
	}
	if a.Title != posture.AlertTitle || a.Message != posture.AlertMessage {
		t.Errorf("alert: got %+v", a)
	}

	camera.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, frame, err := camera.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if kind != websocket.BinaryMessage || len(frame) != 3 {
		t.Errorf("frame: type %d, %d bytes", kind, len(frame))
	}
}
