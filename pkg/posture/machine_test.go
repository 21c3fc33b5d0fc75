package posture

import (
	"errors"
	"testing"
)

func calibrated(t *testing.T, widths ...int) *Machine {
	t.Helper()
	m := NewMachine(DefaultSensitivity)
	if err := m.Calibrate(); err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	for _, w := range widths {
		m.Observe(w)
	}
	if _, err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	return m
}

func TestMachine_StartsIdle(t *testing.T) {
	m := NewMachine(DefaultSensitivity)
	if m.Mode() != ModeIdle {
		t.Errorf("Expected ModeIdle, got %v", m.Mode())
	}
	if _, ok := m.Baseline(); ok {
		t.Error("Baseline should be undefined before calibration")
	}
	if _, ok := m.Threshold(); ok {
		t.Error("Threshold should be undefined before calibration")
	}
}

func TestMachine_BaselineIsLastSampleBeforeStop(t *testing.T) {
	tests := []struct {
		name    string
		samples []int
		want    int
	}{
		{"single sample", []int{140}, 140},
		{"growing", []int{100, 110, 120}, 120},
		{"shrinking", []int{180, 150, 130}, 130},
		{"noisy", []int{130, 90, 170, 125}, 125},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := calibrated(t, tc.samples...)
			got, ok := m.Baseline()
			if !ok {
				t.Fatal("Expected baseline to be set")
			}
			if got != tc.want {
				t.Errorf("Baseline: got %d, want %d", got, tc.want)
			}
			if m.Mode() != ModeMonitoring {
				t.Errorf("Expected ModeMonitoring after Stop, got %v", m.Mode())
			}
		})
	}
}

func TestMachine_AlertIffAboveThreshold(t *testing.T) {
	m := calibrated(t, 100)

	threshold, ok := m.Threshold()
	if !ok || threshold != 120 {
		t.Fatalf("Threshold: got %v (ok=%v), want 120", threshold, ok)
	}

	tests := []struct {
		width int
		alert bool
	}{
		{80, false},
		{100, false},
		{115, false},
		{120, false}, // Equal is not above
		{121, true},
		{125, true},
		{300, true},
	}

	for _, tc := range tests {
		obs := m.Observe(tc.width)
		if obs.Alert != tc.alert {
			t.Errorf("width=%d: alert=%v, want %v", tc.width, obs.Alert, tc.alert)
		}
		if obs.Threshold != 120 {
			t.Errorf("width=%d: threshold=%v, want 120", tc.width, obs.Threshold)
		}
	}
}

func TestMachine_CalibrationNeverAlerts(t *testing.T) {
	m := NewMachine(DefaultSensitivity)
	m.Calibrate()

	for _, w := range []int{100, 500, 1000} {
		obs := m.Observe(w)
		if obs.Alert {
			t.Errorf("Calibration sample %d should not alert", w)
		}
		if obs.Mode != ModeCalibrating {
			t.Errorf("Expected ModeCalibrating, got %v", obs.Mode)
		}
	}
}

func TestMachine_IdleIgnoresSamples(t *testing.T) {
	m := NewMachine(DefaultSensitivity)
	obs := m.Observe(200)
	if obs.Alert || obs.Progress != 0 {
		t.Errorf("Idle observation should be inert, got %+v", obs)
	}
	if _, ok := m.Candidate(); ok {
		t.Error("Idle observation should not record a candidate")
	}
}

func TestMachine_RecalibrateUsesOnlyNewBaseline(t *testing.T) {
	m := calibrated(t, 100)

	if err := m.Recalibrate(); err != nil {
		t.Fatalf("Recalibrate: %v", err)
	}
	if m.Mode() != ModeCalibrating {
		t.Fatalf("Expected ModeCalibrating, got %v", m.Mode())
	}
	if _, ok := m.Candidate(); ok {
		t.Error("Recalibration should start a fresh sampling sequence")
	}

	// 125 would alert against the old baseline, but calibration never compares
	if obs := m.Observe(125); obs.Alert {
		t.Error("Old baseline must not be used while recalibrating")
	}

	m.Observe(200)
	if _, err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	baseline, _ := m.Baseline()
	if baseline != 200 {
		t.Errorf("Expected new baseline 200, got %d", baseline)
	}
	// 230 is above the old threshold (120) but below the new one (240)
	if obs := m.Observe(230); obs.Alert {
		t.Error("Monitoring after recalibration must use the new baseline")
	}
	if obs := m.Observe(250); !obs.Alert {
		t.Error("Expected alert above the new threshold")
	}
}

func TestMachine_InvalidTransitions(t *testing.T) {
	t.Run("stop while idle", func(t *testing.T) {
		m := NewMachine(DefaultSensitivity)
		_, err := m.Stop()
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Expected ErrInvalidTransition, got %v", err)
		}
		if m.Mode() != ModeIdle {
			t.Errorf("Mode changed to %v", m.Mode())
		}
	})

	t.Run("calibrate while calibrating", func(t *testing.T) {
		m := NewMachine(DefaultSensitivity)
		m.Calibrate()
		err := m.Calibrate()
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Expected ErrInvalidTransition, got %v", err)
		}
		var te *TransitionError
		if !errors.As(err, &te) || te.From != ModeCalibrating {
			t.Errorf("Expected TransitionError from calibrating, got %v", err)
		}
	})

	t.Run("recalibrate while idle", func(t *testing.T) {
		m := NewMachine(DefaultSensitivity)
		if err := m.Recalibrate(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("stop before any sample", func(t *testing.T) {
		m := NewMachine(DefaultSensitivity)
		m.Calibrate()
		_, err := m.Stop()
		if !errors.Is(err, ErrNoSample) {
			t.Errorf("Expected ErrNoSample, got %v", err)
		}
		if m.Mode() != ModeCalibrating {
			t.Errorf("Expected to stay calibrating, got %v", m.Mode())
		}
	})
}

func TestMachine_ExactlyOneModeAfterAnySequence(t *testing.T) {
	m := NewMachine(DefaultSensitivity)
	actions := []func(){
		func() { m.Calibrate() },
		func() { m.Observe(120) },
		func() { m.Stop() },
		func() { m.Stop() },
		func() { m.Recalibrate() },
		func() { m.Calibrate() },
		func() { m.Observe(90) },
		func() { m.Stop() },
		func() { m.Observe(150) },
	}

	for i, act := range actions {
		act()
		if !m.Mode().Valid() {
			t.Fatalf("step %d: invalid mode %v", i, m.Mode())
		}
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{0, 0},
		{-40, 0},
		{200, 50},
		{400, 100},
		{1000, 100},
	}
	for _, tc := range tests {
		if got := Progress(tc.width); got != tc.want {
			t.Errorf("Progress(%d) = %d, want %d", tc.width, got, tc.want)
		}
	}
}

func TestExceeds(t *testing.T) {
	if Exceeds(115, 100, 1.2) {
		t.Error("115 should not exceed 100*1.2")
	}
	if !Exceeds(125, 100, 1.2) {
		t.Error("125 should exceed 100*1.2")
	}
}
