package posture

import (
	"encoding/json"
	"testing"
)

func TestMode_ControlsMatchMode(t *testing.T) {
	tests := []struct {
		mode Mode
		want Controls
	}{
		{ModeIdle, Controls{Calibrate: true, Settings: true, Progress: true}},
		{ModeCalibrating, Controls{Stop: true, Settings: true, Progress: true}},
		{ModeMonitoring, Controls{Recalibrate: true, Done: true}},
	}

	for _, tc := range tests {
		t.Run(tc.mode.String(), func(t *testing.T) {
			if got := tc.mode.Controls(); got != tc.want {
				t.Errorf("Controls: got %+v, want %+v", got, tc.want)
			}
			if tc.mode.Instructions() == "" {
				t.Error("Expected instructions text")
			}
		})
	}
}

func TestMode_EveryModeIsHandled(t *testing.T) {
	for _, m := range Modes {
		if !m.Valid() {
			t.Errorf("%v should be valid", m)
		}
		if m.Controls() == (Controls{}) {
			t.Errorf("%v has no visible controls", m)
		}
	}
	if Mode(42).Valid() {
		t.Error("Mode(42) should be invalid")
	}
}

func TestMode_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Mode Mode `json:"mode"`
	}{ModeCalibrating})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"mode":"calibrating"}` {
		t.Errorf("Marshal: got %s", data)
	}

	var out struct {
		Mode Mode `json:"mode"`
	}
	if err := json.Unmarshal([]byte(`{"mode":"monitoring"}`), &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Mode != ModeMonitoring {
		t.Errorf("Unmarshal: got %v", out.Mode)
	}

	if err := json.Unmarshal([]byte(`{"mode":"sleeping"}`), &out); err == nil {
		t.Error("Expected error for unknown mode")
	}
}
