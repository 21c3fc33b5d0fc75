package posture

import "fmt"

// Mode is the active posture mode. Exactly one mode holds at any time.
type Mode int

const (
	// ModeIdle is the initial mode before any calibration
	ModeIdle Mode = iota
	// ModeCalibrating samples the upright face width at CalibrationSampleRate
	ModeCalibrating
	// ModeMonitoring compares live face width against the baseline at PollInterval
	ModeMonitoring
)

// Modes lists every mode in transition order
var Modes = []Mode{ModeIdle, ModeCalibrating, ModeMonitoring}

// String returns the lowercase mode name
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeCalibrating:
		return "calibrating"
	case ModeMonitoring:
		return "monitoring"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalText encodes the mode by name
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("posture: unknown mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name
func (m *Mode) UnmarshalText(text []byte) error {
	for _, candidate := range Modes {
		if candidate.String() == string(text) {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("posture: unknown mode %q", string(text))
}

// Valid reports whether m is one of the defined modes
func (m Mode) Valid() bool {
	return m >= ModeIdle && m <= ModeMonitoring
}

// Controls describes which shell controls are visible
type Controls struct {
	Calibrate   bool `json:"calibrate"`
	Stop        bool `json:"stop"`
	Recalibrate bool `json:"recalibrate"`
	Settings    bool `json:"settings"`
	Done        bool `json:"done"`
	Progress    bool `json:"progress"`
}

// Controls returns the control visibility for the mode.
// The shell never decides visibility on its own.
func (m Mode) Controls() Controls {
	switch m {
	case ModeIdle:
		return Controls{Calibrate: true, Settings: true, Progress: true}
	case ModeCalibrating:
		return Controls{Stop: true, Settings: true, Progress: true}
	case ModeMonitoring:
		return Controls{Recalibrate: true, Done: true}
	default:
		return Controls{}
	}
}

// Instructions returns the hint shown to the user in this mode
func (m Mode) Instructions() string {
	switch m {
	case ModeIdle:
		return "Sit upright and click 'Calibrate'"
	case ModeCalibrating:
		return "Press 'Stop' when ready"
	case ModeMonitoring:
		return "Sit upright and click 'Recalibrate'"
	default:
		return ""
	}
}
