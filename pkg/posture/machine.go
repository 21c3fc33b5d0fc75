package posture

// progressScale maps a face width in pixels to the 0-100 progress bar.
const progressScale = 4

// Observation is the outcome of feeding one face width to the Machine
type Observation struct {
	Mode      Mode
	Width     int
	Progress  int     // Calibration feedback only (0-100)
	Threshold float64 // Monitoring only
	Alert     bool    // Width exceeded the threshold
}

// Machine holds the posture mode, the baseline and the calibration candidate.
// It has no timers or goroutines; Monitor drives it from a single goroutine.
type Machine struct {
	mode        Mode
	sensitivity float64

	baseline    int
	hasBaseline bool

	candidate    int
	hasCandidate bool
}

// NewMachine creates a Machine in ModeIdle
func NewMachine(sensitivity float64) *Machine {
	return &Machine{
		mode:        ModeIdle,
		sensitivity: sensitivity,
	}
}

// Mode returns the active mode
func (m *Machine) Mode() Mode {
	return m.mode
}

// Baseline returns the committed baseline width, if any
func (m *Machine) Baseline() (int, bool) {
	return m.baseline, m.hasBaseline
}

// Candidate returns the latest calibration sample, if any
func (m *Machine) Candidate() (int, bool) {
	return m.candidate, m.hasCandidate
}

// Threshold returns baseline * sensitivity once a baseline exists
func (m *Machine) Threshold() (float64, bool) {
	if !m.hasBaseline {
		return 0, false
	}
	return float64(m.baseline) * m.sensitivity, true
}

// Calibrate enters ModeCalibrating from ModeIdle or ModeMonitoring.
// The committed baseline survives until Stop replaces it, but it is never
// compared against while calibrating.
func (m *Machine) Calibrate() error {
	switch m.mode {
	case ModeIdle, ModeMonitoring:
		m.mode = ModeCalibrating
		m.candidate = 0
		m.hasCandidate = false
		return nil
	default:
		return &TransitionError{From: m.mode, Action: "calibrate"}
	}
}

// Recalibrate enters ModeCalibrating from ModeMonitoring only
func (m *Machine) Recalibrate() error {
	if m.mode != ModeMonitoring {
		return &TransitionError{From: m.mode, Action: "recalibrate"}
	}
	return m.Calibrate()
}

// Stop freezes the last calibration sample as the baseline and enters
// ModeMonitoring.
func (m *Machine) Stop() (int, error) {
	switch m.mode {
	case ModeCalibrating:
		if !m.hasCandidate {
			return 0, ErrNoSample
		}
		m.baseline = m.candidate
		m.hasBaseline = true
		m.mode = ModeMonitoring
		return m.baseline, nil
	default:
		return 0, &TransitionError{From: m.mode, Action: "stop calibration"}
	}
}

// Observe feeds the primary face width measured in the current mode
func (m *Machine) Observe(width int) Observation {
	obs := Observation{Mode: m.mode, Width: width}

	switch m.mode {
	case ModeCalibrating:
		m.candidate = width
		m.hasCandidate = true
		obs.Progress = Progress(width)

	case ModeMonitoring:
		// Monitoring is only entered through Stop, so the baseline is set
		threshold, _ := m.Threshold()
		obs.Threshold = threshold
		obs.Alert = Exceeds(width, m.baseline, m.sensitivity)

	case ModeIdle:
	}

	return obs
}

// Exceeds reports whether width is strictly above baseline * sensitivity
func Exceeds(width, baseline int, sensitivity float64) bool {
	return float64(width) > float64(baseline)*sensitivity
}

// Progress maps a calibration width to the 0-100 progress indicator
func Progress(width int) int {
	return clamp(width/progressScale, 0, 100)
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
