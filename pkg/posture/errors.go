package posture

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidTransition is returned when an action is not allowed in the current mode.
	ErrInvalidTransition = errors.New("posture: invalid mode transition")

	// ErrNoSample is returned when calibration is stopped before any face was measured.
	ErrNoSample = errors.New("posture: no calibration sample yet")

	// ErrInvalidConfig is returned when the monitor config fails validation.
	ErrInvalidConfig = errors.New("posture: invalid config")

	// ErrCaptureFailed is returned by Run when capture keeps failing.
	ErrCaptureFailed = errors.New("posture: capture keeps failing")

	// ErrNotRunning is returned by commands sent while Run is not active.
	ErrNotRunning = errors.New("posture: monitor not running")

	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("posture: monitor already running")
)

// TransitionError records the rejected action and the mode it was tried in.
type TransitionError struct {
	From   Mode
	Action string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("posture: cannot %s while %s", e.Action, e.From)
}

// Unwrap returns ErrInvalidTransition so callers can use errors.Is.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
