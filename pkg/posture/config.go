package posture

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultPollInterval is the delay between posture checks while monitoring
	DefaultPollInterval = 2 * time.Second

	// CalibrationSampleRate is the fixed sampling cadence while calibrating
	CalibrationSampleRate = 100 * time.Millisecond

	// DefaultSensitivity notifies when the face is 1.2 times wider than the baseline
	DefaultSensitivity = 1.2

	// DefaultRetryDelay is the pause between attempts when no face is found
	DefaultRetryDelay = 2 * time.Second

	// DefaultMaxCaptureErrors is how many consecutive capture failures end Run
	DefaultMaxCaptureErrors = 5

	// MinPollInterval is used when the settings dialog asks for less than a second
	MinPollInterval = 500 * time.Millisecond
)

// Alert text sent to the notifier
const (
	AlertTitle   = "PostureAlert"
	AlertMessage = "Sit up straight"
)

// Config holds the tunable monitor parameters
type Config struct {
	// Timing
	PollInterval        time.Duration `validate:"gt=0"`      // Monitoring cadence
	CalibrationInterval time.Duration `validate:"gt=0"`      // Calibration cadence
	RetryDelay          time.Duration `validate:"gt=0"`      // Delay between face search attempts

	// Threshold
	Sensitivity float64 `validate:"gt=1"` // Notify when width > baseline * Sensitivity

	// Failure policy
	MaxCaptureErrors int `validate:"gte=1"` // Consecutive capture failures before Run gives up

	// NotifyCooldown limits repeated alerts. Zero notifies on every
	// qualifying tick.
	NotifyCooldown time.Duration `validate:"gte=0"`
}

// DefaultConfig returns the production monitor configuration
func DefaultConfig() Config {
	return Config{
		PollInterval:        DefaultPollInterval,
		CalibrationInterval: CalibrationSampleRate,
		RetryDelay:          DefaultRetryDelay,
		Sensitivity:         DefaultSensitivity,
		MaxCaptureErrors:    DefaultMaxCaptureErrors,
		NotifyCooldown:      0,
	}
}

var validate = validator.New()

// Validate checks the config against its struct tags
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// IntervalFromSeconds converts the settings dialog value to a poll interval.
// Anything below one second becomes MinPollInterval.
func IntervalFromSeconds(seconds int) time.Duration {
	if seconds < 1 {
		return MinPollInterval
	}
	return time.Duration(seconds) * time.Second
}
