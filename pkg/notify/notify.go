// Package notify delivers posture alerts to the user.
//
// Delivery is fire-and-forget: Notify never returns an error and failures are
// only logged.
package notify

import (
	"log/slog"
)

// Notifier shows a message to the user
type Notifier interface {
	Notify(title, message string)
}

// Func adapts a plain function to Notifier
type Func func(title, message string)

// Notify calls f
func (f Func) Notify(title, message string) {
	f(title, message)
}

// Multi fans a notification out to several notifiers in order
type Multi []Notifier

// Notify calls every non-nil notifier
func (m Multi) Notify(title, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(title, message)
		}
	}
}

// Config holds desktop notification settings
type Config struct {
	Enabled bool
	Sound   bool   // Use an alert with sound instead of a silent notification
	AppName string // Shown by some notification daemons
	Icon    string // Optional icon path

	Logger *slog.Logger
}

// DefaultConfig returns desktop notifications without sound
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Sound:   false,
		AppName: "Posture Monitor",
		Logger:  slog.Default(),
	}
}
