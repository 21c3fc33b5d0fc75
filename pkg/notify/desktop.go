package notify

import (
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"
)

// UnsupportedMessage is shown by the shell when desktop notifications are off
const UnsupportedMessage = "Error: Notification is not available on your system."

type sendFunc func(title, message, icon string) error

// Desktop shows OS notifications through beeep
type Desktop struct {
	cfg    Config
	logger *slog.Logger
	send   sendFunc
	wg     sync.WaitGroup
}

// NewDesktop creates a desktop notifier
func NewDesktop(cfg Config) *Desktop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AppName != "" {
		beeep.AppName = cfg.AppName
	}

	send := func(title, message, icon string) error {
		return beeep.Notify(title, message, icon)
	}
	if cfg.Sound {
		send = func(title, message, icon string) error {
			return beeep.Alert(title, message, icon)
		}
	}

	return &Desktop{
		cfg:    cfg,
		logger: logger,
		send:   send,
	}
}

// Supported reports whether desktop notifications will be attempted
func (d *Desktop) Supported() bool {
	return d.cfg.Enabled
}

// Notify shows the message without waiting for the notification daemon
func (d *Desktop) Notify(title, message string) {
	if !d.cfg.Enabled {
		d.logger.Debug("desktop notification skipped, disabled", "title", title)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.send(title, message, d.cfg.Icon); err != nil {
			d.logger.Warn("desktop notification failed", "title", title, "error", err)
		}
	}()
}

// Wait blocks until in-flight notifications have been handed to the OS
func (d *Desktop) Wait() {
	d.wg.Wait()
}

// Verify Desktop implements Notifier at compile time.
var _ Notifier = (*Desktop)(nil)
