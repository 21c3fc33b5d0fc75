package config

import (
	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/notify"
	"github.com/teslashibe/go-posture/pkg/posture"
	"github.com/teslashibe/go-posture/pkg/web"
)

// ApplyMonitor overrides the monitor settings that are set in the file
func (f File) ApplyMonitor(cfg *posture.Config) {
	m := f.Monitor
	if m.PollInterval != nil {
		cfg.PollInterval = *m.PollInterval
	}
	if m.RetryDelay != nil {
		cfg.RetryDelay = *m.RetryDelay
	}
	if m.Sensitivity != nil {
		cfg.Sensitivity = *m.Sensitivity
	}
	if m.MaxCaptureErrors != nil {
		cfg.MaxCaptureErrors = *m.MaxCaptureErrors
	}
	if m.NotifyCooldown != nil {
		cfg.NotifyCooldown = *m.NotifyCooldown
	}
}

// ApplyNotify overrides the notification settings that are set in the file
func (f File) ApplyNotify(cfg *notify.Config) {
	n := f.Notify
	if n.Enabled != nil {
		cfg.Enabled = *n.Enabled
	}
	if n.Sound != nil {
		cfg.Sound = *n.Sound
	}
	if n.Icon != nil {
		cfg.Icon = *n.Icon
	}
}

// ApplyWeb overrides the dashboard settings that are set in the file
func (f File) ApplyWeb(cfg *web.Config) {
	if f.Web.Host != nil {
		cfg.Host = *f.Web.Host
	}
	if f.Web.Port != nil {
		cfg.Port = *f.Web.Port
	}
}

// ApplyLog overrides the logging settings that are set in the file
func (f File) ApplyLog(opts *log.Options) {
	l := f.Log
	if l.Level != nil {
		opts.Level = *l.Level
	}
	if l.File != nil {
		opts.File = *l.File
	}
	if l.JSON != nil {
		opts.JSON = *l.JSON
	}
}
