package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posture/internal/config"
	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/detection"
	"github.com/teslashibe/go-posture/pkg/notify"
	"github.com/teslashibe/go-posture/pkg/posture"
	"github.com/teslashibe/go-posture/pkg/web"
)

// settings is the fully resolved configuration: defaults, then the
// config file, then flags the user actually set.
type settings struct {
	userID    string
	sessionID string

	log       log.Options
	monitor   posture.Config
	camera    camera.Config
	detection detection.Config
	notify    notify.Config
	web       web.Config
}

func resolve(cmd *cobra.Command, opts *options, file config.File) (settings, error) {
	s := settings{
		userID:    opts.userID,
		sessionID: opts.sessionID,
		log:       log.DefaultOptions(),
		monitor:   posture.DefaultConfig(),
		camera:    camera.DefaultConfig(),
		detection: detection.DefaultConfig(),
		notify:    notify.DefaultConfig(),
		web:       web.DefaultConfig(),
	}
	if s.sessionID == "" {
		s.sessionID = uuid.NewString()
	}

	file.ApplyLog(&s.log)
	file.ApplyMonitor(&s.monitor)
	file.ApplyNotify(&s.notify)
	file.ApplyWeb(&s.web)

	// Logging
	if opts.debug {
		s.log.Level = "debug"
	}
	fromFlag(cmd, "log-file", &s.log.File, opts.logFile)

	// Camera: preset first, then individual fields
	preset := file.Camera.Preset
	if cmd.Flags().Changed("preset") {
		preset = &opts.preset
	}
	if preset != nil {
		p := camera.GetPreset(*preset)
		if p == nil {
			return settings{}, fmt.Errorf("unknown camera preset %q (available: %v)", *preset, camera.PresetNames())
		}
		s.camera = *p
	}
	fromFile(&s.camera.Device, file.Camera.Device)
	fromFile(&s.camera.Width, file.Camera.Width)
	fromFile(&s.camera.Height, file.Camera.Height)
	fromFile(&s.camera.Quality, file.Camera.Quality)
	fromFile(&s.camera.WarmupFrames, file.Camera.WarmupFrames)
	fromFlag(cmd, "camera", &s.camera.Device, opts.camera)
	if errs := s.camera.Validate(); len(errs) > 0 {
		return settings{}, fmt.Errorf("invalid camera config: %v", errs)
	}

	// Detection
	backend := string(s.detection.Backend)
	fromFile(&backend, file.Detection.Backend)
	fromFlag(cmd, "backend", &backend, opts.backend)
	s.detection.Backend = detection.Backend(backend)
	fromFile(&s.detection.CascadePath, file.Detection.Cascade)
	fromFlag(cmd, "cascade", &s.detection.CascadePath, opts.cascade)
	fromFile(&s.detection.ModelPath, file.Detection.Model)
	fromFlag(cmd, "model", &s.detection.ModelPath, opts.model)
	fromFile(&s.detection.ConfidenceThresh, file.Detection.Confidence)

	// Monitor
	if cmd.Flags().Changed("interval") {
		d, err := time.ParseDuration(opts.interval)
		if err != nil {
			return settings{}, fmt.Errorf("invalid --interval: %w", err)
		}
		s.monitor.PollInterval = d
	}
	if s.monitor.PollInterval < posture.MinPollInterval {
		s.monitor.PollInterval = posture.MinPollInterval
	}
	if err := s.monitor.Validate(); err != nil {
		return settings{}, err
	}

	// Notifications
	if opts.noNotify {
		s.notify.Enabled = false
	}
	fromFlag(cmd, "sound", &s.notify.Sound, opts.sound)

	// Dashboard
	fromFlag(cmd, "port", &s.web.Port, opts.port)
	fromFlag(cmd, "host", &s.web.Host, opts.host)
	s.web.Version = version
	s.web.SessionID = s.sessionID

	return s, nil
}

// fromFile copies a config file value into target when it is set
func fromFile[T any](target *T, value *T) {
	if value != nil {
		*target = *value
	}
}

// fromFlag copies a flag value into target when the user set the flag.
// Flags override the config file only when explicitly set.
func fromFlag[T any](cmd *cobra.Command, name string, target *T, value T) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}
