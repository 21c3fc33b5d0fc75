package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posture/internal/config"
	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/detection"
	"github.com/teslashibe/go-posture/pkg/notify"
	"github.com/teslashibe/go-posture/pkg/posture"
	"github.com/teslashibe/go-posture/pkg/web"
)

func run(cmd *cobra.Command, opts *options) error {
	file, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	s, err := resolve(cmd, opts, file)
	if err != nil {
		return err
	}

	log.Init(s.log)
	defer log.Close()
	logger := log.With("session_id", s.sessionID)
	if s.userID != "" {
		logger = logger.With("user_id", s.userID)
	}
	logger.Info("starting posture monitor",
		"version", version,
		"camera", s.camera.Device,
		"backend", s.detection.Backend,
		"poll_interval", s.monitor.PollInterval)

	cam, err := camera.NewDevice(s.camera, logger)
	if err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	defer cam.Close()

	s.detection.Logger = logger
	locator, err := detection.New(s.detection)
	if err != nil {
		return err
	}
	defer locator.Close()

	s.notify.Logger = logger
	desktop := notify.NewDesktop(s.notify)
	if !desktop.Supported() {
		logger.Warn(notify.UnsupportedMessage)
	}

	s.web.Logger = logger
	s.web.NotificationsSupported = desktop.Supported()
	dashboard := web.NewServer(s.web)

	monitor, err := posture.New(s.monitor, cam, locator,
		notify.Multi{desktop, dashboard},
		posture.WithLogger(logger),
		posture.WithStatusSink(dashboard),
		posture.WithFrameSink(dashboard),
	)
	if err != nil {
		return err
	}
	dashboard.Attach(monitor)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dashboard.StartAsync(ctx)
	defer dashboard.Shutdown()

	if err := monitor.Run(ctx); err != nil {
		logger.Error("posture monitor stopped", "error", err)
		desktop.Notify("Posture Monitor", "Stopped: "+err.Error())
		desktop.Wait()
		return err
	}

	logger.Info("posture monitor exited")
	return nil
}
