package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posture/internal/config"
	"github.com/teslashibe/go-posture/pkg/camera"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create the config file and print its path",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List camera presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			presets := camera.Presets()
			for _, name := range camera.PresetNames() {
				p := presets[name]
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %dx%d quality %d\n", name, p.Width, p.Height, p.Quality)
			}
		},
	}
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# posture configuration
# Uncomment a value to enable it. CLI flags override config values.

[monitor]
# poll-interval = "2s"
# retry-delay = "2s"
# sensitivity = 1.2
# max-capture-errors = 5
# notify-cooldown = "0s"

[camera]
# preset = "default" # %s
# device = 0
# quality = 85

[detection]
# backend = "haar" # haar, yunet
# cascade = "models/haarcascade_frontalface_default.xml"
# model = "models/face_detection_yunet.onnx"
# confidence = 0.5

[notify]
# enabled = true
# sound = false

[web]
# host = "127.0.0.1"
# port = 8765

[log]
# level = "info"
# file = %q
# json = false
`, strings.Join(camera.PresetNames(), ", "), config.DefaultLogPath())
}
