// Posture Monitor - warns you when you lean too close to the screen.
// Calibrate once while sitting upright; the webcam face width is then
// compared against that baseline every few seconds.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posture/internal/config"
	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/detection"
	"github.com/teslashibe/go-posture/pkg/posture"
	"github.com/teslashibe/go-posture/pkg/web"
)

var version = "dev"

// options holds the raw flag values
type options struct {
	debug      bool
	userID     string
	sessionID  string
	configPath string

	port     int
	host     string
	camera   int
	preset   string
	interval string
	backend  string
	cascade  string
	model    string
	logFile  string
	noNotify bool
	sound    bool
}

func main() {
	if err := newRootCmd(&options{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	det := detection.DefaultConfig()
	webCfg := web.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:           "posture",
		Short:         "Webcam posture monitor",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := rootCmd.Flags()
	f.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	f.StringVar(&opts.userID, "user-id", "", "user identifier, logged only")
	f.StringVar(&opts.sessionID, "session-id", "", "session identifier, logged only (default: random uuid)")
	f.StringVar(&opts.configPath, "config", config.DefaultConfigPath(), "TOML config file")
	f.IntVar(&opts.port, "port", webCfg.Port, "dashboard port")
	f.StringVar(&opts.host, "host", webCfg.Host, "dashboard listen address")
	f.IntVar(&opts.camera, "camera", camera.DefaultConfig().Device, "camera device index")
	f.StringVar(&opts.preset, "preset", camera.PresetDefault, "camera preset: default, 720p, 1080p, low")
	f.StringVar(&opts.interval, "interval", posture.DefaultPollInterval.String(), "time between posture checks (minimum 500ms)")
	f.StringVar(&opts.backend, "backend", string(det.Backend), "face detector: haar, yunet")
	f.StringVar(&opts.cascade, "cascade", det.CascadePath, "Haar cascade XML file")
	f.StringVar(&opts.model, "model", det.ModelPath, "YuNet ONNX model file")
	f.StringVar(&opts.logFile, "log-file", "", "also write logs to this rotating file")
	f.BoolVar(&opts.noNotify, "no-notify", false, "disable desktop notifications")
	f.BoolVar(&opts.sound, "sound", false, "play a sound with each notification")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newPresetsCmd())

	return rootCmd
}
