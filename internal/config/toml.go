package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// ErrInvalid is returned when the file decodes but fails validation.
var ErrInvalid = errors.New("config: invalid file")

// File represents the TOML configuration file. Nil fields are unset and
// leave the defaults alone.
type File struct {
	Monitor   MonitorConfig   `toml:"monitor"`
	Camera    CameraConfig    `toml:"camera"`
	Detection DetectionConfig `toml:"detection"`
	Notify    NotifyConfig    `toml:"notify"`
	Web       WebConfig       `toml:"web"`
	Log       LogConfig       `toml:"log"`
}

// MonitorConfig maps the posture monitor settings.
type MonitorConfig struct {
	PollInterval     *time.Duration `toml:"poll-interval" validate:"omitempty,gte=500ms"`
	RetryDelay       *time.Duration `toml:"retry-delay" validate:"omitempty,gt=0"`
	Sensitivity      *float64       `toml:"sensitivity" validate:"omitempty,gt=1,lte=3"`
	MaxCaptureErrors *int           `toml:"max-capture-errors" validate:"omitempty,gte=1"`
	NotifyCooldown   *time.Duration `toml:"notify-cooldown" validate:"omitempty,gte=0"`
}

// CameraConfig maps the capture settings.
type CameraConfig struct {
	Preset       *string `toml:"preset" validate:"omitempty,oneof=default 720p 1080p low"`
	Device       *int    `toml:"device" validate:"omitempty,gte=0,lt=64"`
	Width        *int    `toml:"width" validate:"omitempty,gte=160,lte=3840"`
	Height       *int    `toml:"height" validate:"omitempty,gte=120,lte=2160"`
	Quality      *int    `toml:"quality" validate:"omitempty,gte=1,lte=100"`
	WarmupFrames *int    `toml:"warmup-frames" validate:"omitempty,gte=0,lte=30"`
}

// DetectionConfig maps the face detector settings.
type DetectionConfig struct {
	Backend    *string  `toml:"backend" validate:"omitempty,oneof=haar yunet"`
	Cascade    *string  `toml:"cascade"`
	Model      *string  `toml:"model"`
	Confidence *float64 `toml:"confidence" validate:"omitempty,gt=0,lt=1"`
}

// NotifyConfig maps desktop notification settings.
type NotifyConfig struct {
	Enabled *bool   `toml:"enabled"`
	Sound   *bool   `toml:"sound"`
	Icon    *string `toml:"icon"`
}

// WebConfig maps the dashboard settings.
type WebConfig struct {
	Host *string `toml:"host" validate:"omitempty,hostname|ip"`
	Port *int    `toml:"port" validate:"omitempty,gte=1,lte=65535"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	File  *string `toml:"file"`
	JSON  *bool   `toml:"json"`
}

var validate = validator.New()

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (File, error) {
	if path == "" {
		return File{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("failed to stat config: %w", err)
	}

	var cfg File
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return File{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return File{}, fmt.Errorf("%w: unknown key %q", ErrInvalid, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

// Validate checks every set field against its struct tags
func (f File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
