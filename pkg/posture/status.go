package posture

import "time"

// Status is a snapshot of the monitor published to the shell
type Status struct {
	Mode         Mode     `json:"mode"`
	Controls     Controls `json:"controls"`
	Instructions string   `json:"instructions"`

	Baseline    int     `json:"baseline,omitempty"`
	HasBaseline bool    `json:"has_baseline"`
	Threshold   float64 `json:"threshold,omitempty"`
	LastWidth   int     `json:"last_width"`
	Progress    int     `json:"progress"` // 0-100

	// Searching is true while the current tick is still waiting for a face
	Searching bool `json:"searching"`
	Attempts  int  `json:"attempts,omitempty"`

	PollIntervalMs int64 `json:"poll_interval_ms"`
	WindowVisible  bool  `json:"window_visible"`

	Alerts    int        `json:"alerts"`
	LastAlert *time.Time `json:"last_alert,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// StatusSink receives every published status. Implementations must not block.
type StatusSink interface {
	UpdateStatus(status Status)
}

// FrameSink receives captured frames for preview. Implementations must not block.
type FrameSink interface {
	SendCameraFrame(jpeg []byte)
}

// Notifier shows an alert to the user. Delivery is fire-and-forget.
type Notifier interface {
	Notify(title, message string)
}
