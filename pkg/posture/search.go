package posture

import (
	"context"
	"errors"
	"time"

	"github.com/teslashibe/go-posture/pkg/vision"
)

// searchEvent reports one face search attempt back to the Run goroutine
type searchEvent struct {
	generation uint64
	attempt    int
	face       vision.Face
	found      bool
	err        error
}

// startSearch launches the face search for the current tick. Only one search
// runs at a time; a mode change cancels it and bumps the generation.
func (m *Monitor) startSearch(ctx context.Context) {
	m.cancelActiveSearch()

	searchCtx, cancel := context.WithCancel(ctx)
	m.cancelSearch = cancel
	m.searchActive = true
	generation := m.generation

	go m.search(searchCtx, generation)
}

func (m *Monitor) cancelActiveSearch() {
	if m.cancelSearch != nil {
		m.cancelSearch()
		m.cancelSearch = nil
	}
	m.generation++
	m.searchActive = false
	m.searching = false
	m.attempts = 0
}

// search keeps trying until a face is found or ctx is cancelled. Misses are
// reported as intermediate events, never as errors.
func (m *Monitor) search(ctx context.Context, generation uint64) {
	for attempt := 1; ; attempt++ {
		face, found, err := m.attempt(ctx)
		if ctx.Err() != nil {
			return
		}

		ev := searchEvent{
			generation: generation,
			attempt:    attempt,
			face:       face,
			found:      found,
			err:        err,
		}
		select {
		case m.events <- ev:
		case <-ctx.Done():
			return
		}

		if found || errors.Is(err, vision.ErrDeviceUnavailable) {
			return
		}

		timer := time.NewTimer(m.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (m *Monitor) attempt(ctx context.Context) (vision.Face, bool, error) {
	frame, err := m.source.Frame(ctx)
	if err != nil {
		return vision.Face{}, false, err
	}
	if m.frames != nil {
		m.frames.SendCameraFrame(frame)
	}

	faces, err := m.locator.Locate(frame)
	if err != nil {
		return vision.Face{}, false, err
	}

	face, ok := vision.Primary(faces)
	return face, ok, nil
}
