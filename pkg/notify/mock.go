package notify

import (
	"sync"
	"time"
)

// MockCall records a Notify invocation for verification.
type MockCall struct {
	Title   string
	Message string
	Time    time.Time
}

// Mock implements Notifier for testing.
type Mock struct {
	mu    sync.Mutex
	calls []MockCall
}

// NewMock creates an empty mock notifier.
func NewMock() *Mock {
	return &Mock{}
}

// Notify records the call.
func (m *Mock) Notify(title, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Title:   title,
		Message: message,
		Time:    time.Now(),
	})
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of notifications.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the most recent call, or nil if none.
func (m *Mock) LastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Verify Mock implements Notifier at compile time.
var _ Notifier = (*Mock)(nil)
