package validation

import (
	"sync"
	"time"
)

const DefaultDebounce = 400 * time.Millisecond

// Scheduler coalesces rapid events per key: scheduling a task cancels any
// previously scheduled task for the same key, so only the last call within
// the window runs.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: map[string]*time.Timer{}}
}

func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
}

// Cancel drops a pending task without running it.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// Close cancels everything pending.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

// FieldMonitor tracks the interactive validation state of a single form
// field: the current error, whether a validation is pending, and the derived
// validity. Validate coalesces keystrokes through the window; the last call
// wins.
type FieldMonitor struct {
	mu         sync.Mutex
	sched      *Scheduler
	delay      time.Duration
	check      func(value any) string
	err        string
	validating bool
}

// NewFieldMonitor wires a check function behind a debounce window. A zero
// delay uses DefaultDebounce.
func NewFieldMonitor(delay time.Duration, check func(value any) string) *FieldMonitor {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &FieldMonitor{
		sched: NewScheduler(),
		delay: delay,
		check: check,
	}
}

// Validate schedules a validation of value. Calls within the debounce window
// replace any pending one.
func (m *FieldMonitor) Validate(value any) {
	m.mu.Lock()
	m.validating = true
	m.mu.Unlock()

	m.sched.Schedule("field", m.delay, func() {
		msg := m.check(value)
		m.mu.Lock()
		m.err = msg
		m.validating = false
		m.mu.Unlock()
	})
}

// ClearError resets the error without re-validating.
func (m *FieldMonitor) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = ""
}

func (m *FieldMonitor) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *FieldMonitor) IsValidating() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validating
}

func (m *FieldMonitor) IsValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err == "" && !m.validating
}

// Close cancels any pending validation, e.g. when the owning form goes away.
func (m *FieldMonitor) Close() {
	m.sched.Close()
	m.mu.Lock()
	m.validating = false
	m.mu.Unlock()
}
