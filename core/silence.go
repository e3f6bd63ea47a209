package callruntime

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// silenceMonitor fires once per quiet episode: after the window elapses with
// no caller activity it invokes the handler and stays dormant until activity
// re-arms it.
type silenceMonitor struct {
	clock     clockwork.Clock
	window    time.Duration
	onSilence func()

	mu      sync.Mutex
	timer   clockwork.Timer
	stopped bool
}

func newSilenceMonitor(clock clockwork.Clock, window time.Duration, onSilence func()) *silenceMonitor {
	return &silenceMonitor{
		clock:     clock,
		window:    window,
		onSilence: onSilence,
	}
}

// arm starts the window. Arming an already armed monitor restarts it.
func (m *silenceMonitor) arm() {
	if m.window <= 0 || m.onSilence == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = m.clock.AfterFunc(m.window, m.fire)
}

// activity notes caller activity and restarts the window, ending the current
// silence episode if one was reported.
func (m *silenceMonitor) activity() {
	m.arm()
}

func (m *silenceMonitor) fire() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.mu.Unlock()

	m.onSilence()
}

func (m *silenceMonitor) stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
