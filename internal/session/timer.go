package session

import (
	"sync"
	"time"
)

// MoveTimer is the per-round countdown. It carries the round number it was
// armed for so that an expiry arriving after the round moved on can be
// recognised and dropped by the owner.
type MoveTimer struct {
	mu    sync.Mutex
	timer *time.Timer
	round int
	fire  func(round int)
}

// NewMoveTimer returns a disarmed timer that calls fire on expiry.
func NewMoveTimer(fire func(round int)) *MoveTimer {
	return &MoveTimer{fire: fire}
}

// Arm starts the countdown for round, replacing any pending countdown.
func (m *MoveTimer) Arm(round int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.round = round
	m.timer = time.AfterFunc(d, func() { m.fire(round) })
}

// Disarm cancels the pending countdown. It reports whether a countdown was
// stopped before it fired.
func (m *MoveTimer) Disarm() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer == nil {
		return false
	}
	stopped := m.timer.Stop()
	m.timer = nil
	m.round = 0
	return stopped
}
