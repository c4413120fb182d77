package dm

import (
	"sync"
	"time"
)

// TypingExpiry is how long a typing flag survives without a follow-up
// signal. There is no explicit "stopped typing" event anywhere in the
// system; this timeout is the correctness mechanism.
const TypingExpiry = 1500 * time.Millisecond

// TypingMonitor is a per-peer state machine: Idle -> Typing on a signal,
// back to Idle when the expiry lapses or a message arrives. Every signal
// re-arms the timer, which makes the state self-healing against lost or
// late events.
type TypingMonitor struct {
	expiry   time.Duration
	onChange func(peerID int, typing bool)

	mu     sync.Mutex
	timers map[int]*time.Timer
	closed bool
}

// NewTypingMonitor constructs a monitor. onChange fires only on state
// transitions, never on repeat signals.
func NewTypingMonitor(expiry time.Duration, onChange func(peerID int, typing bool)) *TypingMonitor {
	if expiry <= 0 {
		expiry = TypingExpiry
	}
	return &TypingMonitor{
		expiry:   expiry,
		onChange: onChange,
		timers:   make(map[int]*time.Timer),
	}
}

// Observe records a typing signal from the peer.
func (m *TypingMonitor) Observe(peerID int) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	timer, active := m.timers[peerID]
	if active {
		timer.Reset(m.expiry)
		m.mu.Unlock()
		return
	}
	m.timers[peerID] = time.AfterFunc(m.expiry, func() { m.expire(peerID) })
	m.mu.Unlock()

	m.onChange(peerID, true)
}

// Stop clears the typing state immediately, used when the peer's message
// lands (a message ends the burst regardless of the timer).
func (m *TypingMonitor) Stop(peerID int) {
	m.mu.Lock()
	timer, active := m.timers[peerID]
	if active {
		timer.Stop()
		delete(m.timers, peerID)
	}
	m.mu.Unlock()

	if active {
		m.onChange(peerID, false)
	}
}

func (m *TypingMonitor) expire(peerID int) {
	m.mu.Lock()
	_, active := m.timers[peerID]
	if active {
		delete(m.timers, peerID)
	}
	closed := m.closed
	m.mu.Unlock()

	if active && !closed {
		m.onChange(peerID, false)
	}
}

// Close stops every timer without firing transitions.
func (m *TypingMonitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, timer := range m.timers {
		timer.Stop()
		delete(m.timers, id)
	}
}
