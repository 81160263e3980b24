package radio

import "sync"

// Mailbox is the single-slot handoff between the modem's read loop and the
// role loop, mirroring the one receive buffer the radio hardware owns. The
// read loop delivers only while the box is armed; Take hands the frame over
// and disarms delivery, so nothing lands while the frame is being processed;
// Rearm re-enables it. Frames arriving disarmed are dropped and counted, the
// same way packets on the air are lost while the hardware is masked.
type Mailbox struct {
	mu      sync.Mutex
	frame   RxFrame
	full    bool
	armed   bool
	dropped uint64
	ready   chan struct{}
}

// NewMailbox returns an armed, empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{
		armed: true,
		ready: make(chan struct{}, 1),
	}
}

// Deliver offers a frame to the box. While armed, a newer frame displaces an
// untaken older one (the displaced frame counts as dropped); while disarmed
// the frame is dropped outright. Reports whether the frame was stored.
func (m *Mailbox) Deliver(f RxFrame) bool {
	m.mu.Lock()
	if !m.armed {
		m.dropped++
		m.mu.Unlock()
		return false
	}
	if m.full {
		m.dropped++
	}
	m.frame = f
	m.full = true
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return true
}

// Take removes the held frame and disarms delivery until Rearm. The second
// return is false when the box is empty.
func (m *Mailbox) Take() (RxFrame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		return RxFrame{}, false
	}
	f := m.frame
	m.frame = RxFrame{}
	m.full = false
	m.armed = false
	return f, true
}

// Rearm re-enables delivery after the taken frame has been processed.
func (m *Mailbox) Rearm() {
	m.mu.Lock()
	m.armed = true
	m.mu.Unlock()
}

// Ready signals each time a frame lands. The channel holds one pending
// signal; receivers drain the box with Take until it reports empty.
func (m *Mailbox) Ready() <-chan struct{} { return m.ready }

// Dropped returns how many frames were lost to the disarmed window or
// displaced before being taken.
func (m *Mailbox) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}
