package radio

import (
	"sync"
	"time"
)

// DefaultMinSendInterval is the quiet floor between transmissions regardless
// of how short the previous one was.
const DefaultMinSendInterval = 5 * time.Second

// Gate enforces the transmit duty cycle, a legal requirement on the shared
// ISM band. After a transmission lasting d the radio stays quiet for
// d*(100/pct - 1), never less than the minimum send interval.
type Gate struct {
	mu          sync.Mutex
	pct         float64
	minInterval time.Duration
	lastTx      time.Time
	pause       time.Duration
	clock       func() time.Time
}

// NewGate builds a gate for the given duty-cycle percentage. Out-of-range
// percentages fall back to the 1% many regions require; a non-positive
// interval falls back to DefaultMinSendInterval.
func NewGate(pct float64, minInterval time.Duration) *Gate {
	if pct <= 0 || pct > 100 {
		pct = 1.0
	}
	if minInterval <= 0 {
		minInterval = DefaultMinSendInterval
	}
	return &Gate{
		pct:         pct,
		minInterval: minInterval,
		clock:       time.Now,
	}
}

// Allowed reports whether a transmission may start now and, when it may not,
// how long until it may. The first transmission is always allowed.
func (g *Gate) Allowed() (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastTx.IsZero() {
		return true, 0
	}
	next := g.lastTx.Add(g.pause)
	now := g.clock()
	if now.After(next) {
		return true, 0
	}
	return false, next.Sub(now)
}

// Record notes a finished transmission that kept the air busy for d and
// starts the matching quiet period.
func (g *Gate) Record(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pause := time.Duration(float64(d) * (100.0/g.pct - 1))
	if pause < g.minInterval {
		pause = g.minInterval
	}
	g.lastTx = g.clock()
	g.pause = pause
}
