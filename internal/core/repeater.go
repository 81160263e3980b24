package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nolfonzo/SensorSentinel/internal/dedup"
	"github.com/nolfonzo/SensorSentinel/internal/packet"
	"github.com/nolfonzo/SensorSentinel/internal/radio"
)

// Repeater extends radio range: every valid packet heard once is sent again
// verbatim. The cache keeps a repeat from echoing around the mesh and the
// self check keeps a node from repeating its own transmissions.
type Repeater struct {
	Radio       Radio
	Cache       *dedup.Cache
	Self        uint32 // own node id
	RepeatDelay time.Duration

	repeated   atomic.Uint64
	duplicates atomic.Uint64
	invalid    atomic.Uint64
	ownEchoes  atomic.Uint64
	paused     atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// RepeaterCounts is a snapshot of the repeater's drop and forward counters.
type RepeaterCounts struct {
	Repeated   uint64
	Duplicates uint64
	Invalid    uint64
	OwnEchoes  uint64
	Paused     uint64
}

// NewRepeater wires the repeating role.
func NewRepeater(r Radio, cache *dedup.Cache, self uint32, repeatDelay time.Duration) *Repeater {
	return &Repeater{
		Radio:       r,
		Cache:       cache,
		Self:        self,
		RepeatDelay: repeatDelay,
		stop:        make(chan struct{}),
	}
}

// Start launches the receive loop.
func (r *Repeater) Start() error {
	if r.Radio == nil || r.Cache == nil {
		return fmt.Errorf("repeater: radio and cache required")
	}
	r.wg.Add(1)
	go r.loop()
	slog.Info("repeater started",
		"self", fmt.Sprintf("%08x", r.Self),
		"cache_capacity", r.Cache.Cap(), "repeat_delay", r.RepeatDelay)
	return nil
}

// Stop halts the loop. Idempotent.
func (r *Repeater) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
}

// Counts reports the loop's counters.
func (r *Repeater) Counts() RepeaterCounts {
	return RepeaterCounts{
		Repeated:   r.repeated.Load(),
		Duplicates: r.duplicates.Load(),
		Invalid:    r.invalid.Load(),
		OwnEchoes:  r.ownEchoes.Load(),
		Paused:     r.paused.Load(),
	}
}

func (r *Repeater) loop() {
	defer r.wg.Done()
	box := r.Radio.Mailbox()
	for {
		select {
		case <-r.stop:
			return
		case <-box.Ready():
		}
		// Frames arriving while one is being handled are dropped by the
		// disarmed mailbox, same as on the boards.
		for {
			frame, ok := box.Take()
			if !ok {
				break
			}
			r.handle(frame)
			box.Rearm()
		}
	}
}

func (r *Repeater) handle(frame radio.RxFrame) {
	raw := frame.Payload
	if err := packet.Validate(raw); err != nil {
		r.invalid.Add(1)
		slog.Debug("drop invalid packet", "len", len(raw), "err", err)
		return
	}
	node := packet.PeekNodeID(raw)
	if node == r.Self {
		r.ownEchoes.Add(1)
		return
	}
	key := dedup.Key{NodeID: node, Type: packet.PeekType(raw), Counter: packet.PeekCounter(raw)}
	if age, dup := r.Cache.Observe(key); dup {
		r.duplicates.Add(1)
		slog.Debug("suppress duplicate",
			"node", fmt.Sprintf("%08x", node), "counter", key.Counter, "first_seen", age)
		return
	}

	// Short pause so the repeat does not collide with the next hop
	// repeating the same packet.
	if r.RepeatDelay > 0 {
		select {
		case <-r.stop:
			return
		case <-time.After(r.RepeatDelay):
		}
	}

	busy, err := r.Radio.Transmit(raw)
	switch {
	case errors.Is(err, radio.ErrTxPaused):
		r.paused.Add(1)
		slog.Debug("duty cycle pause, repeat dropped",
			"node", fmt.Sprintf("%08x", node), "counter", key.Counter)
	case err != nil:
		slog.Error("repeat transmit failed", "err", err)
	default:
		r.repeated.Add(1)
		slog.Info("packet repeated",
			"node", fmt.Sprintf("%08x", node), "counter", key.Counter,
			"rssi", frame.RSSI, "snr", frame.SNR, "tx_time", busy)
	}
}
