package core

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nolfonzo/SensorSentinel/internal/dedup"
	"github.com/nolfonzo/SensorSentinel/internal/health"
	"github.com/nolfonzo/SensorSentinel/internal/model"
	"github.com/nolfonzo/SensorSentinel/internal/packet"
	"github.com/nolfonzo/SensorSentinel/internal/radio"
)

// Forwarder is where the gateway hands decoded records and its own status,
// satisfied by *mqtt.Client.
type Forwarder interface {
	PublishRecord(rec model.PacketRecord) error
	PublishStatus(rep model.StatusReport) error
}

const (
	forwardQueueDepth = 1024
	forwardWorkers    = 4
)

// Gateway bridges the radio to the broker: validate, deduplicate, decode,
// forward. Forwarding runs on a small worker pool behind a buffered channel
// so a slow broker never stalls the receive loop.
type Gateway struct {
	Radio       Receiver
	Cache       *dedup.Cache
	Fwd         Forwarder
	Self        uint32
	GatewayID   string
	EUI         string
	StatusEvery time.Duration // 0 disables the heartbeat
	Boot        time.Time

	queue chan model.PacketRecord

	received     atomic.Uint64
	forwarded    atomic.Uint64
	duplicates   atomic.Uint64
	invalid      atomic.Uint64
	ownEchoes    atomic.Uint64
	queueDropped atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// GatewayCounts is a snapshot of the gateway's pipeline counters.
type GatewayCounts struct {
	Received     uint64
	Forwarded    uint64
	Duplicates   uint64
	Invalid      uint64
	OwnEchoes    uint64
	QueueDropped uint64
}

// NewGateway wires the gateway role.
func NewGateway(r Receiver, cache *dedup.Cache, fwd Forwarder, self uint32, gatewayID, eui string, statusEvery time.Duration) *Gateway {
	return &Gateway{
		Radio:       r,
		Cache:       cache,
		Fwd:         fwd,
		Self:        self,
		GatewayID:   gatewayID,
		EUI:         eui,
		StatusEvery: statusEvery,
		Boot:        time.Now(),
		queue:       make(chan model.PacketRecord, forwardQueueDepth),
		stop:        make(chan struct{}),
	}
}

// Start launches the receive loop, the forward workers, and the status
// heartbeat.
func (g *Gateway) Start() error {
	if g.Radio == nil || g.Cache == nil || g.Fwd == nil {
		return fmt.Errorf("gateway: radio, cache and forwarder required")
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.receiveLoop()
		close(g.queue)
	}()

	for i := 0; i < forwardWorkers; i++ {
		g.wg.Add(1)
		go g.forwardLoop()
	}

	if g.StatusEvery > 0 {
		g.wg.Add(1)
		go g.heartbeat()
	}

	slog.Info("gateway started",
		"gateway_id", g.GatewayID, "cache_capacity", g.Cache.Cap(),
		"status_every", g.StatusEvery)
	return nil
}

// Stop halts the loops and drains the forward queue. Idempotent.
func (g *Gateway) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
	g.wg.Wait()
}

// Counts reports the pipeline counters.
func (g *Gateway) Counts() GatewayCounts {
	return GatewayCounts{
		Received:     g.received.Load(),
		Forwarded:    g.forwarded.Load(),
		Duplicates:   g.duplicates.Load(),
		Invalid:      g.invalid.Load(),
		OwnEchoes:    g.ownEchoes.Load(),
		QueueDropped: g.queueDropped.Load(),
	}
}

func (g *Gateway) receiveLoop() {
	box := g.Radio.Mailbox()
	for {
		select {
		case <-g.stop:
			return
		case <-box.Ready():
		}
		for {
			frame, ok := box.Take()
			if !ok {
				break
			}
			g.handle(frame)
			box.Rearm()
		}
	}
}

func (g *Gateway) handle(frame radio.RxFrame) {
	g.received.Add(1)
	raw := frame.Payload

	if err := packet.Validate(raw); err != nil {
		g.invalid.Add(1)
		slog.Debug("drop invalid packet", "len", len(raw), "err", err)
		return
	}
	node := packet.PeekNodeID(raw)
	if node == g.Self {
		g.ownEchoes.Add(1)
		return
	}
	key := dedup.Key{NodeID: node, Type: packet.PeekType(raw), Counter: packet.PeekCounter(raw)}
	if age, dup := g.Cache.Observe(key); dup {
		g.duplicates.Add(1)
		slog.Debug("suppress duplicate",
			"node", fmt.Sprintf("%08x", node), "counter", key.Counter, "first_seen", age)
		return
	}

	p, err := packet.Parse(raw)
	if err != nil {
		g.invalid.Add(1)
		slog.Warn("parse after validate failed", "err", err)
		return
	}
	rec, err := packet.ToRecord(p, frame.RSSI, frame.SNR, time.Now())
	if err != nil {
		g.invalid.Add(1)
		slog.Warn("record conversion failed", "err", err)
		return
	}

	select {
	case g.queue <- rec:
	default:
		g.queueDropped.Add(1)
		slog.Warn("forward queue full, record dropped",
			"node", fmt.Sprintf("%08x", node), "counter", rec.Counter)
	}
}

func (g *Gateway) forwardLoop() {
	defer g.wg.Done()
	for rec := range g.queue {
		if err := g.Fwd.PublishRecord(rec); err != nil {
			slog.Warn("forward record failed",
				"node", fmt.Sprintf("%08x", rec.NodeID), "counter", rec.Counter, "err", err)
			continue
		}
		g.forwarded.Add(1)
		slog.Info("record forwarded",
			"type", rec.Type, "node", fmt.Sprintf("%08x", rec.NodeID),
			"counter", rec.Counter, "rssi", rec.RSSI)
	}
}

func (g *Gateway) heartbeat() {
	defer g.wg.Done()
	g.publishStatus()
	ticker := time.NewTicker(g.StatusEvery)
	defer ticker.Stop()
	for {
		select {
		case <-g.stop:
			return
		case <-ticker.C:
			g.publishStatus()
		}
	}
}

func (g *Gateway) publishStatus() {
	if err := g.Fwd.PublishStatus(g.buildStatus(time.Now())); err != nil {
		slog.Warn("publish status failed", "err", err)
	}
}

func (g *Gateway) buildStatus(now time.Time) model.StatusReport {
	sample := health.Collect()
	c := g.Counts()
	return model.StatusReport{
		Status:      "online",
		GatewayID:   g.GatewayID,
		EUI:         g.EUI,
		Received:    c.Received,
		Forwarded:   c.Forwarded,
		Duplicates:  c.Duplicates,
		Invalid:     c.Invalid,
		UptimeSec:   uint64(now.Sub(g.Boot) / time.Second),
		Timestamp:   now.Unix(),
		TimestampMs: now.Sub(g.Boot).Milliseconds(),
		Health:      &sample,
	}
}
