package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nolfonzo/SensorSentinel/internal/packet"
	"github.com/nolfonzo/SensorSentinel/internal/radio"
)

// Transmitter is the outbound half of the modem surface.
type Transmitter interface {
	Transmit(payload []byte) (time.Duration, error)
}

// Receiver is the inbound half.
type Receiver interface {
	Mailbox() *radio.Mailbox
}

// Radio is the full modem surface, satisfied by *radio.Modem.
type Radio interface {
	Transmitter
	Receiver
}

// First GNSS packet goes out this long after the first sensor packet so the
// two schedules never fire together.
const gnssPhaseOffset = 5 * time.Second

// Sender is the node role: it periodically builds sensor and GNSS packets
// and hands them to the radio. Counters advance per build, so a packet lost
// to the duty cycle leaves a visible gap downstream.
type Sender struct {
	Radio       Transmitter
	Builder     *packet.Builder
	SensorEvery time.Duration
	GnssEvery   time.Duration // 0 disables GNSS packets

	sensorCounter uint32
	gnssCounter   uint32

	sent    atomic.Uint64
	skipped atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSender wires the sending role. gnssEvery 0 disables the GNSS schedule.
func NewSender(r Transmitter, b *packet.Builder, sensorEvery, gnssEvery time.Duration) *Sender {
	return &Sender{
		Radio:       r,
		Builder:     b,
		SensorEvery: sensorEvery,
		GnssEvery:   gnssEvery,
		stop:        make(chan struct{}),
	}
}

// Start launches the send schedule in a background goroutine.
func (s *Sender) Start() error {
	if s.Radio == nil || s.Builder == nil {
		return fmt.Errorf("sender: radio and builder required")
	}
	if s.SensorEvery <= 0 {
		return fmt.Errorf("sender: sensor interval must be positive")
	}
	s.wg.Add(1)
	go s.loop()
	slog.Info("sender started",
		"sensor_every", s.SensorEvery, "gnss_every", s.GnssEvery)
	return nil
}

// Stop halts the schedule. Idempotent; returns once the loop has exited.
func (s *Sender) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// Counts reports packets handed to the radio and cycles skipped for the
// duty cycle.
func (s *Sender) Counts() (sent, skipped uint64) {
	return s.sent.Load(), s.skipped.Load()
}

func (s *Sender) loop() {
	defer s.wg.Done()

	sensorTick := time.NewTicker(s.SensorEvery)
	defer sensorTick.Stop()

	var gnssTick *time.Ticker
	defer func() {
		if gnssTick != nil {
			gnssTick.Stop()
		}
	}()

	var gnssDelay <-chan time.Time
	var gnssC <-chan time.Time
	if s.GnssEvery > 0 {
		gnssDelay = time.After(gnssPhaseOffset)
	}

	s.sendSensor()
	for {
		select {
		case <-s.stop:
			return
		case <-sensorTick.C:
			s.sendSensor()
		case <-gnssDelay:
			gnssDelay = nil
			s.sendGnss()
			gnssTick = time.NewTicker(s.GnssEvery)
			gnssC = gnssTick.C
		case <-gnssC:
			s.sendGnss()
		}
	}
}

func (s *Sender) sendSensor() {
	p := s.Builder.Sensor(s.sensorCounter)
	s.sensorCounter++
	raw, err := p.MarshalBinary()
	if err != nil {
		slog.Error("build sensor packet", "counter", p.Counter, "err", err)
		return
	}
	s.transmit(raw, "sensor", p.Counter)
}

func (s *Sender) sendGnss() {
	p, hasFix := s.Builder.Gnss(s.gnssCounter)
	s.gnssCounter++
	raw, err := p.MarshalBinary()
	if err != nil {
		slog.Error("build gnss packet", "counter", p.Counter, "err", err)
		return
	}
	if !hasFix {
		slog.Debug("no gnss fix, sending zero location", "counter", p.Counter)
	}
	s.transmit(raw, "gnss", p.Counter)
}

func (s *Sender) transmit(raw []byte, kind string, counter uint32) {
	busy, err := s.Radio.Transmit(raw)
	switch {
	case errors.Is(err, radio.ErrTxPaused):
		s.skipped.Add(1)
		slog.Debug("duty cycle pause, cycle skipped", "type", kind, "counter", counter)
	case err != nil:
		slog.Error("transmit failed", "type", kind, "counter", counter, "err", err)
	default:
		s.sent.Add(1)
		slog.Info("packet sent",
			"type", kind, "counter", counter, "bytes", len(raw), "tx_time", busy)
	}
}
