// Package gnss provides fix sources for the packet builder: a serial NMEA
// reader for rigs with a receiver wired up, a fixed point for bench tests,
// and a simulated walk. All sources hand out packet.Fix values in wire units
// (degrees, km/h, dilution in tenths).
package gnss

import (
	"bufio"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	serial "go.bug.st/serial"

	"github.com/nolfonzo/SensorSentinel/internal/packet"
)

// DefaultMaxFixAge bounds how long the serial source keeps reporting the
// last decoded position once sentences stop arriving.
const DefaultMaxFixAge = 5 * time.Minute

// Serial reads NMEA sentences from a GNSS receiver and keeps the latest fix.
// RMC sentences carry position, speed and course; GGA carries the dilution.
type Serial struct {
	Device string
	Baud   int
	MaxAge time.Duration

	mu   sync.Mutex
	rmc  RMC
	hdop float64
	at   time.Time

	port     serial.Port
	stop     chan struct{}
	stopOnce sync.Once
}

// NewSerial creates a serial fix source for the given device path.
func NewSerial(device string, baud int) *Serial {
	return &Serial{
		Device: device,
		Baud:   baud,
		MaxAge: DefaultMaxFixAge,
		stop:   make(chan struct{}),
	}
}

// Start opens the device and begins decoding sentences in the background.
func (s *Serial) Start() error {
	port, err := serial.Open(s.Device, &serial.Mode{BaudRate: s.Baud})
	if err != nil {
		return fmt.Errorf("open gnss serial: %w", err)
	}
	s.port = port
	go s.readLoop(port)
	return nil
}

// Stop ends the reader and closes the device. Safe to call more than once.
func (s *Serial) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.port != nil {
			if err := s.port.Close(); err != nil {
				slog.Warn("close gnss serial", "err", err)
			}
		}
	})
}

// CurrentFix returns the latest decoded position, or false before the first
// valid sentence and once the fix has gone stale.
func (s *Serial) CurrentFix() (packet.Fix, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.at.IsZero() || time.Since(s.at) > s.MaxAge {
		return packet.Fix{}, false
	}
	return packet.Fix{
		Latitude:  float32(s.rmc.Latitude),
		Longitude: float32(s.rmc.Longitude),
		Speed:     float32(s.rmc.SpeedKmh),
		Course:    normalizeCourse(s.rmc.Course),
		HDOP:      hdopByte(s.hdop),
	}, true
}

func (s *Serial) readLoop(port serial.Port) {
	reader := bufio.NewReader(port)
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			select {
			case <-s.stop:
				return
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}
		s.consume(line)
	}
}

// consume folds one sentence into the held fix. Anything undecodable is
// skipped; receivers interleave plenty of sentence types this source does
// not care about.
func (s *Serial) consume(line string) {
	fields, err := Fields(line)
	if err != nil || len(fields) == 0 {
		return
	}
	switch {
	case strings.HasSuffix(fields[0], "RMC"):
		rmc, err := ParseRMC(fields)
		if err != nil || !rmc.Valid {
			return
		}
		s.mu.Lock()
		s.rmc = rmc
		s.at = time.Now()
		s.mu.Unlock()
	case strings.HasSuffix(fields[0], "GGA"):
		gga, err := ParseGGA(fields)
		if err != nil || gga.Quality == 0 {
			return
		}
		s.mu.Lock()
		s.hdop = gga.HDOP
		s.mu.Unlock()
	}
}

// Static always reports the same point, for rigs at a known location.
type Static struct {
	Fix packet.Fix
}

// CurrentFix implements the locator with a permanent fix.
func (s Static) CurrentFix() (packet.Fix, bool) { return s.Fix, true }

// normalizeCourse folds a receiver-reported course into [0,360). Some
// modules emit exactly 360.0 for due north, and the float32 narrowing can
// round values just below 360 back up to it.
func normalizeCourse(deg float64) float32 {
	for deg >= 360 {
		deg -= 360
	}
	for deg < 0 {
		deg += 360
	}
	f := float32(deg)
	if f >= 360 {
		f = 0
	}
	return f
}

// hdopByte stores the dilution as tenths in one byte, saturating at the
// ceiling the receive side accepts.
func hdopByte(h float64) uint8 {
	v := h * 10
	if v < 0 {
		return 0
	}
	if v > packet.HDOPMax {
		return packet.HDOPMax
	}
	return uint8(v)
}
