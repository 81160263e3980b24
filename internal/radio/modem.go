package radio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	serial "go.bug.st/serial"
)

// ErrTxPaused is returned by Transmit while the duty-cycle quiet period is
// still running. The payload is not sent; callers decide whether to retry or
// skip the cycle.
var ErrTxPaused = errors.New("transmit paused for duty cycle")

// Modem drives the radio over its serial link. Transmissions pass the
// duty-cycle gate; the background read loop decodes receive frames into the
// mailbox. Safe for one reader plus any number of transmitters.
type Modem struct {
	rw   io.ReadWriteCloser
	r    *bufio.Reader
	gate *Gate
	box  *Mailbox

	wmu      sync.Mutex
	stop     chan struct{}
	stopOnce sync.Once

	rxFrames atomic.Uint64
	badLines atomic.Uint64
}

// Open connects to the modem on a serial device and starts the read loop.
func Open(device string, baud int, gate *Gate) (*Modem, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open radio serial: %w", err)
	}
	m := NewModem(port, gate)
	m.Start()
	return m, nil
}

// NewModem wraps an existing link without starting the read loop, so tests
// and socat-backed rigs can drive it with pipes. Call Start before expecting
// receptions.
func NewModem(rw io.ReadWriteCloser, gate *Gate) *Modem {
	if gate == nil {
		gate = NewGate(1.0, DefaultMinSendInterval)
	}
	return &Modem{
		rw:   rw,
		r:    bufio.NewReader(rw),
		gate: gate,
		box:  NewMailbox(),
		stop: make(chan struct{}),
	}
}

// Start launches the background read loop.
func (m *Modem) Start() { go m.readLoop() }

// Mailbox returns the single-slot handoff receptions land in.
func (m *Modem) Mailbox() *Mailbox { return m.box }

// TxAllowed reports whether a transmission may start now and, when it may
// not, how long until it may.
func (m *Modem) TxAllowed() (bool, time.Duration) { return m.gate.Allowed() }

// Transmit sends one payload if the duty gate allows it and returns the time
// the link was busy, which feeds the next quiet period. The write stands in
// for time on air; the minimum-interval floor dominates in practice.
func (m *Modem) Transmit(payload []byte) (time.Duration, error) {
	line, err := FormatSend(payload)
	if err != nil {
		return 0, err
	}
	if ok, wait := m.gate.Allowed(); !ok {
		return 0, fmt.Errorf("%w: %s left", ErrTxPaused, wait.Round(time.Millisecond))
	}

	m.wmu.Lock()
	start := time.Now()
	_, err = m.rw.Write([]byte(line + "\n"))
	busy := time.Since(start)
	m.wmu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("write radio frame: %w", err)
	}
	m.gate.Record(busy)
	return busy, nil
}

// Stats returns how many frames the read loop decoded and how many receive
// lines it rejected.
func (m *Modem) Stats() (rxFrames, badLines uint64) {
	return m.rxFrames.Load(), m.badLines.Load()
}

// Close stops the read loop and closes the link. Safe to call more than
// once.
func (m *Modem) Close() error {
	var err error
	m.stopOnce.Do(func() {
		close(m.stop)
		err = m.rw.Close()
	})
	return err
}

func (m *Modem) readLoop() {
	for {
		select {
		case <-m.stop:
			return
		default:
		}
		line, err := m.r.ReadString('\n')
		if err != nil {
			select {
			case <-m.stop:
				return
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}
		line = strings.TrimSpace(line)
		if !IsReceive(line) {
			// Boot banners and acks share the console.
			continue
		}
		frame, err := ParseReceive(line)
		if err != nil {
			m.badLines.Add(1)
			slog.Warn("discard modem line", "err", err)
			continue
		}
		m.rxFrames.Add(1)
		m.box.Deliver(frame)
	}
}
