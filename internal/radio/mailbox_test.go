package radio

import (
	"testing"
	"time"
)

func frameN(n byte) RxFrame {
	return RxFrame{Payload: []byte{n}, RSSI: -80, SNR: 5}
}

func TestMailboxDeliverTake(t *testing.T) {
	m := NewMailbox()
	if _, ok := m.Take(); ok {
		t.Fatal("empty box handed out a frame")
	}

	if !m.Deliver(frameN(1)) {
		t.Fatal("delivery to armed box refused")
	}
	f, ok := m.Take()
	if !ok || f.Payload[0] != 1 {
		t.Fatalf("Take = (%+v, %v)", f, ok)
	}
	if _, ok := m.Take(); ok {
		t.Fatal("second Take returned a frame")
	}
}

func TestMailboxDisarmedWindow(t *testing.T) {
	m := NewMailbox()
	m.Deliver(frameN(1))
	m.Take()

	// Between Take and Rearm the box mirrors a masked interrupt: deliveries
	// are lost, not queued.
	if m.Deliver(frameN(2)) {
		t.Fatal("delivery accepted while disarmed")
	}
	if _, ok := m.Take(); ok {
		t.Fatal("dropped frame was stored anyway")
	}
	if m.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1", m.Dropped())
	}

	m.Rearm()
	if !m.Deliver(frameN(3)) {
		t.Fatal("delivery refused after Rearm")
	}
	if f, ok := m.Take(); !ok || f.Payload[0] != 3 {
		t.Fatalf("Take after rearm = (%+v, %v)", f, ok)
	}
}

func TestMailboxNewestWins(t *testing.T) {
	m := NewMailbox()
	m.Deliver(frameN(1))
	m.Deliver(frameN(2))

	f, ok := m.Take()
	if !ok || f.Payload[0] != 2 {
		t.Fatalf("Take = (%+v, %v), want the newer frame", f, ok)
	}
	if m.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1 for the displaced frame", m.Dropped())
	}
}

func TestMailboxReadySignal(t *testing.T) {
	m := NewMailbox()
	select {
	case <-m.Ready():
		t.Fatal("ready before any delivery")
	default:
	}

	m.Deliver(frameN(1))
	select {
	case <-m.Ready():
	case <-time.After(time.Second):
		t.Fatal("no ready signal after delivery")
	}

	// A burst coalesces into one pending signal; draining with Take finds
	// the latest frame.
	m.Take()
	m.Rearm()
	m.Deliver(frameN(2))
	m.Deliver(frameN(3))
	<-m.Ready()
	if f, _ := m.Take(); f.Payload[0] != 3 {
		t.Fatalf("drained frame = %d, want 3", f.Payload[0])
	}
}
