package radio

import (
	"testing"
	"time"
)

func TestGateFirstTransmissionAllowed(t *testing.T) {
	g := NewGate(1.0, 5*time.Second)
	if ok, wait := g.Allowed(); !ok || wait != 0 {
		t.Fatalf("Allowed before first tx = (%v, %v)", ok, wait)
	}
}

func TestGatePauseFormula(t *testing.T) {
	g := NewGate(1.0, 5*time.Second)
	now := time.Unix(1000, 0)
	g.clock = func() time.Time { return now }

	// 100ms on air at 1% duty keeps us quiet for 9.9s, above the floor.
	g.Record(100 * time.Millisecond)
	if ok, _ := g.Allowed(); ok {
		t.Fatal("allowed immediately after transmission")
	}
	now = now.Add(9800 * time.Millisecond)
	if ok, wait := g.Allowed(); ok {
		t.Fatalf("allowed at 9.8s into a 9.9s pause (wait=%v)", wait)
	}
	now = now.Add(200 * time.Millisecond)
	if ok, _ := g.Allowed(); !ok {
		t.Fatal("still paused after the computed quiet period")
	}
}

func TestGateMinimumIntervalFloor(t *testing.T) {
	g := NewGate(10.0, 5*time.Second)
	now := time.Unix(1000, 0)
	g.clock = func() time.Time { return now }

	// 50ms at 10% duty computes a 450ms pause; the 5s floor wins.
	g.Record(50 * time.Millisecond)
	now = now.Add(1 * time.Second)
	if ok, _ := g.Allowed(); ok {
		t.Fatal("floor not applied")
	}
	now = now.Add(4001 * time.Millisecond)
	if ok, wait := g.Allowed(); !ok {
		t.Fatalf("still paused past the floor (wait=%v)", wait)
	}
}

func TestGateWaitShrinks(t *testing.T) {
	g := NewGate(1.0, 5*time.Second)
	now := time.Unix(1000, 0)
	g.clock = func() time.Time { return now }

	g.Record(10 * time.Millisecond)
	_, w1 := g.Allowed()
	now = now.Add(2 * time.Second)
	_, w2 := g.Allowed()
	if w2 >= w1 {
		t.Fatalf("remaining wait did not shrink: %v then %v", w1, w2)
	}
}

func TestGateDefaults(t *testing.T) {
	g := NewGate(0, 0)
	if g.pct != 1.0 {
		t.Errorf("pct = %v, want 1.0 fallback", g.pct)
	}
	if g.minInterval != DefaultMinSendInterval {
		t.Errorf("minInterval = %v, want %v", g.minInterval, DefaultMinSendInterval)
	}
	if g = NewGate(150, time.Second); g.pct != 1.0 {
		t.Errorf("pct above 100 kept: %v", g.pct)
	}
}
