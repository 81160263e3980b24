package pins

import (
	"testing"
	"time"

	"github.com/nolfonzo/SensorSentinel/internal/packet"
)

var (
	_ packet.Pins  = (*Bank)(nil)
	_ packet.Power = (*SimulatedBattery)(nil)
)

type stubReader struct {
	analog map[int]uint16
	high   map[int]bool
}

func (s stubReader) Analog(gpio int) uint16 { return s.analog[gpio] }
func (s stubReader) Boolean(gpio int) bool  { return s.high[gpio] }

func TestProfileFor(t *testing.T) {
	tests := []struct {
		board      string
		wantAnalog []int
		wantErr    bool
	}{
		{BoardHeltecV3, []int{1, 2, 3, 4}, false},
		{BoardTracker, []int{4, 5, 6, 7}, false},
		{BoardStick, []int{1, 2, 3, 4}, false},
		{BoardStickLite, []int{1, 2, 3, 4}, false},
		{"", []int{1, 2, 3, 4}, false},
		{"esp32_generic", nil, true},
	}
	for _, tt := range tests {
		t.Run("board "+tt.board, func(t *testing.T) {
			p, err := ProfileFor(tt.board)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unknown board")
				}
				return
			}
			if err != nil {
				t.Fatalf("ProfileFor: %v", err)
			}
			if len(p.Analog) != len(tt.wantAnalog) {
				t.Fatalf("analog lines = %v", p.Analog)
			}
			for i, gpio := range tt.wantAnalog {
				if p.Analog[i] != gpio {
					t.Errorf("analog[%d] = %d, want %d", i, p.Analog[i], gpio)
				}
			}
			if len(p.Boolean) != BooleanSlots {
				t.Errorf("boolean lines = %d, want %d", len(p.Boolean), BooleanSlots)
			}
		})
	}
}

func TestStickLiteSharesStickTables(t *testing.T) {
	stick, _ := ProfileFor(BoardStick)
	lite, _ := ProfileFor(BoardStickLite)
	if lite.Board != BoardStickLite {
		t.Errorf("lite profile board = %q", lite.Board)
	}
	for i := range stick.Boolean {
		if lite.Boolean[i] != stick.Boolean[i] {
			t.Fatalf("boolean tables diverge at %d", i)
		}
	}
}

func TestBankReadAnalog(t *testing.T) {
	profile, _ := ProfileFor(BoardHeltecV3)
	r := stubReader{analog: map[int]uint16{1: 111, 2: 222, 3: 333, 4: 444}}
	b := NewBank(profile, r)

	got := b.ReadAnalog()
	want := [AnalogSlots]uint16{111, 222, 333, 444}
	if got != want {
		t.Errorf("ReadAnalog = %v, want %v", got, want)
	}
}

func TestBankZeroPadsShortProfiles(t *testing.T) {
	b := NewBank(Profile{Analog: []int{10, 11}, Boolean: []int{20}}, stubReader{
		analog: map[int]uint16{10: 500, 11: 600},
		high:   map[int]bool{20: true},
	})
	got := b.ReadAnalog()
	if got != [AnalogSlots]uint16{500, 600, 0, 0} {
		t.Errorf("ReadAnalog = %v, want trailing zeros", got)
	}
	if bits := b.ReadBoolean(); bits != 0b00000001 {
		t.Errorf("ReadBoolean = %08b, want unused bits zero", bits)
	}
}

func TestBankBooleanBitOrder(t *testing.T) {
	profile, _ := ProfileFor(BoardHeltecV3)
	// Lines 33 (slot 0) and 35 (slot 2) high.
	b := NewBank(profile, stubReader{high: map[int]bool{33: true, 35: true}})
	if bits := b.ReadBoolean(); bits != 0b00000101 {
		t.Errorf("ReadBoolean = %08b, want 00000101", bits)
	}
}

func TestSyntheticDeterministic(t *testing.T) {
	a := NewSynthetic(42)
	b := NewSynthetic(42)
	for i := 0; i < 20; i++ {
		if av, bv := a.Analog(1), b.Analog(1); av != bv {
			t.Fatalf("read %d diverged: %d vs %d", i, av, bv)
		}
		if ab, bb := a.Boolean(33), b.Boolean(33); ab != bb {
			t.Fatalf("boolean read %d diverged", i)
		}
	}
}

func TestSyntheticAnalogInRange(t *testing.T) {
	s := NewSynthetic(7)
	for i := 0; i < 200; i++ {
		if v := s.Analog(2); v > packet.AnalogMax {
			t.Fatalf("Analog = %d, above ADC ceiling", v)
		}
	}
}

func TestPercentFromVoltage(t *testing.T) {
	tests := []struct {
		mv   uint16
		want uint8
	}{
		{4255, 100},
		{4200, 99},
		{3700, 36},
		{3080, 1},
		{3040, 0},
		{2500, 0},
	}
	for _, tt := range tests {
		if got := PercentFromVoltage(tt.mv); got != tt.want {
			t.Errorf("PercentFromVoltage(%d) = %d, want %d", tt.mv, got, tt.want)
		}
	}
}

func TestSimulatedBatteryDischarge(t *testing.T) {
	b := NewSimulatedBattery(10 * time.Hour)
	t0 := time.Unix(10_000, 0)
	b.boot = t0
	now := t0
	b.clock = func() time.Time { return now }

	if mv := b.BatteryVoltageMV(); mv != 4200 {
		t.Errorf("voltage at boot = %d, want 4200", mv)
	}
	now = t0.Add(5 * time.Hour)
	if mv := b.BatteryVoltageMV(); mv != 3620 {
		t.Errorf("voltage at half life = %d, want 3620", mv)
	}
	now = t0.Add(20 * time.Hour)
	if mv := b.BatteryVoltageMV(); mv != batteryEmptyMV {
		t.Errorf("voltage past lifetime = %d, want floor %d", mv, batteryEmptyMV)
	}
	if lvl := b.BatteryLevel(); lvl != 0 {
		t.Errorf("level past lifetime = %d, want 0", lvl)
	}
}
