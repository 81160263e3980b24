package packet

import (
	"testing"
	"time"
)

type fakeIdentity uint32

func (f fakeIdentity) NodeID() uint32 { return uint32(f) }

type fakePower struct {
	level uint8
	mv    uint16
}

func (f fakePower) BatteryLevel() uint8      { return f.level }
func (f fakePower) BatteryVoltageMV() uint16 { return f.mv }

type fakePins struct {
	analog  [4]uint16
	boolean uint8
}

func (f fakePins) ReadAnalog() [4]uint16 { return f.analog }
func (f fakePins) ReadBoolean() uint8    { return f.boolean }

type fakeLocator struct {
	fix Fix
	ok  bool
}

func (f fakeLocator) CurrentFix() (Fix, bool) { return f.fix, f.ok }

func testBuilder(loc Locator) *Builder {
	return &Builder{
		ID:    fakeIdentity(0xDEADBEEF),
		Power: fakePower{level: 77, mv: 3850},
		Pins:  fakePins{analog: [4]uint16{10, 20, 30, 40}, boolean: 0b1010},
		Loc:   loc,
		Boot:  time.Now().Add(-90 * time.Second),
	}
}

func TestBuilderSensor(t *testing.T) {
	b := testBuilder(nil)
	p := b.Sensor(5)

	if p.Type != TypeSensor {
		t.Errorf("type = 0x%02x, want 0x%02x", p.Type, TypeSensor)
	}
	if p.NodeID != 0xDEADBEEF {
		t.Errorf("node id = %#x, want 0xdeadbeef", p.NodeID)
	}
	if p.Counter != 5 {
		t.Errorf("counter = %d, want 5", p.Counter)
	}
	if p.BatteryLevel != 77 || p.BatteryVoltage != 3850 {
		t.Errorf("power = %d%% %dmV, want 77%% 3850mV", p.BatteryLevel, p.BatteryVoltage)
	}
	if p.Analog != [4]uint16{10, 20, 30, 40} {
		t.Errorf("analog = %v", p.Analog)
	}
	if p.Boolean != 0b1010 {
		t.Errorf("boolean = %08b, want 00001010", p.Boolean)
	}
	if p.Uptime < 89 || p.Uptime > 92 {
		t.Errorf("uptime = %d s, want ~90", p.Uptime)
	}

	raw, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := Validate(raw); err != nil {
		t.Errorf("built sensor packet fails validation: %v", err)
	}
}

func TestBuilderGnssWithFix(t *testing.T) {
	loc := fakeLocator{
		fix: Fix{Latitude: 48.8566, Longitude: 2.3522, Speed: 1.5, Course: 90, HDOP: 12},
		ok:  true,
	}
	b := testBuilder(loc)
	p, hasFix := b.Gnss(9)

	if !hasFix {
		t.Fatal("hasFix = false with live fix")
	}
	if p.Latitude != 48.8566 || p.Longitude != 2.3522 {
		t.Errorf("position = %g,%g", p.Latitude, p.Longitude)
	}
	if p.HDOP != 12 || p.Course != 90 || p.Speed != 1.5 {
		t.Errorf("fix fields = hdop %d course %g speed %g", p.HDOP, p.Course, p.Speed)
	}
	if p.Counter != 9 {
		t.Errorf("counter = %d, want 9", p.Counter)
	}

	raw, _ := p.MarshalBinary()
	if err := Validate(raw); err != nil {
		t.Errorf("built gnss packet fails validation: %v", err)
	}
}

func TestBuilderGnssNoFix(t *testing.T) {
	tests := []struct {
		name string
		loc  Locator
	}{
		{"locator reports no fix", fakeLocator{ok: false}},
		{"nil locator", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBuilder(tt.loc)
			p, hasFix := b.Gnss(3)
			if hasFix {
				t.Error("hasFix = true without a fix")
			}
			if p.Latitude != 0 || p.Longitude != 0 || p.Speed != 0 || p.Course != 0 || p.HDOP != 0 {
				t.Errorf("location fields not zeroed: %+v", p)
			}
			// Zero-location packets still go out over the air and must
			// survive the receive-side checks.
			raw, _ := p.MarshalBinary()
			if err := Validate(raw); err != nil {
				t.Errorf("zero-location packet fails validation: %v", err)
			}
		})
	}
}

func TestBuilderCountersIndependent(t *testing.T) {
	b := testBuilder(fakeLocator{ok: true})
	s := b.Sensor(14)
	g, _ := b.Gnss(3)
	if s.Counter != 14 || g.Counter != 3 {
		t.Errorf("counters = sensor %d gnss %d, want 14 and 3", s.Counter, g.Counter)
	}
}
