package packet

import "time"

// Fix is a position solution as sampled from a GNSS receiver, already in wire
// units (HDOP in tenths).
type Fix struct {
	Latitude  float32
	Longitude float32
	Speed     float32 // km/h
	Course    float32 // degrees, [0, 360)
	HDOP      uint8   // tenths
}

// Collaborator interfaces the builder samples at build time. They are
// deliberately narrow so role glue and tests can supply them freely.
type (
	// Identity yields the stable per-device node id, non-zero by construction.
	Identity interface {
		NodeID() uint32
	}

	// Power reports the battery state of the board.
	Power interface {
		BatteryLevel() uint8      // percent, 0-100
		BatteryVoltageMV() uint16 // millivolts
	}

	// Pins produces the pin-reading snapshot embedded in sensor packets.
	Pins interface {
		ReadAnalog() [4]uint16
		ReadBoolean() uint8
	}

	// Locator reports the latest GNSS solution; ok is false while the
	// receiver has no fix, in which case the fix fields are ignored.
	Locator interface {
		CurrentFix() (Fix, bool)
	}
)

// Builder assembles outbound packets from a node's live data sources.
// Loc may be nil on boards without a GNSS receiver; GNSS packets then carry
// zeroed location fields, which is still a valid transmission.
type Builder struct {
	ID    Identity
	Power Power
	Pins  Pins
	Loc   Locator
	Boot  time.Time
}

// Sensor builds a sensor packet for the given counter value. It always
// succeeds once the collaborators are wired.
func (b *Builder) Sensor(counter uint32) *SensorPacket {
	p := &SensorPacket{
		Header: Header{Type: TypeSensor, NodeID: b.ID.NodeID(), Counter: counter},
		Uptime: b.uptime(),
	}
	p.BatteryLevel = b.Power.BatteryLevel()
	p.BatteryVoltage = b.Power.BatteryVoltageMV()
	p.Analog = b.Pins.ReadAnalog()
	p.Boolean = b.Pins.ReadBoolean()
	return p
}

// Gnss builds a GNSS packet for the given counter value. Location fields stay
// zero unless the locator reports a fix; the bool mirrors that. Transmitting
// a no-fix packet is the caller's decision (the deployed nodes do, so the gap
// is observable downstream).
func (b *Builder) Gnss(counter uint32) (*GnssPacket, bool) {
	p := &GnssPacket{
		Header: Header{Type: TypeGnss, NodeID: b.ID.NodeID(), Counter: counter},
		Uptime: b.uptime(),
	}
	p.BatteryLevel = b.Power.BatteryLevel()
	p.BatteryVoltage = b.Power.BatteryVoltageMV()

	if b.Loc == nil {
		return p, false
	}
	fix, ok := b.Loc.CurrentFix()
	if !ok {
		return p, false
	}
	p.Latitude = fix.Latitude
	p.Longitude = fix.Longitude
	p.Speed = fix.Speed
	p.Course = fix.Course
	p.HDOP = fix.HDOP
	return p, true
}

func (b *Builder) uptime() uint32 {
	if b.Boot.IsZero() {
		return 0
	}
	return uint32(time.Since(b.Boot) / time.Second)
}
