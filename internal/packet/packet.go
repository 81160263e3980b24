// Package packet defines the binary wire format shared by all SensorSentinel
// nodes: a 9-byte common header followed by either a sensor or a GNSS payload,
// with bounds-checked validation and parsing over raw byte buffers.
package packet

// Message type discriminators. The first byte of every packet.
const (
	TypeSensor byte = 0x01
	TypeGnss   byte = 0x02
)

// Fixed wire sizes. Fields are byte-packed in declaration order, little-endian,
// no padding. SizeForType is the single source of truth for framing.
const (
	HeaderSize = 9
	SensorSize = 27
	GnssSize   = 35
)

// Field offsets common to both packet kinds.
const (
	offType      = 0
	offNodeID    = 1
	offCounter   = 5
	offUptime    = 9
	offBattLevel = 13
	offBattVolt  = 14
	offBody      = 16
)

// Sensor-specific offsets.
const (
	offAnalog  = offBody // 4 x u16
	offBoolean = offBody + 8
)

// GNSS-specific offsets. HDOP sits between speed and course.
const (
	offLatitude  = offBody
	offLongitude = offBody + 4
	offSpeed     = offBody + 8
	offHDOP      = offBody + 12
	offCourse    = offBody + 13
)

// Field plausibility bounds used by Validate.
const (
	BatteryLevelMax = 100  // percent
	AnalogMax       = 4095 // 12-bit ADC
	HDOPMax         = 200  // tenths; above this the solution is implausible
)

// Battery voltage range in millivolts considered plausible for a Li-ion cell.
// Readings outside it are a warning-only condition (USB-powered rigs measure
// odd values), never a validation failure.
const (
	VoltageMinPlausible = 2000
	VoltageMaxPlausible = 4500
)

// Header is the common prefix of every packet.
type Header struct {
	Type    byte
	NodeID  uint32
	Counter uint32
}

// Kind returns the message type discriminator.
func (h Header) Kind() byte { return h.Type }

// Meta returns the header itself; it lets callers reach the common fields
// through the Packet interface without a type switch.
func (h Header) Meta() Header { return h }

// SensorPacket carries one snapshot of the node's pin readings and power state.
type SensorPacket struct {
	Header
	Uptime         uint32 // seconds since boot
	BatteryLevel   uint8  // percent, 0-100
	BatteryVoltage uint16 // millivolts
	Analog         [4]uint16
	Boolean        uint8 // bit i set iff boolean line i reads high
}

// GnssPacket carries one position solution plus the node's power state.
// All-zero location fields mean "no fix was available at build time"; that is
// a legitimate packet, distinct from a range violation.
type GnssPacket struct {
	Header
	Uptime         uint32
	BatteryLevel   uint8
	BatteryVoltage uint16
	Latitude       float32 // degrees, [-90, 90]
	Longitude      float32 // degrees, [-180, 180]
	Speed          float32 // km/h, >= 0
	HDOP           uint8   // horizontal dilution of precision, tenths
	Course         float32 // degrees, [0, 360)
}

// Packet is the tagged decoding of a raw frame: either *SensorPacket or
// *GnssPacket, discriminated by Kind.
type Packet interface {
	Kind() byte
	Meta() Header
	MarshalBinary() ([]byte, error)
}

// SizeForType returns the fixed wire size for a known message type and 0 for
// anything else. Validation and parsing consult it rather than hard-coding
// sizes.
func SizeForType(t byte) int {
	switch t {
	case TypeSensor:
		return SensorSize
	case TypeGnss:
		return GnssSize
	default:
		return 0
	}
}

// VoltagePlausible reports whether a battery voltage reading falls inside the
// typical Li-ion range. Callers log a warning when it does not.
func VoltagePlausible(millivolts uint16) bool {
	return millivolts >= VoltageMinPlausible && millivolts <= VoltageMaxPlausible
}
