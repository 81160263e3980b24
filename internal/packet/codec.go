package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Sentinel errors distinguishing the rejection categories. Field-range
// violations wrap ErrFieldRange with the offending field and value.
var (
	ErrEmpty          = errors.New("empty buffer")
	ErrUnknownType    = errors.New("unknown message type")
	ErrLengthMismatch = errors.New("length does not match message type")
	ErrZeroNodeID     = errors.New("node id is zero")
	ErrFieldRange     = errors.New("field out of range")
)

// Validate checks a raw buffer against the wire contract without copying it.
// Rejections happen in a fixed order: empty buffer, unknown type, length
// mismatch, zero node id, battery level, then per-type field ranges. Battery
// voltage is deliberately not checked here; see VoltagePlausible.
func Validate(raw []byte) error {
	if len(raw) == 0 {
		return ErrEmpty
	}
	size := SizeForType(raw[offType])
	if size == 0 {
		return fmt.Errorf("%w: 0x%02x", ErrUnknownType, raw[offType])
	}
	if len(raw) != size {
		return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(raw), size)
	}
	if binary.LittleEndian.Uint32(raw[offNodeID:]) == 0 {
		return ErrZeroNodeID
	}
	if lvl := raw[offBattLevel]; lvl > BatteryLevelMax {
		return fmt.Errorf("%w: battery level %d", ErrFieldRange, lvl)
	}

	switch raw[offType] {
	case TypeSensor:
		for i := 0; i < 4; i++ {
			if v := binary.LittleEndian.Uint16(raw[offAnalog+2*i:]); v > AnalogMax {
				return fmt.Errorf("%w: analog[%d] = %d", ErrFieldRange, i, v)
			}
		}
	case TypeGnss:
		lat := readFloat32(raw, offLatitude)
		if lat < -90 || lat > 90 {
			return fmt.Errorf("%w: latitude %g", ErrFieldRange, lat)
		}
		lon := readFloat32(raw, offLongitude)
		if lon < -180 || lon > 180 {
			return fmt.Errorf("%w: longitude %g", ErrFieldRange, lon)
		}
		speed := readFloat32(raw, offSpeed)
		if speed < 0 {
			return fmt.Errorf("%w: speed %g", ErrFieldRange, speed)
		}
		course := readFloat32(raw, offCourse)
		if course < 0 || course >= 360 {
			return fmt.Errorf("%w: course %g", ErrFieldRange, course)
		}
		if hdop := raw[offHDOP]; hdop > HDOPMax {
			return fmt.Errorf("%w: hdop %d", ErrFieldRange, hdop)
		}
	}
	return nil
}

// Valid is the boolean form of Validate.
func Valid(raw []byte) bool { return Validate(raw) == nil }

// Parse validates raw and, on success, decodes it into the concrete packet
// type selected by the first byte. On failure it returns nil and the
// validation error; nothing is copied.
func Parse(raw []byte) (Packet, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	switch raw[offType] {
	case TypeSensor:
		p := new(SensorPacket)
		p.decode(raw)
		return p, nil
	default: // TypeGnss; Validate already excluded everything else
		p := new(GnssPacket)
		p.decode(raw)
		return p, nil
	}
}

// PeekType returns the message type byte, or 0 if raw is empty.
func PeekType(raw []byte) byte {
	if len(raw) < 1 {
		return 0
	}
	return raw[offType]
}

// PeekNodeID reads the node id from the common header without decoding the
// rest of the packet. Returns 0 if raw is shorter than the header.
func PeekNodeID(raw []byte) uint32 {
	if len(raw) < HeaderSize {
		return 0
	}
	return binary.LittleEndian.Uint32(raw[offNodeID:])
}

// PeekCounter reads the message counter from the common header. Returns 0 if
// raw is shorter than the header.
func PeekCounter(raw []byte) uint32 {
	if len(raw) < HeaderSize {
		return 0
	}
	return binary.LittleEndian.Uint32(raw[offCounter:])
}

// MarshalBinary encodes the packet into a fresh SensorSize buffer. Reserved
// bytes are always zero.
func (p *SensorPacket) MarshalBinary() ([]byte, error) {
	buf := make([]byte, SensorSize)
	buf[offType] = TypeSensor
	encodeCommon(buf, p.Header, p.Uptime, p.BatteryLevel, p.BatteryVoltage)
	for i, v := range p.Analog {
		binary.LittleEndian.PutUint16(buf[offAnalog+2*i:], v)
	}
	buf[offBoolean] = p.Boolean
	return buf, nil
}

// UnmarshalBinary decodes a sensor packet after checking framing only; use
// Parse when field validation is required.
func (p *SensorPacket) UnmarshalBinary(raw []byte) error {
	if len(raw) != SensorSize {
		return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(raw), SensorSize)
	}
	if raw[offType] != TypeSensor {
		return fmt.Errorf("%w: 0x%02x", ErrUnknownType, raw[offType])
	}
	p.decode(raw)
	return nil
}

func (p *SensorPacket) decode(raw []byte) {
	p.Header, p.Uptime, p.BatteryLevel, p.BatteryVoltage = decodeCommon(raw)
	for i := range p.Analog {
		p.Analog[i] = binary.LittleEndian.Uint16(raw[offAnalog+2*i:])
	}
	p.Boolean = raw[offBoolean]
}

// MarshalBinary encodes the packet into a fresh GnssSize buffer. Reserved
// bytes are always zero.
func (p *GnssPacket) MarshalBinary() ([]byte, error) {
	buf := make([]byte, GnssSize)
	buf[offType] = TypeGnss
	encodeCommon(buf, p.Header, p.Uptime, p.BatteryLevel, p.BatteryVoltage)
	putFloat32(buf, offLatitude, p.Latitude)
	putFloat32(buf, offLongitude, p.Longitude)
	putFloat32(buf, offSpeed, p.Speed)
	buf[offHDOP] = p.HDOP
	putFloat32(buf, offCourse, p.Course)
	return buf, nil
}

// UnmarshalBinary decodes a GNSS packet after checking framing only; use
// Parse when field validation is required.
func (p *GnssPacket) UnmarshalBinary(raw []byte) error {
	if len(raw) != GnssSize {
		return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(raw), GnssSize)
	}
	if raw[offType] != TypeGnss {
		return fmt.Errorf("%w: 0x%02x", ErrUnknownType, raw[offType])
	}
	p.decode(raw)
	return nil
}

func (p *GnssPacket) decode(raw []byte) {
	p.Header, p.Uptime, p.BatteryLevel, p.BatteryVoltage = decodeCommon(raw)
	p.Latitude = readFloat32(raw, offLatitude)
	p.Longitude = readFloat32(raw, offLongitude)
	p.Speed = readFloat32(raw, offSpeed)
	p.HDOP = raw[offHDOP]
	p.Course = readFloat32(raw, offCourse)
}

// encodeCommon writes the header and power block shared by both layouts.
// The type byte is written by the caller.
func encodeCommon(buf []byte, h Header, uptime uint32, level uint8, millivolts uint16) {
	binary.LittleEndian.PutUint32(buf[offNodeID:], h.NodeID)
	binary.LittleEndian.PutUint32(buf[offCounter:], h.Counter)
	binary.LittleEndian.PutUint32(buf[offUptime:], uptime)
	buf[offBattLevel] = level
	binary.LittleEndian.PutUint16(buf[offBattVolt:], millivolts)
}

func decodeCommon(raw []byte) (h Header, uptime uint32, level uint8, millivolts uint16) {
	h.Type = raw[offType]
	h.NodeID = binary.LittleEndian.Uint32(raw[offNodeID:])
	h.Counter = binary.LittleEndian.Uint32(raw[offCounter:])
	uptime = binary.LittleEndian.Uint32(raw[offUptime:])
	level = raw[offBattLevel]
	millivolts = binary.LittleEndian.Uint16(raw[offBattVolt:])
	return h, uptime, level, millivolts
}

func readFloat32(raw []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
}

func putFloat32(buf []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
}
