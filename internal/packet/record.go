package packet

import (
	"errors"
	"fmt"
	"time"

	"github.com/nolfonzo/SensorSentinel/internal/model"
)

// ErrNilPacket is returned by ToRecord for a nil packet.
var ErrNilPacket = errors.New("nil packet")

// ToRecord converts a parsed packet plus its radio metadata into the JSON
// record published downstream. HDOP is divided back from tenths, battery
// voltage from millivolts to volts.
func ToRecord(p Packet, rssi, snr float32, receivedAt time.Time) (model.PacketRecord, error) {
	if p == nil {
		return model.PacketRecord{}, ErrNilPacket
	}

	rec := model.PacketRecord{
		NodeID:    p.Meta().NodeID,
		Counter:   p.Meta().Counter,
		RSSI:      rssi,
		SNR:       snr,
		Timestamp: receivedAt.Unix(),
	}

	switch v := p.(type) {
	case *SensorPacket:
		rec.Type = "sensor"
		rec.Uptime = v.Uptime
		rec.Battery = v.BatteryLevel
		rec.Voltage = float64(v.BatteryVoltage) / 1000.0
		rec.Analog = v.Analog[:]
		digital := make([]bool, 8)
		for i := range digital {
			digital[i] = v.Boolean&(1<<i) != 0
		}
		rec.Digital = digital
	case *GnssPacket:
		rec.Type = "gnss"
		rec.Uptime = v.Uptime
		rec.Battery = v.BatteryLevel
		rec.Voltage = float64(v.BatteryVoltage) / 1000.0
		rec.Latitude = f64(float64(v.Latitude))
		rec.Longitude = f64(float64(v.Longitude))
		rec.Speed = f64(float64(v.Speed))
		rec.Course = f64(float64(v.Course))
		rec.HDOP = f64(float64(v.HDOP) / 10.0)
	default:
		return model.PacketRecord{}, fmt.Errorf("%w: %T", ErrUnknownType, p)
	}
	return rec, nil
}

func f64(v float64) *float64 { return &v }
