package pins

import "time"

// Li-ion discharge window used by the percent lookup. The curve below maps
// the non-linear voltage/charge relationship of the cells shipped with the
// boards; values are scaled offsets into the window.
const (
	batteryEmptyMV = 3040
	batteryFullMV  = 4260
)

var dischargeCurve = [100]uint8{
	254, 242, 230, 227, 223, 219, 215, 213, 210, 207,
	206, 202, 202, 200, 200, 199, 198, 198, 196, 196,
	195, 195, 194, 192, 191, 188, 187, 185, 185, 185,
	183, 182, 180, 179, 178, 175, 175, 174, 172, 171,
	170, 169, 168, 166, 166, 165, 165, 164, 161, 161,
	159, 158, 158, 157, 156, 155, 151, 148, 147, 145,
	143, 142, 140, 140, 136, 132, 130, 130, 129, 126,
	125, 124, 121, 120, 118, 116, 115, 114, 112, 112,
	110, 110, 108, 106, 106, 104, 102, 101, 99, 97,
	94, 90, 81, 80, 76, 73, 66, 52, 32, 7,
}

// PercentFromVoltage maps a battery voltage in millivolts onto the discharge
// curve, returning 0-100.
func PercentFromVoltage(mv uint16) uint8 {
	step := float64(batteryFullMV-batteryEmptyMV) / 256
	for n := 0; n < len(dischargeCurve); n++ {
		if float64(mv) > batteryEmptyMV+step*float64(dischargeCurve[n]) {
			return uint8(100 - n)
		}
	}
	return 0
}

// SimulatedBattery discharges linearly from ChargedMV down to the curve floor
// over Lifetime, standing in for the ADC on rigs without a cell attached.
// The zero value is not usable; call NewSimulatedBattery.
type SimulatedBattery struct {
	boot     time.Time
	charged  uint16
	lifetime time.Duration
	clock    func() time.Time
}

// DefaultBatteryLifetime is how long a simulated cell lasts from full to
// empty when no lifetime is given.
const DefaultBatteryLifetime = 48 * time.Hour

// NewSimulatedBattery starts a simulated cell at 4.2 V. A non-positive
// lifetime selects DefaultBatteryLifetime.
func NewSimulatedBattery(lifetime time.Duration) *SimulatedBattery {
	if lifetime <= 0 {
		lifetime = DefaultBatteryLifetime
	}
	return &SimulatedBattery{
		boot:     time.Now(),
		charged:  4200,
		lifetime: lifetime,
		clock:    time.Now,
	}
}

// BatteryVoltageMV returns the simulated cell voltage in millivolts.
func (b *SimulatedBattery) BatteryVoltageMV() uint16 {
	elapsed := b.clock().Sub(b.boot)
	if elapsed <= 0 {
		return b.charged
	}
	window := float64(b.charged - batteryEmptyMV)
	drained := window * float64(elapsed) / float64(b.lifetime)
	if drained >= window {
		return batteryEmptyMV
	}
	return b.charged - uint16(drained)
}

// BatteryLevel returns the simulated charge percentage.
func (b *SimulatedBattery) BatteryLevel() uint8 {
	return PercentFromVoltage(b.BatteryVoltageMV())
}
