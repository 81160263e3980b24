// Package pins resolves per-board GPIO tables and reads them into the fixed
// shape the sensor packet embeds: four analog slots and one byte of boolean
// line states. Boards expose different GPIO numbers for the same role, so the
// tables live here and everything downstream works with slot indexes.
package pins

import "fmt"

// Supported board identifiers, matching the hardware the deployed nodes run
// on. BoardDefault maps to the WiFi LoRa 32 V3 tables.
const (
	BoardHeltecV3  = "heltec_v3"
	BoardTracker   = "heltec_wireless_tracker"
	BoardStick     = "heltec_wireless_stick"
	BoardStickLite = "heltec_wireless_stick_lite"
	BoardDefault   = BoardHeltecV3
)

// AnalogSlots and BooleanSlots fix the snapshot shape for every board.
const (
	AnalogSlots  = 4
	BooleanSlots = 8
)

// Profile lists the externally usable GPIO lines of one board.
type Profile struct {
	Board   string
	Analog  []int // ADC-capable lines, in slot order
	Boolean []int // digital lines, in bit order (bit 0 first)
}

var profiles = map[string]Profile{
	BoardHeltecV3: {
		Board:   BoardHeltecV3,
		Analog:  []int{1, 2, 3, 4},
		Boolean: []int{33, 34, 35, 39, 40, 41, 42, 46},
	},
	BoardTracker: {
		Board:   BoardTracker,
		Analog:  []int{4, 5, 6, 7},
		Boolean: []int{39, 40, 41, 42, 43, 44, 45, 46},
	},
	BoardStick: {
		Board:   BoardStick,
		Analog:  []int{1, 2, 3, 4},
		Boolean: []int{5, 6, 7, 33, 34, 35, 36, 37},
	},
}

func init() {
	// The Stick Lite shares the Stick's headers.
	p := profiles[BoardStick]
	p.Board = BoardStickLite
	profiles[BoardStickLite] = p
}

// ProfileFor returns the GPIO tables for the named board. An empty name
// selects BoardDefault; an unknown name is a configuration error.
func ProfileFor(board string) (Profile, error) {
	if board == "" {
		board = BoardDefault
	}
	p, ok := profiles[board]
	if !ok {
		return Profile{}, fmt.Errorf("unknown board %q", board)
	}
	return p, nil
}

// Reader reads a single GPIO line. Implementations back this with real
// hardware or with synthetic data for rigs that have nothing wired up.
type Reader interface {
	Analog(gpio int) uint16
	Boolean(gpio int) bool
}

// Bank reads a board profile through a Reader and packs the results into the
// packet shape. Analog slots beyond the profiled lines stay zero; boolean
// states pack one per bit, lowest slot first.
type Bank struct {
	profile Profile
	reader  Reader
}

// NewBank pairs a profile with a reader.
func NewBank(profile Profile, r Reader) *Bank {
	return &Bank{profile: profile, reader: r}
}

// ReadAnalog samples the profiled analog lines, zero-padding unused slots.
func (b *Bank) ReadAnalog() [AnalogSlots]uint16 {
	var out [AnalogSlots]uint16
	for i, gpio := range b.profile.Analog {
		if i >= AnalogSlots {
			break
		}
		out[i] = b.reader.Analog(gpio)
	}
	return out
}

// ReadBoolean samples the profiled digital lines into a bitfield.
func (b *Bank) ReadBoolean() uint8 {
	var out uint8
	for i, gpio := range b.profile.Boolean {
		if i >= BooleanSlots {
			break
		}
		if b.reader.Boolean(gpio) {
			out |= 1 << i
		}
	}
	return out
}
