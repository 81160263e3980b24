package pins

import (
	"math/rand"
	"sync"

	"github.com/nolfonzo/SensorSentinel/internal/packet"
)

// Synthetic fabricates line readings for rigs with nothing wired to the
// headers. Each analog line settles on a baseline derived from the seed and
// jitters around it per read; boolean lines hold their state and flip
// occasionally. The same seed reproduces the same sequence.
type Synthetic struct {
	mu    sync.Mutex
	rng   *rand.Rand
	base  map[int]uint16
	state map[int]bool
}

// NewSynthetic seeds a synthetic reader. Seeding with the node id keeps each
// simulated node's traffic distinct but reproducible.
func NewSynthetic(seed int64) *Synthetic {
	return &Synthetic{
		rng:   rand.New(rand.NewSource(seed)),
		base:  make(map[int]uint16),
		state: make(map[int]bool),
	}
}

// Analog returns the line's baseline plus a little jitter, clamped to the
// ADC range.
func (s *Synthetic) Analog(gpio int) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.base[gpio]
	if !ok {
		b = uint16(s.rng.Intn(packet.AnalogMax + 1))
		s.base[gpio] = b
	}
	v := int(b) + s.rng.Intn(65) - 32
	if v < 0 {
		v = 0
	}
	if v > packet.AnalogMax {
		v = packet.AnalogMax
	}
	return uint16(v)
}

// Boolean returns the line's held state, flipping it on roughly one read in
// twenty.
func (s *Synthetic) Boolean(gpio int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.state[gpio]
	if !ok {
		st = s.rng.Intn(2) == 1
	} else if s.rng.Float64() < 0.05 {
		st = !st
	}
	s.state[gpio] = st
	return st
}
