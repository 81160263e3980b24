package gnss

import (
	"math"
	"math/rand"
	"sync"

	"github.com/nolfonzo/SensorSentinel/internal/packet"
)

// Walk fabricates a wandering track around a starting point, for senders
// running without a receiver attached. Each CurrentFix call advances the
// walk a little, so the traffic looks like slow movement rather than noise.
// The same seed reproduces the same track.
type Walk struct {
	mu      sync.Mutex
	rng     *rand.Rand
	lat     float64
	lon     float64
	course  float64
	speed   float64 // km/h
}

// Kilometres of ground covered per CurrentFix call at 1 km/h. The sender
// polls every GNSS interval, so the step approximates half a minute of
// travel.
const walkStepHours = 1.0 / 120

// NewWalk starts a simulated track at the given position.
func NewWalk(lat, lon float64, seed int64) *Walk {
	rng := rand.New(rand.NewSource(seed))
	return &Walk{
		rng:    rng,
		lat:    lat,
		lon:    lon,
		course: rng.Float64() * 360,
		speed:  5 + rng.Float64()*15,
	}
}

// CurrentFix advances the walk one step and reports the new position. It
// always has a fix.
func (w *Walk) CurrentFix() (packet.Fix, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.course += (w.rng.Float64() - 0.5) * 30
	for w.course < 0 {
		w.course += 360
	}
	for w.course >= 360 {
		w.course -= 360
	}
	w.speed += (w.rng.Float64() - 0.5) * 4
	if w.speed < 0 {
		w.speed = 0
	}
	if w.speed > 40 {
		w.speed = 40
	}

	stepKm := w.speed * walkStepHours
	rad := w.course * math.Pi / 180
	w.lat += stepKm * math.Cos(rad) / 111.32
	w.lon += stepKm * math.Sin(rad) / (111.32 * math.Cos(w.lat*math.Pi/180))
	if w.lat > 89.9 {
		w.lat = 89.9
	}
	if w.lat < -89.9 {
		w.lat = -89.9
	}
	if w.lon > 180 {
		w.lon -= 360
	}
	if w.lon < -180 {
		w.lon += 360
	}

	return packet.Fix{
		Latitude:  float32(w.lat),
		Longitude: float32(w.lon),
		Speed:     float32(w.speed),
		Course:    normalizeCourse(w.course),
		HDOP:      uint8(8 + w.rng.Intn(8)),
	}, true
}
