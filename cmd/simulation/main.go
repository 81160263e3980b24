// Traffic simulator: writes realistic lines into a serial device for local
// testing without radio or GNSS hardware. In radio mode it emits RCV lines
// carrying marshalled packets from a handful of wandering nodes; in nmea
// mode it emits RMC/GGA sentences from one walker. With no -dev it creates
// a socat pty pair and prints the twin to point a role command at.
package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"

	"github.com/nolfonzo/SensorSentinel/internal/gnss"
	"github.com/nolfonzo/SensorSentinel/internal/identity"
	"github.com/nolfonzo/SensorSentinel/internal/packet"
	"github.com/nolfonzo/SensorSentinel/internal/pins"
	"github.com/nolfonzo/SensorSentinel/internal/radio"
	"github.com/nolfonzo/SensorSentinel/internal/util"
)

// Simulated nodes start their walks near this point.
const (
	baseLat = 21.0285
	baseLon = 105.8048
)

type simNode struct {
	builder       *packet.Builder
	sensorCounter uint32
	gnssCounter   uint32
}

func main() {
	mode := flag.String("mode", "radio", "line format: radio (RCV frames) or nmea (RMC/GGA)")
	dev := flag.String("dev", "", "serial device to write into (empty: create a pty pair)")
	baud := flag.Int("baud", 115200, "baud rate")
	interval := flag.Int("interval", 2000, "ms between lines")
	nodeCount := flag.Int("nodes", 3, "simulated nodes in radio mode")
	seed := flag.Int64("seed", time.Now().UnixNano(), "randomness seed")
	flag.Parse()

	slog.SetDefault(util.NewLogger("dev", "info", "simulation"))

	target := *dev
	if target == "" {
		mgr := util.NewSocatManager()
		writeEnd := "/tmp/SensorSentinel-sim"
		roleEnd := "/tmp/SensorSentinel-role"
		if err := mgr.CreatePair(writeEnd, roleEnd); err != nil {
			slog.Error("create pty pair", "err", err)
			os.Exit(1)
		}
		defer mgr.Cleanup()
		if err := waitForLink(writeEnd); err != nil {
			slog.Error("pty never appeared", "path", writeEnd, "err", err)
			os.Exit(1)
		}
		target = writeEnd
		slog.Info("point the role command at the twin device", "device", roleEnd)
	}

	port, err := serial.Open(target, &serial.Mode{BaudRate: *baud})
	if err != nil {
		slog.Error("open serial", "device", target, "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := port.Close(); err != nil {
			slog.Warn("close serial", "err", err)
		}
	}()

	rng := rand.New(rand.NewSource(*seed))
	emit := buildEmitter(*mode, *nodeCount, rng, *seed)
	if emit == nil {
		slog.Error("unknown mode", "mode", *mode)
		os.Exit(1)
	}

	slog.Info("simulator running",
		"mode", *mode, "device", target, "interval_ms", *interval)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	tick := time.NewTicker(time.Duration(*interval) * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-stop:
			slog.Info("simulator stopped")
			return
		case <-tick.C:
			for _, line := range emit() {
				if _, err := port.Write([]byte(line + "\n")); err != nil {
					slog.Warn("serial write", "err", err)
					continue
				}
				slog.Debug("emitted", "line", line)
			}
		}
	}
}

func buildEmitter(mode string, nodeCount int, rng *rand.Rand, seed int64) func() []string {
	switch mode {
	case "radio":
		return radioEmitter(nodeCount, rng, seed)
	case "nmea":
		return nmeaEmitter(seed)
	default:
		return nil
	}
}

// radioEmitter rotates through the simulated nodes, sending two sensor
// packets for every GNSS packet, roughly the cadence of the deployed
// firmware.
func radioEmitter(nodeCount int, rng *rand.Rand, seed int64) func() []string {
	if nodeCount < 1 {
		nodeCount = 1
	}
	nodes := make([]*simNode, nodeCount)
	for i := range nodes {
		jitter := func() float64 { return (rng.Float64() - 0.5) * 0.02 }
		profile, _ := pins.ProfileFor("")
		nodes[i] = &simNode{builder: &packet.Builder{
			ID:    identity.Node{ID: 0xAB000001 + uint32(i)},
			Power: pins.NewSimulatedBattery(pins.DefaultBatteryLifetime),
			Pins:  pins.NewBank(profile, pins.NewSynthetic(seed+int64(i))),
			Loc:   gnss.NewWalk(baseLat+jitter(), baseLon+jitter(), seed+int64(i)),
			Boot:  time.Now(),
		}}
	}

	tickCount := 0
	return func() []string {
		node := nodes[tickCount%len(nodes)]
		wantGnss := tickCount%3 == 2
		tickCount++

		var raw []byte
		var err error
		if wantGnss {
			p, _ := node.builder.Gnss(node.gnssCounter)
			node.gnssCounter++
			raw, err = p.MarshalBinary()
		} else {
			p := node.builder.Sensor(node.sensorCounter)
			node.sensorCounter++
			raw, err = p.MarshalBinary()
		}
		if err != nil {
			slog.Warn("marshal packet", "err", err)
			return nil
		}

		frame := radio.RxFrame{
			Payload: raw,
			RSSI:    float32(-60 - rng.Intn(60)),
			SNR:     float32(rng.Intn(200)-100) / 10,
		}
		return []string{radio.FormatReceive(frame)}
	}
}

// nmeaEmitter follows one walker, pairing each RMC with a GGA the way a
// receiver interleaves them.
func nmeaEmitter(seed int64) func() []string {
	walk := gnss.NewWalk(baseLat, baseLon, seed)
	return func() []string {
		fix, _ := walk.CurrentFix()
		now := time.Now().UTC()
		lat := float64(fix.Latitude)
		lon := float64(fix.Longitude)
		return []string{
			gnss.BuildRMC(now, lat, lon, float64(fix.Speed), float64(fix.Course)),
			gnss.BuildGGA(now, lat, lon, float64(fix.HDOP)/10),
		}
	}
}

func waitForLink(path string) error {
	var err error
	for i := 0; i < 40; i++ {
		if _, err = os.Stat(path); err == nil {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return err
}
