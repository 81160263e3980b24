// Sender program: the node role. Periodically samples the pin bank, battery
// and GNSS fix, builds binary packets and transmits them through the
// serial-attached LoRa modem.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nolfonzo/SensorSentinel/internal/core"
	"github.com/nolfonzo/SensorSentinel/internal/gnss"
	"github.com/nolfonzo/SensorSentinel/internal/identity"
	"github.com/nolfonzo/SensorSentinel/internal/packet"
	"github.com/nolfonzo/SensorSentinel/internal/pins"
	"github.com/nolfonzo/SensorSentinel/internal/radio"
	"github.com/nolfonzo/SensorSentinel/internal/util"
)

func main() {
	cfgPath := flag.String("c", "configs/config.yml", "path to configuration file")
	flag.Parse()

	cfg, err := core.LoadConfig(*cfgPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(util.NewLogger(cfg.Env, cfg.LogLevel, "sender"))

	node := identity.Discover()
	slog.Info("node identity",
		"node_id", node.ID, "eui", node.EUI.String(), "random", node.Random)

	profile, err := pins.ProfileFor(cfg.Node.Board)
	if err != nil {
		slog.Error("pin profile", "board", cfg.Node.Board, "err", err)
		os.Exit(1)
	}

	gate := radio.NewGate(cfg.Radio.DutyCyclePct,
		time.Duration(cfg.Radio.MinSendIntervalMs)*time.Millisecond)
	modem, err := radio.Open(cfg.Radio.Device, cfg.Radio.Baud, gate)
	if err != nil {
		slog.Error("open radio", "device", cfg.Radio.Device, "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := modem.Close(); err != nil {
			slog.Warn("close radio", "err", err)
		}
	}()

	var locator packet.Locator
	if cfg.Gnss.Device != "" {
		receiver := gnss.NewSerial(cfg.Gnss.Device, cfg.Gnss.Baud)
		if err := receiver.Start(); err != nil {
			slog.Warn("gnss receiver unavailable, sending zero-location packets",
				"device", cfg.Gnss.Device, "err", err)
		} else {
			locator = receiver
			defer receiver.Stop()
		}
	}

	builder := &packet.Builder{
		ID:    node,
		Power: pins.NewSimulatedBattery(pins.DefaultBatteryLifetime),
		Pins:  pins.NewBank(profile, pins.NewSynthetic(int64(node.ID))),
		Loc:   locator,
		Boot:  time.Now(),
	}

	sender := core.NewSender(modem, builder,
		time.Duration(cfg.Node.SensorIntervalMs)*time.Millisecond,
		time.Duration(cfg.Node.GnssIntervalMs)*time.Millisecond)

	sys := core.NewSystem(cfg)
	sys.Add(sender)
	if err := sys.StartAll(); err != nil {
		slog.Error("start", "err", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	sys.StopAll()
	sent, skipped := sender.Counts()
	slog.Info("sender stopped", "sent", sent, "skipped", skipped)
}
