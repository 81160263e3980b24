// Repeater program: extends radio range by re-transmitting every valid
// packet heard once, with duplicate suppression and a collision-avoidance
// pause.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nolfonzo/SensorSentinel/internal/core"
	"github.com/nolfonzo/SensorSentinel/internal/dedup"
	"github.com/nolfonzo/SensorSentinel/internal/identity"
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
	slog.SetDefault(util.NewLogger(cfg.Env, cfg.LogLevel, "repeater"))

	node := identity.Discover()
	slog.Info("node identity",
		"node_id", node.ID, "eui", node.EUI.String(), "random", node.Random)

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

	repeater := core.NewRepeater(modem,
		dedup.NewCache(cfg.Dedup.RepeaterCapacity),
		node.ID,
		time.Duration(cfg.Radio.RepeatDelayMs)*time.Millisecond)

	sys := core.NewSystem(cfg)
	sys.Add(repeater)
	if err := sys.StartAll(); err != nil {
		slog.Error("start", "err", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	sys.StopAll()
	c := repeater.Counts()
	slog.Info("repeater stopped",
		"repeated", c.Repeated, "duplicates", c.Duplicates,
		"invalid", c.Invalid, "own_echoes", c.OwnEchoes, "paused", c.Paused)
}
