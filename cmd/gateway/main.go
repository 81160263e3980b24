// Gateway program: listens on the LoRa modem, validates and deduplicates
// packets, decodes them to JSON records and forwards them to the MQTT
// broker, with a retained status heartbeat.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nolfonzo/SensorSentinel/internal/core"
	"github.com/nolfonzo/SensorSentinel/internal/dedup"
	"github.com/nolfonzo/SensorSentinel/internal/identity"
	"github.com/nolfonzo/SensorSentinel/internal/mqtt"
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
	slog.SetDefault(util.NewLogger(cfg.Env, cfg.LogLevel, "gateway"))

	node := identity.Discover()
	slog.Info("gateway identity",
		"client_id", node.ClientID(), "eui", node.EUI.String(), "random", node.Random)

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

	client := mqtt.NewClient(cfg.Mqtt, node.ClientID())
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		slog.Error("connect mqtt", "broker", cfg.Mqtt.Broker, "err", err)
		os.Exit(1)
	}
	defer client.Disconnect()

	gateway := core.NewGateway(modem,
		dedup.NewCache(cfg.Dedup.GatewayCapacity),
		client,
		node.ID, node.ClientID(), node.EUI.String(),
		time.Duration(cfg.Mqtt.StatusIntervalMs)*time.Millisecond)

	sys := core.NewSystem(cfg)
	sys.Add(gateway)
	if err := sys.StartAll(); err != nil {
		slog.Error("start", "err", err)
		os.Exit(1)
	}

	<-ctx.Done()

	slog.Info("shutting down")
	sys.StopAll()
	c := gateway.Counts()
	slog.Info("gateway stopped",
		"received", c.Received, "forwarded", c.Forwarded,
		"duplicates", c.Duplicates, "invalid", c.Invalid,
		"own_echoes", c.OwnEchoes, "queue_dropped", c.QueueDropped)
}
