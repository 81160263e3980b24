// Fog server: subscribes to the packet record topics on the MQTT broker,
// archives every record in SQLite and serves the query APIs plus a
// websocket live feed.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nolfonzo/SensorSentinel/internal/app"
	"github.com/nolfonzo/SensorSentinel/internal/core"
	"github.com/nolfonzo/SensorSentinel/internal/identity"
	"github.com/nolfonzo/SensorSentinel/internal/model"
	"github.com/nolfonzo/SensorSentinel/internal/mqtt"
	"github.com/nolfonzo/SensorSentinel/internal/store"
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
	slog.SetDefault(util.NewLogger(cfg.Env, cfg.LogLevel, "fog_server"))

	st, err := store.Open(cfg.Fog.SQLitePath)
	if err != nil {
		slog.Error("open archive", "path", cfg.Fog.SQLitePath, "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Warn("close archive", "err", err)
		}
	}()

	web := app.NewApp(st, cfg.Fog.HTTPAddr)

	node := identity.Discover()
	client := mqtt.NewClient(cfg.Mqtt, node.ClientID()+"-fog")
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		slog.Error("connect mqtt", "broker", cfg.Mqtt.Broker, "err", err)
		os.Exit(1)
	}
	defer client.Disconnect()

	if err := client.SubscribeRecords(func(topic string, rec model.PacketRecord) {
		web.Ingest(rec)
	}); err != nil {
		slog.Error("subscribe", "err", err)
		os.Exit(1)
	}

	sys := core.NewSystem(cfg)
	sys.Add(web)
	if err := sys.StartAll(); err != nil {
		slog.Error("start", "err", err)
		os.Exit(1)
	}

	<-ctx.Done()

	slog.Info("shutting down")
	sys.StopAll()
	slog.Info("fog server stopped")
}
