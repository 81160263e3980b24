// Package app implements the fog server's HTTP surface: node and packet
// APIs over the archive, a websocket live feed of incoming records, and the
// health endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nolfonzo/SensorSentinel/internal/model"
	"github.com/nolfonzo/SensorSentinel/internal/store"
)

const shutdownTimeout = 5 * time.Second

// App serves the fog server's web surface over the packet archive.
type App struct {
	Store *store.Store
	Hub   *Hub
	Addr  string
	Boot  time.Time

	Mux    *http.ServeMux
	Server *http.Server
}

// NewApp wires the handlers over the archive. Nothing listens until Start.
func NewApp(st *store.Store, addr string) *App {
	a := &App{
		Store: st,
		Hub:   NewHub(),
		Addr:  addr,
		Boot:  time.Now(),
		Mux:   http.NewServeMux(),
	}
	a.registerRoutes()
	return a
}

// Ingest archives one record and pushes it to the live feed. Archive
// failures are logged; the feed still gets the record.
func (a *App) Ingest(rec model.PacketRecord) {
	if err := a.Store.InsertRecord(rec); err != nil {
		slog.Error("archive record",
			"node", fmt.Sprintf("%08x", rec.NodeID), "counter", rec.Counter, "err", err)
	}
	a.Hub.Broadcast(rec)
}

// Start binds the listener and serves in the background. A bind failure is
// returned synchronously.
func (a *App) Start() error {
	addr := strings.TrimPrefix(a.Addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	a.Server = &http.Server{Handler: logRequests(a.Mux)}
	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server", "err", err)
		}
	}()
	slog.Info("web server listening", "addr", ln.Addr().String())
	return nil
}

// Stop drains in-flight requests and closes the live feed.
func (a *App) Stop() {
	if a.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(ctx); err != nil {
			slog.Warn("http shutdown", "err", err)
		}
	}
	a.Hub.CloseAll()
}
