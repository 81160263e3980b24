package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nolfonzo/SensorSentinel/internal/model"
)

const (
	defaultPacketLimit = 50
	maxPacketLimit     = 500
)

type statusResponse struct {
	Status    string `json:"status"`
	UptimeSec uint64 `json:"uptime"`
	Packets   int64  `json:"packets"`
	WsClients int    `json:"ws_clients"`
	Timestamp int64  `json:"timestamp"`
}

// handleHealthz answers liveness probes.
func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("ok\n")); err != nil {
		slog.Debug("write healthz", "err", err)
	}
}

// handleNodes lists the per-node aggregates.
func (a *App) handleNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := a.Store.Nodes()
	if err != nil {
		slog.Error("query nodes", "err", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if nodes == nil {
		nodes = []model.NodeSummary{}
	}
	writeJSON(w, nodes)
}

// handlePackets returns recent records, optionally filtered to one node.
// Query parameters: node (decimal or 0x hex id), limit.
func (a *App) handlePackets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultPacketLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxPacketLimit {
		limit = maxPacketLimit
	}

	var (
		recs []model.PacketRecord
		err  error
	)
	if s := q.Get("node"); s != "" {
		node, perr := strconv.ParseUint(s, 0, 32)
		if perr != nil {
			http.Error(w, "bad node id", http.StatusBadRequest)
			return
		}
		recs, err = a.Store.RecentByNode(uint32(node), limit)
	} else {
		recs, err = a.Store.Recent(limit)
	}
	if err != nil {
		slog.Error("query packets", "err", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []model.PacketRecord{}
	}
	writeJSON(w, recs)
}

// handleStatus reports the fog server's own state.
func (a *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := a.Store.Count()
	if err != nil {
		slog.Error("count packets", "err", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	now := time.Now()
	writeJSON(w, statusResponse{
		Status:    "online",
		UptimeSec: uint64(now.Sub(a.Boot) / time.Second),
		Packets:   count,
		WsClients: a.Hub.Count(),
		Timestamp: now.Unix(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "err", err)
	}
}
