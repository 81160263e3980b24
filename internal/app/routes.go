package app

// registerRoutes sets up all HTTP handlers for the fog server.
func (a *App) registerRoutes() {
	a.Mux.HandleFunc("/healthz", a.handleHealthz)
	a.Mux.HandleFunc("/api/nodes", a.handleNodes)
	a.Mux.HandleFunc("/api/packets", a.handlePackets)
	a.Mux.HandleFunc("/api/status", a.handleStatus)
	a.Mux.HandleFunc("/ws", a.handleWS)
}
