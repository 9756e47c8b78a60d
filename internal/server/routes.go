package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Grounded query panel
	mux.HandleFunc("/api/query", s.app.QueryHandler.AskHandler) // POST

	// API routes - Aid registry panel
	mux.HandleFunc("/api/registry", s.app.RegistryHandler.RegistryHandler) // GET (feed), POST (append)

	// API routes - Water-level monitor panel (simulated)
	mux.HandleFunc("/api/monitor/levels", s.app.MonitorHandler.LevelsHandler)
	mux.HandleFunc("/api/monitor/readings", s.app.MonitorHandler.ReadingsHandler)

	// API routes - Outbreak forecast panel
	mux.HandleFunc("/api/forecast", s.app.ForecastHandler.ProjectHandler) // POST

	// API routes - Session identity
	mux.HandleFunc("/api/session", s.app.SessionHandler.SessionHandler) // GET (current), POST (relogin)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// Catch-all for unknown API paths
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.app.APIHandler.NotFoundHandler(w, r)
	})

	return mux
}
