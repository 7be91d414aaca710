package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/millwork-io/shoptrak/internal/broadcast"
	"github.com/millwork-io/shoptrak/internal/buildinfo"
	"github.com/millwork-io/shoptrak/internal/config"
	"github.com/millwork-io/shoptrak/internal/database"
	"github.com/millwork-io/shoptrak/internal/engine"
	"github.com/millwork-io/shoptrak/internal/middleware"
)

// Router wraps the mux router and the engine's collaborators
type Router struct {
	*mux.Router
	db     *database.DB
	engine *engine.Service
	hub    *broadcast.Hub
	cfg    *config.Config
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, svc *engine.Service, hub *broadcast.Hub, cfg *config.Config) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		db:     db,
		engine: svc,
		hub:    hub,
		cfg:    cfg,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", r.getStatus).Methods("GET")
	api.HandleFunc("/scan", r.handleScan).Methods("POST")
	api.HandleFunc("/workorders/{id}/tree", r.getTree).Methods("GET")
	api.HandleFunc("/workorders/{id}/nestsheets/{sheet}/labels.pdf", r.getSheetLabels).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")

	// Admin routes (protected)
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(middleware.AdminOnly(cfg.JWTSecret))
	admin.HandleFunc("/workorders/{id}/archive", r.archiveWorkOrder).Methods("POST")

	// Station display connections
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		broadcast.ServeWs(hub, w, req)
	})

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"server": "local",
	})
}

// getStatus returns the current status and build identity
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":     "running",
		"commit":     buildinfo.CommitHash,
		"built_at":   buildinfo.BuildTime,
		"started_at": buildinfo.StartTime,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
