package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/umx-campus/accesogo/internal/config"
	"github.com/umx-campus/accesogo/internal/database"
	"github.com/umx-campus/accesogo/internal/engine"
	"github.com/umx-campus/accesogo/internal/middleware"
	"github.com/umx-campus/accesogo/internal/utils"
	ws "github.com/umx-campus/accesogo/internal/websocket"
)

// Router wraps the mux router with the engine and its collaborators
type Router struct {
	*mux.Router
	db     *database.DB
	engine *engine.Engine
	hub    *ws.Hub
	cfg    *config.Config
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, eng *engine.Engine, hub *ws.Hub, cfg *config.Config) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		db:     db,
		engine: eng,
		hub:    hub,
		cfg:    cfg,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")

	// Live event feed for guard dashboards
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWs(hub, w, req)
	})

	// Engine routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	api.HandleFunc("/status", r.getStatus).Methods("GET")

	api.HandleFunc("/registros", r.createSession).Methods("POST")
	api.HandleFunc("/registros/codigo/{codigo}", r.getSessionByCode).Methods("GET")
	api.HandleFunc("/registros/{id}/visitantes", r.attachVisitors).Methods("POST")
	api.HandleFunc("/registros/{id}/vehiculos", r.attachVehicle).Methods("POST")
	api.HandleFunc("/registros/{id}/salida", r.batchGateExit).Methods("POST")
	api.HandleFunc("/registros/{id}/bitacora", r.listEvents).Methods("GET")
	api.HandleFunc("/registros/{id}/gafetes", r.printBadges).Methods("GET")

	api.HandleFunc("/legs/{id}/transicion", r.transition).Methods("POST")
	api.HandleFunc("/legs/{id}/siguiente", r.suggestNextActions).Methods("GET")
	api.HandleFunc("/legs/{id}/alerta", r.incrementAlert).Methods("POST")

	api.HandleFunc("/demorados", r.listDelayed).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"server": "accesogo",
	})
}

// getStatus returns the current status
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "running",
		"version": "1.0.0",
	})
}

// guardFromContext resolves the authenticated guard placed by the middleware.
func guardFromContext(req *http.Request) (engine.Guard, bool) {
	claims, ok := req.Context().Value(middleware.GuardContextKey).(jwt.MapClaims)
	if !ok {
		return engine.Guard{}, false
	}
	id, role, err := utils.ClaimsToGuard(claims)
	if err != nil {
		return engine.Guard{}, false
	}
	return engine.Guard{ID: id, Role: role}, true
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

// respondEngineError maps the engine's machine codes onto HTTP statuses.
func respondEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrInvalidTransition):
		status = http.StatusPreconditionFailed
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrCapacityExceeded),
		errors.Is(err, engine.ErrTokenConflict),
		errors.Is(err, engine.ErrAlreadyCompleted),
		errors.Is(err, engine.ErrHeadcountMismatch):
		status = http.StatusConflict
	}

	respondJSON(w, status, map[string]string{
		"code":  engine.Code(err),
		"error": err.Error(),
	})
}
