package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/umx-campus/accesogo/internal/engine"
)

// createSession opens a new visit session at the gate
func (r *Router) createSession(w http.ResponseWriter, req *http.Request) {
	guard, ok := guardFromContext(req)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Guard identity missing")
		return
	}

	var in engine.CreateSessionInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	reg, err := r.engine.CreateSession(req.Context(), in, guard)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, reg)
}

// attachVisitors adds accompanying visitor legs to an open session
func (r *Router) attachVisitors(w http.ResponseWriter, req *http.Request) {
	guard, ok := guardFromContext(req)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Guard identity missing")
		return
	}

	sessionID, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var body struct {
		Visitantes []engine.VisitorLegInput `json:"visitantes"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	legs, err := r.engine.AttachVisitors(req.Context(), sessionID, body.Visitantes, guard)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, legs)
}

// attachVehicle adds a supplementary vehicle leg to an open session
func (r *Router) attachVehicle(w http.ResponseWriter, req *http.Request) {
	guard, ok := guardFromContext(req)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Guard identity missing")
		return
	}

	sessionID, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var in engine.AttachVehicleInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	veh, err := r.engine.AttachVehicle(req.Context(), sessionID, in, guard)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, veh)
}

// batchGateExit reconciles an exit batch at the gatehouse
func (r *Router) batchGateExit(w http.ResponseWriter, req *http.Request) {
	guard, ok := guardFromContext(req)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Guard identity missing")
		return
	}

	sessionID, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var in engine.BatchGateExitInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	in.SessionID = sessionID

	reg, err := r.engine.BatchGateExit(req.Context(), in, guard)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, reg)
}

// pathID parses the {id} path variable
func pathID(req *http.Request) (uint, error) {
	vars := mux.Vars(req)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
