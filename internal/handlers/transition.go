package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/umx-campus/accesogo/internal/engine"
)

// transition advances a single visitor leg through a checkpoint
func (r *Router) transition(w http.ResponseWriter, req *http.Request) {
	guard, ok := guardFromContext(req)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Guard identity missing")
		return
	}

	legID, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid leg ID")
		return
	}

	var in engine.TransitionInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	in.LegID = legID

	leg, err := r.engine.Transition(req.Context(), in, guard)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, leg)
}

// suggestNextActions returns the advisory next action(s) for a leg given the
// caller's role. The engine re-validates on commit, so this can never be used
// to force an illegal transition.
func (r *Router) suggestNextActions(w http.ResponseWriter, req *http.Request) {
	guard, ok := guardFromContext(req)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Guard identity missing")
		return
	}

	legID, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid leg ID")
		return
	}

	actions, err := r.engine.SuggestNextActions(req.Context(), legID, guard.Role)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"legId":   legID,
		"actions": actions,
	})
}

// incrementAlert bumps the delay-alert counter on a leg
func (r *Router) incrementAlert(w http.ResponseWriter, req *http.Request) {
	legID, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid leg ID")
		return
	}

	if err := r.engine.IncrementAlert(req.Context(), legID); err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Alert recorded"})
}
