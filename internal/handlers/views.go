package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/umx-campus/accesogo/internal/models"
	"github.com/umx-campus/accesogo/internal/services/printer"
)

// getSessionByCode looks a session up by its printed code
func (r *Router) getSessionByCode(w http.ResponseWriter, req *http.Request) {
	codigo := mux.Vars(req)["codigo"]

	reg, err := r.engine.GetSessionByCode(req.Context(), codigo)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, reg)
}

// listEvents returns the full bitácora of a session, oldest first
func (r *Router) listEvents(w http.ResponseWriter, req *http.Request) {
	sessionID, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	events, err := r.engine.EventsForSession(req.Context(), sessionID)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, events)
}

// listDelayed returns legs overdue at the building for the notifier
func (r *Router) listDelayed(w http.ResponseWriter, req *http.Request) {
	threshold := time.Duration(r.cfg.Visit.DelayThresholdMinutes) * time.Minute

	delayed, err := r.engine.GetSessionsDelayedAtBuilding(req.Context(), threshold)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, delayed)
}

// printBadges renders a PDF badge sheet for every leg of a session
func (r *Router) printBadges(w http.ResponseWriter, req *http.Request) {
	sessionID, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	// Resolve the code first; the printer works from the assembled view
	var stub models.Registro
	if err := r.db.WithContext(req.Context()).
		Select("codigo").
		First(&stub, sessionID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	reg, err := r.engine.GetSessionByCode(req.Context(), stub.Codigo)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	pdf, err := printer.GenerateBadgesPDF(reg, r.cfg.Visit.BadgeFooter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render badges")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=gafetes-%s.pdf", reg.Codigo))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
