package busalerts

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/theoremus-urban-solutions/bus-proximity-alerts/store"
)

// handleCreateAlert registers a new proximity alert. The registration is
// durable before the response is written.
func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var a store.Alert
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a.ID = ""
	if err := s.validate.Struct(a); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.alerts.Append(a)
	if err != nil {
		s.log.Error("could not persist alert", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "could not persist alert")
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.alerts.Load())
}
