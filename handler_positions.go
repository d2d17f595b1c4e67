package busalerts

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/theoremus-urban-solutions/bus-proximity-alerts/feed"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/positions"
)

// handlePositionsByRoute returns the current deduplicated positions of
// every vehicle on the requested route. An unknown route is not an
// error; it returns an empty list.
func (s *Server) handlePositionsByRoute(w http.ResponseWriter, r *http.Request) {
	route := mux.Vars(r)["route"]

	now := time.Now()
	snap, err := s.cache.Get(r.Context(), now)
	if err != nil {
		if errors.Is(err, feed.ErrUpstreamUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "vehicle position feed is unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not load vehicle positions")
		return
	}

	current := positions.Normalize(snap.Records, now.In(s.loc), s.loc)
	writeJSON(w, http.StatusOK, positions.FilterByRoute(current, route))
}
