package busalerts

import "net/http"

type healthResponse struct {
	Status        string `json:"status"`
	LastFetchedAt int64  `json:"last_fetched_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		LastFetchedAt: s.cache.LastFetchedAt(),
	})
}
