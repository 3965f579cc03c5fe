package api

import "net/http"

func (s *Server) handleLatencyStats(w http.ResponseWriter, r *http.Request) {
	if s.latency == nil {
		jsonError(w, "latency stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"backend": s.validator.Scorer().Backend(),
		"stats":   s.latency.Snapshot(),
	})
}
