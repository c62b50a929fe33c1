package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleEmbeddingStats(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil || s.cache.Stats() == nil {
		jsonError(w, "embedding stats unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := map[string]any{
		"model":       s.cache.Model(),
		"stats":       s.cache.Stats().Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	}
	if n, err := s.cache.Len(r.Context()); err != nil {
		s.log.Warn("cache size unavailable", "error", err)
	} else {
		resp["cache_entries"] = n
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
