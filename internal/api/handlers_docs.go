package api

import (
	"encoding/json"
	"net/http"
)

// handleGetDocument reads a previously delivered result back from the
// downstream store.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if s.sink == nil {
		jsonError(w, "no result store configured", http.StatusServiceUnavailable)
		return
	}
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		jsonError(w, "reference query parameter is required", http.StatusBadRequest)
		return
	}

	rec, err := s.sink.GetResult(r.Context(), reference)
	if err != nil {
		jsonError(w, "failed to read result: "+err.Error(), http.StatusBadGateway)
		return
	}
	if rec == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}
