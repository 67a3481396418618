package web

import (
	"encoding/json"
	"net/http"
)

type findSimilarRequest struct {
	PhotoID     string  `json:"photo_id"`
	Limit       int     `json:"limit"`
	MaxDistance float64 `json:"max_distance"`
}

// FindSimilar returns photos visually similar to the given one, nearest
// first, based on cached feature prints.
func (h *Handlers) FindSimilar(w http.ResponseWriter, r *http.Request) {
	var req findSimilarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PhotoID == "" {
		respondError(w, http.StatusBadRequest, "photo_id is required")
		return
	}

	matches, err := h.Searcher.Similar(r.Context(), req.PhotoID, req.Limit, req.MaxDistance)
	if err != nil {
		h.Logger.Error("similarity search failed", "photo", req.PhotoID, "error", err)
		respondError(w, http.StatusInternalServerError, "similarity search failed")
		return
	}
	if matches == nil {
		respondError(w, http.StatusNotFound, "photo has no feature print")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"photo_id": req.PhotoID,
		"matches":  matches,
		"count":    len(matches),
	})
}
