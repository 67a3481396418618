package web

import (
	"net/http"
)

// Stats returns cache statistics plus the people album size.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Cache.Statistics(r.Context())
	if err != nil {
		h.Logger.Error("could not load statistics", "error", err)
		respondError(w, http.StatusInternalServerError, "could not load statistics")
		return
	}

	byCategory := make(map[string]int, len(stats.ByCategory))
	for category, count := range stats.ByCategory {
		byCategory[string(category)] = count
	}

	response := map[string]any{
		"analyzed_photos": stats.Total,
		"by_category":     byCategory,
	}

	if h.People != nil {
		people, err := h.People.AlbumAssetCount(r.Context())
		if err != nil {
			h.Logger.Warn("could not count people album", "error", err)
		} else {
			response["people_photos"] = people
		}
	}

	respondJSON(w, http.StatusOK, response)
}
