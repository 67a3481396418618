package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mholecy/photo-triage/internal/categories"
	"github.com/mholecy/photo-triage/internal/photos"
	"github.com/mholecy/photo-triage/internal/store"
)

type photoResponse struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	CreatedAt string `json:"created_at"`
}

func toPhotoResponses(refs []photos.Ref) []photoResponse {
	out := make([]photoResponse, len(refs))
	for i, ref := range refs {
		out[i] = photoResponse{
			ID:        ref.ID,
			Path:      ref.Path,
			CreatedAt: ref.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	return out
}

// ListCategory returns the live photos of a smart category.
// Query parameters: limit, sort (newest|oldest|random), exclude (repeatable).
func (h *Handlers) ListCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := store.ParseCategory(chi.URLParam(r, "name"))
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown category")
		return
	}

	sortBy, err := categories.ParseSortOption(r.URL.Query().Get("sort"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	refs, err := h.Index.Fetch(r.Context(), category, limit, r.URL.Query()["exclude"], sortBy)
	if err != nil {
		h.Logger.Error("category listing failed", "category", string(category), "error", err)
		respondError(w, http.StatusInternalServerError, "could not list category")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"category": string(category),
		"photos":   toPhotoResponses(refs),
		"count":    len(refs),
	})
}

// ListDuplicates returns the current duplicate groups, computed read-only
// from cached feature prints.
func (h *Handlers) ListDuplicates(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Cache.IDsWithFeaturePrint(r.Context())
	if err != nil {
		h.Logger.Error("could not list feature prints", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list duplicates")
		return
	}

	groups, err := h.Clusterer.FindGroups(r.Context(), ids)
	if err != nil {
		h.Logger.Error("duplicate clustering failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list duplicates")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"groups": groups,
		"count":  len(groups),
	})
}
