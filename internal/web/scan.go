package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/mholecy/photo-triage/internal/photos"
)

type startScanRequest struct {
	ExcludeIDs []string `json:"exclude_ids"`
}

// StartScan kicks off a foreground scan. An in-flight scan is canceled and
// replaced; the response carries the initial progress snapshot.
func (h *Handlers) StartScan(w http.ResponseWriter, r *http.Request) {
	var req startScanRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	// The scan must outlive this request, so it runs on the background
	// context rather than the request's.
	h.Orchestrator.Start(context.Background(), photos.Filter{ExcludeIDs: req.ExcludeIDs})

	respondJSON(w, http.StatusAccepted, h.Orchestrator.Progress())
}

// CancelScan stops the in-flight scan, if any.
func (h *Handlers) CancelScan(w http.ResponseWriter, r *http.Request) {
	h.Orchestrator.Cancel()
	respondJSON(w, http.StatusOK, h.Orchestrator.Progress())
}

// ScanStatus returns the current progress snapshot.
func (h *Handlers) ScanStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Orchestrator.Progress())
}

// ScanEvents streams progress snapshots as server-sent events until the
// client disconnects.
func (h *Handlers) ScanEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events := h.Orchestrator.Subscribe()
	defer h.Orchestrator.Unsubscribe(events)

	sendSSEEvent(w, flusher, "progress", h.Orchestrator.Progress())

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, "progress", event)
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = w.Write(jsonData)
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
