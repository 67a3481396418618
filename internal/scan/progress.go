package scan

import (
	"sync"

	"github.com/mholecy/photo-triage/internal/constants"
)

// Progress is a snapshot of the live scan state, safe to hand to UI layers.
type Progress struct {
	RunID          string `json:"run_id,omitempty"`
	IsScanning     bool   `json:"is_scanning"`
	Phase          string `json:"phase,omitempty"`
	TotalPhotos    int    `json:"total_photos"`
	AnalyzedPhotos int    `json:"analyzed_photos"`
}

// FractionComplete returns analyzed/total, or 0 before totals are known.
func (p Progress) FractionComplete() float64 {
	if p.TotalPhotos == 0 {
		return 0
	}
	return float64(p.AnalyzedPhotos) / float64(p.TotalPhotos)
}

// progressState holds the single live progress value and its subscribers.
// Only the owning orchestrator mutates it; everyone else gets snapshots.
type progressState struct {
	mu          sync.RWMutex
	current     Progress
	subscribers []chan Progress
}

// Current returns the latest snapshot.
func (s *progressState) Current() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe returns a channel of progress snapshots. Slow listeners drop
// updates instead of blocking the scan.
func (s *progressState) Subscribe() chan Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Progress, constants.EventChannelBuffer)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *progressState) Unsubscribe(ch chan Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// set replaces the snapshot and broadcasts it.
func (s *progressState) set(p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p
	s.broadcast(p)
}

// update applies a mutation to the snapshot and broadcasts the result.
func (s *progressState) update(fn func(*Progress)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.current
	fn(&p)
	s.current = p
	s.broadcast(p)
}

// broadcast sends the snapshot to every subscriber. Called with s.mu held:
// the sends are non-blocking, and holding the lock keeps Unsubscribe from
// closing a channel mid-send.
func (s *progressState) broadcast(p Progress) {
	for _, sub := range s.subscribers {
		select {
		case sub <- p:
		default:
			// Listener buffer full, skip.
		}
	}
}
