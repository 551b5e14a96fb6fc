package app

import (
	"sync"

	"github.com/yourusername/ytgrab/internal/domain"
)

// ProgressHub fans progress events out to API subscribers by download id.
// Publishing never blocks; a subscriber that falls behind loses ticks, not
// the terminal event ordering.
type ProgressHub struct {
	mu   sync.RWMutex
	subs map[string][]chan domain.ProgressEvent
}

// NewProgressHub creates a new progress hub
func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subs: make(map[string][]chan domain.ProgressEvent),
	}
}

// Subscribe registers a listener for one download id. The returned cancel
// function must be called exactly once when the listener is done.
func (h *ProgressHub) Subscribe(id string) (<-chan domain.ProgressEvent, func()) {
	ch := make(chan domain.ProgressEvent, 32)

	h.mu.Lock()
	h.subs[id] = append(h.subs[id], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		chans := h.subs[id]
		for i, c := range chans {
			if c == ch {
				h.subs[id] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
		if len(h.subs[id]) == 0 {
			delete(h.subs, id)
		}
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers of the id without blocking.
func (h *ProgressHub) Publish(id string, event domain.ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[id] {
		select {
		case ch <- event:
		default:
		}
	}
}
