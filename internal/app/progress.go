package app

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/yourusername/ytgrab/internal/domain"
)

// ProgressTracker converts raw engine callbacks into the typed event stream.
// Fractions are clamped to [0,1] and never decrease for the lifetime of one
// request, even across strategy attempts that restart the transfer.
type ProgressTracker struct {
	mu           sync.Mutex
	last         float64
	lastFilename string
	publish      func(domain.ProgressEvent)
}

// NewProgressTracker creates a tracker publishing to the given sink. A nil
// sink discards events.
func NewProgressTracker(publish func(domain.ProgressEvent)) *ProgressTracker {
	if publish == nil {
		publish = func(domain.ProgressEvent) {}
	}
	return &ProgressTracker{publish: publish}
}

// Probing emits the single pre-transfer event.
func (t *ProgressTracker) Probing() {
	t.publish(domain.ProgressEvent{
		Phase: domain.PhaseProbing,
		Label: "Fetching metadata",
	})
}

// Handle is the engine progress callback. It must never block; the sink is
// expected to be non-blocking as well.
func (t *ProgressTracker) Handle(raw domain.RawProgress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if raw.Filename != "" {
		t.lastFilename = raw.Filename
	}

	if raw.Status == "finished" {
		t.last = 1.0
		t.publish(domain.ProgressEvent{
			Phase:         domain.PhaseFinished,
			BytesDone:     raw.BytesDone,
			BytesTotal:    raw.BytesTotal,
			Fraction:      1.0,
			FractionKnown: true,
			Label:         fmt.Sprintf("Completed: %s", filepath.Base(raw.Filename)),
		})
		return
	}

	known := raw.BytesTotal > 0
	fraction := t.last
	if known {
		f := float64(raw.BytesDone) / float64(raw.BytesTotal)
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		if f > t.last {
			t.last = f
		}
		fraction = t.last
	}

	t.publish(domain.ProgressEvent{
		Phase:         domain.PhaseDownloading,
		BytesDone:     raw.BytesDone,
		BytesTotal:    raw.BytesTotal,
		Fraction:      fraction,
		FractionKnown: known,
		Label:         fmt.Sprintf("Downloading: %s", filepath.Base(raw.Filename)),
	})
}

// LastFilename returns the filename the engine most recently reported.
func (t *ProgressTracker) LastFilename() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastFilename
}

// Fraction returns the current clamped fraction.
func (t *ProgressTracker) Fraction() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
