package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytgrab/internal/domain"
)

func collectEvents() (*[]domain.ProgressEvent, func(domain.ProgressEvent)) {
	events := &[]domain.ProgressEvent{}
	return events, func(e domain.ProgressEvent) { *events = append(*events, e) }
}

func TestTrackerFractionsMonotonicAndClamped(t *testing.T) {
	events, sink := collectEvents()
	tracker := NewProgressTracker(sink)

	tracker.Handle(domain.RawProgress{Status: "downloading", BytesDone: 250, BytesTotal: 1000, Filename: "a.mp4"})
	tracker.Handle(domain.RawProgress{Status: "downloading", BytesDone: 500, BytesTotal: 1000, Filename: "a.mp4"})
	// Regression from the engine must not move the fraction backwards.
	tracker.Handle(domain.RawProgress{Status: "downloading", BytesDone: 100, BytesTotal: 1000, Filename: "a.mp4"})
	// Overshoot clamps to 1.
	tracker.Handle(domain.RawProgress{Status: "downloading", BytesDone: 2000, BytesTotal: 1000, Filename: "a.mp4"})

	require.Len(t, *events, 4)
	prev := 0.0
	for _, e := range *events {
		assert.GreaterOrEqual(t, e.Fraction, prev)
		assert.GreaterOrEqual(t, e.Fraction, 0.0)
		assert.LessOrEqual(t, e.Fraction, 1.0)
		assert.True(t, e.FractionKnown)
		prev = e.Fraction
	}
	assert.Equal(t, 0.25, (*events)[0].Fraction)
	assert.Equal(t, 0.5, (*events)[1].Fraction)
	assert.Equal(t, 0.5, (*events)[2].Fraction)
	assert.Equal(t, 1.0, (*events)[3].Fraction)
}

func TestTrackerUnknownTotal(t *testing.T) {
	events, sink := collectEvents()
	tracker := NewProgressTracker(sink)

	tracker.Handle(domain.RawProgress{Status: "downloading", BytesDone: 4096, BytesTotal: 0, Filename: "a.mp4"})

	require.Len(t, *events, 1)
	assert.False(t, (*events)[0].FractionKnown)
	assert.Equal(t, 0.0, (*events)[0].Fraction)
	assert.Equal(t, int64(4096), (*events)[0].BytesDone)
}

func TestTrackerFinished(t *testing.T) {
	events, sink := collectEvents()
	tracker := NewProgressTracker(sink)

	tracker.Handle(domain.RawProgress{Status: "downloading", BytesDone: 300, BytesTotal: 1000, Filename: "/tmp/work/a.mp4"})
	tracker.Handle(domain.RawProgress{Status: "finished", BytesDone: 1000, BytesTotal: 1000, Filename: "/tmp/work/a.mp4"})

	require.Len(t, *events, 2)
	final := (*events)[1]
	assert.Equal(t, domain.PhaseFinished, final.Phase)
	assert.Equal(t, 1.0, final.Fraction)
	assert.True(t, final.FractionKnown)
	assert.Equal(t, "Completed: a.mp4", final.Label)
	assert.Equal(t, "/tmp/work/a.mp4", tracker.LastFilename())
}

func TestTrackerHoldsFractionAcrossRestart(t *testing.T) {
	events, sink := collectEvents()
	tracker := NewProgressTracker(sink)

	// First attempt reaches 40%, then a new strategy restarts from zero.
	tracker.Handle(domain.RawProgress{Status: "downloading", BytesDone: 400, BytesTotal: 1000})
	tracker.Handle(domain.RawProgress{Status: "downloading", BytesDone: 10, BytesTotal: 1000})

	assert.Equal(t, 0.4, (*events)[1].Fraction)
	assert.Equal(t, 0.4, tracker.Fraction())
}

func TestTrackerProbingEvent(t *testing.T) {
	events, sink := collectEvents()
	tracker := NewProgressTracker(sink)

	tracker.Probing()

	require.Len(t, *events, 1)
	assert.Equal(t, domain.PhaseProbing, (*events)[0].Phase)
}

func TestTrackerNilSink(t *testing.T) {
	tracker := NewProgressTracker(nil)
	assert.NotPanics(t, func() {
		tracker.Handle(domain.RawProgress{Status: "downloading", BytesDone: 1, BytesTotal: 2})
	})
}

func TestProgressHubFanOut(t *testing.T) {
	hub := NewProgressHub()

	ch1, cancel1 := hub.Subscribe("job-1")
	ch2, cancel2 := hub.Subscribe("job-1")
	other, cancelOther := hub.Subscribe("job-2")
	defer cancel1()
	defer cancel2()
	defer cancelOther()

	hub.Publish("job-1", domain.ProgressEvent{Phase: domain.PhaseDownloading, Fraction: 0.5})

	assert.Len(t, ch1, 1)
	assert.Len(t, ch2, 1)
	assert.Len(t, other, 0)
}

func TestProgressHubPublishNeverBlocks(t *testing.T) {
	hub := NewProgressHub()
	_, cancel := hub.Subscribe("job-1")
	defer cancel()

	assert.NotPanics(t, func() {
		for i := 0; i < 100; i++ {
			hub.Publish("job-1", domain.ProgressEvent{Fraction: float64(i) / 100})
		}
	})
}

func TestProgressHubUnsubscribe(t *testing.T) {
	hub := NewProgressHub()
	ch, cancel := hub.Subscribe("job-1")
	cancel()

	hub.Publish("job-1", domain.ProgressEvent{Fraction: 0.5})
	assert.Len(t, ch, 0)
}
