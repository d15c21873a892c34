package adu

import (
	"github.com/eric-unc/adder-codec-go/internal/block"
	"github.com/eric-unc/adder-codec-go/internal/event"
)

// EventAdu wraps an in-progress Adu with the bookkeeping an ingest loop
// needs to know when the Adu's temporal window has been exceeded.
type EventAdu struct {
	*Adu
	NumIntervals int
}

// NewEventAdu creates an empty Adu covering [headEventT, headEventT +
// dtRef*numIntervals], both ends included.
func NewEventAdu(headEventT event.AbsoluteT, numChannels, numIntervals int, dtRef, dtm event.DeltaT, timeMode event.Mode) *EventAdu {
	return &EventAdu{
		Adu:          NewAdu(headEventT, numChannels, dtRef, dtm, timeMode),
		NumIntervals: numIntervals,
	}
}

// EndT is the last timestamp still inside this Adu's temporal window;
// headEventT + dtRef*numIntervals itself belongs to this Adu, and only a
// timestamp strictly greater than it exceeds the window.
func (a *EventAdu) EndT() event.AbsoluteT {
	return a.HeadEventT + event.AbsoluteT(a.dtRef)*event.AbsoluteT(a.NumIntervals)
}

// Exceeded reports whether t falls outside this Adu's temporal window and
// the caller must flush and start a fresh Adu before placing it.
func (a *EventAdu) Exceeded(t event.AbsoluteT) bool {
	return t > a.EndT()
}

// Place buffers ev at the tile and reference-interval phase its timestamp
// falls in (or, when the pixel already has an event buffered in that
// phase, the next block with a free slot for it). An event earlier than HeadEventT — a late, out-of-order
// arrival relative to this Adu — is clamped to phase 0 rather than
// rejected: an already-active Adu has nowhere earlier to put it, and the
// spec requires it remain recoverable rather than silently dropped.
func (a *EventAdu) Place(channelIdx int, x, y uint16, ev event.EventCoordless) {
	idxY := y / block.Size
	idxX := x / block.Size
	localIdx := int(y%block.Size)*block.Size + int(x%block.Size)

	phase := 0
	if t := event.AbsoluteT(ev.DeltaT); t > a.HeadEventT {
		phase = int((t - a.HeadEventT) / a.dtRef)
	}
	if phase >= a.NumIntervals {
		phase = a.NumIntervals - 1
	}

	eventCopy := ev
	a.Channel(channelIdx).cubeFor(idxY, idxX).place(phase, localIdx, &eventCopy)
}
