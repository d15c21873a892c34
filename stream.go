package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/eric-unc/adder-codec-go/internal/adu"
	"github.com/eric-unc/adder-codec-go/internal/bio"
	"github.com/eric-unc/adder-codec-go/internal/event"
)

func numChannels(meta CodecMetadata) int {
	if meta.Plane.Channels == 0 {
		return 1
	}
	return int(meta.Plane.Channels)
}

func windowSize(meta CodecMetadata) event.AbsoluteT {
	return event.AbsoluteT(meta.RefInterval) * event.AbsoluteT(meta.NumIntervals())
}

// CompressedOutput accumulates ingested events into successive ADUs and
// writes each, length-prefixed, to the underlying stream as soon as its
// temporal window is exceeded.
type CompressedOutput struct {
	w    io.Writer
	meta CodecMetadata
	adu  *adu.EventAdu
}

// NewCompressedOutput creates a writer-side stream starting its first
// ADU at t=0.
func NewCompressedOutput(w io.Writer, meta CodecMetadata) *CompressedOutput {
	return &CompressedOutput{
		w:    w,
		meta: meta,
		adu:  newEventAdu(0, meta),
	}
}

func newEventAdu(startT event.AbsoluteT, meta CodecMetadata) *adu.EventAdu {
	return adu.NewEventAdu(startT, numChannels(meta), meta.NumIntervals(), meta.RefInterval, meta.DeltaTMax, meta.IntegrationMode)
}

// IngestEvent buffers e into the current ADU, flushing and starting a
// fresh one first if e's timestamp falls outside the current ADU's
// window.
func (o *CompressedOutput) IngestEvent(e event.Event) error {
	if o.adu.Exceeded(e.T) {
		if err := o.flush(); err != nil {
			return err
		}
		// Each Adu's window is inclusive of its last tick (EndT), so the
		// next Adu starts one tick past it; period is the window's full
		// tick count (inclusive span plus the tick at index zero).
		period := windowSize(o.meta) + 1
		start := o.adu.EndT() + 1
		if e.T >= start+period {
			start = (e.T / period) * period
		}
		o.adu = newEventAdu(start, o.meta)
	}

	channelIdx := 0
	if e.Coord.C != nil {
		channelIdx = int(*e.Coord.C)
	}
	o.adu.Place(channelIdx, e.Coord.X, e.Coord.Y, event.EventCoordless{D: e.D, DeltaT: event.DeltaT(e.T)})
	return nil
}

// Flush compresses and writes the current ADU even though its window has
// not been exceeded yet. Callers must call this once after the last
// IngestEvent, or the final partial ADU is lost.
func (o *CompressedOutput) Flush() error {
	return o.flush()
}

func (o *CompressedOutput) flush() error {
	payload, err := o.adu.Compress()
	if err != nil {
		return fmt.Errorf("compressing adu: %w", err)
	}
	w := bio.NewWriter(o.w)
	if err := w.WriteUint32BE(uint32(len(payload))); err != nil {
		return fmt.Errorf("writing adu length: %w", err)
	}
	if err := w.WriteBytes(payload); err != nil {
		return fmt.Errorf("writing adu payload: %w", err)
	}
	return nil
}

// CompressedInput decodes successive length-prefixed ADUs and hands back
// their events one at a time.
type CompressedInput struct {
	r       io.Reader
	meta    CodecMetadata
	pending []event.Event
}

// NewCompressedInput creates a reader-side stream.
func NewCompressedInput(r io.Reader, meta CodecMetadata) *CompressedInput {
	return &CompressedInput{r: r, meta: meta}
}

// DigestEvent returns the next event in the stream, decoding further
// ADUs as needed. Returns ErrEndOfFile (checkable via errors.Is) once the
// stream is exhausted.
func (in *CompressedInput) DigestEvent() (event.Event, error) {
	for len(in.pending) == 0 {
		if err := in.decodeNextAdu(); err != nil {
			return event.Event{}, err
		}
	}
	e := in.pending[0]
	in.pending = in.pending[1:]
	return e, nil
}

func (in *CompressedInput) decodeNextAdu() error {
	r := bio.NewReader(in.r)

	length, err := r.ReadUint32BE()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEndOfFile
		}
		return &CodecError{Kind: ErrorKindDeserialize, Msg: "reading adu length", Err: err}
	}

	payload, err := r.ReadBytes(int(length))
	if err != nil {
		return &CodecError{Kind: ErrorKindDeserialize, Msg: "reading adu payload", Err: err}
	}

	decoded, err := adu.Decompress(payload, numChannels(in.meta), in.meta.RefInterval, in.meta.DeltaTMax, in.meta.IntegrationMode)
	if err != nil {
		return &CodecError{Kind: ErrorKindDeserialize, Msg: "decoding adu", Err: err}
	}

	in.pending = decoded.Events()
	return nil
}

// EncodeAll ingests every event in events in order, then flushes the
// final partial ADU, writing the whole stream to w.
func EncodeAll(w io.Writer, meta CodecMetadata, events []event.Event) error {
	out := NewCompressedOutput(w, meta)
	for _, e := range events {
		if err := out.IngestEvent(e); err != nil {
			return err
		}
	}
	return out.Flush()
}

// DecodeAll reads every event out of r until end of stream.
func DecodeAll(r io.Reader, meta CodecMetadata) ([]event.Event, error) {
	in := NewCompressedInput(r, meta)
	var out []event.Event
	for {
		e, err := in.DigestEvent()
		if errors.Is(err, ErrEndOfFile) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}
