package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/eric-unc/adder-codec-go/internal/event"
)

func testMetadata() CodecMetadata {
	return DefaultMetadata(event.PlaneSize{Width: 64, Height: 64, Channels: 1}, 1000, 1, DefaultCRF)
}

func TestEncodeDecodeRoundTripSingleAdu(t *testing.T) {
	meta := testMetadata()
	events := []event.Event{
		{Coord: event.Coord{X: 2, Y: 3}, T: 10, D: 8},
		{Coord: event.Coord{X: 2, Y: 3}, T: 500, D: 8},
		{Coord: event.Coord{X: 40, Y: 40}, T: 200, D: 6},
	}

	var buf bytes.Buffer
	if err := EncodeAll(&buf, meta, events); err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}

	got, err := DecodeAll(bytes.NewReader(buf.Bytes()), meta)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("decoded %d events, want %d", len(got), len(events))
	}
}

func TestEncodeDecodeRoundTripMultipleAdus(t *testing.T) {
	meta := testMetadata()
	window := windowSize(meta)
	events := []event.Event{
		{Coord: event.Coord{X: 1, Y: 1}, T: 10, D: 8},
		{Coord: event.Coord{X: 1, Y: 1}, T: uint32(window) + 10, D: 8},
		{Coord: event.Coord{X: 1, Y: 1}, T: uint32(window)*5 + 10, D: 8},
	}

	var buf bytes.Buffer
	if err := EncodeAll(&buf, meta, events); err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}

	got, err := DecodeAll(bytes.NewReader(buf.Bytes()), meta)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("decoded %d events, want %d", len(got), len(events))
	}
}

func TestEmptyStreamWithoutFlushProducesNoOutput(t *testing.T) {
	meta := testMetadata()
	var buf bytes.Buffer
	out := NewCompressedOutput(&buf, meta)
	if err := out.IngestEvent(event.Event{Coord: event.Coord{X: 0, Y: 0}, T: 10, D: 8}); err != nil {
		t.Fatalf("IngestEvent: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("buffer has %d bytes before Flush, want 0", buf.Len())
	}
	if err := out.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("buffer still empty after Flush")
	}
}

func TestDigestEventReturnsEndOfFile(t *testing.T) {
	meta := testMetadata()
	var buf bytes.Buffer
	if err := EncodeAll(&buf, meta, nil); err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}

	in := NewCompressedInput(bytes.NewReader(buf.Bytes()), meta)
	if _, err := in.DigestEvent(); !errors.Is(err, ErrEndOfFile) {
		t.Fatalf("err = %v, want ErrEndOfFile", err)
	}
}

func TestDecodeAllRejectsTruncatedStream(t *testing.T) {
	meta := testMetadata()
	events := []event.Event{{Coord: event.Coord{X: 5, Y: 5}, T: 10, D: 8}}

	var buf bytes.Buffer
	if err := EncodeAll(&buf, meta, events); err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}

	truncated := buf.Bytes()[:buf.Len()-1]
	if _, err := DecodeAll(bytes.NewReader(truncated), meta); err == nil {
		t.Fatal("expected an error decoding a truncated stream")
	}
}
