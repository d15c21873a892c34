package adu

import (
	"bytes"
	"fmt"

	"github.com/eric-unc/adder-codec-go/internal/block"
	"github.com/eric-unc/adder-codec-go/internal/event"
	"github.com/eric-unc/adder-codec-go/internal/fenwick"
	"github.com/eric-unc/adder-codec-go/internal/rangecoder"
)

// eofSymbol is the single end-of-sequence symbol coded through eofContext
// after an Adu's last channel.
const eofSymbol = 0

// Adu is an Access-Decodable Unit: every event whose absolute timestamp
// falls in one contiguous window, split into one Channel per color plane.
type Adu struct {
	HeadEventT event.AbsoluteT

	channels []*channel

	dtRef    event.DeltaT
	dtm      event.DeltaT
	timeMode event.Mode
}

// NewAdu creates an empty Adu starting at headEventT, with one channel per
// color plane (ordered R, G, B when numChannels is 3; a single luminance
// channel otherwise).
func NewAdu(headEventT event.AbsoluteT, numChannels int, dtRef, dtm event.DeltaT, timeMode event.Mode) *Adu {
	a := &Adu{
		HeadEventT: headEventT,
		channels:   make([]*channel, numChannels),
		dtRef:      dtRef,
		dtm:        dtm,
		timeMode:   timeMode,
	}
	for i := range a.channels {
		a.channels[i] = newChannel()
	}
	return a
}

// Channel returns the channel for color plane index c (0-based; 0=R/lum,
// 1=G, 2=B), creating nothing further since NewAdu pre-allocates all of
// them.
func (a *Adu) Channel(c int) *channel {
	return a.channels[c]
}

// NumChannels reports how many color planes this Adu carries.
func (a *Adu) NumChannels() int {
	return len(a.channels)
}

// Compress serializes the Adu to a self-contained byte payload: a fresh
// arithmetic coder and context set, head_event_t, every channel in order,
// the end-of-sequence symbol, then a flush to byte alignment.
func (a *Adu) Compress() ([]byte, error) {
	var buf bytes.Buffer
	enc := rangecoder.NewEncoder(&buf)
	model := fenwick.NewSwitchingModel()

	if err := writeUint32ThroughU8(enc, model, uint32(a.HeadEventT)); err != nil {
		return nil, fmt.Errorf("adu: writing head_event_t: %w", err)
	}

	for i, ch := range a.channels {
		if err := ch.compress(enc, model, a.dtRef, a.dtm, a.timeMode); err != nil {
			return nil, fmt.Errorf("adu: compressing channel %d: %w", i, err)
		}
	}

	model.SetContext(fenwick.EOFContext)
	if err := enc.Encode(model, eofSymbol); err != nil {
		return nil, fmt.Errorf("adu: writing end-of-sequence symbol: %w", err)
	}

	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("adu: flushing coder: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress reconstructs an Adu from a payload previously produced by
// Compress.
func Decompress(payload []byte, numChannels int, dtRef, dtm event.DeltaT, timeMode event.Mode) (*Adu, error) {
	dec, err := rangecoder.NewDecoder(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("adu: priming decoder: %w", err)
	}
	model := fenwick.NewSwitchingModel()

	headEventT, err := readUint32ThroughU8(dec, model)
	if err != nil {
		return nil, fmt.Errorf("adu: reading head_event_t: %w", err)
	}

	a := &Adu{
		HeadEventT: event.AbsoluteT(headEventT),
		channels:   make([]*channel, numChannels),
		dtRef:      dtRef,
		dtm:        dtm,
		timeMode:   timeMode,
	}
	for i := range a.channels {
		ch, err := decompressChannel(dec, model, dtRef, dtm, timeMode)
		if err != nil {
			return nil, fmt.Errorf("adu: decompressing channel %d: %w", i, err)
		}
		a.channels[i] = ch
	}

	model.SetContext(fenwick.EOFContext)
	sym, err := dec.Decode(model)
	if err != nil {
		return nil, fmt.Errorf("adu: reading end-of-sequence symbol: %w", err)
	}
	if sym != eofSymbol {
		return nil, fmt.Errorf("adu: expected end-of-sequence symbol, got %d", sym)
	}

	return a, nil
}

// Events flattens every reconstructed event across all channels, tiles,
// and blocks into a plain slice, in cube/phase/position order (callers
// that need global time order sort this themselves).
func (a *Adu) Events() []event.Event {
	var out []event.Event
	for c, ch := range a.channels {
		var channelPtr *uint8
		if len(a.channels) > 1 {
			cc := uint8(c)
			channelPtr = &cc
		}
		for _, key := range ch.order {
			cu := ch.cubes[key]
			for _, blk := range cu.blocks {
				for localIdx, ev := range blk {
					if ev == nil {
						continue
					}
					x := key.idxX*block.Size + uint16(localIdx%block.Size)
					y := key.idxY*block.Size + uint16(localIdx/block.Size)
					out = append(out, event.Event{
						Coord: event.Coord{X: x, Y: y, C: channelPtr},
						T:     event.AbsoluteT(ev.DeltaT),
						D:     ev.D,
					})
				}
			}
		}
	}
	return out
}
