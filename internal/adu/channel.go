package adu

import (
	"github.com/eric-unc/adder-codec-go/internal/event"
	"github.com/eric-unc/adder-codec-go/internal/fenwick"
	"github.com/eric-unc/adder-codec-go/internal/rangecoder"
)

// channel holds the cubes for one color plane, keyed by their (idx_y,
// idx_x) block coordinate so ingestion can look a tile up without a
// linear scan.
type channel struct {
	order []cubeKey
	cubes map[cubeKey]*cube
}

type cubeKey struct {
	idxY, idxX uint16
}

func newChannel() *channel {
	return &channel{cubes: make(map[cubeKey]*cube)}
}

// cubeFor returns the cube at (idxY, idxX), creating it (and recording its
// place in iteration order) on first reference.
func (ch *channel) cubeFor(idxY, idxX uint16) *cube {
	key := cubeKey{idxY, idxX}
	c, ok := ch.cubes[key]
	if !ok {
		c = newCube(idxY, idxX)
		ch.cubes[key] = c
		ch.order = append(ch.order, key)
	}
	return c
}

// compress writes num_cubes followed by every cube that actually
// accumulated an event; a tile with no events is simply absent, matching
// the convention that a cube only exists when at least one pixel fired.
func (ch *channel) compress(enc *rangecoder.Encoder, model *fenwick.SwitchingModel, dtRef, dtm event.DeltaT, timeMode event.Mode) error {
	present := make([]*cube, 0, len(ch.order))
	for _, key := range ch.order {
		c := ch.cubes[key]
		if len(c.blocks) == 0 {
			continue
		}
		present = append(present, c)
	}

	if err := writeUint16ThroughU8(enc, model, uint16(len(present))); err != nil {
		return err
	}
	for _, c := range present {
		if err := c.compress(enc, model, dtRef, dtm, timeMode); err != nil {
			return err
		}
	}
	return nil
}

// decompressChannel reads a channel's cube list back.
func decompressChannel(dec *rangecoder.Decoder, model *fenwick.SwitchingModel, dtRef, dtm event.DeltaT, timeMode event.Mode) (*channel, error) {
	numCubes, err := readUint16ThroughU8(dec, model)
	if err != nil {
		return nil, err
	}

	ch := newChannel()
	for i := 0; i < int(numCubes); i++ {
		c, err := decompressCube(dec, model, dtRef, dtm, timeMode)
		if err != nil {
			return nil, err
		}
		key := cubeKey{c.idxY, c.idxX}
		ch.cubes[key] = c
		ch.order = append(ch.order, key)
	}
	return ch, nil
}
