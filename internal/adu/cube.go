package adu

import (
	"github.com/eric-unc/adder-codec-go/internal/block"
	"github.com/eric-unc/adder-codec-go/internal/event"
	"github.com/eric-unc/adder-codec-go/internal/fenwick"
	"github.com/eric-unc/adder-codec-go/internal/rangecoder"
)

// cube holds one spatial tile's raw events across an Adu's temporal
// extent: blocks[0] is the intra-coded reference interval, blocks[1:]
// are inter-coded against the reconstructed history of the interval
// before them.
type cube struct {
	idxY, idxX uint16
	blocks     [][block.Area]*event.EventCoordless
}

func newCube(idxY, idxX uint16) *cube {
	return &cube{idxY: idxY, idxX: idxX}
}

// ensureBlock grows blocks so that index phase exists, returning it.
func (c *cube) ensureBlock(phase int) *[block.Area]*event.EventCoordless {
	for len(c.blocks) <= phase {
		c.blocks = append(c.blocks, [block.Area]*event.EventCoordless{})
	}
	return &c.blocks[phase]
}

// place records ev at the tile-local pixel position in the block for the
// given phase. When that position already holds an earlier event, ev goes
// to the first later block whose position is still free, so no buffered
// event is overwritten.
func (c *cube) place(phase, localIdx int, ev *event.EventCoordless) {
	for phase < len(c.blocks) && c.blocks[phase][localIdx] != nil {
		phase++
	}
	b := c.ensureBlock(phase)
	b[localIdx] = ev
}

// numInterBlocks returns how many inter blocks this cube holds, i.e. its
// block count minus the mandatory intra block. A cube with no events
// buffered yet still reports zero (it is a skip cube and should not be
// coded at all).
func (c *cube) numInterBlocks() int {
	if len(c.blocks) == 0 {
		return 0
	}
	return len(c.blocks) - 1
}

// compress emits this cube's header and blocks: {idx_y, idx_x,
// num_inter_blocks} through the u8 context, then the intra block
// followed by every inter block, predicting each against the
// reconstructed state of the one before it.
func (c *cube) compress(enc *rangecoder.Encoder, model *fenwick.SwitchingModel, dtRef, dtm event.DeltaT, timeMode event.Mode) error {
	if err := writeUint16ThroughU8(enc, model, c.idxY); err != nil {
		return err
	}
	if err := writeUint16ThroughU8(enc, model, c.idxX); err != nil {
		return err
	}
	if err := writeUint16ThroughU8(enc, model, uint16(c.numInterBlocks())); err != nil {
		return err
	}

	if len(c.blocks) == 0 {
		return nil
	}

	pm := block.NewPredictionModel(timeMode)

	startDeltaT, startD, dResiduals, dtResidualsI16, sparam := pm.ForwardIntraPrediction(0, dtRef, dtm, c.blocks[0])
	intra := &wireBlock{
		isIntra:        true,
		headEventD:     startD,
		headEventT:     event.AbsoluteT(startDeltaT),
		shiftLossParam: 0,
		sparam:         sparam,
		dResiduals:     *dResiduals,
		dtResidualsI16: *dtResidualsI16,
	}
	if err := intra.compress(enc, model); err != nil {
		return err
	}

	for phase := 1; phase < len(c.blocks); phase++ {
		dResiduals, dtResidualsI16, sparam := pm.ForwardInterPrediction(0, dtm, dtRef, c.blocks[phase])
		inter := &wireBlock{
			shiftLossParam: 0,
			sparam:         sparam,
			dResiduals:     *dResiduals,
			dtResidualsI16: *dtResidualsI16,
		}
		if err := inter.compress(enc, model); err != nil {
			return err
		}
	}
	return nil
}

// decompressCube reads one cube's header and blocks back, reconstructing
// every pixel's event grid via the inverse prediction path. A cube with
// no buffered events is never written to the stream at all (see
// numInterBlocks), so every call here reads at least one intra block.
func decompressCube(dec *rangecoder.Decoder, model *fenwick.SwitchingModel, dtRef, dtm event.DeltaT, timeMode event.Mode) (*cube, error) {
	idxY, err := readUint16ThroughU8(dec, model)
	if err != nil {
		return nil, err
	}
	idxX, err := readUint16ThroughU8(dec, model)
	if err != nil {
		return nil, err
	}
	numInterBlocks, err := readUint16ThroughU8(dec, model)
	if err != nil {
		return nil, err
	}

	c := newCube(idxY, idxX)
	pm := block.NewPredictionModel(timeMode)

	intra, err := decompressBlock(dec, model, true)
	if err != nil {
		return nil, err
	}

	events := pm.InverseIntraPrediction(intra.headEventD, intra.headEventT, intra.dResiduals, intra.dtResidualsI16, intra.sparam, dtRef)
	c.ensureBlock(0)
	c.blocks[0] = events

	for i := 0; i < int(numInterBlocks); i++ {
		wb, err := decompressBlock(dec, model, false)
		if err != nil {
			return nil, err
		}
		pm.SetResidualsForInverse(wb.dResiduals, wb.dtResidualsI16)
		decoded := pm.InverseInterPrediction(wb.sparam, dtm, dtRef)
		c.ensureBlock(i + 1)
		c.blocks[i+1] = decoded
	}

	return c, nil
}
