// Package adu implements the compressed Access-Decodable Unit hierarchy:
// Block -> Cube -> Channel -> Adu, each layer coded onto (or decoded from)
// a shared arithmetic coder and Fenwick context set, plus the event
// ingest/digest lifecycle that drives one Adu's worth of buffering.
package adu

import (
	"github.com/eric-unc/adder-codec-go/internal/block"
	"github.com/eric-unc/adder-codec-go/internal/event"
	"github.com/eric-unc/adder-codec-go/internal/fenwick"
	"github.com/eric-unc/adder-codec-go/internal/rangecoder"
)

// wireBlock is one block's coded form: the header fields plus the full
// 256-wide residual arrays, exactly as laid out on the wire. The intra
// head event is only meaningful (and only coded) when isIntra is true.
type wireBlock struct {
	isIntra bool

	headEventD event.D
	headEventT event.AbsoluteT

	shiftLossParam uint8
	sparam         uint8

	dResiduals     [block.Area]event.DResidual
	dtResidualsI16 [block.Area]int16
}

func writeByteThroughU8(enc *rangecoder.Encoder, model *fenwick.SwitchingModel, b byte) error {
	model.SetContext(fenwick.U8Context)
	return enc.Encode(model, int(b))
}

func readByteThroughU8(dec *rangecoder.Decoder, model *fenwick.SwitchingModel) (byte, error) {
	model.SetContext(fenwick.U8Context)
	sym, err := dec.Decode(model)
	if err != nil {
		return 0, err
	}
	return byte(sym), nil
}

func writeUint32ThroughU8(enc *rangecoder.Encoder, model *fenwick.SwitchingModel, v uint32) error {
	for shift := 24; shift >= 0; shift -= 8 {
		if err := writeByteThroughU8(enc, model, byte(v>>uint(shift))); err != nil {
			return err
		}
	}
	return nil
}

func readUint32ThroughU8(dec *rangecoder.Decoder, model *fenwick.SwitchingModel) (uint32, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		b, err := readByteThroughU8(dec, model)
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(b)
	}
	return v, nil
}

func writeUint16ThroughU8(enc *rangecoder.Encoder, model *fenwick.SwitchingModel, v uint16) error {
	if err := writeByteThroughU8(enc, model, byte(v>>8)); err != nil {
		return err
	}
	return writeByteThroughU8(enc, model, byte(v))
}

func readUint16ThroughU8(dec *rangecoder.Decoder, model *fenwick.SwitchingModel) (uint16, error) {
	hi, err := readByteThroughU8(dec, model)
	if err != nil {
		return 0, err
	}
	lo, err := readByteThroughU8(dec, model)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// compress writes this block's wire form: for an intra block, the head
// event pair first, then the shared header and residual arrays.
func (b *wireBlock) compress(enc *rangecoder.Encoder, model *fenwick.SwitchingModel) error {
	if b.isIntra {
		if err := writeByteThroughU8(enc, model, byte(b.headEventD)); err != nil {
			return err
		}
		if err := writeUint32ThroughU8(enc, model, uint32(b.headEventT)); err != nil {
			return err
		}
	}
	if err := writeByteThroughU8(enc, model, b.shiftLossParam); err != nil {
		return err
	}
	if err := writeByteThroughU8(enc, model, b.sparam); err != nil {
		return err
	}

	model.SetContext(fenwick.DContext)
	for _, r := range b.dResiduals {
		if err := enc.Encode(model, fenwick.EncodeDResidual(r)); err != nil {
			return err
		}
	}

	model.SetContext(fenwick.DtContext)
	for _, r := range b.dtResidualsI16 {
		if err := enc.Encode(model, fenwick.EncodeDtResidual(r)); err != nil {
			return err
		}
	}
	return nil
}

// decompressBlock reads one block's wire form back.
func decompressBlock(dec *rangecoder.Decoder, model *fenwick.SwitchingModel, isIntra bool) (*wireBlock, error) {
	b := &wireBlock{isIntra: isIntra}

	if isIntra {
		d, err := readByteThroughU8(dec, model)
		if err != nil {
			return nil, err
		}
		b.headEventD = event.D(d)

		t, err := readUint32ThroughU8(dec, model)
		if err != nil {
			return nil, err
		}
		b.headEventT = event.AbsoluteT(t)
	}

	shiftLoss, err := readByteThroughU8(dec, model)
	if err != nil {
		return nil, err
	}
	b.shiftLossParam = shiftLoss

	sparam, err := readByteThroughU8(dec, model)
	if err != nil {
		return nil, err
	}
	b.sparam = sparam

	model.SetContext(fenwick.DContext)
	for i := range b.dResiduals {
		sym, err := dec.Decode(model)
		if err != nil {
			return nil, err
		}
		b.dResiduals[i] = fenwick.DecodeDResidual(sym)
	}

	model.SetContext(fenwick.DtContext)
	for i := range b.dtResidualsI16 {
		sym, err := dec.Decode(model)
		if err != nil {
			return nil, err
		}
		b.dtResidualsI16[i] = fenwick.DecodeDtResidual(sym)
	}

	return b, nil
}
