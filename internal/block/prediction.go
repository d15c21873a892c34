package block

import "github.com/eric-unc/adder-codec-go/internal/event"

// PredictionModel tracks the true and reconstructed event history for every
// pixel in a block's spatial footprint and produces, or consumes, the
// prediction residuals that actually get arithmetic coded.
type PredictionModel struct {
	// TMemory holds the true last absolute t per pixel.
	TMemory [Area]event.AbsoluteT

	// EventMemory holds each pixel's reconstructed event state, the value
	// prediction for later blocks is computed against.
	EventMemory [Area]event.EventCoordless

	// TRecon holds the reconstructed last absolute t per pixel.
	TRecon [Area]event.AbsoluteT

	dResiduals         [Area]event.DResidual
	dtPredResiduals    [Area]event.DeltaTResidual
	dtPredResidualsI16 [Area]int16

	TimeMode event.Mode
}

// NewPredictionModel creates a model for a fresh tile, with all per-pixel
// memory zeroed.
func NewPredictionModel(timeMode event.Mode) *PredictionModel {
	return &PredictionModel{
		dResiduals: emptyDResiduals(),
		TimeMode:   timeMode,
	}
}

// OverrideMemory replaces the model's reconstructed state wholesale, used
// when resuming prediction against state recovered from a prior ADU.
func (m *PredictionModel) OverrideMemory(eventMemory [Area]event.EventCoordless, tRecon [Area]event.AbsoluteT) {
	m.EventMemory = eventMemory
	m.TRecon = tRecon
}

func (m *PredictionModel) resetMemory() {
	m.TMemory = [Area]event.AbsoluteT{}
	m.EventMemory = [Area]event.EventCoordless{}
	m.TRecon = [Area]event.AbsoluteT{}
}

func (m *PredictionModel) resetResiduals() {
	m.dResiduals = emptyDResiduals()
	m.dtPredResiduals = [Area]event.DeltaTResidual{}
	m.dtPredResidualsI16 = [Area]int16{}
}

// chooseSparam raises sparam to the minimum shift that fits maxTResid into
// a signed 16-bit quantized residual, leaving sparam unchanged when it
// already suffices.
func chooseSparam(sparam uint8, maxTResid int64) uint8 {
	if maxTResid <= 0 {
		return sparam
	}
	numPlaces := uint32(leadingZeros64(uint64(maxTResid)))
	if numPlaces+uint32(sparam) < 49 {
		sparam = uint8(49 - numPlaces)
	}
	return sparam
}

func leadingZeros64(v uint64) int {
	n := 0
	for i := 63; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			break
		}
		n++
	}
	return n
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// ForwardIntraPrediction encodes the first block of an ADU for a tile: it
// finds the first populated pixel, stores it verbatim as the start event,
// and predicts every later populated pixel's (d, Δt) against that start.
func (m *PredictionModel) ForwardIntraPrediction(sparam uint8, dtRef, dtm event.DeltaT, events Events) (startDeltaT event.DeltaT, startD event.D, dResiduals *[Area]event.DResidual, dtResidualsI16 *[Area]int16, outSparam uint8) {
	m.resetResiduals()
	m.resetMemory()

	init := false
	var start event.EventCoordless
	var maxTResid int64

	for idx, ev := range events {
		if ev == nil {
			continue
		}
		if !init {
			init = true
			m.TMemory[idx] = absoluteT(ev)
			if m.TimeMode == event.FramePerfect && m.TMemory[idx]%dtRef != 0 {
				m.TMemory[idx] = ((m.TMemory[idx] / dtRef) + 1) * dtRef
			}
			m.TRecon[idx] = m.TMemory[idx]
			start = *ev
			// The start pixel's own residual is trivially (0, 0). Coding
			// it explicitly (rather than leaving it at the "no event"
			// sentinel) is what lets the decoder recover which block
			// position the out-of-band head event belongs to.
			m.dResiduals[idx] = 0
			m.dtPredResiduals[idx] = 0
		}

		for nextIdx := idx + 1; nextIdx < Area; nextIdx++ {
			next := events[nextIdx]
			if next == nil {
				continue
			}
			dResid := event.DResidual(next.D) - event.DResidual(start.D)
			tResid := event.DeltaTResidual(next.DeltaT) - event.DeltaTResidual(start.DeltaT)

			m.dResiduals[nextIdx] = dResid
			m.dtPredResiduals[nextIdx] = tResid

			m.TMemory[nextIdx] = absoluteT(next)
			if m.TimeMode == event.FramePerfect && m.TMemory[nextIdx]%dtRef != 0 {
				m.TMemory[nextIdx] = ((m.TMemory[nextIdx] / dtRef) + 1) * dtRef
			}
			m.TRecon[nextIdx] = m.TMemory[nextIdx]

			if absInt64(tResid) > maxTResid {
				maxTResid = absInt64(tResid)
			}
			break
		}
	}

	sparam = chooseSparam(sparam, maxTResid)

	for i, resid := range m.dtPredResiduals {
		m.dtPredResidualsI16[i] = int16(resid >> sparam)
	}

	// Seed the reconstructed state exactly as InverseIntraPrediction does,
	// so the inter blocks that follow predict against what the decoder sees.
	for idx, ev := range events {
		if ev == nil {
			continue
		}
		reconT := event.AbsoluteT(event.DeltaTResidual(start.DeltaT) + event.DeltaTResidual(m.dtPredResidualsI16[idx])<<sparam)
		m.EventMemory[idx] = event.EventCoordless{D: ev.D, DeltaT: event.DeltaT(reconT)}
		m.TRecon[idx] = reconT
		if m.TimeMode == event.FramePerfect && m.TRecon[idx]%dtRef != 0 {
			m.TRecon[idx] = ((m.TRecon[idx] / dtRef) + 1) * dtRef
		}
	}

	return start.DeltaT, start.D, &m.dResiduals, &m.dtPredResidualsI16, sparam
}

// absoluteT treats an EventCoordless's DeltaT field as an absolute t value,
// matching the original source's overloaded use of the same field.
func absoluteT(ev *event.EventCoordless) event.AbsoluteT {
	return event.AbsoluteT(ev.DeltaT)
}

// ForwardInterPrediction encodes a subsequent block of the ADU by
// predicting each populated pixel's Δt from its reconstructed history, then
// reconstructing that same history so later blocks predict against exactly
// what the decoder will see, preventing temporal drift.
func (m *PredictionModel) ForwardInterPrediction(sparam uint8, dtm, dtRef event.DeltaT, events Events) (dResiduals *[Area]event.DResidual, dtResidualsI16 *[Area]int16, outSparam uint8) {
	m.resetResiduals()
	var maxTResid int64

	for idx, next := range events {
		if next == nil {
			continue
		}
		mem := &m.EventMemory[idx]

		dResid := dResidual(mem.D, next.D)
		mem.D = next.D
		m.dResiduals[idx] = dResid

		nextT := absoluteT(next)
		deltaT := event.DeltaT(nextT - m.TMemory[idx])
		if deltaT > dtm {
			panic("block: inter prediction delta_t exceeds dtm")
		}

		m.TMemory[idx] = nextT
		if m.TimeMode == event.FramePerfect && m.TMemory[idx]%dtRef != 0 {
			m.TMemory[idx] = ((m.TMemory[idx] / dtRef) + 1) * dtRef
		}

		dtPred := predictDeltaT(*mem, dResid, dtm)
		dtPredResidual := event.DeltaTResidual(deltaT) - event.DeltaTResidual(dtPred)
		m.dtPredResiduals[idx] = dtPredResidual

		if absInt64(dtPredResidual) > maxTResid {
			maxTResid = absInt64(dtPredResidual)
		}
	}

	sparam = chooseSparam(sparam, maxTResid)

	for i, resid := range m.dtPredResiduals {
		m.dtPredResidualsI16[i] = int16(resid >> sparam)
	}

	m.reconstructTValues(sparam, dtm, dtRef)

	return &m.dResiduals, &m.dtPredResidualsI16, sparam
}

// SetResidualsForInverse loads decoded residual arrays ahead of a call to
// InverseInterPrediction, since a decoder never runs the forward pass
// that would otherwise populate them.
func (m *PredictionModel) SetResidualsForInverse(dResiduals [Area]event.DResidual, dtResidualsI16 [Area]int16) {
	m.dResiduals = dResiduals
	m.dtPredResidualsI16 = dtResidualsI16
}

// InverseIntraPrediction reconstructs a block's events from a decoded
// intra block: every populated position (dResid != DEncodeNoEvent,
// including the start pixel itself, coded as a trivial zero residual) is
// recovered as a plain linear offset from the verbatim head event, not
// through predictDeltaT's exponential model — intra blocks have no prior
// state to predict from. Seeds EventMemory/TMemory/TRecon for the inter
// blocks that follow.
func (m *PredictionModel) InverseIntraPrediction(headD event.D, headT event.AbsoluteT, dResiduals [Area]event.DResidual, dtResidualsI16 [Area]int16, sparam uint8, dtRef event.DeltaT) Events {
	m.resetMemory()
	var out Events

	for idx, dResid := range dResiduals {
		if dResid == DEncodeNoEvent {
			continue
		}
		d := event.D(event.DResidual(headD) + dResid)
		tResid := event.DeltaTResidual(dtResidualsI16[idx]) << sparam
		reconT := event.AbsoluteT(event.DeltaTResidual(headT) + tResid)

		m.TMemory[idx] = reconT
		if m.TimeMode == event.FramePerfect && dtRef != 0 && m.TMemory[idx]%dtRef != 0 {
			m.TMemory[idx] = ((m.TMemory[idx] / dtRef) + 1) * dtRef
		}
		m.TRecon[idx] = m.TMemory[idx]
		m.EventMemory[idx] = event.EventCoordless{D: d, DeltaT: event.DeltaT(reconT)}

		out[idx] = &event.EventCoordless{D: d, DeltaT: event.DeltaT(reconT)}
	}
	return out
}

// InverseInterPrediction reconstructs a block's events from decoded
// residuals, updating the model's reconstructed state in place so
// subsequent blocks predict from the same history the encoder used.
func (m *PredictionModel) InverseInterPrediction(sparam uint8, dtm, dtRef event.DeltaT) Events {
	var out Events
	for idx := range m.dResiduals {
		dResid := m.dResiduals[idx]
		if dResid == DEncodeNoEvent {
			continue
		}
		mem := &m.EventMemory[idx]
		d := event.D(event.DResidual(mem.D) + dResid)

		tResid := event.DeltaTResidual(m.dtPredResidualsI16[idx]) << sparam
		dtPred := predictDeltaT(*mem, dResid, dtm)

		reconT := event.AbsoluteT(event.DeltaTResidual(m.TRecon[idx]) + event.DeltaTResidual(dtPred) + tResid)
		mem.DeltaT = event.DeltaT(reconT - m.TRecon[idx])
		mem.D = d
		m.TRecon[idx] = reconT
		if m.TimeMode == event.FramePerfect && m.TRecon[idx]%dtRef != 0 {
			m.TRecon[idx] = ((m.TRecon[idx] / dtRef) + 1) * dtRef
		}

		out[idx] = &event.EventCoordless{D: d, DeltaT: event.DeltaT(reconT)}
	}
	return out
}

func (m *PredictionModel) reconstructTValues(sparam uint8, dtm, dtRef event.DeltaT) {
	for idx := range m.dResiduals {
		dResid := m.dResiduals[idx]
		if dResid == DEncodeNoEvent {
			continue
		}
		mem := &m.EventMemory[idx]
		dtPredResidual := event.DeltaTResidual(m.dtPredResidualsI16[idx]) << sparam
		dtPred := predictDeltaT(*mem, dResid, dtm)
		updateValuesFromPrediction(mem, &m.TRecon[idx], dtPred, dtPredResidual, dtm)

		if m.TimeMode == event.FramePerfect && m.TRecon[idx]%dtRef != 0 {
			m.TRecon[idx] = ((m.TRecon[idx] / dtRef) + 1) * dtRef
		}
	}
}

func dResidual(d0, d1 event.D) event.DResidual {
	return event.DResidual(d1) - event.DResidual(d0)
}

// predictDeltaT predicts a pixel's Δt from its reconstructed history: since
// doubling D doubles the integration threshold, Δt scales roughly as
// 2^(Δd). Falls back to the unshifted memory when the prediction would
// exceed dtm or the D residual is too large to shift safely.
func predictDeltaT(mem event.EventCoordless, dResid event.DResidual, dtm event.DeltaT) event.DeltaT {
	var dtPred event.DeltaT
	switch {
	case dResid > 0 && dResid < 8:
		dtPred = mem.DeltaT << uint(dResid)
	case dResid < 0 && dResid > -8:
		dtPred = mem.DeltaT >> uint(-dResid)
	default:
		dtPred = mem.DeltaT
	}
	if dtPred > dtm {
		dtPred = mem.DeltaT
	}
	return dtPred
}

func updateValuesFromPrediction(mem *event.EventCoordless, tRecon *event.AbsoluteT, dtPred event.DeltaT, dtPredResidual event.DeltaTResidual, dtm event.DeltaT) {
	reconT := event.AbsoluteT(event.DeltaTResidual(*tRecon) + event.DeltaTResidual(dtPred) + dtPredResidual)
	mem.DeltaT = event.DeltaT(reconT - *tRecon)
	if mem.DeltaT > dtm {
		panic("block: reconstructed delta_t exceeds dtm")
	}
	*tRecon = reconT
}
