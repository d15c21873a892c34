package fenwick

import "github.com/eric-unc/adder-codec-go/internal/event"

// Context selects which of the coder's adaptive alphabets serves the next
// Probability/Symbol/Update call.
type Context int

const (
	// DContext covers D residual values in [-255, 255] plus the
	// DEncodeNoEvent sentinel.
	DContext Context = iota
	// DtContext covers the full signed 16-bit Δt residual alphabet.
	DtContext
	// U8Context covers a plain byte, used for header fields written
	// "through" the coder rather than length-prefixed.
	U8Context
	// EOFContext holds the single end-of-sequence symbol.
	EOFContext

	numContexts
)

const (
	dAlphabetSize  = 511 + 1 // [-255, 255] plus the sentinel
	dSentinelIndex = 511
	dtAlphabetSize = 1 << 16 // [-32768, 32767]
	u8AlphabetSize = 1 << 8
	eofAlphabetSize = 1
)

// modelIncrement is the additive weight given to a symbol every time it
// is coded.
const modelIncrement = 32

// maxTotalFor picks a rescale ceiling for an alphabet of the given size:
// every symbol starts at frequency 1, so the floor the adaptive model can
// ever rescale down to is numSymbols itself (see Model.rescale); the
// ceiling needs enough headroom above that floor for updates to actually
// accumulate before the next rescale, without letting Total grow so large
// that rng/Total loses precision in the range coder.
func maxTotalFor(numSymbols int) uint64 {
	maxTotal := uint64(numSymbols) * 2
	if maxTotal < 4 {
		maxTotal = 4
	}
	return maxTotal
}

// SwitchingModel multiplexes the coder's four adaptive alphabets behind a
// single active Context, so the arithmetic coder is driven without ever
// being re-instantiated between symbol kinds.
type SwitchingModel struct {
	contexts [numContexts]*Model
	active   Context
}

// NewSwitchingModel builds a fresh set of contexts, all histograms reset
// to their uniform starting distribution.
func NewSwitchingModel() *SwitchingModel {
	return &SwitchingModel{
		contexts: [numContexts]*Model{
			DContext:   NewModel(dAlphabetSize, modelIncrement, maxTotalFor(dAlphabetSize)),
			DtContext:  NewModel(dtAlphabetSize, modelIncrement, maxTotalFor(dtAlphabetSize)),
			U8Context:  NewModel(u8AlphabetSize, modelIncrement, maxTotalFor(u8AlphabetSize)),
			EOFContext: NewModel(eofAlphabetSize, modelIncrement, maxTotalFor(eofAlphabetSize)),
		},
	}
}

// SetContext selects the alphabet subsequent calls operate against.
func (s *SwitchingModel) SetContext(c Context) {
	s.active = c
}

func (s *SwitchingModel) current() *Model {
	return s.contexts[s.active]
}

// Total, MaxTotal, Probability, Symbol, and Update satisfy the coder's
// Model interface by delegating to the active context.
func (s *SwitchingModel) Total() uint64                        { return s.current().Total() }
func (s *SwitchingModel) MaxTotal() uint64                      { return s.current().MaxTotal() }
func (s *SwitchingModel) Probability(symbol int) (uint64, uint64) { return s.current().Probability(symbol) }
func (s *SwitchingModel) Symbol(target uint64) (int, uint64, uint64) { return s.current().Symbol(target) }
func (s *SwitchingModel) Update(symbol int) { s.current().Update(symbol) }

// EncodeDResidual maps a D residual (or the DEncodeNoEvent sentinel) to
// its alphabet symbol index.
func EncodeDResidual(r event.DResidual) int {
	if r == event.DEncodeNoEvent {
		return dSentinelIndex
	}
	return int(r) + 255
}

// DecodeDResidual inverts EncodeDResidual.
func DecodeDResidual(symbol int) event.DResidual {
	if symbol == dSentinelIndex {
		return event.DEncodeNoEvent
	}
	return event.DResidual(symbol - 255)
}

// EncodeDtResidual maps a signed 16-bit Δt residual to its alphabet
// symbol index.
func EncodeDtResidual(r int16) int {
	return int(r) + 32768
}

// DecodeDtResidual inverts EncodeDtResidual.
func DecodeDtResidual(symbol int) int16 {
	return int16(symbol - 32768)
}

// eofSymbol is the only symbol EOFContext ever encodes.
const eofSymbol = 0
