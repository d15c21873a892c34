// Package rangecoder implements a byte-oriented multi-symbol range coder
// driven by a cumulative-frequency Model, carrying pending output bytes
// through carry propagation rather than the carryless-clamp variant. The
// coder itself never knows which alphabet it is coding; callers swap
// alphabets out from under it via a Model that supports context
// switching (see internal/fenwick.SwitchingModel), so one coder instance
// serves every symbol kind in an ADU without being re-instantiated.
package rangecoder

import "io"

// topValue is the renormalization threshold: once range falls below it,
// the top byte of low is fully determined and can be emitted.
const topValue = 1 << 24

// Model is the probability source a coder's Encode/Decode calls consult.
// Probability and Symbol both report frequencies in the same units as
// Total, and Update must be called with the just-(en|de)coded symbol
// before the next call, since the model adapts after every symbol.
type Model interface {
	// Total returns the current sum of all symbol frequencies.
	Total() uint64
	// MaxTotal returns the ceiling Total must stay under; Total growing
	// past it would lose precision against the coder's range width.
	MaxTotal() uint64
	// Probability returns the cumulative frequency below symbol and that
	// symbol's own frequency.
	Probability(symbol int) (cumFreq, freq uint64)
	// Symbol inverts a cumulative value in [0, Total()) back into the
	// symbol it falls under, along with that symbol's cumulative and own
	// frequency.
	Symbol(target uint64) (symbol int, cumFreq, freq uint64)
	// Update adjusts the model's statistics after symbol is coded.
	Update(symbol int)
}

// Encoder range-codes a sequence of symbols against a shared Model into
// an io.Writer, byte by byte.
type Encoder struct {
	w         io.Writer
	low       uint64
	rng       uint32
	cache     uint8
	cacheSize uint64
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:         w,
		rng:       0xFFFFFFFF,
		cacheSize: 1,
	}
}

// Encode codes symbol against model and advances model's statistics.
func (e *Encoder) Encode(model Model, symbol int) error {
	total := model.Total()
	if total > model.MaxTotal() {
		panic("rangecoder: model total exceeds its own MaxTotal")
	}
	cumFreq, freq := model.Probability(symbol)

	e.rng /= uint32(total)
	e.low += cumFreq * uint64(e.rng)
	e.rng *= uint32(freq)

	for e.rng < topValue {
		if err := e.shiftLow(); err != nil {
			return err
		}
		e.rng <<= 8
	}

	model.Update(symbol)
	return nil
}

// shiftLow emits the top byte of low once it is no longer subject to a
// carry from future additions, propagating any pending carry into
// buffered 0xFF bytes first. The very first call emits a known leading
// zero byte (cache starts at 0); the decoder's 5-byte priming read
// discards it by construction, so callers must not special-case it away.
func (e *Encoder) shiftLow() error {
	if uint32(e.low>>32) != 0 || e.low < 0xFF000000 {
		carry := uint8(e.low >> 32)
		b := e.cache + carry
		for {
			if _, err := e.w.Write([]byte{b}); err != nil {
				return err
			}
			b = 0xFF + carry
			e.cacheSize--
			if e.cacheSize == 0 {
				break
			}
		}
		e.cache = uint8(e.low >> 24)
	}
	e.cacheSize++
	e.low = (e.low << 8) & 0xFFFFFFFF
	return nil
}

// Flush emits the remaining bytes needed to disambiguate the final
// range. Callers must call this exactly once after the last Encode.
func (e *Encoder) Flush() error {
	for i := 0; i < 5; i++ {
		if err := e.shiftLow(); err != nil {
			return err
		}
	}
	return nil
}

// Decoder inverts an Encoder's output against the same sequence of
// Models and symbols.
type Decoder struct {
	r     io.Reader
	code  uint32
	rng   uint32
	byte1 [1]byte
}

// NewDecoder creates a decoder reading from r, priming its internal
// state with the encoder's first 5 flushed bytes.
func NewDecoder(r io.Reader) (*Decoder, error) {
	d := &Decoder{r: r, rng: 0xFFFFFFFF}
	for i := 0; i < 5; i++ {
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		d.code = d.code<<8 | uint32(b)
	}
	return d, nil
}

func (d *Decoder) readByte() (byte, error) {
	if _, err := io.ReadFull(d.r, d.byte1[:]); err != nil {
		return 0, err
	}
	return d.byte1[0], nil
}

// Decode recovers the next symbol coded against model and advances its
// statistics identically to the encoder.
func (d *Decoder) Decode(model Model) (int, error) {
	total := model.Total()
	d.rng /= uint32(total)

	target := uint64(d.code) / uint64(d.rng)
	if target >= total {
		target = total - 1
	}

	symbol, cumFreq, freq := model.Symbol(target)

	d.code -= uint32(cumFreq) * d.rng
	d.rng *= uint32(freq)

	for d.rng < topValue {
		b, err := d.readByte()
		if err != nil {
			return 0, err
		}
		d.code = d.code<<8 | uint32(b)
		d.rng <<= 8
	}

	model.Update(symbol)
	return symbol, nil
}
