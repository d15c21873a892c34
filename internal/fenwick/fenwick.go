// Package fenwick implements adaptive per-symbol frequency models backed
// by Fenwick (binary indexed) trees, and the context-switching model the
// ADU arithmetic coder selects between for its four coded alphabets.
package fenwick

// tree is a 1-indexed binary indexed tree over symbol frequencies,
// supporting O(log n) prefix-sum queries, point updates, and the inverse
// "which symbol holds this cumulative value" lookup the decoder needs.
type tree struct {
	n    int
	bits []uint64
}

func newTree(n int) *tree {
	return &tree{n: n, bits: make([]uint64, n+1)}
}

// add adds delta to the frequency at (0-based) index i.
func (t *tree) add(i int, delta int64) {
	for i++; i <= t.n; i += i & (-i) {
		t.bits[i] = uint64(int64(t.bits[i]) + delta)
	}
}

// prefixSum returns the sum of frequencies at indices [0, i).
func (t *tree) prefixSum(i int) uint64 {
	var sum uint64
	for ; i > 0; i -= i & (-i) {
		sum += t.bits[i]
	}
	return sum
}

// find returns the largest index i such that prefixSum(i) <= target,
// i.e. the symbol whose cumulative range contains target.
func (t *tree) find(target uint64) int {
	idx := 0
	remaining := target
	logN := 1
	for (logN << 1) <= t.n {
		logN <<= 1
	}
	for bitMask := logN; bitMask != 0; bitMask >>= 1 {
		next := idx + bitMask
		if next <= t.n && t.bits[next] <= remaining {
			idx = next
			remaining -= t.bits[next]
		}
	}
	return idx
}

// reset zeroes every frequency.
func (t *tree) reset() {
	for i := range t.bits {
		t.bits[i] = 0
	}
}

// Model is one adaptive alphabet: a Fenwick tree of symbol frequencies
// that rescales (halves every nonzero bucket) whenever the running total
// would exceed maxTotal, bounding decoder/encoder probability precision.
type Model struct {
	t        *tree
	freq     []uint64
	total    uint64
	maxTotal uint64
	incr     uint64
}

// NewModel creates an adaptive model over numSymbols symbols, each
// initialized to frequency 1, incrementing by incr on every update and
// rescaling once the total would exceed maxTotal.
func NewModel(numSymbols int, incr, maxTotal uint64) *Model {
	m := &Model{
		t:        newTree(numSymbols),
		freq:     make([]uint64, numSymbols),
		maxTotal: maxTotal,
		incr:     incr,
	}
	for i := 0; i < numSymbols; i++ {
		m.t.add(i, 1)
		m.freq[i] = 1
	}
	m.total = uint64(numSymbols)
	return m
}

// NumSymbols returns the alphabet size.
func (m *Model) NumSymbols() int {
	return len(m.freq)
}

// Total returns the current sum of all symbol frequencies.
func (m *Model) Total() uint64 {
	return m.total
}

// MaxTotal returns the rescale threshold.
func (m *Model) MaxTotal() uint64 {
	return m.maxTotal
}

// Probability returns the cumulative frequency below symbol, and that
// symbol's own frequency, for range coding.
func (m *Model) Probability(symbol int) (cumFreq, freq uint64) {
	return m.t.prefixSum(symbol), m.freq[symbol]
}

// Symbol inverts a cumulative-frequency target (as produced by a decoder
// sampling [0, Total())) back into its symbol, cumulative frequency, and
// own frequency.
func (m *Model) Symbol(target uint64) (symbol int, cumFreq, freq uint64) {
	symbol = m.t.find(target)
	cumFreq = m.t.prefixSum(symbol)
	freq = m.freq[symbol]
	return
}

// Update increments symbol's frequency, rescaling the whole model first
// if that would push the total past maxTotal.
func (m *Model) Update(symbol int) {
	if m.total+m.incr > m.maxTotal {
		m.rescale()
	}
	m.t.add(symbol, int64(m.incr))
	m.freq[symbol] += m.incr
	m.total += m.incr
}

// rescale halves every symbol's frequency (flooring at 1) to keep the
// model adaptive to recent statistics and within maxTotal.
func (m *Model) rescale() {
	m.t.reset()
	m.total = 0
	for i, f := range m.freq {
		nf := f / 2
		if nf == 0 {
			nf = 1
		}
		m.freq[i] = nf
		m.t.add(i, int64(nf))
		m.total += nf
	}
}
