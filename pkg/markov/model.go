package markov

import (
	"sort"
)

// transition is one entry of a context's next-symbol distribution.
type transition struct {
	symbol Symbol
	prob   float64
}

// Model is a fixed-order Markov transition model. It is built once by Train
// and never mutates afterward, so it may be shared by any number of
// concurrent generation requests without synchronization.
//
// Contexts that were never observed during training have zero mass: the
// model rejects them rather than falling back to a uniform or smoothed
// distribution. The forward/backward passes therefore treat an unseen
// context as a dead end.
type Model struct {
	order    int
	alphabet *Alphabet
	// next maps a context key (space-joined symbol IDs, width 0..order) to
	// its normalized next-symbol distribution, sorted by symbol handle.
	// Keys narrower than order exist only for contexts observed at the
	// start of a training sequence, so generation is anchored the same way
	// the corpus sequences are.
	next map[string][]transition
}

// Train builds a Model of the given order from a corpus of symbol
// sequences. A window of width order slides across every sequence, counting
// (context, next-symbol) occurrences; the growing prefixes before a full
// window (width 0..order-1) are counted as well, so the empty context
// carries the distribution of first symbols. Sequences shorter than order+1
// are skipped. Counts are normalized per context.
//
// Train returns a *TrainingError when the corpus yields no usable window:
// an empty corpus, or an order too large for every sequence in it.
func Train(corpus [][]string, order int) (*Model, error) {
	if order < 1 {
		return nil, &TrainingError{Order: order, Reason: "order must be at least 1"}
	}

	alphabet := newAlphabet()
	counts := make(map[string]map[Symbol]int)
	var keyBuf []byte
	var ids []Symbol
	usable := 0

	for _, seq := range corpus {
		if len(seq) < order+1 {
			continue
		}
		usable++

		ids = ids[:0]
		for _, text := range seq {
			ids = append(ids, alphabet.intern(text))
		}

		for i := range ids {
			lo := i - order
			if lo < 0 {
				lo = 0
			}
			keyBuf = appendStateKey(keyBuf[:0], ids[lo:i])
			key := string(keyBuf)
			dist := counts[key]
			if dist == nil {
				dist = make(map[Symbol]int)
				counts[key] = dist
			}
			dist[ids[i]]++
		}
	}

	if usable == 0 {
		if len(corpus) == 0 {
			return nil, &TrainingError{Order: order, Reason: "corpus is empty"}
		}
		return nil, &TrainingError{Order: order, Reason: "every sequence is shorter than order+1"}
	}

	next := make(map[string][]transition, len(counts))
	for key, dist := range counts {
		total := 0
		for _, c := range dist {
			total += c
		}
		ts := make([]transition, 0, len(dist))
		for sym, c := range dist {
			ts = append(ts, transition{symbol: sym, prob: float64(c) / float64(total)})
		}
		sort.Slice(ts, func(i, j int) bool { return ts[i].symbol < ts[j].symbol })
		next[key] = ts
	}

	return &Model{order: order, alphabet: alphabet, next: next}, nil
}

// Order returns the context width the model was trained with.
func (m *Model) Order() int { return m.order }

// Alphabet returns the symbol table observed during training.
func (m *Model) Alphabet() *Alphabet { return m.alphabet }

// Contexts returns the number of distinct trained contexts, including the
// partial start-of-sequence contexts.
func (m *Model) Contexts() int { return len(m.next) }

// transitions returns the normalized distribution for a context tuple, or
// nil for an unseen context. buf is reused for key construction.
func (m *Model) transitions(buf []byte, ctx []Symbol) ([]transition, []byte) {
	buf = appendStateKey(buf[:0], ctx)
	return m.next[string(buf)], buf
}

// prob returns P(next | ctx), or 0 when the context or the pairing was
// never observed.
func (m *Model) prob(buf []byte, ctx []Symbol, next Symbol) (float64, []byte) {
	var ts []transition
	ts, buf = m.transitions(buf, ctx)
	for _, t := range ts {
		if t.symbol == next {
			return t.prob, buf
		}
	}
	return 0, buf
}

// SequenceProbability returns the probability the model assigns to
// generating seq: the product of the learned transition probabilities along
// it, starting from the empty context. A symbol outside the alphabet or a
// transition that was never observed yields zero.
func (m *Model) SequenceProbability(seq []string) float64 {
	var buf []byte
	ctx := make([]Symbol, 0, m.order)
	product := 1.0
	for _, text := range seq {
		sym, ok := m.alphabet.Lookup(text)
		if !ok {
			return 0
		}
		var p float64
		p, buf = m.prob(buf, ctx, sym)
		if p == 0 {
			return 0
		}
		product *= p
		ctx = extendState(ctx, sym, m.order)
	}
	return product
}
