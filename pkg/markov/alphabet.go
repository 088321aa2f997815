package markov

import "strconv"

// Symbol is the interned handle for one atomic unit of the sequence domain.
// Handles are dense, starting at zero, and are only meaningful relative to
// the Alphabet that produced them.
type Symbol int32

// Alphabet interns symbol strings to dense integer handles so that states
// can be represented and compared as small fixed-width tuples instead of
// strings.
type Alphabet struct {
	texts []string
	index map[string]Symbol
}

func newAlphabet() *Alphabet {
	return &Alphabet{index: make(map[string]Symbol)}
}

func (a *Alphabet) intern(text string) Symbol {
	if id, ok := a.index[text]; ok {
		return id
	}
	id := Symbol(len(a.texts))
	a.texts = append(a.texts, text)
	a.index[text] = id
	return id
}

// Lookup returns the handle for text and whether it is part of the alphabet.
func (a *Alphabet) Lookup(text string) (Symbol, bool) {
	id, ok := a.index[text]
	return id, ok
}

// Text returns the string form of an interned symbol.
func (a *Alphabet) Text(s Symbol) string { return a.texts[s] }

// Len returns the number of distinct symbols observed during training.
func (a *Alphabet) Len() int { return len(a.texts) }

// Symbols returns a copy of every symbol text in handle order.
func (a *Alphabet) Symbols() []string {
	out := make([]string, len(a.texts))
	copy(out, a.texts)
	return out
}

// stateID is the interned handle for a context tuple. IDs are dense within
// one stateTable; the tables are scoped to either a trained model or a
// single generation plan and are never mixed.
type stateID int32

// stateTable interns context tuples (the last 0..order symbols) to dense
// handles, keyed by the space-joined symbol-ID encoding.
type stateTable struct {
	keys   map[string]stateID
	tuples [][]Symbol
	keyBuf []byte
}

func newStateTable() *stateTable {
	return &stateTable{keys: make(map[string]stateID)}
}

// appendStateKey appends the canonical key for a context tuple to buf.
func appendStateKey(buf []byte, ctx []Symbol) []byte {
	for i, s := range ctx {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(s), 10)
	}
	return buf
}

func (t *stateTable) intern(ctx []Symbol) stateID {
	t.keyBuf = appendStateKey(t.keyBuf[:0], ctx)
	if id, ok := t.keys[string(t.keyBuf)]; ok {
		return id
	}
	id := stateID(len(t.tuples))
	tuple := make([]Symbol, len(ctx))
	copy(tuple, ctx)
	t.tuples = append(t.tuples, tuple)
	t.keys[string(t.keyBuf)] = id
	return id
}

// lookup resolves a context tuple without interning it. The caller supplies
// the key buffer, so lookup is safe for concurrent readers of a table that
// is no longer being extended.
func (t *stateTable) lookup(buf []byte, ctx []Symbol) (stateID, bool, []byte) {
	buf = appendStateKey(buf[:0], ctx)
	id, ok := t.keys[string(buf)]
	return id, ok, buf
}

func (t *stateTable) tuple(id stateID) []Symbol { return t.tuples[id] }

func (t *stateTable) len() int { return len(t.tuples) }

// extendState returns the context that follows ctx after emitting next:
// the tuple grows until it reaches order width, then slides.
func extendState(ctx []Symbol, next Symbol, order int) []Symbol {
	if len(ctx) < order {
		out := make([]Symbol, len(ctx)+1)
		copy(out, ctx)
		out[len(ctx)] = next
		return out
	}
	out := make([]Symbol, order)
	copy(out, ctx[1:])
	out[order-1] = next
	return out
}
