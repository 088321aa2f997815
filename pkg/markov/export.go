package markov

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ExportedModel is the serializable representation of a trained model, used
// for JSON export and for database persistence. Symbols are listed in
// handle order; context keys are the space-joined symbol-ID encoding.
type ExportedModel struct {
	Order    int               `json:"order"`
	Symbols  []string          `json:"symbols"`
	Contexts []ExportedContext `json:"contexts"`
}

// ExportedContext is one context's normalized next-symbol distribution.
type ExportedContext struct {
	Key  string               `json:"key"`
	Next []ExportedTransition `json:"next"`
}

// ExportedTransition is a single entry of a context's distribution.
type ExportedTransition struct {
	Symbol      int     `json:"symbol"`
	Probability float64 `json:"probability"`
}

// Export returns a deterministic serializable snapshot of the model:
// contexts sorted by key, transitions sorted by symbol handle.
func (m *Model) Export() *ExportedModel {
	e := &ExportedModel{
		Order:    m.order,
		Symbols:  m.alphabet.Symbols(),
		Contexts: make([]ExportedContext, 0, len(m.next)),
	}
	for key, ts := range m.next {
		ec := ExportedContext{Key: key, Next: make([]ExportedTransition, 0, len(ts))}
		for _, t := range ts {
			ec.Next = append(ec.Next, ExportedTransition{Symbol: int(t.symbol), Probability: t.prob})
		}
		e.Contexts = append(e.Contexts, ec)
	}
	sort.Slice(e.Contexts, func(i, j int) bool { return e.Contexts[i].Key < e.Contexts[j].Key })
	return e
}

// FromExport rebuilds an immutable Model from its serialized form,
// validating symbol handles, context keys and per-context probability sums
// so that a corrupted artifact cannot produce a silently broken model.
func FromExport(e *ExportedModel) (*Model, error) {
	if e.Order < 1 {
		return nil, fmt.Errorf("markov: exported model has order %d, want at least 1", e.Order)
	}
	alphabet := newAlphabet()
	for _, text := range e.Symbols {
		if _, dup := alphabet.Lookup(text); dup {
			return nil, fmt.Errorf("markov: exported model repeats symbol %q", text)
		}
		alphabet.intern(text)
	}

	next := make(map[string][]transition, len(e.Contexts))
	for _, ec := range e.Contexts {
		if _, dup := next[ec.Key]; dup {
			return nil, fmt.Errorf("markov: exported model repeats context %q", ec.Key)
		}
		if ec.Key != "" {
			parts := strings.Split(ec.Key, " ")
			if len(parts) > e.Order {
				return nil, fmt.Errorf("markov: exported context %q is wider than order %d", ec.Key, e.Order)
			}
			for _, p := range parts {
				id, err := strconv.Atoi(p)
				if err != nil || id < 0 || id >= alphabet.Len() {
					return nil, fmt.Errorf("markov: exported context %q references unknown symbol handle %q", ec.Key, p)
				}
			}
		}
		if len(ec.Next) == 0 {
			return nil, fmt.Errorf("markov: exported context %q has an empty distribution", ec.Key)
		}
		ts := make([]transition, 0, len(ec.Next))
		sum := 0.0
		for _, et := range ec.Next {
			if et.Symbol < 0 || et.Symbol >= alphabet.Len() {
				return nil, fmt.Errorf("markov: exported context %q references unknown symbol handle %d", ec.Key, et.Symbol)
			}
			if et.Probability <= 0 || et.Probability > 1 {
				return nil, fmt.Errorf("markov: exported context %q has probability %v out of range", ec.Key, et.Probability)
			}
			ts = append(ts, transition{symbol: Symbol(et.Symbol), prob: et.Probability})
			sum += et.Probability
		}
		if math.Abs(sum-1) > 1e-9 {
			return nil, fmt.Errorf("markov: exported context %q has probability sum %v, want 1", ec.Key, sum)
		}
		sort.Slice(ts, func(i, j int) bool { return ts[i].symbol < ts[j].symbol })
		next[ec.Key] = ts
	}

	return &Model{order: e.Order, alphabet: alphabet, next: next}, nil
}
