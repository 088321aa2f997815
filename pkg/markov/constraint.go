package markov

// ConstraintSet maps a sequence position to the non-empty set of symbol
// texts permitted there. Positions absent from the map are unconstrained
// and implicitly permit the full alphabet. A nil ConstraintSet is valid and
// constrains nothing.
type ConstraintSet map[int][]string

// constraintIndex is the validated, interned form of a ConstraintSet,
// scoped to one generation request.
type constraintIndex struct {
	allowed map[int]map[Symbol]struct{}
}

// validate checks every constrained position against [0, length), rejects
// empty allowed sets, and resolves each symbol against the trained
// alphabet. The first violation is returned as an *InvalidConstraintError
// naming the offending position or symbol.
func (cs ConstraintSet) validate(m *Model, length int) (*constraintIndex, error) {
	idx := &constraintIndex{allowed: make(map[int]map[Symbol]struct{}, len(cs))}
	for pos, texts := range cs {
		if pos < 0 || pos >= length {
			return nil, &InvalidConstraintError{Position: pos, Reason: "position is outside the sequence"}
		}
		if len(texts) == 0 {
			return nil, &InvalidConstraintError{Position: pos, Reason: "allowed symbol set is empty"}
		}
		set := make(map[Symbol]struct{}, len(texts))
		for _, text := range texts {
			sym, ok := m.alphabet.Lookup(text)
			if !ok {
				return nil, &InvalidConstraintError{Position: pos, Symbol: text, Reason: "is not in the trained alphabet"}
			}
			set[sym] = struct{}{}
		}
		idx.allowed[pos] = set
	}
	return idx, nil
}

// permits reports whether sym may occupy pos.
func (ci *constraintIndex) permits(pos int, sym Symbol) bool {
	set, ok := ci.allowed[pos]
	if !ok {
		return true
	}
	_, ok = set[sym]
	return ok
}
