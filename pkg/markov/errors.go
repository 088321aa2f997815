package markov

import "fmt"

// TrainingError reports that a corpus could not produce a usable model:
// either the corpus is empty, or the requested order is too large for every
// sequence in it. No partial model is ever returned alongside one.
type TrainingError struct {
	Order  int
	Reason string
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("markov: training failed (order %d): %s", e.Order, e.Reason)
}

// InvalidConstraintError reports a malformed constraint: a position outside
// [0, length), an empty allowed set, or a symbol the trained alphabet does
// not contain. It is detected during validation, before any table is built.
type InvalidConstraintError struct {
	Position int
	Symbol   string
	Reason   string
}

func (e *InvalidConstraintError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("markov: invalid constraint at position %d: symbol %q %s", e.Position, e.Symbol, e.Reason)
	}
	return fmt.Sprintf("markov: invalid constraint at position %d: %s", e.Position, e.Reason)
}

// UnsatisfiableError reports that a well-formed constraint set admits no
// sequence of the requested length under the trained model. Position is the
// earliest position at which all probability mass collapsed to zero, and
// Pass names the table pass that detected it.
type UnsatisfiableError struct {
	Position int
	Pass     string
}

func (e *UnsatisfiableError) Error() string {
	return fmt.Sprintf("markov: constraints unsatisfiable: no valid continuation at position %d (%s pass)", e.Position, e.Pass)
}
