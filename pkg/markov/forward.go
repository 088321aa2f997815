package markov

import "slices"

// sortedIDs returns the keys of a mass table in ascending handle order.
// Iteration order matters: masses are accumulated in floating point, and a
// fixed order keeps table construction bit-for-bit reproducible.
func sortedIDs(mass map[stateID]float64) []stateID {
	ids := make([]stateID, 0, len(mass))
	for id := range mass {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// buildForward computes, position by position, the weighted mass of
// constraint-satisfying prefixes ending in each reachable state. States
// before a full order-width window are the growing prefix tuples; from
// position order-1 onward they are full context windows.
//
// Masses are renormalized at every position so that long sequences cannot
// underflow; only the relative weights matter downstream. If every mass at
// some position collapses to zero the constraints are unsatisfiable and an
// *UnsatisfiableError is returned immediately.
func buildForward(m *Model, ci *constraintIndex, length int, states *stateTable) ([]map[stateID]float64, error) {
	fw := make([]map[stateID]float64, length)

	prev := map[stateID]float64{states.intern(nil): 1}
	var buf []byte

	for i := 0; i < length; i++ {
		cur := make(map[stateID]float64)
		sum := 0.0
		for _, sid := range sortedIDs(prev) {
			ctx := states.tuple(sid)
			mass := prev[sid]
			var ts []transition
			ts, buf = m.transitions(buf, ctx)
			for _, t := range ts {
				if !ci.permits(i, t.symbol) {
					continue
				}
				ext := states.intern(extendState(ctx, t.symbol, m.order))
				cur[ext] += mass * t.prob
				sum += mass * t.prob
			}
		}
		if sum == 0 {
			return nil, &UnsatisfiableError{Position: i, Pass: "forward"}
		}
		for sid, mass := range cur {
			cur[sid] = mass / sum
		}
		fw[i] = cur
		prev = cur
	}

	return fw, nil
}
