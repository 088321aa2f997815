package markov

// buildBackward computes, for every forward-reachable state at every
// position, the total weighted mass of constraint-satisfying completions
// from that state through the end of the sequence.
//
// The base case assigns mass 1 to every state at the final position: the
// forward pass only admits states whose trailing symbol satisfies the
// constraint there. Walking backward, a state keeps only the mass of
// permitted transitions whose successor state still has a valid future; a
// state whose every continuation is dead ends up with mass zero, which is
// exactly what lets the sampler avoid it without backtracking. Masses are
// renormalized at every position just as in the forward pass, so long
// heavily constrained sequences cannot underflow the table to zero.
//
// If every state at some position loses all mass, no completion of the
// requested length exists and an *UnsatisfiableError is returned.
func buildBackward(m *Model, ci *constraintIndex, length int, states *stateTable, fw []map[stateID]float64) ([]map[stateID]float64, error) {
	bw := make([]map[stateID]float64, length)

	last := make(map[stateID]float64, len(fw[length-1]))
	for sid := range fw[length-1] {
		last[sid] = 1
	}
	bw[length-1] = last

	var buf []byte
	for i := length - 2; i >= 0; i-- {
		cur := make(map[stateID]float64, len(fw[i]))
		total := 0.0
		for _, sid := range sortedIDs(fw[i]) {
			ctx := states.tuple(sid)
			var ts []transition
			ts, buf = m.transitions(buf, ctx)
			sum := 0.0
			for _, t := range ts {
				if !ci.permits(i+1, t.symbol) {
					continue
				}
				ext := states.intern(extendState(ctx, t.symbol, m.order))
				sum += t.prob * bw[i+1][ext]
			}
			cur[sid] = sum
			total += sum
		}
		if total == 0 {
			return nil, &UnsatisfiableError{Position: i + 1, Pass: "backward"}
		}
		// Renormalize like the forward pass: the raw product across L
		// constrained steps underflows float64 on long sequences, and the
		// sampler only ever consumes relative weights.
		for sid, sum := range cur {
			cur[sid] = sum / total
		}
		bw[i] = cur
	}

	return bw, nil
}
