package markov

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// genOptions is used by the generate functions to configure default options.
type genOptions struct {
	seed    uint64
	seedSet bool
	rng     *rand.Rand
	logger  *slog.Logger
	workers int
}

// GenerateOption configures generation parameters. It is used as a variadic
// argument to Generate and GenerateN.
type GenerateOption func(*genOptions)

// WithSeed fixes the random source so that generation is reproducible:
// identical model, constraints, length and seed produce identical output.
func WithSeed(seed uint64) GenerateOption {
	return func(o *genOptions) { o.seed = seed; o.seedSet = true }
}

// WithRand supplies the random source directly. It overrides WithSeed, and
// forces GenerateN to draw sequences serially since a shared source cannot
// be split across goroutines deterministically.
func WithRand(rng *rand.Rand) GenerateOption {
	return func(o *genOptions) { o.rng = rng }
}

// WithLogger enables logging for generation. By default logs are discarded.
func WithLogger(logger *slog.Logger) GenerateOption {
	return func(o *genOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithParallelism caps the number of goroutines GenerateN uses for
// independent draws. Zero or less means GOMAXPROCS.
func WithParallelism(n int) GenerateOption {
	return func(o *genOptions) { o.workers = n }
}

func applyOptions(opts []GenerateOption) *genOptions {
	o := &genOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// plan holds the ephemeral tables for one generation request: the validated
// constraints and the forward and backward mass tables over the request's
// own interned state space. A plan is read-only once built, so independent
// draws may share it.
type plan struct {
	model    *Model
	ci       *constraintIndex
	length   int
	states   *stateTable
	forward  []map[stateID]float64
	backward []map[stateID]float64
}

// newPlan validates the constraints and builds both tables, failing with
// *InvalidConstraintError or *UnsatisfiableError before any sampling work.
func newPlan(m *Model, cs ConstraintSet, length int) (*plan, error) {
	if length < 1 {
		return nil, fmt.Errorf("markov: sequence length must be at least 1, got %d", length)
	}
	ci, err := cs.validate(m, length)
	if err != nil {
		return nil, err
	}
	states := newStateTable()
	fw, err := buildForward(m, ci, length, states)
	if err != nil {
		return nil, err
	}
	bw, err := buildBackward(m, ci, length, states, fw)
	if err != nil {
		return nil, err
	}
	return &plan{model: m, ci: ci, length: length, states: states, forward: fw, backward: bw}, nil
}

// stepWeights fills weights (indexed by symbol handle) with the aggregate
// draw weight of every candidate at position i given the running mass set:
// mass * P(x|s') * backward[i][extend(s',x)]. It returns the total weight.
func (pl *plan) stepWeights(i int, running map[stateID]float64, weights []float64, buf []byte) (float64, []byte) {
	for j := range weights {
		weights[j] = 0
	}
	total := 0.0
	for _, sid := range sortedIDs(running) {
		ctx := pl.states.tuple(sid)
		mass := running[sid]
		var ts []transition
		ts, buf = pl.model.transitions(buf, ctx)
		for _, t := range ts {
			if !pl.ci.permits(i, t.symbol) {
				continue
			}
			// Every reachable extension was interned by the forward pass,
			// so a read-only lookup keeps concurrent draws race-free.
			ext, ok, lbuf := pl.states.lookup(buf, extendState(ctx, t.symbol, pl.model.order))
			buf = lbuf
			if !ok {
				continue
			}
			w := mass * t.prob * pl.backward[i][ext]
			weights[t.symbol] += w
			total += w
		}
	}
	return total, buf
}

// sample draws one complete sequence. The backward table guarantees every
// step has a valid continuation, so the sweep never backtracks; a zero
// aggregate weight here means the tables are inconsistent and is reported
// as an internal error, not a user one.
func (pl *plan) sample(rng *rand.Rand) ([]string, error) {
	empty, _, buf := pl.states.lookup(nil, nil)
	running := map[stateID]float64{empty: 1}
	weights := make([]float64, pl.model.alphabet.Len())
	out := make([]string, 0, pl.length)

	for i := 0; i < pl.length; i++ {
		var total float64
		total, buf = pl.stepWeights(i, running, weights, buf)
		if total <= 0 {
			return nil, fmt.Errorf("markov: internal: aggregate sampling weight is zero at position %d", i)
		}

		target := rng.Float64() * total
		chosen := Symbol(-1)
		for sym, w := range weights {
			if w == 0 {
				continue
			}
			target -= w
			if target < 0 {
				chosen = Symbol(sym)
				break
			}
		}
		if chosen < 0 {
			// Floating-point tail: fall back to the last weighted candidate.
			for sym := len(weights) - 1; sym >= 0; sym-- {
				if weights[sym] > 0 {
					chosen = Symbol(sym)
					break
				}
			}
		}

		// Keep only states consistent with the chosen symbol, carrying the
		// forward mass along, renormalized so long sequences cannot underflow.
		next := make(map[stateID]float64)
		sum := 0.0
		for _, sid := range sortedIDs(running) {
			ctx := pl.states.tuple(sid)
			var p float64
			p, buf = pl.model.prob(buf, ctx, chosen)
			if p == 0 {
				continue
			}
			ext, ok, lbuf := pl.states.lookup(buf, extendState(ctx, chosen, pl.model.order))
			buf = lbuf
			if !ok {
				continue
			}
			next[ext] += running[sid] * p
			sum += running[sid] * p
		}
		for sid, mass := range next {
			next[sid] = mass / sum
		}
		running = next
		out = append(out, pl.model.alphabet.Text(chosen))
	}

	return out, nil
}

// Generate draws a single sequence of the given length satisfying every
// constraint. It fails with *InvalidConstraintError for malformed
// constraints and *UnsatisfiableError when no valid sequence exists; it
// never returns a sequence that violates a constraint.
func (m *Model) Generate(cs ConstraintSet, length int, opts ...GenerateOption) ([]string, error) {
	o := applyOptions(opts)
	pl, err := newPlan(m, cs, length)
	if err != nil {
		return nil, err
	}
	rng := o.rng
	if rng == nil {
		if o.seedSet {
			rng = rand.New(rand.NewPCG(o.seed, 0))
		} else {
			rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	seq, err := pl.sample(rng)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("sequence generated",
		slog.Int("length", length),
		slog.Int("constrained_positions", len(cs)),
		slog.Int("states", pl.states.len()),
	)
	return seq, nil
}

// GenerateN draws n independent sequences against the same plan: the
// constraints are validated and the tables built exactly once, then the
// draws run in parallel, each with its own random source derived from the
// base seed, so results are deterministic and returned in draw order.
func (m *Model) GenerateN(ctx context.Context, cs ConstraintSet, length, n int, opts ...GenerateOption) ([][]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("markov: sequence count must be at least 1, got %d", n)
	}
	o := applyOptions(opts)
	pl, err := newPlan(m, cs, length)
	if err != nil {
		return nil, err
	}

	out := make([][]string, n)

	if o.rng != nil {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if out[i], err = pl.sample(o.rng); err != nil {
				return nil, err
			}
		}
	} else {
		base := o.seed
		if !o.seedSet {
			base = rand.Uint64()
		}

		workers := o.workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := 0; i < n; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				rng := rand.New(rand.NewPCG(base, uint64(i)))
				seq, err := pl.sample(rng)
				if err != nil {
					return err
				}
				out[i] = seq
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	o.logger.InfoContext(ctx, "sequences generated",
		slog.Int("count", n),
		slog.Int("length", length),
		slog.Int("constrained_positions", len(cs)),
		slog.Int("states", pl.states.len()),
	)
	return out, nil
}
