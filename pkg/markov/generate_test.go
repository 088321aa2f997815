package markov

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"testing"
)

func TestGenerateUniquePath(t *testing.T) {
	// At order 2 every trained context of AABAB has exactly one successor,
	// so anchoring the first symbol leaves a single valid five-symbol path
	// and generation is deterministic regardless of seed.
	m, err := Train([][]string{seq("AABAB")}, 2)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}

	for s := uint64(0); s < 10; s++ {
		got, err := m.Generate(ConstraintSet{0: {"A"}}, 5, WithSeed(s))
		if err != nil {
			t.Fatalf("Generate() failed: %v", err)
		}
		if joined := strings.Join(got, ""); joined != "AABAB" {
			t.Errorf("Generate() = %q, want the unique valid path \"AABAB\"", joined)
		}
	}
}

func TestGenerateUnsatisfiableFinalSymbol(t *testing.T) {
	// The corpus trajectory forces B at the final position, so demanding A
	// there is impossible. The engine must fail rather than emit a sequence
	// violating the constraint.
	m, err := Train([][]string{seq("AABAB")}, 2)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}

	got, err := m.Generate(ConstraintSet{4: {"A"}}, 5, WithSeed(7))
	if got != nil {
		t.Fatalf("Generate() returned %v alongside an error", got)
	}
	var unsat *UnsatisfiableError
	if !errors.As(err, &unsat) {
		t.Fatalf("Generate() error = %v, want *UnsatisfiableError", err)
	}
	var invalid *InvalidConstraintError
	if errors.As(err, &invalid) {
		t.Errorf("unsatisfiable constraints must not be reported as invalid input")
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	m, err := Train([][]string{seq("AABAB"), seq("ABBAB"), seq("BABAA")}, 1)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}

	first, err := m.Generate(nil, 3, WithSeed(42))
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := m.Generate(nil, 3, WithSeed(42))
		if err != nil {
			t.Fatalf("Generate() failed: %v", err)
		}
		if strings.Join(again, " ") != strings.Join(first, " ") {
			t.Fatalf("same seed produced %v then %v", first, again)
		}
	}

	other, err := m.Generate(nil, 3, WithSeed(43))
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	_ = other // a different seed may legitimately collide; only sameness is asserted
}

func TestGenerateSatisfiesConstraints(t *testing.T) {
	m, err := Train([][]string{seq("AABAB"), seq("ABBAB"), seq("BABAA")}, 1)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}
	cs := ConstraintSet{0: {"A"}, 2: {"B"}, 5: {"A", "B"}}

	for s := uint64(0); s < 50; s++ {
		got, err := m.Generate(cs, 6, WithSeed(s))
		if err != nil {
			t.Fatalf("Generate() failed: %v", err)
		}
		if len(got) != 6 {
			t.Fatalf("Generate() returned %d symbols, want 6", len(got))
		}
		for pos, allowed := range cs {
			ok := false
			for _, sym := range allowed {
				if got[pos] == sym {
					ok = true
					break
				}
			}
			if !ok {
				t.Errorf("seed %d: symbol %q at position %d violates constraint %v", s, got[pos], pos, allowed)
			}
		}
	}
}

// TestUnconstrainedMatchesRawModel checks that with an empty constraint set
// the sampler's per-step distribution is exactly the model's transition
// distribution: when no context is a dead end, every backward mass is 1 and
// the combined weights reduce to the raw probabilities.
func TestUnconstrainedMatchesRawModel(t *testing.T) {
	m, err := Train([][]string{seq("AABAB")}, 1)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}
	pl := mustPlan(t, m, nil, 4)

	a, _ := m.alphabet.Lookup("A")
	aid, ok, _ := pl.states.lookup(nil, []Symbol{a})
	if !ok {
		t.Fatalf("state (A) was never interned")
	}

	weights := make([]float64, m.alphabet.Len())
	total, _ := pl.stepWeights(1, map[stateID]float64{aid: 1}, weights, nil)

	want := map[string]float64{"A": 1.0 / 3.0, "B": 2.0 / 3.0}
	for text, p := range want {
		sym, _ := m.alphabet.Lookup(text)
		if got := weights[sym] / total; math.Abs(got-p) > 1e-12 {
			t.Errorf("unconstrained weight of %s from state A = %v, want raw P = %v", text, got, p)
		}
	}
}

func TestGenerateWithRand(t *testing.T) {
	m, err := Train([][]string{seq("AABAB"), seq("ABBAB")}, 1)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}

	first, err := m.Generate(nil, 5, WithRand(rand.New(rand.NewPCG(1, 2))))
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	again, err := m.Generate(nil, 5, WithRand(rand.New(rand.NewPCG(1, 2))))
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if strings.Join(first, " ") != strings.Join(again, " ") {
		t.Errorf("identical sources produced %v then %v", first, again)
	}
}

func TestGenerateLongFullyConstrained(t *testing.T) {
	// P(A|A) is 1/3, so a run of A of any length is a valid sequence.
	// Constraining every position exercises the per-position scaling of
	// both tables: the raw backward product 3^-L underflows float64 long
	// before this length, and an unscaled pass would reject the request.
	m, err := Train([][]string{seq("AABAB")}, 1)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}

	const length = 2000
	cs := make(ConstraintSet, length)
	for i := 0; i < length; i++ {
		cs[i] = []string{"A"}
	}

	got, err := m.Generate(cs, length, WithSeed(3))
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if len(got) != length {
		t.Fatalf("Generate() returned %d symbols, want %d", len(got), length)
	}
	for i, sym := range got {
		if sym != "A" {
			t.Fatalf("symbol %q at position %d violates the constraint", sym, i)
		}
	}
}

func TestGenerateRejectsBadLength(t *testing.T) {
	m, err := Train([][]string{seq("AABAB")}, 1)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}
	if _, err := m.Generate(nil, 0); err == nil {
		t.Errorf("Generate() with length 0 should fail")
	}
}

func TestGenerateN(t *testing.T) {
	m, err := Train([][]string{seq("AABAB"), seq("ABBAB"), seq("BABAA")}, 1)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}
	ctx := context.Background()
	cs := ConstraintSet{0: {"A"}}

	first, err := m.GenerateN(ctx, cs, 6, 16, WithSeed(99))
	if err != nil {
		t.Fatalf("GenerateN() failed: %v", err)
	}
	if len(first) != 16 {
		t.Fatalf("GenerateN() returned %d sequences, want 16", len(first))
	}
	for i, s := range first {
		if len(s) != 6 {
			t.Errorf("sequence %d has length %d, want 6", i, len(s))
		}
		if s[0] != "A" {
			t.Errorf("sequence %d starts with %q, want A", i, s[0])
		}
	}

	// Same seed: identical draws in identical order, regardless of the
	// goroutine interleaving.
	again, err := m.GenerateN(ctx, cs, 6, 16, WithSeed(99), WithParallelism(2))
	if err != nil {
		t.Fatalf("GenerateN() failed: %v", err)
	}
	for i := range first {
		if strings.Join(first[i], " ") != strings.Join(again[i], " ") {
			t.Errorf("draw %d differs across runs with the same seed: %v vs %v", i, first[i], again[i])
		}
	}
}

func TestGenerateNLogsOnBothPaths(t *testing.T) {
	m, err := Train([][]string{seq("AABAB"), seq("ABBAB")}, 1)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}
	ctx := context.Background()

	var serial strings.Builder
	_, err = m.GenerateN(ctx, nil, 4, 2,
		WithLogger(slog.New(slog.NewTextHandler(&serial, nil))),
		WithRand(rand.New(rand.NewPCG(1, 2))))
	if err != nil {
		t.Fatalf("GenerateN() failed: %v", err)
	}
	if !strings.Contains(serial.String(), "sequences generated") {
		t.Errorf("serial draw path logged %q, want a completion record", serial.String())
	}

	var parallel strings.Builder
	_, err = m.GenerateN(ctx, nil, 4, 2,
		WithLogger(slog.New(slog.NewTextHandler(&parallel, nil))),
		WithSeed(5))
	if err != nil {
		t.Fatalf("GenerateN() failed: %v", err)
	}
	if !strings.Contains(parallel.String(), "sequences generated") {
		t.Errorf("parallel draw path logged %q, want a completion record", parallel.String())
	}
}

func TestGenerateNRejectsBadCount(t *testing.T) {
	m, err := Train([][]string{seq("AABAB")}, 1)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}
	if _, err := m.GenerateN(context.Background(), nil, 3, 0); err == nil {
		t.Errorf("GenerateN() with count 0 should fail")
	}
}

func BenchmarkGenerate(b *testing.B) {
	corpus := make([][]string, 64)
	for i := range corpus {
		line := make([]string, 32)
		for j := range line {
			line[j] = string(rune('A' + (i+j)%4))
		}
		corpus[i] = line
	}
	m, err := Train(corpus, 2)
	if err != nil {
		b.Fatalf("Train() failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Generate(nil, 16, WithSeed(uint64(i))); err != nil {
			b.Fatalf("Generate() failed: %v", err)
		}
	}
}
