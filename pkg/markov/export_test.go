package markov

import (
	"strings"
	"testing"
)

func TestExportRoundTrip(t *testing.T) {
	m, err := Train([][]string{seq("AABAB"), seq("ABBAB")}, 2)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}

	restored, err := FromExport(m.Export())
	if err != nil {
		t.Fatalf("FromExport() failed: %v", err)
	}

	if restored.Order() != m.Order() {
		t.Errorf("restored order = %d, want %d", restored.Order(), m.Order())
	}
	if restored.Contexts() != m.Contexts() {
		t.Errorf("restored contexts = %d, want %d", restored.Contexts(), m.Contexts())
	}

	// The restored model must generate identically to the original.
	want, err := m.Generate(ConstraintSet{0: {"A"}}, 5, WithSeed(3))
	if err != nil {
		t.Fatalf("Generate() on original failed: %v", err)
	}
	got, err := restored.Generate(ConstraintSet{0: {"A"}}, 5, WithSeed(3))
	if err != nil {
		t.Fatalf("Generate() on restored failed: %v", err)
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("restored model generated %v, original %v", got, want)
	}
}

func TestFromExportRejectsCorruptModels(t *testing.T) {
	base := func() *ExportedModel {
		m, err := Train([][]string{seq("AABAB")}, 1)
		if err != nil {
			t.Fatalf("Train() failed: %v", err)
		}
		return m.Export()
	}

	testCases := []struct {
		name   string
		mutate func(*ExportedModel)
	}{
		{name: "bad order", mutate: func(e *ExportedModel) { e.Order = 0 }},
		{name: "duplicate symbol", mutate: func(e *ExportedModel) { e.Symbols = append(e.Symbols, e.Symbols[0]) }},
		{name: "unknown symbol handle", mutate: func(e *ExportedModel) { e.Contexts[0].Next[0].Symbol = 99 }},
		{name: "probability out of range", mutate: func(e *ExportedModel) { e.Contexts[0].Next[0].Probability = 1.5 }},
		{name: "distribution does not sum to one", mutate: func(e *ExportedModel) { e.Contexts[0].Next[0].Probability /= 2 }},
		{name: "empty distribution", mutate: func(e *ExportedModel) { e.Contexts[0].Next = nil }},
		{name: "context wider than order", mutate: func(e *ExportedModel) { e.Contexts[0].Key = "0 1 0" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := base()
			tc.mutate(e)
			if _, err := FromExport(e); err == nil {
				t.Errorf("FromExport() accepted a corrupt model")
			}
		})
	}
}
