package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"cadenza/pkg/markov"
)

// constraintEntry is one rule in a constraint file. Exactly one of the
// selector fields must be set; StartsWith and Pattern are expanded against
// the trained alphabet before generation. Multiple entries for the same
// position union their symbol sets.
type constraintEntry struct {
	Position   int      `yaml:"position"`
	OneOf      []string `yaml:"one_of,omitempty"`
	StartsWith string   `yaml:"starts_with,omitempty"`
	Pattern    string   `yaml:"pattern,omitempty"`
}

type constraintFile struct {
	Constraints []constraintEntry `yaml:"constraints"`
}

// LoadConstraints reads a YAML constraint file and resolves every entry into
// explicit per-position symbol sets drawn from the model's alphabet.
func LoadConstraints(path string, alphabet *markov.Alphabet) (markov.ConstraintSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read constraint file: %w", err)
	}

	var file constraintFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse constraint file: %w", err)
	}

	cs := make(markov.ConstraintSet)
	for i, entry := range file.Constraints {
		symbols, err := entry.resolve(alphabet)
		if err != nil {
			return nil, fmt.Errorf("constraint %d (position %d): %w", i, entry.Position, err)
		}
		cs[entry.Position] = union(cs[entry.Position], symbols)
	}
	return cs, nil
}

func (e constraintEntry) resolve(alphabet *markov.Alphabet) ([]string, error) {
	selectors := 0
	if len(e.OneOf) > 0 {
		selectors++
	}
	if e.StartsWith != "" {
		selectors++
	}
	if e.Pattern != "" {
		selectors++
	}
	if selectors != 1 {
		return nil, fmt.Errorf("exactly one of one_of, starts_with, pattern must be set")
	}

	switch {
	case len(e.OneOf) > 0:
		return e.OneOf, nil
	case e.StartsWith != "":
		var symbols []string
		for _, text := range alphabet.Symbols() {
			if strings.HasPrefix(text, e.StartsWith) {
				symbols = append(symbols, text)
			}
		}
		if len(symbols) == 0 {
			return nil, fmt.Errorf("no trained symbol starts with %q", e.StartsWith)
		}
		return symbols, nil
	default:
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		var symbols []string
		for _, text := range alphabet.Symbols() {
			if re.MatchString(text) {
				symbols = append(symbols, text)
			}
		}
		if len(symbols) == 0 {
			return nil, fmt.Errorf("no trained symbol matches %q", e.Pattern)
		}
		return symbols, nil
	}
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
