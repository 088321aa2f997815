package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"cadenza/pkg/markov"
)

// ExportJSON serializes a persisted model into an indented JSON document and
// writes it to the provided io.Writer.
func (s *Store) ExportJSON(ctx context.Context, name string, w io.Writer) error {
	m, err := s.Load(ctx, name)
	if err != nil {
		return err
	}
	exported := m.Export()

	s.logger.InfoContext(ctx, "model exported",
		slog.String("model_name", name),
		slog.Int("symbols_exported", len(exported.Symbols)),
		slog.Int("contexts_exported", len(exported.Contexts)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// ImportJSON reads a JSON model document from an io.Reader, validates it, and
// persists it under the given name. Any existing model of that name is
// replaced.
func (s *Store) ImportJSON(ctx context.Context, name string, r io.Reader) error {
	var exported markov.ExportedModel
	if err := json.NewDecoder(r).Decode(&exported); err != nil {
		return fmt.Errorf("failed to decode json model: %w", err)
	}

	m, err := markov.FromExport(&exported)
	if err != nil {
		return fmt.Errorf("imported model is not usable: %w", err)
	}

	s.logger.InfoContext(ctx, "model imported",
		slog.String("model_name", name),
		slog.Int("symbols_imported", len(exported.Symbols)),
		slog.Int("contexts_imported", len(exported.Contexts)),
	)

	return s.Save(ctx, name, m)
}
