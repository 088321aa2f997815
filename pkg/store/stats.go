package store

import (
	"context"
)

// DBStats holds aggregated statistics for the entire database, including a
// list of all models and their individual stats.
type DBStats struct {
	Models     []ModelInfo        // A list of models in the database
	Stats      map[int]ModelStats // A mapping of model ids to their stats
	SymbolRows int                // The number of symbol rows across all models
	ChainRows  int                // The number of transition rows across all models
}

// ModelStats holds aggregated statistics for a single persisted model.
type ModelStats struct {
	Symbols     int // The size of the model's alphabet.
	Contexts    int // The number of distinct contexts with at least one transition.
	Transitions int // The number of context->symbol transition rows.
}

// GetStats returns a snapshot of statistics for the entire database,
// including global counts and per-model stats.
func (s *Store) GetStats(ctx context.Context) (*DBStats, error) {
	models, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var symbolRows int
	err = s.stmtCountSymbols.QueryRowContext(ctx).Scan(&symbolRows)
	if err != nil {
		return nil, err
	}

	var chainRows int
	err = s.stmtCountChains.QueryRowContext(ctx).Scan(&chainRows)
	if err != nil {
		return nil, err
	}

	modelStats := make(map[int]ModelStats)
	for _, info := range models {
		var ms ModelStats
		err = s.stmtModelSymbols.QueryRowContext(ctx, info.Id).Scan(&ms.Symbols)
		if err != nil {
			return nil, err
		}
		err = s.stmtModelChains.QueryRowContext(ctx, info.Id).Scan(&ms.Transitions, &ms.Contexts)
		if err != nil {
			return nil, err
		}
		modelStats[info.Id] = ms
	}

	return &DBStats{
		Models:     models,
		Stats:      modelStats,
		SymbolRows: symbolRows,
		ChainRows:  chainRows,
	}, nil
}
