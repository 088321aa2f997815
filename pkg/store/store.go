/*
Package store persists trained markov models in a SQLite database so the
expensive training pass runs once and generation can reuse its result
across invocations. A Store holds prepared statements over an open
database; writes are transactional, and a loaded model goes through the
same validation as any imported artifact.
*/
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cadenza/pkg/markov"
)

// ErrNotFound is returned when a named model does not exist in the store.
var ErrNotFound = errors.New("store: model not found")

// ModelInfo holds the metadata row for a persisted model.
type ModelInfo struct {
	Id    int
	Name  string
	Order int
}

// SetupSchema initializes the tables in the provided database. It is
// idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const (
		schemaModels = `
CREATE TABLE IF NOT EXISTS chain_models (
    model_id INTEGER PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    model_order INTEGER NOT NULL
);
`
		schemaSymbols = `
CREATE TABLE IF NOT EXISTS chain_symbols (
    model_id INTEGER NOT NULL,
    symbol_id INTEGER NOT NULL,
    symbol_text TEXT NOT NULL,
    PRIMARY KEY (model_id, symbol_id)
);
`
		schemaTransitions = `
CREATE TABLE IF NOT EXISTS chain_transitions (
    model_id INTEGER NOT NULL,
    context_key TEXT NOT NULL,
    next_symbol_id INTEGER NOT NULL,
    probability REAL NOT NULL,
    PRIMARY KEY (model_id, context_key, next_symbol_id)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, schema := range []string{schemaModels, schemaSymbols, schemaTransitions} {
		if _, err = tx.Exec(schema); err != nil {
			return fmt.Errorf("could not create schema: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Store reads and writes trained models in a SQLite database. It holds the
// database connection and prepared SQL statements, and is safe for
// concurrent readers.
type Store struct {
	db                *sql.DB
	stmtGetModel      *sql.Stmt
	stmtListModels    *sql.Stmt
	stmtInsertModel   *sql.Stmt
	stmtDeleteModel   *sql.Stmt
	stmtDeleteSymbols *sql.Stmt
	stmtDeleteChains  *sql.Stmt
	stmtGetSymbols    *sql.Stmt
	stmtGetChains     *sql.Stmt
	stmtCountSymbols  *sql.Stmt
	stmtCountChains   *sql.Stmt
	stmtModelSymbols  *sql.Stmt
	stmtModelChains   *sql.Stmt
	logger            *slog.Logger
}

// New creates a Store over an initialized database, pre-compiling all
// statements. It returns an error if any preparation fails.
func New(db *sql.DB) (*Store, error) {
	stmtGetModel, err := db.Prepare(`SELECT model_id, model_order FROM chain_models WHERE model_name = ?;`)
	if err != nil {
		return nil, err
	}
	stmtListModels, err := db.Prepare(`SELECT model_id, model_name, model_order FROM chain_models ORDER BY model_name;`)
	if err != nil {
		return nil, err
	}
	stmtInsertModel, err := db.Prepare(`INSERT INTO chain_models (model_name, model_order) VALUES (?, ?);`)
	if err != nil {
		return nil, err
	}
	stmtDeleteModel, err := db.Prepare(`DELETE FROM chain_models WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}
	stmtDeleteSymbols, err := db.Prepare(`DELETE FROM chain_symbols WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}
	stmtDeleteChains, err := db.Prepare(`DELETE FROM chain_transitions WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}
	stmtGetSymbols, err := db.Prepare(`SELECT symbol_text FROM chain_symbols WHERE model_id = ? ORDER BY symbol_id;`)
	if err != nil {
		return nil, err
	}
	stmtGetChains, err := db.Prepare(`SELECT context_key, next_symbol_id, probability FROM chain_transitions WHERE model_id = ? ORDER BY context_key, next_symbol_id;`)
	if err != nil {
		return nil, err
	}
	stmtCountSymbols, err := db.Prepare(`SELECT COUNT(*) FROM chain_symbols;`)
	if err != nil {
		return nil, err
	}
	stmtCountChains, err := db.Prepare(`SELECT COUNT(*) FROM chain_transitions;`)
	if err != nil {
		return nil, err
	}
	stmtModelSymbols, err := db.Prepare(`SELECT COUNT(*) FROM chain_symbols WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}
	stmtModelChains, err := db.Prepare(`SELECT COUNT(*), COUNT(DISTINCT context_key) FROM chain_transitions WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:                db,
		stmtGetModel:      stmtGetModel,
		stmtListModels:    stmtListModels,
		stmtInsertModel:   stmtInsertModel,
		stmtDeleteModel:   stmtDeleteModel,
		stmtDeleteSymbols: stmtDeleteSymbols,
		stmtDeleteChains:  stmtDeleteChains,
		stmtGetSymbols:    stmtGetSymbols,
		stmtGetChains:     stmtGetChains,
		stmtCountSymbols:  stmtCountSymbols,
		stmtCountChains:   stmtCountChains,
		stmtModelSymbols:  stmtModelSymbols,
		stmtModelChains:   stmtModelChains,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtGetModel.Close()
	_ = s.stmtListModels.Close()
	_ = s.stmtInsertModel.Close()
	_ = s.stmtDeleteModel.Close()
	_ = s.stmtDeleteSymbols.Close()
	_ = s.stmtDeleteChains.Close()
	_ = s.stmtGetSymbols.Close()
	_ = s.stmtGetChains.Close()
	_ = s.stmtCountSymbols.Close()
	_ = s.stmtCountChains.Close()
	_ = s.stmtModelSymbols.Close()
	_ = s.stmtModelChains.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// GetInfo retrieves the metadata for a single named model.
func (s *Store) GetInfo(ctx context.Context, name string) (ModelInfo, error) {
	var info ModelInfo
	err := s.stmtGetModel.QueryRowContext(ctx, name).Scan(&info.Id, &info.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return ModelInfo{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return ModelInfo{}, err
	}
	info.Name = name
	return info, nil
}

// List returns the metadata of every persisted model, ordered by name.
func (s *Store) List(ctx context.Context) ([]ModelInfo, error) {
	rows, err := s.stmtListModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var infos []ModelInfo
	for rows.Next() {
		var info ModelInfo
		if err = rows.Scan(&info.Id, &info.Name, &info.Order); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Save persists a trained model under the given name, replacing any
// existing model of that name. The whole write is transactional.
func (s *Store) Save(ctx context.Context, name string, m *markov.Model) error {
	exported := m.Export()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	// Replace semantics: drop the old rows before writing the new ones.
	var oldID, oldOrder int
	err = tx.StmtContext(ctx, s.stmtGetModel).QueryRowContext(ctx, name).Scan(&oldID, &oldOrder)
	if err == nil {
		if err := s.deleteRows(ctx, tx, oldID); err != nil {
			return err
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	res, err := tx.StmtContext(ctx, s.stmtInsertModel).ExecContext(ctx, name, exported.Order)
	if err != nil {
		return fmt.Errorf("failed to insert model %q: %w", name, err)
	}
	modelID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmtSymbol, err := tx.PrepareContext(ctx, `INSERT INTO chain_symbols (model_id, symbol_id, symbol_text) VALUES (?, ?, ?);`)
	if err != nil {
		return err
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtSymbol)
	for id, text := range exported.Symbols {
		if _, err := stmtSymbol.ExecContext(ctx, modelID, id, text); err != nil {
			return fmt.Errorf("failed to insert symbol %q: %w", text, err)
		}
	}

	stmtChain, err := tx.PrepareContext(ctx, `INSERT INTO chain_transitions (model_id, context_key, next_symbol_id, probability) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtChain)
	transitions := 0
	for _, ec := range exported.Contexts {
		for _, et := range ec.Next {
			if _, err := stmtChain.ExecContext(ctx, modelID, ec.Key, et.Symbol, et.Probability); err != nil {
				return fmt.Errorf("failed to insert transition (%q -> %d): %w", ec.Key, et.Symbol, err)
			}
			transitions++
		}
	}

	s.logger.InfoContext(ctx, "model saved",
		slog.String("model_name", name),
		slog.Int("order", exported.Order),
		slog.Int("symbols", len(exported.Symbols)),
		slog.Int("contexts", len(exported.Contexts)),
		slog.Int("transitions", transitions),
	)

	return tx.Commit()
}

// Load rebuilds a named model from the database. The result passes the
// same validation as any imported artifact, so a corrupted database
// surfaces as an error rather than a broken model.
func (s *Store) Load(ctx context.Context, name string) (*markov.Model, error) {
	info, err := s.GetInfo(ctx, name)
	if err != nil {
		return nil, err
	}

	exported := &markov.ExportedModel{Order: info.Order}

	rows, err := s.stmtGetSymbols.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var text string
		if err = rows.Scan(&text); err != nil {
			_ = rows.Close()
			return nil, err
		}
		exported.Symbols = append(exported.Symbols, text)
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	cRows, err := s.stmtGetChains.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, err
	}
	for cRows.Next() {
		var key string
		var et markov.ExportedTransition
		if err = cRows.Scan(&key, &et.Symbol, &et.Probability); err != nil {
			_ = cRows.Close()
			return nil, err
		}
		n := len(exported.Contexts)
		if n == 0 || exported.Contexts[n-1].Key != key {
			exported.Contexts = append(exported.Contexts, markov.ExportedContext{Key: key})
			n++
		}
		exported.Contexts[n-1].Next = append(exported.Contexts[n-1].Next, et)
	}
	_ = cRows.Close()
	if err = cRows.Err(); err != nil {
		return nil, err
	}

	m, err := markov.FromExport(exported)
	if err != nil {
		return nil, fmt.Errorf("store: model %q is corrupt: %w", name, err)
	}
	return m, nil
}

// Delete removes a model and all of its rows. Deleting a model that does
// not exist returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	info, err := s.GetInfo(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if err := s.deleteRows(ctx, tx, info.Id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "model removed",
		slog.String("model_name", name),
		slog.Int("model_id", info.Id),
	)
	return tx.Commit()
}

func (s *Store) deleteRows(ctx context.Context, tx *sql.Tx, modelID int) error {
	if _, err := tx.StmtContext(ctx, s.stmtDeleteChains).ExecContext(ctx, modelID); err != nil {
		return fmt.Errorf("failed to remove transitions for model %d: %w", modelID, err)
	}
	if _, err := tx.StmtContext(ctx, s.stmtDeleteSymbols).ExecContext(ctx, modelID); err != nil {
		return fmt.Errorf("failed to remove symbols for model %d: %w", modelID, err)
	}
	if _, err := tx.StmtContext(ctx, s.stmtDeleteModel).ExecContext(ctx, modelID); err != nil {
		return fmt.Errorf("failed to remove model %d: %w", modelID, err)
	}
	return nil
}
