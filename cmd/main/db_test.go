package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cadenza/pkg/store"
)

func TestInitDB(t *testing.T) {
	db, err := initDB(filepath.Join(t.TempDir(), "cadenza.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, store.SetupSchema(db))

	// Whichever driver the build selected must have applied its WAL pragma.
	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode;").Scan(&mode))
	require.Equal(t, "wal", mode)
}
