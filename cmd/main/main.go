package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cadenza/pkg/store"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	flagConfig   string
	flagDatabase string
	flagLogLevel string

	config *Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cadenza",
	Short: "cadenza - constrained melodic sequence generator",
	Long: `cadenza trains fixed-order Markov models on corpora of melodic
sequences and generates new sequences from them under hard positional
constraints. Generated sequences are guaranteed to satisfy every
constraint or the request fails before any output is produced.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = LoadConfig(flagConfig)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			config.DatabasePath = flagDatabase
		}
		if cmd.Flags().Changed("log-level") {
			config.LogLevel = flagLogLevel
		}

		level, err := parseLogLevel(config.LogLevel)
		if err != nil {
			return err
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// openStore opens the configured database, initializes the schema, and
// wraps it in a Store with logging attached. The caller owns both handles.
func openStore() (*sql.DB, *store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(config.DatabasePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := initDB(config.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	s, err := store.New(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	s.SetLogger(logger)
	return db, s, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "C", "./cadenza.yaml", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "db", "", "path to the model database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
