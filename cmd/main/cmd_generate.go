package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"cadenza/pkg/markov"
	"cadenza/pkg/notation"
)

var (
	flagGenModel       string
	flagGenConstraints string
	flagGenLength      int
	flagGenCount       int
	flagGenSeed        uint64
	flagGenOutput      string
	flagGenWorkers     int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate constrained sequences from a trained model",
	Long: `Loads a trained model and generates sequences of the requested length.
Each position may be restricted by a constraint file; every emitted
sequence satisfies all constraints. If no sequence can satisfy them,
the command reports the earliest position where generation becomes
impossible and produces no output.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	length := config.Length
	if cmd.Flags().Changed("length") {
		length = flagGenLength
	}
	count := config.Count
	if cmd.Flags().Changed("count") {
		count = flagGenCount
	}
	workers := config.Workers
	if cmd.Flags().Changed("workers") {
		workers = flagGenWorkers
	}

	db, s, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		s.Close()
		_ = db.Close()
	}()

	m, err := s.Load(cmd.Context(), flagGenModel)
	if err != nil {
		return err
	}

	var cs markov.ConstraintSet
	if flagGenConstraints != "" {
		cs, err = LoadConstraints(flagGenConstraints, m.Alphabet())
		if err != nil {
			return err
		}
	}

	opts := []markov.GenerateOption{
		markov.WithLogger(logger),
		markov.WithParallelism(workers),
	}
	if cmd.Flags().Changed("seed") {
		opts = append(opts, markov.WithSeed(flagGenSeed))
	}

	sequences, err := m.GenerateN(cmd.Context(), cs, length, count, opts...)
	if err != nil {
		var unsat *markov.UnsatisfiableError
		if errors.As(err, &unsat) {
			return fmt.Errorf("constraints cannot be satisfied: %w", err)
		}
		return err
	}

	if flagGenOutput == "-" {
		return notation.WriteSequences(os.Stdout, sequences)
	}
	var buf bytes.Buffer
	if err := notation.WriteSequences(&buf, sequences); err != nil {
		return err
	}
	return atomic.WriteFile(flagGenOutput, &buf)
}

func init() {
	generateCmd.Flags().StringVar(&flagGenModel, "model", "", "name of the trained model to use")
	generateCmd.Flags().StringVarP(&flagGenConstraints, "constraints", "c", "", "YAML constraint file")
	generateCmd.Flags().IntVarP(&flagGenLength, "length", "l", 0, "sequence length (overrides config)")
	generateCmd.Flags().IntVarP(&flagGenCount, "count", "n", 0, "number of sequences to generate (overrides config)")
	generateCmd.Flags().Uint64VarP(&flagGenSeed, "seed", "s", 0, "seed for reproducible output")
	generateCmd.Flags().StringVarP(&flagGenOutput, "output", "o", "-", "output file (- for stdout)")
	generateCmd.Flags().IntVar(&flagGenWorkers, "workers", 0, "parallel draws, 0 for GOMAXPROCS (overrides config)")
	_ = generateCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(generateCmd)
}
