package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"cadenza/pkg/markov"
	"cadenza/pkg/notation"
)

var (
	flagTrainFile  string
	flagTrainOrder int
	flagTrainModel string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a model from a corpus and persist it",
	Long: `Reads a corpus of melodic sequences (one per line, whitespace-separated
pitch:duration tokens), trains a fixed-order Markov model on it, and
saves the model under the given name. An existing model of the same
name is replaced.`,
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	order := config.Order
	if cmd.Flags().Changed("order") {
		order = flagTrainOrder
	}

	var in io.Reader = os.Stdin
	if flagTrainFile != "-" {
		f, err := os.Open(flagTrainFile)
		if err != nil {
			return fmt.Errorf("failed to open corpus: %w", err)
		}
		defer func(f *os.File) {
			_ = f.Close()
		}(f)
		in = f
	}

	corpus, err := notation.ReadCorpus(in)
	if err != nil {
		return err
	}

	m, err := markov.Train(corpus, order)
	if err != nil {
		return err
	}
	logger.Info("model trained",
		slog.String("model_name", flagTrainModel),
		slog.Int("order", order),
		slog.Int("sequences", len(corpus)),
		slog.Int("alphabet", m.Alphabet().Len()),
		slog.Int("contexts", m.Contexts()),
	)

	db, s, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		s.Close()
		_ = db.Close()
	}()

	return s.Save(cmd.Context(), flagTrainModel, m)
}

func init() {
	trainCmd.Flags().StringVarP(&flagTrainFile, "file", "f", "-", "corpus file to train on (- for stdin)")
	trainCmd.Flags().IntVarP(&flagTrainOrder, "order", "m", 0, "context width of the model (overrides config)")
	trainCmd.Flags().StringVar(&flagTrainModel, "model", "", "name to save the model under")
	_ = trainCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(trainCmd)
}
