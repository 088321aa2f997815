package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cadenza/pkg/store"
)

var (
	flagModelsExportOut string
	flagModelsImportIn  string
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect and manage persisted models",
	RunE:  runModelsList,
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted models with their statistics",
	RunE:  runModelsList,
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a persisted model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsDelete,
}

var modelsExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export a persisted model as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsExport,
}

var modelsImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import a JSON model document",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsImport,
}

func withStore(fn func(s *store.Store) error) error {
	db, s, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		s.Close()
		_ = db.Close()
	}()
	return fn(s)
}

func runModelsList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.Store) error {
		stats, err := s.GetStats(cmd.Context())
		if err != nil {
			return err
		}
		if len(stats.Models) == 0 {
			fmt.Println("no models")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tORDER\tSYMBOLS\tCONTEXTS\tTRANSITIONS")
		for _, info := range stats.Models {
			ms := stats.Stats[info.Id]
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", info.Name, info.Order, ms.Symbols, ms.Contexts, ms.Transitions)
		}
		return w.Flush()
	})
}

func runModelsDelete(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.Store) error {
		return s.Delete(cmd.Context(), args[0])
	})
}

func runModelsExport(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.Store) error {
		var out io.Writer = os.Stdout
		if flagModelsExportOut != "-" {
			f, err := os.Create(flagModelsExportOut)
			if err != nil {
				return err
			}
			defer func(f *os.File) {
				_ = f.Close()
			}(f)
			out = f
		}
		return s.ExportJSON(cmd.Context(), args[0], out)
	})
}

func runModelsImport(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.Store) error {
		var in io.Reader = os.Stdin
		if flagModelsImportIn != "-" {
			f, err := os.Open(flagModelsImportIn)
			if err != nil {
				return err
			}
			defer func(f *os.File) {
				_ = f.Close()
			}(f)
			in = f
		}
		return s.ImportJSON(cmd.Context(), args[0], in)
	})
}

func init() {
	modelsExportCmd.Flags().StringVarP(&flagModelsExportOut, "output", "o", "-", "output file (- for stdout)")
	modelsImportCmd.Flags().StringVarP(&flagModelsImportIn, "file", "f", "-", "input file (- for stdin)")
	modelsCmd.AddCommand(modelsListCmd, modelsDeleteCmd, modelsExportCmd, modelsImportCmd)
	rootCmd.AddCommand(modelsCmd)
}
