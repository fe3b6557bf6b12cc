package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/pomolog/internal/bundle"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a backup bundle (or the logs as CSV)",
		Long: `Write every log, the settings, categories, goals and inspirations as one
JSON object. With --csv only the logs are written, one row each.`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}
	cmd.Flags().StringP("output", "o", "-", "Output file, - for stdout")
	cmd.Flags().Bool("csv", false, "Write the logs as CSV instead")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")
	asCSV, _ := cmd.Flags().GetBool("csv")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	w := cmd.OutOrStdout()
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if asCSV {
		return bundle.WriteCSV(w, a.book.All())
	}
	snap, err := bundle.Snapshot(a.store)
	if err != nil {
		return err
	}
	return bundle.Encode(w, snap)
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Restore a backup bundle",
		Long: `Replace the data for every key present in the bundle. Keys that are
missing are left alone; malformed keys are skipped with a warning in the log.
A legacy categoryColors map is applied to the default categories.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	b, err := bundle.FromJSON(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	applied, err := bundle.Apply(a.store, b)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to import")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", strings.Join(applied, ", "))
	return nil
}
