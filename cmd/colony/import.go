// ABOUTME: Import command for loading requirements from CSV
// ABOUTME: Reads commodity, amount, site rows and applies them to the ledgers

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harper/colony/internal/storage"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import site requirements from CSV",
	Long: `Import requirements from a CSV file with a header row followed by
rows of: commodity, amount_required, site.

Missing sites and commodities are created. Each row sets the required
amount, so a later row for the same site and commodity wins. Deliveries
already recorded are kept. Rows with a blank commodity or site are skipped.

Examples:
  colony import requirements.csv
  colony import requirements.csv --confirm`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		f, err := os.Open(filename) //nolint:gosec // user-supplied import file
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer func() { _ = f.Close() }()

		rows, err := storage.ReadImportCSV(f)
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}

		skip, _ := cmd.Flags().GetBool("confirm")
		if !skip && !confirm(cmd, fmt.Sprintf("Import %d row(s) from '%s'?", len(rows), filename)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
			return nil
		}

		summary, err := svc.Import(rows)
		if err != nil {
			if summary != nil {
				color.Yellow("⚠ Stopped after %d row(s)", summary.Imported)
			}
			return fmt.Errorf("failed to import: %w", err)
		}

		color.Green("Import complete")
		fmt.Fprintf(cmd.OutOrStdout(), "  %d imported, %d skipped, %d new site(s)\n",
			summary.Imported, summary.Skipped, summary.SitesCreated)
		return nil
	},
}

func init() {
	importCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(importCmd)
}
