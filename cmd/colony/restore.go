// ABOUTME: Restore command for loading data from a YAML backup
// ABOUTME: Adds backed-up sites and ledgers to the current database

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harper/colony/internal/storage"
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore data from a YAML backup",
	Long: `Restore commodities, sites, and ledgers from a backup created with
'colony backup'.

WARNING: This adds to existing data. Ledger rows present in the backup
replace the matching rows in the database.

Examples:
  colony restore colony.yaml
  colony restore ~/backups/colony-20250101.yaml --confirm`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename) //nolint:gosec // user-supplied backup file
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		skip, _ := cmd.Flags().GetBool("confirm")
		if !skip && !confirm(cmd, fmt.Sprintf("Restore data from '%s'?", filename)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
			return nil
		}

		if err := storage.ImportBackup(repo, data); err != nil {
			return fmt.Errorf("failed to restore: %w", err)
		}

		sites, _ := svc.ListSites()
		reqs, _ := svc.FetchAll()

		color.Green("Restore complete")
		fmt.Fprintf(cmd.OutOrStdout(), "  %d sites, %d ledger rows in database\n", len(sites), len(reqs))

		return nil
	},
}

func init() {
	restoreCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(restoreCmd)
}
