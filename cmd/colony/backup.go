// ABOUTME: Backup command for exporting data to YAML
// ABOUTME: Creates portable backup files for data migration

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harper/colony/internal/storage"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a YAML backup of all data",
	Long: `Create a YAML backup file containing all commodities, sites, and ledgers.

The backup file can be used to:
- Move data between machines
- Restore after data loss
- Load into a fresh database with 'colony restore'

Examples:
  colony backup --output colony.yaml
  colony backup -o ~/backups/colony-$(date +%Y%m%d).yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		data, err := storage.ExportBackup(repo)
		if err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}

		if output == "" {
			// Default filename with timestamp
			output = fmt.Sprintf("colony-%s.yaml", time.Now().Format("20060102-150405"))
		}

		if err := os.WriteFile(output, data, 0644); err != nil { //nolint:gosec // 0644 is intentional for backup files
			return fmt.Errorf("failed to write backup: %w", err)
		}

		sites, _ := svc.ListSites()
		reqs, _ := svc.FetchAll()

		color.Green("Backup created: %s", output)
		fmt.Fprintf(cmd.OutOrStdout(), "  %d sites, %d ledger rows\n", len(sites), len(reqs))

		return nil
	},
}

func init() {
	backupCmd.Flags().StringP("output", "o", "", "output file (default: colony-YYYYMMDD-HHMMSS.yaml)")

	rootCmd.AddCommand(backupCmd)
}
