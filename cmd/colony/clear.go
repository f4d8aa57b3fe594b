// ABOUTME: Clear command
// ABOUTME: Deletes every row of a site's ledger while keeping the site

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear <site>",
	Short: "Delete all requirements and deliveries for a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		site := args[0]

		exists, err := svc.SiteExists(site)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("site '%s' not found", site)
		}

		skip, _ := cmd.Flags().GetBool("confirm")
		if !skip && !confirm(cmd, fmt.Sprintf("Clear every requirement and delivery for '%s'?", site)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		if err := svc.ClearDeliveries(site); err != nil {
			return fmt.Errorf("failed to clear ledger: %w", err)
		}

		color.Green("✓ Cleared %s", site)
		return nil
	},
}

func init() {
	clearCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(clearCmd)
}
