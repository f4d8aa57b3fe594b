// ABOUTME: Status command
// ABOUTME: Shows a site's ledger with remaining amounts and progress

package main

import (
	"fmt"

	"github.com/harper/colony/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status <site>",
	Aliases: []string{"s"},
	Short:   "Show what a site still needs",
	Long: `Show a site's ledger. Rows with nothing remaining are hidden unless
--completed is given.

Examples:
  colony status "Orbital Alpha"
  colony status "Orbital Alpha" --completed`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		site := args[0]

		exists, err := svc.SiteExists(site)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("site '%s' not found", site)
		}

		reqs, err := svc.FetchDeliveries(site)
		if err != nil {
			return err
		}

		showCompleted, _ := cmd.Flags().GetBool("completed")
		visible := ui.FilterCompleted(reqs, showCompleted)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.FormatSiteSummary(site, reqs))
		fmt.Fprintln(out)

		if len(visible) == 0 {
			if len(reqs) == 0 {
				fmt.Fprintln(out, "No requirements recorded.")
			} else {
				fmt.Fprintln(out, "Everything delivered. Use --completed to see all rows.")
			}
			return nil
		}

		fmt.Fprintln(out, ui.FormatHeader())
		for _, req := range visible {
			fmt.Fprintln(out, ui.FormatRequirement(req, completedMarker()))
		}
		if hidden := len(reqs) - len(visible); hidden > 0 {
			fmt.Fprintf(out, "\n%d completed row(s) hidden.\n", hidden)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolP("completed", "c", false, "include rows with nothing remaining")

	rootCmd.AddCommand(statusCmd)
}
