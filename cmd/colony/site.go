// ABOUTME: Site catalog commands
// ABOUTME: Adds, lists, and removes construction sites

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harper/colony/internal/models"
	"github.com/harper/colony/internal/ui"
	"github.com/spf13/cobra"
)

var siteCmd = &cobra.Command{
	Use:     "site",
	Aliases: []string{"sites"},
	Short:   "Manage construction sites",
}

var siteAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a construction site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if err := models.ValidateName(name); err != nil {
			return fmt.Errorf("invalid site: %w", err)
		}

		created, err := svc.AddSite(name)
		if err != nil {
			return err
		}
		if !created {
			color.Yellow("• %s already exists", name)
			return nil
		}
		color.Green("✓ Added site %s", name)
		return nil
	},
}

var siteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List construction sites with their progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		sites, err := svc.ListSites()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(sites) == 0 {
			fmt.Fprintln(out, "No sites yet. Add one with 'colony site add <name>'.")
			return nil
		}
		for _, site := range sites {
			reqs, err := svc.FetchDeliveries(site)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.FormatSiteSummary(site, reqs))
		}
		return nil
	},
}

var siteRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a site and its entire ledger",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		exists, err := svc.SiteExists(name)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("site '%s' not found", name)
		}

		skip, _ := cmd.Flags().GetBool("confirm")
		if !skip && !confirm(cmd, fmt.Sprintf("Remove '%s' and its ledger?", name)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		if err := svc.RemoveSite(name); err != nil {
			return fmt.Errorf("failed to remove site: %w", err)
		}

		color.Green("✓ Removed %s", name)
		return nil
	},
}

func init() {
	siteRemoveCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	siteCmd.AddCommand(siteAddCmd)
	siteCmd.AddCommand(siteListCmd)
	siteCmd.AddCommand(siteRemoveCmd)

	rootCmd.AddCommand(siteCmd)
}
