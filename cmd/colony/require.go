// ABOUTME: Requirement commands
// ABOUTME: Sets and removes the required amount of a commodity at a site

package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/harper/colony/internal/models"
	"github.com/harper/colony/internal/storage"
	"github.com/spf13/cobra"
)

var requireCmd = &cobra.Command{
	Use:     "require",
	Aliases: []string{"req"},
	Short:   "Manage what a site requires",
}

var requireSetCmd = &cobra.Command{
	Use:   "set <site> <commodity> <amount>",
	Short: "Set the required amount of a commodity",
	Long: `Set how much of a commodity a site needs. This overwrites any previous
amount and leaves deliveries untouched.

Examples:
  colony require set "Orbital Alpha" Steel 5000`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		site, commodity := args[0], args[1]
		if err := models.ValidateName(commodity); err != nil {
			return fmt.Errorf("invalid commodity: %w", err)
		}
		amount, err := models.ParseAmount(args[2])
		if err != nil {
			return err
		}

		if err := svc.SetRequirement(site, commodity, amount); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("site '%s' not found", site)
			}
			return err
		}

		color.Green("✓ %s needs %d %s", site, amount, commodity)
		return printRow(cmd, site, commodity)
	},
}

var requireRemoveCmd = &cobra.Command{
	Use:     "rm <site> <commodity>",
	Aliases: []string{"remove"},
	Short:   "Remove a commodity from a site's ledger",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		site, commodity := args[0], args[1]

		if err := svc.RemoveRequirement(site, commodity); err != nil {
			return err
		}

		color.Green("✓ Removed %s from %s", commodity, site)
		return nil
	},
}

func init() {
	requireCmd.AddCommand(requireSetCmd)
	requireCmd.AddCommand(requireRemoveCmd)

	rootCmd.AddCommand(requireCmd)
}
