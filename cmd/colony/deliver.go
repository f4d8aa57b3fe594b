// ABOUTME: Deliver command
// ABOUTME: Records a delivery of a commodity to a site

package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/harper/colony/internal/models"
	"github.com/harper/colony/internal/storage"
	"github.com/harper/colony/internal/ui"
	"github.com/spf13/cobra"
)

var deliverCmd = &cobra.Command{
	Use:     "deliver <site> <commodity> <quantity>",
	Aliases: []string{"d"},
	Short:   "Record a delivery",
	Long: `Add a delivered quantity to a site's ledger. Deliveries accumulate.

Examples:
  colony deliver "Orbital Alpha" Steel 720
  colony d "Orbital Alpha" "Liquid oxygen" 96`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		site, commodity := args[0], args[1]
		if err := models.ValidateName(commodity); err != nil {
			return fmt.Errorf("invalid commodity: %w", err)
		}
		qty, err := models.ParseQuantity(args[2])
		if err != nil {
			return err
		}

		if err := svc.AddDelivery(site, commodity, qty); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("site '%s' not found", site)
			}
			return err
		}

		color.Green("✓ Delivered %s %s to %s", ui.FormatQuantity(qty), commodity, site)
		return printRow(cmd, site, commodity)
	},
}

// printRow shows the current ledger row for a commodity at a site.
func printRow(cmd *cobra.Command, site, commodity string) error {
	reqs, err := svc.FetchDeliveries(site)
	if err != nil {
		return err
	}
	for _, req := range reqs {
		if req.Commodity == commodity {
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatRequirement(req, completedMarker()))
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(deliverCmd)
}
