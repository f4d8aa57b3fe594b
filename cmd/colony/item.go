// ABOUTME: Item catalog commands
// ABOUTME: Adds and lists known commodity names

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harper/colony/internal/models"
	"github.com/spf13/cobra"
)

var itemCmd = &cobra.Command{
	Use:     "item",
	Aliases: []string{"items"},
	Short:   "Manage the commodity catalog",
}

var itemAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a commodity to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if err := models.ValidateName(name); err != nil {
			return fmt.Errorf("invalid commodity: %w", err)
		}

		created, err := svc.AddItem(name)
		if err != nil {
			return err
		}
		if !created {
			color.Yellow("• %s is already in the catalog", name)
			return nil
		}
		color.Green("✓ Added %s", name)
		return nil
	},
}

var itemListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List known commodities",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := svc.ListItems()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "No commodities in the catalog.")
			return nil
		}
		for _, name := range items {
			fmt.Fprintln(out, name)
		}
		return nil
	},
}

func init() {
	itemCmd.AddCommand(itemAddCmd)
	itemCmd.AddCommand(itemListCmd)

	rootCmd.AddCommand(itemCmd)
}
