// ABOUTME: Sync command for the Charm KV backend
// ABOUTME: Pushes local changes and manages device linking, repair, and wipes

package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/fatih/color"
	"github.com/harper/colony/internal/charm"
	"github.com/harper/colony/internal/config"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync colony data with Charm Cloud",
	Long: `Push local colony data to Charm Cloud when the charm backend is in use.

With the charm backend, writes sync automatically; running 'colony sync'
forces a sync now. The sqlite backend is local only and has nothing to sync.

Subcommands:
  status  - Show sync status and user info
  link    - Link this device to your Charm account
  unlink  - Unlink this device from your account
  repair  - Repair a corrupted local KV database
  reset   - Reset local KV database from cloud (discards local changes)
  wipe    - Permanently delete all colony KV data (local and cloud)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.GetBackend() != config.BackendCharm {
			color.Yellow("• The %s backend is local only; nothing to sync.", cfg.GetBackend())
			return nil
		}

		if err := repo.Sync(); err != nil {
			return fmt.Errorf("failed to sync: %w", err)
		}
		logger.Info("sync complete")
		color.Green("✓ Synced with %s", cfg.GetCharmHost())
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Backend:    %s\n", cfg.GetBackend())
		fmt.Fprintf(out, "Charm Host: %s\n", cfg.GetCharmHost())
		fmt.Fprintf(out, "Database:   %s\n", charm.DBName)

		cc, err := client.NewClientWithDefaults()
		if err != nil {
			color.Yellow("\nStatus: Not connected")
			fmt.Fprintln(out, "Run 'colony sync link' to connect your account.")
			return nil
		}

		user, err := cc.ID()
		if err != nil {
			color.Yellow("\nStatus: Not linked")
			fmt.Fprintln(out, "Run 'colony sync link' to connect your account.")
			return nil
		}

		fmt.Fprintf(out, "\nUser ID: %s\n", user)
		color.Green("Status: Connected")
		return nil
	},
}

// runCharm runs the charm CLI interactively.
func runCharm(args ...string) error {
	c := exec.Command("charm", args...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("failed to run 'charm %s': %w\nMake sure the charm CLI is installed: go install github.com/charmbracelet/charm@latest", strings.Join(args, " "), err)
	}
	return nil
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link this device to your Charm account",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Starting Charm link process...")
		if err := runCharm("link"); err != nil {
			return err
		}
		color.Green("\n✓ Device linked successfully")
		return nil
	},
}

var syncUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Unlink this device from your Charm account",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Unlinking device from Charm...")
		if err := runCharm("unlink"); err != nil {
			return err
		}
		color.Green("\n✓ Device unlinked")
		fmt.Println("Local data is preserved. Sync is disabled.")
		return nil
	},
}

var repairForce bool

var syncRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair a corrupted local KV database",
	Long: `Checkpoint the WAL, remove a stale SHM file, check integrity, and vacuum
the colony KV database. With --force, also attempt recovery and finally a
reset from the cloud.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := kv.Repair(charm.DBName, repairForce)
		if err != nil {
			color.Red("✗ Repair failed: %v", err)
			if !repairForce {
				fmt.Println("\nRun with --force to attempt recovery:")
				fmt.Println("  colony sync repair --force")
			}
			return err
		}

		if result.WalCheckpointed {
			color.Green("  ✓ WAL checkpointed")
		}
		if result.ShmRemoved {
			color.Green("  ✓ SHM file removed")
		}
		if result.IntegrityOK {
			color.Green("  ✓ Integrity check passed")
		} else {
			color.Red("  ✗ Integrity check failed")
		}
		if result.Vacuumed {
			color.Green("  ✓ Database vacuumed")
		}
		if result.RecoveryAttempted {
			color.Yellow("  ⚠ Recovery attempted (REINDEX)")
		}
		if result.ResetFromCloud {
			color.Yellow("  ⚠ Reset from cloud")
		}
		if result.Error != nil {
			color.Yellow("  ⚠ Warning: %v", result.Error)
		}

		color.Green("✓ Repair completed")
		return nil
	},
}

var syncResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset local KV database from cloud",
	RunE: func(cmd *cobra.Command, args []string) error {
		color.Yellow("WARNING: Any unsynced local changes will be lost.")
		if !confirm(cmd, "Delete the local colony KV database and pull it from the cloud?") {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}

		if err := kv.Reset(charm.DBName); err != nil {
			return fmt.Errorf("failed to reset: %w", err)
		}

		color.Green("✓ Database reset from cloud")
		return nil
	},
}

var syncWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Permanently delete all colony KV data (local and cloud)",
	RunE: func(cmd *cobra.Command, args []string) error {
		color.Red("WARNING: This deletes colony data from ALL linked devices and cloud backups.")
		fmt.Fprint(cmd.OutOrStdout(), "\nType 'wipe' to confirm: ")

		confirmation, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if strings.TrimSpace(confirmation) != "wipe" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}

		result, err := kv.Wipe(charm.DBName)
		if err != nil {
			return fmt.Errorf("failed to wipe: %w", err)
		}

		if result.CloudBackupsDeleted > 0 {
			color.Green("✓ Deleted %d cloud backup(s)", result.CloudBackupsDeleted)
		}
		if result.LocalFilesDeleted > 0 {
			color.Green("✓ Deleted %d local file(s)", result.LocalFilesDeleted)
		}
		if result.Error != nil {
			color.Yellow("⚠ Warning: %v", result.Error)
		}

		color.Green("✓ All data wiped")
		return nil
	},
}

func init() {
	syncRepairCmd.Flags().BoolVarP(&repairForce, "force", "f", false, "force recovery even if integrity check fails")

	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncLinkCmd)
	syncCmd.AddCommand(syncUnlinkCmd)
	syncCmd.AddCommand(syncRepairCmd)
	syncCmd.AddCommand(syncResetCmd)
	syncCmd.AddCommand(syncWipeCmd)

	rootCmd.AddCommand(syncCmd)
}
