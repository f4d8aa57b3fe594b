// ABOUTME: Migration command for copying colony data between storage backends
// ABOUTME: Supports sqlite-to-charm and charm-to-sqlite with safety checks

package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/colony/internal/config"
	"github.com/harper/colony/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate data between storage backends",
	Long: `Migrate all colony data from the currently configured backend to a different backend.

Reads commodities, sites, and ledgers from the current backend and writes
them to the target backend. Does NOT update the config file; verify the
migration was successful then update config.json manually.

Examples:
  colony migrate --to charm
  colony migrate --to sqlite --target-dir ~/colony-sqlite
  colony migrate --to sqlite --force`,
	RunE: runMigrate,
}

var (
	migrateTo        string
	migrateTargetDir string
	migrateForce     bool
)

func init() {
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "target backend (sqlite or charm)")
	migrateCmd.Flags().StringVar(&migrateTargetDir, "target-dir", "", "target data directory for sqlite (defaults to current data dir)")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "allow writing into a non-empty target")
	_ = migrateCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	sourceBackend := cfg.GetBackend()
	targetBackend := migrateTo

	if targetBackend != config.BackendSQLite && targetBackend != config.BackendCharm {
		return fmt.Errorf("invalid target backend %q: must be \"sqlite\" or \"charm\"", targetBackend)
	}
	if targetBackend == sourceBackend {
		return fmt.Errorf("target backend %q is the same as the current backend", targetBackend)
	}

	targetDir := cfg.GetDataDir()
	if migrateTargetDir != "" {
		targetDir = config.ExpandPath(migrateTargetDir)
	}

	dst, err := openMigrateStorage(targetBackend, targetDir)
	if err != nil {
		return fmt.Errorf("open target storage (%s): %w", targetBackend, err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: closing target storage: %v\n", cerr)
		}
	}()

	if !migrateForce {
		existing, err := dst.ListSites()
		if err != nil {
			return fmt.Errorf("check target storage: %w", err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("target %s storage already has %d site(s); use --force to merge", targetBackend, len(existing))
		}
	}

	out := cmd.OutOrStdout()
	color.Yellow("Migrating colony data:")
	fmt.Fprintf(out, "  Source:  %s (%s)\n", sourceBackend, cfg.GetDataDir())
	fmt.Fprintf(out, "  Target:  %s (%s)\n", targetBackend, targetDir)
	fmt.Fprintln(out)

	summary, err := storage.MigrateData(repo, dst)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("migration complete")

	color.Green("Migration complete!")
	fmt.Fprintf(out, "  Items:        %d\n", summary.Items)
	fmt.Fprintf(out, "  Sites:        %d\n", summary.Sites)
	fmt.Fprintf(out, "  Requirements: %d\n", summary.Requirements)
	fmt.Fprintln(out)
	color.Yellow("Note: config.json was NOT updated. To switch to the new backend, edit:")
	fmt.Fprintf(out, "  %s\n", config.GetConfigPath())
	fmt.Fprintf(out, "  Set \"backend\": %q", targetBackend)
	if migrateTargetDir != "" {
		fmt.Fprintf(out, " and \"data_dir\": %q", migrateTargetDir)
	}
	fmt.Fprintln(out)

	return nil
}

// openMigrateStorage creates a Repository for the given backend.
// dataDir only applies to sqlite; charm storage lives under CHARM_DATA_DIR.
func openMigrateStorage(backend, dataDir string) (storage.Repository, error) {
	switch backend {
	case config.BackendSQLite:
		return storage.NewSQLiteDB(filepath.Join(dataDir, config.DBFilename))
	default:
		return cfg.OpenBackend(backend)
	}
}
