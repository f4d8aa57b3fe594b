// ABOUTME: Root Cobra command and global flags
// ABOUTME: Loads config, builds the logger, and opens storage for every command

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harper/colony/internal/config"
	"github.com/harper/colony/internal/ledger"
	"github.com/harper/colony/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg         *config.Config
	repo        storage.Repository
	svc         *ledger.Service
	logger      *zap.Logger
	closeLogger func()

	dataDirFlag string
	backendFlag string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "colony",
	Short: "Track cargo deliveries against construction site requirements",
	Long: `
 ██████╗ ██████╗ ██╗      ██████╗ ███╗   ██╗██╗   ██╗
██╔════╝██╔═══██╗██║     ██╔═══██╗████╗  ██║╚██╗ ██╔╝
██║     ██║   ██║██║     ██║   ██║██╔██╗ ██║ ╚████╔╝
██║     ██║   ██║██║     ██║   ██║██║╚██╗██║  ╚██╔╝
╚██████╗╚██████╔╝███████╗╚██████╔╝██║ ╚████║   ██║
 ╚═════╝ ╚═════╝ ╚══════╝ ╚═════╝ ╚═╝  ╚═══╝   ╚═╝

      Track what every construction site still needs

Examples:
  colony site add "Orbital Alpha"
  colony require set "Orbital Alpha" Steel 5000
  colony deliver "Orbital Alpha" Steel 720
  colony status "Orbital Alpha"
  colony export --format csv -o deliveries.csv`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dataDirFlag != "" {
			// The flag outranks both the config file and the environment.
			if err := os.Setenv(config.EnvDataDir, dataDirFlag); err != nil {
				return err
			}
		}
		if backendFlag != "" {
			cfg.Backend = backendFlag
		}

		logger, closeLogger, err = cfg.Logger(verbose)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}

		repo, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}

		svc = ledger.NewService(repo, logger.With(zap.String("backend", cfg.GetBackend())))
		return seedCatalog()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if repo != nil {
			err = repo.Close()
			repo = nil
		}
		if closeLogger != nil {
			closeLogger()
			closeLogger = nil
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (overrides config and COLONY_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend: sqlite or charm (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to the terminal")
}

// seedCatalog fills an empty item catalog with the default commodities.
func seedCatalog() error {
	items, err := svc.ListItems()
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return nil
	}
	_, err = svc.SeedItems()
	return err
}

// confirm asks a yes/no question on the command's input; anything but y/yes is no.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	return readYes(cmd.InOrStdin())
}

func readYes(r io.Reader) bool {
	response, _ := bufio.NewReader(r).ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// completedMarker returns the configured marker, or the default outside a run.
func completedMarker() string {
	if cfg == nil {
		return storage.DefaultCompletedMarker
	}
	return cfg.GetCompletedMarker()
}
