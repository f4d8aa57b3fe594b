// ABOUTME: Export command for generating CSV and markdown delivery sheets
// ABOUTME: Exports one site or every site, to a file or stdout

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/harper/colony/internal/models"
	"github.com/harper/colony/internal/storage"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export [site]",
	Aliases: []string{"e"},
	Short:   "Export ledgers as CSV or markdown",
	Long: `Export requirement rows as CSV or a markdown report.

The CSV has the columns: Commodity, Amount Required, Remaining Amount,
Total Delivered, Construction Site. Rows with nothing remaining show the
completion marker instead of a number.

Examples:
  # Export every site as CSV
  colony export --format csv -o deliveries.csv

  # Export one site as markdown
  colony export "Orbital Alpha" --format markdown

  # Render the markdown report in the terminal
  colony export --format markdown --render

  # Use a plain-text marker for completed rows
  colony export --marker done`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "csv" && format != "markdown" {
			return fmt.Errorf("unsupported format: %s (use 'csv' or 'markdown')", format)
		}

		marker, _ := cmd.Flags().GetString("marker")
		if marker == "" {
			marker = completedMarker()
		}

		site := ""
		if len(args) == 1 {
			site = args[0]
			exists, err := svc.SiteExists(site)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("site '%s' not found", site)
			}
		}

		output, _ := cmd.Flags().GetString("output")

		switch format {
		case "markdown":
			return exportMarkdown(cmd, site, marker, output)
		default:
			return exportCSV(cmd, site, marker, output)
		}
	},
}

func exportCSV(cmd *cobra.Command, site, marker, output string) error {
	var reqs []*models.Requirement
	var err error
	if site != "" {
		reqs, err = svc.FetchDeliveries(site)
	} else {
		reqs, err = svc.FetchAll()
	}
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	n, err := storage.WriteExportCSV(&buf, reqs, marker)
	if err != nil {
		return fmt.Errorf("failed to generate CSV: %w", err)
	}

	return writeOutput(cmd, buf.Bytes(), output, fmt.Sprintf("Wrote %d rows to %s", n, output))
}

func exportMarkdown(cmd *cobra.Command, site, marker, output string) error {
	data, err := storage.ExportToMarkdown(repo, site, marker)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("site '%s' not found", site)
		}
		return fmt.Errorf("failed to generate markdown: %w", err)
	}

	if render, _ := cmd.Flags().GetBool("render"); render && output == "" {
		data, err = renderMarkdown(data)
		if err != nil {
			return err
		}
	}

	return writeOutput(cmd, data, output, "Wrote markdown to "+output)
}

// renderMarkdown styles a markdown report for the terminal.
func renderMarkdown(data []byte) ([]byte, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.RenderBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// writeOutput writes data to the named file, or to stdout when output is empty.
func writeOutput(cmd *cobra.Command, data []byte, output, done string) error {
	if output == "" {
		_, err := io.Copy(cmd.OutOrStdout(), bytes.NewReader(data))
		return err
	}

	if err := os.WriteFile(output, data, 0644); err != nil { //nolint:gosec // 0644 is intentional for data export files
		return fmt.Errorf("failed to write file: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), done)
	return nil
}

func init() {
	exportCmd.Flags().StringP("format", "f", "csv", "output format (csv, markdown)")
	exportCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().Bool("render", false, "style markdown output for the terminal (stdout only)")
	exportCmd.Flags().String("marker", "", "text shown for rows with nothing remaining (default from config)")

	rootCmd.AddCommand(exportCmd)
}
