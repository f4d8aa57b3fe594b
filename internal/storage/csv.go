// ABOUTME: CSV import and export of requirement rows
// ABOUTME: Reads commodity/amount/site triples and writes the delivery sheet

package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/harper/colony/internal/models"
)

// DefaultCompletedMarker replaces the remaining amount once a row is satisfied.
const DefaultCompletedMarker = "✅"

// ExportHeader is the header row of an exported delivery sheet.
var ExportHeader = []string{"Commodity", "Amount Required", "Remaining Amount", "Total Delivered", "Construction Site"}

// ReadImportCSV reads (commodity, amount_required, site) rows after a header row.
// Rows are returned untouched; short or blank rows are left for the importer to skip.
func ReadImportCSV(r io.Reader) ([]models.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []models.ImportRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, models.ImportRow(record))
	}
	return rows, nil
}

// RemainingCell renders the remaining amount, or marker once nothing remains.
func RemainingCell(req *models.Requirement, marker string) string {
	if req.Complete() {
		if marker == "" {
			marker = DefaultCompletedMarker
		}
		return marker
	}
	return strconv.FormatInt(req.Remaining(), 10)
}

// WriteExportCSV writes the delivery sheet for the given rows.
// Returns the number of data rows written.
func WriteExportCSV(w io.Writer, reqs []*models.Requirement, marker string) (int, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(ExportHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	for i, req := range reqs {
		record := []string{
			req.Commodity,
			strconv.FormatInt(req.AmountRequired, 10),
			RemainingCell(req, marker),
			strconv.FormatInt(req.QuantityDelivered, 10),
			req.Site,
		}
		if err := writer.Write(record); err != nil {
			return i, fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return len(reqs), fmt.Errorf("flush csv: %w", err)
	}
	return len(reqs), nil
}
