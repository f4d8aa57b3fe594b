// ABOUTME: Tests for CSV import and export of requirement rows
// ABOUTME: Covers header handling, ragged rows, and completion markers

package storage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/harper/colony/internal/models"
)

func TestReadImportCSV(t *testing.T) {
	input := "Commodity,Amount Required,Construction Site\n" +
		"Steel,50,Alpha\n" +
		"Water,,Beta\n" +
		"Short,10\n" +
		"\"Fruit & Veg\",\"1200\",\"Gamma Base\"\n"

	rows, err := ReadImportCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("failed to read csv: %v", err)
	}
	want := []models.ImportRow{
		{"Steel", "50", "Alpha"},
		{"Water", "", "Beta"},
		{"Short", "10"},
		{"Fruit & Veg", "1200", "Gamma Base"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestReadImportCSV_HeaderOnly(t *testing.T) {
	rows, err := ReadImportCSV(strings.NewReader("Commodity,Amount Required,Construction Site\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestReadImportCSV_Empty(t *testing.T) {
	rows, err := ReadImportCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != nil {
		t.Errorf("expected nil rows, got %v", rows)
	}
}

func TestReadImportCSV_Malformed(t *testing.T) {
	_, err := ReadImportCSV(strings.NewReader("h1,h2,h3\n\"unterminated,1,Alpha\n"))
	if err == nil {
		t.Error("expected error for malformed quoting")
	}
}

func TestRemainingCell(t *testing.T) {
	tests := []struct {
		name      string
		required  int64
		delivered int64
		marker    string
		want      string
	}{
		{"outstanding", 100, 40, "", "60"},
		{"complete_default_marker", 10, 10, "", DefaultCompletedMarker},
		{"over_delivered_custom_marker", 10, 15, "done", "done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &models.Requirement{AmountRequired: tt.required, QuantityDelivered: tt.delivered}
			if got := RemainingCell(req, tt.marker); got != tt.want {
				t.Errorf("RemainingCell() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteExportCSV(t *testing.T) {
	reqs := []*models.Requirement{
		{Site: "Alpha", Commodity: "Steel", AmountRequired: 100, QuantityDelivered: 40},
		{Site: "Beta", Commodity: "Water", AmountRequired: 10, QuantityDelivered: 15},
	}

	var buf bytes.Buffer
	n, err := WriteExportCSV(&buf, reqs, "")
	if err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows written, got %d", n)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "Commodity,Amount Required,Remaining Amount,Total Delivered,Construction Site" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "Steel,100,60,40,Alpha" {
		t.Errorf("unexpected row: %s", lines[1])
	}
	if lines[2] != "Water,10,"+DefaultCompletedMarker+",15,Beta" {
		t.Errorf("unexpected row: %s", lines[2])
	}
}
