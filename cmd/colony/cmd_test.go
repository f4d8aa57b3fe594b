// ABOUTME: Tests for CLI commands
// ABOUTME: Runs site, require, deliver, status, clear, import, export, backup, and migrate against a temp database

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/colony/internal/config"
	"github.com/harper/colony/internal/ledger"
	"github.com/harper/colony/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// testDB creates a temporary database and points the command globals at it.
func testDB(t *testing.T) {
	t.Helper()
	tmpDir := t.TempDir()

	db, err := storage.NewSQLiteDB(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}

	repo = db
	logger = zap.NewNop()
	svc = ledger.NewService(repo, logger)
	cfg = &config.Config{Backend: config.BackendSQLite, DataDir: tmpDir}

	t.Cleanup(func() {
		if repo != nil {
			_ = repo.Close()
			repo = nil
		}
		svc = nil
		cfg = nil
	})
}

// capture routes a command's output into a buffer and feeds it input.
func capture(t *testing.T, cmd *cobra.Command, input string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetIn(strings.NewReader(input))
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetIn(nil)
	})
	return &buf
}

func mustRun(t *testing.T, cmd *cobra.Command, args ...string) {
	t.Helper()
	if err := cmd.RunE(cmd, args); err != nil {
		t.Fatalf("%s %v: %v", cmd.Name(), args, err)
	}
}

func setFlag(t *testing.T, cmd *cobra.Command, name, value string) {
	t.Helper()
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		t.Fatalf("flag %s not found on %s", name, cmd.Name())
	}
	def := flag.DefValue
	if err := cmd.Flags().Set(name, value); err != nil {
		t.Fatalf("failed to set %s: %v", name, err)
	}
	t.Cleanup(func() { _ = cmd.Flags().Set(name, def) })
}

func findRow(t *testing.T, site, commodity string) (required, delivered int64, ok bool) {
	t.Helper()
	reqs, err := svc.FetchDeliveries(site)
	if err != nil {
		t.Fatalf("failed to fetch deliveries: %v", err)
	}
	for _, req := range reqs {
		if req.Commodity == commodity {
			return req.AmountRequired, req.QuantityDelivered, true
		}
	}
	return 0, 0, false
}

// Tests for rootCmd

func TestRootCmd_Metadata(t *testing.T) {
	if rootCmd.Use != "colony" {
		t.Errorf("expected Use 'colony', got %q", rootCmd.Use)
	}
	if !strings.Contains(rootCmd.Long, "construction site") {
		t.Error("expected description in Long")
	}

	for _, name := range []string{"data-dir", "backend", "verbose"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent flag %s not found", name)
		}
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	want := []string{"item", "site", "require", "deliver", "status", "clear", "import", "export", "backup", "restore", "migrate", "mcp", "sync"}
	var have []string
	for _, c := range rootCmd.Commands() {
		have = append(have, c.Name())
	}
	for _, name := range want {
		if !contains(have, name) {
			t.Errorf("expected subcommand %s", name)
		}
	}
}

func TestReadYes(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yeah\n", false},
	}
	for _, tt := range tests {
		if got := readYes(strings.NewReader(tt.input)); got != tt.want {
			t.Errorf("readYes(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCompletedMarker_Default(t *testing.T) {
	cfg = nil
	if got := completedMarker(); got != storage.DefaultCompletedMarker {
		t.Errorf("expected default marker, got %q", got)
	}

	cfg = &config.Config{CompletedMarker: "done"}
	defer func() { cfg = nil }()
	if got := completedMarker(); got != "done" {
		t.Errorf("expected configured marker, got %q", got)
	}
}

// Tests for item and site commands

func TestItemAddCmd(t *testing.T) {
	testDB(t)

	mustRun(t, itemAddCmd, "  Steel  ")
	mustRun(t, itemAddCmd, "Steel")

	items, err := svc.ListItems()
	if err != nil {
		t.Fatalf("failed to list items: %v", err)
	}
	if len(items) != 1 || items[0] != "Steel" {
		t.Errorf("expected [Steel], got %v", items)
	}
}

func TestItemAddCmd_RejectsBlank(t *testing.T) {
	testDB(t)

	if err := itemAddCmd.RunE(itemAddCmd, []string{"   "}); err == nil {
		t.Error("expected error for blank name")
	}
}

func TestItemListCmd(t *testing.T) {
	testDB(t)
	buf := capture(t, itemListCmd, "")

	mustRun(t, itemListCmd)
	if !strings.Contains(buf.String(), "No commodities") {
		t.Errorf("expected empty catalog message, got %q", buf.String())
	}

	buf.Reset()
	mustRun(t, itemAddCmd, "Titanium")
	mustRun(t, itemListCmd)
	if !strings.Contains(buf.String(), "Titanium") {
		t.Errorf("expected Titanium in output, got %q", buf.String())
	}
}

func TestSiteAddAndList(t *testing.T) {
	testDB(t)
	buf := capture(t, siteListCmd, "")

	mustRun(t, siteAddCmd, "Orbital Alpha")
	mustRun(t, siteAddCmd, "Orbital Alpha")
	mustRun(t, siteListCmd)

	out := buf.String()
	if strings.Count(out, "Orbital Alpha") != 1 {
		t.Errorf("expected site listed once, got %q", out)
	}
	if !strings.Contains(out, "no requirements") {
		t.Errorf("expected empty-ledger summary, got %q", out)
	}
}

func TestSiteRemoveCmd_Confirmed(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	mustRun(t, requireSetCmd, "Alpha", "Steel", "100")
	setFlag(t, siteRemoveCmd, "confirm", "true")

	mustRun(t, siteRemoveCmd, "Alpha")

	exists, err := svc.SiteExists("Alpha")
	if err != nil {
		t.Fatalf("failed to check site: %v", err)
	}
	if exists {
		t.Error("expected site to be removed")
	}
	reqs, err := svc.FetchAll()
	if err != nil {
		t.Fatalf("failed to fetch all: %v", err)
	}
	if len(reqs) != 0 {
		t.Errorf("expected ledger purged, got %d rows", len(reqs))
	}
}

func TestSiteRemoveCmd_PromptDeclined(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	buf := capture(t, siteRemoveCmd, "n\n")

	mustRun(t, siteRemoveCmd, "Alpha")

	if !strings.Contains(buf.String(), "Cancelled") {
		t.Errorf("expected cancel message, got %q", buf.String())
	}
	exists, _ := svc.SiteExists("Alpha")
	if !exists {
		t.Error("expected site to survive a declined prompt")
	}
}

func TestSiteRemoveCmd_Unknown(t *testing.T) {
	testDB(t)

	err := siteRemoveCmd.RunE(siteRemoveCmd, []string{"Nowhere"})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

// Tests for ledger commands

func TestDeliverCmd_Metadata(t *testing.T) {
	if deliverCmd.Use != "deliver <site> <commodity> <quantity>" {
		t.Errorf("unexpected Use: %q", deliverCmd.Use)
	}
	if !contains(deliverCmd.Aliases, "d") {
		t.Error("expected alias 'd'")
	}
}

func TestDeliverCmd_Accumulates(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	buf := capture(t, deliverCmd, "")

	mustRun(t, deliverCmd, "Alpha", "Steel", "40")
	mustRun(t, deliverCmd, "Alpha", "Steel", "60")

	_, delivered, ok := findRow(t, "Alpha", "Steel")
	if !ok {
		t.Fatal("expected a Steel row")
	}
	if delivered != 100 {
		t.Errorf("expected delivered 100, got %d", delivered)
	}
	if !strings.Contains(buf.String(), "Steel") {
		t.Errorf("expected row printed, got %q", buf.String())
	}
}

func TestDeliverCmd_InvalidQuantity(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")

	for _, qty := range []string{"0", "-5", "lots"} {
		if err := deliverCmd.RunE(deliverCmd, []string{"Alpha", "Steel", qty}); err == nil {
			t.Errorf("expected error for quantity %q", qty)
		}
	}
}

func TestDeliverCmd_UnknownSite(t *testing.T) {
	testDB(t)

	err := deliverCmd.RunE(deliverCmd, []string{"Nowhere", "Steel", "5"})
	if err == nil || !strings.Contains(err.Error(), "site 'Nowhere' not found") {
		t.Errorf("expected site not found error, got %v", err)
	}
}

func TestRequireSetCmd_OverwritesAndKeepsDeliveries(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")

	mustRun(t, requireSetCmd, "Alpha", "Steel", "500")
	mustRun(t, deliverCmd, "Alpha", "Steel", "120")
	mustRun(t, requireSetCmd, "Alpha", "Steel", "300")

	required, delivered, ok := findRow(t, "Alpha", "Steel")
	if !ok {
		t.Fatal("expected a Steel row")
	}
	if required != 300 {
		t.Errorf("expected required 300, got %d", required)
	}
	if delivered != 120 {
		t.Errorf("expected delivered 120, got %d", delivered)
	}
}

func TestRequireSetCmd_AllowsZero(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")

	mustRun(t, requireSetCmd, "Alpha", "Steel", "0")

	if err := requireSetCmd.RunE(requireSetCmd, []string{"Alpha", "Steel", "-1"}); err == nil {
		t.Error("expected error for negative amount")
	}
}

func TestRequireRemoveCmd(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	mustRun(t, requireSetCmd, "Alpha", "Steel", "10")

	mustRun(t, requireRemoveCmd, "Alpha", "Steel")
	mustRun(t, requireRemoveCmd, "Alpha", "Steel")

	if _, _, ok := findRow(t, "Alpha", "Steel"); ok {
		t.Error("expected Steel row removed")
	}
}

func TestStatusCmd_HidesCompleted(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	mustRun(t, requireSetCmd, "Alpha", "Steel", "100")
	mustRun(t, requireSetCmd, "Alpha", "Copper", "50")
	mustRun(t, deliverCmd, "Alpha", "Copper", "50")
	buf := capture(t, statusCmd, "")

	mustRun(t, statusCmd, "Alpha")

	out := buf.String()
	if !strings.Contains(out, "Steel") {
		t.Errorf("expected open row in output, got %q", out)
	}
	if strings.Contains(out, "Copper ") {
		t.Errorf("expected completed row hidden, got %q", out)
	}
	if !strings.Contains(out, "1 completed row(s) hidden") {
		t.Errorf("expected hidden count, got %q", out)
	}
}

func TestStatusCmd_ShowCompleted(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	mustRun(t, requireSetCmd, "Alpha", "Copper", "50")
	mustRun(t, deliverCmd, "Alpha", "Copper", "75")
	setFlag(t, statusCmd, "completed", "true")
	buf := capture(t, statusCmd, "")

	mustRun(t, statusCmd, "Alpha")

	out := buf.String()
	if !strings.Contains(out, "Copper") {
		t.Errorf("expected completed row shown, got %q", out)
	}
	if !strings.Contains(out, storage.DefaultCompletedMarker) {
		t.Errorf("expected completion marker, got %q", out)
	}
}

func TestStatusCmd_UnknownSite(t *testing.T) {
	testDB(t)

	if err := statusCmd.RunE(statusCmd, []string{"Nowhere"}); err == nil {
		t.Error("expected error for unknown site")
	}
}

func TestClearCmd(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	mustRun(t, requireSetCmd, "Alpha", "Steel", "100")
	mustRun(t, deliverCmd, "Alpha", "Steel", "10")
	capture(t, clearCmd, "yes\n")

	mustRun(t, clearCmd, "Alpha")

	reqs, err := svc.FetchDeliveries("Alpha")
	if err != nil {
		t.Fatalf("failed to fetch deliveries: %v", err)
	}
	if len(reqs) != 0 {
		t.Errorf("expected empty ledger, got %d rows", len(reqs))
	}
	if exists, _ := svc.SiteExists("Alpha"); !exists {
		t.Error("expected site to remain after clear")
	}
}

// Tests for importCmd

func TestImportCmd(t *testing.T) {
	testDB(t)
	csvPath := filepath.Join(t.TempDir(), "reqs.csv")
	content := "commodity,amount_required,site\n" +
		"Steel,500,Alpha\n" +
		"Copper,abc,Alpha\n" +
		",10,Alpha\n" +
		"Steel,800,Alpha\n" +
		"Titanium, 42,Beta\n"
	if err := os.WriteFile(csvPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	setFlag(t, importCmd, "confirm", "true")
	buf := capture(t, importCmd, "")

	mustRun(t, importCmd, csvPath)

	required, _, ok := findRow(t, "Alpha", "Steel")
	if !ok || required != 800 {
		t.Errorf("expected later Steel row to win with 800, got %d (found %v)", required, ok)
	}
	required, _, ok = findRow(t, "Alpha", "Copper")
	if !ok || required != 0 {
		t.Errorf("expected unparseable amount to import as 0, got %d (found %v)", required, ok)
	}
	required, _, ok = findRow(t, "Beta", "Titanium")
	if !ok || required != 42 {
		t.Errorf("expected Titanium 42 at Beta, got %d (found %v)", required, ok)
	}
	if !strings.Contains(buf.String(), "1 skipped") {
		t.Errorf("expected skip count in summary, got %q", buf.String())
	}
}

func TestImportCmd_MissingFile(t *testing.T) {
	testDB(t)

	if err := importCmd.RunE(importCmd, []string{"/nonexistent/reqs.csv"}); err == nil {
		t.Error("expected error for missing file")
	}
}

// Tests for exportCmd

func TestExportCmd_Metadata(t *testing.T) {
	formatFlag := exportCmd.Flags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("format flag not found")
	}
	if formatFlag.DefValue != "csv" {
		t.Errorf("expected default 'csv', got %q", formatFlag.DefValue)
	}
	if exportCmd.Flags().Lookup("output") == nil {
		t.Error("output flag not found")
	}
	if exportCmd.Flags().Lookup("marker") == nil {
		t.Error("marker flag not found")
	}
}

func TestExportCmd_CSV(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	mustRun(t, requireSetCmd, "Alpha", "Steel", "100")
	mustRun(t, deliverCmd, "Alpha", "Steel", "30")
	mustRun(t, requireSetCmd, "Alpha", "Copper", "10")
	mustRun(t, deliverCmd, "Alpha", "Copper", "10")
	buf := capture(t, exportCmd, "")

	mustRun(t, exportCmd)

	out := buf.String()
	if !strings.HasPrefix(out, "Commodity,Amount Required,Remaining Amount,Total Delivered,Construction Site\n") {
		t.Errorf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "Steel,100,70,30,Alpha") {
		t.Errorf("expected open Steel row, got %q", out)
	}
	if !strings.Contains(out, "Copper,10,"+storage.DefaultCompletedMarker+",10,Alpha") {
		t.Errorf("expected Copper row with marker, got %q", out)
	}
}

func TestExportCmd_CustomMarkerToFile(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	mustRun(t, requireSetCmd, "Alpha", "Copper", "10")
	mustRun(t, deliverCmd, "Alpha", "Copper", "12")
	output := filepath.Join(t.TempDir(), "out.csv")
	setFlag(t, exportCmd, "marker", "done")
	setFlag(t, exportCmd, "output", output)

	mustRun(t, exportCmd, "Alpha")

	data, err := os.ReadFile(output) //nolint:gosec // test file
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if !strings.Contains(string(data), "Copper,10,done,12,Alpha") {
		t.Errorf("expected custom marker, got %q", string(data))
	}
}

func TestExportCmd_Markdown(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	mustRun(t, requireSetCmd, "Alpha", "Steel", "100")
	setFlag(t, exportCmd, "format", "markdown")
	buf := capture(t, exportCmd, "")

	mustRun(t, exportCmd, "Alpha")

	out := buf.String()
	if !strings.Contains(out, "# Colony Delivery Report") {
		t.Errorf("expected report title, got %q", out)
	}
	if !strings.Contains(out, "## Alpha") {
		t.Errorf("expected site heading, got %q", out)
	}
	if !strings.Contains(out, "| Steel | 100 | 100 | 0 |") {
		t.Errorf("expected Steel table row, got %q", out)
	}
}

func TestExportCmd_MarkdownRendered(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	mustRun(t, requireSetCmd, "Alpha", "Steel", "100")
	setFlag(t, exportCmd, "format", "markdown")
	setFlag(t, exportCmd, "render", "true")
	buf := capture(t, exportCmd, "")

	mustRun(t, exportCmd, "Alpha")

	out := buf.String()
	if !strings.Contains(out, "Steel") || !strings.Contains(out, "Alpha") {
		t.Errorf("expected site and commodity in rendered report, got %q", out)
	}
}

func TestExportCmd_InvalidFormat(t *testing.T) {
	testDB(t)
	setFlag(t, exportCmd, "format", "xml")

	if err := exportCmd.RunE(exportCmd, []string{}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestExportCmd_UnknownSite(t *testing.T) {
	testDB(t)

	if err := exportCmd.RunE(exportCmd, []string{"Nowhere"}); err == nil {
		t.Error("expected error for unknown site")
	}
}

// Tests for backup and restore

func TestBackupAndRestore(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	mustRun(t, requireSetCmd, "Alpha", "Steel", "100")
	mustRun(t, deliverCmd, "Alpha", "Steel", "25")

	backupPath := filepath.Join(t.TempDir(), "backup.yaml")
	setFlag(t, backupCmd, "output", backupPath)
	capture(t, backupCmd, "")
	mustRun(t, backupCmd)

	if _, err := os.Stat(backupPath); err != nil {
		t.Fatalf("expected backup file: %v", err)
	}

	// Restore into a fresh database.
	_ = repo.Close()
	repo = nil
	testDB(t)
	setFlag(t, restoreCmd, "confirm", "true")
	capture(t, restoreCmd, "")
	mustRun(t, restoreCmd, backupPath)

	required, delivered, ok := findRow(t, "Alpha", "Steel")
	if !ok {
		t.Fatal("expected Steel row after restore")
	}
	if required != 100 || delivered != 25 {
		t.Errorf("expected 100/25 after restore, got %d/%d", required, delivered)
	}
}

func TestRestoreCmd_PromptDeclined(t *testing.T) {
	testDB(t)
	backupPath := filepath.Join(t.TempDir(), "backup.yaml")
	if err := os.WriteFile(backupPath, []byte("version: \"1.0\"\n"), 0600); err != nil {
		t.Fatalf("failed to write backup: %v", err)
	}
	buf := capture(t, restoreCmd, "no\n")

	mustRun(t, restoreCmd, backupPath)

	if !strings.Contains(buf.String(), "Canceled") {
		t.Errorf("expected cancel message, got %q", buf.String())
	}
}

// Tests for migrateCmd

func TestMigrateCmd_RejectsInvalidTarget(t *testing.T) {
	testDB(t)
	migrateTo = "postgres"
	defer func() { migrateTo = "" }()

	if err := runMigrate(migrateCmd, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestMigrateCmd_RejectsSameBackend(t *testing.T) {
	testDB(t)
	migrateTo = config.BackendSQLite
	defer func() { migrateTo = "" }()

	err := runMigrate(migrateCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "same as the current backend") {
		t.Errorf("expected same-backend error, got %v", err)
	}
}

func TestMigrateCmd_CopiesIntoSQLite(t *testing.T) {
	testDB(t)
	mustRun(t, siteAddCmd, "Alpha")
	mustRun(t, requireSetCmd, "Alpha", "Steel", "100")
	mustRun(t, deliverCmd, "Alpha", "Steel", "40")

	// Pretend the source is charm so sqlite is a valid target.
	cfg.Backend = config.BackendCharm
	targetDir := t.TempDir()
	migrateTo = config.BackendSQLite
	migrateTargetDir = targetDir
	defer func() {
		migrateTo = ""
		migrateTargetDir = ""
	}()
	capture(t, migrateCmd, "")

	if err := runMigrate(migrateCmd, nil); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	dst, err := storage.NewSQLiteDB(filepath.Join(targetDir, config.DBFilename))
	if err != nil {
		t.Fatalf("failed to open target: %v", err)
	}
	defer func() { _ = dst.Close() }()

	reqs, err := dst.ListRequirements("Alpha")
	if err != nil {
		t.Fatalf("failed to list target rows: %v", err)
	}
	if len(reqs) != 1 || reqs[0].AmountRequired != 100 || reqs[0].QuantityDelivered != 40 {
		t.Errorf("expected Steel 100/40 in target, got %+v", reqs)
	}

	// A second run refuses the now non-empty target.
	if err := runMigrate(migrateCmd, nil); err == nil {
		t.Error("expected error for non-empty target without --force")
	}
}

// Tests for syncCmd

func TestSyncCmd_SQLiteIsLocalOnly(t *testing.T) {
	testDB(t)

	if err := syncCmd.RunE(syncCmd, nil); err != nil {
		t.Errorf("expected no error for sqlite sync, got %v", err)
	}
}

func TestSyncCmd_Subcommands(t *testing.T) {
	var have []string
	for _, c := range syncCmd.Commands() {
		have = append(have, c.Name())
	}
	for _, name := range []string{"status", "link", "unlink", "repair", "reset", "wipe"} {
		if !contains(have, name) {
			t.Errorf("expected sync subcommand %s", name)
		}
	}
	if syncRepairCmd.Flags().Lookup("force") == nil {
		t.Error("expected --force on repair")
	}
}

// contains reports whether s holds v.
func contains(s []string, v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}
