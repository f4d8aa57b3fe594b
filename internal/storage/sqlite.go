// ABOUTME: SQLite storage implementation for the colony ledger
// ABOUTME: Provides local-only persistence using pure Go SQLite driver

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/harper/colony/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements Repository with a local SQLite database.
// All sites share one database; each site's ledger is the set of
// requirement rows keyed by its site_id.
type SQLiteDB struct {
	db   *sql.DB
	path string
}

// Compile-time check that SQLiteDB implements Repository.
var _ Repository = (*SQLiteDB)(nil)

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "colony", "colony.db")
}

// NewSQLiteDB creates a new SQLite database at the given path.
// Creates the directory and database file if they don't exist.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil { //nolint:gosec // 0750 is appropriate for user data directory
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Single-user tool; one connection keeps the file handle count at one.
	db.SetMaxOpenConns(1)

	s := &SQLiteDB{db: db, path: path}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteDB) Path() string {
	return s.path
}

// migrate creates or updates the database schema.
func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS sites (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS requirements (
			id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
			commodity TEXT NOT NULL,
			quantity_delivered INTEGER NOT NULL DEFAULT 0,
			amount_required INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(site_id, commodity)
		);

		CREATE INDEX IF NOT EXISTS idx_requirements_site_id ON requirements(site_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Sync is a no-op for local SQLite (no cloud sync).
func (s *SQLiteDB) Sync() error {
	return nil
}

// Reset clears all data from the database.
func (s *SQLiteDB) Reset() error {
	_, err := s.db.Exec("DELETE FROM requirements; DELETE FROM sites; DELETE FROM items;")
	return err
}

// AddItem inserts an item, ignoring duplicates by name.
// Reports whether a new row was created.
func (s *SQLiteDB) AddItem(item *models.Item) (bool, error) {
	res, err := s.db.Exec(
		"INSERT INTO items (id, name, created_at) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING",
		item.ID.String(), item.Name, item.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListItems returns all items sorted by name.
func (s *SQLiteDB) ListItems() ([]*models.Item, error) {
	rows, err := s.db.Query("SELECT id, name, created_at FROM items ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*models.Item
	for rows.Next() {
		var idStr string
		var item models.Item
		if err := rows.Scan(&idStr, &item.Name, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.ID, _ = uuid.Parse(idStr)
		items = append(items, &item)
	}
	return items, rows.Err()
}

// AddSite inserts a site, ignoring duplicates by name.
// Reports whether a new row was created.
func (s *SQLiteDB) AddSite(site *models.Site) (bool, error) {
	res, err := s.db.Exec(
		"INSERT INTO sites (id, name, created_at) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING",
		site.ID.String(), site.Name, site.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert site: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetSiteByName retrieves a site by its name.
func (s *SQLiteDB) GetSiteByName(name string) (*models.Site, error) {
	row := s.db.QueryRow("SELECT id, name, created_at FROM sites WHERE name = ?", name)

	var idStr string
	var site models.Site
	err := row.Scan(&idStr, &site.Name, &site.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan site: %w", err)
	}
	site.ID, _ = uuid.Parse(idStr)
	return &site, nil
}

// ListSites returns all sites sorted by name.
func (s *SQLiteDB) ListSites() ([]*models.Site, error) {
	rows, err := s.db.Query("SELECT id, name, created_at FROM sites ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query sites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sites []*models.Site
	for rows.Next() {
		var idStr string
		var site models.Site
		if err := rows.Scan(&idStr, &site.Name, &site.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		site.ID, _ = uuid.Parse(idStr)
		sites = append(sites, &site)
	}
	return sites, rows.Err()
}

// DeleteSite removes a site (requirement rows cascade delete automatically).
func (s *SQLiteDB) DeleteSite(name string) error {
	res, err := s.db.Exec("DELETE FROM sites WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddDelivery increments the delivered quantity for a commodity at a site,
// creating the row with no requirement if it does not exist yet.
func (s *SQLiteDB) AddDelivery(siteName, commodity string, quantity int64) error {
	site, err := s.GetSiteByName(siteName)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO requirements (id, site_id, commodity, quantity_delivered, amount_required, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)
		 ON CONFLICT(site_id, commodity) DO UPDATE SET
			quantity_delivered = quantity_delivered + excluded.quantity_delivered,
			updated_at = excluded.updated_at`,
		uuid.New().String(), site.ID.String(), commodity, quantity, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert delivery: %w", err)
	}
	return nil
}

// SetRequirement overwrites the required amount for a commodity at a site,
// creating the row with nothing delivered if it does not exist yet.
func (s *SQLiteDB) SetRequirement(siteName, commodity string, amount int64) error {
	site, err := s.GetSiteByName(siteName)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO requirements (id, site_id, commodity, quantity_delivered, amount_required, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?, ?)
		 ON CONFLICT(site_id, commodity) DO UPDATE SET
			amount_required = excluded.amount_required,
			updated_at = excluded.updated_at`,
		uuid.New().String(), site.ID.String(), commodity, amount, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert requirement: %w", err)
	}
	return nil
}

// PutRequirement writes a row with both amounts taken from req.
func (s *SQLiteDB) PutRequirement(req *models.Requirement) error {
	site, err := s.GetSiteByName(req.Site)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO requirements (id, site_id, commodity, quantity_delivered, amount_required, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(site_id, commodity) DO UPDATE SET
			quantity_delivered = excluded.quantity_delivered,
			amount_required = excluded.amount_required,
			updated_at = excluded.updated_at`,
		req.ID.String(), site.ID.String(), req.Commodity,
		req.QuantityDelivered, req.AmountRequired, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put requirement: %w", err)
	}
	return nil
}

// RemoveRequirement deletes the row for a commodity at a site, if any.
func (s *SQLiteDB) RemoveRequirement(siteName, commodity string) error {
	_, err := s.db.Exec(
		`DELETE FROM requirements
		 WHERE commodity = ? AND site_id = (SELECT id FROM sites WHERE name = ?)`,
		commodity, siteName,
	)
	if err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	return nil
}

// ClearRequirements deletes every row in a site's ledger.
func (s *SQLiteDB) ClearRequirements(siteName string) error {
	_, err := s.db.Exec(
		"DELETE FROM requirements WHERE site_id = (SELECT id FROM sites WHERE name = ?)",
		siteName,
	)
	if err != nil {
		return fmt.Errorf("clear requirements: %w", err)
	}
	return nil
}

const requirementColumns = `r.id, r.site_id, s.name, r.commodity, r.amount_required,
	r.quantity_delivered, r.created_at, r.updated_at`

// ListRequirements returns a site's ledger sorted by commodity.
// An unknown site has an empty ledger.
func (s *SQLiteDB) ListRequirements(siteName string) ([]*models.Requirement, error) {
	rows, err := s.db.Query(
		`SELECT `+requirementColumns+`
		 FROM requirements r JOIN sites s ON s.id = r.site_id
		 WHERE s.name = ? ORDER BY r.commodity`,
		siteName,
	)
	if err != nil {
		return nil, fmt.Errorf("query requirements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return s.scanRequirements(rows)
}

// ListAllRequirements returns every ledger row, grouped by site name.
func (s *SQLiteDB) ListAllRequirements() ([]*models.Requirement, error) {
	rows, err := s.db.Query(
		`SELECT ` + requirementColumns + `
		 FROM requirements r JOIN sites s ON s.id = r.site_id
		 ORDER BY s.name, r.commodity`,
	)
	if err != nil {
		return nil, fmt.Errorf("query requirements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return s.scanRequirements(rows)
}

func (s *SQLiteDB) scanRequirements(rows *sql.Rows) ([]*models.Requirement, error) {
	var reqs []*models.Requirement
	for rows.Next() {
		var idStr, siteIDStr string
		var req models.Requirement
		err := rows.Scan(&idStr, &siteIDStr, &req.Site, &req.Commodity,
			&req.AmountRequired, &req.QuantityDelivered, &req.CreatedAt, &req.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		req.ID, _ = uuid.Parse(idStr)
		req.SiteID, _ = uuid.Parse(siteIDStr)
		reqs = append(reqs, &req)
	}
	return reqs, rows.Err()
}
