// ABOUTME: Repository interfaces for colony ledger storage
// ABOUTME: Enables testability and storage backend swapping

package storage

import "github.com/harper/colony/internal/models"

// CatalogRepository defines operations for the shared item and site catalogs.
type CatalogRepository interface {
	// AddItem inserts an item unless one with the same name exists.
	AddItem(item *models.Item) (bool, error)
	ListItems() ([]*models.Item, error)
	// AddSite inserts a site unless one with the same name exists.
	AddSite(site *models.Site) (bool, error)
	GetSiteByName(name string) (*models.Site, error)
	ListSites() ([]*models.Site, error)
	// DeleteSite removes a site and its entire ledger.
	DeleteSite(name string) error
}

// LedgerRepository defines operations on per-site requirement rows.
// Writes against a site that is not in the catalog return ErrNotFound.
type LedgerRepository interface {
	AddDelivery(site, commodity string, quantity int64) error
	SetRequirement(site, commodity string, amount int64) error
	RemoveRequirement(site, commodity string) error
	ListRequirements(site string) ([]*models.Requirement, error)
	ListAllRequirements() ([]*models.Requirement, error)
	ClearRequirements(site string) error
	// PutRequirement writes a row verbatim, replacing both amounts.
	// Used by restore and migration rather than by ledger events.
	PutRequirement(req *models.Requirement) error
}

// Repository combines all repository operations with lifecycle management.
type Repository interface {
	CatalogRepository
	LedgerRepository
	Close() error
	Sync() error
	Reset() error
}
