// ABOUTME: Data migration between colony storage backends
// ABOUTME: Copies items, sites, and ledger rows from source to destination repository

package storage

import (
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Items        int
	Sites        int
	Requirements int
}

// MigrateData copies all data from src to dst storage.
// Sites are created before their ledgers so no row is ever written
// without its site. The destination should be empty before calling this.
func MigrateData(src, dst Repository) (*MigrateSummary, error) {
	summary := &MigrateSummary{}

	items, err := src.ListItems()
	if err != nil {
		return nil, fmt.Errorf("list source items: %w", err)
	}
	for _, item := range items {
		if _, err := dst.AddItem(item); err != nil {
			return nil, fmt.Errorf("add item %q: %w", item.Name, err)
		}
		summary.Items++
	}

	sites, err := src.ListSites()
	if err != nil {
		return nil, fmt.Errorf("list source sites: %w", err)
	}
	for _, site := range sites {
		if _, err := dst.AddSite(site); err != nil {
			return nil, fmt.Errorf("add site %q: %w", site.Name, err)
		}
		summary.Sites++

		reqs, err := src.ListRequirements(site.Name)
		if err != nil {
			return nil, fmt.Errorf("list requirements for site %q: %w", site.Name, err)
		}
		for _, req := range reqs {
			if err := dst.PutRequirement(req); err != nil {
				return nil, fmt.Errorf("put %q for site %q: %w", req.Commodity, site.Name, err)
			}
			summary.Requirements++
		}
	}

	return summary, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
