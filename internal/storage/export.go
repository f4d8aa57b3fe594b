// ABOUTME: Backup and report functionality for colony data
// ABOUTME: Supports YAML backup format and markdown site reports

package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harper/colony/internal/models"
	"gopkg.in/yaml.v3"
)

// BackupVersion is the current backup format version.
const BackupVersion = "1.0"

// Backup represents the YAML backup format.
type Backup struct {
	Version      string              `yaml:"version"`
	ExportedAt   time.Time           `yaml:"exported_at"`
	Tool         string              `yaml:"tool"`
	Items        []ItemBackup        `yaml:"items"`
	Sites        []SiteBackup        `yaml:"sites"`
	Requirements []RequirementBackup `yaml:"requirements"`
}

// ItemBackup represents an item in the backup format.
type ItemBackup struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	CreatedAt time.Time `yaml:"created_at"`
}

// SiteBackup represents a site in the backup format.
type SiteBackup struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	CreatedAt time.Time `yaml:"created_at"`
}

// RequirementBackup represents a ledger row in the backup format.
type RequirementBackup struct {
	ID                string    `yaml:"id"`
	Site              string    `yaml:"site"`
	Commodity         string    `yaml:"commodity"`
	AmountRequired    int64     `yaml:"amount_required"`
	QuantityDelivered int64     `yaml:"quantity_delivered"`
	CreatedAt         time.Time `yaml:"created_at"`
	UpdatedAt         time.Time `yaml:"updated_at"`
}

// ExportBackup exports all data to YAML format.
func ExportBackup(repo Repository) ([]byte, error) {
	items, err := repo.ListItems()
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	sites, err := repo.ListSites()
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}

	reqs, err := repo.ListAllRequirements()
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}

	backup := Backup{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		Tool:         "colony",
		Items:        make([]ItemBackup, len(items)),
		Sites:        make([]SiteBackup, len(sites)),
		Requirements: make([]RequirementBackup, len(reqs)),
	}

	for i, item := range items {
		backup.Items[i] = ItemBackup{
			ID:        item.ID.String(),
			Name:      item.Name,
			CreatedAt: item.CreatedAt,
		}
	}

	for i, site := range sites {
		backup.Sites[i] = SiteBackup{
			ID:        site.ID.String(),
			Name:      site.Name,
			CreatedAt: site.CreatedAt,
		}
	}

	for i, req := range reqs {
		backup.Requirements[i] = RequirementBackup{
			ID:                req.ID.String(),
			Site:              req.Site,
			Commodity:         req.Commodity,
			AmountRequired:    req.AmountRequired,
			QuantityDelivered: req.QuantityDelivered,
			CreatedAt:         req.CreatedAt,
			UpdatedAt:         req.UpdatedAt,
		}
	}

	return yaml.Marshal(backup)
}

// ImportBackup restores data from YAML format.
// Existing items and sites are kept; ledger rows in the backup replace
// any row with the same site and commodity.
func ImportBackup(repo Repository, data []byte) error {
	var backup Backup
	if err := yaml.Unmarshal(data, &backup); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	if backup.Version != BackupVersion {
		return fmt.Errorf("unsupported backup version: %s (expected %s)", backup.Version, BackupVersion)
	}

	if backup.Tool != "colony" {
		return fmt.Errorf("wrong tool: %s (expected colony)", backup.Tool)
	}

	for _, ib := range backup.Items {
		id, err := uuid.Parse(ib.ID)
		if err != nil {
			return fmt.Errorf("invalid item ID %s: %w", ib.ID, err)
		}
		item := &models.Item{ID: id, Name: ib.Name, CreatedAt: ib.CreatedAt}
		if _, err := repo.AddItem(item); err != nil {
			return fmt.Errorf("add item %s: %w", ib.Name, err)
		}
	}

	for _, sb := range backup.Sites {
		id, err := uuid.Parse(sb.ID)
		if err != nil {
			return fmt.Errorf("invalid site ID %s: %w", sb.ID, err)
		}
		site := &models.Site{ID: id, Name: sb.Name, CreatedAt: sb.CreatedAt}
		if _, err := repo.AddSite(site); err != nil {
			return fmt.Errorf("add site %s: %w", sb.Name, err)
		}
	}

	for _, rb := range backup.Requirements {
		id, err := uuid.Parse(rb.ID)
		if err != nil {
			return fmt.Errorf("invalid requirement ID %s: %w", rb.ID, err)
		}
		req := &models.Requirement{
			ID:                id,
			Site:              rb.Site,
			Commodity:         rb.Commodity,
			AmountRequired:    rb.AmountRequired,
			QuantityDelivered: rb.QuantityDelivered,
			CreatedAt:         rb.CreatedAt,
			UpdatedAt:         rb.UpdatedAt,
		}
		if err := repo.PutRequirement(req); err != nil {
			return fmt.Errorf("restore %s at %s: %w", rb.Commodity, rb.Site, err)
		}
	}

	return nil
}

// SiteWithRequirements groups a site with its ledger.
type SiteWithRequirements struct {
	Site         *models.Site
	Requirements []*models.Requirement
}

// GetSitesWithRequirements retrieves sites with their ledgers.
// If site is empty, returns all sites.
func GetSitesWithRequirements(repo Repository, site string) ([]SiteWithRequirements, error) {
	var sites []*models.Site

	if site != "" {
		s, err := repo.GetSiteByName(site)
		if err != nil {
			return nil, err
		}
		sites = []*models.Site{s}
	} else {
		var err error
		sites, err = repo.ListSites()
		if err != nil {
			return nil, err
		}
	}

	result := make([]SiteWithRequirements, len(sites))
	for i, s := range sites {
		reqs, err := repo.ListRequirements(s.Name)
		if err != nil {
			return nil, fmt.Errorf("list requirements for %s: %w", s.Name, err)
		}
		result[i] = SiteWithRequirements{Site: s, Requirements: reqs}
	}

	return result, nil
}

// ExportToMarkdown renders a delivery report as markdown.
// If site is empty, reports every site.
func ExportToMarkdown(repo Repository, site, marker string) ([]byte, error) {
	data, err := GetSitesWithRequirements(repo, site)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder

	now := time.Now().UTC()
	sb.WriteString(fmt.Sprintf("# Colony Delivery Report - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	if len(data) == 0 {
		sb.WriteString("No sites tracked.\n")
		return []byte(sb.String()), nil
	}

	for _, swr := range data {
		sb.WriteString(fmt.Sprintf("## %s\n\n", swr.Site.Name))

		if len(swr.Requirements) == 0 {
			sb.WriteString("No requirements recorded.\n\n")
			continue
		}

		sb.WriteString("| Commodity | Required | Remaining | Delivered |\n")
		sb.WriteString("|-----------|----------|-----------|-----------|\n")

		for _, req := range swr.Requirements {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %d |\n",
				req.Commodity, req.AmountRequired, RemainingCell(req, marker), req.QuantityDelivered))
		}

		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}
