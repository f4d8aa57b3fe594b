// ABOUTME: Accounting API over the catalog and per-site ledgers
// ABOUTME: Logs storage failures with context and tolerates orphaned ledger cleanup

package ledger

import (
	"errors"
	"fmt"

	"github.com/harper/colony/internal/models"
	"github.com/harper/colony/internal/storage"
	"go.uber.org/zap"
)

// Service is the single entry point collaborators use to change or read ledgers.
// It performs no validation of caller input beyond what storage enforces.
type Service struct {
	repo   storage.Repository
	logger *zap.Logger
}

// RequirementInput is one (commodity, amount) pair for a bulk set.
type RequirementInput struct {
	Commodity string `json:"commodity"`
	Amount    int64  `json:"amount"`
}

// ImportSummary counts the outcome of a bulk import.
type ImportSummary struct {
	Imported     int `json:"imported"`
	Skipped      int `json:"skipped"`
	SitesCreated int `json:"sites_created"`
}

// NewService creates a service over repo. A nil logger disables logging.
func NewService(repo storage.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Repository returns the underlying storage.
func (s *Service) Repository() storage.Repository {
	return s.repo
}

// fail logs a storage failure with its context and returns it wrapped.
// A missing site is the caller's problem, so it is only logged at debug.
func (s *Service) fail(op string, err error, fields ...zap.Field) error {
	fields = append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Debug("site not found", fields...)
	} else {
		s.logger.Error("storage operation failed", fields...)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// AddItem registers a commodity name. Adding a known name is a no-op.
func (s *Service) AddItem(name string) (bool, error) {
	created, err := s.repo.AddItem(models.NewItem(name))
	if err != nil {
		return false, s.fail("add item", err, zap.String("commodity", name))
	}
	if created {
		s.logger.Info("item added", zap.String("commodity", name))
	}
	return created, nil
}

// SeedItems adds the default commodity catalog and returns how many were new.
func (s *Service) SeedItems() (int, error) {
	count := 0
	for _, name := range models.DefaultCommodities {
		created, err := s.repo.AddItem(models.NewItem(name))
		if err != nil {
			return count, s.fail("seed items", err, zap.String("commodity", name))
		}
		if created {
			count++
		}
	}
	if count > 0 {
		s.logger.Info("catalog seeded", zap.Int("items", count))
	}
	return count, nil
}

// ListItems returns every known commodity name, sorted.
func (s *Service) ListItems() ([]string, error) {
	items, err := s.repo.ListItems()
	if err != nil {
		return nil, s.fail("list items", err)
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names, nil
}

// ListSites returns every known site name, sorted.
func (s *Service) ListSites() ([]string, error) {
	sites, err := s.repo.ListSites()
	if err != nil {
		return nil, s.fail("list sites", err)
	}
	names := make([]string, 0, len(sites))
	for _, site := range sites {
		names = append(names, site.Name)
	}
	return names, nil
}

// AddSite registers a site. Its ledger exists as soon as the site does.
func (s *Service) AddSite(name string) (bool, error) {
	created, err := s.repo.AddSite(models.NewSite(name))
	if err != nil {
		return false, s.fail("add site", err, zap.String("site", name))
	}
	if created {
		s.logger.Info("site added", zap.String("site", name))
	}
	return created, nil
}

// SiteExists reports whether name is in the site catalog.
func (s *Service) SiteExists(name string) (bool, error) {
	_, err := s.repo.GetSiteByName(name)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, s.fail("get site", err, zap.String("site", name))
	}
	return true, nil
}

// RemoveSite deletes a site and its ledger. Removing an unknown site is a no-op.
// If the site is gone but its ledger could not be purged, the leftover rows are
// logged as a warning and the removal still counts as done.
func (s *Service) RemoveSite(name string) error {
	err := s.repo.DeleteSite(name)
	switch {
	case err == nil:
		s.logger.Info("site removed", zap.String("site", name))
		return nil
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Debug("site already absent", zap.String("site", name))
		return nil
	case errors.Is(err, storage.ErrLedgerOrphaned):
		s.logger.Warn("site removed with orphaned ledger", zap.String("site", name), zap.Error(err))
		return nil
	default:
		return s.fail("remove site", err, zap.String("site", name))
	}
}

// AddDelivery adds quantity to the delivered total for a commodity at a site.
func (s *Service) AddDelivery(site, commodity string, quantity int64) error {
	if err := s.repo.AddDelivery(site, commodity, quantity); err != nil {
		return s.fail("add delivery", err, zap.String("site", site), zap.String("commodity", commodity))
	}
	s.logger.Info("delivery recorded",
		zap.String("site", site), zap.String("commodity", commodity), zap.Int64("quantity", quantity))
	return nil
}

// SetRequirement sets the required amount for a commodity at a site.
func (s *Service) SetRequirement(site, commodity string, amount int64) error {
	if err := s.repo.SetRequirement(site, commodity, amount); err != nil {
		return s.fail("set requirement", err, zap.String("site", site), zap.String("commodity", commodity))
	}
	s.logger.Debug("requirement set",
		zap.String("site", site), zap.String("commodity", commodity), zap.Int64("amount", amount))
	return nil
}

// SetRequirements sets several requirements for one site in order.
// A failure stops the batch; earlier sets stay committed.
func (s *Service) SetRequirements(site string, inputs []RequirementInput) error {
	for _, in := range inputs {
		if err := s.SetRequirement(site, in.Commodity, in.Amount); err != nil {
			return err
		}
	}
	return nil
}

// RemoveRequirement deletes one commodity row from a site's ledger, if present.
func (s *Service) RemoveRequirement(site, commodity string) error {
	if err := s.repo.RemoveRequirement(site, commodity); err != nil {
		return s.fail("remove requirement", err, zap.String("site", site), zap.String("commodity", commodity))
	}
	return nil
}

// FetchDeliveries returns the ledger rows of one site.
// An unknown site has an empty ledger.
func (s *Service) FetchDeliveries(site string) ([]*models.Requirement, error) {
	reqs, err := s.repo.ListRequirements(site)
	if err != nil {
		return nil, s.fail("fetch deliveries", err, zap.String("site", site))
	}
	return reqs, nil
}

// FetchAll returns every ledger row, site by site.
func (s *Service) FetchAll() ([]*models.Requirement, error) {
	sites, err := s.ListSites()
	if err != nil {
		return nil, err
	}

	var all []*models.Requirement
	for _, site := range sites {
		reqs, err := s.FetchDeliveries(site)
		if err != nil {
			return nil, err
		}
		all = append(all, reqs...)
	}
	return all, nil
}

// ClearDeliveries deletes every row in a site's ledger.
func (s *Service) ClearDeliveries(site string) error {
	if err := s.repo.ClearRequirements(site); err != nil {
		return s.fail("clear deliveries", err, zap.String("site", site))
	}
	s.logger.Info("ledger cleared", zap.String("site", site))
	return nil
}

// Import applies (commodity, amount_required, site) rows in order.
// Short rows and rows with a blank or otherwise invalid commodity or site are
// skipped. Amounts that are not plain non-negative integers become 0; digit
// strings beyond int64 clamp with a warning. Each row registers its item and
// site before setting the requirement, so no row ever lands without its site.
// A storage failure stops the import; rows already applied stay committed.
func (s *Service) Import(rows []models.ImportRow) (*ImportSummary, error) {
	summary := &ImportSummary{}

	for i, row := range rows {
		if len(row) < 3 || models.ValidateName(row[0]) != nil || models.ValidateName(row[2]) != nil {
			s.logger.Debug("import row skipped", zap.Int("row", i+1), zap.Strings("fields", row))
			summary.Skipped++
			continue
		}
		commodity, site := row[0], row[2]
		amount, clamped := models.CoerceAmount(row[1])
		if clamped {
			s.logger.Warn("import amount out of range, clamped",
				zap.Int("row", i+1), zap.String("commodity", commodity), zap.String("site", site), zap.String("amount", row[1]))
		}

		if _, err := s.AddItem(commodity); err != nil {
			return summary, err
		}
		created, err := s.AddSite(site)
		if err != nil {
			return summary, err
		}
		if created {
			summary.SitesCreated++
		}
		if err := s.SetRequirement(site, commodity, amount); err != nil {
			return summary, err
		}
		summary.Imported++
	}

	s.logger.Info("import finished",
		zap.Int("imported", summary.Imported),
		zap.Int("skipped", summary.Skipped),
		zap.Int("sites_created", summary.SitesCreated))
	return summary, nil
}
