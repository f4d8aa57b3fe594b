// ABOUTME: Requirement ledger operations using Charm KV
// ABOUTME: Keys rows by site and commodity so each pair has exactly one value

package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/charm/kv"
	"github.com/harper/colony/internal/models"
	"github.com/harper/colony/internal/storage"
)

// ledgerPrefix is the key prefix shared by every row of one site.
// The NUL separator keeps "Alpha" from matching rows of "Alpha Two".
func ledgerPrefix(site string) []byte {
	return []byte(RequirementPrefix + site + "\x00")
}

func requirementKey(site, commodity string) []byte {
	return append(ledgerPrefix(site), commodity...)
}

// updateRequirement loads (or creates) the row for a pair, applies fn, and stores it.
// The site must exist.
func (c *Client) updateRequirement(siteName, commodity string, fn func(req *models.Requirement)) error {
	return c.Do(func(k *kv.KV) error {
		site, err := getSite(k, siteName)
		if err != nil {
			return err
		}

		key := requirementKey(siteName, commodity)
		req, err := getRequirement(k, key)
		if err != nil {
			return err
		}
		if req == nil {
			req = models.NewRequirement(site, commodity)
		}

		fn(req)
		req.UpdatedAt = time.Now()

		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("marshal requirement: %w", err)
		}
		return k.Set(key, data)
	})
}

// getRequirement returns the stored row or nil when absent.
func getRequirement(k *kv.KV, key []byte) (*models.Requirement, error) {
	data, err := k.Get(key)
	if err != nil {
		if errors.Is(err, kv.ErrMissingKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("get requirement: %w", err)
	}

	var req models.Requirement
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("unmarshal requirement: %w", err)
	}
	return &req, nil
}

// AddDelivery increments the delivered quantity for a commodity at a site.
func (c *Client) AddDelivery(site, commodity string, quantity int64) error {
	return c.updateRequirement(site, commodity, func(req *models.Requirement) {
		req.QuantityDelivered += quantity
	})
}

// SetRequirement overwrites the required amount for a commodity at a site.
func (c *Client) SetRequirement(site, commodity string, amount int64) error {
	return c.updateRequirement(site, commodity, func(req *models.Requirement) {
		req.AmountRequired = amount
	})
}

// PutRequirement writes a row with both amounts taken from req.
func (c *Client) PutRequirement(req *models.Requirement) error {
	return c.Do(func(k *kv.KV) error {
		site, err := getSite(k, req.Site)
		if err != nil {
			return err
		}

		row := *req
		row.SiteID = site.ID
		data, err := json.Marshal(&row)
		if err != nil {
			return fmt.Errorf("marshal requirement: %w", err)
		}
		return k.Set(requirementKey(req.Site, req.Commodity), data)
	})
}

// RemoveRequirement deletes the row for a commodity at a site, if any.
func (c *Client) RemoveRequirement(site, commodity string) error {
	return c.Do(func(k *kv.KV) error {
		key := requirementKey(site, commodity)
		if _, err := k.Get(key); err != nil {
			if errors.Is(err, kv.ErrMissingKey) {
				return nil
			}
			return fmt.Errorf("get requirement: %w", err)
		}
		return k.Delete(key)
	})
}

// ClearRequirements deletes every row in a site's ledger.
func (c *Client) ClearRequirements(site string) error {
	return c.Do(func(k *kv.KV) error {
		return deletePrefix(k, ledgerPrefix(site))
	})
}

// ListRequirements returns a site's ledger sorted by commodity.
// An unknown site has an empty ledger.
func (c *Client) ListRequirements(site string) ([]*models.Requirement, error) {
	var reqs []*models.Requirement
	err := c.DoReadOnly(func(k *kv.KV) error {
		if _, err := getSite(k, site); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			return err
		}
		var err error
		reqs, err = scanRequirements(k, ledgerPrefix(site))
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].Commodity < reqs[j].Commodity
	})
	return reqs, nil
}

// ListAllRequirements returns every ledger row, grouped by site name.
// Rows left behind by a removed site are skipped.
func (c *Client) ListAllRequirements() ([]*models.Requirement, error) {
	var reqs []*models.Requirement
	err := c.DoReadOnly(func(k *kv.KV) error {
		all, err := scanRequirements(k, []byte(RequirementPrefix))
		if err != nil {
			return err
		}

		live := make(map[string]bool)
		for _, req := range all {
			ok, seen := live[req.Site]
			if !seen {
				_, err := getSite(k, req.Site)
				if err != nil && !errors.Is(err, storage.ErrNotFound) {
					return err
				}
				ok = err == nil
				live[req.Site] = ok
			}
			if ok {
				reqs = append(reqs, req)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Site != reqs[j].Site {
			return reqs[i].Site < reqs[j].Site
		}
		return reqs[i].Commodity < reqs[j].Commodity
	})
	return reqs, nil
}

func scanRequirements(k *kv.KV, prefix []byte) ([]*models.Requirement, error) {
	var reqs []*models.Requirement
	err := scanPrefix(k, prefix, func(data []byte) error {
		var req models.Requirement
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("unmarshal requirement: %w", err)
		}
		reqs = append(reqs, &req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reqs, nil
}
