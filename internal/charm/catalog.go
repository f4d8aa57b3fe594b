// ABOUTME: Item and site catalog operations using Charm KV
// ABOUTME: Handles idempotent inserts, listing, and site removal with ledger purge

package charm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/charm/kv"
	"github.com/harper/colony/internal/models"
	"github.com/harper/colony/internal/storage"
)

// Compile-time check that Client implements storage.Repository.
var _ storage.Repository = (*Client)(nil)

func itemKey(name string) []byte {
	return []byte(ItemPrefix + name)
}

func siteKey(name string) []byte {
	return []byte(SitePrefix + name)
}

// putIfAbsent stores value under key unless the key exists.
func putIfAbsent(k *kv.KV, key []byte, value any) (bool, error) {
	_, err := k.Get(key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, kv.ErrMissingKey) {
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := k.Set(key, data); err != nil {
		return false, fmt.Errorf("set %s: %w", key, err)
	}
	return true, nil
}

// AddItem stores an item unless one with the same name exists.
func (c *Client) AddItem(item *models.Item) (bool, error) {
	var created bool
	err := c.Do(func(k *kv.KV) error {
		var err error
		created, err = putIfAbsent(k, itemKey(item.Name), item)
		return err
	})
	return created, err
}

// ListItems returns all items sorted by name.
func (c *Client) ListItems() ([]*models.Item, error) {
	var items []*models.Item
	err := c.DoReadOnly(func(k *kv.KV) error {
		return scanPrefix(k, []byte(ItemPrefix), func(data []byte) error {
			var item models.Item
			if err := json.Unmarshal(data, &item); err != nil {
				return fmt.Errorf("unmarshal item: %w", err)
			}
			items = append(items, &item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// AddSite stores a site unless one with the same name exists.
// A new site starts with an empty ledger, even if an earlier removal left rows behind.
func (c *Client) AddSite(site *models.Site) (bool, error) {
	var created bool
	err := c.Do(func(k *kv.KV) error {
		var err error
		created, err = putIfAbsent(k, siteKey(site.Name), site)
		if err != nil || !created {
			return err
		}
		return deletePrefix(k, ledgerPrefix(site.Name))
	})
	return created, err
}

// GetSiteByName retrieves a site by its name.
func (c *Client) GetSiteByName(name string) (*models.Site, error) {
	var site *models.Site
	err := c.DoReadOnly(func(k *kv.KV) error {
		var err error
		site, err = getSite(k, name)
		return err
	})
	return site, err
}

func getSite(k *kv.KV, name string) (*models.Site, error) {
	data, err := k.Get(siteKey(name))
	if err != nil {
		if errors.Is(err, kv.ErrMissingKey) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get site: %w", err)
	}

	var site models.Site
	if err := json.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("unmarshal site: %w", err)
	}
	return &site, nil
}

// ListSites returns all sites sorted by name.
func (c *Client) ListSites() ([]*models.Site, error) {
	var sites []*models.Site
	err := c.DoReadOnly(func(k *kv.KV) error {
		return scanPrefix(k, []byte(SitePrefix), func(data []byte) error {
			var site models.Site
			if err := json.Unmarshal(data, &site); err != nil {
				return fmt.Errorf("unmarshal site: %w", err)
			}
			sites = append(sites, &site)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sites, func(i, j int) bool {
		return sites[i].Name < sites[j].Name
	})
	return sites, nil
}

// DeleteSite removes a site, then purges its ledger in a second transaction.
// If the purge fails the site is still gone and the error wraps
// storage.ErrLedgerOrphaned.
func (c *Client) DeleteSite(name string) error {
	err := c.Do(func(k *kv.KV) error {
		if _, err := getSite(k, name); err != nil {
			return err
		}
		if err := k.Delete(siteKey(name)); err != nil {
			return fmt.Errorf("delete site: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := c.Do(func(k *kv.KV) error {
		return deletePrefix(k, ledgerPrefix(name))
	}); err != nil {
		return fmt.Errorf("%w: %s: %v", storage.ErrLedgerOrphaned, name, err)
	}
	return nil
}

// scanPrefix calls fn with the value of every key starting with prefix.
func scanPrefix(k *kv.KV, prefix []byte, fn func(data []byte) error) error {
	keys, err := k.Keys()
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	for _, key := range keys {
		if !bytes.HasPrefix(key, prefix) {
			continue
		}
		data, err := k.Get(key)
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		if err := fn(data); err != nil {
			return err
		}
	}
	return nil
}

// deletePrefix removes every key starting with prefix.
func deletePrefix(k *kv.KV, prefix []byte) error {
	keys, err := k.Keys()
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	for _, key := range keys {
		if !bytes.HasPrefix(key, prefix) {
			continue
		}
		if err := k.Delete(key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}
