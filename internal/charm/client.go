// ABOUTME: Charm KV client wrapper using transactional Do API
// ABOUTME: Short-lived connections so no handle outlives a single operation

package charm

import (
	"os"

	"github.com/charmbracelet/charm/kv"
)

const (
	// DBName is the name of the Charm KV database for colony data.
	DBName = "colony"

	// DefaultCharmHost is the default Charm server to use.
	DefaultCharmHost = "charm.2389.dev"

	// Key prefixes for type-based organization.
	ItemPrefix        = "item:"
	SitePrefix        = "site:"
	RequirementPrefix = "req:"
)

// Client holds configuration for KV operations.
// It does NOT hold a persistent connection: each operation opens the
// database, performs the operation, and closes it.
type Client struct {
	dbName   string
	autoSync bool
}

// Config holds client configuration options.
type Config struct {
	// CharmHost is the Charm server to use (default: charm.2389.dev).
	CharmHost string
	// AutoSync enables automatic sync after writes.
	AutoSync bool
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = DefaultCharmHost
	}
	return &Config{
		CharmHost: host,
		AutoSync:  true,
	}
}

// NewClient creates a new client with the given config.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Set CHARM_HOST before any KV operations
	if err := os.Setenv("CHARM_HOST", cfg.CharmHost); err != nil {
		return nil, err
	}

	return &Client{
		dbName:   DBName,
		autoSync: cfg.AutoSync,
	}, nil
}

// NewTestClient creates a client for testing without network access.
func NewTestClient(dbName string) (*Client, error) {
	return &Client{
		dbName:   dbName,
		autoSync: false,
	}, nil
}

// DoReadOnly executes a function with read-only database access.
func (c *Client) DoReadOnly(fn func(k *kv.KV) error) error {
	return kv.DoReadOnly(c.dbName, fn)
}

// Do executes a function with write access to the database.
func (c *Client) Do(fn func(k *kv.KV) error) error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		if err := fn(k); err != nil {
			return err
		}
		if c.autoSync {
			return k.Sync()
		}
		return nil
	})
}

// Sync triggers a manual sync with the charm server.
func (c *Client) Sync() error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		return k.Sync()
	})
}

// Reset clears all data (nuclear option).
func (c *Client) Reset() error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		return k.Reset()
	})
}

// Close is a no-op: with the Do API, connections close after each operation.
func (c *Client) Close() error {
	return nil
}
