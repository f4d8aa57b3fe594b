// ABOUTME: Core data models for items, sites, and requirement rows
// ABOUTME: Provides constructors, validators, and derived ledger values

package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// ValidateName checks if a name is valid (non-empty, within length limits,
// no control characters).
// Note: This validates the raw input - callers should trim whitespace themselves if needed.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("name cannot be empty or whitespace")
	}
	if len(name) > 255 {
		return fmt.Errorf("name too long (max 255 characters)")
	}
	// NUL separates site and commodity in KV keys.
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("name cannot contain control characters")
	}
	return nil
}

// ParseQuantity parses a delivery quantity, which must be a positive integer.
func ParseQuantity(s string) (int64, error) {
	qty, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("quantity must be a number: %q", s)
	}
	if qty <= 0 {
		return 0, fmt.Errorf("quantity must be positive, got %d", qty)
	}
	return qty, nil
}

// ParseAmount parses a required amount, which must be a non-negative integer.
func ParseAmount(s string) (int64, error) {
	amount, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount must be a number: %q", s)
	}
	if amount < 0 {
		return 0, fmt.Errorf("amount cannot be negative, got %d", amount)
	}
	return amount, nil
}

// CoerceAmount converts an imported amount to a non-negative integer.
// Anything other than plain decimal digits becomes 0. Digit strings too large
// for int64 clamp to math.MaxInt64 and report clamped.
func CoerceAmount(s string) (amount int64, clamped bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxInt64, true
		}
		return 0, false
	}
	return amount, false
}

// Item is a known commodity type.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Site is a delivery destination with its own ledger of requirements.
type Site struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Requirement is the ledger row for one commodity at one site.
type Requirement struct {
	ID                uuid.UUID `json:"id"`
	SiteID            uuid.UUID `json:"site_id"`
	Site              string    `json:"site"`
	Commodity         string    `json:"commodity"`
	AmountRequired    int64     `json:"amount_required"`
	QuantityDelivered int64     `json:"quantity_delivered"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Remaining returns the outstanding amount. Negative when over-delivered.
func (r *Requirement) Remaining() int64 {
	return r.AmountRequired - r.QuantityDelivered
}

// Complete reports whether nothing remains to be delivered.
func (r *Requirement) Complete() bool {
	return r.Remaining() <= 0
}

// ImportRow is one raw (commodity, amount_required, site) triple read from CSV.
// Fields are kept as text; coercion happens at import time.
type ImportRow []string

// NewItem creates a new item with generated UUID and timestamp.
func NewItem(name string) *Item {
	return &Item{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
	}
}

// NewSite creates a new site with generated UUID and timestamp.
func NewSite(name string) *Site {
	return &Site{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
	}
}

// NewRequirement creates an empty ledger row for a commodity at a site.
func NewRequirement(site *Site, commodity string) *Requirement {
	now := time.Now()
	return &Requirement{
		ID:        uuid.New(),
		SiteID:    site.ID,
		Site:      site.Name,
		Commodity: commodity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
