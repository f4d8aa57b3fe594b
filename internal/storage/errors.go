// ABOUTME: Common storage errors
// ABOUTME: Enables consistent error handling across storage implementations

package storage

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrLedgerOrphaned is returned when a site was removed from the catalog
// but some of its ledger rows could not be purged.
var ErrLedgerOrphaned = errors.New("site removed but ledger not purged")
