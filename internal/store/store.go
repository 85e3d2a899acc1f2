// Package store persists imported transactions, account balance anchors and
// confirmed column mappings.
package store

import (
	"context"
	"errors"

	"github.com/budgetline/releve/internal/domain"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Transaction is a persisted transaction: the parsed fields plus the
// enrichment the ingestion pipeline attaches.
type Transaction struct {
	domain.ParsedTransaction
	Category    string `json:"category"`
	Fingerprint string `json:"fingerprint"`
}

// Store is the persistence boundary of the ingestion pipeline.
type Store interface {
	// EnsureAccount creates the account if it does not exist yet. An
	// existing account is left untouched.
	EnsureAccount(ctx context.Context, account domain.Account) error

	// Account returns the account, or ErrNotFound.
	Account(ctx context.Context, id string) (*domain.Account, error)

	// Fingerprints returns every fingerprint already imported for the account.
	Fingerprints(ctx context.Context, accountID string) ([]string, error)

	// InsertTransactions inserts the batch and returns how many rows were
	// actually written. A fingerprint collision on the account silently
	// drops that row, so concurrent imports of the same file cannot
	// double-insert.
	InsertTransactions(ctx context.Context, accountID string, txs []Transaction) (int, error)

	// Transactions returns the account's transactions ordered by date.
	Transactions(ctx context.Context, accountID string) ([]Transaction, error)

	// UpdateAnchor replaces the account's balance anchor.
	UpdateAnchor(ctx context.Context, accountID string, anchor domain.BalanceAnchor) error

	// SaveMapping persists a confirmed column mapping under the header
	// shape fingerprint, replacing any previous mapping for that shape.
	SaveMapping(ctx context.Context, headerFingerprint string, mapping domain.ColumnMapping) error

	// Mapping returns the mapping stored for a header shape, or ErrNotFound.
	Mapping(ctx context.Context, headerFingerprint string) (*domain.ColumnMapping, error)

	Close() error
}
