// Package dedup provides transaction deduplication via SHA256 fingerprinting.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/budgetline/releve/internal/domain"
)

// Fingerprint creates a SHA256 hash of date, signed amount and description.
// Format: SHA256("{date}|{amount}|{normalizedDescription}")
// The amount is signed and formatted with 2 decimal places, so an income and
// an expense of the same magnitude on the same day stay distinct. The
// description is normalized to lowercase and trimmed.
func Fingerprint(tx domain.ParsedTransaction) string {
	input := fmt.Sprintf("%s|%s|%s",
		tx.Date,
		tx.SignedAmount().StringFixed(2),
		strings.ToLower(strings.TrimSpace(tx.Description)))
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// Index tracks known fingerprints during one import. Seeding it with the
// account's persisted fingerprints makes re-importing the same file a no-op;
// marking during iteration collapses repeats within the batch itself.
type Index struct {
	seen map[string]struct{}
}

// NewIndex creates an index seeded with already-imported fingerprints.
func NewIndex(known []string) *Index {
	seen := make(map[string]struct{}, len(known))
	for _, fp := range known {
		seen[fp] = struct{}{}
	}
	return &Index{seen: seen}
}

// Mark records the fingerprint and reports whether it was already known,
// either from the seed set or from an earlier transaction in this batch.
func (ix *Index) Mark(fp string) bool {
	if _, ok := ix.seen[fp]; ok {
		return true
	}
	ix.seen[fp] = struct{}{}
	return false
}

// Partition splits a batch into fresh transactions and duplicates, in input
// order, using fingerprints parallel to the transaction slice.
func Partition(txs []domain.ParsedTransaction, fingerprints []string, ix *Index) (fresh, duplicates []domain.ParsedTransaction) {
	for i, tx := range txs {
		if ix.Mark(fingerprints[i]) {
			duplicates = append(duplicates, tx)
			continue
		}
		fresh = append(fresh, tx)
	}
	return fresh, duplicates
}
