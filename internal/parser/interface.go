// Package parser defines the contract every statement parser implements.
package parser

import (
	"context"
	"errors"
	"io"

	"github.com/budgetline/releve/internal/domain"
)

// ErrUnreadableInput marks input the caller cannot recover from: an encrypted
// or empty binary document, or a structure no amount of row skipping can save.
// Parsers wrap it with a descriptive, user-facing message. Everything short of
// that (empty body, malformed rows) yields an empty ParseResult instead.
var ErrUnreadableInput = errors.New("unreadable input")

// Parser is the strategy interface for all statement format parsers.
type Parser interface {
	// Name returns the parser identifier (e.g. "banque-populaire", "pdf").
	Name() string

	// CanParse checks if this parser can handle the file. It must be cheap
	// (extension and header sniffing only, no full parse) and side-effect
	// free. False positives are worse than false negatives: the registry
	// stops at the first true.
	CanParse(path string, header []byte) bool

	// Parse extracts transactions from a file that already satisfied
	// CanParse. It must not fail on a merely-empty or malformed body; it
	// returns an empty transaction list with nulled balance fields instead,
	// reserving errors (wrapping ErrUnreadableInput where applicable) for
	// input the caller cannot recover from.
	Parse(ctx context.Context, r io.Reader, meta *Metadata) (*domain.ParseResult, error)
}
