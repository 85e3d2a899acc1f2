package banks

import (
	"context"
	"io"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

// BNP Paribas exports a comma CSV with quoted labels (labels routinely
// contain commas) and a single signed amount:
//
//	Date operation,Categorie operation,Sous categorie operation,Montant operation,Libelle operation
//	10/02/2026,Alimentation,Supermarché,-45.90,"CARREFOUR, PARIS"
const (
	bnpName      = "bnp-paribas"
	bnpBankName  = "BNP Paribas"
	bnpSignature = "montant operation"
)

// BNPParibasParser parses BNP Paribas CSV exports. Stateless, safe for
// concurrent use.
type BNPParibasParser struct{}

var bnpInstance = &BNPParibasParser{}

// NewBNPParibas returns the shared parser instance.
func NewBNPParibas() *BNPParibasParser { return bnpInstance }

// Name returns the parser identifier.
func (p *BNPParibasParser) Name() string { return bnpName }

// CanParse matches delimited files carrying the "Montant operation" column.
func (p *BNPParibasParser) CanParse(path string, header []byte) bool {
	return hasDelimitedExt(path) && headerMatches(header, bnpSignature)
}

// Parse extracts transactions with quote-aware comma splitting.
func (p *BNPParibasParser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	lines, err := readLines(ctx, r, meta)
	if err != nil {
		return nil, err
	}

	result := domain.EmptyResult(bnpBankName, "EUR")

	headerIdx := findHeader(lines, bnpSignature)
	if headerIdx < 0 {
		return result, nil
	}

	idx := headerIndexes(transform.SplitQuoted(lines[headerIdx], ','))
	dateCol := colIndex(idx, "date operation", "date")
	amountCol := colIndex(idx, "montant operation")
	descCol := colIndex(idx, "libelle operation", "libelle")
	if dateCol < 0 || amountCol < 0 || descCol < 0 {
		return result, nil
	}

	for _, line := range lines[headerIdx+1:] {
		fields := transform.SplitQuoted(line, ',')
		tx, ok := singleAmountRow(field(fields, dateCol), field(fields, descCol), field(fields, amountCol))
		if !ok {
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}
