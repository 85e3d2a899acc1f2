package banks

import (
	"context"
	"io"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

// Fortuneo exports a semicolon CSV with debit/credit columns; debit cells
// already carry a minus sign, which the shared row helper normalizes away:
//
//	Date opération;Date valeur;libellé;Débit;Crédit
//	12/02/2026;12/02/2026;PRLV SEPA EDF;-120,50;
const (
	ftName      = "fortuneo"
	ftBankName  = "Fortuneo"
	ftSignature = "date operation;date valeur"
)

// FortuneoParser parses Fortuneo CSV exports. Stateless, safe for concurrent
// use.
type FortuneoParser struct{}

var ftInstance = &FortuneoParser{}

// NewFortuneo returns the shared parser instance.
func NewFortuneo() *FortuneoParser { return ftInstance }

// Name returns the parser identifier.
func (p *FortuneoParser) Name() string { return ftName }

// CanParse matches delimited files carrying the Fortuneo date column pair.
func (p *FortuneoParser) CanParse(path string, header []byte) bool {
	return hasDelimitedExt(path) && headerMatches(header, ftSignature)
}

// Parse extracts transactions from the debit/credit pair. No balance is
// offered in this export.
func (p *FortuneoParser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	lines, err := readLines(ctx, r, meta)
	if err != nil {
		return nil, err
	}

	result := domain.EmptyResult(ftBankName, "EUR")

	headerIdx := findHeader(lines, ftSignature)
	if headerIdx < 0 {
		return result, nil
	}

	idx := headerIndexes(transform.SplitQuoted(lines[headerIdx], ';'))
	dateCol := colIndex(idx, "date operation")
	descCol := colIndex(idx, "libelle")
	debitCol := colIndex(idx, "debit")
	creditCol := colIndex(idx, "credit")
	if dateCol < 0 || descCol < 0 || debitCol < 0 || creditCol < 0 {
		return result, nil
	}

	for _, line := range lines[headerIdx+1:] {
		fields := transform.SplitQuoted(line, ';')
		tx, ok := debitCreditRow(field(fields, dateCol), field(fields, descCol),
			field(fields, debitCol), field(fields, creditCol))
		if !ok {
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}
