package banks

import (
	"context"
	"io"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

// ING exports the most generic of the semicolon layouts, a bare
// date/label/amount grid:
//
//	Date;Libellé;Montant;Devise
//	10/02/2026;VIREMENT SALAIRE;2000,00;EUR
//
// Because the signature is so weak this parser sits last in the registry
// order and doubles as the registry's last-resort fallback: its header lookup
// tolerates any file and simply yields an empty result when nothing matches.
const (
	ingName      = "ing"
	ingBankName  = "ING"
	ingSignature = "libelle;montant"
)

// INGParser parses ING CSV exports. Stateless, safe for concurrent use.
type INGParser struct{}

var ingInstance = &INGParser{}

// NewING returns the shared parser instance.
func NewING() *INGParser { return ingInstance }

// Name returns the parser identifier.
func (p *INGParser) Name() string { return ingName }

// CanParse matches any delimited file with a date/label/amount header.
func (p *INGParser) CanParse(path string, header []byte) bool {
	return hasDelimitedExt(path) && headerMatches(header, ingSignature)
}

// Parse extracts transactions from the generic grid. Unrecognized content
// yields an empty result, never an error: as the fallback parser this is the
// path every unclaimed file takes.
func (p *INGParser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	lines, err := readLines(ctx, r, meta)
	if err != nil {
		return nil, err
	}

	result := domain.EmptyResult(ingBankName, "EUR")

	headerIdx := findHeader(lines, ingSignature)
	if headerIdx < 0 {
		return result, nil
	}

	idx := headerIndexes(transform.SplitQuoted(lines[headerIdx], ';'))
	dateCol := colIndex(idx, "date")
	descCol := colIndex(idx, "libelle", "description", "label")
	amountCol := colIndex(idx, "montant", "amount")
	currencyCol := colIndex(idx, "devise", "currency")
	if dateCol < 0 || descCol < 0 || amountCol < 0 {
		return result, nil
	}

	for _, line := range lines[headerIdx+1:] {
		fields := transform.SplitQuoted(line, ';')
		tx, ok := singleAmountRow(field(fields, dateCol), field(fields, descCol), field(fields, amountCol))
		if !ok {
			continue
		}
		if result.Currency == "EUR" {
			if c := field(fields, currencyCol); len(c) == 3 {
				result.Currency = c
			}
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}
