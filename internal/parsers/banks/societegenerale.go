package banks

import (
	"context"
	"io"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

// Société Générale exports a semicolon CSV with a single signed amount and a
// currency column:
//
//	Date de l'opération;Libellé;Détail de l'écriture;Montant de l'opération;Devise
//	10/02/2026;CARTE X1234;CARTE 08/02 CARREFOUR;-45,90;EUR
const (
	sgName      = "societe-generale"
	sgBankName  = "Société Générale"
	sgSignature = "detail de l'ecriture"
)

// SocieteGeneraleParser parses Société Générale CSV exports. Stateless, safe
// for concurrent use.
type SocieteGeneraleParser struct{}

var sgInstance = &SocieteGeneraleParser{}

// NewSocieteGenerale returns the shared parser instance.
func NewSocieteGenerale() *SocieteGeneraleParser { return sgInstance }

// Name returns the parser identifier.
func (p *SocieteGeneraleParser) Name() string { return sgName }

// CanParse matches delimited files carrying the "Détail de l'écriture" column.
func (p *SocieteGeneraleParser) CanParse(path string, header []byte) bool {
	return hasDelimitedExt(path) && headerMatches(header, sgSignature)
}

// Parse extracts transactions; the currency is taken from the Devise column
// of the first data row. No balance is offered in this export.
func (p *SocieteGeneraleParser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	lines, err := readLines(ctx, r, meta)
	if err != nil {
		return nil, err
	}

	result := domain.EmptyResult(sgBankName, "EUR")

	headerIdx := findHeader(lines, sgSignature)
	if headerIdx < 0 {
		return result, nil
	}

	idx := headerIndexes(transform.SplitQuoted(lines[headerIdx], ';'))
	dateCol := colIndex(idx, "date de l'operation", "date")
	descCol := colIndex(idx, "libelle")
	detailCol := colIndex(idx, "detail de l'ecriture")
	amountCol := colIndex(idx, "montant de l'operation", "montant")
	currencyCol := colIndex(idx, "devise")
	if dateCol < 0 || descCol < 0 || amountCol < 0 {
		return result, nil
	}

	for _, line := range lines[headerIdx+1:] {
		fields := transform.SplitQuoted(line, ';')
		description := field(fields, descCol)
		// The Détail column carries the full wire label; prefer it when the
		// short label is empty.
		if description == "" {
			description = field(fields, detailCol)
		}
		tx, ok := singleAmountRow(field(fields, dateCol), description, field(fields, amountCol))
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
