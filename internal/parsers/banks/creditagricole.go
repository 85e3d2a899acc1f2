package banks

import (
	"context"
	"io"
	"strings"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

// Crédit Agricole exports a semicolon CSV with separate debit/credit columns
// and a dated balance line in the preamble:
//
//	Solde au 15/02/2026;1 234,56
//	Date;Libellé;Débit euros;Crédit euros
//	12/02/2026;PRELEVEMENT EDF;120,50;
const (
	caName          = "credit-agricole"
	caBankName      = "Crédit Agricole"
	caSignature     = "debit euros"
	caBalanceWindow = 10
)

// CreditAgricoleParser parses Crédit Agricole CSV exports. Stateless, safe
// for concurrent use.
type CreditAgricoleParser struct{}

var caInstance = &CreditAgricoleParser{}

// NewCreditAgricole returns the shared parser instance.
func NewCreditAgricole() *CreditAgricoleParser { return caInstance }

// Name returns the parser identifier.
func (p *CreditAgricoleParser) Name() string { return caName }

// CanParse matches delimited files carrying the "Débit euros" column.
func (p *CreditAgricoleParser) CanParse(path string, header []byte) bool {
	return hasDelimitedExt(path) && headerMatches(header, caSignature)
}

// Parse extracts transactions from the debit/credit pair and the preamble
// balance.
func (p *CreditAgricoleParser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	lines, err := readLines(ctx, r, meta)
	if err != nil {
		return nil, err
	}

	result := domain.EmptyResult(caBankName, "EUR")

	headerIdx := findHeader(lines, caSignature)
	if headerIdx < 0 {
		return result, nil
	}

	window := headerIdx
	if window > caBalanceWindow {
		window = caBalanceWindow
	}
	for _, line := range lines[:window] {
		if !strings.HasPrefix(transform.NormalizeHeader(line), "solde au") {
			continue
		}
		fields := transform.SplitQuoted(line, ';')
		if balance, date := amountAndDate(fields); balance != nil {
			result.SetDetectedBalance(*balance, date)
			break
		}
	}

	idx := headerIndexes(transform.SplitQuoted(lines[headerIdx], ';'))
	dateCol := colIndex(idx, "date")
	descCol := colIndex(idx, "libelle")
	debitCol := colIndex(idx, "debit euros", "debit")
	creditCol := colIndex(idx, "credit euros", "credit")
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
