package banks

import (
	"context"
	"io"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

// Boursorama exports a semicolon CSV with camel-cased headers, ISO dates and
// a running account balance column:
//
//	dateOp;dateVal;label;category;categoryParent;supplierFound;amount;accountNum;accountLabel;accountbalance
//	2026-02-10;2026-02-10;"VIR SEPA SALAIRE";income;income;0;2000,00;001234;COMPTE;3500,25
const (
	brsName      = "boursorama"
	brsBankName  = "Boursorama"
	brsSignature = "dateop;dateval"
)

// BoursoramaParser parses Boursorama CSV exports. Stateless, safe for
// concurrent use.
type BoursoramaParser struct{}

var brsInstance = &BoursoramaParser{}

// NewBoursorama returns the shared parser instance.
func NewBoursorama() *BoursoramaParser { return brsInstance }

// Name returns the parser identifier.
func (p *BoursoramaParser) Name() string { return brsName }

// CanParse matches delimited files carrying the dateOp;dateVal header pair.
func (p *BoursoramaParser) CanParse(path string, header []byte) bool {
	return hasDelimitedExt(path) && headerMatches(header, brsSignature)
}

// Parse extracts transactions; the most recent row's accountbalance column
// provides the detected balance, dated by that row's operation date.
func (p *BoursoramaParser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	lines, err := readLines(ctx, r, meta)
	if err != nil {
		return nil, err
	}

	result := domain.EmptyResult(brsBankName, "EUR")

	headerIdx := findHeader(lines, brsSignature)
	if headerIdx < 0 {
		return result, nil
	}

	idx := headerIndexes(transform.SplitQuoted(lines[headerIdx], ';'))
	dateCol := colIndex(idx, "dateop")
	descCol := colIndex(idx, "label")
	amountCol := colIndex(idx, "amount")
	balanceCol := colIndex(idx, "accountbalance")
	if dateCol < 0 || descCol < 0 || amountCol < 0 {
		return result, nil
	}

	// Rows are exported newest first; the first valid row carries the most
	// recent running balance.
	balanceSet := false
	for _, line := range lines[headerIdx+1:] {
		fields := transform.SplitQuoted(line, ';')
		tx, ok := singleAmountRow(field(fields, dateCol), field(fields, descCol), field(fields, amountCol))
		if !ok {
			continue
		}
		if !balanceSet && balanceCol >= 0 {
			if balance, err := transform.ParseAmount(field(fields, balanceCol)); err == nil {
				result.SetDetectedBalance(balance, tx.Date)
				balanceSet = true
			}
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}
