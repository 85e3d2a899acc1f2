package banks

import (
	"context"
	"io"
	"strings"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

// N26 exports a fully quoted comma CSV with English headers and ISO dates:
//
//	"Date","Payee","Account number","Transaction type","Payment reference","Amount (EUR)","Amount (Foreign Currency)","Type Foreign Currency","Exchange Rate"
//	"2026-02-10","CARREFOUR","","MasterCard Payment","","-45.90","","",""
const (
	n26Name      = "n26"
	n26BankName  = "N26"
	n26Signature = "payment reference"
)

// N26Parser parses N26 CSV exports. Stateless, safe for concurrent use.
type N26Parser struct{}

var n26Instance = &N26Parser{}

// NewN26 returns the shared parser instance.
func NewN26() *N26Parser { return n26Instance }

// Name returns the parser identifier.
func (p *N26Parser) Name() string { return n26Name }

// CanParse matches delimited files carrying the "Payment reference" column.
func (p *N26Parser) CanParse(path string, header []byte) bool {
	return hasDelimitedExt(path) && headerMatches(header, n26Signature)
}

// Parse extracts transactions with quote-aware comma splitting; the payment
// reference is appended to the payee when present.
func (p *N26Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	lines, err := readLines(ctx, r, meta)
	if err != nil {
		return nil, err
	}

	result := domain.EmptyResult(n26BankName, "EUR")

	headerIdx := findHeader(lines, n26Signature)
	if headerIdx < 0 {
		return result, nil
	}

	idx := headerIndexes(transform.SplitQuoted(lines[headerIdx], ','))
	dateCol := colIndex(idx, "date")
	payeeCol := colIndex(idx, "payee")
	refCol := colIndex(idx, "payment reference")
	amountCol := colIndex(idx, "amount (eur)")
	if dateCol < 0 || payeeCol < 0 || amountCol < 0 {
		return result, nil
	}

	for _, line := range lines[headerIdx+1:] {
		fields := transform.SplitQuoted(line, ',')
		description := field(fields, payeeCol)
		if ref := field(fields, refCol); ref != "" {
			description = strings.TrimSpace(description + " " + ref)
		}
		tx, ok := singleAmountRow(field(fields, dateCol), description, field(fields, amountCol))
		if !ok {
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}
