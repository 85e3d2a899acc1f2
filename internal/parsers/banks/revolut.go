package banks

import (
	"context"
	"io"
	"strings"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

// Revolut exports a comma CSV with datetime stamps, a state column and a
// running balance:
//
//	Type,Product,Started Date,Completed Date,Description,Amount,Fee,Currency,State,Balance
//	CARD_PAYMENT,Current,2026-02-10 14:33:01,2026-02-11 09:12:44,Carrefour,-45.90,0.00,EUR,COMPLETED,1454.35
const (
	rvName      = "revolut"
	rvBankName  = "Revolut"
	rvSignature = "completed date"
)

// RevolutParser parses Revolut CSV exports. Stateless, safe for concurrent
// use.
type RevolutParser struct{}

var rvInstance = &RevolutParser{}

// NewRevolut returns the shared parser instance.
func NewRevolut() *RevolutParser { return rvInstance }

// Name returns the parser identifier.
func (p *RevolutParser) Name() string { return rvName }

// CanParse matches delimited files carrying the "Completed Date" column.
func (p *RevolutParser) CanParse(path string, header []byte) bool {
	return hasDelimitedExt(path) && headerMatches(header, rvSignature)
}

// Parse extracts completed transactions; pending and reverted rows are noise.
// The last completed row's balance column, dated by that row, provides the
// detected balance.
func (p *RevolutParser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	lines, err := readLines(ctx, r, meta)
	if err != nil {
		return nil, err
	}

	result := domain.EmptyResult(rvBankName, "EUR")

	headerIdx := findHeader(lines, rvSignature)
	if headerIdx < 0 {
		return result, nil
	}

	idx := headerIndexes(transform.SplitQuoted(lines[headerIdx], ','))
	dateCol := colIndex(idx, "completed date")
	descCol := colIndex(idx, "description")
	amountCol := colIndex(idx, "amount")
	currencyCol := colIndex(idx, "currency")
	stateCol := colIndex(idx, "state")
	balanceCol := colIndex(idx, "balance")
	if dateCol < 0 || descCol < 0 || amountCol < 0 {
		return result, nil
	}

	for _, line := range lines[headerIdx+1:] {
		fields := transform.SplitQuoted(line, ',')
		if stateCol >= 0 && !strings.EqualFold(field(fields, stateCol), "COMPLETED") {
			continue
		}
		tx, ok := singleAmountRow(dateOnly(field(fields, dateCol)), field(fields, descCol), field(fields, amountCol))
		if !ok {
			continue
		}
		if result.Currency == "EUR" {
			if c := field(fields, currencyCol); len(c) == 3 {
				result.Currency = c
			}
		}
		if balanceCol >= 0 {
			if balance, err := transform.ParseAmount(field(fields, balanceCol)); err == nil {
				result.SetDetectedBalance(balance, tx.Date)
			}
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}

// dateOnly strips the time component of a "YYYY-MM-DD HH:MM:SS" stamp.
func dateOnly(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}
