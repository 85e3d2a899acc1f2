// Package banks contains the per-institution delimited-text parsers.
//
// Each vendor parser is the same fixed pipeline: locate the header row by a
// distinctive signature (never by line number, preambles vary in length),
// extract the date/description/amount columns by position or header-name
// lookup, normalize via the transform package, classify the sign into the
// transaction type, and silently skip noise rows (section totals, blank
// trailers, zero amounts). Two structural variants recur: a single signed
// amount column, and separate debit/credit columns.
package banks

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

// hasDelimitedExt reports whether the path carries a delimited-text extension.
func hasDelimitedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

// readLines reads the whole body once, honoring cancellation, and splits it
// into lines with mis-encoding repair applied per line. Encoding repair is
// defensive: it is a no-op on clean text.
func readLines(ctx context.Context, r io.Reader, meta *parser.Metadata) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement%s: %w", parser.FileInfo(meta), err)
	}
	lines := transform.Lines(string(b))
	for i := range lines {
		lines[i] = transform.RepairEncoding(lines[i])
	}
	return lines, nil
}

// findHeader returns the index of the first line whose normalized form
// contains the signature, or -1. Signatures are given lowercased and
// accent-stripped.
func findHeader(lines []string, signature string) int {
	for i, line := range lines {
		if strings.Contains(transform.NormalizeHeader(line), signature) {
			return i
		}
	}
	return -1
}

// headerMatches is the CanParse-side check: signature lookup on the sniffed
// header bytes only.
func headerMatches(header []byte, signature string) bool {
	return strings.Contains(transform.NormalizeHeader(string(header)), signature)
}

// headerIndexes maps each normalized header name to its column position.
func headerIndexes(fields []string) map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[strings.TrimSpace(transform.NormalizeHeader(f))] = i
	}
	return idx
}

// colIndex returns the position of the first matching column name, or -1.
func colIndex(idx map[string]int, names ...string) int {
	for _, n := range names {
		if i, ok := idx[n]; ok {
			return i
		}
	}
	return -1
}

// field returns the trimmed cell at position i, or "" when the row is short.
func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// singleAmountRow builds a transaction from the single-signed-amount variant:
// negative magnitude means expense, positive means income. Returns false for
// noise rows (bad date, empty description, zero or garbage amount).
func singleAmountRow(dateStr, description, amountStr string) (domain.ParsedTransaction, bool) {
	date := transform.NormalizeDate(dateStr)
	if !transform.IsISODate(date) {
		return domain.ParsedTransaction{}, false
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return domain.ParsedTransaction{}, false
	}
	amount, err := transform.ParseAmount(amountStr)
	if err != nil || amount.IsZero() {
		return domain.ParsedTransaction{}, false
	}
	txType := domain.TxIncome
	if amount.IsNegative() {
		txType = domain.TxExpense
	}
	tx, err := domain.NewParsedTransaction(date, description, amount.Abs(), txType)
	if err != nil {
		return domain.ParsedTransaction{}, false
	}
	return tx, true
}

// debitCreditRow builds a transaction from the debit/credit variant: a
// populated debit cell wins as an expense of that magnitude, otherwise a
// populated credit cell yields an income. Rows where both are empty are
// skipped.
func debitCreditRow(dateStr, description, debitStr, creditStr string) (domain.ParsedTransaction, bool) {
	date := transform.NormalizeDate(dateStr)
	if !transform.IsISODate(date) {
		return domain.ParsedTransaction{}, false
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return domain.ParsedTransaction{}, false
	}
	if debit, err := transform.ParseAmount(debitStr); err == nil && !debit.IsZero() {
		tx, err := domain.NewParsedTransaction(date, description, debit.Abs(), domain.TxExpense)
		if err != nil {
			return domain.ParsedTransaction{}, false
		}
		return tx, true
	}
	if credit, err := transform.ParseAmount(creditStr); err == nil && !credit.IsZero() {
		tx, err := domain.NewParsedTransaction(date, description, credit.Abs(), domain.TxIncome)
		if err != nil {
			return domain.ParsedTransaction{}, false
		}
		return tx, true
	}
	return domain.ParsedTransaction{}, false
}

// embeddedDate matches a day-first date inside a label like "Solde au 15/02/2026".
var embeddedDate = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)

// amountAndDate scans a balance line's cells for the first amount-like value
// and the first date-like value. Either may be missing. Cells containing
// letters are treated as labels: a date may be embedded in them, an amount
// never is (otherwise "Solde au 15/02/2026" would read as an amount).
func amountAndDate(fields []string) (*decimal.Decimal, string) {
	var (
		balance *decimal.Decimal
		date    string
	)
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if strings.IndexFunc(f, unicode.IsLetter) >= 0 {
			if date == "" {
				if m := embeddedDate.FindString(f); m != "" {
					date = transform.NormalizeDate(m)
				}
			}
			continue
		}
		if date == "" {
			if d := transform.NormalizeDate(f); transform.IsISODate(d) {
				date = d
				continue
			}
		}
		if balance == nil {
			if a, err := transform.ParseAmount(f); err == nil {
				balance = &a
			}
		}
	}
	return balance, date
}
