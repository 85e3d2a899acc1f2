package banks

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/budgetline/releve/internal/domain"
	"github.com/budgetline/releve/internal/parser"
	"github.com/budgetline/releve/internal/transform"
)

// LCL exports a headerless semicolon CSV: every line is a transaction in
// fixed positions (date;amount;code;label...), with a trailing balance line
// labeled "Solde":
//
//	02/01/2026;-45,90;CB;CARTE 02/01 MONOPRIX
//	05/01/2026;2000,00;VIR;VIREMENT SALAIRE
//	15/02/2026;1500,25;;Solde
const (
	lclName     = "lcl"
	lclBankName = "LCL"
)

var lclFirstField = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// LCLParser parses LCL CSV exports. Stateless, safe for concurrent use.
type LCLParser struct{}

var lclInstance = &LCLParser{}

// NewLCL returns the shared parser instance.
func NewLCL() *LCLParser { return lclInstance }

// Name returns the parser identifier.
func (p *LCLParser) Name() string { return lclName }

// CanParse sniffs the headerless shape: first line starts with a full
// day-first date followed by an amount. Checked strictly, since this format
// has no header signature to key on.
func (p *LCLParser) CanParse(path string, header []byte) bool {
	if !hasDelimitedExt(path) {
		return false
	}
	lines := transform.Lines(string(header))
	if len(lines) == 0 {
		return false
	}
	fields := transform.SplitQuoted(lines[0], ';')
	if len(fields) < 4 {
		return false
	}
	if !lclFirstField.MatchString(strings.TrimSpace(fields[0])) {
		return false
	}
	_, err := transform.ParseAmount(fields[1])
	return err == nil
}

// Parse extracts transactions by fixed position. The line whose label reads
// "Solde" carries the statement balance and is not a transaction.
func (p *LCLParser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParseResult, error) {
	lines, err := readLines(ctx, r, meta)
	if err != nil {
		return nil, err
	}

	result := domain.EmptyResult(lclBankName, "EUR")

	for _, line := range lines {
		fields := transform.SplitQuoted(line, ';')
		if len(fields) < 4 {
			continue
		}
		description := strings.TrimSpace(strings.Join(fields[3:], " "))
		if transform.NormalizeHeader(description) == "solde" {
			if balance, date := amountAndDate(fields[:2]); balance != nil {
				result.SetDetectedBalance(*balance, date)
			}
			continue
		}
		tx, ok := singleAmountRow(field(fields, 0), description, field(fields, 1))
		if !ok {
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}
